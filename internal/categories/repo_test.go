package categories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
)

func newTestRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ddl := `CREATE TABLE categories (
		id         text PRIMARY KEY,
		name       text NOT NULL,
		slug       text NOT NULL,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`
	if err := conn.Exec(ddl).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return NewRepository(conn), conn
}

func TestDeleteSoftDeletesRow(t *testing.T) {
	repo, conn := newTestRepo(t)
	ctx := context.Background()

	category := &models.Category{ID: uuid.New(), Name: "Elektronik", Slug: "elektronik"}
	if err := repo.Create(ctx, category); err != nil {
		t.Fatalf("create: %v", err)
	}

	affected, err := repo.Delete(ctx, category.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected row, got %d", affected)
	}

	var kept int64
	err = conn.Unscoped().Model(&models.Category{}).
		Where("id = ? AND deleted_at IS NOT NULL", category.ID).
		Count(&kept).Error
	if err != nil {
		t.Fatalf("count unscoped: %v", err)
	}
	if kept != 1 {
		t.Fatal("expected delete to keep the row with deleted_at set")
	}
}

func TestDeletedCategoryHiddenFromReads(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	category := &models.Category{ID: uuid.New(), Name: "Fashion Wanita", Slug: "fashion-wanita"}
	if err := repo.Create(ctx, category); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Delete(ctx, category.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.FindByID(ctx, category.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected deleted category hidden from FindByID, got %v", err)
	}
	if _, err := repo.FindBySlug(ctx, category.Slug); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected deleted category hidden from FindBySlug, got %v", err)
	}

	rows, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected deleted category excluded from listing, got %d rows", len(rows))
	}
}
