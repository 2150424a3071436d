package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/pagination"
)

// Repository handles coupon persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to coupon operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon == nil {
		return fmt.Errorf("coupon is required")
	}
	return r.db.WithContext(ctx).Create(coupon).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *Repository) Update(ctx context.Context, coupon *models.Coupon) error {
	if coupon == nil {
		return fmt.Errorf("coupon is required")
	}
	return r.db.WithContext(ctx).Save(coupon).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Coupon{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ConsumeTx burns one use inside the checkout transaction. The guard keeps
// the quota from oversubscribing under concurrent checkouts; callers must
// treat zero affected rows as quota exhaustion.
func (r *Repository) ConsumeTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Coupon{}).
		Where("id = ? AND (quota = -1 OR times_used < quota)", id).
		Updates(map[string]any{
			"times_used": gorm.Expr("times_used + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListParams filters the coupon listing. A nil OrgID with PlatformOnly set
// returns platform-wide coupons; a set OrgID returns that merchant's.
type ListParams struct {
	OrgID        *uuid.UUID
	PlatformOnly bool
	pagination.Params
}

// ListPage is one cursor page of coupons.
type ListPage struct {
	Items      []models.Coupon
	NextCursor string
}

// List returns coupons ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListPage, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Coupon{})
	if params.OrgID != nil {
		query = query.Where("org_id = ?", *params.OrgID)
	} else if params.PlatformOnly {
		query = query.Where("org_id IS NULL")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Coupon
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &ListPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	page.Items = rows
	return page, nil
}
