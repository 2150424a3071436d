package organizations

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/pagination"
)

// Repository handles organization persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to organization operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx persists a new organization row inside the transaction.
func (r *Repository) CreateTx(tx *gorm.DB, org *models.Organization) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if org == nil {
		return fmt.Errorf("organization is required")
	}
	return tx.Create(org).Error
}

// FindByID loads an organization by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindBySlug loads an organization by its storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByOwner returns the organization owned by the provided user, if any.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("owner = ?", ownerID).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// Update saves the provided organization.
func (r *Repository) Update(ctx context.Context, org *models.Organization) error {
	if org == nil {
		return fmt.Errorf("organization is required")
	}
	return r.db.WithContext(ctx).Save(org).Error
}

// FindByIDWithTx loads an organization using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Organization, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var org models.Organization
	if err := tx.First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// UpdateStatusTx moves the organization between moderation states. The update
// is guarded on the allowed source states so concurrent decisions lose cleanly;
// callers must treat zero affected rows as a state conflict.
func (r *Repository) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from []enums.OrganizationStatus, to enums.OrganizationStatus, reason *string) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Organization{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{
			"status":        to,
			"status_reason": reason,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// AdjustBalanceTx applies a signed delta to the cached withdrawable balance.
// Debits are guarded so the balance can never go below zero; callers must
// treat zero affected rows as insufficient funds.
func (r *Repository) AdjustBalanceTx(tx *gorm.DB, id uuid.UUID, delta int64) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.Organization{}).
		Where("id = ? AND balance + ? >= 0", id, delta).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Delete removes the organization row. Dependent rows cascade at the
// database level.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Organization{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListParams filters the admin organization listing.
type ListParams struct {
	Status *enums.OrganizationStatus
	pagination.Params
}

// ListPage is one cursor page of organizations.
type ListPage struct {
	Items      []models.Organization
	NextCursor string
}

// List returns organizations ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListPage, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Organization{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Organization
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
