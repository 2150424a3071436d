package products

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

// Repository handles product and variant persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to catalog operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx persists a product and its variants inside the transaction.
func (r *Repository) CreateTx(tx *gorm.DB, product *models.Product) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return tx.Create(product).Error
}

// FindByID loads a product with its variants. Soft-deleted rows stay
// fetchable by id so order history can resolve old listings.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Unscoped().
		Preload("Variants").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindForOrg loads a product scoped to the owning organization, including
// soft-deleted rows so merchants can inspect removed listings.
func (r *Repository) FindForOrg(ctx context.Context, orgID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Unscoped().
		Preload("Variants").
		Where("id = ? AND org_id = ?", id, orgID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update saves the provided product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Omit("Variants").Save(product).Error
}

// SoftDelete marks a live product as removed. A non-nil orgID restricts the
// delete to that organization's listings.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, orgID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if orgID != nil {
		query = query.Where("org_id = ?", *orgID)
	}
	res := query.Delete(&models.Product{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Restore clears the soft-delete marker on a removed product.
func (r *Repository) Restore(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// FindByIDWithTx loads a product using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var product models.Product
	if err := tx.Unscoped().First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateStatusTx moves a listing between moderation states. The update is
// guarded on the allowed source states so concurrent decisions lose cleanly;
// callers must treat zero affected rows as a state conflict.
func (r *Repository) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from []enums.ProductStatus, to enums.ProductStatus, reason *string) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Unscoped().Model(&models.Product{}).
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

// CreateVariant persists a new variant row.
func (r *Repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	if variant == nil {
		return fmt.Errorf("variant is required")
	}
	return r.db.WithContext(ctx).Create(variant).Error
}

// FindVariant loads a live variant scoped to its product.
func (r *Repository) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// UpdateVariant saves the provided variant.
func (r *Repository) UpdateVariant(ctx context.Context, variant *models.ProductVariant) error {
	if variant == nil {
		return fmt.Errorf("variant is required")
	}
	return r.db.WithContext(ctx).Save(variant).Error
}

// DeleteVariant soft-deletes a variant scoped to its product.
func (r *Repository) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		Delete(&models.ProductVariant{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ReserveStockTx atomically decrements stock for a checkout line. The guard
// keeps stock from going negative; callers must treat zero affected rows as
// insufficient stock.
func (r *Repository) ReserveStockTx(tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, quantity int) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	if quantity <= 0 {
		return 0, fmt.Errorf("quantity must be positive")
	}
	var res *gorm.DB
	if variantID != nil {
		res = tx.Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ? AND stock >= ?", *variantID, productID, quantity).
			Update("stock", gorm.Expr("stock - ?", quantity))
	} else {
		res = tx.Model(&models.Product{}).
			Where("id = ? AND stock >= ?", productID, quantity).
			Update("stock", gorm.Expr("stock - ?", quantity))
	}
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ReleaseStockTx returns previously reserved stock, for cancelled or expired
// orders. Soft-deleted rows still take the restock.
func (r *Repository) ReleaseStockTx(tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	var res *gorm.DB
	if variantID != nil {
		res = tx.Unscoped().Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ?", *variantID, productID).
			Update("stock", gorm.Expr("stock + ?", quantity))
	} else {
		res = tx.Unscoped().Model(&models.Product{}).
			Where("id = ?", productID).
			Update("stock", gorm.Expr("stock + ?", quantity))
	}
	return res.Error
}

// ListParams filters the product listing.
type ListParams struct {
	OrgID          *uuid.UUID
	CategoryID     *uuid.UUID
	Status         *enums.ProductStatus
	Query          string
	PriceMin       *int64
	PriceMax       *int64
	OnlyPublished  bool
	OnlyActiveOrgs bool
	pagination.Params
}

// ListPage is one cursor page of products.
type ListPage struct {
	Items      []models.Product
	NextCursor string
}

// List returns products ordered by creation time, newest first. Soft-deleted
// rows never appear regardless of filters.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListPage, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Variants")
	if params.OnlyActiveOrgs {
		query = query.Joins(
			"JOIN organizations ON organizations.id = products.org_id AND organizations.status = ?",
			enums.OrganizationStatusActive,
		)
	}
	if params.OrgID != nil {
		query = query.Where("products.org_id = ?", *params.OrgID)
	}
	if params.CategoryID != nil {
		query = query.Where("products.category_id = ?", *params.CategoryID)
	}
	if params.Status != nil {
		query = query.Where("products.status = ?", *params.Status)
	}
	if params.OnlyPublished {
		query = query.Where("products.is_published")
	}
	if params.Query != "" {
		query = query.Where("products.name ILIKE ?", "%"+params.Query+"%")
	}
	if params.PriceMin != nil {
		query = query.Where("products.price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("products.price <= ?", *params.PriceMax)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(products.created_at, products.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := query.
		Order("products.created_at DESC, products.id DESC").
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
