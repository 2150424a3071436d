package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
)

// Repository handles cart persistence. Quantity mutations are single
// conditional statements bounded by live stock, so two concurrent adds can
// never push a line past what the merchant has.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to cart operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListItems returns the buyer's cart rows, oldest first.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindItem loads one cart row scoped to the buyer.
func (r *Repository) FindItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// IncrementBounded adds delta to an existing line when the resulting quantity
// still fits the live stock. Zero affected rows means the line does not exist
// or the stock bound failed; callers disambiguate with InsertBounded.
func (r *Repository) IncrementBounded(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, delta int) (int64, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("delta must be positive")
	}
	var res *gorm.DB
	if variantID != nil {
		res = r.db.WithContext(ctx).Exec(`
			UPDATE cart_items SET qty = qty + ?, updated_at = now()
			WHERE user_id = ? AND product_id = ? AND variant_id = ?
			  AND qty + ? <= (SELECT stock FROM product_variants WHERE id = ? AND deleted_at IS NULL)`,
			delta, userID, productID, *variantID, delta, *variantID)
	} else {
		res = r.db.WithContext(ctx).Exec(`
			UPDATE cart_items SET qty = qty + ?, updated_at = now()
			WHERE user_id = ? AND product_id = ? AND variant_id IS NULL
			  AND qty + ? <= (SELECT stock FROM products WHERE id = ? AND deleted_at IS NULL)`,
			delta, userID, productID, delta, productID)
	}
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// InsertBounded creates a new line when the requested quantity fits the live
// stock. Zero affected rows means the stock bound failed.
func (r *Repository) InsertBounded(ctx context.Context, item *models.CartItem) (int64, error) {
	if item == nil {
		return 0, fmt.Errorf("cart item is required")
	}
	if item.Qty <= 0 {
		return 0, fmt.Errorf("qty must be positive")
	}
	var res *gorm.DB
	if item.VariantID != nil {
		res = r.db.WithContext(ctx).Exec(`
			INSERT INTO cart_items (user_id, org_id, product_id, variant_id, qty)
			SELECT ?, ?, ?, ?, ?
			WHERE ? <= (SELECT stock FROM product_variants WHERE id = ? AND deleted_at IS NULL)`,
			item.UserID, item.OrgID, item.ProductID, *item.VariantID, item.Qty,
			item.Qty, *item.VariantID)
	} else {
		res = r.db.WithContext(ctx).Exec(`
			INSERT INTO cart_items (user_id, org_id, product_id, variant_id, qty)
			SELECT ?, ?, ?, NULL, ?
			WHERE ? <= (SELECT stock FROM products WHERE id = ? AND deleted_at IS NULL)`,
			item.UserID, item.OrgID, item.ProductID, item.Qty,
			item.Qty, item.ProductID)
	}
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SetQtyBounded replaces a line's quantity when it fits the live stock.
// Zero affected rows means the stock bound failed.
func (r *Repository) SetQtyBounded(ctx context.Context, userID, itemID uuid.UUID, qty int) (int64, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("qty must be positive")
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE cart_items SET qty = ?, updated_at = now()
		WHERE id = ? AND user_id = ?
		  AND ? <= COALESCE(
			(SELECT v.stock FROM product_variants v WHERE v.id = cart_items.variant_id AND v.deleted_at IS NULL),
			(SELECT p.stock FROM products p WHERE p.id = cart_items.product_id AND p.deleted_at IS NULL))`,
		qty, itemID, userID, qty)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Delete removes one line scoped to the buyer.
func (r *Repository) Delete(ctx context.Context, userID, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Clear removes every line in the buyer's cart.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

// DeleteItemsTx removes the purchased lines inside the checkout transaction.
func (r *Repository) DeleteItemsTx(tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if len(itemIDs) == 0 {
		return nil
	}
	return tx.
		Where("user_id = ? AND id IN ?", userID, itemIDs).
		Delete(&models.CartItem{}).Error
}
