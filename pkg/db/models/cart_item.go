package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one buyer cart line. OrgID is denormalized from the product
// so cart reads can group per merchant without joining.
type CartItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index:idx_cart_items_user_product,unique"`
	OrgID     uuid.UUID  `gorm:"column:org_id;type:uuid;not null"`
	ProductID uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index:idx_cart_items_user_product,unique"`
	VariantID *uuid.UUID `gorm:"column:variant_id;type:uuid;index:idx_cart_items_user_product,unique"`
	Qty       int        `gorm:"column:qty;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
