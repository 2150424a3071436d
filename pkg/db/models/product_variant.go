package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductVariant is a purchasable option of a product with its own stock.
// Name is the option label shown to buyers (e.g. "Merah / XL"). A nil
// PriceOverride means the variant sells at the product base price.
type ProductVariant struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID      `gorm:"column:product_id;type:uuid;not null;index"`
	Name          string         `gorm:"column:name;not null"`
	SKU           string         `gorm:"column:sku;not null"`
	PriceOverride *int64         `gorm:"column:price_override"`
	Stock         int            `gorm:"column:stock;not null;default:0"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// EffectivePrice resolves the variant sell price against the product base price.
func (v ProductVariant) EffectivePrice(basePrice int64) int64 {
	if v.PriceOverride != nil {
		return *v.PriceOverride
	}
	return basePrice
}
