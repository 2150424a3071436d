package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a priced snapshot of a cart line at checkout time. Name, SKU
// and UnitPrice are copied from the product so later edits never rewrite
// order history.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID   *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Name        string     `gorm:"column:name;not null"`
	VariantName *string    `gorm:"column:variant_name"`
	SKU         string     `gorm:"column:sku;not null"`
	UnitPrice   int64      `gorm:"column:unit_price;not null"`
	Qty         int        `gorm:"column:qty;not null"`
	WeightGrams int        `gorm:"column:weight_grams;not null"`
	Subtotal    int64      `gorm:"column:subtotal;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
