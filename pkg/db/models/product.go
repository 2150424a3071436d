package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

// Product represents the canonical merchant listing. Price and Stock apply
// when the product has no variants; otherwise each variant carries its own.
// WeightGrams feeds courier rate lookups and falls back to 1000 when the
// merchant never set it.
type Product struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID        uuid.UUID           `gorm:"column:org_id;type:uuid;not null;index"`
	CategoryID   *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	SKU          string              `gorm:"column:sku;not null"`
	Name         string              `gorm:"column:name;not null"`
	Slug         string              `gorm:"column:slug;not null;index"`
	Description  *string             `gorm:"column:description"`
	Status       enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'active'"`
	StatusReason *string             `gorm:"column:status_reason"`
	Price        int64               `gorm:"column:price;not null"`
	Stock        int                 `gorm:"column:stock;not null;default:0"`
	WeightGrams  int                 `gorm:"column:weight_grams;not null;default:1000"`
	Images       pq.StringArray      `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	IsPublished  bool                `gorm:"column:is_published;not null;default:true"`
	Variants     []ProductVariant    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt      `gorm:"column:deleted_at;index"`
}
