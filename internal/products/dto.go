package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

// ProductDTO is the listing payload returned to merchants and buyers.
type ProductDTO struct {
	ID           uuid.UUID           `json:"id"`
	OrgID        uuid.UUID           `json:"org_id"`
	CategoryID   *uuid.UUID          `json:"category_id,omitempty"`
	SKU          string              `json:"sku"`
	Name         string              `json:"name"`
	Slug         string              `json:"slug"`
	Description  *string             `json:"description,omitempty"`
	Status       enums.ProductStatus `json:"status"`
	StatusReason *string             `json:"status_reason,omitempty"`
	Price        int64               `json:"price"`
	Stock        int                 `json:"stock"`
	WeightGrams  int                 `json:"weight_grams"`
	Images       []string            `json:"images"`
	IsPublished  bool                `json:"is_published"`
	Variants     []VariantDTO        `json:"variants,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	DeletedAt    *time.Time          `json:"deleted_at,omitempty"`
}

// VariantDTO exposes a purchasable option. Price is the resolved sell
// price after applying any override against the product base price.
type VariantDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Price         int64     `json:"price"`
	PriceOverride *int64    `json:"price_override,omitempty"`
	Stock         int       `json:"stock"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromModel maps the persisted product and its loaded variants to the DTO.
func FromModel(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	dto := &ProductDTO{
		ID:           product.ID,
		OrgID:        product.OrgID,
		CategoryID:   product.CategoryID,
		SKU:          product.SKU,
		Name:         product.Name,
		Slug:         product.Slug,
		Description:  product.Description,
		Status:       product.Status,
		StatusReason: product.StatusReason,
		Price:        product.Price,
		Stock:        product.Stock,
		WeightGrams:  product.WeightGrams,
		Images:       append([]string{}, product.Images...),
		IsPublished:  product.IsPublished,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}
	if product.DeletedAt.Valid {
		deletedAt := product.DeletedAt.Time
		dto.DeletedAt = &deletedAt
	}
	if len(product.Variants) > 0 {
		dto.Variants = make([]VariantDTO, len(product.Variants))
		for i, variant := range product.Variants {
			dto.Variants[i] = VariantFromModel(&variant, product.Price)
		}
	}
	return dto
}

// VariantFromModel maps one variant, resolving its price against basePrice.
func VariantFromModel(variant *models.ProductVariant, basePrice int64) VariantDTO {
	return VariantDTO{
		ID:            variant.ID,
		Name:          variant.Name,
		SKU:           variant.SKU,
		Price:         variant.EffectivePrice(basePrice),
		PriceOverride: variant.PriceOverride,
		Stock:         variant.Stock,
		CreatedAt:     variant.CreatedAt,
	}
}
