package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

// Coupon is a discount code. OrgID is nil for platform-wide coupons and set
// for merchant-scoped ones. TimesUsed only moves through the guarded
// increment at checkout so the quota never oversubscribes.
type Coupon struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID        *uuid.UUID         `gorm:"column:org_id;type:uuid;index"`
	Code         string             `gorm:"column:code;not null;uniqueIndex"`
	Description  *string            `gorm:"column:description"`
	DiscountType enums.DiscountType `gorm:"column:discount_type;type:discount_type;not null"`
	Value        int64              `gorm:"column:value;not null"`
	MaxDiscount  int64              `gorm:"column:max_discount;not null;default:0"`
	MinPurchase  int64              `gorm:"column:min_purchase;not null;default:0"`
	Quota        int                `gorm:"column:quota;not null;default:-1"`
	TimesUsed    int                `gorm:"column:times_used;not null;default:0"`
	ValidFrom    time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil   time.Time          `gorm:"column:valid_until;not null"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
