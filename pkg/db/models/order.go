package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

// Order represents the per-merchant order produced from a checkout group.
// All money columns hold whole rupiah.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string               `gorm:"column:order_number;not null;uniqueIndex"`
	CheckoutGroupID uuid.UUID            `gorm:"column:checkout_group_id;type:uuid;not null;index"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	OrgID           uuid.UUID            `gorm:"column:org_id;type:uuid;not null;index"`
	Status          enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	ShippingMethod  enums.ShippingMethod `gorm:"column:shipping_method;type:shipping_method;not null"`
	ShippingAddress *types.Address       `gorm:"column:shipping_address;type:address_t"`
	ShippingLine    *types.ShippingLine  `gorm:"column:shipping_line;type:jsonb;serializer:json"`
	TrackingNumber  *string              `gorm:"column:tracking_number"`
	Subtotal        int64                `gorm:"column:subtotal;not null"`
	ShippingCost    int64                `gorm:"column:shipping_cost;not null;default:0"`
	Discount        int64                `gorm:"column:discount;not null;default:0"`
	ServiceFee      int64                `gorm:"column:service_fee;not null;default:0"`
	Total           int64                `gorm:"column:total;not null"`
	CouponID        *uuid.UUID           `gorm:"column:coupon_id;type:uuid"`
	CouponCode      *string              `gorm:"column:coupon_code"`
	Notes           *string              `gorm:"column:notes"`
	CancelReason    *string              `gorm:"column:cancel_reason"`
	PaidAt          *time.Time           `gorm:"column:paid_at"`
	PackedAt        *time.Time           `gorm:"column:packed_at"`
	ShippedAt       *time.Time           `gorm:"column:shipped_at"`
	CompletedAt     *time.Time           `gorm:"column:completed_at"`
	CancelledAt     *time.Time           `gorm:"column:cancelled_at"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
