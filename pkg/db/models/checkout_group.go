package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

// CheckoutGroup links a buyer's checkout attempt to the per-merchant orders
// it produced. The payment gateway sees one transaction per group, so the
// Snap token and the gateway order reference live here rather than on the
// individual orders.
type CheckoutGroup struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	GatewayOrderID string              `gorm:"column:gateway_order_id;not null;uniqueIndex"`
	SnapToken      *string             `gorm:"column:snap_token"`
	PaymentStatus  enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	GrossAmount    int64               `gorm:"column:gross_amount;not null"`
	PaidAt         *time.Time          `gorm:"column:paid_at"`
	Orders         []Order             `gorm:"foreignKey:CheckoutGroupID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
