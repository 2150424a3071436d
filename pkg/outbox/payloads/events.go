package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

// OrderCreatedEvent signals a new checkout split across merchants.
type OrderCreatedEvent struct {
	CheckoutGroupID uuid.UUID   `json:"checkout_group_id"`
	OrderIDs        []uuid.UUID `json:"order_ids"`
	UserID          uuid.UUID   `json:"user_id"`
	GrossAmount     int64       `json:"gross_amount"`
}

// OrderPaidEvent is emitted once per order when the gateway confirms payment.
type OrderPaidEvent struct {
	OrderID         uuid.UUID `json:"order_id"`
	OrderNumber     string    `json:"order_number"`
	CheckoutGroupID uuid.UUID `json:"checkout_group_id"`
	UserID          uuid.UUID `json:"user_id"`
	OrgID           uuid.UUID `json:"org_id"`
	Total           int64     `json:"total"`
	PaidAt          time.Time `json:"paid_at"`
}

// OrderPackedEvent reports the merchant marked the order packed.
type OrderPackedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	OrgID       uuid.UUID `json:"org_id"`
	PackedAt    time.Time `json:"packed_at"`
}

// OrderShippedEvent carries the courier handoff details for buyer email.
type OrderShippedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	UserID         uuid.UUID `json:"user_id"`
	OrgID          uuid.UUID `json:"org_id"`
	TrackingNumber string    `json:"tracking_number"`
	Courier        string    `json:"courier,omitempty"`
	ShippedAt      time.Time `json:"shipped_at"`
}

// OrderCompletedEvent is emitted when the buyer confirms receipt and the
// merchant payout is credited.
type OrderCompletedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	UserID       uuid.UUID `json:"user_id"`
	OrgID        uuid.UUID `json:"org_id"`
	PayoutAmount int64     `json:"payout_amount"`
	CompletedAt  time.Time `json:"completed_at"`
}

// OrderCancelledEvent is emitted whenever an order drops out of the lifecycle.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	OrgID       uuid.UUID `json:"org_id"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// OrganizationStatusChangedEvent mirrors an admin moderation decision.
type OrganizationStatusChangedEvent struct {
	OrgID       uuid.UUID                `json:"org_id"`
	OwnerUserID uuid.UUID                `json:"owner_user_id"`
	Status      enums.OrganizationStatus `json:"status"`
	Reason      string                   `json:"reason,omitempty"`
}

// ProductModeratedEvent reports an admin takedown or restore of a listing.
type ProductModeratedEvent struct {
	ProductID   uuid.UUID           `json:"product_id"`
	OrgID       uuid.UUID           `json:"org_id"`
	OwnerUserID uuid.UUID           `json:"owner_user_id"`
	Status      enums.ProductStatus `json:"status"`
	Reason      string              `json:"reason,omitempty"`
}

// WithdrawalDecidedEvent is emitted when an admin approves or rejects a payout.
type WithdrawalDecidedEvent struct {
	WithdrawalID uuid.UUID              `json:"withdrawal_id"`
	OrgID        uuid.UUID              `json:"org_id"`
	OwnerUserID  uuid.UUID              `json:"owner_user_id"`
	Status       enums.WithdrawalStatus `json:"status"`
	Amount       int64                  `json:"amount"`
	Reason       string                 `json:"reason,omitempty"`
}
