package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

// OrderDTO is the API-facing shape of one order.
type OrderDTO struct {
	ID              uuid.UUID            `json:"id"`
	OrderNumber     string               `json:"order_number"`
	CheckoutGroupID uuid.UUID            `json:"checkout_group_id"`
	UserID          uuid.UUID            `json:"user_id"`
	OrgID           uuid.UUID            `json:"org_id"`
	Status          enums.OrderStatus    `json:"status"`
	ShippingMethod  enums.ShippingMethod `json:"shipping_method"`
	ShippingAddress *types.Address       `json:"shipping_address,omitempty"`
	ShippingLine    *types.ShippingLine  `json:"shipping_line,omitempty"`
	TrackingNumber  *string              `json:"tracking_number,omitempty"`
	Subtotal        int64                `json:"subtotal"`
	ShippingCost    int64                `json:"shipping_cost"`
	Discount        int64                `json:"discount"`
	ServiceFee      int64                `json:"service_fee"`
	Total           int64                `json:"total"`
	CouponCode      *string              `json:"coupon_code,omitempty"`
	Notes           *string              `json:"notes,omitempty"`
	CancelReason    *string              `json:"cancel_reason,omitempty"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
	PackedAt        *time.Time           `json:"packed_at,omitempty"`
	ShippedAt       *time.Time           `json:"shipped_at,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	Items           []OrderItemDTO       `json:"items"`
	CreatedAt       time.Time            `json:"created_at"`
}

// OrderItemDTO is one snapshotted line of an order.
type OrderItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	Name        string     `json:"name"`
	VariantName *string    `json:"variant_name,omitempty"`
	SKU         string     `json:"sku"`
	UnitPrice   int64      `json:"unit_price"`
	Qty         int        `json:"qty"`
	Subtotal    int64      `json:"subtotal"`
}

// FromModel maps a stored order onto its DTO.
func FromModel(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		CheckoutGroupID: order.CheckoutGroupID,
		UserID:          order.UserID,
		OrgID:           order.OrgID,
		Status:          order.Status,
		ShippingMethod:  order.ShippingMethod,
		ShippingAddress: order.ShippingAddress,
		ShippingLine:    order.ShippingLine,
		TrackingNumber:  order.TrackingNumber,
		Subtotal:        order.Subtotal,
		ShippingCost:    order.ShippingCost,
		Discount:        order.Discount,
		ServiceFee:      order.ServiceFee,
		Total:           order.Total,
		CouponCode:      order.CouponCode,
		Notes:           order.Notes,
		CancelReason:    order.CancelReason,
		PaidAt:          order.PaidAt,
		PackedAt:        order.PackedAt,
		ShippedAt:       order.ShippedAt,
		CompletedAt:     order.CompletedAt,
		CancelledAt:     order.CancelledAt,
		Items:           make([]OrderItemDTO, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	for i, item := range order.Items {
		dto.Items[i] = OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			Name:        item.Name,
			VariantName: item.VariantName,
			SKU:         item.SKU,
			UnitPrice:   item.UnitPrice,
			Qty:         item.Qty,
			Subtotal:    item.Subtotal,
		}
	}
	return dto
}
