package orders

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/internal/ledger"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/midtrans"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/payloads"
)

type orderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	FindForOrg(ctx context.Context, id, orgID uuid.UUID) (*models.Order, error)
	FindByCheckoutGroupTx(tx *gorm.DB, groupID uuid.UUID) ([]models.Order, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus, updates map[string]any) (int64, error)
	UpdateStatusByGroupTx(tx *gorm.DB, groupID uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus, updates map[string]any) (int64, error)
	List(ctx context.Context, params ListParams) (*ListPage, error)
	ListForExport(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]models.Order, error)
}

type checkoutGroups interface {
	FindGroupByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.CheckoutGroup, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.CheckoutGroup, error)
	UpdatePaymentStatusTx(tx *gorm.DB, id uuid.UUID, from []enums.PaymentStatus, to enums.PaymentStatus, paidAt *time.Time) (int64, error)
}

type stockReleaser interface {
	ReleaseStockTx(tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, quantity int) error
}

type balanceAdjuster interface {
	AdjustBalanceTx(tx *gorm.DB, id uuid.UUID, delta int64) (int64, error)
}

type ledgerWriter interface {
	RecordTx(tx *gorm.DB, entry *models.LedgerEntry) error
}

type notificationVerifier interface {
	VerifySignature(p midtrans.NotificationPayload) bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the order lifecycle. Fulfillment moves strictly forward;
// cancelled absorbs from pending (buyer or gateway) and from completed
// (admin refund).
type Service interface {
	GetForBuyer(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	GetForMerchant(ctx context.Context, orgID, orderID uuid.UUID) (*OrderDTO, error)
	GetForAdmin(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListForBuyer(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResult, error)
	ListForMerchant(ctx context.Context, orgID uuid.UUID, params ListParams) (*ListResult, error)
	ListForAdmin(ctx context.Context, params ListParams) (*ListResult, error)
	Pack(ctx context.Context, orgID, actorID, orderID uuid.UUID) (*OrderDTO, error)
	Ship(ctx context.Context, orgID, actorID, orderID uuid.UUID, trackingNumber string) (*OrderDTO, error)
	CompleteByMerchant(ctx context.Context, orgID, actorID, orderID uuid.UUID) (*OrderDTO, error)
	CompleteByBuyer(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	CancelByBuyer(ctx context.Context, userID, orderID uuid.UUID, reason string) (*OrderDTO, error)
	Refund(ctx context.Context, adminID, orderID uuid.UUID, reason string) (*OrderDTO, error)
	HandleGatewayNotification(ctx context.Context, payload midtrans.NotificationPayload) error
	ExpireStalePending(ctx context.Context, cutoff time.Time) (int, error)
	ExportCSV(ctx context.Context, orgID uuid.UUID, from, to time.Time, w io.Writer) error
}

// ServiceParams bundles the order lifecycle dependencies.
type ServiceParams struct {
	Repo     orderRepository
	Checkout checkoutGroups
	Stock    stockReleaser
	Balance  balanceAdjuster
	Ledger   ledgerWriter
	Gateway  notificationVerifier
	Tx       txRunner
	Outbox   outboxPublisher
}

type service struct {
	ServiceParams
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	missing := ""
	switch {
	case params.Repo == nil:
		missing = "order repository"
	case params.Checkout == nil:
		missing = "checkout repository"
	case params.Stock == nil:
		missing = "stock releaser"
	case params.Balance == nil:
		missing = "balance adjuster"
	case params.Ledger == nil:
		missing = "ledger writer"
	case params.Gateway == nil:
		missing = "gateway verifier"
	case params.Tx == nil:
		missing = "transaction runner"
	case params.Outbox == nil:
		missing = "outbox publisher"
	}
	if missing != "" {
		return nil, fmt.Errorf("%s required", missing)
	}
	return &service{ServiceParams: params}, nil
}

// ListResult is one cursor page of order DTOs.
type ListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func (s *service) GetForBuyer(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.Repo.FindForUser(ctx, orderID, userID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return FromModel(order), nil
}

func (s *service) GetForMerchant(ctx context.Context, orgID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.Repo.FindForOrg(ctx, orderID, orgID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return FromModel(order), nil
}

func (s *service) GetForAdmin(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.Repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return FromModel(order), nil
}

func (s *service) ListForBuyer(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResult, error) {
	params.UserID = &userID
	params.OrgID = nil
	return s.list(ctx, params)
}

func (s *service) ListForMerchant(ctx context.Context, orgID uuid.UUID, params ListParams) (*ListResult, error) {
	params.OrgID = &orgID
	params.UserID = nil
	return s.list(ctx, params)
}

func (s *service) ListForAdmin(ctx context.Context, params ListParams) (*ListResult, error) {
	params.UserID = nil
	params.OrgID = nil
	return s.list(ctx, params)
}

func (s *service) list(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	page, err := s.Repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	result := &ListResult{
		Orders:     make([]OrderDTO, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i := range page.Items {
		result.Orders[i] = *FromModel(&page.Items[i])
	}
	return result, nil
}

func (s *service) Pack(ctx context.Context, orgID, actorID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.Repo.FindForOrg(ctx, orderID, orgID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	now := time.Now()
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusTx(tx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusPaid},
			enums.OrderStatusPacked,
			map[string]any{"packed_at": now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order packed")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting packing")
		}
		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeOrderPacked,
			AggregateType: enums.OutboxAggregateTypeOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.MemberRoleMerchant.String()},
			Version:       1,
			Data: payloads.OrderPackedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				OrgID:       order.OrgID,
				PackedAt:    now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusPacked
	order.PackedAt = &now
	return FromModel(order), nil
}

func (s *service) Ship(ctx context.Context, orgID, actorID, orderID uuid.UUID, trackingNumber string) (*OrderDTO, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required")
	}

	order, err := s.Repo.FindForOrg(ctx, orderID, orgID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if order.ShippingMethod == enums.ShippingMethodPickup {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup orders are handed over in store")
	}

	now := time.Now()
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusTx(tx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusPacked},
			enums.OrderStatusShipped,
			map[string]any{
				"shipped_at":      now,
				"tracking_number": trackingNumber,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order shipped")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not packed yet")
		}

		courier := ""
		if order.ShippingLine != nil {
			courier = order.ShippingLine.Courier
		}
		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeOrderShipped,
			AggregateType: enums.OutboxAggregateTypeOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.MemberRoleMerchant.String()},
			Version:       1,
			Data: payloads.OrderShippedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				UserID:         order.UserID,
				OrgID:          order.OrgID,
				TrackingNumber: trackingNumber,
				Courier:        courier,
				ShippedAt:      now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusShipped
	order.ShippedAt = &now
	order.TrackingNumber = &trackingNumber
	return FromModel(order), nil
}

func (s *service) CompleteByMerchant(ctx context.Context, orgID, actorID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.Repo.FindForOrg(ctx, orderID, orgID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	actor := outbox.ActorRef{UserID: actorID, Role: enums.MemberRoleMerchant.String()}
	return s.complete(ctx, order, actor)
}

func (s *service) CompleteByBuyer(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.Repo.FindForUser(ctx, orderID, userID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	actor := outbox.ActorRef{UserID: userID, Role: enums.MemberRoleBuyer.String()}
	return s.complete(ctx, order, actor)
}

// complete closes out fulfillment and credits the merchant payout. Courier
// orders complete from shipped, pickup orders straight from packed.
func (s *service) complete(ctx context.Context, order *models.Order, actor outbox.ActorRef) (*OrderDTO, error) {
	from := []enums.OrderStatus{enums.OrderStatusShipped}
	if order.ShippingMethod == enums.ShippingMethodPickup {
		from = []enums.OrderStatus{enums.OrderStatusPacked}
	}

	payout := order.Total - order.ServiceFee
	now := time.Now()
	err := s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusTx(tx, order.ID, from,
			enums.OrderStatusCompleted,
			map[string]any{"completed_at": now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order completed")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not ready to complete")
		}

		if _, err := s.Balance.AdjustBalanceTx(tx, order.OrgID, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit merchant balance")
		}
		entry := ledger.OrderPayout(order.OrgID, order.ID, actor.UserID, payout)
		if err := s.Ledger.RecordTx(tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payout")
		}

		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeOrderCompleted,
			AggregateType: enums.OutboxAggregateTypeOrder,
			AggregateID:   order.ID,
			Actor:         &actor,
			Version:       1,
			Data: payloads.OrderCompletedEvent{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				UserID:       order.UserID,
				OrgID:        order.OrgID,
				PayoutAmount: payout,
				CompletedAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCompleted
	order.CompletedAt = &now
	return FromModel(order), nil
}

func (s *service) CancelByBuyer(ctx context.Context, userID, orderID uuid.UUID, reason string) (*OrderDTO, error) {
	reason = strings.TrimSpace(reason)
	order, err := s.Repo.FindForUser(ctx, orderID, userID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	now := time.Now()
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusTx(tx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusPending},
			enums.OrderStatusCancelled,
			map[string]any{
				"cancelled_at":  now,
				"cancel_reason": reason,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}

		if err := s.releaseItems(tx, order); err != nil {
			return err
		}
		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeOrderCancelled,
			AggregateType: enums.OutboxAggregateTypeOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.MemberRoleBuyer.String()},
			Version:       1,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				OrgID:       order.OrgID,
				Reason:      reason,
				CancelledAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	if reason != "" {
		order.CancelReason = &reason
	}
	return FromModel(order), nil
}

// Refund reverses a completed order: the payout is debited back, stock is
// returned and the order lands in cancelled.
func (s *service) Refund(ctx context.Context, adminID, orderID uuid.UUID, reason string) (*OrderDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a refund reason is required")
	}

	order, err := s.Repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	payout := order.Total - order.ServiceFee
	now := time.Now()
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Repo.UpdateStatusTx(tx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusCompleted},
			enums.OrderStatusCancelled,
			map[string]any{
				"cancelled_at":  now,
				"cancel_reason": reason,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund order")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only completed orders can be refunded")
		}

		affected, err = s.Balance.AdjustBalanceTx(tx, order.OrgID, -payout)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse merchant payout")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "merchant balance cannot cover the refund")
		}
		entry := ledger.OrderRefund(order.OrgID, order.ID, adminID, payout)
		if err := s.Ledger.RecordTx(tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund")
		}

		if err := s.releaseItems(tx, order); err != nil {
			return err
		}
		return s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeOrderCancelled,
			AggregateType: enums.OutboxAggregateTypeOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: enums.MemberRoleAdmin.String()},
			Version:       1,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				OrgID:       order.OrgID,
				Reason:      reason,
				CancelledAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelReason = &reason
	return FromModel(order), nil
}

// HandleGatewayNotification settles or voids a checkout based on the webhook.
// The guarded payment-status update makes replays no-ops, so the gateway can
// deliver the same notification any number of times.
func (s *service) HandleGatewayNotification(ctx context.Context, payload midtrans.NotificationPayload) error {
	if !s.Gateway.VerifySignature(payload) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")
	}

	group, err := s.Checkout.FindGroupByGatewayOrderID(ctx, payload.OrderID)
	if err != nil {
		return notFoundOr(err)
	}

	switch {
	case payload.IsSettled():
		return s.settleGroup(ctx, group)
	case payload.IsExpired():
		return s.voidGroup(ctx, group, enums.PaymentStatusExpired, "payment window expired")
	case payload.IsFailed():
		return s.voidGroup(ctx, group, enums.PaymentStatusFailed, "payment failed")
	default:
		return nil
	}
}

func (s *service) settleGroup(ctx context.Context, group *models.CheckoutGroup) error {
	now := time.Now()
	return s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Checkout.UpdatePaymentStatusTx(tx, group.ID,
			[]enums.PaymentStatus{enums.PaymentStatusPending},
			enums.PaymentStatusPaid, &now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle checkout group")
		}
		if affected == 0 {
			return nil
		}

		orders, err := s.Repo.FindByCheckoutGroupTx(tx, group.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group orders")
		}
		if _, err := s.Repo.UpdateStatusByGroupTx(tx, group.ID,
			[]enums.OrderStatus{enums.OrderStatusPending},
			enums.OrderStatusPaid,
			map[string]any{"paid_at": now}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark group orders paid")
		}

		for _, order := range orders {
			if order.Status != enums.OrderStatusPending {
				continue
			}
			err := s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.OutboxEventTypeOrderPaid,
				AggregateType: enums.OutboxAggregateTypeOrder,
				AggregateID:   order.ID,
				Version:       1,
				Data: payloads.OrderPaidEvent{
					OrderID:         order.ID,
					OrderNumber:     order.OrderNumber,
					CheckoutGroupID: group.ID,
					UserID:          order.UserID,
					OrgID:           order.OrgID,
					Total:           order.Total,
					PaidAt:          now,
				},
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue paid event")
			}
		}
		return nil
	})
}

func (s *service) voidGroup(ctx context.Context, group *models.CheckoutGroup, to enums.PaymentStatus, reason string) error {
	now := time.Now()
	return s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Checkout.UpdatePaymentStatusTx(tx, group.ID,
			[]enums.PaymentStatus{enums.PaymentStatusPending}, to, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "void checkout group")
		}
		if affected == 0 {
			return nil
		}

		orders, err := s.Repo.FindByCheckoutGroupTx(tx, group.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load group orders")
		}
		if _, err := s.Repo.UpdateStatusByGroupTx(tx, group.ID,
			[]enums.OrderStatus{enums.OrderStatusPending},
			enums.OrderStatusCancelled,
			map[string]any{
				"cancelled_at":  now,
				"cancel_reason": reason,
			}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel group orders")
		}

		for i := range orders {
			order := &orders[i]
			if order.Status != enums.OrderStatusPending {
				continue
			}
			if err := s.releaseItems(tx, order); err != nil {
				return err
			}
			err := s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.OutboxEventTypeOrderCancelled,
				AggregateType: enums.OutboxAggregateTypeOrder,
				AggregateID:   order.ID,
				Version:       1,
				Data: payloads.OrderCancelledEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					UserID:      order.UserID,
					OrgID:       order.OrgID,
					Reason:      reason,
					CancelledAt: now,
				},
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue cancelled event")
			}
		}
		return nil
	})
}

// ExpireStalePending cancels every checkout group still awaiting payment at
// the cutoff. Each group voids in its own transaction so one failure does not
// hold the rest of the backlog.
func (s *service) ExpireStalePending(ctx context.Context, cutoff time.Time) (int, error) {
	groups, err := s.Checkout.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stale checkout groups")
	}
	expired := 0
	for i := range groups {
		if err := s.voidGroup(ctx, &groups[i], enums.PaymentStatusExpired, "payment window expired"); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

var exportHeader = []string{
	"order_number", "status", "created_at", "paid_at", "shipping_method",
	"tracking_number", "items", "subtotal", "shipping_cost", "discount",
	"service_fee", "total", "coupon_code",
}

// ExportCSV streams the merchant's orders inside the window as CSV.
func (s *service) ExportCSV(ctx context.Context, orgID uuid.UUID, from, to time.Time, w io.Writer) error {
	if !from.Before(to) {
		return pkgerrors.New(pkgerrors.CodeValidation, "export window is empty")
	}

	rows, err := s.Repo.ListForExport(ctx, orgID, from, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders for export")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write export header")
	}
	for i := range rows {
		if err := cw.Write(exportRecord(&rows[i])); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write export row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush export")
	}
	return nil
}

func exportRecord(order *models.Order) []string {
	paidAt := ""
	if order.PaidAt != nil {
		paidAt = order.PaidAt.Format(time.RFC3339)
	}
	tracking := ""
	if order.TrackingNumber != nil {
		tracking = *order.TrackingNumber
	}
	coupon := ""
	if order.CouponCode != nil {
		coupon = *order.CouponCode
	}
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Qty
	}
	return []string{
		order.OrderNumber,
		order.Status.String(),
		order.CreatedAt.Format(time.RFC3339),
		paidAt,
		order.ShippingMethod.String(),
		tracking,
		strconv.Itoa(itemCount),
		strconv.FormatInt(order.Subtotal, 10),
		strconv.FormatInt(order.ShippingCost, 10),
		strconv.FormatInt(order.Discount, 10),
		strconv.FormatInt(order.ServiceFee, 10),
		strconv.FormatInt(order.Total, 10),
		coupon,
	}
}

func (s *service) releaseItems(tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		if err := s.Stock.ReleaseStockTx(tx, item.ProductID, item.VariantID, item.Qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release reserved stock")
		}
	}
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
