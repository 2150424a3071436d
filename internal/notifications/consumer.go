package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
	"github.com/lokapasar/lokapasar-backend/pkg/mailer"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/idempotency"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/payloads"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

const inAppConsumer = "in-app-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type emailSender interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

type recipientReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Consumer watches domain events and writes the matching in-app feed entries.
// Buyers hear about their order lifecycle, merchants about moderation and
// payout decisions.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
	mail         emailSender
	recipients   recipientReader
}

// ConsumerOption configures optional consumer behavior.
type ConsumerOption func(*Consumer)

// WithEmail mirrors each stored notification to the recipient's inbox.
// Delivery is best effort; a failed send never blocks the in-app feed.
func WithEmail(mail emailSender, recipients recipientReader) ConsumerOption {
	return func(c *Consumer) {
		c.mail = mail
		c.recipients = recipients
	}
}

// NewConsumer builds the in-app notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	consumer := &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(consumer)
		}
	}
	return consumer, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, inAppConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := buildNotification(enums.OutboxEventType(eventType), envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, inAppConsumer, eventID)
		return processResult{nack: true}
	}
	if notification == nil {
		c.logg.Info(logCtx, "no notification for event")
		return processResult{ack: true}
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		_ = c.idempotency.Delete(ctx, inAppConsumer, eventID)
		return processResult{nack: true}
	}

	c.sendEmail(logCtx, notification)

	c.logg.Info(logCtx, "notification stored")
	return processResult{ack: true}
}

func (c *Consumer) sendEmail(ctx context.Context, notification *models.Notification) {
	if c.mail == nil || c.recipients == nil {
		return
	}
	user, err := c.recipients.FindByID(ctx, notification.UserID)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "notification email recipient lookup failed")
		return
	}
	_, err = c.mail.Send(ctx, mailer.Message{
		To:       user.Email,
		ToName:   user.FullName,
		Subject:  notification.Title,
		TextBody: notification.Message,
	})
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "notification email send failed")
	}
}

// buildNotification maps one domain event onto a feed entry. A nil result
// with a nil error means the event type carries no in-app notification.
func buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.OutboxEventTypeOrderPaid:
		var p payloads.OrderPaidEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID:  p.UserID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Payment received",
			Message: fmt.Sprintf("Payment for order %s has been received.", p.OrderNumber),
			Data:    types.JSONMap{"order_id": p.OrderID.String()},
		}, nil

	case enums.OutboxEventTypeOrderPacked:
		var p payloads.OrderPackedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID:  p.UserID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order packed",
			Message: fmt.Sprintf("Order %s is being prepared for delivery.", p.OrderNumber),
			Data:    types.JSONMap{"order_id": p.OrderID.String()},
		}, nil

	case enums.OutboxEventTypeOrderShipped:
		var p payloads.OrderShippedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID:  p.UserID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order shipped",
			Message: fmt.Sprintf("Order %s is on its way, tracking number %s.", p.OrderNumber, p.TrackingNumber),
			Data: types.JSONMap{
				"order_id":        p.OrderID.String(),
				"tracking_number": p.TrackingNumber,
			},
		}, nil

	case enums.OutboxEventTypeOrderCompleted:
		var p payloads.OrderCompletedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &models.Notification{
			UserID:  p.UserID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order completed",
			Message: fmt.Sprintf("Order %s is complete. Thank you for shopping.", p.OrderNumber),
			Data:    types.JSONMap{"order_id": p.OrderID.String()},
		}, nil

	case enums.OutboxEventTypeOrderCancelled:
		var p payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Order %s was cancelled.", p.OrderNumber)
		if p.Reason != "" {
			message = fmt.Sprintf("Order %s was cancelled: %s.", p.OrderNumber, p.Reason)
		}
		return &models.Notification{
			UserID:  p.UserID,
			Type:    enums.NotificationTypeOrderStatus,
			Title:   "Order cancelled",
			Message: message,
			Data:    types.JSONMap{"order_id": p.OrderID.String()},
		}, nil

	case enums.OutboxEventTypeOrgStatusChanged:
		var p payloads.OrganizationStatusChangedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Your store status changed to %s.", p.Status)
		if p.Reason != "" {
			message = fmt.Sprintf("Your store status changed to %s: %s.", p.Status, p.Reason)
		}
		return &models.Notification{
			UserID:  p.OwnerUserID,
			Type:    enums.NotificationTypeOrganizationStatus,
			Title:   "Store status updated",
			Message: message,
			Data:    types.JSONMap{"org_id": p.OrgID.String()},
		}, nil

	case enums.OutboxEventTypeProductModerated:
		var p payloads.ProductModeratedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("A listing was set to %s.", p.Status)
		if p.Reason != "" {
			message = fmt.Sprintf("A listing was set to %s: %s.", p.Status, p.Reason)
		}
		return &models.Notification{
			UserID:  p.OwnerUserID,
			Type:    enums.NotificationTypeProductModeration,
			Title:   "Listing moderated",
			Message: message,
			Data:    types.JSONMap{"product_id": p.ProductID.String()},
		}, nil

	case enums.OutboxEventTypeWithdrawalDecided:
		var p payloads.WithdrawalDecidedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Your withdrawal of %d was %s.", p.Amount, p.Status)
		if p.Reason != "" {
			message = fmt.Sprintf("Your withdrawal of %d was %s: %s.", p.Amount, p.Status, p.Reason)
		}
		return &models.Notification{
			UserID:  p.OwnerUserID,
			Type:    enums.NotificationTypeWithdrawalDecision,
			Title:   "Withdrawal decided",
			Message: message,
			Data:    types.JSONMap{"withdrawal_id": p.WithdrawalID.String()},
		}, nil

	default:
		return nil, nil
	}
}
