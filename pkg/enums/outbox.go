package enums

import "fmt"

// OutboxEventType identifies the domain event stored in the outbox table.
type OutboxEventType string

const (
	OutboxEventTypeOrderCreated      OutboxEventType = "order.created"
	OutboxEventTypeOrderPaid         OutboxEventType = "order.paid"
	OutboxEventTypeOrderPacked       OutboxEventType = "order.packed"
	OutboxEventTypeOrderShipped      OutboxEventType = "order.shipped"
	OutboxEventTypeOrderCompleted    OutboxEventType = "order.completed"
	OutboxEventTypeOrderCancelled    OutboxEventType = "order.cancelled"
	OutboxEventTypeOrgStatusChanged  OutboxEventType = "organization.status_changed"
	OutboxEventTypeProductModerated  OutboxEventType = "product.moderated"
	OutboxEventTypeWithdrawalDecided OutboxEventType = "withdrawal.decided"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventTypeOrderCreated,
	OutboxEventTypeOrderPaid,
	OutboxEventTypeOrderPacked,
	OutboxEventTypeOrderShipped,
	OutboxEventTypeOrderCompleted,
	OutboxEventTypeOrderCancelled,
	OutboxEventTypeOrgStatusChanged,
	OutboxEventTypeProductModerated,
	OutboxEventTypeWithdrawalDecided,
}

// String implements fmt.Stringer.
func (o OutboxEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateTypeOrder        OutboxAggregateType = "order"
	OutboxAggregateTypeOrganization OutboxAggregateType = "organization"
	OutboxAggregateTypeProduct      OutboxAggregateType = "product"
	OutboxAggregateTypeWithdrawal   OutboxAggregateType = "withdrawal"
)

var validOutboxAggregateTypes = []OutboxAggregateType{
	OutboxAggregateTypeOrder,
	OutboxAggregateTypeOrganization,
	OutboxAggregateTypeProduct,
	OutboxAggregateTypeWithdrawal,
}

// String implements fmt.Stringer.
func (o OutboxAggregateType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (o OutboxAggregateType) IsValid() bool {
	for _, candidate := range validOutboxAggregateTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into an OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validOutboxAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox aggregate type %q", value)
}
