package enums

import "fmt"

// NotificationType categorizes in-app notifications so clients can
// render and deep-link them.
type NotificationType string

const (
	NotificationTypeOrderStatus        NotificationType = "order_status"
	NotificationTypeOrganizationStatus NotificationType = "organization_status"
	NotificationTypeProductModeration  NotificationType = "product_moderation"
	NotificationTypeWithdrawalDecision NotificationType = "withdrawal_decision"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderStatus,
	NotificationTypeOrganizationStatus,
	NotificationTypeProductModeration,
	NotificationTypeWithdrawalDecision,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
