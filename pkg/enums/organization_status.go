package enums

import "fmt"

// OrganizationStatus tracks a merchant tenant through platform moderation.
type OrganizationStatus string

const (
	OrganizationStatusPending   OrganizationStatus = "pending"
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusSuspended OrganizationStatus = "suspended"
	OrganizationStatusRejected  OrganizationStatus = "rejected"
)

var validOrganizationStatuses = []OrganizationStatus{
	OrganizationStatusPending,
	OrganizationStatusActive,
	OrganizationStatusSuspended,
	OrganizationStatusRejected,
}

// String implements fmt.Stringer.
func (o OrganizationStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrganizationStatus.
func (o OrganizationStatus) IsValid() bool {
	for _, candidate := range validOrganizationStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrganizationStatus converts raw input into an OrganizationStatus.
func ParseOrganizationStatus(value string) (OrganizationStatus, error) {
	for _, candidate := range validOrganizationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid organization status %q", value)
}
