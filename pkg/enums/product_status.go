package enums

import "fmt"

// ProductStatus is the moderation state of a listing. Blocked products
// stay visible to their merchant but disappear from the storefront.
type ProductStatus string

const (
	ProductStatusActive  ProductStatus = "active"
	ProductStatusBlocked ProductStatus = "blocked"
)

var validProductStatuses = []ProductStatus{
	ProductStatusActive,
	ProductStatusBlocked,
}

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductStatus.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
