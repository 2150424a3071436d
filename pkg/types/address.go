package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errCompositeFieldCount = errors.New("address: unexpected field count")

// Address mirrors the address_t composite Postgres type. DestinationID is
// the carrier-facing destination identifier used for rate lookups.
type Address struct {
	Recipient     string  `json:"recipient"`
	Phone         string  `json:"phone"`
	Line1         string  `json:"line1"`
	Line2         *string `json:"line2,omitempty"`
	District      string  `json:"district"`
	City          string  `json:"city"`
	Province      string  `json:"province"`
	PostalCode    string  `json:"postal_code"`
	DestinationID int64   `json:"destination_id"`
}

// Validate checks that every field required for delivery and rate lookup is set.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Recipient) == "" {
		return fmt.Errorf("address: missing recipient")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return fmt.Errorf("address: missing phone")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.Province) == "" {
		return fmt.Errorf("address: missing province")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("address: missing postal_code")
	}
	if a.DestinationID <= 0 {
		return fmt.Errorf("address: missing destination_id")
	}
	return nil
}

// Value marshals Address into a Postgres composite literal.
func (a Address) Value() (driver.Value, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	parts := []string{
		quoteCompositeString(a.Recipient),
		quoteCompositeString(a.Phone),
		quoteCompositeString(a.Line1),
		quoteCompositeNullable(a.Line2),
		quoteCompositeString(a.District),
		quoteCompositeString(a.City),
		quoteCompositeString(a.Province),
		quoteCompositeString(a.PostalCode),
		strconv.FormatInt(a.DestinationID, 10),
	}

	return "(" + strings.Join(parts, ",") + ")", nil
}

// Scan decodes the Postgres composite literal.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	raw, ok := toString(value)
	if !ok {
		return fmt.Errorf("address: unsupported scan type %T", value)
	}

	fields, err := parseComposite(raw, 9)
	if err != nil {
		return err
	}

	a.Recipient = fields[0]
	a.Phone = fields[1]
	a.Line1 = fields[2]
	a.Line2 = newCompositeNullable(fields[3])
	a.District = fields[4]
	a.City = fields[5]
	a.Province = fields[6]
	a.PostalCode = fields[7]

	if fields[8] == "" || isCompositeNull(fields[8]) {
		return fmt.Errorf("address: destination_id missing")
	}
	destinationID, err := strconv.ParseInt(fields[8], 10, 64)
	if err != nil {
		return fmt.Errorf("address: parse destination_id %w", err)
	}
	a.DestinationID = destinationID

	return nil
}

func toString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
