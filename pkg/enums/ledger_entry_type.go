package enums

import "fmt"

// LedgerEntryType classifies an immutable merchant balance movement.
type LedgerEntryType string

const (
	LedgerEntryTypeOrderPayout      LedgerEntryType = "order_payout"
	LedgerEntryTypeOrderRefund      LedgerEntryType = "order_refund"
	LedgerEntryTypeWithdrawalHold   LedgerEntryType = "withdrawal_hold"
	LedgerEntryTypeWithdrawalPaid   LedgerEntryType = "withdrawal_paid"
	LedgerEntryTypeWithdrawalReturn LedgerEntryType = "withdrawal_return"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeOrderPayout,
	LedgerEntryTypeOrderRefund,
	LedgerEntryTypeWithdrawalHold,
	LedgerEntryTypeWithdrawalPaid,
	LedgerEntryTypeWithdrawalReturn,
}

// String implements fmt.Stringer.
func (l LedgerEntryType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LedgerEntryType.
func (l LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
