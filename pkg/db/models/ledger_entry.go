package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

// LedgerEntry records an immutable merchant balance movement. Amount is
// signed: payouts credit, withdrawals debit.
type LedgerEntry struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID        uuid.UUID             `gorm:"column:org_id;type:uuid;not null;index"`
	OrderID      *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	WithdrawalID *uuid.UUID            `gorm:"column:withdrawal_id;type:uuid"`
	ActorUserID  uuid.UUID             `gorm:"column:actor_user_id;type:uuid;not null"`
	Type         enums.LedgerEntryType `gorm:"column:type;type:ledger_entry_type;not null"`
	Amount       int64                 `gorm:"column:amount;not null"`
	Metadata     json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}
