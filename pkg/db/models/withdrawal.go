package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

// Withdrawal is a merchant payout request. The bank columns snapshot the
// organization's account at request time so a later profile edit cannot
// redirect an approved payout.
type Withdrawal struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrgID             uuid.UUID              `gorm:"column:org_id;type:uuid;not null;index"`
	Amount            int64                  `gorm:"column:amount;not null"`
	Status            enums.WithdrawalStatus `gorm:"column:status;type:withdrawal_status;not null;default:'requested'"`
	BankName          string                 `gorm:"column:bank_name;not null"`
	BankAccountNumber string                 `gorm:"column:bank_account_number;not null"`
	BankAccountName   string                 `gorm:"column:bank_account_name;not null"`
	RequestedBy       uuid.UUID              `gorm:"column:requested_by;type:uuid;not null"`
	DecidedBy         *uuid.UUID             `gorm:"column:decided_by;type:uuid"`
	DecidedAt         *time.Time             `gorm:"column:decided_at"`
	RejectReason      *string                `gorm:"column:reject_reason"`
	TransferReference *string                `gorm:"column:transfer_reference"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
