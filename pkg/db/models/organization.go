package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

// Organization represents the canonical merchant tenant. Balance is the
// withdrawable amount in whole rupiah, derived from the ledger and cached
// here for listing screens.
type Organization struct {
	ID                uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string                   `gorm:"column:name;not null"`
	Slug              string                   `gorm:"column:slug;not null;uniqueIndex"`
	Description       *string                  `gorm:"column:description"`
	Phone             *string                  `gorm:"column:phone"`
	Email             *string                  `gorm:"column:email"`
	Status            enums.OrganizationStatus `gorm:"column:status;type:organization_status;not null;default:'pending'"`
	StatusReason      *string                  `gorm:"column:status_reason"`
	Address           types.Address            `gorm:"column:address;type:address_t;not null"`
	LogoURL           *string                  `gorm:"column:logo_url"`
	PickupEnabled     bool                     `gorm:"column:pickup_enabled;not null;default:false"`
	Balance           int64                    `gorm:"column:balance;not null;default:0"`
	BankName          *string                  `gorm:"column:bank_name"`
	BankAccountNumber *string                  `gorm:"column:bank_account_number"`
	BankAccountName   *string                  `gorm:"column:bank_account_name"`
	OwnerID           uuid.UUID                `gorm:"column:owner;type:uuid;not null"`
	LastActiveAt      *time.Time               `gorm:"column:last_active_at"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
