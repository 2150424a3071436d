package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlatformSettings is the single-row configuration table for platform-wide
// commercial knobs. ID is pinned to 1 and every read goes through that key.
type PlatformSettings struct {
	ID                int16           `gorm:"column:id;primaryKey"`
	ServiceFeePercent decimal.Decimal `gorm:"column:service_fee_percent;type:numeric(5,2);not null"`
	MinWithdrawal     int64           `gorm:"column:min_withdrawal;not null"`
	MaintenanceMode   bool            `gorm:"column:maintenance_mode;not null;default:false"`
	UpdatedBy         *string         `gorm:"column:updated_by"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singular name since the table can only hold one row.
func (PlatformSettings) TableName() string {
	return "platform_settings"
}
