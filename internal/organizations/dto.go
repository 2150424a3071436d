package organizations

import (
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

// OrganizationDTO exposes safe merchant tenant data in API responses.
type OrganizationDTO struct {
	ID            uuid.UUID                `json:"id"`
	Name          string                   `json:"name"`
	Slug          string                   `json:"slug"`
	Description   *string                  `json:"description,omitempty"`
	Phone         *string                  `json:"phone,omitempty"`
	Email         *string                  `json:"email,omitempty"`
	Status        enums.OrganizationStatus `json:"status"`
	StatusReason  *string                  `json:"status_reason,omitempty"`
	Address       types.Address            `json:"address"`
	LogoURL       *string                  `json:"logo_url,omitempty"`
	PickupEnabled bool                     `json:"pickup_enabled"`
	Balance       int64                    `json:"balance"`
	OwnerID       uuid.UUID                `json:"owner"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// BankAccountDTO exposes the payout destination to the organization owner.
type BankAccountDTO struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// CreateOrganizationDTO holds creation-time data for a merchant application.
type CreateOrganizationDTO struct {
	Name        string
	Slug        string
	Description *string
	Phone       *string
	Email       *string
	Address     types.Address
	OwnerID     uuid.UUID
}

// FromModel maps the persisted organization into a DTO.
func FromModel(m *models.Organization) *OrganizationDTO {
	if m == nil {
		return nil
	}
	return &OrganizationDTO{
		ID:            m.ID,
		Name:          m.Name,
		Slug:          m.Slug,
		Description:   m.Description,
		Phone:         m.Phone,
		Email:         m.Email,
		Status:        m.Status,
		StatusReason:  m.StatusReason,
		Address:       m.Address,
		LogoURL:       m.LogoURL,
		PickupEnabled: m.PickupEnabled,
		Balance:       m.Balance,
		OwnerID:       m.OwnerID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ToModel prepares the GORM model from the creation DTO. New organizations
// always start in pending until an admin decides the application.
func (c CreateOrganizationDTO) ToModel() *models.Organization {
	return &models.Organization{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Phone:       c.Phone,
		Email:       c.Email,
		Status:      enums.OrganizationStatusPending,
		Address:     c.Address,
		OwnerID:     c.OwnerID,
	}
}
