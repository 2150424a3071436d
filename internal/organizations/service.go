package organizations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/lokapasar/lokapasar-backend/pkg/db"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/payloads"
	"github.com/lokapasar/lokapasar-backend/pkg/slug"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

type organizationRepository interface {
	CreateTx(tx *gorm.DB, org *models.Organization) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*models.Organization, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Organization, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from []enums.OrganizationStatus, to enums.OrganizationStatus, reason *string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	List(ctx context.Context, params ListParams) (*ListPage, error)
}

type usersRepository interface {
	UpdateRoleTx(tx *gorm.DB, userID uuid.UUID, role enums.MemberRole) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes merchant tenant operations.
type Service interface {
	Register(ctx context.Context, ownerID uuid.UUID, input RegisterInput) (*OrganizationDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*OrganizationDTO, error)
	GetStorefront(ctx context.Context, slug string) (*OrganizationDTO, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*OrganizationDTO, error)
	Update(ctx context.Context, actorID, orgID uuid.UUID, input UpdateInput) (*OrganizationDTO, error)
	UpdateBankAccount(ctx context.Context, actorID, orgID uuid.UUID, input BankAccountInput) (*OrganizationDTO, error)
	List(ctx context.Context, params ListParams) (*ListPage, error)
	Approve(ctx context.Context, adminID, orgID uuid.UUID) error
	Reject(ctx context.Context, adminID, orgID uuid.UUID, reason string) error
	Suspend(ctx context.Context, adminID, orgID uuid.UUID, reason string) error
	Reinstate(ctx context.Context, adminID, orgID uuid.UUID) error
	Delete(ctx context.Context, adminID, orgID uuid.UUID) error
}

type service struct {
	repo   organizationRepository
	users  usersRepository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds the organization service with the required dependencies.
func NewService(repo organizationRepository, users usersRepository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("organization repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, users: users, tx: tx, outbox: outboxSvc}, nil
}

// RegisterInput captures the merchant application form.
type RegisterInput struct {
	Name        string
	Description *string
	Phone       *string
	Email       *string
	Address     types.Address
}

// UpdateInput captures the organization profile fields the owner can change.
type UpdateInput struct {
	Name          *string
	Description   *string
	Phone         *string
	Email         *string
	LogoURL       *string
	PickupEnabled *bool
	Address       *types.Address
}

// BankAccountInput captures the payout destination details.
type BankAccountInput struct {
	BankName      string
	AccountNumber string
	AccountName   string
}

func (s *service) Register(ctx context.Context, ownerID uuid.UUID, input RegisterInput) (*OrganizationDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization name is required")
	}
	if err := input.Address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}

	existing, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup owner organization")
	}
	if existing != nil && err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already owns an organization")
	}

	candidate := slug.Make(name)
	if candidate == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization name yields an empty slug")
	}

	org := CreateOrganizationDTO{
		Name:        name,
		Slug:        candidate,
		Description: input.Description,
		Phone:       input.Phone,
		Email:       input.Email,
		Address:     input.Address,
		OwnerID:     ownerID,
	}.ToModel()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, org); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				// slug collision with another merchant, disambiguate once
				org.Slug = fmt.Sprintf("%s-%s", candidate, uuid.NewString()[:8])
				if retryErr := s.repo.CreateTx(tx, org); retryErr != nil {
					return retryErr
				}
			} else {
				return err
			}
		}
		return s.users.UpdateRoleTx(tx, ownerID, enums.MemberRoleMerchant)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register organization")
	}

	return FromModel(org), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*OrganizationDTO, error) {
	org, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	return FromModel(org), nil
}

// GetStorefront resolves the public storefront view. Only active merchants
// are visible to buyers.
func (s *service) GetStorefront(ctx context.Context, slug string) (*OrganizationDTO, error) {
	org, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	if org.Status != enums.OrganizationStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
	}
	return FromModel(org), nil
}

func (s *service) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*OrganizationDTO, error) {
	org, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	return FromModel(org), nil
}

func (s *service) Update(ctx context.Context, actorID, orgID uuid.UUID, input UpdateInput) (*OrganizationDTO, error) {
	org, err := s.loadOwned(ctx, actorID, orgID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization name is required")
		}
		org.Name = name
	}
	if input.Description != nil {
		org.Description = cloneStringPtr(input.Description)
	}
	if input.Phone != nil {
		org.Phone = cloneStringPtr(input.Phone)
	}
	if input.Email != nil {
		org.Email = cloneStringPtr(input.Email)
	}
	if input.LogoURL != nil {
		org.LogoURL = cloneStringPtr(input.LogoURL)
	}
	if input.PickupEnabled != nil {
		org.PickupEnabled = *input.PickupEnabled
	}
	if input.Address != nil {
		if err := input.Address.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
		}
		org.Address = *input.Address
	}

	if err := s.repo.Update(ctx, org); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update organization")
	}
	return FromModel(org), nil
}

func (s *service) UpdateBankAccount(ctx context.Context, actorID, orgID uuid.UUID, input BankAccountInput) (*OrganizationDTO, error) {
	bankName := strings.TrimSpace(input.BankName)
	accountNumber := strings.TrimSpace(input.AccountNumber)
	accountName := strings.TrimSpace(input.AccountName)
	if bankName == "" || accountNumber == "" || accountName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bank name, account number and account name are required")
	}

	org, err := s.loadOwned(ctx, actorID, orgID)
	if err != nil {
		return nil, err
	}

	org.BankName = &bankName
	org.BankAccountNumber = &accountNumber
	org.BankAccountName = &accountName

	if err := s.repo.Update(ctx, org); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bank account")
	}
	return FromModel(org), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListPage, error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organizations")
	}
	return page, nil
}

func (s *service) Approve(ctx context.Context, adminID, orgID uuid.UUID) error {
	from := []enums.OrganizationStatus{enums.OrganizationStatusPending}
	return s.decide(ctx, adminID, orgID, from, enums.OrganizationStatusActive, "")
}

func (s *service) Reject(ctx context.Context, adminID, orgID uuid.UUID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	from := []enums.OrganizationStatus{enums.OrganizationStatusPending}
	return s.decide(ctx, adminID, orgID, from, enums.OrganizationStatusRejected, reason)
}

func (s *service) Suspend(ctx context.Context, adminID, orgID uuid.UUID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "suspension reason is required")
	}
	from := []enums.OrganizationStatus{enums.OrganizationStatusActive}
	return s.decide(ctx, adminID, orgID, from, enums.OrganizationStatusSuspended, reason)
}

func (s *service) Reinstate(ctx context.Context, adminID, orgID uuid.UUID) error {
	from := []enums.OrganizationStatus{enums.OrganizationStatusSuspended}
	return s.decide(ctx, adminID, orgID, from, enums.OrganizationStatusActive, "")
}

// Delete permanently removes the organization and, through cascading
// foreign keys, its catalog and cart references.
func (s *service) Delete(ctx context.Context, adminID, orgID uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, orgID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete organization")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
	}
	return nil
}

// decide applies one admin moderation decision. The status update is guarded
// on the allowed source states; when another decision already landed the
// caller gets a state conflict instead of a silent overwrite.
func (s *service) decide(ctx context.Context, adminID, orgID uuid.UUID, from []enums.OrganizationStatus, to enums.OrganizationStatus, reason string) error {
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		org, err := s.repo.FindByIDWithTx(tx, orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
		}

		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		affected, err := s.repo.UpdateStatusTx(tx, orgID, from, to, reasonPtr)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update organization status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("organization is no longer %s", joinStatuses(from)))
		}

		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeOrgStatusChanged,
			AggregateType: enums.OutboxAggregateTypeOrganization,
			AggregateID:   orgID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: enums.MemberRoleAdmin.String()},
			Version:       1,
			Data: payloads.OrganizationStatusChangedEvent{
				OrgID:       orgID,
				OwnerUserID: org.OwnerID,
				Status:      to,
				Reason:      reason,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue status event")
		}
		return nil
	})
	return txErr
}

func (s *service) loadOwned(ctx context.Context, actorID, orgID uuid.UUID) (*models.Organization, error) {
	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	if org.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can manage the organization")
	}
	return org, nil
}

func joinStatuses(statuses []enums.OrganizationStatus) string {
	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		parts = append(parts, status.String())
	}
	return strings.Join(parts, " or ")
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
