package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/internal/ledger"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/payloads"
)

type withdrawalRepository interface {
	CreateTx(tx *gorm.DB, withdrawal *models.Withdrawal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	FindForOrg(ctx context.Context, id, orgID uuid.UUID) (*models.Withdrawal, error)
	DecideTx(tx *gorm.DB, id uuid.UUID, to enums.WithdrawalStatus, updates map[string]any) (int64, error)
	List(ctx context.Context, params ListParams) (*ListPage, error)
}

type organizationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type balanceAdjuster interface {
	AdjustBalanceTx(tx *gorm.DB, id uuid.UUID, delta int64) (int64, error)
}

type ledgerWriter interface {
	RecordTx(tx *gorm.DB, entry *models.LedgerEntry) error
}

type settingsReader interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages merchant payout requests. Requesting holds the funds
// immediately; rejection returns them, approval records the bank transfer.
type Service interface {
	Request(ctx context.Context, orgID, requesterID uuid.UUID, amount int64) (*WithdrawalDTO, error)
	Approve(ctx context.Context, adminID, withdrawalID uuid.UUID, transferReference string) (*WithdrawalDTO, error)
	Reject(ctx context.Context, adminID, withdrawalID uuid.UUID, reason string) (*WithdrawalDTO, error)
	GetForMerchant(ctx context.Context, orgID, withdrawalID uuid.UUID) (*WithdrawalDTO, error)
	ListForMerchant(ctx context.Context, orgID uuid.UUID, params ListParams) (*ListResult, error)
	ListForAdmin(ctx context.Context, params ListParams) (*ListResult, error)
}

// ServiceParams bundles the withdrawal dependencies.
type ServiceParams struct {
	Repo     withdrawalRepository
	Orgs     organizationReader
	Balance  balanceAdjuster
	Ledger   ledgerWriter
	Settings settingsReader
	Tx       txRunner
	Outbox   outboxPublisher
}

type service struct {
	ServiceParams
}

// NewService builds the withdrawal service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	missing := ""
	switch {
	case params.Repo == nil:
		missing = "withdrawal repository"
	case params.Orgs == nil:
		missing = "organization reader"
	case params.Balance == nil:
		missing = "balance adjuster"
	case params.Ledger == nil:
		missing = "ledger writer"
	case params.Settings == nil:
		missing = "settings reader"
	case params.Tx == nil:
		missing = "transaction runner"
	case params.Outbox == nil:
		missing = "outbox publisher"
	}
	if missing != "" {
		return nil, fmt.Errorf("%s required", missing)
	}
	return &service{ServiceParams: params}, nil
}

// WithdrawalDTO is the API-facing shape of one payout request.
type WithdrawalDTO struct {
	ID                uuid.UUID              `json:"id"`
	OrgID             uuid.UUID              `json:"org_id"`
	Amount            int64                  `json:"amount"`
	Status            enums.WithdrawalStatus `json:"status"`
	BankName          string                 `json:"bank_name"`
	BankAccountNumber string                 `json:"bank_account_number"`
	BankAccountName   string                 `json:"bank_account_name"`
	RejectReason      *string                `json:"reject_reason,omitempty"`
	TransferReference *string                `json:"transfer_reference,omitempty"`
	DecidedAt         *time.Time             `json:"decided_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// ListResult is one cursor page of withdrawal DTOs.
type ListResult struct {
	Withdrawals []WithdrawalDTO `json:"withdrawals"`
	NextCursor  string          `json:"next_cursor,omitempty"`
}

func fromModel(w *models.Withdrawal) *WithdrawalDTO {
	return &WithdrawalDTO{
		ID:                w.ID,
		OrgID:             w.OrgID,
		Amount:            w.Amount,
		Status:            w.Status,
		BankName:          w.BankName,
		BankAccountNumber: w.BankAccountNumber,
		BankAccountName:   w.BankAccountName,
		RejectReason:      w.RejectReason,
		TransferReference: w.TransferReference,
		DecidedAt:         w.DecidedAt,
		CreatedAt:         w.CreatedAt,
	}
}

func (s *service) Request(ctx context.Context, orgID, requesterID uuid.UUID, amount int64) (*WithdrawalDTO, error) {
	if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if amount < settings.MinWithdrawal {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("minimum withdrawal is %d", settings.MinWithdrawal))
	}

	org, err := s.Orgs.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	if org.BankName == nil || org.BankAccountNumber == nil || org.BankAccountName == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bank account details are incomplete")
	}

	withdrawal := &models.Withdrawal{
		ID:                uuid.New(),
		OrgID:             orgID,
		Amount:            amount,
		Status:            enums.WithdrawalStatusRequested,
		BankName:          *org.BankName,
		BankAccountNumber: *org.BankAccountNumber,
		BankAccountName:   *org.BankAccountName,
		RequestedBy:       requesterID,
	}

	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Balance.AdjustBalanceTx(tx, orgID, -amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hold withdrawal amount")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "balance is insufficient for this withdrawal")
		}
		if err := s.Repo.CreateTx(tx, withdrawal); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
		}
		entry := ledger.WithdrawalHold(orgID, withdrawal.ID, requesterID, amount)
		if err := s.Ledger.RecordTx(tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record withdrawal hold")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromModel(withdrawal), nil
}

func (s *service) Approve(ctx context.Context, adminID, withdrawalID uuid.UUID, transferReference string) (*WithdrawalDTO, error) {
	transferReference = strings.TrimSpace(transferReference)
	if transferReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a transfer reference is required")
	}

	withdrawal, err := s.load(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	org, err := s.Orgs.FindByID(ctx, withdrawal.OrgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}

	now := time.Now()
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Repo.DecideTx(tx, withdrawal.ID,
			enums.WithdrawalStatusApproved,
			map[string]any{
				"decided_by":         adminID,
				"decided_at":         now,
				"transfer_reference": transferReference,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve withdrawal")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal is already decided")
		}

		entry := ledger.WithdrawalPaid(withdrawal.OrgID, withdrawal.ID, adminID)
		if err := s.Ledger.RecordTx(tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record withdrawal payout")
		}
		return s.emitDecision(ctx, tx, withdrawal, org, adminID, enums.WithdrawalStatusApproved, "")
	})
	if err != nil {
		return nil, err
	}

	withdrawal.Status = enums.WithdrawalStatusApproved
	withdrawal.DecidedBy = &adminID
	withdrawal.DecidedAt = &now
	withdrawal.TransferReference = &transferReference
	return fromModel(withdrawal), nil
}

func (s *service) Reject(ctx context.Context, adminID, withdrawalID uuid.UUID, reason string) (*WithdrawalDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a rejection reason is required")
	}

	withdrawal, err := s.load(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	org, err := s.Orgs.FindByID(ctx, withdrawal.OrgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}

	now := time.Now()
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.Repo.DecideTx(tx, withdrawal.ID,
			enums.WithdrawalStatusRejected,
			map[string]any{
				"decided_by":    adminID,
				"decided_at":    now,
				"reject_reason": reason,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject withdrawal")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal is already decided")
		}

		if _, err := s.Balance.AdjustBalanceTx(tx, withdrawal.OrgID, withdrawal.Amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return held funds")
		}
		entry := ledger.WithdrawalReturn(withdrawal.OrgID, withdrawal.ID, adminID, withdrawal.Amount)
		if err := s.Ledger.RecordTx(tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record hold release")
		}
		return s.emitDecision(ctx, tx, withdrawal, org, adminID, enums.WithdrawalStatusRejected, reason)
	})
	if err != nil {
		return nil, err
	}

	withdrawal.Status = enums.WithdrawalStatusRejected
	withdrawal.DecidedBy = &adminID
	withdrawal.DecidedAt = &now
	withdrawal.RejectReason = &reason
	return fromModel(withdrawal), nil
}

func (s *service) GetForMerchant(ctx context.Context, orgID, withdrawalID uuid.UUID) (*WithdrawalDTO, error) {
	withdrawal, err := s.Repo.FindForOrg(ctx, withdrawalID, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal")
	}
	return fromModel(withdrawal), nil
}

func (s *service) ListForMerchant(ctx context.Context, orgID uuid.UUID, params ListParams) (*ListResult, error) {
	params.OrgID = &orgID
	return s.list(ctx, params)
}

func (s *service) ListForAdmin(ctx context.Context, params ListParams) (*ListResult, error) {
	params.OrgID = nil
	return s.list(ctx, params)
}

func (s *service) list(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown withdrawal status")
	}
	page, err := s.Repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawals")
	}
	result := &ListResult{
		Withdrawals: make([]WithdrawalDTO, len(page.Items)),
		NextCursor:  page.NextCursor,
	}
	for i := range page.Items {
		result.Withdrawals[i] = *fromModel(&page.Items[i])
	}
	return result, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal")
	}
	return withdrawal, nil
}

func (s *service) emitDecision(ctx context.Context, tx *gorm.DB, withdrawal *models.Withdrawal, org *models.Organization, adminID uuid.UUID, status enums.WithdrawalStatus, reason string) error {
	err := s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventTypeWithdrawalDecided,
		AggregateType: enums.OutboxAggregateTypeWithdrawal,
		AggregateID:   withdrawal.ID,
		Actor:         &outbox.ActorRef{UserID: adminID, Role: enums.MemberRoleAdmin.String()},
		Version:       1,
		Data: payloads.WithdrawalDecidedEvent{
			WithdrawalID: withdrawal.ID,
			OrgID:        withdrawal.OrgID,
			OwnerUserID:  org.OwnerID,
			Status:       status,
			Amount:       withdrawal.Amount,
			Reason:       reason,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue decision event")
	}
	return nil
}
