package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
)

type ledgerRepository interface {
	List(ctx context.Context, params ListParams) (*ListPage, error)
}

// Service exposes the merchant-facing balance statement.
type Service interface {
	Statement(ctx context.Context, params ListParams) (*StatementPage, error)
}

type service struct {
	repo ledgerRepository
}

// NewService builds the ledger service.
func NewService(repo ledgerRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// EntryDTO is one statement line.
type EntryDTO struct {
	ID           uuid.UUID             `json:"id"`
	OrderID      *uuid.UUID            `json:"order_id,omitempty"`
	WithdrawalID *uuid.UUID            `json:"withdrawal_id,omitempty"`
	Type         enums.LedgerEntryType `json:"type"`
	Amount       int64                 `json:"amount"`
	CreatedAt    time.Time             `json:"created_at"`
}

// StatementPage is one cursor page of statement lines.
type StatementPage struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func (s *service) Statement(ctx context.Context, params ListParams) (*StatementPage, error) {
	if params.OrgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if params.Type != nil && !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown ledger entry type")
	}

	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	result := &StatementPage{
		Entries:    make([]EntryDTO, len(page.Items)),
		NextCursor: page.NextCursor,
	}
	for i, entry := range page.Items {
		result.Entries[i] = EntryDTO{
			ID:           entry.ID,
			OrderID:      entry.OrderID,
			WithdrawalID: entry.WithdrawalID,
			Type:         entry.Type,
			Amount:       entry.Amount,
			CreatedAt:    entry.CreatedAt,
		}
	}
	return result, nil
}

// OrderPayout builds the credit entry written when an order completes.
func OrderPayout(orgID, orderID, actorID uuid.UUID, amount int64) *models.LedgerEntry {
	id := orderID
	return &models.LedgerEntry{
		OrgID:       orgID,
		OrderID:     &id,
		ActorUserID: actorID,
		Type:        enums.LedgerEntryTypeOrderPayout,
		Amount:      amount,
	}
}

// OrderRefund builds the debit entry that reverses a completed-order payout.
func OrderRefund(orgID, orderID, actorID uuid.UUID, amount int64) *models.LedgerEntry {
	id := orderID
	return &models.LedgerEntry{
		OrgID:       orgID,
		OrderID:     &id,
		ActorUserID: actorID,
		Type:        enums.LedgerEntryTypeOrderRefund,
		Amount:      -amount,
	}
}

// WithdrawalHold builds the debit entry written when a payout is requested.
func WithdrawalHold(orgID, withdrawalID, actorID uuid.UUID, amount int64) *models.LedgerEntry {
	id := withdrawalID
	return &models.LedgerEntry{
		OrgID:        orgID,
		WithdrawalID: &id,
		ActorUserID:  actorID,
		Type:         enums.LedgerEntryTypeWithdrawalHold,
		Amount:       -amount,
	}
}

// WithdrawalPaid builds the zero-sum marker entry for an approved payout.
// The funds already left the balance with the hold.
func WithdrawalPaid(orgID, withdrawalID, actorID uuid.UUID) *models.LedgerEntry {
	id := withdrawalID
	return &models.LedgerEntry{
		OrgID:        orgID,
		WithdrawalID: &id,
		ActorUserID:  actorID,
		Type:         enums.LedgerEntryTypeWithdrawalPaid,
		Amount:       0,
	}
}

// WithdrawalReturn builds the credit entry that releases a rejected payout's hold.
func WithdrawalReturn(orgID, withdrawalID, actorID uuid.UUID, amount int64) *models.LedgerEntry {
	id := withdrawalID
	return &models.LedgerEntry{
		OrgID:        orgID,
		WithdrawalID: &id,
		ActorUserID:  actorID,
		Type:         enums.LedgerEntryTypeWithdrawalReturn,
		Amount:       amount,
	}
}
