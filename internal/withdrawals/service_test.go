package withdrawals

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/payloads"
)

type stubWithdrawalRepo struct {
	withdrawal  *models.Withdrawal
	created     *models.Withdrawal
	decideRows  int64
	lastTo      enums.WithdrawalStatus
	lastUpdates map[string]any
	page        *ListPage
	lastList    ListParams
}

func (s *stubWithdrawalRepo) CreateTx(_ *gorm.DB, withdrawal *models.Withdrawal) error {
	s.created = withdrawal
	return nil
}

func (s *stubWithdrawalRepo) FindByID(_ context.Context, _ uuid.UUID) (*models.Withdrawal, error) {
	if s.withdrawal == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.withdrawal, nil
}

func (s *stubWithdrawalRepo) FindForOrg(_ context.Context, _, _ uuid.UUID) (*models.Withdrawal, error) {
	if s.withdrawal == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.withdrawal, nil
}

func (s *stubWithdrawalRepo) DecideTx(_ *gorm.DB, _ uuid.UUID, to enums.WithdrawalStatus, updates map[string]any) (int64, error) {
	s.lastTo = to
	s.lastUpdates = updates
	return s.decideRows, nil
}

func (s *stubWithdrawalRepo) List(_ context.Context, params ListParams) (*ListPage, error) {
	s.lastList = params
	if s.page == nil {
		return &ListPage{}, nil
	}
	return s.page, nil
}

type stubOrgReader struct {
	org *models.Organization
}

func (s *stubOrgReader) FindByID(_ context.Context, _ uuid.UUID) (*models.Organization, error) {
	if s.org == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.org, nil
}

type stubBalanceAdjuster struct {
	rows   int64
	deltas []int64
}

func (s *stubBalanceAdjuster) AdjustBalanceTx(_ *gorm.DB, _ uuid.UUID, delta int64) (int64, error) {
	s.deltas = append(s.deltas, delta)
	return s.rows, nil
}

type stubLedgerWriter struct {
	entries []*models.LedgerEntry
}

func (s *stubLedgerWriter) RecordTx(_ *gorm.DB, entry *models.LedgerEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

type stubSettingsReader struct {
	settings *models.PlatformSettings
}

func (s *stubSettingsReader) Get(_ context.Context) (*models.PlatformSettings, error) {
	return s.settings, nil
}

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type testDeps struct {
	repo     *stubWithdrawalRepo
	orgs     *stubOrgReader
	balance  *stubBalanceAdjuster
	ledger   *stubLedgerWriter
	settings *stubSettingsReader
	outbox   *stubOutbox
}

func newTestDeps() *testDeps {
	return &testDeps{
		repo:    &stubWithdrawalRepo{decideRows: 1},
		orgs:    &stubOrgReader{org: bankedOrg()},
		balance: &stubBalanceAdjuster{rows: 1},
		ledger:  &stubLedgerWriter{},
		settings: &stubSettingsReader{settings: &models.PlatformSettings{
			ServiceFeePercent: decimal.NewFromInt(2),
			MinWithdrawal:     50000,
		}},
		outbox: &stubOutbox{},
	}
}

func (d *testDeps) service(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     d.repo,
		Orgs:     d.orgs,
		Balance:  d.balance,
		Ledger:   d.ledger,
		Settings: d.settings,
		Tx:       &stubTxRunner{},
		Outbox:   d.outbox,
	})
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	var appErr *pkgerrors.Error
	require.True(t, errors.As(err, &appErr), "expected *pkgerrors.Error, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code())
}

func bankedOrg() *models.Organization {
	bankName := "BCA"
	accountNumber := "1234567890"
	accountName := "Toko Rempah"
	return &models.Organization{
		ID:                uuid.New(),
		Name:              "Toko Rempah",
		Status:            enums.OrganizationStatusActive,
		OwnerID:           uuid.New(),
		Balance:           500000,
		BankName:          &bankName,
		BankAccountNumber: &accountNumber,
		BankAccountName:   &accountName,
	}
}

func requestedWithdrawal(orgID uuid.UUID) *models.Withdrawal {
	return &models.Withdrawal{
		ID:                uuid.New(),
		OrgID:             orgID,
		Amount:            100000,
		Status:            enums.WithdrawalStatusRequested,
		BankName:          "BCA",
		BankAccountNumber: "1234567890",
		BankAccountName:   "Toko Rempah",
		RequestedBy:       uuid.New(),
	}
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestRequestHoldsFundsAndSnapshotsBank(t *testing.T) {
	deps := newTestDeps()
	orgID := deps.orgs.org.ID

	dto, err := deps.service(t).Request(context.Background(), orgID, uuid.New(), 100000)
	require.NoError(t, err)

	assert.Equal(t, enums.WithdrawalStatusRequested, dto.Status)
	assert.Equal(t, "BCA", dto.BankName)
	assert.Equal(t, "1234567890", dto.BankAccountNumber)
	require.Len(t, deps.balance.deltas, 1)
	assert.Equal(t, int64(-100000), deps.balance.deltas[0])
	require.NotNil(t, deps.repo.created)
	require.Len(t, deps.ledger.entries, 1)
	assert.Equal(t, enums.LedgerEntryTypeWithdrawalHold, deps.ledger.entries[0].Type)
	assert.Equal(t, int64(-100000), deps.ledger.entries[0].Amount)
}

func TestRequestBelowMinimum(t *testing.T) {
	deps := newTestDeps()

	_, err := deps.service(t).Request(context.Background(), deps.orgs.org.ID, uuid.New(), 25000)
	assertCode(t, err, pkgerrors.CodeValidation)
	assert.Empty(t, deps.balance.deltas)
}

func TestRequestWithoutBankDetails(t *testing.T) {
	deps := newTestDeps()
	deps.orgs.org.BankAccountNumber = nil

	_, err := deps.service(t).Request(context.Background(), deps.orgs.org.ID, uuid.New(), 100000)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestRequestInsufficientBalance(t *testing.T) {
	deps := newTestDeps()
	deps.balance.rows = 0

	_, err := deps.service(t).Request(context.Background(), deps.orgs.org.ID, uuid.New(), 100000)
	assertCode(t, err, pkgerrors.CodeConflict)
	assert.Nil(t, deps.repo.created)
}

func TestApproveRecordsTransfer(t *testing.T) {
	deps := newTestDeps()
	withdrawal := requestedWithdrawal(deps.orgs.org.ID)
	deps.repo.withdrawal = withdrawal
	adminID := uuid.New()

	dto, err := deps.service(t).Approve(context.Background(), adminID, withdrawal.ID, "TRF-2026-0901")
	require.NoError(t, err)

	assert.Equal(t, enums.WithdrawalStatusApproved, dto.Status)
	require.NotNil(t, dto.TransferReference)
	assert.Equal(t, "TRF-2026-0901", *dto.TransferReference)
	assert.Equal(t, enums.WithdrawalStatusApproved, deps.repo.lastTo)
	assert.Equal(t, adminID, deps.repo.lastUpdates["decided_by"])
	assert.Empty(t, deps.balance.deltas)
	require.Len(t, deps.ledger.entries, 1)
	assert.Equal(t, enums.LedgerEntryTypeWithdrawalPaid, deps.ledger.entries[0].Type)

	require.Len(t, deps.outbox.events, 1)
	event := deps.outbox.events[0]
	assert.Equal(t, enums.OutboxEventTypeWithdrawalDecided, event.EventType)
	data, ok := event.Data.(payloads.WithdrawalDecidedEvent)
	require.True(t, ok)
	assert.Equal(t, deps.orgs.org.OwnerID, data.OwnerUserID)
	assert.Equal(t, enums.WithdrawalStatusApproved, data.Status)
}

func TestApproveRequiresReference(t *testing.T) {
	deps := newTestDeps()
	deps.repo.withdrawal = requestedWithdrawal(deps.orgs.org.ID)

	_, err := deps.service(t).Approve(context.Background(), uuid.New(), uuid.New(), " ")
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestApproveAlreadyDecided(t *testing.T) {
	deps := newTestDeps()
	deps.repo.withdrawal = requestedWithdrawal(deps.orgs.org.ID)
	deps.repo.decideRows = 0

	_, err := deps.service(t).Approve(context.Background(), uuid.New(), uuid.New(), "TRF-1")
	assertCode(t, err, pkgerrors.CodeStateConflict)
	assert.Empty(t, deps.outbox.events)
}

func TestRejectReturnsHeldFunds(t *testing.T) {
	deps := newTestDeps()
	withdrawal := requestedWithdrawal(deps.orgs.org.ID)
	deps.repo.withdrawal = withdrawal

	dto, err := deps.service(t).Reject(context.Background(), uuid.New(), withdrawal.ID, "account name mismatch")
	require.NoError(t, err)

	assert.Equal(t, enums.WithdrawalStatusRejected, dto.Status)
	require.NotNil(t, dto.RejectReason)
	require.Len(t, deps.balance.deltas, 1)
	assert.Equal(t, int64(100000), deps.balance.deltas[0])
	require.Len(t, deps.ledger.entries, 1)
	assert.Equal(t, enums.LedgerEntryTypeWithdrawalReturn, deps.ledger.entries[0].Type)
	assert.Equal(t, int64(100000), deps.ledger.entries[0].Amount)
	require.Len(t, deps.outbox.events, 1)
}

func TestRejectRequiresReason(t *testing.T) {
	deps := newTestDeps()
	deps.repo.withdrawal = requestedWithdrawal(deps.orgs.org.ID)

	_, err := deps.service(t).Reject(context.Background(), uuid.New(), uuid.New(), "")
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestGetForMerchantNotFound(t *testing.T) {
	deps := newTestDeps()

	_, err := deps.service(t).GetForMerchant(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListForMerchantScopesToOrg(t *testing.T) {
	deps := newTestDeps()
	orgID := uuid.New()

	_, err := deps.service(t).ListForMerchant(context.Background(), orgID, ListParams{})
	require.NoError(t, err)
	require.NotNil(t, deps.repo.lastList.OrgID)
	assert.Equal(t, orgID, *deps.repo.lastList.OrgID)
}
