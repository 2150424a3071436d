package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
)

type stubLedgerRepo struct {
	page       *ListPage
	lastParams ListParams
	err        error
}

func (s *stubLedgerRepo) List(_ context.Context, params ListParams) (*ListPage, error) {
	s.lastParams = params
	return s.page, s.err
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	var appErr *pkgerrors.Error
	require.True(t, errors.As(err, &appErr), "expected *pkgerrors.Error, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code())
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestStatementRequiresOrg(t *testing.T) {
	svc, err := NewService(&stubLedgerRepo{})
	require.NoError(t, err)

	_, err = svc.Statement(context.Background(), ListParams{})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestStatementMapsEntries(t *testing.T) {
	orgID := uuid.New()
	orderID := uuid.New()
	repo := &stubLedgerRepo{page: &ListPage{
		Items: []models.LedgerEntry{{
			ID:          uuid.New(),
			OrgID:       orgID,
			OrderID:     &orderID,
			ActorUserID: uuid.New(),
			Type:        enums.LedgerEntryTypeOrderPayout,
			Amount:      145000,
			CreatedAt:   time.Now(),
		}},
		NextCursor: "next",
	}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	page, err := svc.Statement(context.Background(), ListParams{OrgID: orgID})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, enums.LedgerEntryTypeOrderPayout, page.Entries[0].Type)
	assert.Equal(t, int64(145000), page.Entries[0].Amount)
	assert.Equal(t, &orderID, page.Entries[0].OrderID)
	assert.Equal(t, "next", page.NextCursor)
	assert.Equal(t, orgID, repo.lastParams.OrgID)
}

func TestEntryBuildersSignAmounts(t *testing.T) {
	orgID := uuid.New()
	refID := uuid.New()
	actorID := uuid.New()

	payout := OrderPayout(orgID, refID, actorID, 100000)
	assert.Equal(t, int64(100000), payout.Amount)

	refund := OrderRefund(orgID, refID, actorID, 100000)
	assert.Equal(t, int64(-100000), refund.Amount)

	hold := WithdrawalHold(orgID, refID, actorID, 50000)
	assert.Equal(t, int64(-50000), hold.Amount)
	require.NotNil(t, hold.WithdrawalID)
	assert.Equal(t, refID, *hold.WithdrawalID)

	paid := WithdrawalPaid(orgID, refID, actorID)
	assert.Equal(t, int64(0), paid.Amount)

	ret := WithdrawalReturn(orgID, refID, actorID, 50000)
	assert.Equal(t, int64(50000), ret.Amount)
}
