package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/payloads"
)

type stubNotificationRepo struct {
	page     *ListPage
	readRows int64
	allRows  int64
	unread   int64
	lastList ListParams
}

func (s *stubNotificationRepo) List(_ context.Context, params ListParams) (*ListPage, error) {
	s.lastList = params
	if s.page == nil {
		return &ListPage{}, nil
	}
	return s.page, nil
}

func (s *stubNotificationRepo) MarkRead(_ context.Context, _, _ uuid.UUID) (int64, error) {
	return s.readRows, nil
}

func (s *stubNotificationRepo) MarkAllRead(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.allRows, nil
}

func (s *stubNotificationRepo) CountUnread(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.unread, nil
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

func TestListRequiresUser(t *testing.T) {
	svc, err := NewService(&stubNotificationRepo{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListParams{})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestListMapsFeed(t *testing.T) {
	now := time.Now()
	repo := &stubNotificationRepo{page: &ListPage{
		Items: []models.Notification{{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			Type:      enums.NotificationTypeOrderStatus,
			Title:     "Order shipped",
			Message:   "Order LP-20260901-AB12CD34 is on its way.",
			CreatedAt: now,
		}},
		NextCursor: "next",
	}}
	svc, err := NewService(repo)
	require.NoError(t, err)

	userID := uuid.New()
	result, err := svc.List(context.Background(), ListParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)

	require.Len(t, result.Notifications, 1)
	assert.Equal(t, "Order shipped", result.Notifications[0].Title)
	assert.Equal(t, "next", result.NextCursor)
	assert.True(t, repo.lastList.UnreadOnly)
	assert.Equal(t, userID, repo.lastList.UserID)
}

func TestMarkReadNotFound(t *testing.T) {
	svc, err := NewService(&stubNotificationRepo{readRows: 0})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestMarkAllReadReturnsCount(t *testing.T) {
	svc, err := NewService(&stubNotificationRepo{allRows: 4})
	require.NoError(t, err)

	count, err := svc.MarkAllRead(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestUnreadCount(t *testing.T) {
	svc, err := NewService(&stubNotificationRepo{unread: 7})
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func marshalPayload(t *testing.T, payload any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func TestBuildNotificationOrderShipped(t *testing.T) {
	userID := uuid.New()
	data := marshalPayload(t, payloads.OrderShippedEvent{
		OrderID:        uuid.New(),
		OrderNumber:    "LP-20260901-AB12CD34",
		UserID:         userID,
		OrgID:          uuid.New(),
		TrackingNumber: "JNE123456",
		ShippedAt:      time.Now(),
	})

	notification, err := buildNotification(enums.OutboxEventTypeOrderShipped, data)
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Equal(t, userID, notification.UserID)
	assert.Equal(t, enums.NotificationTypeOrderStatus, notification.Type)
	assert.Contains(t, notification.Message, "JNE123456")
	assert.Equal(t, "JNE123456", notification.Data["tracking_number"])
}

func TestBuildNotificationWithdrawalTargetsOwner(t *testing.T) {
	ownerID := uuid.New()
	data := marshalPayload(t, payloads.WithdrawalDecidedEvent{
		WithdrawalID: uuid.New(),
		OrgID:        uuid.New(),
		OwnerUserID:  ownerID,
		Status:       enums.WithdrawalStatusRejected,
		Amount:       100000,
		Reason:       "account name mismatch",
	})

	notification, err := buildNotification(enums.OutboxEventTypeWithdrawalDecided, data)
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Equal(t, ownerID, notification.UserID)
	assert.Equal(t, enums.NotificationTypeWithdrawalDecision, notification.Type)
	assert.Contains(t, notification.Message, "account name mismatch")
}

func TestBuildNotificationSkipsUnhandledEvents(t *testing.T) {
	notification, err := buildNotification(enums.OutboxEventTypeOrderCreated, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Nil(t, notification)
}

func TestBuildNotificationBadPayload(t *testing.T) {
	_, err := buildNotification(enums.OutboxEventTypeOrderPaid, json.RawMessage(`{`))
	require.Error(t, err)
}
