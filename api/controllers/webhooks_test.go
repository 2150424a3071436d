package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/midtrans"
)

func TestMidtransWebhookForwardsPayload(t *testing.T) {
	var got midtrans.NotificationPayload
	svc := stubOrdersService{
		notify: func(_ context.Context, payload midtrans.NotificationPayload) error {
			got = payload
			return nil
		},
	}

	body := `{"order_id":"LP-2025-000042","status_code":"200","gross_amount":"150000.00","signature_key":"sig","transaction_status":"settlement","payment_type":"qris"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/midtrans", strings.NewReader(body))
	resp := httptest.NewRecorder()
	MidtransWebhook(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.OrderID != "LP-2025-000042" || got.TransactionStatus != "settlement" {
		t.Fatalf("payload not forwarded: %+v", got)
	}
}

func TestMidtransWebhookRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/midtrans", strings.NewReader("{"))
	resp := httptest.NewRecorder()
	MidtransWebhook(stubOrdersService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMidtransWebhookMapsSignatureFailure(t *testing.T) {
	svc := stubOrdersService{
		notify: func(context.Context, midtrans.NotificationPayload) error {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "signature mismatch")
		},
	}

	body := `{"order_id":"LP-2025-000042","signature_key":"forged"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/midtrans", strings.NewReader(body))
	resp := httptest.NewRecorder()
	MidtransWebhook(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
