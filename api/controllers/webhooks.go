package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/lokapasar/lokapasar-backend/api/responses"
	ordersvc "github.com/lokapasar/lokapasar-backend/internal/orders"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
	"github.com/lokapasar/lokapasar-backend/pkg/midtrans"
)

// MidtransWebhook receives payment gateway notifications. The route is
// unauthenticated; the handler trusts nothing but the payload signature.
func MidtransWebhook(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload midtrans.NotificationPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification body"))
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"gateway_order_id":   payload.OrderID,
				"transaction_status": payload.TransactionStatus,
				"payment_type":       payload.PaymentType,
			})
			logg.Info(ctx, "payment.notification.received")
		}

		if err := svc.HandleGatewayNotification(r.Context(), payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
