package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/lokapasar/lokapasar-backend/api/responses"
	"github.com/lokapasar/lokapasar-backend/api/validators"
	settingsvc "github.com/lokapasar/lokapasar-backend/internal/settings"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
)

// AdminGetSettings returns the platform configuration.
func AdminGetSettings(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

type updateSettingsRequest struct {
	ServiceFeePercent *decimal.Decimal `json:"service_fee_percent,omitempty"`
	MinWithdrawal     *int64           `json:"min_withdrawal,omitempty" validate:"omitempty,gte=0"`
	MaintenanceMode   *bool            `json:"maintenance_mode,omitempty"`
}

// AdminUpdateSettings applies partial changes to the platform configuration.
func AdminUpdateSettings(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateSettingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.Update(r.Context(), adminID, settingsvc.UpdateInput{
			ServiceFeePercent: body.ServiceFeePercent,
			MinWithdrawal:     body.MinWithdrawal,
			MaintenanceMode:   body.MaintenanceMode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}
