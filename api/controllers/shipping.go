package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/api/responses"
	"github.com/lokapasar/lokapasar-backend/api/validators"
	shippingsvc "github.com/lokapasar/lokapasar-backend/internal/shipping"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
)

type shippingRatesRequest struct {
	OrgID         uuid.UUID `json:"org_id" validate:"required"`
	DestinationID int64     `json:"destination_id" validate:"required,gt=0"`
	WeightGrams   int       `json:"weight_grams" validate:"required,gt=0"`
	Courier       string    `json:"courier" validate:"required"`
}

// ShippingRates quotes courier services for a shop-to-destination lane.
func ShippingRates(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		var body shippingRatesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		courier, err := enums.ParseCourier(strings.TrimSpace(body.Courier))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid courier"))
			return
		}

		rates, err := svc.Rates(r.Context(), shippingsvc.RatesInput{
			OrgID:         body.OrgID,
			DestinationID: body.DestinationID,
			WeightGrams:   body.WeightGrams,
			Courier:       courier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"rates": rates})
	}
}

// ShippingDestinations searches the courier destination directory, used for
// address entry autocomplete.
func ShippingDestinations(svc shippingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "q is required"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		destinations, err := svc.SearchDestination(r.Context(), query, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"destinations": destinations})
	}
}
