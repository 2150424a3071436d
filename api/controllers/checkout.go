package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/api/responses"
	"github.com/lokapasar/lokapasar-backend/api/validators"
	checkoutsvc "github.com/lokapasar/lokapasar-backend/internal/checkout"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
)

type checkoutChoiceRequest struct {
	OrgID   uuid.UUID `json:"org_id" validate:"required"`
	Method  string    `json:"method" validate:"required"`
	Courier string    `json:"courier,omitempty"`
	Service string    `json:"service,omitempty"`
}

type checkoutRequest struct {
	CartItemIDs []uuid.UUID             `json:"cart_item_ids" validate:"required,min=1"`
	AddressID   *uuid.UUID              `json:"address_id,omitempty"`
	Choices     []checkoutChoiceRequest `json:"choices" validate:"required,min=1,dive"`
	CouponCode  string                  `json:"coupon_code,omitempty"`
	Notes       *string                 `json:"notes,omitempty"`
}

func (b checkoutRequest) toInput() (checkoutsvc.Input, error) {
	choices := make([]checkoutsvc.GroupChoice, 0, len(b.Choices))
	for _, c := range b.Choices {
		method, err := enums.ParseShippingMethod(strings.TrimSpace(c.Method))
		if err != nil {
			return checkoutsvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method")
		}
		choice := checkoutsvc.GroupChoice{
			OrgID:   c.OrgID,
			Method:  method,
			Service: strings.TrimSpace(c.Service),
		}
		if raw := strings.TrimSpace(c.Courier); raw != "" {
			courier, err := enums.ParseCourier(raw)
			if err != nil {
				return checkoutsvc.Input{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid courier")
			}
			choice.Courier = courier
		}
		choices = append(choices, choice)
	}
	return checkoutsvc.Input{
		CartItemIDs: b.CartItemIDs,
		AddressID:   b.AddressID,
		Choices:     choices,
		CouponCode:  strings.TrimSpace(b.CouponCode),
		Notes:       b.Notes,
	}, nil
}

// Checkout converts selected cart lines into per-shop orders and returns the
// payment token for the whole group.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
