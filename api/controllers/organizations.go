package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lokapasar/lokapasar-backend/api/responses"
	"github.com/lokapasar/lokapasar-backend/api/validators"
	orgsvc "github.com/lokapasar/lokapasar-backend/internal/organizations"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

type registerOrganizationRequest struct {
	Name        string        `json:"name" validate:"required,min=3,max=120"`
	Description *string       `json:"description,omitempty"`
	Phone       *string       `json:"phone,omitempty"`
	Email       *string       `json:"email,omitempty" validate:"omitempty,email"`
	Address     types.Address `json:"address" validate:"required"`
}

// RegisterOrganization lets a buyer apply to open a shop. The organization
// starts in pending review and the account flips to merchant on approval.
func RegisterOrganization(svc orgsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body registerOrganizationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		org, err := svc.Register(r.Context(), userID, orgsvc.RegisterInput{
			Name:        body.Name,
			Description: body.Description,
			Phone:       body.Phone,
			Email:       body.Email,
			Address:     body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, org)
	}
}

// MerchantProfile returns the caller's organization.
func MerchantProfile(svc orgsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		org, err := svc.GetByID(r.Context(), orgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}

type updateOrganizationRequest struct {
	Name          *string        `json:"name,omitempty" validate:"omitempty,min=3,max=120"`
	Description   *string        `json:"description,omitempty"`
	Phone         *string        `json:"phone,omitempty"`
	Email         *string        `json:"email,omitempty" validate:"omitempty,email"`
	LogoURL       *string        `json:"logo_url,omitempty"`
	PickupEnabled *bool          `json:"pickup_enabled,omitempty"`
	Address       *types.Address `json:"address,omitempty"`
}

// MerchantUpdateProfile applies partial shop profile changes.
func MerchantUpdateProfile(svc orgsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateOrganizationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		org, err := svc.Update(r.Context(), userID, orgID, orgsvc.UpdateInput{
			Name:          body.Name,
			Description:   body.Description,
			Phone:         body.Phone,
			Email:         body.Email,
			LogoURL:       body.LogoURL,
			PickupEnabled: body.PickupEnabled,
			Address:       body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}

type bankAccountRequest struct {
	BankName      string `json:"bank_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required,min=6,max=32"`
	AccountName   string `json:"account_name" validate:"required"`
}

// MerchantUpdateBankAccount sets the payout destination for withdrawals.
func MerchantUpdateBankAccount(svc orgsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bankAccountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		org, err := svc.UpdateBankAccount(r.Context(), userID, orgID, orgsvc.BankAccountInput{
			BankName:      body.BankName,
			AccountNumber: body.AccountNumber,
			AccountName:   body.AccountName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}

// PublicStorefront resolves an active shop by slug.
func PublicStorefront(svc orgsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}

		org, err := svc.GetStorefront(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}
