package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/api/responses"
	"github.com/lokapasar/lokapasar-backend/api/validators"
	couponsvc "github.com/lokapasar/lokapasar-backend/internal/coupons"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
)

type createCouponRequest struct {
	Code         string    `json:"code" validate:"required,min=3,max=32"`
	Description  *string   `json:"description,omitempty"`
	DiscountType string    `json:"discount_type" validate:"required"`
	Value        int64     `json:"value" validate:"required,gt=0"`
	MaxDiscount  int64     `json:"max_discount" validate:"gte=0"`
	MinPurchase  int64     `json:"min_purchase" validate:"gte=0"`
	Quota        int       `json:"quota" validate:"eq=-1|gt=0"`
	ValidFrom    time.Time `json:"valid_from" validate:"required"`
	ValidUntil   time.Time `json:"valid_until" validate:"required"`
	IsActive     *bool     `json:"is_active,omitempty"`
}

func (b createCouponRequest) toInput() (couponsvc.CreateInput, error) {
	discountType, err := enums.ParseDiscountType(strings.TrimSpace(b.DiscountType))
	if err != nil {
		return couponsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	return couponsvc.CreateInput{
		Code:         b.Code,
		Description:  b.Description,
		DiscountType: discountType,
		Value:        b.Value,
		MaxDiscount:  b.MaxDiscount,
		MinPurchase:  b.MinPurchase,
		Quota:        b.Quota,
		ValidFrom:    b.ValidFrom,
		ValidUntil:   b.ValidUntil,
		IsActive:     b.IsActive,
	}, nil
}

type updateCouponRequest struct {
	Description *string    `json:"description,omitempty"`
	Value       *int64     `json:"value,omitempty" validate:"omitempty,gt=0"`
	MaxDiscount *int64     `json:"max_discount,omitempty" validate:"omitempty,gte=0"`
	MinPurchase *int64     `json:"min_purchase,omitempty" validate:"omitempty,gte=0"`
	Quota       *int       `json:"quota,omitempty" validate:"omitempty,eq=-1|gt=0"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

func (b updateCouponRequest) toInput() couponsvc.UpdateInput {
	return couponsvc.UpdateInput{
		Description: b.Description,
		Value:       b.Value,
		MaxDiscount: b.MaxDiscount,
		MinPurchase: b.MinPurchase,
		Quota:       b.Quota,
		ValidFrom:   b.ValidFrom,
		ValidUntil:  b.ValidUntil,
		IsActive:    b.IsActive,
	}
}

func couponScope(r *http.Request) (*uuid.UUID, error) {
	// Merchant routes are coupon-scoped to the caller's shop; admin routes
	// manage platform-wide coupons.
	if strings.HasPrefix(r.URL.Path, "/api/admin/") {
		return nil, nil
	}
	orgID, err := orgIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	return &orgID, nil
}

// CreateCoupon creates a coupon in the caller's scope.
func CreateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := couponScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Create(r.Context(), scope, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

// UpdateCoupon mutates a coupon in the caller's scope.
func UpdateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := couponScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		couponID, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Update(r.Context(), scope, couponID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

// DeleteCoupon removes a coupon in the caller's scope.
func DeleteCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := couponScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		couponID, err := pathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), scope, couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListCoupons pages over coupons in the caller's scope.
func ListCoupons(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := couponScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := couponsvc.ListParams{Params: page}
		if scope != nil {
			params.OrgID = scope
		} else {
			params.PlatformOnly = true
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CouponByCode resolves a coupon so the cart can show the discount before
// checkout.
func CouponByCode(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(r.URL.Query().Get("code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code is required"))
			return
		}

		coupon, err := svc.GetByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}
