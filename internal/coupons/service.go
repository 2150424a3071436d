package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/internal/cart"
	dbpkg "github.com/lokapasar/lokapasar-backend/pkg/db"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
)

type couponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	List(ctx context.Context, params ListParams) (*ListPage, error)
}

// Quote is a validated coupon application against a concrete cart selection.
// Discount is the rupiah amount taken off the matching groups' subtotal.
type Quote struct {
	Coupon   models.Coupon
	Discount int64
}

// Service exposes coupon management and validation. Management calls take the
// caller's org scope: merchants pass their org id and stay fenced to their own
// coupons, admins pass nil and manage platform-wide ones.
type Service interface {
	Create(ctx context.Context, scopeOrgID *uuid.UUID, input CreateInput) (*models.Coupon, error)
	Update(ctx context.Context, scopeOrgID *uuid.UUID, couponID uuid.UUID, input UpdateInput) (*models.Coupon, error)
	Delete(ctx context.Context, scopeOrgID *uuid.UUID, couponID uuid.UUID) error
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, params ListParams) (*ListPage, error)
	Validate(ctx context.Context, code string, groups []cart.Group, now time.Time) (*Quote, error)
}

type service struct {
	repo couponRepository
}

// NewService builds the coupon service.
func NewService(repo couponRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo}, nil
}

// CreateInput captures a new coupon. Quota is a positive use count or -1
// for unlimited.
type CreateInput struct {
	Code         string
	Description  *string
	DiscountType enums.DiscountType
	Value        int64
	MaxDiscount  int64
	MinPurchase  int64
	Quota        int
	ValidFrom    time.Time
	ValidUntil   time.Time
	IsActive     *bool
}

// UpdateInput captures optional coupon mutations. The code is immutable.
type UpdateInput struct {
	Description *string
	Value       *int64
	MaxDiscount *int64
	MinPurchase *int64
	Quota       *int
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	IsActive    *bool
}

func (s *service) Create(ctx context.Context, scopeOrgID *uuid.UUID, input CreateInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type")
	}
	if err := validateValue(input.DiscountType, input.Value); err != nil {
		return nil, err
	}
	if input.MaxDiscount < 0 || input.MinPurchase < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount bounds cannot be negative")
	}
	if err := validateQuota(input.Quota); err != nil {
		return nil, err
	}
	if !input.ValidUntil.After(input.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be after valid_from")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	coupon := &models.Coupon{
		OrgID:        scopeOrgID,
		Code:         code,
		Description:  input.Description,
		DiscountType: input.DiscountType,
		Value:        input.Value,
		MaxDiscount:  input.MaxDiscount,
		MinPurchase:  input.MinPurchase,
		Quota:        input.Quota,
		ValidFrom:    input.ValidFrom,
		ValidUntil:   input.ValidUntil,
		IsActive:     active,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return coupon, nil
}

func (s *service) Update(ctx context.Context, scopeOrgID *uuid.UUID, couponID uuid.UUID, input UpdateInput) (*models.Coupon, error) {
	coupon, err := s.loadScoped(ctx, scopeOrgID, couponID)
	if err != nil {
		return nil, err
	}

	if input.Value != nil {
		if err := validateValue(coupon.DiscountType, *input.Value); err != nil {
			return nil, err
		}
		coupon.Value = *input.Value
	}
	if input.MaxDiscount != nil {
		if *input.MaxDiscount < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max discount cannot be negative")
		}
		coupon.MaxDiscount = *input.MaxDiscount
	}
	if input.MinPurchase != nil {
		if *input.MinPurchase < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min purchase cannot be negative")
		}
		coupon.MinPurchase = *input.MinPurchase
	}
	if input.Quota != nil {
		if err := validateQuota(*input.Quota); err != nil {
			return nil, err
		}
		coupon.Quota = *input.Quota
	}
	if input.Description != nil {
		coupon.Description = input.Description
	}
	if input.ValidFrom != nil {
		coupon.ValidFrom = *input.ValidFrom
	}
	if input.ValidUntil != nil {
		coupon.ValidUntil = *input.ValidUntil
	}
	if !coupon.ValidUntil.After(coupon.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be after valid_from")
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	return coupon, nil
}

func (s *service) Delete(ctx context.Context, scopeOrgID *uuid.UUID, couponID uuid.UUID) error {
	if _, err := s.loadScoped(ctx, scopeOrgID, couponID); err != nil {
		return err
	}
	affected, err := s.repo.Delete(ctx, couponID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListPage, error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return page, nil
}

// Validate applies the checkout validation sequence: the coupon must exist,
// be active and inside its window; have quota left; reach at least one
// selected item in its scope; and its discount counts only against the
// matching groups' subtotal. Carts mixing merchants discount partially.
func (s *service) Validate(ctx context.Context, code string, groups []cart.Group, now time.Time) (*Quote, error) {
	if len(groups) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items to apply the coupon to")
	}

	coupon, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is outside its validity window")
	}

	if coupon.Quota != UnlimitedQuota && coupon.TimesUsed >= coupon.Quota {
		return nil, pkgerrors.New(pkgerrors.CodeQuotaExceeded, "coupon quota exhausted")
	}

	matching := MatchingSubtotal(coupon, groups)
	if matching == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon does not apply to the selected items")
	}
	if coupon.MinPurchase > 0 && matching < coupon.MinPurchase {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("minimum purchase of %d not reached", coupon.MinPurchase))
	}

	return &Quote{Coupon: *coupon, Discount: Discount(coupon, matching)}, nil
}

// MatchingSubtotal sums the group subtotals the coupon's scope reaches.
// Platform-wide coupons reach everything.
func MatchingSubtotal(coupon *models.Coupon, groups []cart.Group) int64 {
	var total int64
	for _, group := range groups {
		if coupon.OrgID == nil || *coupon.OrgID == group.OrgID {
			total += group.Subtotal
		}
	}
	return total
}

// Discount computes the rupiah discount against the matching subtotal.
// Percent discounts round half up and respect MaxDiscount when set; the
// result never exceeds the subtotal it applies to.
func Discount(coupon *models.Coupon, subtotal int64) int64 {
	var amount int64
	switch coupon.DiscountType {
	case enums.DiscountTypePercent:
		amount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(coupon.Value)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
		if coupon.MaxDiscount > 0 && amount > coupon.MaxDiscount {
			amount = coupon.MaxDiscount
		}
	case enums.DiscountTypeFixed:
		amount = coupon.Value
	}
	if amount > subtotal {
		amount = subtotal
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

// UnlimitedQuota marks a coupon without a use limit. Zero is not a valid
// quota; a coupon that may never be used should not exist.
const UnlimitedQuota = -1

func validateQuota(quota int) error {
	if quota != UnlimitedQuota && quota <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quota must be positive or -1 for unlimited")
	}
	return nil
}

func validateValue(discountType enums.DiscountType, value int64) error {
	if value <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if discountType == enums.DiscountTypePercent && value > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent discount cannot exceed 100")
	}
	return nil
}

func (s *service) loadScoped(ctx context.Context, scopeOrgID *uuid.UUID, couponID uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if scopeOrgID != nil && (coupon.OrgID == nil || *coupon.OrgID != *scopeOrgID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return coupon, nil
}
