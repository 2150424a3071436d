package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/internal/cart"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
)

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestCreateUppercasesCode(t *testing.T) {
	repo := &stubCouponRepo{}
	svc := newTestService(t, repo)

	coupon, err := svc.Create(context.Background(), nil, validCreateInput("hemat10"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if coupon.Code != "HEMAT10" {
		t.Fatalf("expected uppercased code, got %q", coupon.Code)
	}
	if coupon.OrgID != nil {
		t.Fatal("expected platform-wide coupon")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, &stubCouponRepo{})
	ctx := context.Background()

	missingCode := validCreateInput("")
	if _, err := svc.Create(ctx, nil, missingCode); err == nil {
		t.Fatal("expected error for missing code")
	}

	overPercent := validCreateInput("HEMAT")
	overPercent.Value = 150
	_, err := svc.Create(ctx, nil, overPercent)
	assertCode(t, err, pkgerrors.CodeValidation)

	badWindow := validCreateInput("HEMAT")
	badWindow.ValidUntil = badWindow.ValidFrom.Add(-time.Hour)
	_, err = svc.Create(ctx, nil, badWindow)
	assertCode(t, err, pkgerrors.CodeValidation)

	zeroQuota := validCreateInput("HEMAT")
	zeroQuota.Quota = 0
	_, err = svc.Create(ctx, nil, zeroQuota)
	assertCode(t, err, pkgerrors.CodeValidation)

	negativeQuota := validCreateInput("HEMAT")
	negativeQuota.Quota = -2
	_, err = svc.Create(ctx, nil, negativeQuota)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdateFencedToOwnOrg(t *testing.T) {
	platform := baseCoupon(nil)
	repo := &stubCouponRepo{coupon: platform}
	svc := newTestService(t, repo)

	merchantOrg := uuid.New()
	_, err := svc.Update(context.Background(), &merchantOrg, platform.ID, UpdateInput{})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteSuccess(t *testing.T) {
	orgID := uuid.New()
	coupon := baseCoupon(&orgID)
	svc := newTestService(t, &stubCouponRepo{coupon: coupon})

	if err := svc.Delete(context.Background(), &orgID, coupon.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestValidateUnknownCode(t *testing.T) {
	svc := newTestService(t, &stubCouponRepo{})

	_, err := svc.Validate(context.Background(), "NOPE", oneGroup(uuid.New(), 100000), time.Now())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestValidateInactive(t *testing.T) {
	coupon := baseCoupon(nil)
	coupon.IsActive = false
	svc := newTestService(t, &stubCouponRepo{coupon: coupon})

	_, err := svc.Validate(context.Background(), coupon.Code, oneGroup(uuid.New(), 100000), time.Now())
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestValidateExpired(t *testing.T) {
	coupon := baseCoupon(nil)
	svc := newTestService(t, &stubCouponRepo{coupon: coupon})

	after := coupon.ValidUntil.Add(time.Hour)
	_, err := svc.Validate(context.Background(), coupon.Code, oneGroup(uuid.New(), 100000), after)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestValidateQuotaExhausted(t *testing.T) {
	coupon := baseCoupon(nil)
	coupon.Quota = 5
	coupon.TimesUsed = 5
	svc := newTestService(t, &stubCouponRepo{coupon: coupon})

	_, err := svc.Validate(context.Background(), coupon.Code, oneGroup(uuid.New(), 100000), time.Now())
	assertCode(t, err, pkgerrors.CodeQuotaExceeded)
}

func TestValidateUnlimitedQuotaIgnoresUsage(t *testing.T) {
	coupon := baseCoupon(nil)
	coupon.Quota = UnlimitedQuota
	coupon.TimesUsed = 100000
	svc := newTestService(t, &stubCouponRepo{coupon: coupon})

	if _, err := svc.Validate(context.Background(), coupon.Code, oneGroup(uuid.New(), 100000), time.Now()); err != nil {
		t.Fatalf("unlimited coupon should validate regardless of usage: %v", err)
	}
}

func TestUpdateRejectsZeroQuota(t *testing.T) {
	orgID := uuid.New()
	coupon := baseCoupon(&orgID)
	svc := newTestService(t, &stubCouponRepo{coupon: coupon})

	zero := 0
	_, err := svc.Update(context.Background(), &orgID, coupon.ID, UpdateInput{Quota: &zero})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestValidateScopeMismatch(t *testing.T) {
	couponOrg := uuid.New()
	coupon := baseCoupon(&couponOrg)
	svc := newTestService(t, &stubCouponRepo{coupon: coupon})

	_, err := svc.Validate(context.Background(), coupon.Code, oneGroup(uuid.New(), 100000), time.Now())
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestValidateMinPurchase(t *testing.T) {
	coupon := baseCoupon(nil)
	coupon.MinPurchase = 250000
	svc := newTestService(t, &stubCouponRepo{coupon: coupon})

	_, err := svc.Validate(context.Background(), coupon.Code, oneGroup(uuid.New(), 100000), time.Now())
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestValidateMixedCartDiscountsPartially(t *testing.T) {
	couponOrg := uuid.New()
	otherOrg := uuid.New()
	coupon := baseCoupon(&couponOrg) // 10 percent
	svc := newTestService(t, &stubCouponRepo{coupon: coupon})

	groups := []cart.Group{
		{OrgID: couponOrg, Subtotal: 100000},
		{OrgID: otherOrg, Subtotal: 500000},
	}
	quote, err := svc.Validate(context.Background(), coupon.Code, groups, time.Now())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if quote.Discount != 10000 {
		t.Fatalf("expected discount on matching group only, got %d", quote.Discount)
	}
}

func TestDiscountRoundsHalfUp(t *testing.T) {
	coupon := baseCoupon(nil)
	coupon.Value = 15 // 15% of 1005 = 150.75 → 151

	if got := Discount(coupon, 1005); got != 151 {
		t.Fatalf("expected 151, got %d", got)
	}
}

func TestDiscountRespectsMaxAndSubtotal(t *testing.T) {
	coupon := baseCoupon(nil)
	coupon.MaxDiscount = 5000
	if got := Discount(coupon, 1000000); got != 5000 {
		t.Fatalf("expected capped discount, got %d", got)
	}

	fixed := baseCoupon(nil)
	fixed.DiscountType = enums.DiscountTypeFixed
	fixed.Value = 75000
	if got := Discount(fixed, 50000); got != 50000 {
		t.Fatalf("expected discount bounded by subtotal, got %d", got)
	}
}

func newTestService(t *testing.T, repo *stubCouponRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func validCreateInput(code string) CreateInput {
	now := time.Now()
	return CreateInput{
		Code:         code,
		DiscountType: enums.DiscountTypePercent,
		Value:        10,
		Quota:        UnlimitedQuota,
		ValidFrom:    now,
		ValidUntil:   now.Add(30 * 24 * time.Hour),
	}
}

func baseCoupon(orgID *uuid.UUID) *models.Coupon {
	now := time.Now()
	return &models.Coupon{
		ID:           uuid.New(),
		OrgID:        orgID,
		Code:         "HEMAT10",
		DiscountType: enums.DiscountTypePercent,
		Value:        10,
		Quota:        UnlimitedQuota,
		ValidFrom:    now.Add(-time.Hour),
		ValidUntil:   now.Add(24 * time.Hour),
		IsActive:     true,
	}
}

func oneGroup(orgID uuid.UUID, subtotal int64) []cart.Group {
	return []cart.Group{{OrgID: orgID, Subtotal: subtotal}}
}

type stubCouponRepo struct {
	coupon  *models.Coupon
	created *models.Coupon
}

func (s *stubCouponRepo) Create(ctx context.Context, coupon *models.Coupon) error {
	s.created = coupon
	return nil
}

func (s *stubCouponRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	if s.coupon == nil || s.coupon.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.coupon, nil
}

func (s *stubCouponRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	if s.coupon == nil || s.coupon.Code != code {
		return nil, gorm.ErrRecordNotFound
	}
	return s.coupon, nil
}

func (s *stubCouponRepo) Update(ctx context.Context, coupon *models.Coupon) error {
	s.coupon = coupon
	return nil
}

func (s *stubCouponRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if s.coupon == nil || s.coupon.ID != id {
		return 0, nil
	}
	s.coupon = nil
	return 1, nil
}

func (s *stubCouponRepo) List(ctx context.Context, params ListParams) (*ListPage, error) {
	return &ListPage{}, nil
}
