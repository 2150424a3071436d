package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/internal/cart"
	"github.com/lokapasar/lokapasar-backend/internal/coupons"
	"github.com/lokapasar/lokapasar-backend/internal/shipping"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/midtrans"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/rajaongkir"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

type stubCartResolver struct {
	lines []cart.Line
	err   error
}

func (s *stubCartResolver) ResolveLines(_ context.Context, _ uuid.UUID, _ []uuid.UUID) ([]cart.Line, error) {
	return s.lines, s.err
}

type stubCartCleaner struct {
	deleted []uuid.UUID
}

func (s *stubCartCleaner) DeleteItemsTx(_ *gorm.DB, _ uuid.UUID, itemIDs []uuid.UUID) error {
	s.deleted = append(s.deleted, itemIDs...)
	return nil
}

type stubStockReserver struct {
	rows  int64
	err   error
	calls int
}

func (s *stubStockReserver) ReserveStockTx(_ *gorm.DB, _ uuid.UUID, _ *uuid.UUID, _ int) (int64, error) {
	s.calls++
	return s.rows, s.err
}

type stubCouponValidator struct {
	quote *coupons.Quote
	err   error
}

func (s *stubCouponValidator) Validate(_ context.Context, _ string, _ []cart.Group, _ time.Time) (*coupons.Quote, error) {
	return s.quote, s.err
}

type stubCouponConsumer struct {
	rows  int64
	calls int
}

func (s *stubCouponConsumer) ConsumeTx(_ *gorm.DB, _ uuid.UUID) (int64, error) {
	s.calls++
	return s.rows, nil
}

type stubShippingQuoter struct {
	rate      *rajaongkir.Rate
	err       error
	lastInput shipping.RatesInput
}

func (s *stubShippingQuoter) RateFor(_ context.Context, input shipping.RatesInput, _ string) (*rajaongkir.Rate, error) {
	s.lastInput = input
	return s.rate, s.err
}

type stubSettingsReader struct {
	settings *models.PlatformSettings
}

func (s *stubSettingsReader) Get(_ context.Context) (*models.PlatformSettings, error) {
	return s.settings, nil
}

type stubOrgReader struct {
	orgs map[uuid.UUID]*models.Organization
}

func (s *stubOrgReader) FindByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	org, ok := s.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return org, nil
}

type stubUserReader struct {
	user *models.User
}

func (s *stubUserReader) FindByID(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return s.user, nil
}

type stubAddressReader struct {
	addr *models.UserAddress
	err  error
}

func (s *stubAddressReader) Find(_ context.Context, _, _ uuid.UUID) (*models.UserAddress, error) {
	return s.addr, s.err
}

type stubSnapGateway struct {
	token   *midtrans.SnapToken
	err     error
	lastReq midtrans.SnapRequest
}

func (s *stubSnapGateway) CreateSnapTransaction(_ context.Context, req midtrans.SnapRequest) (*midtrans.SnapToken, error) {
	s.lastReq = req
	return s.token, s.err
}

type stubCheckoutRepo struct {
	created *models.CheckoutGroup
}

func (s *stubCheckoutRepo) CreateGroupTx(_ *gorm.DB, group *models.CheckoutGroup) error {
	s.created = group
	return nil
}

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type testDeps struct {
	cart     *stubCartResolver
	cleaner  *stubCartCleaner
	stock    *stubStockReserver
	coupons  *stubCouponValidator
	consumer *stubCouponConsumer
	quoter   *stubShippingQuoter
	settings *stubSettingsReader
	orgs     *stubOrgReader
	users    *stubUserReader
	address  *stubAddressReader
	gateway  *stubSnapGateway
	repo     *stubCheckoutRepo
	outbox   *stubOutbox
}

func newTestDeps() *testDeps {
	return &testDeps{
		cart:     &stubCartResolver{},
		cleaner:  &stubCartCleaner{},
		stock:    &stubStockReserver{rows: 1},
		coupons:  &stubCouponValidator{},
		consumer: &stubCouponConsumer{rows: 1},
		quoter: &stubShippingQuoter{rate: &rajaongkir.Rate{
			Courier: "jne", Service: "REG", Etd: "2-3", Cost: 15000,
		}},
		settings: &stubSettingsReader{settings: &models.PlatformSettings{
			ServiceFeePercent: decimal.NewFromInt(2),
		}},
		orgs:    &stubOrgReader{orgs: map[uuid.UUID]*models.Organization{}},
		users:   &stubUserReader{user: &models.User{ID: uuid.New(), FullName: "Sari Dewi", Email: "sari@example.com"}},
		address: &stubAddressReader{},
		gateway: &stubSnapGateway{token: &midtrans.SnapToken{Token: "snap-token-1"}},
		repo:    &stubCheckoutRepo{},
		outbox:  &stubOutbox{},
	}
}

func (d *testDeps) service(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     d.repo,
		Cart:     d.cart,
		CartRepo: d.cleaner,
		Stock:    d.stock,
		Coupons:  d.coupons,
		Consumer: d.consumer,
		Shipping: d.quoter,
		Settings: d.settings,
		Orgs:     d.orgs,
		Users:    d.users,
		Address:  d.address,
		Gateway:  d.gateway,
		Tx:       &stubTxRunner{},
		Outbox:   d.outbox,
	})
	require.NoError(t, err)
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	var appErr *pkgerrors.Error
	require.True(t, errors.As(err, &appErr), "expected *pkgerrors.Error, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code())
}

func activeOrg(id uuid.UUID) *models.Organization {
	return &models.Organization{
		ID:      id,
		Name:    "Toko Rempah",
		Status:  enums.OrganizationStatusActive,
		Address: types.Address{DestinationID: 501},
	}
}

func testLine(userID, orgID uuid.UUID, price int64, qty int) cart.Line {
	productID := uuid.New()
	return cart.Line{
		Item: models.CartItem{
			ID:        uuid.New(),
			UserID:    userID,
			OrgID:     orgID,
			ProductID: productID,
			Qty:       qty,
		},
		Product: models.Product{
			ID:          productID,
			OrgID:       orgID,
			Name:        "Kopi Gayo 250g",
			SKU:         "KG-250",
			Price:       price,
			WeightGrams: 250,
			IsPublished: true,
			Status:      enums.ProductStatusActive,
		},
	}
}

func buyerAddress() *models.UserAddress {
	return &models.UserAddress{
		ID:    uuid.New(),
		Label: "Rumah",
		Address: types.Address{
			Line1:         "Jl. Melati No. 4",
			DestinationID: 1201,
		},
	}
}

func addrID(addr *models.UserAddress) *uuid.UUID {
	id := addr.ID
	return &id
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestCheckoutCourierSuccess(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	deps := newTestDeps()
	deps.orgs.orgs[orgID] = activeOrg(orgID)
	line := testLine(userID, orgID, 50000, 2)
	deps.cart.lines = []cart.Line{line}
	addr := buyerAddress()
	deps.address.addr = addr

	result, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{line.Item.ID},
		AddressID:   addrID(addr),
		Choices: []GroupChoice{{
			OrgID:   orgID,
			Method:  enums.ShippingMethodCourier,
			Courier: enums.CourierJNE,
			Service: "REG",
		}},
	})
	require.NoError(t, err)

	require.Len(t, result.Orders, 1)
	order := result.Orders[0]
	assert.Equal(t, int64(100000), order.Subtotal)
	assert.Equal(t, int64(15000), order.ShippingCost)
	assert.Equal(t, int64(2000), order.ServiceFee)
	assert.Equal(t, int64(117000), order.Total)
	assert.Equal(t, result.GrossAmount, order.Total)
	assert.Equal(t, "snap-token-1", result.SnapToken)
	assert.Contains(t, order.OrderNumber, "LP-")

	assert.Equal(t, int64(1201), deps.quoter.lastInput.DestinationID)
	assert.Equal(t, 500, deps.quoter.lastInput.WeightGrams)

	require.NotNil(t, deps.repo.created)
	assert.Equal(t, enums.PaymentStatusPending, deps.repo.created.PaymentStatus)
	require.Len(t, deps.repo.created.Orders, 1)
	assert.Equal(t, enums.OrderStatusPending, deps.repo.created.Orders[0].Status)
	require.NotNil(t, deps.repo.created.Orders[0].ShippingLine)
	assert.Equal(t, "jne", deps.repo.created.Orders[0].ShippingLine.Courier)

	assert.Equal(t, []uuid.UUID{line.Item.ID}, deps.cleaner.deleted)
	require.Len(t, deps.outbox.events, 1)
	assert.Equal(t, enums.OutboxEventTypeOrderCreated, deps.outbox.events[0].EventType)
}

func TestCheckoutSnapItemsSumToGross(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	deps := newTestDeps()
	deps.orgs.orgs[orgID] = activeOrg(orgID)
	line := testLine(userID, orgID, 100000, 1)
	deps.cart.lines = []cart.Line{line}
	addr := buyerAddress()
	deps.address.addr = addr
	coupon := models.Coupon{ID: uuid.New(), Code: "HEMAT10", DiscountType: enums.DiscountTypePercent, Value: 10}
	deps.coupons.quote = &coupons.Quote{Coupon: coupon, Discount: 10000}

	result, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{line.Item.ID},
		AddressID:   addrID(addr),
		CouponCode:  "HEMAT10",
		Choices: []GroupChoice{{
			OrgID:   orgID,
			Method:  enums.ShippingMethodCourier,
			Courier: enums.CourierJNE,
			Service: "REG",
		}},
	})
	require.NoError(t, err)

	var itemSum int64
	for _, item := range deps.gateway.lastReq.ItemDetails {
		itemSum += item.Price * int64(item.Quantity)
	}
	assert.Equal(t, result.GrossAmount, itemSum)
	assert.Equal(t, result.GrossAmount, deps.gateway.lastReq.TransactionDetails.GrossAmount)
	assert.Equal(t, 1, deps.consumer.calls)
}

func TestCheckoutPickupRequiresMerchantOptIn(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	deps := newTestDeps()
	org := activeOrg(orgID)
	org.PickupEnabled = false
	deps.orgs.orgs[orgID] = org
	line := testLine(userID, orgID, 50000, 1)
	deps.cart.lines = []cart.Line{line}

	_, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{line.Item.ID},
		Choices:     []GroupChoice{{OrgID: orgID, Method: enums.ShippingMethodPickup}},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCheckoutPickupHasNoShippingCost(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	deps := newTestDeps()
	org := activeOrg(orgID)
	org.PickupEnabled = true
	deps.orgs.orgs[orgID] = org
	line := testLine(userID, orgID, 50000, 1)
	deps.cart.lines = []cart.Line{line}

	result, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{line.Item.ID},
		Choices:     []GroupChoice{{OrgID: orgID, Method: enums.ShippingMethodPickup}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Orders[0].ShippingCost)
	assert.Nil(t, deps.repo.created.Orders[0].ShippingLine)
}

func TestCheckoutCourierRequiresAddress(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	deps := newTestDeps()
	deps.orgs.orgs[orgID] = activeOrg(orgID)
	line := testLine(userID, orgID, 50000, 1)
	deps.cart.lines = []cart.Line{line}

	_, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{line.Item.ID},
		Choices: []GroupChoice{{
			OrgID:   orgID,
			Method:  enums.ShippingMethodCourier,
			Courier: enums.CourierJNE,
			Service: "REG",
		}},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCheckoutRequiresChoicePerGroup(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	deps := newTestDeps()
	deps.orgs.orgs[orgID] = activeOrg(orgID)
	line := testLine(userID, orgID, 50000, 1)
	deps.cart.lines = []cart.Line{line}

	_, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{line.Item.ID},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCheckoutRejectsSuspendedMerchant(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	deps := newTestDeps()
	org := activeOrg(orgID)
	org.Status = enums.OrganizationStatusSuspended
	org.PickupEnabled = true
	deps.orgs.orgs[orgID] = org
	line := testLine(userID, orgID, 50000, 1)
	deps.cart.lines = []cart.Line{line}

	_, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{line.Item.ID},
		Choices:     []GroupChoice{{OrgID: orgID, Method: enums.ShippingMethodPickup}},
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCheckoutStockRace(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	deps := newTestDeps()
	org := activeOrg(orgID)
	org.PickupEnabled = true
	deps.orgs.orgs[orgID] = org
	line := testLine(userID, orgID, 50000, 1)
	deps.cart.lines = []cart.Line{line}
	deps.stock.rows = 0

	_, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{line.Item.ID},
		Choices:     []GroupChoice{{OrgID: orgID, Method: enums.ShippingMethodPickup}},
	})
	assertCode(t, err, pkgerrors.CodeConflict)
	assert.Nil(t, deps.repo.created)
}

func TestCheckoutCouponQuotaRace(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()
	deps := newTestDeps()
	org := activeOrg(orgID)
	org.PickupEnabled = true
	deps.orgs.orgs[orgID] = org
	line := testLine(userID, orgID, 50000, 1)
	deps.cart.lines = []cart.Line{line}
	coupon := models.Coupon{ID: uuid.New(), Code: "TERBATAS", DiscountType: enums.DiscountTypeFixed, Value: 5000}
	deps.coupons.quote = &coupons.Quote{Coupon: coupon, Discount: 5000}
	deps.consumer.rows = 0

	_, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{line.Item.ID},
		CouponCode:  "TERBATAS",
		Choices:     []GroupChoice{{OrgID: orgID, Method: enums.ShippingMethodPickup}},
	})
	assertCode(t, err, pkgerrors.CodeQuotaExceeded)
}

func TestCheckoutMergedDiscountOnMatchingGroupOnly(t *testing.T) {
	userID := uuid.New()
	orgA := uuid.New()
	orgB := uuid.New()
	deps := newTestDeps()
	for _, id := range []uuid.UUID{orgA, orgB} {
		org := activeOrg(id)
		org.PickupEnabled = true
		deps.orgs.orgs[id] = org
	}
	lineA := testLine(userID, orgA, 100000, 1)
	lineB := testLine(userID, orgB, 200000, 1)
	deps.cart.lines = []cart.Line{lineA, lineB}
	coupon := models.Coupon{ID: uuid.New(), Code: "TOKOA", OrgID: &orgA, DiscountType: enums.DiscountTypePercent, Value: 10}
	deps.coupons.quote = &coupons.Quote{Coupon: coupon, Discount: 10000}

	result, err := deps.service(t).Checkout(context.Background(), userID, Input{
		CartItemIDs: []uuid.UUID{lineA.Item.ID, lineB.Item.ID},
		CouponCode:  "TOKOA",
		Choices: []GroupChoice{
			{OrgID: orgA, Method: enums.ShippingMethodPickup},
			{OrgID: orgB, Method: enums.ShippingMethodPickup},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)

	byOrg := map[uuid.UUID]OrderSummary{}
	for _, order := range result.Orders {
		byOrg[order.OrgID] = order
	}
	assert.Equal(t, int64(10000), byOrg[orgA].Discount)
	assert.Equal(t, int64(0), byOrg[orgB].Discount)
}

func TestAllocateDiscountProportionalWithRemainder(t *testing.T) {
	orgA := uuid.New()
	orgB := uuid.New()
	groups := []cart.Group{
		{OrgID: orgA, Subtotal: 100000},
		{OrgID: orgB, Subtotal: 50000},
	}
	quote := &coupons.Quote{
		Coupon:   models.Coupon{DiscountType: enums.DiscountTypeFixed, Value: 10001},
		Discount: 10001,
	}

	shares := allocateDiscount(quote, groups)
	assert.Equal(t, int64(6667), shares[orgA])
	assert.Equal(t, int64(3334), shares[orgB])
	assert.Equal(t, quote.Discount, shares[orgA]+shares[orgB])
}

func TestServiceFeeRoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(151), ServiceFee(1005, decimal.NewFromInt(15)))
	assert.Equal(t, int64(0), ServiceFee(0, decimal.NewFromInt(15)))
	assert.Equal(t, int64(0), ServiceFee(100000, decimal.Zero))
}
