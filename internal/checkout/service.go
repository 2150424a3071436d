package checkout

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
	"github.com/lokapasar/lokapasar-backend/internal/coupons"
	"github.com/lokapasar/lokapasar-backend/internal/shipping"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/midtrans"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/payloads"
	"github.com/lokapasar/lokapasar-backend/pkg/rajaongkir"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

type cartResolver interface {
	ResolveLines(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]cart.Line, error)
}

type cartCleaner interface {
	DeleteItemsTx(tx *gorm.DB, userID uuid.UUID, itemIDs []uuid.UUID) error
}

type stockReserver interface {
	ReserveStockTx(tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, quantity int) (int64, error)
}

type couponValidator interface {
	Validate(ctx context.Context, code string, groups []cart.Group, now time.Time) (*coupons.Quote, error)
}

type couponConsumer interface {
	ConsumeTx(tx *gorm.DB, id uuid.UUID) (int64, error)
}

type shippingQuoter interface {
	RateFor(ctx context.Context, input shipping.RatesInput, serviceName string) (*rajaongkir.Rate, error)
}

type settingsReader interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
}

type organizationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type addressReader interface {
	Find(ctx context.Context, userID, addressID uuid.UUID) (*models.UserAddress, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type snapGateway interface {
	CreateSnapTransaction(ctx context.Context, req midtrans.SnapRequest) (*midtrans.SnapToken, error)
}

type checkoutRepository interface {
	CreateGroupTx(tx *gorm.DB, group *models.CheckoutGroup) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service turns a cart selection into per-merchant pending orders with a
// payment token.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	Repo     checkoutRepository
	Cart     cartResolver
	CartRepo cartCleaner
	Stock    stockReserver
	Coupons  couponValidator
	Consumer couponConsumer
	Shipping shippingQuoter
	Settings settingsReader
	Orgs     organizationReader
	Users    userReader
	Address  addressReader
	Gateway  snapGateway
	Tx       txRunner
	Outbox   outboxPublisher
}

type service struct {
	ServiceParams
}

// NewService builds the checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	missing := ""
	switch {
	case params.Repo == nil:
		missing = "checkout repository"
	case params.Cart == nil:
		missing = "cart resolver"
	case params.CartRepo == nil:
		missing = "cart repository"
	case params.Stock == nil:
		missing = "stock reserver"
	case params.Coupons == nil:
		missing = "coupon validator"
	case params.Consumer == nil:
		missing = "coupon consumer"
	case params.Shipping == nil:
		missing = "shipping quoter"
	case params.Settings == nil:
		missing = "settings reader"
	case params.Orgs == nil:
		missing = "organization reader"
	case params.Users == nil:
		missing = "user reader"
	case params.Address == nil:
		missing = "address reader"
	case params.Gateway == nil:
		missing = "payment gateway"
	case params.Tx == nil:
		missing = "transaction runner"
	case params.Outbox == nil:
		missing = "outbox publisher"
	}
	if missing != "" {
		return nil, fmt.Errorf("%s required", missing)
	}
	return &service{ServiceParams: params}, nil
}

// GroupChoice is the buyer's shipping decision for one merchant group.
type GroupChoice struct {
	OrgID   uuid.UUID
	Method  enums.ShippingMethod
	Courier enums.Courier
	Service string
}

// Input captures one checkout request.
type Input struct {
	CartItemIDs []uuid.UUID
	AddressID   *uuid.UUID
	Choices     []GroupChoice
	CouponCode  string
	Notes       *string
}

// OrderSummary is one created order in the checkout result.
type OrderSummary struct {
	OrderID      uuid.UUID         `json:"order_id"`
	OrderNumber  string            `json:"order_number"`
	OrgID        uuid.UUID         `json:"org_id"`
	Status       enums.OrderStatus `json:"status"`
	Subtotal     int64             `json:"subtotal"`
	ShippingCost int64             `json:"shipping_cost"`
	Discount     int64             `json:"discount"`
	ServiceFee   int64             `json:"service_fee"`
	Total        int64             `json:"total"`
}

// Result is the outcome of a successful checkout.
type Result struct {
	CheckoutGroupID uuid.UUID      `json:"checkout_group_id"`
	GatewayOrderID  string         `json:"gateway_order_id"`
	SnapToken       string         `json:"snap_token"`
	RedirectURL     string         `json:"redirect_url,omitempty"`
	GrossAmount     int64          `json:"gross_amount"`
	Orders          []OrderSummary `json:"orders"`
}

func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	lines, err := s.Cart.ResolveLines(ctx, userID, input.CartItemIDs)
	if err != nil {
		return nil, err
	}
	groups := cart.GroupByOrg(lines)

	choices, err := indexChoices(input.Choices, groups)
	if err != nil {
		return nil, err
	}

	address, err := s.resolveAddress(ctx, userID, input.AddressID, choices)
	if err != nil {
		return nil, err
	}

	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}

	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var quote *coupons.Quote
	if strings.TrimSpace(input.CouponCode) != "" {
		quote, err = s.Coupons.Validate(ctx, input.CouponCode, groups, time.Now())
		if err != nil {
			return nil, err
		}
	}
	discounts := allocateDiscount(quote, groups)

	group := &models.CheckoutGroup{
		ID:             uuid.New(),
		UserID:         userID,
		GatewayOrderID: fmt.Sprintf("LP-%s", uuid.NewString()),
		PaymentStatus:  enums.PaymentStatusPending,
	}

	var summaries []OrderSummary
	var snapItems []midtrans.ItemDetail
	for _, cartGroup := range groups {
		choice := choices[cartGroup.OrgID]

		org, err := s.Orgs.FindByID(ctx, cartGroup.OrgID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
		}
		if org.Status != enums.OrganizationStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("merchant %s is not accepting orders", org.Name))
		}

		order, err := s.buildOrder(ctx, group, cartGroup, choice, org, address, discounts[cartGroup.OrgID], settings, quote)
		if err != nil {
			return nil, err
		}
		if input.Notes != nil {
			order.Notes = input.Notes
		}

		group.Orders = append(group.Orders, *order)
		group.GrossAmount += order.Total
		summaries = append(summaries, OrderSummary{
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			OrgID:        order.OrgID,
			Status:       order.Status,
			Subtotal:     order.Subtotal,
			ShippingCost: order.ShippingCost,
			Discount:     order.Discount,
			ServiceFee:   order.ServiceFee,
			Total:        order.Total,
		})
		snapItems = append(snapItems, snapItemsForOrder(order)...)
	}

	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, line := range lines {
			affected, err := s.Stock.ReserveStockTx(tx, line.Product.ID, line.Item.VariantID, line.Item.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("insufficient stock for %s", line.Product.Name))
			}
		}

		if quote != nil {
			affected, err := s.Consumer.ConsumeTx(tx, quote.Coupon.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume coupon")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeQuotaExceeded, "coupon quota exhausted")
			}
		}

		snap, err := s.Gateway.CreateSnapTransaction(ctx, midtrans.SnapRequest{
			TransactionDetails: midtrans.TransactionDetails{
				OrderID:     group.GatewayOrderID,
				GrossAmount: group.GrossAmount,
			},
			CustomerDetails: &midtrans.CustomerDetails{
				FirstName: user.FullName,
				Email:     user.Email,
			},
			ItemDetails: snapItems,
		})
		if err != nil {
			return err
		}
		group.SnapToken = &snap.Token

		if err := s.Repo.CreateGroupTx(tx, group); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout group")
		}

		itemIDs := make([]uuid.UUID, len(lines))
		for i, line := range lines {
			itemIDs[i] = line.Item.ID
		}
		if err := s.CartRepo.DeleteItemsTx(tx, userID, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear purchased cart items")
		}

		orderIDs := make([]uuid.UUID, len(group.Orders))
		for i := range group.Orders {
			orderIDs[i] = group.Orders[i].ID
		}
		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeOrderCreated,
			AggregateType: enums.OutboxAggregateTypeOrder,
			AggregateID:   group.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.MemberRoleBuyer.String()},
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				CheckoutGroupID: group.ID,
				OrderIDs:        orderIDs,
				UserID:          userID,
				GrossAmount:     group.GrossAmount,
			},
		}
		if err := s.Outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		CheckoutGroupID: group.ID,
		GatewayOrderID:  group.GatewayOrderID,
		GrossAmount:     group.GrossAmount,
		Orders:          summaries,
	}
	if group.SnapToken != nil {
		result.SnapToken = *group.SnapToken
	}
	return result, nil
}

func (s *service) buildOrder(
	ctx context.Context,
	group *models.CheckoutGroup,
	cartGroup cart.Group,
	choice GroupChoice,
	org *models.Organization,
	address *models.UserAddress,
	discount int64,
	settings *models.PlatformSettings,
	quote *coupons.Quote,
) (*models.Order, error) {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(),
		CheckoutGroupID: group.ID,
		UserID:          group.UserID,
		OrgID:           cartGroup.OrgID,
		Status:          enums.OrderStatusPending,
		ShippingMethod:  choice.Method,
		Subtotal:        cartGroup.Subtotal,
		Discount:        discount,
	}

	switch choice.Method {
	case enums.ShippingMethodPickup:
		if !org.PickupEnabled {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("merchant %s does not offer pickup", org.Name))
		}
	case enums.ShippingMethodCourier:
		rate, err := s.Shipping.RateFor(ctx, shipping.RatesInput{
			OrgID:         cartGroup.OrgID,
			DestinationID: address.Address.DestinationID,
			WeightGrams:   cartGroup.WeightGrams,
			Courier:       choice.Courier,
		}, choice.Service)
		if err != nil {
			return nil, err
		}
		shippingAddress := address.Address
		order.ShippingAddress = &shippingAddress
		order.ShippingLine = &types.ShippingLine{
			Courier: rate.Courier,
			Service: rate.Service,
			Etd:     rate.Etd,
			Cost:    rate.Cost,
		}
		order.ShippingCost = rate.Cost
	}

	order.ServiceFee = ServiceFee(order.Subtotal-order.Discount, settings.ServiceFeePercent)
	order.Total = order.Subtotal - order.Discount + order.ShippingCost + order.ServiceFee

	if quote != nil && discount > 0 {
		couponID := quote.Coupon.ID
		couponCode := quote.Coupon.Code
		order.CouponID = &couponID
		order.CouponCode = &couponCode
	}

	for _, line := range cartGroup.Lines {
		item := models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.Product.ID,
			Name:        line.Product.Name,
			SKU:         line.Product.SKU,
			UnitPrice:   line.UnitPrice(),
			Qty:         line.Item.Qty,
			WeightGrams: line.WeightGrams(),
			Subtotal:    line.Subtotal(),
		}
		if line.Variant != nil {
			variantID := line.Variant.ID
			variantName := line.Variant.Name
			item.VariantID = &variantID
			item.VariantName = &variantName
			item.SKU = line.Variant.SKU
		}
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func (s *service) resolveAddress(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID, choices map[uuid.UUID]GroupChoice) (*models.UserAddress, error) {
	needsCourier := false
	for _, choice := range choices {
		if choice.Method == enums.ShippingMethodCourier {
			needsCourier = true
			break
		}
	}
	if !needsCourier {
		return &models.UserAddress{}, nil
	}
	if addressID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a shipping address is required for courier delivery")
	}

	address, err := s.Address.Find(ctx, userID, *addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.Address.DestinationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address has no shipping destination")
	}
	return address, nil
}

func indexChoices(choices []GroupChoice, groups []cart.Group) (map[uuid.UUID]GroupChoice, error) {
	byOrg := make(map[uuid.UUID]GroupChoice, len(choices))
	for _, choice := range choices {
		if !choice.Method.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method")
		}
		byOrg[choice.OrgID] = choice
	}
	for _, group := range groups {
		if _, ok := byOrg[group.OrgID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "every merchant group needs a shipping choice")
		}
	}
	return byOrg, nil
}

// allocateDiscount splits the validated discount over the matching groups in
// proportion to their subtotals, giving the remainder to the last matching
// group so the parts always sum to the quoted discount.
func allocateDiscount(quote *coupons.Quote, groups []cart.Group) map[uuid.UUID]int64 {
	result := make(map[uuid.UUID]int64, len(groups))
	if quote == nil || quote.Discount == 0 {
		return result
	}

	matching := coupons.MatchingSubtotal(&quote.Coupon, groups)
	if matching == 0 {
		return result
	}

	var allocated int64
	lastMatch := -1
	for i, group := range groups {
		if quote.Coupon.OrgID != nil && *quote.Coupon.OrgID != group.OrgID {
			continue
		}
		share := quote.Discount * group.Subtotal / matching
		result[group.OrgID] = share
		allocated += share
		lastMatch = i
	}
	if lastMatch >= 0 {
		result[groups[lastMatch].OrgID] += quote.Discount - allocated
	}
	return result
}

// ServiceFee computes the platform fee on the discounted subtotal, rounding
// half up to whole rupiah.
func ServiceFee(amount int64, percent decimal.Decimal) int64 {
	if amount <= 0 || percent.IsZero() {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(percent).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

func snapItemsForOrder(order *models.Order) []midtrans.ItemDetail {
	items := make([]midtrans.ItemDetail, 0, len(order.Items)+3)
	for _, item := range order.Items {
		name := item.Name
		if item.VariantName != nil {
			name = fmt.Sprintf("%s (%s)", name, *item.VariantName)
		}
		items = append(items, midtrans.ItemDetail{
			ID:       item.ProductID.String(),
			Name:     name,
			Price:    item.UnitPrice,
			Quantity: item.Qty,
		})
	}
	if order.ShippingCost > 0 {
		items = append(items, midtrans.ItemDetail{
			ID:       fmt.Sprintf("shipping-%s", order.OrderNumber),
			Name:     "Ongkos kirim",
			Price:    order.ShippingCost,
			Quantity: 1,
		})
	}
	if order.ServiceFee > 0 {
		items = append(items, midtrans.ItemDetail{
			ID:       fmt.Sprintf("fee-%s", order.OrderNumber),
			Name:     "Biaya layanan",
			Price:    order.ServiceFee,
			Quantity: 1,
		})
	}
	if order.Discount > 0 {
		items = append(items, midtrans.ItemDetail{
			ID:       fmt.Sprintf("discount-%s", order.OrderNumber),
			Name:     "Diskon kupon",
			Price:    -order.Discount,
			Quantity: 1,
		})
	}
	return items
}

func newOrderNumber() string {
	return fmt.Sprintf("LP-%s-%s",
		time.Now().Format("20060102"),
		strings.ToUpper(uuid.NewString()[:8]))
}
