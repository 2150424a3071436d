package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/lokapasar/lokapasar-backend/pkg/db"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
)

type cartRepository interface {
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
	IncrementBounded(ctx context.Context, userID, productID uuid.UUID, variantID *uuid.UUID, delta int) (int64, error)
	InsertBounded(ctx context.Context, item *models.CartItem) (int64, error)
	SetQtyBounded(ctx context.Context, userID, itemID uuid.UUID, qty int) (int64, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) (int64, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type catalogReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the buyer cart. Merchant suspension is not checked here;
// checkout re-validates every line against the storefront rules.
type Service interface {
	Add(ctx context.Context, userID uuid.UUID, input AddInput) (*CartDTO, error)
	UpdateQty(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartDTO, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	ResolveLines(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]Line, error)
}

type service struct {
	repo    cartRepository
	catalog catalogReader
}

// NewService builds the cart service with the required dependencies.
func NewService(repo cartRepository, catalog catalogReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &service{repo: repo, catalog: catalog}, nil
}

// AddInput captures one add-to-cart request.
type AddInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddInput) (*CartDTO, error) {
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}

	product, err := s.loadPurchasable(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.VariantID != nil && findVariant(product, *input.VariantID) == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}

	affected, err := s.repo.IncrementBounded(ctx, userID, product.ID, input.VariantID, input.Qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	if affected == 0 {
		item := &models.CartItem{
			UserID:    userID,
			OrgID:     product.OrgID,
			ProductID: product.ID,
			VariantID: input.VariantID,
			Qty:       input.Qty,
		}
		affected, err = s.repo.InsertBounded(ctx, item)
		if err != nil {
			// the line raced into existence between the two statements
			if dbpkg.IsUniqueViolation(err, "") {
				return nil, insufficientStock()
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
		}
		if affected == 0 {
			return nil, insufficientStock()
		}
	}
	return s.Get(ctx, userID)
}

func (s *service) UpdateQty(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartDTO, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}

	affected, err := s.repo.SetQtyBounded(ctx, userID, itemID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if affected == 0 {
		if _, err := s.repo.FindItem(ctx, userID, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		return nil, insufficientStock()
	}
	return s.Get(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}

	var lines []Line
	var unavailable []uuid.UUID
	for _, item := range items {
		line, ok, err := s.resolveLine(ctx, item)
		if err != nil {
			return nil, err
		}
		if !ok {
			unavailable = append(unavailable, item.ID)
			continue
		}
		lines = append(lines, line)
	}
	return cartFromGroups(GroupByOrg(lines), unavailable), nil
}

// ResolveLines loads the selected cart rows with their catalog data for
// checkout. Any line that is missing or no longer purchasable fails the whole
// selection; a partial checkout would silently drop what the buyer picked.
func (s *service) ResolveLines(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]Line, error) {
	if len(itemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no cart items selected")
	}

	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	byID := make(map[uuid.UUID]models.CartItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	lines := make([]Line, 0, len(itemIDs))
	seen := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		item, ok := byID[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		line, available, err := s.resolveLine(ctx, item)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart item is no longer available")
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *service) resolveLine(ctx context.Context, item models.CartItem) (Line, bool, error) {
	product, err := s.catalog.FindByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Line{}, false, nil
		}
		return Line{}, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !purchasable(product) {
		return Line{}, false, nil
	}

	line := Line{Item: item, Product: *product}
	if item.VariantID != nil {
		variant := findVariant(product, *item.VariantID)
		if variant == nil {
			return Line{}, false, nil
		}
		line.Variant = variant
	}
	return line, true, nil
}

func (s *service) loadPurchasable(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !purchasable(product) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func purchasable(product *models.Product) bool {
	return !product.DeletedAt.Valid &&
		product.IsPublished &&
		product.Status == enums.ProductStatusActive
}

func findVariant(product *models.Product, variantID uuid.UUID) *models.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i]
		}
	}
	return nil
}

func insufficientStock() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "requested quantity exceeds available stock")
}
