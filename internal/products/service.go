package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/payloads"
	"github.com/lokapasar/lokapasar-backend/pkg/slug"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

const defaultWeightGrams = 1000

type productRepository interface {
	CreateTx(tx *gorm.DB, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindForOrg(ctx context.Context, orgID, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	SoftDelete(ctx context.Context, id uuid.UUID, orgID *uuid.UUID) (int64, error)
	Restore(ctx context.Context, id uuid.UUID) (int64, error)
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from []enums.ProductStatus, to enums.ProductStatus, reason *string) (int64, error)
	CreateVariant(ctx context.Context, variant *models.ProductVariant) error
	FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error)
	UpdateVariant(ctx context.Context, variant *models.ProductVariant) error
	DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) (int64, error)
	List(ctx context.Context, params ListParams) (*ListPage, error)
}

type organizationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes catalog operations for merchants, buyers and admins.
type Service interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, orgID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, orgID, productID uuid.UUID) error
	GetOwned(ctx context.Context, orgID, productID uuid.UUID) (*ProductDTO, error)
	GetPublic(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListOwned(ctx context.Context, orgID uuid.UUID, params ListParams) (*ListPage, error)
	ListPublic(ctx context.Context, params ListParams) (*ListPage, error)
	AddVariant(ctx context.Context, orgID, productID uuid.UUID, input VariantInput) (*ProductDTO, error)
	UpdateVariant(ctx context.Context, orgID, productID, variantID uuid.UUID, input VariantUpdateInput) (*ProductDTO, error)
	RemoveVariant(ctx context.Context, orgID, productID, variantID uuid.UUID) error
	Block(ctx context.Context, adminID, productID uuid.UUID, reason string) error
	Unblock(ctx context.Context, adminID, productID uuid.UUID) error
	AdminDelete(ctx context.Context, productID uuid.UUID) error
	AdminRestore(ctx context.Context, productID uuid.UUID) error
}

type service struct {
	repo   productRepository
	orgs   organizationReader
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds the catalog service with the required dependencies.
func NewService(repo productRepository, orgs organizationReader, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if orgs == nil {
		return nil, fmt.Errorf("organization reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, orgs: orgs, tx: tx, outbox: outboxSvc}, nil
}

// CreateInput captures a new listing.
type CreateInput struct {
	SKU         string
	Name        string
	Description *string
	CategoryID  *uuid.UUID
	Price       int64
	Stock       int
	WeightGrams int
	Images      []string
	IsPublished *bool
	Variants    []VariantInput
}

// UpdateInput captures the fields a merchant can change on a listing.
// CategoryID distinguishes "not sent" from an explicit null that detaches
// the product from its category.
type UpdateInput struct {
	SKU         *string
	Name        *string
	Description *string
	CategoryID  types.NullableUUID
	Price       *int64
	Stock       *int
	WeightGrams *int
	Images      *[]string
	IsPublished *bool
}

// VariantInput captures a new purchasable option.
type VariantInput struct {
	Name          string
	SKU           string
	PriceOverride *int64
	Stock         int
}

// VariantUpdateInput captures optional variant mutations. ClearOverride
// drops the price override so the variant falls back to the base price.
type VariantUpdateInput struct {
	Name          *string
	SKU           *string
	PriceOverride *int64
	ClearOverride bool
	Stock         *int
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product sku is required")
	}
	if input.Price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.WeightGrams < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight cannot be negative")
	}
	for _, variant := range input.Variants {
		if err := validateVariantInput(variant); err != nil {
			return nil, err
		}
	}

	weight := input.WeightGrams
	if weight == 0 {
		weight = defaultWeightGrams
	}
	published := true
	if input.IsPublished != nil {
		published = *input.IsPublished
	}

	productID := uuid.New()
	product := &models.Product{
		ID:          productID,
		OrgID:       orgID,
		CategoryID:  input.CategoryID,
		SKU:         strings.TrimSpace(input.SKU),
		Name:        name,
		Slug:        productSlug(name, productID),
		Description: input.Description,
		Status:      enums.ProductStatusActive,
		Price:       input.Price,
		Stock:       input.Stock,
		WeightGrams: weight,
		Images:      pq.StringArray(input.Images),
		IsPublished: published,
	}
	for _, variant := range input.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			ProductID:     productID,
			Name:          strings.TrimSpace(variant.Name),
			SKU:           strings.TrimSpace(variant.SKU),
			PriceOverride: variant.PriceOverride,
			Stock:         variant.Stock,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.CreateTx(tx, product)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, orgID, productID uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	product, err := s.loadOwnedLive(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be blank")
		}
		product.Name = name
		product.Slug = productSlug(name, product.ID)
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product sku cannot be blank")
		}
		product.SKU = sku
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.WeightGrams != nil {
		if *input.WeightGrams <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
		}
		product.WeightGrams = *input.WeightGrams
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.CategoryID.Valid {
		product.CategoryID = input.CategoryID.Value
	}
	if input.Images != nil {
		product.Images = pq.StringArray(*input.Images)
	}
	if input.IsPublished != nil {
		product.IsPublished = *input.IsPublished
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return FromModel(product), nil
}

// Delete soft-deletes a merchant's own listing. The row stays resolvable by
// id so existing order lines keep their reference.
func (s *service) Delete(ctx context.Context, orgID, productID uuid.UUID) error {
	affected, err := s.repo.SoftDelete(ctx, productID, &orgID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) GetOwned(ctx context.Context, orgID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindForOrg(ctx, orgID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(product), nil
}

// GetPublic resolves a storefront listing. Removed, blocked and unpublished
// products are hidden, as is anything from a non-active organization.
func (s *service) GetPublic(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.DeletedAt.Valid || !product.IsPublished || product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	org, err := s.orgs.FindByID(ctx, product.OrgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	if org.Status != enums.OrganizationStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return FromModel(product), nil
}

func (s *service) ListOwned(ctx context.Context, orgID uuid.UUID, params ListParams) (*ListPage, error) {
	params.OrgID = &orgID
	params.OnlyPublished = false
	params.OnlyActiveOrgs = false
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return page, nil
}

// ListPublic returns the storefront catalog: published, active listings from
// active organizations only.
func (s *service) ListPublic(ctx context.Context, params ListParams) (*ListPage, error) {
	status := enums.ProductStatusActive
	params.Status = &status
	params.OnlyPublished = true
	params.OnlyActiveOrgs = true
	params.OrgID = nil
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return page, nil
}

func (s *service) AddVariant(ctx context.Context, orgID, productID uuid.UUID, input VariantInput) (*ProductDTO, error) {
	if err := validateVariantInput(input); err != nil {
		return nil, err
	}
	product, err := s.loadOwnedLive(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}

	variant := &models.ProductVariant{
		ProductID:     product.ID,
		Name:          strings.TrimSpace(input.Name),
		SKU:           strings.TrimSpace(input.SKU),
		PriceOverride: input.PriceOverride,
		Stock:         input.Stock,
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create variant")
	}
	return s.GetOwned(ctx, orgID, productID)
}

func (s *service) UpdateVariant(ctx context.Context, orgID, productID, variantID uuid.UUID, input VariantUpdateInput) (*ProductDTO, error) {
	if _, err := s.loadOwnedLive(ctx, orgID, productID); err != nil {
		return nil, err
	}

	variant, err := s.repo.FindVariant(ctx, productID, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant name cannot be blank")
		}
		variant.Name = name
	}
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant sku cannot be blank")
		}
		variant.SKU = sku
	}
	if input.ClearOverride {
		variant.PriceOverride = nil
	} else if input.PriceOverride != nil {
		if *input.PriceOverride <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant price must be positive")
		}
		variant.PriceOverride = input.PriceOverride
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		variant.Stock = *input.Stock
	}

	if err := s.repo.UpdateVariant(ctx, variant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant")
	}
	return s.GetOwned(ctx, orgID, productID)
}

func (s *service) RemoveVariant(ctx context.Context, orgID, productID, variantID uuid.UUID) error {
	if _, err := s.loadOwnedLive(ctx, orgID, productID); err != nil {
		return err
	}
	affected, err := s.repo.DeleteVariant(ctx, productID, variantID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete variant")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return nil
}

// Block takes a listing down for a policy violation. The reason is stored
// on the row and relayed to the merchant through the moderation event.
func (s *service) Block(ctx context.Context, adminID, productID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a takedown reason is required")
	}
	return s.moderate(ctx, adminID, productID, enums.ProductStatusActive, enums.ProductStatusBlocked, reason)
}

// Unblock restores a blocked listing to the storefront.
func (s *service) Unblock(ctx context.Context, adminID, productID uuid.UUID) error {
	return s.moderate(ctx, adminID, productID, enums.ProductStatusBlocked, enums.ProductStatusActive, "")
}

// AdminDelete removes any listing regardless of owner.
func (s *service) AdminDelete(ctx context.Context, productID uuid.UUID) error {
	affected, err := s.repo.SoftDelete(ctx, productID, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// AdminRestore brings back a soft-deleted listing.
func (s *service) AdminRestore(ctx context.Context, productID uuid.UUID) error {
	affected, err := s.repo.Restore(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// moderate applies one admin moderation decision. The status update is
// guarded on the expected source state; when another decision already landed
// the caller gets a state conflict instead of a silent overwrite.
func (s *service) moderate(ctx context.Context, adminID, productID uuid.UUID, from, to enums.ProductStatus, reason string) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.repo.FindByIDWithTx(tx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		affected, err := s.repo.UpdateStatusTx(tx, productID, []enums.ProductStatus{from}, to, reasonPtr)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("product is no longer %s", from))
		}

		org, err := s.orgs.FindByID(ctx, product.OrgID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
		}

		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventTypeProductModerated,
			AggregateType: enums.OutboxAggregateTypeProduct,
			AggregateID:   productID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: enums.MemberRoleAdmin.String()},
			Version:       1,
			Data: payloads.ProductModeratedEvent{
				ProductID:   productID,
				OrgID:       product.OrgID,
				OwnerUserID: org.OwnerID,
				Status:      to,
				Reason:      reason,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue moderation event")
		}
		return nil
	})
}

// loadOwnedLive resolves a product the caller's organization owns and that
// has not been soft-deleted.
func (s *service) loadOwnedLive(ctx context.Context, orgID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindForOrg(ctx, orgID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.DeletedAt.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func validateVariantInput(input VariantInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant name is required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant sku is required")
	}
	if input.PriceOverride != nil && *input.PriceOverride <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant price must be positive")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

func productSlug(name string, id uuid.UUID) string {
	base := slug.Make(name)
	if base == "" {
		return id.String()[:8]
	}
	return fmt.Sprintf("%s-%s", base, id.String()[:8])
}
