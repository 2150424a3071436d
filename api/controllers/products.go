package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/api/responses"
	"github.com/lokapasar/lokapasar-backend/api/validators"
	productsvc "github.com/lokapasar/lokapasar-backend/internal/products"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
	"github.com/lokapasar/lokapasar-backend/pkg/types"
)

type variantRequest struct {
	Name          string `json:"name" validate:"required"`
	SKU           string `json:"sku" validate:"required"`
	PriceOverride *int64 `json:"price_override,omitempty" validate:"omitempty,gt=0"`
	Stock         int    `json:"stock" validate:"gte=0"`
}

type createProductRequest struct {
	SKU         string           `json:"sku" validate:"required"`
	Name        string           `json:"name" validate:"required,min=3,max=200"`
	Description *string          `json:"description,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Price       int64            `json:"price" validate:"required,gt=0"`
	Stock       int              `json:"stock" validate:"gte=0"`
	WeightGrams int              `json:"weight_grams" validate:"required,gt=0"`
	Images      []string         `json:"images,omitempty"`
	IsPublished *bool            `json:"is_published,omitempty"`
	Variants    []variantRequest `json:"variants,omitempty" validate:"omitempty,dive"`
}

func (b createProductRequest) toInput() productsvc.CreateInput {
	variants := make([]productsvc.VariantInput, 0, len(b.Variants))
	for _, v := range b.Variants {
		variants = append(variants, productsvc.VariantInput{
			Name:          v.Name,
			SKU:           v.SKU,
			PriceOverride: v.PriceOverride,
			Stock:         v.Stock,
		})
	}
	return productsvc.CreateInput{
		SKU:         b.SKU,
		Name:        b.Name,
		Description: b.Description,
		CategoryID:  b.CategoryID,
		Price:       b.Price,
		Stock:       b.Stock,
		WeightGrams: b.WeightGrams,
		Images:      b.Images,
		IsPublished: b.IsPublished,
		Variants:    variants,
	}
}

// MerchantCreateProduct handles listing creation for the caller's shop.
func MerchantCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), orgID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	SKU         *string `json:"sku,omitempty" validate:"omitempty,min=1"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description,omitempty"`
	// An explicit null clears the category; absence leaves it unchanged.
	CategoryID  types.NullableUUID `json:"category_id"`
	Price       *int64             `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock       *int               `json:"stock,omitempty" validate:"omitempty,gte=0"`
	WeightGrams *int               `json:"weight_grams,omitempty" validate:"omitempty,gt=0"`
	Images      *[]string          `json:"images,omitempty"`
	IsPublished *bool              `json:"is_published,omitempty"`
}

// MerchantUpdateProduct applies partial listing changes.
func MerchantUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), orgID, productID, productsvc.UpdateInput{
			SKU:         body.SKU,
			Name:        body.Name,
			Description: body.Description,
			CategoryID:  body.CategoryID,
			Price:       body.Price,
			Stock:       body.Stock,
			WeightGrams: body.WeightGrams,
			Images:      body.Images,
			IsPublished: body.IsPublished,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// MerchantDeleteProduct soft deletes a listing.
func MerchantDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), orgID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// MerchantProductDetail returns one of the caller's listings, blocked or not.
func MerchantProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetOwned(r.Context(), orgID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// MerchantListProducts pages over the caller's catalog.
func MerchantListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := productListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListOwned(r.Context(), orgID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MerchantAddVariant appends a purchasable option to a listing.
func MerchantAddVariant(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body variantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AddVariant(r.Context(), orgID, productID, productsvc.VariantInput{
			Name:          body.Name,
			SKU:           body.SKU,
			PriceOverride: body.PriceOverride,
			Stock:         body.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateVariantRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1"`
	SKU           *string `json:"sku,omitempty" validate:"omitempty,min=1"`
	PriceOverride *int64  `json:"price_override,omitempty" validate:"omitempty,gt=0"`
	ClearOverride bool    `json:"clear_override,omitempty"`
	Stock         *int    `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// MerchantUpdateVariant mutates one variant of a listing.
func MerchantUpdateVariant(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateVariantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateVariant(r.Context(), orgID, productID, variantID, productsvc.VariantUpdateInput{
			Name:          body.Name,
			SKU:           body.SKU,
			PriceOverride: body.PriceOverride,
			ClearOverride: body.ClearOverride,
			Stock:         body.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// MerchantRemoveVariant removes one variant of a listing.
func MerchantRemoveVariant(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := orgIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveVariant(r.Context(), orgID, productID, variantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func productListParams(r *http.Request) (productsvc.ListParams, error) {
	page, err := paginationFromQuery(r)
	if err != nil {
		return productsvc.ListParams{}, err
	}

	params := productsvc.ListParams{
		Params: page,
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return productsvc.ListParams{}, pkgerrors.New(pkgerrors.CodeValidation, "category_id must be a uuid")
		}
		params.CategoryID = &id
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseProductStatus(raw)
		if err != nil {
			return productsvc.ListParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		params.Status = &status
	}
	if min, err := validators.ParseQueryInt(r, "price_min", 0, 0, 1<<31); err != nil {
		return productsvc.ListParams{}, err
	} else if min > 0 {
		v := int64(min)
		params.PriceMin = &v
	}
	if max, err := validators.ParseQueryInt(r, "price_max", 0, 0, 1<<31); err != nil {
		return productsvc.ListParams{}, err
	} else if max > 0 {
		v := int64(max)
		params.PriceMax = &v
	}

	return params, nil
}
