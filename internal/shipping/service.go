package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/rajaongkir"
)

type rateProvider interface {
	Cost(ctx context.Context, req rajaongkir.CostRequest) ([]rajaongkir.Rate, error)
	SearchDestination(ctx context.Context, query string, limit int) ([]rajaongkir.Destination, error)
}

type organizationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// Service exposes courier rate lookups for one merchant group. The origin is
// always the merchant's registered address; rates are fetched live on every
// call, never cached.
type Service interface {
	Rates(ctx context.Context, input RatesInput) ([]rajaongkir.Rate, error)
	RateFor(ctx context.Context, input RatesInput, serviceName string) (*rajaongkir.Rate, error)
	SearchDestination(ctx context.Context, query string, limit int) ([]rajaongkir.Destination, error)
}

type service struct {
	rates rateProvider
	orgs  organizationReader
}

// NewService builds the shipping service with the required dependencies.
func NewService(rates rateProvider, orgs organizationReader) (Service, error) {
	if rates == nil {
		return nil, fmt.Errorf("rate provider required")
	}
	if orgs == nil {
		return nil, fmt.Errorf("organization reader required")
	}
	return &service{rates: rates, orgs: orgs}, nil
}

// RatesInput describes one rate lookup for a merchant group.
type RatesInput struct {
	OrgID         uuid.UUID
	DestinationID int64
	WeightGrams   int
	Courier       enums.Courier
}

func (s *service) Rates(ctx context.Context, input RatesInput) ([]rajaongkir.Rate, error) {
	if input.DestinationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination is required")
	}
	if input.WeightGrams <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if !input.Courier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown courier")
	}

	org, err := s.orgs.FindByID(ctx, input.OrgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}
	if org.Address.DestinationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant has no shipping origin configured")
	}

	return s.rates.Cost(ctx, rajaongkir.CostRequest{
		Origin:      org.Address.DestinationID,
		Destination: input.DestinationID,
		WeightGrams: input.WeightGrams,
		Courier:     input.Courier.String(),
	})
}

// RateFor resolves one named courier service from the live rate list, for
// checkout to price the option the buyer picked.
func (s *service) RateFor(ctx context.Context, input RatesInput, serviceName string) (*rajaongkir.Rate, error) {
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier service is required")
	}

	rates, err := s.Rates(ctx, input)
	if err != nil {
		return nil, err
	}
	for i := range rates {
		if strings.EqualFold(rates[i].Service, serviceName) {
			return &rates[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("courier service %q is not available for this lane", serviceName))
}

func (s *service) SearchDestination(ctx context.Context, query string, limit int) ([]rajaongkir.Destination, error) {
	return s.rates.SearchDestination(ctx, query, limit)
}
