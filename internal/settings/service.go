package settings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
)

const settingsRowID int16 = 1

type settingsRepository interface {
	Load(ctx context.Context) (*models.PlatformSettings, error)
	Save(ctx context.Context, settings *models.PlatformSettings) error
}

// Service reads and updates the single platform configuration row. Reads hit
// the database every time; pricing decisions must always see the latest fee.
type Service interface {
	Get(ctx context.Context) (*models.PlatformSettings, error)
	Update(ctx context.Context, adminID uuid.UUID, input UpdateInput) (*models.PlatformSettings, error)
	MaintenanceActive(ctx context.Context) (bool, error)
}

type service struct {
	repo settingsRepository
}

// NewService builds the settings service.
func NewService(repo settingsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

// UpdateInput captures the platform knobs an admin can change.
type UpdateInput struct {
	ServiceFeePercent *decimal.Decimal
	MinWithdrawal     *int64
	MaintenanceMode   *bool
}

func (s *service) Get(ctx context.Context) (*models.PlatformSettings, error) {
	settings, err := s.repo.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform settings")
	}
	return settings, nil
}

// MaintenanceActive reports the maintenance flag for request gating.
func (s *service) MaintenanceActive(ctx context.Context) (bool, error) {
	settings, err := s.repo.Load(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform settings")
	}
	return settings.MaintenanceMode, nil
}

func (s *service) Update(ctx context.Context, adminID uuid.UUID, input UpdateInput) (*models.PlatformSettings, error) {
	if input.ServiceFeePercent != nil {
		fee := *input.ServiceFeePercent
		if fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(100)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "service fee percent must be between 0 and 100")
		}
	}
	if input.MinWithdrawal != nil && *input.MinWithdrawal < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum withdrawal cannot be negative")
	}

	settings, err := s.repo.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load platform settings")
	}

	if input.ServiceFeePercent != nil {
		settings.ServiceFeePercent = *input.ServiceFeePercent
	}
	if input.MinWithdrawal != nil {
		settings.MinWithdrawal = *input.MinWithdrawal
	}
	if input.MaintenanceMode != nil {
		settings.MaintenanceMode = *input.MaintenanceMode
	}
	actor := adminID.String()
	settings.UpdatedBy = &actor

	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save platform settings")
	}
	return settings, nil
}

// Repository handles the platform settings row.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to settings operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Load reads the pinned settings row.
func (r *Repository) Load(ctx context.Context) (*models.PlatformSettings, error) {
	var settings models.PlatformSettings
	if err := r.db.WithContext(ctx).Where("id = ?", settingsRowID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save persists the settings row.
func (r *Repository) Save(ctx context.Context, settings *models.PlatformSettings) error {
	if settings == nil {
		return fmt.Errorf("settings are required")
	}
	settings.ID = settingsRowID
	return r.db.WithContext(ctx).Save(settings).Error
}
