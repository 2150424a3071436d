package withdrawals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/pagination"
)

// Repository handles withdrawal persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to withdrawal operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx persists a new request inside the transaction that held the funds.
func (r *Repository) CreateTx(tx *gorm.DB, withdrawal *models.Withdrawal) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if withdrawal == nil {
		return fmt.Errorf("withdrawal is required")
	}
	return tx.Create(withdrawal).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&withdrawal).Error; err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// FindForOrg loads one request scoped to the owning merchant.
func (r *Repository) FindForOrg(ctx context.Context, id, orgID uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		First(&withdrawal).Error
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// DecideTx settles a request. The status guard keeps two admins from deciding
// the same request twice; zero affected rows means it was already decided.
func (r *Repository) DecideTx(tx *gorm.DB, id uuid.UUID, to enums.WithdrawalStatus, updates map[string]any) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	values := map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}
	for column, value := range updates {
		values[column] = value
	}
	res := tx.Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, enums.WithdrawalStatusRequested).
		Updates(values)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListParams filters a withdrawal listing. A nil OrgID is the admin view.
type ListParams struct {
	OrgID  *uuid.UUID
	Status *enums.WithdrawalStatus
	pagination.Params
}

// ListPage is one cursor page of withdrawals.
type ListPage struct {
	Items      []models.Withdrawal
	NextCursor string
}

// List returns withdrawal requests newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListPage, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	if params.OrgID != nil {
		query = query.Where("org_id = ?", *params.OrgID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Withdrawal
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	page := &ListPage{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	page.Items = rows
	return page, nil
}
