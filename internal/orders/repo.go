package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/pagination"
)

// Repository handles order persistence. Status transitions go through the
// guarded updates so concurrent actors can never skip a lifecycle step.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUser loads one order scoped to the buying user.
func (r *Repository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForOrg loads one order scoped to the selling merchant.
func (r *Repository) FindForOrg(ctx context.Context, id, orgID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND org_id = ?", id, orgID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByCheckoutGroupTx loads all orders of one checkout inside the caller's
// transaction, items included.
func (r *Repository) FindByCheckoutGroupTx(tx *gorm.DB, groupID uuid.UUID) ([]models.Order, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var rows []models.Order
	err := tx.
		Preload("Items").
		Where("checkout_group_id = ?", groupID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatusTx moves one order between lifecycle states. The from guard
// makes the transition race-safe; zero affected rows means another actor got
// there first and the caller must re-read before reporting a conflict.
func (r *Repository) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus, updates map[string]any) (int64, error) {
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
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UpdateStatusByGroupTx applies one guarded transition to every order of a
// checkout group. Used by the payment webhook, where all sibling orders move
// together.
func (r *Repository) UpdateStatusByGroupTx(tx *gorm.DB, groupID uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus, updates map[string]any) (int64, error) {
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
	res := tx.Model(&models.Order{}).
		Where("checkout_group_id = ? AND status IN ?", groupID, from).
		Updates(values)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ListParams filters an order listing. Exactly one of UserID and OrgID is set
// for buyer and merchant views; both nil yields the admin view.
type ListParams struct {
	UserID *uuid.UUID
	OrgID  *uuid.UUID
	Status *enums.OrderStatus
	pagination.Params
}

// ListPage is one cursor page of orders.
type ListPage struct {
	Items      []models.Order
	NextCursor string
}

// List returns orders newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListPage, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
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

	var rows []models.Order
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

// ListForExport returns a merchant's orders inside the window, oldest first,
// for the CSV export. The window is half-open: from inclusive, to exclusive.
func (r *Repository) ListForExport(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("org_id = ? AND created_at >= ? AND created_at < ?", orgID, from, to).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
