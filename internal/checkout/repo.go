package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

// Repository handles checkout group persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to checkout operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateGroupTx persists the checkout group with its orders and items inside
// the transaction.
func (r *Repository) CreateGroupTx(tx *gorm.DB, group *models.CheckoutGroup) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if group == nil {
		return fmt.Errorf("checkout group is required")
	}
	return tx.Create(group).Error
}

// FindGroupByGatewayOrderID loads a checkout group with its orders by the
// reference the payment gateway echoes back in notifications.
func (r *Repository) FindGroupByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.CheckoutGroup, error) {
	var group models.CheckoutGroup
	err := r.db.WithContext(ctx).
		Preload("Orders").
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// FindGroupByID loads a checkout group with its orders.
func (r *Repository) FindGroupByID(ctx context.Context, id uuid.UUID) (*models.CheckoutGroup, error) {
	var group models.CheckoutGroup
	err := r.db.WithContext(ctx).
		Preload("Orders").
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// FindPendingBefore lists checkout groups still awaiting payment that were
// created before the cutoff, oldest first.
func (r *Repository) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.CheckoutGroup, error) {
	var groups []models.CheckoutGroup
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND created_at < ?", enums.PaymentStatusPending, cutoff).
		Order("created_at ASC").
		Find(&groups).Error
	return groups, err
}

// UpdatePaymentStatusTx moves the group's payment state. The update is
// guarded on the allowed source states so a replayed gateway notification
// cannot double-apply; callers must treat zero affected rows as already
// processed.
func (r *Repository) UpdatePaymentStatusTx(tx *gorm.DB, id uuid.UUID, from []enums.PaymentStatus, to enums.PaymentStatus, paidAt *time.Time) (int64, error) {
	if tx == nil {
		return 0, gorm.ErrInvalidTransaction
	}
	res := tx.Model(&models.CheckoutGroup{}).
		Where("id = ? AND payment_status IN ?", id, from).
		Updates(map[string]any{
			"payment_status": to,
			"paid_at":        paidAt,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
