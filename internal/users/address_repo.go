package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
)

// AddressRepository handles the buyer address book.
type AddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository binds a GORM DB to address book operations.
func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// Create persists a new saved address. Setting the default clears any prior
// default inside the same transaction.
func (r *AddressRepository) Create(ctx context.Context, addr *models.UserAddress) error {
	if addr == nil {
		return fmt.Errorf("address is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if addr.IsDefault {
			if err := clearDefault(tx, addr.UserID); err != nil {
				return err
			}
		}
		return tx.Create(addr).Error
	})
}

// List returns all saved addresses for the user, the default first.
func (r *AddressRepository) List(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error) {
	var rows []models.UserAddress
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Find loads one saved address scoped to the owning user.
func (r *AddressRepository) Find(ctx context.Context, userID, addressID uuid.UUID) (*models.UserAddress, error) {
	var addr models.UserAddress
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

// Update saves the provided address, keeping at most one default per user.
func (r *AddressRepository) Update(ctx context.Context, addr *models.UserAddress) error {
	if addr == nil {
		return fmt.Errorf("address is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if addr.IsDefault {
			if err := clearDefault(tx, addr.UserID); err != nil {
				return err
			}
		}
		return tx.Save(addr).Error
	})
}

// Delete removes the saved address scoped to the owning user.
func (r *AddressRepository) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.UserAddress{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func clearDefault(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.UserAddress{}).
		Where("user_id = ? AND is_default", userID).
		UpdateColumn("is_default", false).Error
}
