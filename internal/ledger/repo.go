package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/pagination"
)

// Repository persists immutable balance movements. Entries are only ever
// written inside the transaction that moves the cached org balance, so the
// statement always reconciles with the balance column.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to ledger operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RecordTx appends one entry inside the caller's transaction.
func (r *Repository) RecordTx(tx *gorm.DB, entry *models.LedgerEntry) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if entry == nil {
		return fmt.Errorf("ledger entry is required")
	}
	if !entry.Type.IsValid() {
		return fmt.Errorf("invalid ledger entry type %q", entry.Type)
	}
	return tx.Create(entry).Error
}

// ListParams filters a merchant statement.
type ListParams struct {
	OrgID uuid.UUID
	Type  *enums.LedgerEntryType
	pagination.Params
}

// ListPage is one cursor page of ledger entries.
type ListPage struct {
	Items      []models.LedgerEntry
	NextCursor string
}

// List returns the merchant statement, newest entries first.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListPage, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("org_id = ?", params.OrgID)
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.LedgerEntry
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
