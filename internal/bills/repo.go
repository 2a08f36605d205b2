package bills

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
	"github.com/rmarchan/fieldrent-backend/pkg/enums"
	"github.com/rmarchan/fieldrent-backend/pkg/pagination"
)

// Repository defines persistence operations for the billing ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bill *models.Bill) (*models.Bill, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters BillFilters) ([]BillWithTotalPaid, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BillWithTotalPaid joins a bill row with its completed-payments total.
type BillWithTotalPaid struct {
	models.Bill
	TotalPaid decimal.Decimal `gorm:"column:total_paid"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bills repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, bill *models.Bill) (*models.Bill, error) {
	if err := r.db.WithContext(ctx).Create(bill).Error; err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&bill).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// FindByIDForUpdate takes a row lock so lifecycle transitions serialize.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&bill).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Bill{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters BillFilters) ([]BillWithTotalPaid, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Bill{}).
		Select("bills.*, COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.bill_id = bills.id AND p.status = ?), 0) AS total_paid",
			enums.PaymentStatusCompleted).
		Where("bills.user_id = ?", userID)

	if filters.Status != nil {
		query = query.Where("bills.status = ?", *filters.Status)
	}
	if filters.FieldName != "" {
		query = query.Where("bills.field_name = ?", filters.FieldName)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"bills.created_at < ? OR (bills.created_at = ? AND bills.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []BillWithTotalPaid
	err = query.
		Order("bills.created_at DESC, bills.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Bill{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Bill{}).Error
}
