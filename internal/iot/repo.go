package iot

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
)

// Repository persists device signal rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, signal *models.IoTSignal) (*models.IoTSignal, error)
	ListForBill(ctx context.Context, billID uuid.UUID) ([]models.IoTSignal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a gorm-backed signal repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, signal *models.IoTSignal) (*models.IoTSignal, error) {
	if err := r.db.WithContext(ctx).Create(signal).Error; err != nil {
		return nil, err
	}
	return signal, nil
}

func (r *repository) ListForBill(ctx context.Context, billID uuid.UUID) ([]models.IoTSignal, error) {
	var signals []models.IoTSignal
	err := r.db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("created_at ASC").
		Find(&signals).Error
	if err != nil {
		return nil, err
	}
	return signals, nil
}
