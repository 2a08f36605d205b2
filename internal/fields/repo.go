package fields

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
)

// Repository defines persistence operations for the field registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, field *models.Field) (*models.Field, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Field, error)
	FindByName(ctx context.Context, name string) (*models.Field, error)
	List(ctx context.Context) ([]models.Field, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountBillsReferencing(ctx context.Context, fieldName string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fields repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, field *models.Field) (*models.Field, error) {
	if err := r.db.WithContext(ctx).Create(field).Error; err != nil {
		return nil, err
	}
	return field, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	var field models.Field
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&field).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*models.Field, error) {
	var field models.Field
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&field).Error
	if err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *repository) List(ctx context.Context) ([]models.Field, error) {
	var fields []models.Field
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Field{}).Error
}

func (r *repository) CountBillsReferencing(ctx context.Context, fieldName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bill{}).
		Where("field_name = ?", fieldName).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
