package fields

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmarchan/fieldrent-backend/pkg/db"
	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
	"github.com/rmarchan/fieldrent-backend/pkg/enums"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
)

const maxFieldNameLength = 255

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the field registry operations.
type Service interface {
	List(ctx context.Context) (*FieldList, error)
	Create(ctx context.Context, input CreateFieldInput) (*FieldResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (*DeleteFieldResult, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a field registry service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fields repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context) (*FieldList, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fields")
	}

	out := make([]FieldResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toResponse(record))
	}
	return &FieldList{Fields: out}, nil
}

func (s *service) Create(ctx context.Context, input CreateFieldInput) (*FieldResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field name is required")
	}
	if len(name) > maxFieldNameLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("field name must be at most %d characters", maxFieldNameLength))
	}

	mode, err := enums.ParseBillingMode(input.BillingMode)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing mode must be time or count")
	}

	rate := decimal.Zero
	if mode == enums.BillingModeTime {
		if input.RatePerHour == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "hourly rate is required for time billing")
		}
		if input.RatePerHour.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "hourly rate cannot be negative")
		}
		rate = *input.RatePerHour
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "field name already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check field name")
	}

	field := &models.Field{
		Name:        name,
		BillingMode: mode,
		RatePerHour: rate,
	}

	created, err := s.repo.Create(ctx, field)
	if err != nil {
		if db.IsUniqueViolation(err, "fields_name_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "field name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create field")
	}

	resp := toResponse(*created)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) (*DeleteFieldResult, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field id required")
	}

	var result *DeleteFieldResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		field, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "field not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load field")
		}

		referencing, err := repo.CountBillsReferencing(ctx, field.Name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count field bills")
		}
		if referencing > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "field has bills and cannot be deleted")
		}

		if err := repo.Delete(ctx, field.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete field")
		}

		result = &DeleteFieldResult{FieldName: field.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func toResponse(field models.Field) FieldResponse {
	return FieldResponse{
		ID:          field.ID,
		Name:        field.Name,
		BillingMode: field.BillingMode,
		RatePerHour: field.RatePerHour,
		CreatedAt:   field.CreatedAt,
	}
}
