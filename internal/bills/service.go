package bills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmarchan/fieldrent-backend/pkg/clock"
	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
	"github.com/rmarchan/fieldrent-backend/pkg/enums"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
	"github.com/rmarchan/fieldrent-backend/pkg/metrics"
	"github.com/rmarchan/fieldrent-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type fieldFinder interface {
	FindByName(ctx context.Context, name string) (*models.Field, error)
}

// Service defines the billing ledger operations.
type Service interface {
	Start(ctx context.Context, input StartBillInput) (*BillResponse, error)
	UpdateCount(ctx context.Context, billID uuid.UUID, newCount int64) (*BillResponse, error)
	Stop(ctx context.Context, billID uuid.UUID, opts StopBillOptions) (*BillResponse, error)
	Edit(ctx context.Context, billID uuid.UUID, patch EditBillInput) (*BillResponse, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filters BillFilters, params pagination.Params) (*BillList, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) (*DeleteForUserResult, error)
	DeleteBill(ctx context.Context, billID uuid.UUID) error
}

type service struct {
	repo    Repository
	tx      txRunner
	users   userFinder
	fields  fieldFinder
	clock   clock.Clock
	billing *metrics.BillingMetrics
}

// ServiceParams bundles the dependencies required to build a bills service.
type ServiceParams struct {
	Repo           Repository
	Tx             txRunner
	Users          userFinder
	Fields         fieldFinder
	Clock          clock.Clock
	BillingMetrics *metrics.BillingMetrics
}

// NewService builds a billing ledger service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("bills repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if params.Fields == nil {
		return nil, fmt.Errorf("field finder required")
	}
	if params.Clock == nil {
		params.Clock = clock.System()
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		users:   params.Users,
		fields:  params.Fields,
		clock:   params.Clock,
		billing: params.BillingMetrics,
	}, nil
}

func (s *service) Start(ctx context.Context, input StartBillInput) (*BillResponse, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	fieldName := strings.TrimSpace(input.FieldName)
	if fieldName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "field name required")
	}

	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	field, err := s.fields.FindByName(ctx, fieldName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "field not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load field")
	}

	bill := &models.Bill{
		UserID:      input.UserID,
		FieldName:   field.Name,
		BillingMode: field.BillingMode,
		StartTime:   s.clock.Now(),
		Status:      enums.BillStatusOpen,
	}

	switch field.BillingMode {
	case enums.BillingModeTime:
		bill.RatePerHour = field.RatePerHour
	case enums.BillingModeCount:
		if input.UnitPrice == nil || !input.UnitPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "positive unit price required for count billing")
		}
		price := *input.UnitPrice
		zero := int64(0)
		bill.UnitPrice = &price
		bill.UnitCount = &zero
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "field has unknown billing mode")
	}

	created, err := s.repo.Create(ctx, bill)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bill")
	}

	s.billing.IncTransition(enums.BillStatusOpen.String())
	resp := toBillResponse(*created, nil)
	return &resp, nil
}

func (s *service) UpdateCount(ctx context.Context, billID uuid.UUID, newCount int64) (*BillResponse, error) {
	if billID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}
	if newCount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "count cannot be negative")
	}

	var updated *models.Bill
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		bill, err := lockBill(ctx, repo, billID)
		if err != nil {
			return err
		}
		if bill.BillingMode != enums.BillingModeCount {
			return pkgerrors.New(pkgerrors.CodeValidation, "bill is not count billed")
		}
		if bill.Status != enums.BillStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "count can only change while the bill is open")
		}

		if err := repo.Update(ctx, bill.ID, map[string]any{"unit_count": newCount}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update bill count")
		}
		bill.UnitCount = &newCount
		updated = bill
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toBillResponse(*updated, nil)
	return &resp, nil
}

func (s *service) Stop(ctx context.Context, billID uuid.UUID, opts StopBillOptions) (*BillResponse, error) {
	if billID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}

	var updated *models.Bill
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		bill, err := lockBill(ctx, repo, billID)
		if err != nil {
			return err
		}
		if bill.Status != enums.BillStatusOpen {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "bill is not open")
		}

		now := s.clock.Now()
		updates := map[string]any{
			"stop_time": now,
			"status":    enums.BillStatusPayable,
		}

		switch bill.BillingMode {
		case enums.BillingModeTime:
			elapsed := now.Sub(bill.StartTime)
			if elapsed < 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "bill start time is in the future")
			}
			formatted := formatElapsed(elapsed)
			cost := timeCost(elapsed, bill.RatePerHour)
			updates["elapsed_formatted"] = formatted
			updates["cost"] = cost
			bill.ElapsedFormatted = &formatted
			bill.Cost = &cost

		case enums.BillingModeCount:
			count := int64(0)
			if bill.UnitCount != nil {
				count = *bill.UnitCount
			}
			if opts.FinalCount != nil {
				count = *opts.FinalCount
			}
			if count < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "count cannot be negative")
			}

			price := bill.UnitPrice
			if opts.FinalUnitPrice != nil {
				price = opts.FinalUnitPrice
			}
			if price == nil || !price.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, "positive unit price required to stop count billing")
			}

			cost := countCost(count, *price)
			updates["unit_count"] = count
			updates["unit_price"] = *price
			updates["cost"] = cost
			bill.UnitCount = &count
			bill.UnitPrice = price
			bill.Cost = &cost

		default:
			return pkgerrors.New(pkgerrors.CodeInternal, "bill has unknown billing mode")
		}

		if err := repo.Update(ctx, bill.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stop bill")
		}

		bill.StopTime = &now
		bill.Status = enums.BillStatusPayable
		updated = bill
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.billing.IncTransition(enums.BillStatusPayable.String())
	resp := toBillResponse(*updated, nil)
	return &resp, nil
}

func (s *service) Edit(ctx context.Context, billID uuid.UUID, patch EditBillInput) (*BillResponse, error) {
	if billID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}

	var updated *models.Bill
	var settled bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		bill, err := lockBill(ctx, repo, billID)
		if err != nil {
			return err
		}
		if bill.Status == enums.BillStatusSettled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "settled bills cannot be edited")
		}

		updates := map[string]any{}

		if patch.ElapsedFormatted != nil {
			if bill.BillingMode != enums.BillingModeTime {
				return pkgerrors.New(pkgerrors.CodeValidation, "elapsed time applies to time billed bills only")
			}
			if !validElapsedFormat(*patch.ElapsedFormatted) {
				return pkgerrors.New(pkgerrors.CodeValidation, "elapsed time must be formatted HH:MM:SS")
			}
			updates["elapsed_formatted"] = *patch.ElapsedFormatted
			bill.ElapsedFormatted = patch.ElapsedFormatted
		}

		if patch.Cost != nil {
			if patch.Cost.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "cost cannot be negative")
			}
			updates["cost"] = *patch.Cost
			bill.Cost = patch.Cost
		}

		if patch.UnitCount != nil {
			if bill.BillingMode != enums.BillingModeCount {
				return pkgerrors.New(pkgerrors.CodeValidation, "unit count applies to count billed bills only")
			}
			if *patch.UnitCount < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "count cannot be negative")
			}
			updates["unit_count"] = *patch.UnitCount
			bill.UnitCount = patch.UnitCount
		}

		if patch.UnitPrice != nil {
			if bill.BillingMode != enums.BillingModeCount {
				return pkgerrors.New(pkgerrors.CodeValidation, "unit price applies to count billed bills only")
			}
			if !patch.UnitPrice.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
			}
			updates["unit_price"] = *patch.UnitPrice
			bill.UnitPrice = patch.UnitPrice
		}

		if patch.Status != nil {
			target, err := enums.ParseBillStatus(*patch.Status)
			if err != nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "status must be open, payable or settled")
			}
			if target != bill.Status {
				if !bill.Status.CanAdvanceTo(target) {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "bill status can only move forward")
				}
				updates["status"] = target
				bill.Status = target
				settled = target == enums.BillStatusSettled
			}
		}

		if len(updates) == 0 {
			updated = bill
			return nil
		}

		if err := repo.Update(ctx, bill.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "edit bill")
		}
		updated = bill
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled {
		s.billing.IncTransition(enums.BillStatusSettled.String())
	}
	resp := toBillResponse(*updated, nil)
	return &resp, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, filters BillFilters, params pagination.Params) (*BillList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	rows, err := s.repo.ListForUser(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bills")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	nextCursor := ""
	if len(rows) > limit {
		last := rows[limit-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		rows = rows[:limit]
	}

	out := make([]BillResponse, 0, len(rows))
	for _, row := range rows {
		paid := row.TotalPaid
		out = append(out, toBillResponse(row.Bill, &paid))
	}
	return &BillList{Bills: out, NextCursor: nextCursor}, nil
}

func (s *service) DeleteForUser(ctx context.Context, userID uuid.UUID) (*DeleteForUserResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	deleted, err := s.repo.DeleteForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user bills")
	}
	return &DeleteForUserResult{Deleted: deleted}, nil
}

func (s *service) DeleteBill(ctx context.Context, billID uuid.UUID) error {
	if billID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}

	if _, err := s.repo.FindByID(ctx, billID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill")
	}

	if err := s.repo.Delete(ctx, billID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete bill")
	}
	return nil
}

func lockBill(ctx context.Context, repo Repository, billID uuid.UUID) (*models.Bill, error) {
	bill, err := repo.FindByIDForUpdate(ctx, billID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill")
	}
	return bill, nil
}

func toBillResponse(bill models.Bill, totalPaid *decimal.Decimal) BillResponse {
	paid := decimal.Zero
	if totalPaid != nil {
		paid = *totalPaid
	}
	return BillResponse{
		ID:               bill.ID,
		UserID:           bill.UserID,
		FieldName:        bill.FieldName,
		BillingMode:      bill.BillingMode,
		RatePerHour:      bill.RatePerHour,
		StartTime:        bill.StartTime,
		StopTime:         bill.StopTime,
		ElapsedFormatted: bill.ElapsedFormatted,
		UnitCount:        bill.UnitCount,
		UnitPrice:        bill.UnitPrice,
		Cost:             bill.Cost,
		Status:           bill.Status,
		PaymentMethod:    bill.PaymentMethod,
		TotalPaid:        paid,
		CreatedAt:        bill.CreatedAt,
	}
}
