package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmarchan/fieldrent-backend/internal/bills"
	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
	"github.com/rmarchan/fieldrent-backend/pkg/enums"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
	"github.com/rmarchan/fieldrent-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// billRepository is the slice of the bills repository the payment ledger
// needs: locked reads and status updates.
type billRepository interface {
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bill, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// Service defines the payment ledger operations.
type Service interface {
	Record(ctx context.Context, input RecordPaymentInput) (*PaymentResponse, error)
	Confirm(ctx context.Context, paymentID uuid.UUID) (*ConfirmResult, error)
	PayDirect(ctx context.Context, billID uuid.UUID, method string) (*PayDirectResult, error)
	ListForBill(ctx context.Context, billID uuid.UUID) (*BillPayments, error)
}

type service struct {
	repo    Repository
	bills   bills.Repository
	tx      txRunner
	billing *metrics.BillingMetrics
}

// ServiceParams bundles the dependencies required to build a payments service.
type ServiceParams struct {
	Repo           Repository
	Bills          bills.Repository
	Tx             txRunner
	BillingMetrics *metrics.BillingMetrics
}

// NewService builds a payment ledger service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Bills == nil {
		return nil, fmt.Errorf("bills repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    params.Repo,
		bills:   params.Bills,
		tx:      params.Tx,
		billing: params.BillingMetrics,
	}, nil
}

func (s *service) Record(ctx context.Context, input RecordPaymentInput) (*PaymentResponse, error) {
	if input.BillID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	method := strings.TrimSpace(input.Method)
	if method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}

	var created *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		billRepo := s.bills.WithTx(tx)

		bill, err := lockPayableBill(ctx, billRepo, input.BillID)
		if err != nil {
			return err
		}

		// Pending payments count against the balance so concurrent records
		// can never oversubscribe the bill.
		reserved, err := repo.SumForBill(ctx, bill.ID, []enums.PaymentStatus{
			enums.PaymentStatusCompleted,
			enums.PaymentStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum bill payments")
		}

		outstanding := bill.Cost.Sub(reserved)
		if input.Amount.GreaterThan(outstanding) {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment amount exceeds outstanding balance").
				WithDetails(map[string]string{"outstanding": outstanding.StringFixed(2)})
		}

		payment := &models.Payment{
			BillID: bill.ID,
			Amount: input.Amount,
			Method: method,
			Status: enums.PaymentStatusPending,
		}
		created, err = repo.Create(ctx, payment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.billing.IncPayment(enums.PaymentStatusPending.String())
	resp := toPaymentResponse(*created)
	return &resp, nil
}

func (s *service) Confirm(ctx context.Context, paymentID uuid.UUID) (*ConfirmResult, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	var result *ConfirmResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		billRepo := s.bills.WithTx(tx)

		payment, err := repo.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if payment.Status != enums.PaymentStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not pending")
		}

		bill, err := lockPayableBill(ctx, billRepo, payment.BillID)
		if err != nil {
			return err
		}

		if err := repo.Update(ctx, payment.ID, map[string]any{"status": enums.PaymentStatusCompleted}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
		}
		payment.Status = enums.PaymentStatusCompleted

		completed, err := repo.SumForBill(ctx, bill.ID, []enums.PaymentStatus{enums.PaymentStatusCompleted})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum completed payments")
		}

		settled := false
		if completed.GreaterThanOrEqual(*bill.Cost) {
			if err := billRepo.Update(ctx, bill.ID, map[string]any{
				"status":         enums.BillStatusSettled,
				"payment_method": payment.Method,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle bill")
			}
			settled = true
		}

		result = &ConfirmResult{
			Payment:     toPaymentResponse(*payment),
			BillSettled: settled,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.billing.IncPayment(enums.PaymentStatusCompleted.String())
	if result.BillSettled {
		s.billing.IncTransition(enums.BillStatusSettled.String())
	}
	return result, nil
}

func (s *service) PayDirect(ctx context.Context, billID uuid.UUID, method string) (*PayDirectResult, error) {
	if billID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}

	var result *PayDirectResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		billRepo := s.bills.WithTx(tx)

		bill, err := lockPayableBill(ctx, billRepo, billID)
		if err != nil {
			return err
		}

		reserved, err := repo.SumForBill(ctx, bill.ID, []enums.PaymentStatus{
			enums.PaymentStatusCompleted,
			enums.PaymentStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum bill payments")
		}

		remaining := bill.Cost.Sub(reserved)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}

		var paymentResp *PaymentResponse
		if remaining.IsPositive() {
			payment := &models.Payment{
				BillID: bill.ID,
				Amount: remaining,
				Method: method,
				Status: enums.PaymentStatusCompleted,
			}
			created, err := repo.Create(ctx, payment)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
			}
			resp := toPaymentResponse(*created)
			paymentResp = &resp
		}

		if err := billRepo.Update(ctx, bill.ID, map[string]any{
			"status":         enums.BillStatusSettled,
			"payment_method": method,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle bill")
		}

		result = &PayDirectResult{
			BillID:  bill.ID,
			Amount:  remaining,
			Payment: paymentResp,
			Settled: true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Payment != nil {
		s.billing.IncPayment(enums.PaymentStatusCompleted.String())
	}
	s.billing.IncTransition(enums.BillStatusSettled.String())
	return result, nil
}

// ListForBill returns every installment recorded against a bill, oldest
// first, regardless of status.
func (s *service) ListForBill(ctx context.Context, billID uuid.UUID) (*BillPayments, error) {
	if billID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id required")
	}

	bill, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill")
	}

	records, err := s.repo.ListForBill(ctx, billID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}

	result := &BillPayments{
		BillID:   bill.ID,
		UserID:   bill.UserID,
		Payments: make([]PaymentResponse, 0, len(records)),
	}
	for _, record := range records {
		result.Payments = append(result.Payments, toPaymentResponse(record))
	}
	return result, nil
}

func lockPayableBill(ctx context.Context, repo billRepository, billID uuid.UUID) (*models.Bill, error) {
	bill, err := repo.FindByIDForUpdate(ctx, billID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bill not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bill")
	}
	if bill.Status != enums.BillStatusPayable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "bill is not payable")
	}
	if bill.Cost == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "bill has no cost")
	}
	return bill, nil
}

func toPaymentResponse(payment models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        payment.ID,
		BillID:    payment.BillID,
		Amount:    payment.Amount,
		Method:    payment.Method,
		Status:    payment.Status,
		CreatedAt: payment.CreatedAt,
	}
}
