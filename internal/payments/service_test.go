package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmarchan/fieldrent-backend/internal/bills"
	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
	"github.com/rmarchan/fieldrent-backend/pkg/enums"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
	"github.com/rmarchan/fieldrent-backend/pkg/pagination"
)

type stubPaymentsRepo struct {
	payments map[uuid.UUID]*models.Payment
}

func newStubPaymentsRepo() *stubPaymentsRepo {
	return &stubPaymentsRepo{payments: make(map[uuid.UUID]*models.Payment)}
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubPaymentsRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.payments[payment.ID] = payment
	return payment, nil
}

func (s *stubPaymentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, ok := s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *payment
	return &copied, nil
}

func (s *stubPaymentsRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return s.FindByID(ctx, id)
}

func (s *stubPaymentsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	payment, ok := s.payments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.PaymentStatus); ok {
		payment.Status = status
	}
	return nil
}

func (s *stubPaymentsRepo) SumForBill(ctx context.Context, billID uuid.UUID, statuses []enums.PaymentStatus) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, payment := range s.payments {
		if payment.BillID != billID {
			continue
		}
		for _, status := range statuses {
			if payment.Status == status {
				total = total.Add(payment.Amount)
				break
			}
		}
	}
	return total, nil
}

func (s *stubPaymentsRepo) ListForBill(ctx context.Context, billID uuid.UUID) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range s.payments {
		if payment.BillID == billID {
			out = append(out, *payment)
		}
	}
	return out, nil
}

type stubBillsRepo struct {
	bills map[uuid.UUID]*models.Bill
}

func newStubBillsRepo() *stubBillsRepo {
	return &stubBillsRepo{bills: make(map[uuid.UUID]*models.Bill)}
}

func (s *stubBillsRepo) WithTx(tx *gorm.DB) bills.Repository {
	return s
}

func (s *stubBillsRepo) Create(ctx context.Context, bill *models.Bill) (*models.Bill, error) {
	panic("not implemented")
}

func (s *stubBillsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	bill, ok := s.bills[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *bill
	return &copied, nil
}

func (s *stubBillsRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Bill, error) {
	return s.FindByID(ctx, id)
}

func (s *stubBillsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	bill, ok := s.bills[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.BillStatus); ok {
		bill.Status = status
	}
	if method, ok := updates["payment_method"].(string); ok {
		bill.PaymentMethod = &method
	}
	return nil
}

func (s *stubBillsRepo) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params, filters bills.BillFilters) ([]bills.BillWithTotalPaid, error) {
	panic("not implemented")
}

func (s *stubBillsRepo) DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	panic("not implemented")
}

func (s *stubBillsRepo) Delete(ctx context.Context, id uuid.UUID) error {
	panic("not implemented")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code(), err)
	}
}

func payableBill(cost int64) *models.Bill {
	amount := decimal.NewFromInt(cost)
	now := time.Now().UTC()
	stop := now.Add(time.Hour)
	return &models.Bill{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		FieldName:   "North Plot",
		BillingMode: enums.BillingModeTime,
		StartTime:   now,
		StopTime:    &stop,
		Cost:        &amount,
		Status:      enums.BillStatusPayable,
	}
}

func newPaymentsService(t *testing.T, billsRepo *stubBillsRepo, paymentsRepo *stubPaymentsRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:  paymentsRepo,
		Bills: billsRepo,
		Tx:    stubTxRunner{},
	})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestRecordPaymentBounds(t *testing.T) {
	billsRepo := newStubBillsRepo()
	paymentsRepo := newStubPaymentsRepo()
	bill := payableBill(100)
	billsRepo.bills[bill.ID] = bill
	svc := newPaymentsService(t, billsRepo, paymentsRepo)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordPaymentInput{
		BillID: bill.ID,
		Amount: decimal.NewFromInt(150),
		Method: "card",
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	first, err := svc.Record(ctx, RecordPaymentInput{
		BillID: bill.ID,
		Amount: decimal.NewFromInt(60),
		Method: "card",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if first.Status != enums.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", first.Status)
	}

	// The pending 60 already reserves balance: only 40 remains.
	_, err = svc.Record(ctx, RecordPaymentInput{
		BillID: bill.ID,
		Amount: decimal.NewFromInt(50),
		Method: "card",
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	if _, err := svc.Record(ctx, RecordPaymentInput{
		BillID: bill.ID,
		Amount: decimal.NewFromInt(40),
		Method: "cash",
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
}

func TestRecordPaymentRequiresPayableBill(t *testing.T) {
	billsRepo := newStubBillsRepo()
	paymentsRepo := newStubPaymentsRepo()
	bill := payableBill(100)
	bill.Status = enums.BillStatusOpen
	bill.Cost = nil
	billsRepo.bills[bill.ID] = bill
	svc := newPaymentsService(t, billsRepo, paymentsRepo)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordPaymentInput{
		BillID: bill.ID,
		Amount: decimal.NewFromInt(10),
		Method: "card",
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)

	_, err = svc.Record(ctx, RecordPaymentInput{
		BillID: uuid.New(),
		Amount: decimal.NewFromInt(10),
		Method: "card",
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestConfirmSettlesWhenCovered(t *testing.T) {
	billsRepo := newStubBillsRepo()
	paymentsRepo := newStubPaymentsRepo()
	bill := payableBill(100)
	billsRepo.bills[bill.ID] = bill
	svc := newPaymentsService(t, billsRepo, paymentsRepo)
	ctx := context.Background()

	first, err := svc.Record(ctx, RecordPaymentInput{BillID: bill.ID, Amount: decimal.NewFromInt(60), Method: "card"})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	second, err := svc.Record(ctx, RecordPaymentInput{BillID: bill.ID, Amount: decimal.NewFromInt(40), Method: "cash"})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	result, err := svc.Confirm(ctx, first.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if result.BillSettled {
		t.Fatal("bill should not settle at 60 of 100")
	}
	if bill.Status != enums.BillStatusPayable {
		t.Fatalf("bill status changed early: %s", bill.Status)
	}

	result, err = svc.Confirm(ctx, second.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if !result.BillSettled {
		t.Fatal("bill should settle at 100 of 100")
	}
	if bill.Status != enums.BillStatusSettled {
		t.Fatalf("expected settled bill, got %s", bill.Status)
	}
	if bill.PaymentMethod == nil || *bill.PaymentMethod != "cash" {
		t.Fatalf("expected settling method cash, got %v", bill.PaymentMethod)
	}

	// Double confirm observes the completed state.
	_, err = svc.Confirm(ctx, second.ID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestConfirmUnknownPayment(t *testing.T) {
	svc := newPaymentsService(t, newStubBillsRepo(), newStubPaymentsRepo())
	_, err := svc.Confirm(context.Background(), uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestPayDirectSettlesRemaining(t *testing.T) {
	billsRepo := newStubBillsRepo()
	paymentsRepo := newStubPaymentsRepo()
	bill := payableBill(100)
	billsRepo.bills[bill.ID] = bill
	svc := newPaymentsService(t, billsRepo, paymentsRepo)
	ctx := context.Background()

	installment, err := svc.Record(ctx, RecordPaymentInput{BillID: bill.ID, Amount: decimal.NewFromInt(30), Method: "card"})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := svc.Confirm(ctx, installment.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	result, err := svc.PayDirect(ctx, bill.ID, "cash")
	if err != nil {
		t.Fatalf("pay direct failed: %v", err)
	}
	if !result.Settled {
		t.Fatal("expected settled result")
	}
	if !result.Amount.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected remaining 70, got %s", result.Amount)
	}
	if result.Payment == nil || result.Payment.Status != enums.PaymentStatusCompleted {
		t.Fatal("expected completed payment record")
	}
	if bill.Status != enums.BillStatusSettled {
		t.Fatalf("expected settled bill, got %s", bill.Status)
	}

	// A second direct pay hits the settled bill.
	_, err = svc.PayDirect(ctx, bill.ID, "cash")
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestPayDirectZeroRemainingSkipsPaymentRow(t *testing.T) {
	billsRepo := newStubBillsRepo()
	paymentsRepo := newStubPaymentsRepo()
	bill := payableBill(0)
	billsRepo.bills[bill.ID] = bill
	svc := newPaymentsService(t, billsRepo, paymentsRepo)

	result, err := svc.PayDirect(context.Background(), bill.ID, "cash")
	if err != nil {
		t.Fatalf("pay direct failed: %v", err)
	}
	if !result.Settled {
		t.Fatal("expected settled result")
	}
	if result.Payment != nil {
		t.Fatal("zero-remaining bill should not create a payment row")
	}
	if len(paymentsRepo.payments) != 0 {
		t.Fatalf("expected no payments, got %d", len(paymentsRepo.payments))
	}
}

func TestListForBillReturnsHistory(t *testing.T) {
	billsRepo := newStubBillsRepo()
	paymentsRepo := newStubPaymentsRepo()
	bill := payableBill(100)
	billsRepo.bills[bill.ID] = bill
	svc := newPaymentsService(t, billsRepo, paymentsRepo)
	ctx := context.Background()

	first, err := svc.Record(ctx, RecordPaymentInput{BillID: bill.ID, Amount: decimal.NewFromInt(60), Method: "cash"})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := svc.Confirm(ctx, first.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if _, err := svc.Record(ctx, RecordPaymentInput{BillID: bill.ID, Amount: decimal.NewFromInt(30), Method: "transfer"}); err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	history, err := svc.ListForBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("list for bill failed: %v", err)
	}
	if history.BillID != bill.ID || history.UserID != bill.UserID {
		t.Fatalf("unexpected bill identity: %+v", history)
	}
	if len(history.Payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(history.Payments))
	}
	total := decimal.Zero
	for _, payment := range history.Payments {
		total = total.Add(payment.Amount)
	}
	if !total.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected amounts summing to 90, got %s", total)
	}
}

func TestListForBillErrors(t *testing.T) {
	billsRepo := newStubBillsRepo()
	paymentsRepo := newStubPaymentsRepo()
	svc := newPaymentsService(t, billsRepo, paymentsRepo)
	ctx := context.Background()

	_, err := svc.ListForBill(ctx, uuid.Nil)
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.ListForBill(ctx, uuid.New())
	expectCode(t, err, pkgerrors.CodeNotFound)
}
