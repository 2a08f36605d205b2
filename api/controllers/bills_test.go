package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmarchan/fieldrent-backend/api/middleware"
	"github.com/rmarchan/fieldrent-backend/internal/bills"
	"github.com/rmarchan/fieldrent-backend/internal/payments"
	"github.com/rmarchan/fieldrent-backend/pkg/pagination"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
)

type stubBillsService struct {
	start       func(ctx context.Context, input bills.StartBillInput) (*bills.BillResponse, error)
	stop        func(ctx context.Context, billID uuid.UUID, opts bills.StopBillOptions) (*bills.BillResponse, error)
	listForUser func(ctx context.Context, userID uuid.UUID, filters bills.BillFilters, params pagination.Params) (*bills.BillList, error)
}

func (s *stubBillsService) Start(ctx context.Context, input bills.StartBillInput) (*bills.BillResponse, error) {
	return s.start(ctx, input)
}

func (s *stubBillsService) UpdateCount(ctx context.Context, billID uuid.UUID, newCount int64) (*bills.BillResponse, error) {
	panic("not implemented")
}

func (s *stubBillsService) Stop(ctx context.Context, billID uuid.UUID, opts bills.StopBillOptions) (*bills.BillResponse, error) {
	return s.stop(ctx, billID, opts)
}

func (s *stubBillsService) Edit(ctx context.Context, billID uuid.UUID, patch bills.EditBillInput) (*bills.BillResponse, error) {
	panic("not implemented")
}

func (s *stubBillsService) ListForUser(ctx context.Context, userID uuid.UUID, filters bills.BillFilters, params pagination.Params) (*bills.BillList, error) {
	return s.listForUser(ctx, userID, filters, params)
}

func (s *stubBillsService) DeleteForUser(ctx context.Context, userID uuid.UUID) (*bills.DeleteForUserResult, error) {
	panic("not implemented")
}

func (s *stubBillsService) DeleteBill(ctx context.Context, billID uuid.UUID) error {
	panic("not implemented")
}

type stubPaymentsService struct {
	record      func(ctx context.Context, input payments.RecordPaymentInput) (*payments.PaymentResponse, error)
	payDirect   func(ctx context.Context, billID uuid.UUID, method string) (*payments.PayDirectResult, error)
	listForBill func(ctx context.Context, billID uuid.UUID) (*payments.BillPayments, error)
}

func (s *stubPaymentsService) Record(ctx context.Context, input payments.RecordPaymentInput) (*payments.PaymentResponse, error) {
	return s.record(ctx, input)
}

func (s *stubPaymentsService) Confirm(ctx context.Context, paymentID uuid.UUID) (*payments.ConfirmResult, error) {
	panic("not implemented")
}

func (s *stubPaymentsService) PayDirect(ctx context.Context, billID uuid.UUID, method string) (*payments.PayDirectResult, error) {
	return s.payDirect(ctx, billID, method)
}

func (s *stubPaymentsService) ListForBill(ctx context.Context, billID uuid.UUID) (*payments.BillPayments, error) {
	return s.listForBill(ctx, billID)
}

func authedRequest(req *http.Request, userID uuid.UUID, admin bool) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithIsAdmin(ctx, admin)
	return req.WithContext(ctx)
}

func withBillID(req *http.Request, billID uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("billId", billID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestBillStartUsesRequester(t *testing.T) {
	userID := uuid.New()
	svc := &stubBillsService{
		start: func(ctx context.Context, input bills.StartBillInput) (*bills.BillResponse, error) {
			if input.UserID != userID {
				t.Fatalf("expected requester id, got %s", input.UserID)
			}
			if input.FieldName != "North Plot" {
				t.Fatalf("unexpected field: %q", input.FieldName)
			}
			return &bills.BillResponse{ID: uuid.New(), UserID: input.UserID, FieldName: input.FieldName}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/start",
		strings.NewReader(`{"field_name":"North Plot"}`))
	req = authedRequest(req, userID, false)
	rec := httptest.NewRecorder()
	BillStart(svc, nil)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBillStartForOtherUserRequiresAdmin(t *testing.T) {
	svc := &stubBillsService{
		start: func(ctx context.Context, input bills.StartBillInput) (*bills.BillResponse, error) {
			t.Fatal("service should not be reached")
			return nil, nil
		},
	}

	other := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/start",
		strings.NewReader(`{"field_name":"North Plot","user_id":"`+other.String()+`"}`))
	req = authedRequest(req, uuid.New(), false)
	rec := httptest.NewRecorder()
	BillStart(svc, nil)(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestBillStopWithoutBody(t *testing.T) {
	billID := uuid.New()
	svc := &stubBillsService{
		stop: func(ctx context.Context, id uuid.UUID, opts bills.StopBillOptions) (*bills.BillResponse, error) {
			if id != billID {
				t.Fatalf("unexpected bill id: %s", id)
			}
			if opts.FinalCount != nil || opts.FinalUnitPrice != nil {
				t.Fatalf("expected empty options, got %+v", opts)
			}
			return &bills.BillResponse{ID: id}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/"+billID.String()+"/stop", nil)
	req = withBillID(req, billID)
	rec := httptest.NewRecorder()
	BillStop(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBillsListForbidsCrossUser(t *testing.T) {
	svc := &stubBillsService{
		listForUser: func(ctx context.Context, userID uuid.UUID, filters bills.BillFilters, params pagination.Params) (*bills.BillList, error) {
			t.Fatal("service should not be reached")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills?user_id="+uuid.NewString(), nil)
	req = authedRequest(req, uuid.New(), false)
	rec := httptest.NewRecorder()
	BillsList(svc, nil)(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestBillPayDispatchesDirectOrInstallment(t *testing.T) {
	billID := uuid.New()
	var recorded, direct bool
	svc := &stubPaymentsService{
		record: func(ctx context.Context, input payments.RecordPaymentInput) (*payments.PaymentResponse, error) {
			recorded = true
			if !input.Amount.Equal(decimal.NewFromInt(40)) {
				t.Fatalf("unexpected amount: %s", input.Amount)
			}
			return &payments.PaymentResponse{ID: uuid.New(), BillID: input.BillID, Amount: input.Amount}, nil
		},
		payDirect: func(ctx context.Context, id uuid.UUID, method string) (*payments.PayDirectResult, error) {
			direct = true
			if method != "cash" {
				t.Fatalf("unexpected method: %q", method)
			}
			return &payments.PayDirectResult{BillID: id, Settled: true}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/"+billID.String()+"/pay",
		strings.NewReader(`{"method":"card","amount":"40"}`))
	req = withBillID(req, billID)
	rec := httptest.NewRecorder()
	BillPay(svc, nil)(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !recorded {
		t.Fatal("expected installment path")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/bills/"+billID.String()+"/pay",
		strings.NewReader(`{"method":"cash"}`))
	req = withBillID(req, billID)
	rec = httptest.NewRecorder()
	BillPay(svc, nil)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !direct {
		t.Fatal("expected direct settle path")
	}

	var body struct {
		Data payments.PayDirectResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Data.Settled {
		t.Fatal("expected settled result")
	}
}

func TestBillPaymentsListGuardsOwner(t *testing.T) {
	billID := uuid.New()
	ownerID := uuid.New()
	svc := &stubPaymentsService{
		listForBill: func(ctx context.Context, id uuid.UUID) (*payments.BillPayments, error) {
			if id != billID {
				t.Fatalf("unexpected bill id: %s", id)
			}
			return &payments.BillPayments{
				BillID: billID,
				UserID: ownerID,
				Payments: []payments.PaymentResponse{
					{ID: uuid.New(), BillID: billID, Amount: decimal.NewFromInt(60)},
				},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills/"+billID.String()+"/payments", nil)
	req = authedRequest(withBillID(req, billID), ownerID, false)
	rec := httptest.NewRecorder()
	BillPaymentsList(svc, nil)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for the owner, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data payments.BillPayments `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data.Payments) != 1 || !body.Data.Payments[0].Amount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected history: %+v", body.Data.Payments)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bills/"+billID.String()+"/payments", nil)
	req = authedRequest(withBillID(req, billID), uuid.New(), false)
	rec = httptest.NewRecorder()
	BillPaymentsList(svc, nil)(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another user, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bills/"+billID.String()+"/payments", nil)
	req = authedRequest(withBillID(req, billID), uuid.New(), true)
	rec = httptest.NewRecorder()
	BillPaymentsList(svc, nil)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d", rec.Code)
	}
}

func TestBillUpdateCountInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bills/not-a-uuid/count",
		strings.NewReader(`{"count":5}`))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("billId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rec := httptest.NewRecorder()
	BillUpdateCount(&stubBillsService{}, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code: %s", body.Error.Code)
	}
}
