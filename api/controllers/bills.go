package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmarchan/fieldrent-backend/api/middleware"
	"github.com/rmarchan/fieldrent-backend/api/responses"
	"github.com/rmarchan/fieldrent-backend/api/validators"
	"github.com/rmarchan/fieldrent-backend/internal/bills"
	"github.com/rmarchan/fieldrent-backend/pkg/enums"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
	"github.com/rmarchan/fieldrent-backend/pkg/logger"
	"github.com/rmarchan/fieldrent-backend/pkg/pagination"
)

type startBillRequest struct {
	FieldName string           `json:"field_name" validate:"required"`
	UserID    *uuid.UUID       `json:"user_id,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type updateCountRequest struct {
	Count int64 `json:"count"`
}

type stopBillRequest struct {
	FinalCount     *int64           `json:"final_count,omitempty"`
	FinalUnitPrice *decimal.Decimal `json:"final_unit_price,omitempty"`
}

type editBillRequest struct {
	ElapsedFormatted *string          `json:"elapsed_formatted,omitempty"`
	Cost             *decimal.Decimal `json:"cost,omitempty"`
	UnitCount        *int64           `json:"unit_count,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	Status           *string          `json:"status,omitempty"`
}

func requesterID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}

// BillStart opens a bill for a field. Admins may start bills on behalf of
// another user via the user_id field.
func BillStart(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bills service unavailable"))
			return
		}

		var req startBillRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.UserID != nil && *req.UserID != userID {
			if !middleware.IsAdminFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot start bills for other users"))
				return
			}
			userID = *req.UserID
		}

		bill, err := svc.Start(r.Context(), bills.StartBillInput{
			UserID:    userID,
			FieldName: req.FieldName,
			UnitPrice: req.UnitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bill)
	}
}

// BillUpdateCount replaces the running unit count on an open count-mode bill.
func BillUpdateCount(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bills service unavailable"))
			return
		}

		billID, err := uuid.Parse(chi.URLParam(r, "billId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bill id"))
			return
		}

		var req updateCountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.UpdateCount(r.Context(), billID, req.Count)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bill)
	}
}

// BillStop closes an open bill and fixes its cost.
func BillStop(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bills service unavailable"))
			return
		}

		billID, err := uuid.Parse(chi.URLParam(r, "billId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bill id"))
			return
		}

		var req stopBillRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		bill, err := svc.Stop(r.Context(), billID, bills.StopBillOptions{
			FinalCount:     req.FinalCount,
			FinalUnitPrice: req.FinalUnitPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bill)
	}
}

// BillEdit applies an admin correction to a bill.
func BillEdit(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bills service unavailable"))
			return
		}

		billID, err := uuid.Parse(chi.URLParam(r, "billId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bill id"))
			return
		}

		var req editBillRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.Edit(r.Context(), billID, bills.EditBillInput{
			ElapsedFormatted: req.ElapsedFormatted,
			Cost:             req.Cost,
			UnitCount:        req.UnitCount,
			UnitPrice:        req.UnitPrice,
			Status:           req.Status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bill)
	}
}

// BillsList returns the requester's bills, newest first. Admins may list
// another user's bills via the user_id query parameter.
func BillsList(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bills service unavailable"))
			return
		}

		userID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
			target, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
				return
			}
			if target != userID && !middleware.IsAdminFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot list bills for other users"))
				return
			}
			userID = target
		}

		filters := bills.BillFilters{
			FieldName: strings.TrimSpace(r.URL.Query().Get("field_name")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseBillStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filters.Status = &status
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), userID, filters, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// BillDelete removes a single bill.
func BillDelete(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bills service unavailable"))
			return
		}

		billID, err := uuid.Parse(chi.URLParam(r, "billId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bill id"))
			return
		}

		if err := svc.DeleteBill(r.Context(), billID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"bill_id": billID.String()})
	}
}

// BillsDeleteForUser purges every bill belonging to a user.
func BillsDeleteForUser(svc bills.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bills service unavailable"))
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		result, err := svc.DeleteForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
