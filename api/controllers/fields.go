package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmarchan/fieldrent-backend/api/responses"
	"github.com/rmarchan/fieldrent-backend/api/validators"
	"github.com/rmarchan/fieldrent-backend/internal/fields"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
	"github.com/rmarchan/fieldrent-backend/pkg/logger"
)

type createFieldRequest struct {
	Name        string           `json:"name" validate:"required"`
	BillingMode string           `json:"billing_mode" validate:"required"`
	RatePerHour *decimal.Decimal `json:"rate_per_hour,omitempty"`
}

// FieldsList returns the registered fields.
func FieldsList(svc fields.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fields service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// FieldCreate registers a new rentable field.
func FieldCreate(svc fields.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fields service unavailable"))
			return
		}

		var req createFieldRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		field, err := svc.Create(r.Context(), fields.CreateFieldInput{
			Name:        req.Name,
			BillingMode: req.BillingMode,
			RatePerHour: req.RatePerHour,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, field)
	}
}

// FieldDelete removes a field when no bills reference it.
func FieldDelete(svc fields.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fields service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "fieldId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid field id"))
			return
		}

		result, err := svc.Delete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
