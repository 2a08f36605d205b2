package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rmarchan/fieldrent-backend/api/responses"
	"github.com/rmarchan/fieldrent-backend/api/validators"
	"github.com/rmarchan/fieldrent-backend/internal/iot"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
	"github.com/rmarchan/fieldrent-backend/pkg/logger"
)

type iotSignalRequest struct {
	BillID *uuid.UUID `json:"bill_id,omitempty"`
	Action string     `json:"action" validate:"required"`
}

// IoTSignal records a device command report.
func IoTSignal(svc iot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "iot service unavailable"))
			return
		}

		var req iotSignalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ack, err := svc.Signal(r.Context(), iot.SignalInput{
			BillID: req.BillID,
			Action: req.Action,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ack)
	}
}
