package iot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
	pkgerrors "github.com/rmarchan/fieldrent-backend/pkg/errors"
	"github.com/rmarchan/fieldrent-backend/pkg/logger"
)

const maxActionLength = 64

// SignalInput carries a device command report. BillID is optional because
// gateways can emit bare commands before a bill exists.
type SignalInput struct {
	BillID *uuid.UUID
	Action string
}

// SignalAck reports the stored signal back to the device gateway.
type SignalAck struct {
	ID        uuid.UUID  `json:"id"`
	BillID    *uuid.UUID `json:"bill_id,omitempty"`
	Action    string     `json:"action"`
	CreatedAt time.Time  `json:"created_at"`
}

// Service records device signals. Signals are an audit log only and never
// advance bill state.
type Service interface {
	Signal(ctx context.Context, input SignalInput) (*SignalAck, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the signal sink service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("iot repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Signal(ctx context.Context, input SignalInput) (*SignalAck, error) {
	action := strings.TrimSpace(input.Action)
	if action == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signal action is required")
	}
	if len(action) > maxActionLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("signal action must be at most %d characters", maxActionLength))
	}

	signal := &models.IoTSignal{
		BillID: input.BillID,
		Action: action,
	}
	stored, err := s.repo.Create(ctx, signal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store signal")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "action", stored.Action), "device signal recorded")
	}

	return &SignalAck{
		ID:        stored.ID,
		BillID:    stored.BillID,
		Action:    stored.Action,
		CreatedAt: stored.CreatedAt,
	}, nil
}
