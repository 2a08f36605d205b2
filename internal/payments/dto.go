package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmarchan/fieldrent-backend/pkg/enums"
)

// RecordPaymentInput carries the attributes for recording an installment.
type RecordPaymentInput struct {
	BillID uuid.UUID
	Amount decimal.Decimal
	Method string
}

// PaymentResponse is the payment representation returned to clients.
type PaymentResponse struct {
	ID        uuid.UUID           `json:"id"`
	BillID    uuid.UUID           `json:"bill_id"`
	Amount    decimal.Decimal     `json:"amount"`
	Method    string              `json:"method"`
	Status    enums.PaymentStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// ConfirmResult reports the confirmed payment and whether it settled the bill.
type ConfirmResult struct {
	Payment     PaymentResponse `json:"payment"`
	BillSettled bool            `json:"bill_settled"`
}

// BillPayments is the installment history for a single bill. UserID is the
// bill owner, carried so callers can authorize access.
type BillPayments struct {
	BillID   uuid.UUID         `json:"bill_id"`
	UserID   uuid.UUID         `json:"user_id"`
	Payments []PaymentResponse `json:"payments"`
}

// PayDirectResult reports the outcome of a direct settle.
type PayDirectResult struct {
	BillID  uuid.UUID        `json:"bill_id"`
	Amount  decimal.Decimal  `json:"amount"`
	Payment *PaymentResponse `json:"payment,omitempty"`
	Settled bool             `json:"settled"`
}
