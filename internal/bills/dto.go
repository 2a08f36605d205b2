package bills

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmarchan/fieldrent-backend/pkg/enums"
)

// StartBillInput carries the attributes for opening a bill.
type StartBillInput struct {
	UserID    uuid.UUID
	FieldName string
	UnitPrice *decimal.Decimal
}

// StopBillOptions carries the optional final figures supplied at stop time.
type StopBillOptions struct {
	FinalCount     *int64
	FinalUnitPrice *decimal.Decimal
}

// EditBillInput is the admin patch applied verbatim to a bill.
type EditBillInput struct {
	ElapsedFormatted *string
	Cost             *decimal.Decimal
	UnitCount        *int64
	UnitPrice        *decimal.Decimal
	Status           *string
}

// BillFilters describe the inputs supported by the bill list.
type BillFilters struct {
	Status    *enums.BillStatus
	FieldName string
}

// BillResponse is the bill representation returned to clients, including
// the running total of completed payments.
type BillResponse struct {
	ID               uuid.UUID           `json:"id"`
	UserID           uuid.UUID           `json:"user_id"`
	FieldName        string              `json:"field_name"`
	BillingMode      enums.BillingMode   `json:"billing_mode"`
	RatePerHour      decimal.Decimal     `json:"rate_per_hour"`
	StartTime        time.Time           `json:"start_time"`
	StopTime         *time.Time          `json:"stop_time,omitempty"`
	ElapsedFormatted *string             `json:"elapsed_formatted,omitempty"`
	UnitCount        *int64              `json:"unit_count,omitempty"`
	UnitPrice        *decimal.Decimal    `json:"unit_price,omitempty"`
	Cost             *decimal.Decimal    `json:"cost,omitempty"`
	Status           enums.BillStatus    `json:"status"`
	PaymentMethod    *string             `json:"payment_method,omitempty"`
	TotalPaid        decimal.Decimal     `json:"total_paid"`
	CreatedAt        time.Time           `json:"created_at"`
}

// BillList wraps the paginated bills plus the next page cursor.
type BillList struct {
	Bills      []BillResponse `json:"bills"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// DeleteForUserResult reports how many bills a purge removed.
type DeleteForUserResult struct {
	Deleted int64 `json:"deleted"`
}
