package fields

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmarchan/fieldrent-backend/pkg/enums"
)

// CreateFieldInput carries the attributes for registering a field.
type CreateFieldInput struct {
	Name        string
	BillingMode string
	RatePerHour *decimal.Decimal
}

// FieldResponse is the field representation returned to clients.
type FieldResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	BillingMode enums.BillingMode `json:"billing_mode"`
	RatePerHour decimal.Decimal   `json:"rate_per_hour"`
	CreatedAt   time.Time         `json:"created_at"`
}

// FieldList wraps the full field listing.
type FieldList struct {
	Fields []FieldResponse `json:"fields"`
}

// DeleteFieldResult reports the name freed by a delete.
type DeleteFieldResult struct {
	FieldName string `json:"field_name"`
}
