package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmarchan/fieldrent-backend/pkg/enums"
)

// Bill is one rental charge for a field. A time-mode bill accrues by
// elapsed wall time against RatePerHour; a count-mode bill is priced as
// UnitCount times UnitPrice. Exactly one mode's columns are populated.
type Bill struct {
	ID               uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	FieldName        string            `gorm:"column:field_name;type:text;not null;index"`
	BillingMode      enums.BillingMode `gorm:"column:billing_mode;type:text;not null"`
	RatePerHour      decimal.Decimal   `gorm:"column:rate_per_hour;type:numeric(12,2);not null;default:0"`
	StartTime        time.Time         `gorm:"column:start_time;not null"`
	StopTime         *time.Time        `gorm:"column:stop_time"`
	ElapsedFormatted *string           `gorm:"column:elapsed_formatted"`
	UnitCount        *int64            `gorm:"column:unit_count"`
	UnitPrice        *decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2)"`
	Cost             *decimal.Decimal  `gorm:"column:cost;type:numeric(12,2)"`
	Status           enums.BillStatus  `gorm:"column:status;type:text;not null;default:'open'"`
	PaymentMethod    *string           `gorm:"column:payment_method"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
