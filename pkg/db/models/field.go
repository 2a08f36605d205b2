package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmarchan/fieldrent-backend/pkg/enums"
)

// Field is a rentable plot together with its billing configuration.
type Field struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"column:name;type:text;not null;uniqueIndex"`
	BillingMode enums.BillingMode `gorm:"column:billing_mode;type:text;not null;default:'time'"`
	RatePerHour decimal.Decimal   `gorm:"column:rate_per_hour;type:numeric(12,2);not null;default:0"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
