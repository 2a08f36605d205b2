package models

import (
	"time"

	"github.com/google/uuid"
)

// IoTSignal is an audit row for a device command. Signals are logged and
// acknowledged; no actuation happens server-side.
type IoTSignal struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BillID    *uuid.UUID `gorm:"column:bill_id;type:uuid;index"`
	Action    string     `gorm:"column:action;type:text;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
