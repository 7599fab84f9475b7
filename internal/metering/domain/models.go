// Package domain contains the meter reading ledger models. Readings are
// append-only; previous_value/units_consumed are derived fields that only the
// write path and the reconciliation job may set. Ledger order is
// (reading_date, created_at), not insertion order.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// MeterReading is one immutable ledger entry.
type MeterReading struct {
	ID            snowflake.ID      `json:"id" gorm:"primaryKey"`
	OwnerID       snowflake.ID      `json:"owner_id" gorm:"column:owner_id;not null;index"`
	TenantID      snowflake.ID      `json:"tenant_id" gorm:"not null;index:ix_meter_readings_tenant_date,priority:1"`
	RoomID        *snowflake.ID     `json:"room_id"`
	ReadingDate   time.Time         `json:"reading_date" gorm:"not null;index:ix_meter_readings_tenant_date,priority:2"`
	Value         int64             `json:"value" gorm:"not null"`
	PreviousValue int64             `json:"previous_value" gorm:"not null;default:0"`
	UnitsConsumed int64             `json:"units_consumed" gorm:"not null;default:0"`
	Flags         datatypes.JSONMap `json:"flags,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index:ix_meter_readings_tenant_date,priority:3"`
}

// TableName sets the database table name.
func (MeterReading) TableName() string { return "meter_readings" }
