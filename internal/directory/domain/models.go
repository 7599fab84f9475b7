package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Room is a rentable unit. current_meter_reading is a denormalized
// convenience cache refreshed on every accepted reading; the meter ledger is
// the source of truth and the resolver never reads this field.
type Room struct {
	ID                  snowflake.ID  `json:"id" gorm:"primaryKey"`
	OwnerID             snowflake.ID  `json:"owner_id" gorm:"column:owner_id;not null;index"`
	Name                string        `json:"name" gorm:"type:text;not null"`
	BaseRent            int64         `json:"base_rent" gorm:"not null;default:0"`
	CurrentTenantID     *snowflake.ID `json:"current_tenant_id" gorm:"index"`
	CurrentMeterReading int64         `json:"current_meter_reading" gorm:"not null;default:0"`
	CreatedAt           time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Room) TableName() string { return "rooms" }

// Tenant is an occupant. StartDate/EndDate bound the current occupancy
// window; MeterReadingStart is the meter baseline for that window and is
// overwritten on re-occupancy. OutstandingBalance mirrors the remaining due
// of the last bill touched by a payment (last-write-wins, not a sum).
type Tenant struct {
	ID                 snowflake.ID  `json:"id" gorm:"primaryKey"`
	OwnerID            snowflake.ID  `json:"owner_id" gorm:"column:owner_id;not null;index"`
	RoomID             *snowflake.ID `json:"room_id" gorm:"index"`
	Name               string        `json:"name" gorm:"type:text;not null"`
	BaseRent           int64         `json:"base_rent" gorm:"not null;default:0"`
	MeterReadingStart  int64         `json:"meter_reading_start" gorm:"not null;default:0"`
	StartDate          *time.Time    `json:"start_date"`
	EndDate            *time.Time    `json:"end_date"`
	IsActive           bool          `json:"is_active" gorm:"not null;default:true"`
	OutstandingBalance int64         `json:"outstanding_balance" gorm:"not null;default:0"`
	CreatedAt          time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
