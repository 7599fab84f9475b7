package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OwnerSettings holds per-owner billing parameters.
type OwnerSettings struct {
	ID                     snowflake.ID `json:"id" gorm:"primaryKey"`
	OwnerID                snowflake.ID `json:"owner_id" gorm:"column:owner_id;not null;uniqueIndex:ux_owner_settings_owner"`
	FixedWaterBill         int64        `json:"fixed_water_bill" gorm:"not null;default:0"`
	ElectricityRatePerUnit int64        `json:"electricity_rate_per_unit" gorm:"not null;default:0"`
	Currency               string       `json:"currency" gorm:"type:text;not null;default:'INR'"`
	CreatedAt              time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OwnerSettings) TableName() string { return "owner_settings" }
