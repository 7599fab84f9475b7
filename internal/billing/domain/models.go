package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillStatus tracks payment progress. Transitions only move forward:
// PENDING -> PARTIAL -> PAID.
type BillStatus string

const (
	BillStatusPending BillStatus = "PENDING"
	BillStatusPartial BillStatus = "PARTIAL"
	BillStatusPaid    BillStatus = "PAID"
)

// StatusFor derives the status from the payment totals. remaining == 0 with a
// positive total means PAID; any payment short of the total means PARTIAL.
func StatusFor(totalAmount, amountPaid int64) BillStatus {
	remaining := totalAmount - amountPaid
	switch {
	case remaining <= 0 && totalAmount > 0:
		return BillStatusPaid
	case amountPaid > 0:
		return BillStatusPartial
	default:
		return BillStatusPending
	}
}

func ValidStatus(status BillStatus) bool {
	switch status {
	case BillStatusPending, BillStatusPartial, BillStatusPaid:
		return true
	default:
		return false
	}
}

// MonthlyBill is one bill for a tenant and calendar month. The period is NOT
// unique per tenant: corrections create new bills, and the current bill for a
// period is the one with the latest created_at.
type MonthlyBill struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OwnerID   snowflake.ID `json:"owner_id" gorm:"column:owner_id;not null;index"`
	TenantID  snowflake.ID `json:"tenant_id" gorm:"not null;index:ix_monthly_bills_tenant_period,priority:1"`
	BillMonth int          `json:"bill_month" gorm:"column:bill_month;not null;index:ix_monthly_bills_tenant_period,priority:3"`
	BillYear  int          `json:"bill_year" gorm:"column:bill_year;not null;index:ix_monthly_bills_tenant_period,priority:2"`

	MeterStartUnits    int64 `json:"meter_start_units" gorm:"not null;default:0"`
	MeterEndUnits      int64 `json:"meter_end_units" gorm:"not null;default:0"`
	MeterUnitsConsumed int64 `json:"meter_units_consumed" gorm:"not null;default:0"`

	RatePerUnit       int64 `json:"rate_per_unit" gorm:"not null;default:0"`
	WaterCharge       int64 `json:"water_charge" gorm:"not null;default:0"`
	RentAmount        int64 `json:"rent_amount" gorm:"not null;default:0"`
	PreviousDue       int64 `json:"previous_due" gorm:"not null;default:0"`
	ElectricityAmount int64 `json:"electricity_amount" gorm:"not null;default:0"`
	TotalAmount       int64 `json:"total_amount" gorm:"not null;default:0"`

	AmountPaid   int64      `json:"amount_paid" gorm:"not null;default:0"`
	RemainingDue int64      `json:"remaining_due" gorm:"not null;default:0"`
	Status       BillStatus `json:"status" gorm:"type:text;not null;default:'PENDING'"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	RoomDetails []BillRoomDetail `json:"room_details,omitempty" gorm:"-"`
	Payments    []BillPayment    `json:"payments,omitempty" gorm:"-"`
}

// TableName sets the database table name.
func (MonthlyBill) TableName() string { return "monthly_bills" }

// BillRoomDetail is the per-room breakdown of a multi-room bill.
type BillRoomDetail struct {
	ID                snowflake.ID `json:"id" gorm:"primaryKey"`
	BillID            snowflake.ID `json:"bill_id" gorm:"not null;index"`
	RoomID            snowflake.ID `json:"room_id" gorm:"not null"`
	StartUnits        int64        `json:"start_units" gorm:"not null;default:0"`
	EndUnits          int64        `json:"end_units" gorm:"not null;default:0"`
	UnitsConsumed     int64        `json:"units_consumed" gorm:"not null;default:0"`
	RentAmount        int64        `json:"rent_amount" gorm:"not null;default:0"`
	ElectricityAmount int64        `json:"electricity_amount" gorm:"not null;default:0"`
	CreatedAt         time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillRoomDetail) TableName() string { return "bill_room_details" }

// BillPayment is one append-only payment ledger entry. Rows are never
// updated or deleted; there is no reversal type.
type BillPayment struct {
	ID        snowflake.ID      `json:"id" gorm:"primaryKey"`
	BillID    snowflake.ID      `json:"bill_id" gorm:"not null;index"`
	TenantID  snowflake.ID      `json:"tenant_id" gorm:"not null"`
	Amount    int64             `json:"amount" gorm:"not null"`
	Mode      string            `json:"mode" gorm:"type:text;not null;default:'cash'"`
	Note      string            `json:"note" gorm:"type:text"`
	PaidOn    time.Time         `json:"paid_on" gorm:"not null"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillPayment) TableName() string { return "bill_payments" }
