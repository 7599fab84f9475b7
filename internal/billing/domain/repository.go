package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertBill(ctx context.Context, db *gorm.DB, bill *MonthlyBill, details []BillRoomDetail) error
	FindBill(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MonthlyBill, error)
	LoadRoomDetails(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]BillRoomDetail, error)
	LoadPayments(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]BillPayment, error)

	// FindCurrentForPeriod returns the latest-created bill matching the
	// period, or nil.
	FindCurrentForPeriod(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, month, year int) (*MonthlyBill, error)

	// FindLatestSince returns the tenant's most recently created bill with
	// created_at >= since, or nil.
	FindLatestSince(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, since time.Time) (*MonthlyBill, error)

	// FindLatestRoomDetail returns the newest room detail for (tenant, room)
	// across that tenant's bills, or nil.
	FindLatestRoomDetail(ctx context.Context, db *gorm.DB, tenantID, roomID snowflake.ID) (*BillRoomDetail, error)

	// SumOpenDues sums remaining_due over PENDING/PARTIAL bills, excluding
	// any bill already on the target period so a bill never counts its own
	// prior draft as a due.
	SumOpenDues(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, excludeMonth, excludeYear int) (int64, error)

	InsertPayment(ctx context.Context, db *gorm.DB, payment *BillPayment) error
	UpdatePaymentTotals(ctx context.Context, db *gorm.DB, billID snowflake.ID, amountPaid, remainingDue int64, status BillStatus, at time.Time) error
	UpdateStatus(ctx context.Context, db *gorm.DB, billID snowflake.ID, status BillStatus, at time.Time) error

	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, limit int, afterID snowflake.ID) ([]*MonthlyBill, error)
}
