package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/openstay/rentledger/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() billingdomain.Repository {
	return &repo{}
}

const billColumns = `id, owner_id, tenant_id, bill_month, bill_year,
	 meter_start_units, meter_end_units, meter_units_consumed,
	 rate_per_unit, water_charge, rent_amount, previous_due, electricity_amount, total_amount,
	 amount_paid, remaining_due, status, created_at, updated_at`

func (r *repo) InsertBill(ctx context.Context, db *gorm.DB, bill *billingdomain.MonthlyBill, details []billingdomain.BillRoomDetail) error {
	if err := db.WithContext(ctx).Exec(
		`INSERT INTO monthly_bills (`+billColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID,
		bill.OwnerID,
		bill.TenantID,
		bill.BillMonth,
		bill.BillYear,
		bill.MeterStartUnits,
		bill.MeterEndUnits,
		bill.MeterUnitsConsumed,
		bill.RatePerUnit,
		bill.WaterCharge,
		bill.RentAmount,
		bill.PreviousDue,
		bill.ElectricityAmount,
		bill.TotalAmount,
		bill.AmountPaid,
		bill.RemainingDue,
		bill.Status,
		bill.CreatedAt,
		bill.UpdatedAt,
	).Error; err != nil {
		return err
	}

	for _, detail := range details {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO bill_room_details (id, bill_id, room_id, start_units, end_units, units_consumed, rent_amount, electricity_amount, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			detail.ID,
			detail.BillID,
			detail.RoomID,
			detail.StartUnits,
			detail.EndUnits,
			detail.UnitsConsumed,
			detail.RentAmount,
			detail.ElectricityAmount,
			detail.CreatedAt,
		).Error; err != nil {
			return err
		}
	}

	return nil
}

func (r *repo) FindBill(ctx context.Context, db *gorm.DB, id snowflake.ID) (*billingdomain.MonthlyBill, error) {
	var bill billingdomain.MonthlyBill
	err := db.WithContext(ctx).Raw(
		`SELECT `+billColumns+` FROM monthly_bills WHERE id = ?`,
		id,
	).Scan(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) LoadRoomDetails(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]billingdomain.BillRoomDetail, error) {
	var details []billingdomain.BillRoomDetail
	err := db.WithContext(ctx).Raw(
		`SELECT id, bill_id, room_id, start_units, end_units, units_consumed, rent_amount, electricity_amount, created_at
		 FROM bill_room_details WHERE bill_id = ? ORDER BY id`,
		billID,
	).Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repo) LoadPayments(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]billingdomain.BillPayment, error) {
	var payments []billingdomain.BillPayment
	err := db.WithContext(ctx).Raw(
		`SELECT id, bill_id, tenant_id, amount, mode, note, paid_on, metadata, created_at
		 FROM bill_payments WHERE bill_id = ? ORDER BY created_at ASC, id ASC`,
		billID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) FindCurrentForPeriod(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, month, year int) (*billingdomain.MonthlyBill, error) {
	var bill billingdomain.MonthlyBill
	err := db.WithContext(ctx).Raw(
		`SELECT `+billColumns+`
		 FROM monthly_bills
		 WHERE tenant_id = ? AND bill_month = ? AND bill_year = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		tenantID,
		month,
		year,
	).Scan(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) FindLatestSince(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, since time.Time) (*billingdomain.MonthlyBill, error) {
	var bill billingdomain.MonthlyBill
	err := db.WithContext(ctx).Raw(
		`SELECT `+billColumns+`
		 FROM monthly_bills
		 WHERE tenant_id = ? AND created_at >= ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		tenantID,
		since,
	).Scan(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) FindLatestRoomDetail(ctx context.Context, db *gorm.DB, tenantID, roomID snowflake.ID) (*billingdomain.BillRoomDetail, error) {
	var detail billingdomain.BillRoomDetail
	err := db.WithContext(ctx).Raw(
		`SELECT d.id, d.bill_id, d.room_id, d.start_units, d.end_units, d.units_consumed, d.rent_amount, d.electricity_amount, d.created_at
		 FROM bill_room_details d
		 JOIN monthly_bills b ON b.id = d.bill_id
		 WHERE b.tenant_id = ? AND d.room_id = ?
		 ORDER BY d.created_at DESC, d.id DESC
		 LIMIT 1`,
		tenantID,
		roomID,
	).Scan(&detail).Error
	if err != nil {
		return nil, err
	}
	if detail.ID == 0 {
		return nil, nil
	}
	return &detail, nil
}

func (r *repo) SumOpenDues(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, excludeMonth, excludeYear int) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(remaining_due), 0)
		 FROM monthly_bills
		 WHERE tenant_id = ?
		   AND status IN (?, ?)
		   AND NOT (bill_month = ? AND bill_year = ?)`,
		tenantID,
		billingdomain.BillStatusPending,
		billingdomain.BillStatusPartial,
		excludeMonth,
		excludeYear,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *billingdomain.BillPayment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bill_payments (id, bill_id, tenant_id, amount, mode, note, paid_on, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.BillID,
		payment.TenantID,
		payment.Amount,
		payment.Mode,
		payment.Note,
		payment.PaidOn,
		payment.Metadata,
		payment.CreatedAt,
	).Error
}

func (r *repo) UpdatePaymentTotals(ctx context.Context, db *gorm.DB, billID snowflake.ID, amountPaid, remainingDue int64, status billingdomain.BillStatus, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE monthly_bills
		 SET amount_paid = ?, remaining_due = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		amountPaid,
		remainingDue,
		status,
		at,
		billID,
	).Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, billID snowflake.ID, status billingdomain.BillStatus, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE monthly_bills SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		at,
		billID,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, limit int, afterID snowflake.ID) ([]*billingdomain.MonthlyBill, error) {
	query := `SELECT ` + billColumns + ` FROM monthly_bills WHERE tenant_id = ?`
	args := []any{tenantID}

	if afterID != 0 {
		query += ` AND id < ?`
		args = append(args, afterID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	var bills []*billingdomain.MonthlyBill
	err := db.WithContext(ctx).Raw(query, args...).Scan(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}
