package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() meteringdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reading *meteringdomain.MeterReading) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO meter_readings (id, owner_id, tenant_id, room_id, reading_date, value, previous_value, units_consumed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reading.ID,
		reading.OwnerID,
		reading.TenantID,
		reading.RoomID,
		reading.ReadingDate,
		reading.Value,
		reading.PreviousValue,
		reading.UnitsConsumed,
		reading.CreatedAt,
	).Error
}

func (r *repo) FindBaseline(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, window meteringdomain.Window, before time.Time, beforeCreated time.Time) (*meteringdomain.MeterReading, error) {
	query := `SELECT id, owner_id, tenant_id, room_id, reading_date, value, previous_value, units_consumed, created_at
	 FROM meter_readings
	 WHERE tenant_id = ?
	   AND reading_date >= ?
	   AND (reading_date < ? OR (reading_date = ? AND created_at < ?))`
	args := []any{tenantID, window.Start, before, before, beforeCreated}

	if window.End != nil {
		query += ` AND reading_date <= ?`
		args = append(args, *window.End)
	}
	query += ` ORDER BY reading_date DESC, created_at DESC LIMIT 1`

	var reading meteringdomain.MeterReading
	err := db.WithContext(ctx).Raw(query, args...).Scan(&reading).Error
	if err != nil {
		return nil, err
	}
	if reading.ID == 0 {
		return nil, nil
	}
	return &reading, nil
}

func (r *repo) FindLatest(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, since time.Time) (*meteringdomain.MeterReading, error) {
	var reading meteringdomain.MeterReading
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, tenant_id, room_id, reading_date, value, previous_value, units_consumed, created_at
		 FROM meter_readings
		 WHERE tenant_id = ? AND reading_date >= ?
		 ORDER BY reading_date DESC, created_at DESC
		 LIMIT 1`,
		tenantID,
		since,
	).Scan(&reading).Error
	if err != nil {
		return nil, err
	}
	if reading.ID == 0 {
		return nil, nil
	}
	return &reading, nil
}

func (r *repo) FindLatestForRoom(ctx context.Context, db *gorm.DB, tenantID, roomID snowflake.ID, since time.Time) (*meteringdomain.MeterReading, error) {
	var reading meteringdomain.MeterReading
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, tenant_id, room_id, reading_date, value, previous_value, units_consumed, created_at
		 FROM meter_readings
		 WHERE tenant_id = ? AND room_id = ? AND reading_date >= ?
		 ORDER BY reading_date DESC, created_at DESC
		 LIMIT 1`,
		tenantID,
		roomID,
		since,
	).Scan(&reading).Error
	if err != nil {
		return nil, err
	}
	if reading.ID == 0 {
		return nil, nil
	}
	return &reading, nil
}

func (r *repo) FindEarliestForRoom(ctx context.Context, db *gorm.DB, tenantID, roomID snowflake.ID, since time.Time) (*meteringdomain.MeterReading, error) {
	var reading meteringdomain.MeterReading
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, tenant_id, room_id, reading_date, value, previous_value, units_consumed, created_at
		 FROM meter_readings
		 WHERE tenant_id = ? AND room_id = ? AND reading_date >= ?
		 ORDER BY reading_date ASC, created_at ASC
		 LIMIT 1`,
		tenantID,
		roomID,
		since,
	).Scan(&reading).Error
	if err != nil {
		return nil, err
	}
	if reading.ID == 0 {
		return nil, nil
	}
	return &reading, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, limit int, afterID snowflake.ID) ([]*meteringdomain.MeterReading, error) {
	query := `SELECT id, owner_id, tenant_id, room_id, reading_date, value, previous_value, units_consumed, created_at
	 FROM meter_readings
	 WHERE tenant_id = ?`
	args := []any{tenantID}

	if afterID != 0 {
		query += ` AND id < ?`
		args = append(args, afterID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	var readings []*meteringdomain.MeterReading
	err := db.WithContext(ctx).Raw(query, args...).Scan(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *repo) ListLedger(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]*meteringdomain.MeterReading, error) {
	var readings []*meteringdomain.MeterReading
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, tenant_id, room_id, reading_date, value, previous_value, units_consumed, flags, created_at
		 FROM meter_readings
		 WHERE tenant_id = ?
		 ORDER BY reading_date ASC, created_at ASC`,
		tenantID,
	).Scan(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

func (r *repo) UpdateDerived(ctx context.Context, db *gorm.DB, id snowflake.ID, previousValue, unitsConsumed int64, flags datatypes.JSONMap) error {
	return db.WithContext(ctx).Exec(
		`UPDATE meter_readings SET previous_value = ?, units_consumed = ?, flags = ? WHERE id = ?`,
		previousValue,
		unitsConsumed,
		flags,
		id,
	).Error
}
