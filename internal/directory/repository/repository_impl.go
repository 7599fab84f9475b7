package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() directorydomain.Repository {
	return &repo{}
}

func (r *repo) InsertRoom(ctx context.Context, db *gorm.DB, room *directorydomain.Room) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO rooms (id, owner_id, name, base_rent, current_tenant_id, current_meter_reading, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.OwnerID,
		room.Name,
		room.BaseRent,
		room.CurrentTenantID,
		room.CurrentMeterReading,
		room.CreatedAt,
		room.UpdatedAt,
	).Error
}

func (r *repo) InsertTenant(ctx context.Context, db *gorm.DB, tenant *directorydomain.Tenant) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tenants (id, owner_id, room_id, name, base_rent, meter_reading_start, start_date, end_date, is_active, outstanding_balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tenant.ID,
		tenant.OwnerID,
		tenant.RoomID,
		tenant.Name,
		tenant.BaseRent,
		tenant.MeterReadingStart,
		tenant.StartDate,
		tenant.EndDate,
		tenant.IsActive,
		tenant.OutstandingBalance,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	).Error
}

func (r *repo) FindRoom(ctx context.Context, db *gorm.DB, id snowflake.ID) (*directorydomain.Room, error) {
	var room directorydomain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, name, base_rent, current_tenant_id, current_meter_reading, created_at, updated_at
		 FROM rooms WHERE id = ?`,
		id,
	).Scan(&room).Error
	if err != nil {
		return nil, err
	}
	if room.ID == 0 {
		return nil, nil
	}
	return &room, nil
}

func (r *repo) FindTenant(ctx context.Context, db *gorm.DB, id snowflake.ID) (*directorydomain.Tenant, error) {
	var tenant directorydomain.Tenant
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, room_id, name, base_rent, meter_reading_start, start_date, end_date, is_active, outstanding_balance, created_at, updated_at
		 FROM tenants WHERE id = ?`,
		id,
	).Scan(&tenant).Error
	if err != nil {
		return nil, err
	}
	if tenant.ID == 0 {
		return nil, nil
	}
	return &tenant, nil
}

func (r *repo) ListRoomsByTenant(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]directorydomain.Room, error) {
	var rooms []directorydomain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner_id, name, base_rent, current_tenant_id, current_meter_reading, created_at, updated_at
		 FROM rooms WHERE current_tenant_id = ? ORDER BY id`,
		tenantID,
	).Scan(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *repo) SetOccupancy(ctx context.Context, db *gorm.DB, tenant *directorydomain.Tenant, room *directorydomain.Room) error {
	if err := db.WithContext(ctx).Exec(
		`UPDATE tenants
		 SET room_id = ?, meter_reading_start = ?, start_date = ?, end_date = NULL, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		tenant.RoomID,
		tenant.MeterReadingStart,
		tenant.StartDate,
		true,
		tenant.UpdatedAt,
		tenant.ID,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`UPDATE rooms
		 SET current_tenant_id = ?, current_meter_reading = ?, updated_at = ?
		 WHERE id = ?`,
		tenant.ID,
		tenant.MeterReadingStart,
		tenant.UpdatedAt,
		room.ID,
	).Error
}

func (r *repo) ClearOccupancy(ctx context.Context, db *gorm.DB, tenant *directorydomain.Tenant, endDate time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`UPDATE tenants
		 SET end_date = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		endDate,
		false,
		tenant.UpdatedAt,
		tenant.ID,
	).Error; err != nil {
		return err
	}
	// A tenant may hold several rooms; free them all.
	return db.WithContext(ctx).Exec(
		`UPDATE rooms
		 SET current_tenant_id = NULL, updated_at = ?
		 WHERE current_tenant_id = ?`,
		tenant.UpdatedAt,
		tenant.ID,
	).Error
}

func (r *repo) UpdateRoomMeterCache(ctx context.Context, db *gorm.DB, roomID snowflake.ID, value int64, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE rooms SET current_meter_reading = ?, updated_at = ? WHERE id = ?`,
		value,
		at,
		roomID,
	).Error
}

func (r *repo) UpdateTenantOutstanding(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, balance int64, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tenants SET outstanding_balance = ?, updated_at = ? WHERE id = ?`,
		balance,
		at,
		tenantID,
	).Error
}

func (r *repo) ListTenantIDs(ctx context.Context, db *gorm.DB, limit int, afterID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM tenants WHERE id > ? ORDER BY id ASC LIMIT ?`,
		afterID,
		limit,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
