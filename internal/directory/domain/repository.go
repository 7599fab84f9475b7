package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertRoom(ctx context.Context, db *gorm.DB, room *Room) error
	InsertTenant(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	FindRoom(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	FindTenant(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tenant, error)

	// ListRoomsByTenant returns every room currently held by the tenant.
	// More than one row means the tenant is billed with the multi-room
	// variant.
	ListRoomsByTenant(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]Room, error)

	SetOccupancy(ctx context.Context, db *gorm.DB, tenant *Tenant, room *Room) error
	ClearOccupancy(ctx context.Context, db *gorm.DB, tenant *Tenant, endDate time.Time) error

	// UpdateRoomMeterCache refreshes the room's denormalized current reading.
	UpdateRoomMeterCache(ctx context.Context, db *gorm.DB, roomID snowflake.ID, value int64, at time.Time) error

	// UpdateTenantOutstanding overwrites the tenant's outstanding balance
	// summary (last-write-wins by design).
	UpdateTenantOutstanding(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, balance int64, at time.Time) error

	// ListTenantIDs pages through all tenant ids for batch jobs.
	ListTenantIDs(ctx context.Context, db *gorm.DB, limit int, afterID snowflake.ID) ([]snowflake.ID, error)
}
