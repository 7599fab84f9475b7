package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Window bounds a tenant occupancy. End is nil while the tenant is occupying.
type Window struct {
	Start time.Time
	End   *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reading *MeterReading) error

	// FindBaseline returns the entry with the greatest (reading_date,
	// created_at) strictly preceding (before, beforeCreated) inside the
	// window, or nil when the window holds no earlier entry.
	FindBaseline(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, window Window, before time.Time, beforeCreated time.Time) (*MeterReading, error)

	// FindLatest returns the entry with the greatest (reading_date,
	// created_at) with reading_date >= since, or nil.
	FindLatest(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, since time.Time) (*MeterReading, error)

	// FindLatestForRoom is FindLatest narrowed to one room, used by the
	// multi-room bill composer.
	FindLatestForRoom(ctx context.Context, db *gorm.DB, tenantID, roomID snowflake.ID, since time.Time) (*MeterReading, error)

	// FindEarliestForRoom returns the chronologically first entry for the
	// room within the window, used to recover a per-room opening value.
	FindEarliestForRoom(ctx context.Context, db *gorm.DB, tenantID, roomID snowflake.ID, since time.Time) (*MeterReading, error)

	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, limit int, afterID snowflake.ID) ([]*MeterReading, error)

	// ListLedger returns every entry for the tenant in ledger order, oldest
	// first, for reconciliation.
	ListLedger(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]*MeterReading, error)

	// UpdateDerived rewrites the derived fields of one entry. The observed
	// value is never touched.
	UpdateDerived(ctx context.Context, db *gorm.DB, id snowflake.ID, previousValue, unitsConsumed int64, flags datatypes.JSONMap) error
}
