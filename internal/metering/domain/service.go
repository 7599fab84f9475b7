package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/openstay/rentledger/pkg/db/pagination"
)

type Service interface {
	// SubmitReading validates and appends a reading. A reading whose value is
	// below its resolved baseline fails with *NegativeConsumptionError and
	// nothing is stored; the write path never clamps.
	SubmitReading(ctx context.Context, req SubmitReadingRequest) (*MeterReading, error)

	// ResolveBaseline returns the meter value consumption is measured from at
	// asOf: the latest ledger entry strictly before asOf within the tenant's
	// current occupancy window, else the tenant's meter_reading_start.
	ResolveBaseline(ctx context.Context, tenantID snowflake.ID, asOf time.Time) (Baseline, error)

	// LatestReading returns the most recent ledger entry for the tenant with
	// reading_date >= since, or nil when the ledger is empty in that window.
	LatestReading(ctx context.Context, tenantID snowflake.ID, since time.Time) (*MeterReading, error)

	ListReadings(ctx context.Context, req ListReadingsRequest) (ListReadingsResponse, error)
}

type SubmitReadingRequest struct {
	TenantID    snowflake.ID
	ReadingDate time.Time `json:"reading_date"`
	Value       int64     `json:"value"`
}

type Baseline struct {
	Value           int64
	SourceReadingID *snowflake.ID // nil when falling back to meter_reading_start
}

type ListReadingsRequest struct {
	TenantID snowflake.ID
	pagination.Pagination
}

type ListReadingsResponse struct {
	pagination.PageInfo
	Readings []MeterReading `json:"readings"`
}

var (
	ErrInvalidTenant      = errors.New("invalid_tenant")
	ErrInvalidReadingDate = errors.New("invalid_reading_date")
	ErrInvalidValue       = errors.New("invalid_value")
	ErrNoOccupancy        = errors.New("tenant_has_no_occupancy")
)

// NegativeConsumptionError reports a reading below its baseline, naming the
// conflicting values so the operator can locate the bad entry.
type NegativeConsumptionError struct {
	TenantID        snowflake.ID
	Value           int64
	Baseline        int64
	SourceReadingID *snowflake.ID
}

func (e *NegativeConsumptionError) Error() string {
	return fmt.Sprintf("negative_consumption: value %d is below baseline %d", e.Value, e.Baseline)
}
