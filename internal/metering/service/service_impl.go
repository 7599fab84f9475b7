package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/openstay/rentledger/internal/clock"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	obsmetrics "github.com/openstay/rentledger/internal/observability/metrics"
	"github.com/openstay/rentledger/internal/tenantlock"
	"github.com/openstay/rentledger/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    meteringdomain.Repository
	DirRepo directorydomain.Repository
	Locks   *tenantlock.Keyed
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    meteringdomain.Repository
	dirRepo directorydomain.Repository
	locks   *tenantlock.Keyed
	metrics *obsmetrics.Metrics
}

func New(p Params) meteringdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("metering.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		dirRepo: p.DirRepo,
		locks:   p.Locks,
		metrics: p.Metrics,
	}
}

func (s *Service) SubmitReading(ctx context.Context, req meteringdomain.SubmitReadingRequest) (*meteringdomain.MeterReading, error) {
	if req.TenantID == 0 {
		return nil, meteringdomain.ErrInvalidTenant
	}
	if req.ReadingDate.IsZero() {
		return nil, meteringdomain.ErrInvalidReadingDate
	}
	if req.Value < 0 {
		return nil, meteringdomain.ErrInvalidValue
	}

	var reading *meteringdomain.MeterReading
	err := s.locks.WithLock(req.TenantID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tenant, err := s.dirRepo.FindTenant(ctx, tx, req.TenantID)
			if err != nil {
				return err
			}
			if tenant == nil {
				return directorydomain.ErrTenantNotFound
			}

			now := s.clock.Now()
			readingDate := req.ReadingDate.UTC()

			baseline, err := s.resolveBaseline(ctx, tx, tenant, readingDate, now)
			if err != nil {
				return err
			}

			consumed := req.Value - baseline.Value
			if consumed < 0 {
				return &meteringdomain.NegativeConsumptionError{
					TenantID:        tenant.ID,
					Value:           req.Value,
					Baseline:        baseline.Value,
					SourceReadingID: baseline.SourceReadingID,
				}
			}

			reading = &meteringdomain.MeterReading{
				ID:            s.genID.Generate(),
				OwnerID:       tenant.OwnerID,
				TenantID:      tenant.ID,
				RoomID:        tenant.RoomID,
				ReadingDate:   readingDate,
				Value:         req.Value,
				PreviousValue: baseline.Value,
				UnitsConsumed: consumed,
				CreatedAt:     now,
			}
			if err := s.repo.Insert(ctx, tx, reading); err != nil {
				return err
			}

			// Refresh the room's denormalized convenience field. Never read
			// back as a source of truth.
			if tenant.RoomID != nil {
				if err := s.dirRepo.UpdateRoomMeterCache(ctx, tx, *tenant.RoomID, req.Value, now); err != nil {
					return err
				}
			}

			return nil
		})
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.ReadingsRejected.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReadingsIngested.Inc()
	}
	s.log.Info("meter reading accepted",
		zap.String("tenant_id", reading.TenantID.String()),
		zap.Int64("value", reading.Value),
		zap.Int64("units_consumed", reading.UnitsConsumed),
	)
	return reading, nil
}

func (s *Service) ResolveBaseline(ctx context.Context, tenantID snowflake.ID, asOf time.Time) (meteringdomain.Baseline, error) {
	if tenantID == 0 {
		return meteringdomain.Baseline{}, meteringdomain.ErrInvalidTenant
	}

	tenant, err := s.dirRepo.FindTenant(ctx, s.db, tenantID)
	if err != nil {
		return meteringdomain.Baseline{}, err
	}
	if tenant == nil {
		return meteringdomain.Baseline{}, directorydomain.ErrTenantNotFound
	}

	return s.resolveBaseline(ctx, s.db, tenant, asOf.UTC(), s.clock.Now())
}

// resolveBaseline walks back from (asOf, asOfCreated) within the tenant's
// occupancy window; the tenant's meter_reading_start covers the first reading
// of a window.
func (s *Service) resolveBaseline(ctx context.Context, db *gorm.DB, tenant *directorydomain.Tenant, asOf, asOfCreated time.Time) (meteringdomain.Baseline, error) {
	if tenant.StartDate == nil {
		return meteringdomain.Baseline{}, meteringdomain.ErrNoOccupancy
	}

	window := meteringdomain.Window{Start: *tenant.StartDate}
	if !tenant.IsActive && tenant.EndDate != nil {
		window.End = tenant.EndDate
	}

	prev, err := s.repo.FindBaseline(ctx, db, tenant.ID, window, asOf, asOfCreated)
	if err != nil {
		return meteringdomain.Baseline{}, err
	}
	if prev == nil {
		return meteringdomain.Baseline{Value: tenant.MeterReadingStart}, nil
	}

	sourceID := prev.ID
	return meteringdomain.Baseline{Value: prev.Value, SourceReadingID: &sourceID}, nil
}

func (s *Service) LatestReading(ctx context.Context, tenantID snowflake.ID, since time.Time) (*meteringdomain.MeterReading, error) {
	if tenantID == 0 {
		return nil, meteringdomain.ErrInvalidTenant
	}
	return s.repo.FindLatest(ctx, s.db, tenantID, since.UTC())
}

func (s *Service) ListReadings(ctx context.Context, req meteringdomain.ListReadingsRequest) (meteringdomain.ListReadingsResponse, error) {
	if req.TenantID == 0 {
		return meteringdomain.ListReadingsResponse{}, meteringdomain.ErrInvalidTenant
	}

	limit := req.PageSize
	if limit <= 0 {
		limit = 25
	}

	var afterID snowflake.ID
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return meteringdomain.ListReadingsResponse{}, err
		}
		parsed, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return meteringdomain.ListReadingsResponse{}, err
		}
		afterID = parsed
	}

	rows, err := s.repo.List(ctx, s.db, req.TenantID, limit+1, afterID)
	if err != nil {
		return meteringdomain.ListReadingsResponse{}, err
	}

	rows, pageInfo := pagination.BuildCursorPageInfo(rows, limit, func(r *meteringdomain.MeterReading) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: strconv.FormatInt(r.ID.Int64(), 10)})
		return token
	})

	readings := make([]meteringdomain.MeterReading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, *row)
	}

	return meteringdomain.ListReadingsResponse{
		PageInfo: *pageInfo,
		Readings: readings,
	}, nil
}
