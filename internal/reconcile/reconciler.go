// Package reconcile rewrites the derived fields of the meter ledger. It walks
// each tenant's ledger in (reading_date, created_at) order, recomputes
// previous_value and units_consumed from the running chain, clamps negative
// consumption to zero and flags the entry. A run over a consistent ledger
// writes nothing, so the job is safe to repeat.
package reconcile

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/openstay/rentledger/internal/clock"
	"github.com/openstay/rentledger/internal/config"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	obsmetrics "github.com/openstay/rentledger/internal/observability/metrics"
	"github.com/openstay/rentledger/internal/tenantlock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FlagNegativeConsumption marks an entry whose observed value fell below the
// running chain and was clamped to zero consumption.
const FlagNegativeConsumption = "negative_consumption"

type Result struct {
	TenantsScanned   int   `json:"tenants_scanned"`
	EntriesProcessed int64 `json:"entries_processed"`
	EntriesFlagged   int64 `json:"entries_flagged"`
}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       meteringdomain.Repository
	DirRepo    directorydomain.Repository
	Locks      *tenantlock.Keyed
	BillingCfg *config.BillingConfigHolder
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Reconciler struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	repo       meteringdomain.Repository
	dirRepo    directorydomain.Repository
	locks      *tenantlock.Keyed
	billingCfg *config.BillingConfigHolder
	metrics    *obsmetrics.Metrics
}

func New(p Params) *Reconciler {
	return &Reconciler{
		db:         p.DB,
		log:        p.Log.Named("reconcile"),
		clock:      p.Clock,
		repo:       p.Repo,
		dirRepo:    p.DirRepo,
		locks:      p.Locks,
		billingCfg: p.BillingCfg,
		metrics:    p.Metrics,
	}
}

// Run reconciles every tenant's ledger. A tenant that fails is logged and
// skipped; one bad ledger never blocks the rest of the run.
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	started := r.clock.Now()
	batchSize := r.billingCfg.Get().ReconcileBatchSize

	var result Result
	var afterID snowflake.ID
	for {
		ids, err := r.dirRepo.ListTenantIDs(ctx, r.db, batchSize, afterID)
		if err != nil {
			return result, err
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			tenantResult, err := r.RunTenant(ctx, id)
			if err != nil {
				r.log.Error("tenant reconciliation failed",
					zap.String("tenant_id", id.String()),
					zap.Error(err),
				)
				continue
			}
			result.TenantsScanned++
			result.EntriesProcessed += tenantResult.EntriesProcessed
			result.EntriesFlagged += tenantResult.EntriesFlagged
		}
		afterID = ids[len(ids)-1]
	}

	if r.metrics != nil {
		r.metrics.ReconcileRuns.Inc()
		r.metrics.ReconcileEntries.Add(float64(result.EntriesProcessed))
		r.metrics.ReconcileFlagged.Add(float64(result.EntriesFlagged))
		r.metrics.ReconcileDuration.Observe(r.clock.Now().Sub(started).Seconds())
	}

	r.log.Info("reconciliation finished",
		zap.Int("tenants_scanned", result.TenantsScanned),
		zap.Int64("entries_processed", result.EntriesProcessed),
		zap.Int64("entries_flagged", result.EntriesFlagged),
	)
	return result, nil
}

// RunTenant reconciles one tenant's ledger under the tenant write lock.
func (r *Reconciler) RunTenant(ctx context.Context, tenantID snowflake.ID) (Result, error) {
	if tenantID == 0 {
		return Result{}, meteringdomain.ErrInvalidTenant
	}

	var result Result
	err := r.locks.WithLock(tenantID, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tenant, err := r.dirRepo.FindTenant(ctx, tx, tenantID)
			if err != nil {
				return err
			}
			if tenant == nil {
				return directorydomain.ErrTenantNotFound
			}

			ledger, err := r.repo.ListLedger(ctx, tx, tenantID)
			if err != nil {
				return err
			}

			running := tenant.MeterReadingStart
			for _, entry := range ledger {
				prev := running
				consumed := entry.Value - prev

				flags := entry.Flags
				flagged := consumed < 0
				if flagged {
					consumed = 0
					if flags == nil {
						flags = datatypes.JSONMap{}
					}
					flags[FlagNegativeConsumption] = true
				} else {
					delete(flags, FlagNegativeConsumption)
				}

				if entry.PreviousValue != prev || entry.UnitsConsumed != consumed || flagged != hadFlag(entry) {
					if err := r.repo.UpdateDerived(ctx, tx, entry.ID, prev, consumed, flags); err != nil {
						return err
					}
					result.EntriesProcessed++
					if flagged {
						result.EntriesFlagged++
					}
				}

				running = entry.Value
			}
			return nil
		})
	})
	if err != nil {
		return Result{}, err
	}

	result.TenantsScanned = 1
	return result, nil
}

func hadFlag(entry *meteringdomain.MeterReading) bool {
	if entry.Flags == nil {
		return false
	}
	v, ok := entry.Flags[FlagNegativeConsumption]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
