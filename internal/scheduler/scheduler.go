// Package scheduler runs the reconciliation job on an interval. When redis is
// configured, a distributed lock keeps concurrent deployments from rewriting
// the same ledgers at once; without redis the job runs unguarded.
package scheduler

import (
	"context"
	"time"

	"github.com/openstay/rentledger/internal/config"
	"github.com/openstay/rentledger/internal/reconcile"
	"github.com/openstay/rentledger/internal/tenantlock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const reconcileLockKey = "rentledger:reconcile"

type Params struct {
	fx.In

	Log        *zap.Logger
	Reconciler *reconcile.Reconciler
	BillingCfg *config.BillingConfigHolder
	Locker     *tenantlock.Locker `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	reconciler *reconcile.Reconciler
	billingCfg *config.BillingConfigHolder
	locker     *tenantlock.Locker
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		reconciler: p.Reconciler,
		billingCfg: p.BillingCfg,
		locker:     p.Locker,
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.billingCfg.Get().ReconcileInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduled reconciliation failed", zap.Error(err))
		}

		// The interval is hot-reloadable; pick up changes between runs.
		if next := s.billingCfg.Get().ReconcileInterval; next != interval {
			interval = next
			ticker.Reset(interval)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce runs a single reconciliation pass, guarded by the distributed lock
// when one is configured. Losing the lock race is not an error; another
// instance holds the run.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.locker != nil {
		ttl := s.billingCfg.Get().ReconcileLockTTL
		token, ok, err := s.locker.TryLock(ctx, reconcileLockKey, ttl)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Debug("reconcile lock held elsewhere, skipping run")
			return nil
		}
		defer func() {
			if err := s.locker.Release(ctx, reconcileLockKey, token); err != nil {
				s.log.Warn("reconcile lock release failed", zap.Error(err))
			}
		}()
	}

	_, err := s.reconciler.Run(ctx)
	return err
}
