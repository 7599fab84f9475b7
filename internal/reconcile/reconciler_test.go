package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/openstay/rentledger/internal/clock"
	"github.com/openstay/rentledger/internal/config"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	directoryrepo "github.com/openstay/rentledger/internal/directory/repository"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	meteringrepo "github.com/openstay/rentledger/internal/metering/repository"
	"github.com/openstay/rentledger/internal/tenantlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type reconcileEnv struct {
	db         *gorm.DB
	genID      *snowflake.Node
	dirRepo    directorydomain.Repository
	meterRepo  meteringdomain.Repository
	reconciler *Reconciler
}

func newReconcileEnv(t *testing.T) *reconcileEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&directorydomain.Room{}, &directorydomain.Tenant{}, &meteringdomain.MeterReading{}))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	dirRepo := directoryrepo.Provide()
	meterRepo := meteringrepo.Provide()

	reconciler := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)),
		Repo:    meterRepo,
		DirRepo: dirRepo,
		Locks:   tenantlock.NewKeyed(),
		BillingCfg: config.HolderFor(config.BillingConfig{
			ReconcileInterval:  time.Hour,
			ReconcileBatchSize: 2,
			ReconcileLockTTL:   time.Minute,
			DefaultRatePerUnit: 8,
			DefaultCurrency:    "INR",
		}),
	})

	return &reconcileEnv{
		db:         db,
		genID:      node,
		dirRepo:    dirRepo,
		meterRepo:  meterRepo,
		reconciler: reconciler,
	}
}

func (env *reconcileEnv) seedTenant(t *testing.T, meterStart int64) *directorydomain.Tenant {
	t.Helper()
	ctx := context.Background()

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tenant := &directorydomain.Tenant{
		ID:                env.genID.Generate(),
		OwnerID:           env.genID.Generate(),
		Name:              "tenant " + t.Name(),
		MeterReadingStart: meterStart,
		StartDate:         &start,
		IsActive:          true,
		CreatedAt:         start,
		UpdatedAt:         start,
	}
	require.NoError(t, env.dirRepo.InsertTenant(ctx, env.db, tenant))
	return tenant
}

func (env *reconcileEnv) seedReading(t *testing.T, tenant *directorydomain.Tenant, day int, value, prev, consumed int64) *meteringdomain.MeterReading {
	t.Helper()

	reading := &meteringdomain.MeterReading{
		ID:            env.genID.Generate(),
		OwnerID:       tenant.OwnerID,
		TenantID:      tenant.ID,
		ReadingDate:   time.Date(2026, time.January, day, 0, 0, 0, 0, time.UTC),
		Value:         value,
		PreviousValue: prev,
		UnitsConsumed: consumed,
		CreatedAt:     time.Date(2026, time.January, day, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, env.meterRepo.Insert(context.Background(), env.db, reading))
	return reading
}

func TestRunTenant_RepairsDerivedFields(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	tenant := env.seedTenant(t, 1000)
	// Derived fields seeded wrong on purpose.
	env.seedReading(t, tenant, 10, 1200, 0, 999)
	env.seedReading(t, tenant, 20, 1500, 0, 999)

	result, err := env.reconciler.RunTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.EntriesProcessed)
	assert.Equal(t, int64(0), result.EntriesFlagged)

	ledger, err := env.meterRepo.ListLedger(ctx, env.db, tenant.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, int64(1000), ledger[0].PreviousValue)
	assert.Equal(t, int64(200), ledger[0].UnitsConsumed)
	assert.Equal(t, int64(1200), ledger[1].PreviousValue)
	assert.Equal(t, int64(300), ledger[1].UnitsConsumed)
}

func TestRunTenant_Idempotent(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	tenant := env.seedTenant(t, 1000)
	env.seedReading(t, tenant, 10, 1200, 0, 999)

	first, err := env.reconciler.RunTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.EntriesProcessed)

	second, err := env.reconciler.RunTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.EntriesProcessed)
}

func TestRunTenant_ClampsNegativeAndFlags(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	tenant := env.seedTenant(t, 1000)
	env.seedReading(t, tenant, 10, 1500, 1000, 500)
	// A rollback in the middle of the chain: value below its predecessor.
	env.seedReading(t, tenant, 20, 1400, 1500, 0)
	env.seedReading(t, tenant, 25, 1600, 1400, 200)

	result, err := env.reconciler.RunTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.EntriesFlagged)

	ledger, err := env.meterRepo.ListLedger(ctx, env.db, tenant.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 3)

	clamped := ledger[1]
	assert.Equal(t, int64(1500), clamped.PreviousValue)
	assert.Equal(t, int64(0), clamped.UnitsConsumed)
	require.NotNil(t, clamped.Flags)
	assert.Equal(t, true, clamped.Flags[FlagNegativeConsumption])

	// The chain continues from the observed value, not the clamp.
	assert.Equal(t, int64(1400), ledger[2].PreviousValue)
	assert.Equal(t, int64(200), ledger[2].UnitsConsumed)
}

func TestRun_AllTenantsInBatches(t *testing.T) {
	env := newReconcileEnv(t)
	ctx := context.Background()

	// Three tenants against a batch size of two forces a second page.
	for i := 0; i < 3; i++ {
		tenant := env.seedTenant(t, 0)
		env.seedReading(t, tenant, 10+i, int64(100*(i+1)), 5, 5)
	}

	result, err := env.reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TenantsScanned)
	assert.Equal(t, int64(3), result.EntriesProcessed)
}
