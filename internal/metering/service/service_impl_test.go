package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/openstay/rentledger/internal/clock"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	directoryrepo "github.com/openstay/rentledger/internal/directory/repository"
	directoryservice "github.com/openstay/rentledger/internal/directory/service"
	meteringdomain "github.com/openstay/rentledger/internal/metering/domain"
	meteringrepo "github.com/openstay/rentledger/internal/metering/repository"
	"github.com/openstay/rentledger/internal/tenantlock"
	genericrepo "github.com/openstay/rentledger/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	genID    *snowflake.Node
	clock    *clock.FakeClock
	dirSvc   directorydomain.Service
	dirRepo  directorydomain.Repository
	meterSvc meteringdomain.Service
	ownerID  snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&directorydomain.Room{},
		&directorydomain.Tenant{},
		&meteringdomain.MeterReading{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	locks := tenantlock.NewKeyed()
	fake := clock.NewFakeClock(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))

	dirRepo := directoryrepo.Provide()
	dirSvc := directoryservice.New(directoryservice.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Repo:        dirRepo,
		RoomStore:   genericrepo.ProvideStore[directorydomain.Room](db),
		TenantStore: genericrepo.ProvideStore[directorydomain.Tenant](db),
		Locks:       locks,
	})

	meterSvc := New(Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   fake,
		Repo:    meteringrepo.Provide(),
		DirRepo: dirRepo,
		Locks:   locks,
	})

	return &testEnv{
		db:       db,
		genID:    node,
		clock:    fake,
		dirSvc:   dirSvc,
		dirRepo:  dirRepo,
		meterSvc: meterSvc,
		ownerID:  node.Generate(),
	}
}

func (env *testEnv) occupiedTenant(t *testing.T, baseRent, meterStart int64, startDate time.Time) *directorydomain.Tenant {
	t.Helper()
	ctx := context.Background()

	room, err := env.dirSvc.CreateRoom(ctx, directorydomain.CreateRoomRequest{
		OwnerID:  env.ownerID,
		Name:     "room " + t.Name(),
		BaseRent: baseRent,
	})
	require.NoError(t, err)

	tenant, err := env.dirSvc.CreateTenant(ctx, directorydomain.CreateTenantRequest{
		OwnerID:  env.ownerID,
		Name:     "tenant " + t.Name(),
		BaseRent: baseRent,
	})
	require.NoError(t, err)

	tenant, err = env.dirSvc.Occupy(ctx, directorydomain.OccupyRequest{
		TenantID:          tenant.ID,
		RoomID:            room.ID,
		StartDate:         startDate,
		MeterReadingStart: meterStart,
	})
	require.NoError(t, err)

	return tenant
}

func TestSubmitReading_BaselineChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 9000, 1000, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))

	first, err := env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Value:       1200,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), first.PreviousValue)
	assert.Equal(t, int64(200), first.UnitsConsumed)

	env.clock.Advance(time.Hour)

	second, err := env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC),
		Value:       1500,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), second.PreviousValue)
	assert.Equal(t, int64(300), second.UnitsConsumed)
}

func TestSubmitReading_SameDayUsesEarlierEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 9000, 1000, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	readingDate := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

	_, err := env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: readingDate,
		Value:       1200,
	})
	require.NoError(t, err)

	env.clock.Advance(time.Minute)

	second, err := env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: readingDate,
		Value:       1250,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), second.PreviousValue)
	assert.Equal(t, int64(50), second.UnitsConsumed)
}

func TestSubmitReading_NegativeConsumptionRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 9000, 1000, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))

	_, err := env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Value:       1200,
	})
	require.NoError(t, err)

	env.clock.Advance(time.Hour)

	_, err = env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC),
		Value:       1100,
	})
	var negErr *meteringdomain.NegativeConsumptionError
	require.ErrorAs(t, err, &negErr)
	assert.Equal(t, int64(1100), negErr.Value)
	assert.Equal(t, int64(1200), negErr.Baseline)

	// The rejected reading never reached the ledger.
	list, err := env.meterSvc.ListReadings(ctx, meteringdomain.ListReadingsRequest{TenantID: tenant.ID})
	require.NoError(t, err)
	assert.Len(t, list.Readings, 1)
}

func TestSubmitReading_NoOccupancy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant, err := env.dirSvc.CreateTenant(ctx, directorydomain.CreateTenantRequest{
		OwnerID:  env.ownerID,
		Name:     "floating tenant",
		BaseRent: 5000,
	})
	require.NoError(t, err)

	_, err = env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Value:       100,
	})
	assert.ErrorIs(t, err, meteringdomain.ErrNoOccupancy)
}

func TestSubmitReading_ReOccupancyResetsBaseline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 9000, 1000, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))

	_, err := env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Value:       1500,
	})
	require.NoError(t, err)

	_, err = env.dirSvc.Vacate(ctx, tenant.ID, time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	room, err := env.dirSvc.CreateRoom(ctx, directorydomain.CreateRoomRequest{
		OwnerID:  env.ownerID,
		Name:     "second stay",
		BaseRent: 9000,
	})
	require.NoError(t, err)

	_, err = env.dirSvc.Occupy(ctx, directorydomain.OccupyRequest{
		TenantID:          tenant.ID,
		RoomID:            room.ID,
		StartDate:         time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		MeterReadingStart: 50,
	})
	require.NoError(t, err)

	env.clock.Set(time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC))

	// Readings from the previous stay sit outside the new window, so the
	// baseline falls back to the fresh meter_reading_start.
	reading, err := env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
		TenantID:    tenant.ID,
		ReadingDate: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		Value:       120,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), reading.PreviousValue)
	assert.Equal(t, int64(70), reading.UnitsConsumed)
}

func TestResolveBaseline_Fallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 9000, 1000, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))

	baseline, err := env.meterSvc.ResolveBaseline(ctx, tenant.ID, time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), baseline.Value)
	assert.Nil(t, baseline.SourceReadingID)
}

func TestListReadings_Pagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tenant := env.occupiedTenant(t, 9000, 0, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))

	for i := 1; i <= 3; i++ {
		_, err := env.meterSvc.SubmitReading(ctx, meteringdomain.SubmitReadingRequest{
			TenantID:    tenant.ID,
			ReadingDate: time.Date(2026, time.January, i*2, 0, 0, 0, 0, time.UTC),
			Value:       int64(i * 100),
		})
		require.NoError(t, err)
		env.clock.Advance(time.Hour)
	}

	page, err := env.meterSvc.ListReadings(ctx, meteringdomain.ListReadingsRequest{TenantID: tenant.ID})
	require.NoError(t, err)
	assert.Len(t, page.Readings, 3)
}
