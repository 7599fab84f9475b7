package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/openstay/rentledger/internal/authscope"
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	directoryrepo "github.com/openstay/rentledger/internal/directory/repository"
	"github.com/openstay/rentledger/internal/tenantlock"
	genericrepo "github.com/openstay/rentledger/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) (directorydomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&directorydomain.Room{}, &directorydomain.Tenant{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        directoryrepo.Provide(),
		RoomStore:   genericrepo.ProvideStore[directorydomain.Room](db),
		TenantStore: genericrepo.ProvideStore[directorydomain.Tenant](db),
		Locks:       tenantlock.NewKeyed(),
	})
	return svc, node
}

func TestOccupy_ConflictingTenantRejected(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	ownerID := node.Generate()

	room, err := svc.CreateRoom(ctx, directorydomain.CreateRoomRequest{OwnerID: ownerID, Name: "101", BaseRent: 5000})
	require.NoError(t, err)

	first, err := svc.CreateTenant(ctx, directorydomain.CreateTenantRequest{OwnerID: ownerID, Name: "first", BaseRent: 5000})
	require.NoError(t, err)
	second, err := svc.CreateTenant(ctx, directorydomain.CreateTenantRequest{OwnerID: ownerID, Name: "second", BaseRent: 5000})
	require.NoError(t, err)

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Occupy(ctx, directorydomain.OccupyRequest{TenantID: first.ID, RoomID: room.ID, StartDate: start, MeterReadingStart: 100})
	require.NoError(t, err)

	_, err = svc.Occupy(ctx, directorydomain.OccupyRequest{TenantID: second.ID, RoomID: room.ID, StartDate: start, MeterReadingStart: 0})
	assert.ErrorIs(t, err, directorydomain.ErrRoomOccupied)
}

func TestOccupy_SecondRoomKeepsWindow(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	ownerID := node.Generate()

	roomA, err := svc.CreateRoom(ctx, directorydomain.CreateRoomRequest{OwnerID: ownerID, Name: "A", BaseRent: 4000})
	require.NoError(t, err)
	roomB, err := svc.CreateRoom(ctx, directorydomain.CreateRoomRequest{OwnerID: ownerID, Name: "B", BaseRent: 3000})
	require.NoError(t, err)

	tenant, err := svc.CreateTenant(ctx, directorydomain.CreateTenantRequest{OwnerID: ownerID, Name: "family", BaseRent: 0})
	require.NoError(t, err)

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tenant, err = svc.Occupy(ctx, directorydomain.OccupyRequest{TenantID: tenant.ID, RoomID: roomA.ID, StartDate: start, MeterReadingStart: 500})
	require.NoError(t, err)

	later := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	tenant, err = svc.Occupy(ctx, directorydomain.OccupyRequest{TenantID: tenant.ID, RoomID: roomB.ID, StartDate: later, MeterReadingStart: 0})
	require.NoError(t, err)

	require.NotNil(t, tenant.StartDate)
	assert.True(t, tenant.StartDate.Equal(start))
	assert.Equal(t, int64(500), tenant.MeterReadingStart)
}

func TestVacate_FreesAllRooms(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	ownerID := node.Generate()

	roomA, err := svc.CreateRoom(ctx, directorydomain.CreateRoomRequest{OwnerID: ownerID, Name: "A", BaseRent: 4000})
	require.NoError(t, err)
	roomB, err := svc.CreateRoom(ctx, directorydomain.CreateRoomRequest{OwnerID: ownerID, Name: "B", BaseRent: 3000})
	require.NoError(t, err)

	tenant, err := svc.CreateTenant(ctx, directorydomain.CreateTenantRequest{OwnerID: ownerID, Name: "family", BaseRent: 0})
	require.NoError(t, err)

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Occupy(ctx, directorydomain.OccupyRequest{TenantID: tenant.ID, RoomID: roomA.ID, StartDate: start, MeterReadingStart: 0})
	require.NoError(t, err)
	_, err = svc.Occupy(ctx, directorydomain.OccupyRequest{TenantID: tenant.ID, RoomID: roomB.ID, StartDate: start, MeterReadingStart: 0})
	require.NoError(t, err)

	vacated, err := svc.Vacate(ctx, tenant.ID, time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, vacated.IsActive)
	require.NotNil(t, vacated.EndDate)

	freedA, err := svc.GetRoom(ctx, roomA.ID)
	require.NoError(t, err)
	assert.Nil(t, freedA.CurrentTenantID)
	freedB, err := svc.GetRoom(ctx, roomB.ID)
	require.NoError(t, err)
	assert.Nil(t, freedB.CurrentTenantID)
}

func TestVacate_EndBeforeStartRejected(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()
	ownerID := node.Generate()

	room, err := svc.CreateRoom(ctx, directorydomain.CreateRoomRequest{OwnerID: ownerID, Name: "101", BaseRent: 5000})
	require.NoError(t, err)
	tenant, err := svc.CreateTenant(ctx, directorydomain.CreateTenantRequest{OwnerID: ownerID, Name: "t", BaseRent: 5000})
	require.NoError(t, err)

	start := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Occupy(ctx, directorydomain.OccupyRequest{TenantID: tenant.ID, RoomID: room.ID, StartDate: start, MeterReadingStart: 0})
	require.NoError(t, err)

	_, err = svc.Vacate(ctx, tenant.ID, time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, directorydomain.ErrInvalidEndDate)
}

func TestListRooms_ActorScope(t *testing.T) {
	svc, node := newService(t)
	ctx := context.Background()

	mineOwner := node.Generate()
	otherOwner := node.Generate()

	_, err := svc.CreateRoom(ctx, directorydomain.CreateRoomRequest{OwnerID: mineOwner, Name: "mine", BaseRent: 100})
	require.NoError(t, err)
	_, err = svc.CreateRoom(ctx, directorydomain.CreateRoomRequest{OwnerID: otherOwner, Name: "theirs", BaseRent: 100})
	require.NoError(t, err)

	mine, err := svc.ListRooms(ctx, authscope.Actor{UserID: mineOwner, Role: authscope.RoleOwner})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.ListRooms(ctx, authscope.Actor{UserID: mineOwner, Role: authscope.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
