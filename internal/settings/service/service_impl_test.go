package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/openstay/rentledger/internal/config"
	settingsdomain "github.com/openstay/rentledger/internal/settings/domain"
	settingsrepo "github.com/openstay/rentledger/internal/settings/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newSettingsService(t *testing.T) (settingsdomain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&settingsdomain.OwnerSettings{}))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  settingsrepo.Provide(),
		BillingCfg: config.HolderFor(config.BillingConfig{
			ReconcileInterval:  time.Hour,
			ReconcileBatchSize: 100,
			ReconcileLockTTL:   time.Minute,
			DefaultRatePerUnit: 8,
			DefaultWaterCharge: 300,
			DefaultCurrency:    "INR",
		}),
	})
	return svc, node
}

func TestGet_FallsBackToDefaults(t *testing.T) {
	svc, node := newSettingsService(t)

	settings, err := svc.Get(context.Background(), node.Generate())
	require.NoError(t, err)
	assert.Equal(t, int64(8), settings.ElectricityRatePerUnit)
	assert.Equal(t, int64(300), settings.FixedWaterBill)
	assert.Equal(t, "INR", settings.Currency)
	assert.Zero(t, settings.ID)
}

func TestUpdate_PersistsAndMerges(t *testing.T) {
	svc, node := newSettingsService(t)
	ctx := context.Background()
	ownerID := node.Generate()

	rate := int64(10)
	updated, err := svc.Update(ctx, settingsdomain.UpdateRequest{
		OwnerID:                ownerID,
		ElectricityRatePerUnit: &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), updated.ElectricityRatePerUnit)
	// Untouched fields keep the configured defaults.
	assert.Equal(t, int64(300), updated.FixedWaterBill)

	water := int64(500)
	updated, err = svc.Update(ctx, settingsdomain.UpdateRequest{
		OwnerID:        ownerID,
		FixedWaterBill: &water,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), updated.ElectricityRatePerUnit)
	assert.Equal(t, int64(500), updated.FixedWaterBill)

	stored, err := svc.Get(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), stored.ElectricityRatePerUnit)
	assert.Equal(t, int64(500), stored.FixedWaterBill)
	assert.NotZero(t, stored.ID)
}

func TestUpdate_Validation(t *testing.T) {
	svc, node := newSettingsService(t)
	ctx := context.Background()
	ownerID := node.Generate()

	bad := int64(-1)
	_, err := svc.Update(ctx, settingsdomain.UpdateRequest{OwnerID: ownerID, ElectricityRatePerUnit: &bad})
	assert.ErrorIs(t, err, settingsdomain.ErrInvalidRate)

	_, err = svc.Update(ctx, settingsdomain.UpdateRequest{OwnerID: ownerID, FixedWaterBill: &bad})
	assert.ErrorIs(t, err, settingsdomain.ErrInvalidWater)

	empty := "  "
	_, err = svc.Update(ctx, settingsdomain.UpdateRequest{OwnerID: ownerID, Currency: &empty})
	assert.ErrorIs(t, err, settingsdomain.ErrInvalidCurrency)

	_, err = svc.Get(ctx, 0)
	assert.ErrorIs(t, err, settingsdomain.ErrInvalidOwner)
}
