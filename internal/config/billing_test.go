package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateBillingConfig(t *testing.T) {
	valid := DefaultBillingConfig()
	assert.NoError(t, validateBillingConfig(valid))

	bad := valid
	bad.ReconcileInterval = 0
	assert.Error(t, validateBillingConfig(bad))

	bad = valid
	bad.ReconcileBatchSize = -1
	assert.Error(t, validateBillingConfig(bad))

	bad = valid
	bad.DefaultRatePerUnit = -1
	assert.Error(t, validateBillingConfig(bad))
}

func TestHolderFor(t *testing.T) {
	cfg := BillingConfig{
		ReconcileInterval:  time.Minute,
		ReconcileBatchSize: 10,
		ReconcileLockTTL:   time.Second,
		DefaultRatePerUnit: 5,
		DefaultCurrency:    "INR",
	}

	holder := HolderFor(cfg)
	assert.Equal(t, cfg, holder.Get())
}
