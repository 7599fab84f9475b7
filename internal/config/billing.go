package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig tunes the reconciliation job and billing fallbacks. It is
// loaded from billing.yml and hot-reloaded on change.
type BillingConfig struct {
	ReconcileInterval  time.Duration `mapstructure:"reconcileInterval"`
	ReconcileBatchSize int           `mapstructure:"reconcileBatchSize"`
	ReconcileLockTTL   time.Duration `mapstructure:"reconcileLockTTL"`

	// Fallbacks applied when an owner has no stored settings row.
	DefaultRatePerUnit int64  `mapstructure:"defaultRatePerUnit"`
	DefaultWaterCharge int64  `mapstructure:"defaultWaterCharge"`
	DefaultCurrency    string `mapstructure:"defaultCurrency"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		ReconcileInterval:  6 * time.Hour,
		ReconcileBatchSize: 500,
		ReconcileLockTTL:   10 * time.Minute,
		DefaultRatePerUnit: 8,
		DefaultWaterCharge: 0,
		DefaultCurrency:    "INR",
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rentledger/config")
	v.AddConfigPath("/etc/rentledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RENTLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.reconcileInterval", defaults.ReconcileInterval)
	v.SetDefault("billing.reconcileBatchSize", defaults.ReconcileBatchSize)
	v.SetDefault("billing.reconcileLockTTL", defaults.ReconcileLockTTL)
	v.SetDefault("billing.defaultRatePerUnit", defaults.DefaultRatePerUnit)
	v.SetDefault("billing.defaultWaterCharge", defaults.DefaultWaterCharge)
	v.SetDefault("billing.defaultCurrency", defaults.DefaultCurrency)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

// HolderFor wraps a fixed config, used by tests.
func HolderFor(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.ReconcileInterval <= 0 {
		return errors.New("billing.reconcileInterval must be positive")
	}
	if cfg.ReconcileBatchSize <= 0 {
		return errors.New("billing.reconcileBatchSize must be positive")
	}
	if cfg.ReconcileLockTTL <= 0 {
		return errors.New("billing.reconcileLockTTL must be positive")
	}
	if cfg.DefaultRatePerUnit < 0 {
		return errors.New("billing.defaultRatePerUnit cannot be negative")
	}
	return nil
}
