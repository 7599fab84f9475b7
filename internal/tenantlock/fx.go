package tenantlock

import (
	"strings"

	"github.com/openstay/rentledger/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("tenantlock",
	fx.Provide(NewKeyed),
	fx.Provide(provideRedisClient),
	fx.Provide(NewLocker),
)

func provideRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
