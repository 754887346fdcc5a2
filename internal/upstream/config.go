package upstream

import (
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/saude-console/internal/infra"
	"github.com/xela07ax/saude-console/internal/metrics"
	"go.uber.org/zap"
)

// NewFromConfig собирает клиента по секциям upstream и redis.
// rdb == nil — кэш выключен.
func NewFromConfig(cfg *infra.Config, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *Client {
	if m == nil {
		m = metrics.NewMetrics(nil)
	}
	uc := cfg.Upstream

	rel := NewReliability(Settings{
		MaxRequests:    uc.CBMaxRequests,
		Interval:       uc.CBInterval,
		Timeout:        uc.CBTimeout,
		Failures:       uc.CBFailures,
		RateLimit:      uc.RateLimit,
		RateBurst:      uc.RateBurst,
		RetryAttempts:  uc.RetryAttempts,
		AttemptTimeout: uc.Timeout,
		OnStateChange: func(name string, from, to gobreaker.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	var cache Cache
	if rdb != nil {
		if rc := NewRedisCache(rdb, cfg.Redis.CacheTTL, logger); rc.Enabled() {
			cache = rc
		}
	}

	return NewClient(Options{
		BaseURL:      uc.BaseURL,
		Timeout:      uc.Timeout,
		FunctionsKey: uc.FunctionsKey,
		BearerToken:  uc.BearerToken,
	}, rel, cache, m, logger)
}
