package credential

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var revocationCheckDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "trustgrid_key_revocation_check_duration_ms",
	Help:    "Latency of API key revocation checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// Redis key prefix for revoked API keys, keyed by lookup digest.
const revokedKeyPrefix = "krl:key:"

// RedisRevocationList shares API key revocation state across service
// instances. Revoking a key writes here before the store transition commits,
// so a node with a stale store read still refuses the key. Entries never
// expire: revocation is permanent.
type RedisRevocationList struct {
	client *redis.Client
}

func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

func (l *RedisRevocationList) MarkRevoked(ctx context.Context, lookupHash string) error {
	if lookupHash == "" {
		return nil
	}
	// Marker value; key existence is what matters. Zero TTL = no expiry.
	return l.client.Set(ctx, revokedKeyPrefix+lookupHash, "1", 0).Err()
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, lookupHash string) (bool, error) {
	start := time.Now()
	defer func() {
		revocationCheckDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if lookupHash == "" {
		return false, nil
	}
	_, err := l.client.Get(ctx, revokedKeyPrefix+lookupHash).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NoopRevocationList is used in single-instance deployments where the key
// store alone is authoritative.
type NoopRevocationList struct{}

func (NoopRevocationList) MarkRevoked(context.Context, string) error { return nil }

func (NoopRevocationList) IsRevoked(context.Context, string) (bool, error) { return false, nil }

var (
	_ RevocationList = (*RedisRevocationList)(nil)
	_ RevocationList = NoopRevocationList{}
)
