package server

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache memoizes validation reports in redis, keyed by a digest of the
// submitted package. A nil cache is a valid no-op.
type ReportCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func (rc *ReportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if rc == nil || rc.Client == nil {
		return nil, false
	}
	val, err := rc.Client.Get(ctx, "packlint:report:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (rc *ReportCache) Set(ctx context.Context, key string, report []byte) {
	if rc == nil || rc.Client == nil {
		return
	}
	ttl := rc.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	// Cache failures are invisible to callers; the next request revalidates.
	_ = rc.Client.Set(ctx, "packlint:report:"+key, report, ttl).Err()
}
