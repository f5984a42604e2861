package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Read-through cache for unit status. The store stays the sole source of
// truth: entries carry a short TTL and every booking mutation invalidates the
// units it touched. Cache failures degrade to plain DB reads.

const (
	keyUnitStatus = "unit_status:%d"
	ttlUnitStatus = 5 * time.Minute
)

var rdb *redis.Client

// Setup connects the package-level client. With no address configured the
// cache stays disabled and all lookups miss.
func Setup(addr string) {
	if addr == "" {
		logrus.Info("unit status cache disabled (no redis address configured)")
		return
	}
	rdb = redis.NewClient(&redis.Options{Addr: addr})
}

// UnitStatus returns the cached status for a unit, or "" on miss.
func UnitStatus(ctx context.Context, unitID uint) string {
	if rdb == nil {
		return ""
	}
	v, err := rdb.Get(ctx, fmt.Sprintf(keyUnitStatus, unitID)).Result()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).Debug("unit status cache read failed")
		}
		return ""
	}
	return v
}

// SetUnitStatus stores a unit's status with the cache TTL.
func SetUnitStatus(ctx context.Context, unitID uint, status string) {
	if rdb == nil {
		return
	}
	if err := rdb.Set(ctx, fmt.Sprintf(keyUnitStatus, unitID), status, ttlUnitStatus).Err(); err != nil {
		logrus.WithError(err).Debug("unit status cache write failed")
	}
}

// InvalidateUnit drops a unit's cached status after a mutation touched it.
func InvalidateUnit(ctx context.Context, unitID uint) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, fmt.Sprintf(keyUnitStatus, unitID)).Err(); err != nil {
		logrus.WithError(err).Debug("unit status cache invalidation failed")
	}
}
