// Package redis holds short-lived state that does not belong in Postgres:
// device claim codes from the setup flow and the per-device screen cache.
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

func InitRedis(redisAddress string, redisUsername string, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

const (
	claimCodeTTL = 24 * time.Hour
	screenTTL    = 5 * time.Minute
)

// SetClaimCode records the code a new device displays during setup, mapping
// it back to the device mac until an admin claims it.
func SetClaimCode(ctx context.Context, code, mac string) {
	if Rdb == nil {
		return
	}
	if err := Rdb.Set(ctx, "claim:"+code, mac, claimCodeTTL).Err(); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("failed to store claim code")
	}
}

// GetClaimCode resolves a claim code to a device mac. Returns "" when the
// code is unknown or expired.
func GetClaimCode(ctx context.Context, code string) string {
	if Rdb == nil {
		return ""
	}
	mac, err := Rdb.Get(ctx, "claim:"+code).Result()
	if err != nil {
		return ""
	}
	return mac
}

// CacheScreen remembers the raster URL last resolved for a device so the
// non-mutating current-screen endpoint can answer without re-resolving.
func CacheScreen(ctx context.Context, deviceID int, rasterURL string) {
	if Rdb == nil {
		return
	}
	if err := Rdb.Set(ctx, screenKey(deviceID), rasterURL, screenTTL).Err(); err != nil {
		log.Warn().Err(err).Int("device_id", deviceID).Msg("failed to cache screen")
	}
}

// CachedScreen returns the last resolved raster URL for a device, or "".
func CachedScreen(ctx context.Context, deviceID int) string {
	if Rdb == nil {
		return ""
	}
	url, err := Rdb.Get(ctx, screenKey(deviceID)).Result()
	if err != nil {
		return ""
	}
	return url
}

func screenKey(deviceID int) string {
	return "screen:" + strconv.Itoa(deviceID)
}
