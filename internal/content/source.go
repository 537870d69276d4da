// Package content implements data acquisition for plugins: the
// static/push/pull strategies and the staleness policy that decides when a
// cached raster must be thrown away.
package content

import (
	"time"

	"github.com/inkwell-labs/inkwell/internal/model"
)

// pushRecencyWindow: a push within this window marks the plugin stale so the
// freshly arrived payload forces a re-render. Deliberately the inverse of the
// pull staleness sense; downstream relies on it, do not "fix" without
// checking the cache tests.
const pushRecencyWindow = time.Hour

// Stale reports whether a plugin's data (and therefore its cached raster)
// must be refreshed before serving.
func Stale(p *model.Plugin, now time.Time) bool {
	switch p.Strategy {
	case model.StrategyStatic:
		return false
	case model.StrategyPush:
		if p.DataUpdatedAt == nil {
			return false
		}
		return now.Sub(*p.DataUpdatedAt) < pushRecencyWindow
	case model.StrategyPull:
		if p.DataUpdatedAt == nil {
			return true
		}
		threshold := time.Duration(p.StalenessMinutes) * time.Minute
		return now.After(p.DataUpdatedAt.Add(threshold))
	}
	return false
}
