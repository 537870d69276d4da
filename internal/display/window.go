// Package display holds the resolution engine: activation windows, playlist
// selection and the per-device display decision.
package display

import (
	"time"

	"github.com/rs/zerolog/log"
)

const clockLayout = "15:04"

// WindowActive reports whether a schedulable unit is active at now.
//
// now is converted into tz first. dayMask is a bitmask over weekdays
// (Sunday=1, Monday=2, ...), zero meaning every day. from/until are optional
// "HH:MM" bounds; a window whose from is later than its until wraps past
// midnight: active iff now >= from or now <= until. With no bounds the
// weekday check alone decides.
func WindowActive(now time.Time, tz string, dayMask int, from, until *string) bool {
	local := now.In(loadLocation(tz))

	if dayMask != 0 {
		bit := 1 << int(local.Weekday())
		if dayMask&bit == 0 {
			return false
		}
	}

	if from == nil || until == nil || *from == "" || *until == "" {
		return true
	}

	fromMin, okF := parseClock(*from)
	untilMin, okU := parseClock(*until)
	if !okF || !okU {
		log.Warn().Str("from", *from).Str("until", *until).Msg("unparseable activation window, treating as always active")
		return true
	}

	nowMin := local.Hour()*60 + local.Minute()
	if fromMin > untilMin {
		return nowMin >= fromMin || nowMin <= untilMin
	}
	return nowMin >= fromMin && nowMin <= untilMin
}

func parseClock(s string) (int, bool) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func loadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Str("timezone", tz).Err(err).Msg("unknown timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}
