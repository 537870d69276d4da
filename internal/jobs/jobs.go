// Package jobs runs the periodic maintenance work: raster garbage
// collection and fleet health checks.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/raster"
	"github.com/inkwell-labs/inkwell/internal/storage"
)

const (
	gcInterval     = time.Hour
	healthInterval = 15 * time.Minute

	// Below this voltage an e-ink panel is weeks from dying.
	lowBatteryVoltage = 3.1
)

type Runner struct {
	store db.Store
	files storage.Storage
}

func NewRunner(store db.Store, files storage.Storage) *Runner {
	return &Runner{store: store, files: files}
}

// Start launches the maintenance loops. They stop when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx, gcInterval, r.sweepRasters)
	go r.loop(ctx, healthInterval, r.checkFleetHealth)
}

func (r *Runner) loop(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func (r *Runner) sweepRasters() {
	if _, err := raster.Sweep(r.store, r.files); err != nil {
		log.Error().Err(err).Msg("raster sweep failed")
	}
}

// checkFleetHealth flags devices that report low battery or have gone quiet.
func (r *Runner) checkFleetHealth() {
	devices, err := r.store.ListDevices()
	if err != nil {
		log.Error().Err(err).Msg("fleet health check failed")
		return
	}
	for _, d := range devices {
		if d.BatteryVoltage != nil && *d.BatteryVoltage < lowBatteryVoltage {
			log.Warn().
				Str("device", d.MacAddress).
				Float64("voltage", *d.BatteryVoltage).
				Msg("device battery low")
		}
		if d.LastSeen != nil && time.Since(*d.LastSeen) > 24*time.Hour {
			log.Warn().
				Str("device", d.MacAddress).
				Time("last_seen", *d.LastSeen).
				Msg("device has not polled in over a day")
		}
	}
}
