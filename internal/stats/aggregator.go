// Package stats recomputes aggregated speed statistics from stored events.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/calz1/rushroster-cloud/internal/datastore"
	"github.com/calz1/rushroster-cloud/internal/logging"
)

// Aggregator recomputes per-device daily summaries and the global summary
// from the raw event rows. It only ever reads events and upserts keyed
// summary rows, so running it twice over an unchanged event set writes
// identical values.
type Aggregator struct {
	ds     datastore.Interface
	logger *slog.Logger
}

// New creates an aggregator over the given datastore.
func New(ds datastore.Interface) *Aggregator {
	logger := logging.ForService("stats")
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{ds: ds, logger: logger}
}

// Run recomputes all summaries for the given calendar day (UTC) and the
// current global summary.
func (a *Aggregator) Run(ctx context.Context, day time.Time) error {
	start := time.Now()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	date := dayStart.Format("2006-01-02")

	deviceIDs, err := a.ds.ListDeviceIDs()
	if err != nil {
		return fmt.Errorf("listing devices: %w", err)
	}

	summarized := 0
	for _, deviceID := range deviceIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		wrote, err := a.summarizeDevice(deviceID, dayStart)
		if err != nil {
			return err
		}
		if wrote {
			summarized++
		}
	}

	if err := a.summarizeGlobal(date); err != nil {
		return err
	}

	a.logger.Info("recomputed summaries",
		"date", date,
		"devices", len(deviceIDs),
		"device_summaries", summarized,
		"duration", time.Since(start))
	return nil
}

// summarizeDevice recomputes one device's summary for the day starting at
// dayStart. Devices with no events that day get no row.
func (a *Aggregator) summarizeDevice(deviceID string, dayStart time.Time) (bool, error) {
	events, err := a.ds.GetDeviceEventsInRange(deviceID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return false, fmt.Errorf("loading events for device %s: %w", deviceID, err)
	}
	if len(events) == 0 {
		return false, nil
	}

	speeds := make([]float64, 0, len(events))
	speedingCount := 0
	var sum, maxSpeed float64
	for i := range events {
		speed := events[i].SpeedKPH
		speeds = append(speeds, speed)
		sum += speed
		if speed > maxSpeed {
			maxSpeed = speed
		}
		if events[i].Speeding {
			speedingCount++
		}
	}
	sort.Float64s(speeds)

	summary := &datastore.DeviceDailySummary{
		DeviceID:      deviceID,
		Date:          dayStart.Format("2006-01-02"),
		EventCount:    len(events),
		SpeedingCount: speedingCount,
		AvgSpeedKPH:   sum / float64(len(events)),
		MaxSpeedKPH:   maxSpeed,
		P50SpeedKPH:   percentile(speeds, 50),
		P85SpeedKPH:   percentile(speeds, 85),
	}
	if err := a.ds.UpsertDeviceDailySummary(summary); err != nil {
		return false, err
	}
	return true, nil
}

// summarizeGlobal recomputes the fleet-wide summary row for date.
func (a *Aggregator) summarizeGlobal(date string) error {
	now := time.Now()
	dayAgo := now.Add(-24 * time.Hour)

	deviceCount, err := a.ds.CountDevices()
	if err != nil {
		return err
	}
	activeDevices, err := a.ds.CountActiveDevices(dayAgo)
	if err != nil {
		return err
	}
	eventCount, err := a.ds.CountEvents()
	if err != nil {
		return err
	}
	eventsLast24h, err := a.ds.CountEventsSince(dayAgo)
	if err != nil {
		return err
	}
	speedingLast24h, err := a.ds.CountSpeedingEventsSince(dayAgo)
	if err != nil {
		return err
	}

	return a.ds.UpsertGlobalSummary(&datastore.GlobalSummary{
		Date:            date,
		DeviceCount:     deviceCount,
		ActiveDevices:   activeDevices,
		EventCount:      eventCount,
		EventsLast24h:   eventsLast24h,
		SpeedingLast24h: speedingLast24h,
	})
}

// percentile returns the nearest-rank percentile of an ascending-sorted
// slice. The 85th percentile speed is the figure traffic engineers use to
// set and review limits.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
