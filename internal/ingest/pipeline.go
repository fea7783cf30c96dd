// Package ingest implements the event ingestion pipeline for device batch uploads.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calz1/rushroster-cloud/internal/conf"
	"github.com/calz1/rushroster-cloud/internal/datastore"
	"github.com/calz1/rushroster-cloud/internal/logging"
	"github.com/calz1/rushroster-cloud/internal/objectstore"
	"github.com/calz1/rushroster-cloud/internal/observability"
)

// Status classifies the outcome of one submitted event.
type Status string

const (
	// StatusAccepted means the event was persisted, photo included when present.
	StatusAccepted Status = "accepted"
	// StatusSkipped means the event already existed; the device may purge it.
	StatusSkipped Status = "skipped"
	// StatusRejected means the event failed validation and will never be accepted.
	StatusRejected Status = "rejected"
	// StatusFailed means a transient failure; the device should retry the event.
	StatusFailed Status = "failed"
)

// Speed measurements outside this range are sensor glitches, not vehicles.
const (
	MaxPlausibleSpeedKPH = 300.0
	// maxClockSkew bounds how far in the future a device clock may drift
	// before its timestamps are rejected outright.
	maxClockSkew = 24 * time.Hour
)

// Event is one speed measurement submitted by a device.
type Event struct {
	NaturalKey    string
	CapturedAt    time.Time
	SpeedKPH      float64
	SpeedLimitKPH float64
	Latitude      float64
	Longitude     float64
	Photo         []byte // optional JPEG bytes
}

// EventResult reports the outcome for one submitted event, keyed by the
// device-assigned natural key so the device can match it to its local queue.
type EventResult struct {
	NaturalKey string `json:"natural_key"`
	Status     Status `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// BatchResult aggregates per-event outcomes and counts for one upload. The
// batch ID ties device-side logs to the server-side processing log.
type BatchResult struct {
	BatchID  string        `json:"batch_id"`
	Results  []EventResult `json:"results"`
	Accepted int           `json:"accepted"`
	Skipped  int           `json:"skipped"`
	Rejected int           `json:"rejected"`
	Failed   int           `json:"failed"`
}

// Pipeline processes device event batches: validation, deduplicated
// persistence and photo storage.
type Pipeline struct {
	ds       datastore.Interface
	store    objectstore.Store
	metrics  *observability.Metrics
	settings *conf.IngestSettings
	logger   *slog.Logger
}

// New creates an ingestion pipeline.
func New(ds datastore.Interface, store objectstore.Store, metrics *observability.Metrics, settings *conf.IngestSettings) *Pipeline {
	logger := logging.ForService("ingest")
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		ds:       ds,
		store:    store,
		metrics:  metrics,
		settings: settings,
		logger:   logger,
	}
}

// ErrBatchTooLarge is returned when a batch exceeds the configured limit.
type ErrBatchTooLarge struct {
	Size, Limit int
}

func (e *ErrBatchTooLarge) Error() string {
	return fmt.Sprintf("batch of %d events exceeds limit of %d", e.Size, e.Limit)
}

// ProcessBatch handles one uploaded batch for a device. Events are processed
// strictly in submission order and each gets an individual outcome; one bad
// event never sinks the rest. There is deliberately no batch transaction:
// an interrupted batch leaves its accepted events persisted and the device
// retries only the remainder.
//
// The batch is failed wholesale only when the event store itself stops
// answering, since nothing can be persisted at that point.
func (p *Pipeline) ProcessBatch(ctx context.Context, deviceID string, events []Event) (*BatchResult, error) {
	if limit := p.settings.MaxBatchSize; limit > 0 && len(events) > limit {
		return nil, &ErrBatchTooLarge{Size: len(events), Limit: limit}
	}

	start := time.Now()
	result := &BatchResult{
		BatchID: uuid.New().String(),
		Results: make([]EventResult, 0, len(events)),
	}

	storeDown := false
	for i := range events {
		event := &events[i]

		if storeDown {
			p.record(result, event.NaturalKey, StatusFailed, "event store unavailable")
			continue
		}
		if ctx.Err() != nil {
			// Remaining events are reported failed so the device retries them.
			p.record(result, event.NaturalKey, StatusFailed, "processing canceled")
			continue
		}

		status, reason, err := p.processEvent(ctx, deviceID, event)
		if err != nil {
			// Insert errors mean the store itself is gone; every remaining
			// event in this batch will meet the same fate.
			p.logger.Error("event store unavailable, failing remainder of batch",
				"device_id", deviceID,
				"natural_key", event.NaturalKey,
				"error", err)
			storeDown = true
			p.record(result, event.NaturalKey, StatusFailed, "event store unavailable")
			continue
		}

		p.record(result, event.NaturalKey, status, reason)
	}

	if p.metrics != nil {
		p.metrics.Ingest.RecordBatch(len(events), time.Since(start))
	}

	if result.Accepted > 0 || result.Skipped > 0 {
		if err := p.ds.UpdateDeviceLastSync(deviceID, time.Now()); err != nil {
			p.logger.Warn("failed to update device last sync",
				"device_id", deviceID,
				"error", err)
		}
	}

	p.logger.Info("processed event batch",
		"batch_id", result.BatchID,
		"device_id", deviceID,
		"events", len(events),
		"accepted", result.Accepted,
		"skipped", result.Skipped,
		"rejected", result.Rejected,
		"failed", result.Failed,
		"duration", time.Since(start))

	return result, nil
}

// processEvent runs one event through validation, photo storage and
// persistence. A returned error means the event store is unreachable;
// every other outcome maps to a status.
func (p *Pipeline) processEvent(ctx context.Context, deviceID string, event *Event) (Status, string, error) {
	if reason := p.validate(event); reason != "" {
		return StatusRejected, reason, nil
	}

	// The photo goes to the object store before the row exists, so a stored
	// event never references bytes that were not written.
	var photoKey *string
	if len(event.Photo) > 0 {
		key, err := p.storePhoto(ctx, deviceID, event)
		if err != nil {
			if objectstore.IsValidationError(err) {
				return StatusRejected, err.Error(), nil
			}
			return StatusFailed, "photo storage failed", nil
		}
		photoKey = &key
	}

	inserted, err := p.ds.InsertSpeedEvent(&datastore.SpeedEvent{
		DeviceID:      deviceID,
		NaturalKey:    event.NaturalKey,
		CapturedAt:    event.CapturedAt,
		SpeedKPH:      event.SpeedKPH,
		SpeedLimitKPH: event.SpeedLimitKPH,
		Speeding:      event.SpeedLimitKPH > 0 && event.SpeedKPH > event.SpeedLimitKPH,
		Latitude:      event.Latitude,
		Longitude:     event.Longitude,
		PhotoKey:      photoKey,
	})
	if err != nil {
		return StatusFailed, "", err
	}
	if !inserted {
		return StatusSkipped, "duplicate event", nil
	}
	return StatusAccepted, "", nil
}

// validate returns a rejection reason, or "" when the event is acceptable.
func (p *Pipeline) validate(event *Event) string {
	if event.NaturalKey == "" {
		return "natural key is required"
	}
	if event.CapturedAt.IsZero() {
		return "capture timestamp is required"
	}
	if event.CapturedAt.After(time.Now().Add(maxClockSkew)) {
		return "capture timestamp is too far in the future"
	}
	if event.SpeedKPH <= 0 || event.SpeedKPH >= MaxPlausibleSpeedKPH {
		return fmt.Sprintf("speed %.1f km/h is not plausible", event.SpeedKPH)
	}
	if event.Latitude < -90 || event.Latitude > 90 {
		return fmt.Sprintf("latitude %.4f is out of range", event.Latitude)
	}
	if event.Longitude < -180 || event.Longitude > 180 {
		return fmt.Sprintf("longitude %.4f is out of range", event.Longitude)
	}
	if maxBytes := p.settings.MaxPhotoBytes; maxBytes > 0 && int64(len(event.Photo)) > maxBytes {
		return fmt.Sprintf("photo of %d bytes exceeds limit of %d", len(event.Photo), maxBytes)
	}
	return ""
}

// storePhoto writes the photo bytes under the canonical key and returns it.
func (p *Pipeline) storePhoto(ctx context.Context, deviceID string, event *Event) (string, error) {
	key, err := objectstore.PhotoKey(deviceID, event.CapturedAt, event.NaturalKey)
	if err != nil {
		return "", err
	}

	start := time.Now()
	_, err = p.store.Put(ctx, key, event.Photo)
	if p.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		p.metrics.ObjectStore.RecordOperation("put", outcome, time.Since(start))
	}
	if err != nil {
		p.logger.Error("failed to store photo",
			"device_id", deviceID,
			"natural_key", event.NaturalKey,
			"key", key,
			"error", err)
		return "", err
	}

	if p.metrics != nil {
		p.metrics.ObjectStore.RecordPhotoSize(len(event.Photo))
	}
	return key, nil
}

// record appends one event outcome and bumps the matching counter.
func (p *Pipeline) record(result *BatchResult, naturalKey string, status Status, reason string) {
	result.Results = append(result.Results, EventResult{
		NaturalKey: naturalKey,
		Status:     status,
		Reason:     reason,
	})

	switch status {
	case StatusAccepted:
		result.Accepted++
	case StatusSkipped:
		result.Skipped++
	case StatusRejected:
		result.Rejected++
	case StatusFailed:
		result.Failed++
	}

	if p.metrics != nil {
		p.metrics.Ingest.RecordEvent(string(status))
	}
}
