package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"uptimeline/pkg/apperror"
	"uptimeline/pkg/rabbitmq"
	"uptimeline/pkg/timeline"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Store interface {
	InsertChecks(ctx context.Context, checks []CheckResult) (int64, error)
	ListSegmentBuckets(ctx context.Context, monitorID uuid.UUID, from, to time.Time) ([]SegmentBucket, error)
}

type Publisher interface {
	PublishEvents(ctx context.Context, events ...rabbitmq.EventPayload) error
}

// CacheInvalidator drops every cached timeline of a monitor.
type CacheInvalidator interface {
	BumpTimelineVersion(ctx context.Context, monitorID uuid.UUID) (int64, error)
}

type IngestRecorder interface {
	RecordIngestion(checks int, err error)
}

type Service struct {
	store           Store
	publisher       Publisher
	cache           CacheInvalidator
	metrics         IngestRecorder
	defaultInterval time.Duration
	logger          *zerolog.Logger
}

func NewService(store Store, publisher Publisher, cache CacheInvalidator, metrics IngestRecorder, defaultInterval time.Duration, logger *zerolog.Logger) *Service {
	return &Service{
		store:           store,
		publisher:       publisher,
		cache:           cache,
		metrics:         metrics,
		defaultInterval: defaultInterval,
		logger:          logger,
	}
}

// Submit validates a batch reported by a probe agent and queues it as a
// check.completed event. Checks without an id get one here so that a
// redelivered event stays idempotent.
func (s *Service) Submit(ctx context.Context, monitorID uuid.UUID, checks []CheckResult) (uuid.UUID, error) {
	const op string = "service.checks.submit"

	for i := range checks {
		c := &checks[i]
		if c.CheckedAt.Before(c.SegmentStart) {
			return uuid.Nil, &apperror.Error{
				Kind:    apperror.InvalidInput,
				Op:      op,
				Message: fmt.Sprintf("check %d: checked_at is before segment_start", i),
			}
		}
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.MonitorID = monitorID
	}

	event, err := rabbitmq.NewEvent(rabbitmq.EventCheckCompleted, CheckBatch{MonitorID: monitorID, Checks: checks})
	if err != nil {
		return uuid.Nil, apperror.New(apperror.Internal, op, err).WithMessage("internal server error")
	}

	if err := s.publisher.PublishEvents(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Str("op", op).
			Str("monitor_id", monitorID.String()).
			Int("checks", len(checks)).
			Msg("failed to publish check batch")
		return uuid.Nil, apperror.New(apperror.Dependency, op, err).WithMessage("check queue unavailable")
	}

	return event.ID, nil
}

// ProcessCheckCompleted persists a queued batch and invalidates the
// monitor's cached timelines.
func (s *Service) ProcessCheckCompleted(ctx context.Context, eventID uuid.UUID, payload json.RawMessage) error {
	const op string = "service.checks.process_completed"

	var batch CheckBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return apperror.New(apperror.InvalidInput, op, err)
	}
	if len(batch.Checks) == 0 {
		return nil
	}

	inserted, err := s.store.InsertChecks(ctx, batch.Checks)
	s.metrics.RecordIngestion(int(inserted), err)
	if err != nil {
		return err
	}

	if _, err := s.cache.BumpTimelineVersion(ctx, batch.MonitorID); err != nil {
		// entries written under the old version expire with their ttl
		s.logger.Warn().
			Err(err).
			Str("op", op).
			Str("monitor_id", batch.MonitorID.String()).
			Msg("failed to invalidate timeline cache")
	}

	s.logger.Debug().
		Str("event_id", eventID.String()).
		Str("monitor_id", batch.MonitorID.String()).
		Int64("inserted", inserted).
		Int("received", len(batch.Checks)).
		Msg("check batch stored")
	return nil
}

// LoadEvents returns the location events for every check segment seen in
// [start, end], both in unix milliseconds.
func (s *Service) LoadEvents(ctx context.Context, monitorID uuid.UUID, start, end int64) ([]timeline.LocationEvent, error) {
	buckets, err := s.store.ListSegmentBuckets(ctx, monitorID, time.UnixMilli(start), time.UnixMilli(end))
	if err != nil {
		return nil, err
	}

	events := make([]timeline.LocationEvent, 0, len(buckets))
	for _, b := range buckets {
		events = append(events, BucketToEvent(b, s.defaultInterval))
	}
	return events, nil
}
