package timeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
	"uptimeline/config"
	"uptimeline/pkg/apperror"
	"uptimeline/pkg/redisstore"
	"uptimeline/pkg/timeline"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventLoader interface {
	LoadEvents(ctx context.Context, monitorID uuid.UUID, start, end int64) ([]timeline.LocationEvent, error)
}

type Cache interface {
	TimelineVersion(ctx context.Context, monitorID uuid.UUID) (int64, error)
	GetTimeline(ctx context.Context, key redisstore.TimelineKey) ([]timeline.MultiLocationEvent, bool, error)
	SetTimeline(ctx context.Context, key redisstore.TimelineKey, events []timeline.MultiLocationEvent, ttl time.Duration) error
}

type Recorder interface {
	ObserveTimeline(inputEvents, outputEvents int, duration time.Duration)
	RecordCache(hit bool)
}

type GetTimelineCmd struct {
	MonitorID uuid.UUID
	Start     time.Time
	End       time.Time
}

type Result struct {
	Start        int64
	End          int64
	IntervalSlop int64
	Cached       bool
	Events       []timeline.MultiLocationEvent
}

// Service serves coalesced timelines. Tunables live in atomics so a config
// reload can swap them while requests are in flight.
type Service struct {
	loader  EventLoader
	cache   Cache
	metrics Recorder
	logger  *zerolog.Logger

	slop      atomic.Int64
	cacheTTL  atomic.Int64
	maxWindow atomic.Int64
}

func NewService(loader EventLoader, cache Cache, metrics Recorder, cfg config.TimelineConfig, logger *zerolog.Logger) *Service {
	s := &Service{
		loader:  loader,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
	s.ApplyConfig(cfg)
	return s
}

func (s *Service) ApplyConfig(cfg config.TimelineConfig) {
	s.slop.Store(max(cfg.IntervalSlop, 0))
	s.cacheTTL.Store(int64(cfg.CacheTTL))
	s.maxWindow.Store(int64(cfg.MaxWindow))
}

func (s *Service) GetTimeline(ctx context.Context, cmd GetTimelineCmd) (Result, error) {
	const op string = "service.timeline.get"

	start, end := cmd.Start.UnixMilli(), cmd.End.UnixMilli()
	if start >= end {
		return Result{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: "dateRangeStart must be before dateRangeEnd",
		}
	}
	if window, limit := cmd.End.Sub(cmd.Start), time.Duration(s.maxWindow.Load()); limit > 0 && window > limit {
		return Result{}, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      op,
			Message: fmt.Sprintf("date range %s exceeds the maximum of %s", window, limit),
		}
	}

	slop := s.slop.Load()
	res := Result{Start: start, End: end, IntervalSlop: slop}

	key, cacheable := s.cacheKey(ctx, cmd.MonitorID, start, end, slop)
	if cacheable {
		events, hit, err := s.cache.GetTimeline(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("op", op).Str("key", key.String()).Msg("timeline cache read failed")
		}
		s.metrics.RecordCache(hit)
		if hit {
			res.Cached = true
			res.Events = events
			return res, nil
		}
	}

	input, err := s.loader.LoadEvents(ctx, cmd.MonitorID, start, end)
	if err != nil {
		return Result{}, err
	}

	began := time.Now()
	res.Events = timeline.New(input, start, end, timeline.WithIntervalSlop(slop)).Events()
	s.metrics.ObserveTimeline(len(input), len(res.Events), time.Since(began))

	if cacheable {
		if err := s.cache.SetTimeline(ctx, key, res.Events, time.Duration(s.cacheTTL.Load())); err != nil {
			s.logger.Warn().Err(err).Str("op", op).Str("key", key.String()).Msg("timeline cache write failed")
		}
	}

	return res, nil
}

// cacheKey reports false when caching is disabled or the version lookup
// fails; the request is then served uncached.
func (s *Service) cacheKey(ctx context.Context, monitorID uuid.UUID, start, end, slop int64) (redisstore.TimelineKey, bool) {
	if s.cache == nil || s.cacheTTL.Load() <= 0 {
		return redisstore.TimelineKey{}, false
	}

	version, err := s.cache.TimelineVersion(ctx, monitorID)
	if err != nil {
		s.logger.Warn().Err(err).Str("monitor_id", monitorID.String()).Msg("timeline cache version lookup failed")
		return redisstore.TimelineKey{}, false
	}

	return redisstore.TimelineKey{
		MonitorID: monitorID,
		Version:   version,
		Start:     start,
		End:       end,
		Slop:      slop,
	}, true
}
