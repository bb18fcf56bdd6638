package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"uptimeline/pkg/timeline"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TimelineKey identifies one computed timeline. Version is the monitor's
// cache generation; bumping it orphans every entry written under the old one.
type TimelineKey struct {
	MonitorID uuid.UUID
	Version   int64
	Start     int64
	End       int64
	Slop      int64
}

func (k TimelineKey) String() string {
	return fmt.Sprintf("timeline:%v:v%d:%d:%d:%d", k.MonitorID, k.Version, k.Start, k.End, k.Slop)
}

func versionKey(monitorID uuid.UUID) string {
	return fmt.Sprintf("timeline:version:%v", monitorID)
}

// TimelineVersion returns 0 for a monitor that has never been bumped.
func (c *Client) TimelineVersion(ctx context.Context, monitorID uuid.UUID) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(monitorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *Client) BumpTimelineVersion(ctx context.Context, monitorID uuid.UUID) (int64, error) {
	var v int64
	err := retry(ctx, 3, func() error {
		var err error
		v, err = c.rdb.Incr(ctx, versionKey(monitorID)).Result()
		return err
	})
	return v, err
}

// GetTimeline reports false on a miss.
func (c *Client) GetTimeline(ctx context.Context, key TimelineKey) ([]timeline.MultiLocationEvent, bool, error) {
	res, err := c.rdb.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var events []timeline.MultiLocationEvent
	if err := json.Unmarshal(res, &events); err != nil {
		// a corrupt entry is treated as a miss and overwritten by the caller
		return nil, false, nil
	}
	return events, true, nil
}

func (c *Client) SetTimeline(ctx context.Context, key TimelineKey, events []timeline.MultiLocationEvent, ttl time.Duration) error {
	if events == nil {
		events = []timeline.MultiLocationEvent{}
	}
	payload, err := json.Marshal(events)
	if err != nil {
		return err
	}

	return retry(ctx, 2, func() error {
		return c.rdb.Set(ctx, key.String(), payload, ttl).Err()
	})
}
