package checks

import (
	"time"
	"uptimeline/pkg/timeline"
)

// UnknownLocation labels checks reported without a probe location.
const UnknownLocation = "N/A"

// BucketStatus is up when only successes were seen, down when only failures
// were, and mixed when both were.
func BucketStatus(up, down int64) string {
	switch {
	case up > 0 && down == 0:
		return timeline.StatusUp
	case up > 0 && down > 0:
		return timeline.StatusMixed
	default:
		return timeline.StatusDown
	}
}

// BucketToEvent converts a bucket into the coalescer's input. The event ends
// one interval after the last check, since that check vouches for the
// monitor until the next one is due.
func BucketToEvent(b SegmentBucket, defaultInterval time.Duration) timeline.LocationEvent {
	location := b.Location
	if location == "" {
		location = UnknownLocation
	}

	interval := b.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	intervalMs := interval.Milliseconds()

	return timeline.LocationEvent{
		Location: location,
		Interval: intervalMs,
		Status:   BucketStatus(b.Up, b.Down),
		Start:    b.SegmentStart.UnixMilli(),
		End:      b.LastCheckedAt.UnixMilli() + intervalMs,
		Up:       int(b.Up),
		Down:     int(b.Down),
	}
}
