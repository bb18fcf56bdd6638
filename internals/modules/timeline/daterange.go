package timeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var errEmptyDate = errors.New("empty date")

// maxDays is the largest day count a time.Duration can hold.
const maxDays = math.MaxInt64 / int64(24*time.Hour)

// ParseDate accepts an RFC3339 timestamp, unix milliseconds, "now", or "now-"
// followed by a duration. Durations may use a "d" suffix for days
// ("now-7d"). Relative values are truncated to the second.
func ParseDate(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errEmptyDate
	}

	if s == "now" {
		return now.Truncate(time.Second), nil
	}

	if rest, ok := strings.CutPrefix(s, "now-"); ok {
		d, err := parseRelative(rest)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %q: %w", raw, err)
		}
		return now.Add(-d).Truncate(time.Second), nil
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: want RFC3339, unix milliseconds or now[-duration]", raw)
	}
	return t, nil
}

func parseRelative(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day count %q", days)
		}
		if n > maxDays {
			return 0, fmt.Errorf("day count %d exceeds %d", n, maxDays)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
