package checks

import (
	"time"

	"github.com/google/uuid"
)

// CheckResult is one aggregated probe report: the up and down counts a probe
// location observed for a monitor since the status segment began.
type CheckResult struct {
	ID           uuid.UUID     `json:"id"`
	MonitorID    uuid.UUID     `json:"monitor_id"`
	Location     string        `json:"location"`
	SegmentStart time.Time     `json:"segment_start"`
	CheckedAt    time.Time     `json:"checked_at"`
	Up           int32         `json:"up"`
	Down         int32         `json:"down"`
	Interval     time.Duration `json:"interval"` // 0 when the probe did not report it
}

// CheckBatch is the payload of a check.completed event.
type CheckBatch struct {
	MonitorID uuid.UUID     `json:"monitor_id"`
	Checks    []CheckResult `json:"checks"`
}

// SegmentBucket aggregates every check of one location and segment inside a
// query window.
type SegmentBucket struct {
	Location      string
	SegmentStart  time.Time
	Up            int64
	Down          int64
	LastCheckedAt time.Time
	Interval      time.Duration // 0 when unknown
}
