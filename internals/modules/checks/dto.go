package checks

import "time"

type CheckItem struct {
	ID           string    `json:"id" validate:"omitempty,uuid"`
	Location     string    `json:"location" validate:"max=64"`
	SegmentStart time.Time `json:"segment_start" validate:"required"`
	CheckedAt    time.Time `json:"checked_at" validate:"required"`
	Up           int32     `json:"up" validate:"gte=0"`
	Down         int32     `json:"down" validate:"gte=0"`
	IntervalMs   int64     `json:"interval_ms" validate:"gte=0"`
}

type IngestChecksRequest struct {
	Checks []CheckItem `json:"checks" validate:"required,min=1,max=500,dive"`
}

type IngestChecksResponse struct {
	MonitorID string `json:"monitor_id"`
	EventID   string `json:"event_id"`
	Accepted  int    `json:"accepted"`
}
