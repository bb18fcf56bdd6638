package timeline

type TimelineQuery struct {
	DateRangeStart string `validate:"required"`
	DateRangeEnd   string `validate:"required"`
}

type EventResponse struct {
	Start     int64    `json:"start"`
	End       int64    `json:"end"`
	Status    string   `json:"status"`
	Locations []string `json:"locations"`
	Interval  int64    `json:"interval"`
	Up        int      `json:"up"`
	Down      int      `json:"down"`
}

type TimelineResponse struct {
	MonitorID    string          `json:"monitor_id"`
	Start        int64           `json:"start"`
	End          int64           `json:"end"`
	IntervalSlop int64           `json:"interval_slop"`
	Cached       bool            `json:"cached"`
	Timeline     []EventResponse `json:"timeline"`
}
