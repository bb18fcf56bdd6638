package timeline

import (
	"slices"
	"sort"
)

// Statuses produced or interpreted by the engine. Any other status string is
// carried through untouched.
const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusMissing  = "missing"
	StatusFlapping = "flapping"
	StatusMixed    = "mixed"
)

// LocationEvent is a span of checks observed from a single probe location.
// Start, End and Interval share one unit (epoch milliseconds upstream).
type LocationEvent struct {
	Location string `json:"location" yaml:"location"`
	Interval int64  `json:"interval" yaml:"interval"`
	Status   string `json:"status" yaml:"status"`
	Start    int64  `json:"start" yaml:"start"`
	End      int64  `json:"end" yaml:"end"`
	Up       int    `json:"up" yaml:"up"`
	Down     int    `json:"down" yaml:"down"`
}

// MultiLocationEvent is one entry of the coalesced timeline. Locations is
// always sorted and free of duplicates.
type MultiLocationEvent struct {
	Locations []string `json:"locations"`
	Interval  int64    `json:"interval"`
	Status    string   `json:"status"`
	Start     int64    `json:"start"`
	End       int64    `json:"end"`
	Up        int      `json:"up"`
	Down      int      `json:"down"`
}

// CombineStatuses returns the shared status when all inputs agree and
// StatusFlapping otherwise.
func CombineStatuses(statuses ...string) string {
	if len(statuses) == 0 {
		return ""
	}
	first := statuses[0]
	for _, s := range statuses[1:] {
		if s != first {
			return StatusFlapping
		}
	}
	return first
}

func (e LocationEvent) single() MultiLocationEvent {
	return MultiLocationEvent{
		Locations: []string{e.Location},
		Interval:  e.Interval,
		Status:    e.Status,
		Start:     e.Start,
		End:       e.End,
		Up:        e.Up,
		Down:      e.Down,
	}
}

// combine folds the initiating event and its matches into one multi-location
// event. The initiator's interval wins.
func combine(initiator LocationEvent, matches []LocationEvent) MultiLocationEvent {
	out := initiator.single()
	statuses := make([]string, 0, len(matches)+1)
	statuses = append(statuses, initiator.Status)

	for _, m := range matches {
		out.Locations = append(out.Locations, m.Location)
		statuses = append(statuses, m.Status)
		out.Start = min(out.Start, m.Start)
		out.End = max(out.End, m.End)
		out.Up += m.Up
		out.Down += m.Down
	}

	out.Status = CombineStatuses(statuses...)
	out.Locations = uniqueSorted(out.Locations)
	return out
}

func uniqueSorted(in []string) []string {
	sort.Strings(in)
	return slices.Compact(in)
}
