package timeline

// DefaultIntervalSlop is the number of check intervals two boundaries may be
// apart and still be treated as continuous.
const DefaultIntervalSlop int64 = 10

type Option func(*Timeline)

// WithIntervalSlop overrides DefaultIntervalSlop. Negative values are treated
// as zero.
func WithIntervalSlop(slop int64) Option {
	return func(t *Timeline) {
		t.intervalSlop = max(slop, 0)
	}
}

// Timeline coalesces per-location events for a single monitor and query
// window. It is single-use and not safe for concurrent mutation; separate
// instances share nothing.
type Timeline struct {
	eventsByLocation map[string][]LocationEvent
	locations        []string // first-seen order, drives the cross-location stack
	start, end       int64
	intervalSlop     int64

	computed []MultiLocationEvent
	dirty    bool
}

// New builds a Timeline over the window [start, end] and adds every event.
func New(events []LocationEvent, start, end int64, opts ...Option) *Timeline {
	t := &Timeline{
		eventsByLocation: make(map[string][]LocationEvent),
		start:            start,
		end:              end,
		intervalSlop:     DefaultIntervalSlop,
		computed:         []MultiLocationEvent{},
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, e := range events {
		t.Add(e)
	}
	return t
}

// Add records an event and invalidates any previously computed result.
func (t *Timeline) Add(e LocationEvent) {
	t.dirty = true
	if _, ok := t.eventsByLocation[e.Location]; !ok {
		t.locations = append(t.locations, e.Location)
	}
	t.eventsByLocation[e.Location] = append(t.eventsByLocation[e.Location], e)
}

// Len reports how many raw events have been added.
func (t *Timeline) Len() int {
	n := 0
	for _, evs := range t.eventsByLocation {
		n += len(evs)
	}
	return n
}

// IntervalSlop returns the tolerance multiplier in effect.
func (t *Timeline) IntervalSlop() int64 { return t.intervalSlop }

// Events returns the coalesced timeline ordered by End descending. The result
// is computed on first access after a mutation and cached until the next Add.
func (t *Timeline) Events() []MultiLocationEvent {
	if t.dirty {
		t.computed = t.compute()
		t.dirty = false
	}
	return t.computed
}

// compute runs the passes over a copy of the raw input so that repeated
// computations after Add never see synthetic events from an earlier run.
func (t *Timeline) compute() []MultiLocationEvent {
	byLocation := make(map[string][]LocationEvent, len(t.eventsByLocation))
	for _, loc := range t.locations {
		evs := coalesceIdenticalStart(t.eventsByLocation[loc])
		evs = coalesceCloseTogether(evs, t.intervalSlop)
		byLocation[loc] = calculateNoData(evs, t.start, t.end, t.intervalSlop)
	}

	out := mergeLocationsIntoComputed(byLocation, t.locations, t.intervalSlop)
	sortComputed(out)
	return out
}

// tolerance is the slop distance for an event with the given interval.
func tolerance(interval, slop int64) int64 {
	return max(interval*slop, 0)
}
