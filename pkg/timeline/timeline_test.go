package timeline

import (
	"math/rand"
	"reflect"
	"testing"
)

func ev(loc, status string, start, end int64) LocationEvent {
	e := LocationEvent{Location: loc, Interval: 1, Status: status, Start: start, End: end}
	switch status {
	case StatusUp:
		e.Up = 1
	case StatusDown:
		e.Down = 1
	}
	return e
}

func multi(locs []string, status string, start, end int64, up, down int) MultiLocationEvent {
	return MultiLocationEvent{Locations: locs, Interval: 1, Status: status, Start: start, End: end, Up: up, Down: down}
}

// --- Scenarios ---

func TestTimeline_EmptyInput(t *testing.T) {
	tl := New(nil, 0, 100)
	got := tl.Events()
	if got == nil {
		t.Fatal("Events on empty timeline returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Events len = %d, want 0", len(got))
	}
}

func TestTimeline_IdenticalStartCoalesces(t *testing.T) {
	tl := New([]LocationEvent{
		ev("l1", StatusUp, 1, 2),
		ev("l1", StatusUp, 1, 4),
	}, 1, 4)

	got := tl.Events()
	want := []MultiLocationEvent{multi([]string{"l1"}, StatusUp, 1, 4, 2, 0)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Events = %+v, want %+v", got, want)
	}
}

func TestTimeline_CrossLocationMerge(t *testing.T) {
	tl := New([]LocationEvent{
		ev("l1", StatusUp, 1, 7),
		ev("l2", StatusUp, 2, 6),
	}, 1, 7, WithIntervalSlop(1))

	got := tl.Events()
	want := []MultiLocationEvent{multi([]string{"l1", "l2"}, StatusUp, 1, 7, 2, 0)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Events = %+v, want %+v", got, want)
	}
}

func TestTimeline_GapBecomesMissing(t *testing.T) {
	first := ev("l1", StatusUp, 1, 7)
	first.Up = 7
	second := ev("l1", StatusUp, 50, 70)
	second.Up = 21

	got := New([]LocationEvent{first, second}, 1, 70).Events()
	want := []MultiLocationEvent{
		multi([]string{"l1"}, StatusUp, 50, 70, 21, 0),
		multi([]string{"l1"}, StatusMissing, 8, 49, 0, 0),
		multi([]string{"l1"}, StatusUp, 1, 7, 7, 0),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Events = %+v, want %+v", got, want)
	}
}

func TestTimeline_MixedStatusesFlap(t *testing.T) {
	got := New([]LocationEvent{
		ev("l1", StatusUp, 1, 5),
		ev("l1", StatusDown, 1, 6),
	}, 1, 6).Events()

	if len(got) != 1 {
		t.Fatalf("Events len = %d, want 1", len(got))
	}
	if got[0].Status != StatusFlapping {
		t.Errorf("Status = %q, want %q", got[0].Status, StatusFlapping)
	}
	if got[0].Up != 1 || got[0].Down != 1 {
		t.Errorf("Up/Down = %d/%d, want 1/1", got[0].Up, got[0].Down)
	}
	if got[0].End != 6 {
		t.Errorf("End = %d, want 6", got[0].End)
	}
}

func TestTimeline_DifferentStatusesAcrossLocationsFlap(t *testing.T) {
	got := New([]LocationEvent{
		ev("eu", StatusUp, 100, 200),
		ev("us", StatusDown, 101, 199),
	}, 100, 200).Events()

	want := []MultiLocationEvent{multi([]string{"eu", "us"}, StatusFlapping, 100, 200, 1, 1)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Events = %+v, want %+v", got, want)
	}
}

// --- Caching ---

func TestTimeline_EventsCachedUntilAdd(t *testing.T) {
	tl := New([]LocationEvent{ev("l1", StatusUp, 1, 7), ev("l1", StatusUp, 50, 70)}, 1, 70)

	first := tl.Events()
	if len(first) != 3 {
		t.Fatalf("first Events len = %d, want 3", len(first))
	}
	if again := tl.Events(); &again[0] != &first[0] {
		t.Error("second Events call recomputed, want cached slice")
	}

	tl.Add(ev("l1", StatusUp, 30, 35))
	got := tl.Events()

	// Earlier synthetic events must not leak into the recomputation.
	want := []MultiLocationEvent{
		multi([]string{"l1"}, StatusUp, 50, 70, 1, 0),
		multi([]string{"l1"}, StatusMissing, 36, 49, 0, 0),
		multi([]string{"l1"}, StatusUp, 30, 35, 1, 0),
		multi([]string{"l1"}, StatusMissing, 8, 29, 0, 0),
		multi([]string{"l1"}, StatusUp, 1, 7, 1, 0),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Events after Add = %+v, want %+v", got, want)
	}
	if tl.Len() != 3 {
		t.Errorf("Len = %d, want 3", tl.Len())
	}
}

func TestTimeline_WithIntervalSlopClampsNegative(t *testing.T) {
	tl := New(nil, 0, 1, WithIntervalSlop(-3))
	if tl.IntervalSlop() != 0 {
		t.Errorf("IntervalSlop = %d, want 0", tl.IntervalSlop())
	}
	if New(nil, 0, 1).IntervalSlop() != DefaultIntervalSlop {
		t.Errorf("default IntervalSlop = %d, want %d", New(nil, 0, 1).IntervalSlop(), DefaultIntervalSlop)
	}
}

func TestTimeline_ZeroIntervalOnlyMergesExactBounds(t *testing.T) {
	a := LocationEvent{Location: "a", Status: StatusUp, Start: 10, End: 20, Up: 1}
	b := LocationEvent{Location: "b", Status: StatusUp, Start: 10, End: 20, Up: 1}
	c := LocationEvent{Location: "c", Status: StatusUp, Start: 11, End: 20, Up: 1}

	got := New([]LocationEvent{a, b, c}, 10, 20).Events()
	if len(got) != 2 {
		t.Fatalf("Events len = %d, want 2: %+v", len(got), got)
	}
	var joined MultiLocationEvent
	for _, e := range got {
		if len(e.Locations) == 2 {
			joined = e
		}
	}
	if !reflect.DeepEqual(joined.Locations, []string{"a", "b"}) {
		t.Errorf("joined Locations = %v, want [a b]", joined.Locations)
	}
}

// --- Properties ---

// generate builds non-overlapping segments per location. Some segments are
// reported several times with the same start and differing ends, the way
// check groups arrive from the query layer.
func generate(r *rand.Rand, locations []string) ([]LocationEvent, int64, int64) {
	statuses := []string{StatusUp, StatusDown, StatusMixed}
	var out []LocationEvent
	var windowEnd int64
	for _, loc := range locations {
		cursor := int64(r.Intn(20))
		for i := 0; i < 15; i++ {
			start := cursor + int64(r.Intn(40))
			status := statuses[r.Intn(len(statuses))]
			maxEnd := start
			dups := 1 + r.Intn(3)
			for dup := 0; dup < dups; dup++ {
				end := start + int64(r.Intn(15))
				maxEnd = max(maxEnd, end)
				out = append(out, LocationEvent{
					Location: loc,
					Interval: 1 + int64(r.Intn(2)),
					Status:   status,
					Start:    start,
					End:      end,
					Up:       r.Intn(5),
					Down:     r.Intn(5),
				})
			}
			cursor = maxEnd + 1
		}
		windowEnd = max(windowEnd, cursor+50)
	}
	return out, 0, windowEnd
}

func TestProperty_IdenticalStartIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		events, _, _ := generate(r, []string{"l1"})
		once := coalesceIdenticalStart(events)
		twice := coalesceIdenticalStart(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("round %d: second pass changed output\nonce:  %+v\ntwice: %+v", round, once, twice)
		}
	}
}

func TestProperty_NoOverlapAfterLocationPasses(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 50; round++ {
		events, start, end := generate(r, []string{"l1"})
		seq := coalesceIdenticalStart(events)
		seq = coalesceCloseTogether(seq, DefaultIntervalSlop)
		seq = calculateNoData(seq, start, end, DefaultIntervalSlop)

		for i := 0; i < len(seq); i++ {
			for j := i + 1; j < len(seq); j++ {
				a, b := seq[i], seq[j]
				if a.Start <= b.End && b.Start <= a.End {
					t.Fatalf("round %d: %+v overlaps %+v", round, a, b)
				}
			}
		}
	}
}

func TestProperty_CountersConserved(t *testing.T) {
	r := rand.New(rand.NewSource(23))
	for round := 0; round < 50; round++ {
		events, start, end := generate(r, []string{"eu", "us", "ap"})
		var wantUp, wantDown int
		for _, e := range events {
			wantUp += e.Up
			wantDown += e.Down
		}

		var gotUp, gotDown int
		for _, e := range New(events, start, end).Events() {
			gotUp += e.Up
			gotDown += e.Down
		}
		if gotUp != wantUp || gotDown != wantDown {
			t.Fatalf("round %d: up/down = %d/%d, want %d/%d", round, gotUp, gotDown, wantUp, wantDown)
		}
	}
}

func TestProperty_OutputOrderedByEndDescending(t *testing.T) {
	r := rand.New(rand.NewSource(31))
	events, start, end := generate(r, []string{"eu", "us"})
	got := New(events, start, end).Events()
	for i := 1; i < len(got); i++ {
		if got[i-1].End < got[i].End {
			t.Fatalf("event %d End %d precedes larger End %d", i-1, got[i-1].End, got[i].End)
		}
	}
}

func TestProperty_LocationsSortedUnique(t *testing.T) {
	r := rand.New(rand.NewSource(43))
	events, start, end := generate(r, []string{"us", "eu", "ap", "sa"})
	for _, e := range New(events, start, end).Events() {
		for i := 1; i < len(e.Locations); i++ {
			if e.Locations[i-1] >= e.Locations[i] {
				t.Fatalf("Locations not sorted/unique: %v", e.Locations)
			}
		}
	}
}

func TestCombineStatuses(t *testing.T) {
	if got := CombineStatuses(StatusUp, StatusDown); got != CombineStatuses(StatusDown, StatusUp) {
		t.Errorf("CombineStatuses not commutative: %q vs %q", got, CombineStatuses(StatusDown, StatusUp))
	}
	if got := CombineStatuses(StatusUp, StatusDown); got != StatusFlapping {
		t.Errorf("CombineStatuses(up, down) = %q, want %q", got, StatusFlapping)
	}
	if got := CombineStatuses(StatusDown, StatusDown, StatusDown); got != StatusDown {
		t.Errorf("CombineStatuses(down x3) = %q, want %q", got, StatusDown)
	}
	if got := CombineStatuses(StatusMixed); got != StatusMixed {
		t.Errorf("CombineStatuses(mixed) = %q, want %q", got, StatusMixed)
	}
	if got := CombineStatuses(); got != "" {
		t.Errorf("CombineStatuses() = %q, want empty", got)
	}
}
