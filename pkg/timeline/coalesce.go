package timeline

import "sort"

// coalesceIdenticalStart merges events sharing an exact Start. Members of one
// group share an interval upstream, so the first member's interval is kept.
// The result is sorted by Start ascending.
func coalesceIdenticalStart(events []LocationEvent) []LocationEvent {
	if len(events) == 0 {
		return nil
	}

	groups := make(map[int64][]LocationEvent)
	starts := make([]int64, 0, len(events))
	for _, e := range events {
		if _, ok := groups[e.Start]; !ok {
			starts = append(starts, e.Start)
		}
		groups[e.Start] = append(groups[e.Start], e)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	out := make([]LocationEvent, 0, len(starts))
	for _, start := range starts {
		group := groups[start]
		merged := group[0]
		statuses := make([]string, 0, len(group))
		statuses = append(statuses, merged.Status)

		for _, e := range group[1:] {
			merged.End = max(merged.End, e.End)
			merged.Up += e.Up
			merged.Down += e.Down
			statuses = append(statuses, e.Status)
		}
		merged.Status = CombineStatuses(statuses...)
		out = append(out, merged)
	}
	return out
}

// coalesceCloseTogether merges runs of same-status events whose gap to the
// preceding run is under the candidate's tolerance. Each candidate is only
// compared with the run directly before it.
func coalesceCloseTogether(events []LocationEvent, slop int64) []LocationEvent {
	if len(events) < 2 {
		return events
	}

	out := make([]LocationEvent, 0, len(events))
	run := events[0]
	for _, next := range events[1:] {
		if next.Status == run.Status && next.Start-run.End < tolerance(next.Interval, slop) {
			run = LocationEvent{
				Location: run.Location,
				Interval: run.Interval,
				Status:   run.Status,
				Start:    run.Start,
				End:      max(run.End, next.End),
				Up:       run.Up + next.Up,
				Down:     run.Down + next.Down,
			}
			continue
		}
		out = append(out, run)
		run = next
	}
	return append(out, run)
}

// calculateNoData inserts StatusMissing events wherever a location has no
// data for longer than tolerance, including the edges of [start, end].
func calculateNoData(events []LocationEvent, start, end, slop int64) []LocationEvent {
	if len(events) == 0 {
		return events
	}

	out := make([]LocationEvent, 0, len(events)*2+1)

	first := events[0]
	if (first.Start-1)-start > tolerance(first.Interval, slop) {
		out = append(out, missing(first.Location, first.Interval, start, first.Start-1))
	}

	for i, e := range events {
		out = append(out, e)
		if i+1 == len(events) {
			break
		}
		next := events[i+1]
		if (next.Start-1)-(e.End+1) > tolerance(next.Interval, slop) {
			out = append(out, missing(e.Location, next.Interval, e.End+1, next.Start-1))
		}
	}

	last := events[len(events)-1]
	if end-(last.End+1) > tolerance(last.Interval, slop) {
		out = append(out, missing(last.Location, last.Interval, last.End+1, end))
	}
	return out
}

func missing(location string, interval, start, end int64) LocationEvent {
	return LocationEvent{
		Location: location,
		Interval: interval,
		Status:   StatusMissing,
		Start:    start,
		End:      end,
	}
}
