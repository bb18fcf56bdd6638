package timeline

import (
	"slices"
	"sort"
)

type match struct {
	index    int
	distance int64
}

// mergeLocationsIntoComputed greedily folds temporally similar events from
// different locations into multi-location events.
//
// The pool is consumed as a stack (last element first) and, per location,
// the closest candidate wins with ties going to the first one seen. Both
// orderings decide the output when candidates are equidistant.
func mergeLocationsIntoComputed(byLocation map[string][]LocationEvent, order []string, slop int64) []MultiLocationEvent {
	var pool []LocationEvent
	for _, loc := range order {
		pool = append(pool, byLocation[loc]...)
	}

	results := make([]MultiLocationEvent, 0, len(pool))
	for len(pool) > 0 {
		e := pool[len(pool)-1]
		pool = pool[:len(pool)-1]

		slopDistance := tolerance(e.Interval, slop)

		best := make(map[string]match)
		var matchedLocations []string
		for i, c := range pool {
			startDistance := abs(e.Start - c.Start)
			endDistance := abs(e.End - c.End)
			if startDistance > slopDistance || endDistance > slopDistance {
				continue
			}
			distance := startDistance + endDistance
			prev, seen := best[c.Location]
			if !seen {
				matchedLocations = append(matchedLocations, c.Location)
			}
			if !seen || prev.distance > distance {
				best[c.Location] = match{index: i, distance: distance}
			}
		}

		if len(matchedLocations) == 0 {
			results = append(results, e.single())
			continue
		}

		consumed := make([]int, 0, len(matchedLocations))
		matches := make([]LocationEvent, 0, len(matchedLocations))
		for _, loc := range matchedLocations {
			m := best[loc]
			consumed = append(consumed, m.index)
			matches = append(matches, pool[m.index])
		}
		results = append(results, combine(e, matches))

		pool = removeIndexes(pool, consumed)
	}
	return results
}

// sortComputed orders events by End descending. Events with equal End end up
// in the reverse of their stable ascending order.
func sortComputed(events []MultiLocationEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].End < events[j].End })
	slices.Reverse(events)
}

func removeIndexes(pool []LocationEvent, indexes []int) []LocationEvent {
	sort.Sort(sort.Reverse(sort.IntSlice(indexes)))
	for _, i := range indexes {
		pool = slices.Delete(pool, i, i+1)
	}
	return pool
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
