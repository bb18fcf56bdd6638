// Package timeline turns per-location uptime check spans into a single
// coalesced timeline for one monitor.
//
// A Timeline runs five passes when Events is first read after a mutation:
//
//  1. per location, events sharing a start are merged
//  2. per location, adjacent same-status events within tolerance are merged
//  3. per location, gaps wider than tolerance become "missing" events
//  4. events from different locations with similar bounds are combined
//  5. the result is ordered by end, most recent first
//
// Tolerance is IntervalSlop multiplied by the interval of the event being
// compared. The package does no I/O and keeps no state between Timelines.
package timeline
