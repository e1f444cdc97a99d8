// Package models defines the domain types flowing through the sync pipeline.
//
// A [RadioTrack] is one play reported by the station's log feed. The
// resolver pairs it with a catalog match to produce a [ResolvedTrack];
// matches (and misses) persist locally as [TrackMatch] rows. A completed
// invocation is summarized as a [RunSummary].
package models
