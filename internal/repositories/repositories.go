// package repositories provides the SQLite persistence layer.
//
// TrackMatchRepository caches catalog search outcomes (hits and misses) so
// repeated runs skip searches they've already done. RunRepository keeps a
// history of pipeline invocations for reporting.
package repositories

import "time"

// sqliteTime is the timestamp format SQLite's CURRENT_TIMESTAMP produces.
const sqliteTime = "2006-01-02 15:04:05"

func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse(sqliteTime, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
