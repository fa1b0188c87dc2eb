package models

import "time"

// CachedCollection is the last known snapshot of a remote collection,
// persisted on the terminal. A snapshot is served only while
// now - WrittenAt stays inside the staleness window; after that it is
// treated as absent and deleted on the next access.
type CachedCollection struct {
	Name      string    `json:"name"`
	Records   []Record  `json:"records"`
	WrittenAt time.Time `json:"written_at"`
}

// Stale reports whether the snapshot is older than maxAge at the given
// moment.
func (c *CachedCollection) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(c.WrittenAt) > maxAge
}
