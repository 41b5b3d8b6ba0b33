// Package session holds the small pieces of per-session bookkeeping the
// search orchestrator consults: the query deduplicator, the page tracker,
// and the set of enrichment pairs already computed.
//
// None of these types lock. They are owned by one orchestrator, which
// guards them with its session mutex.
package session

// Deduplicator suppresses re-issuing the most recently accepted query key.
// It is a last-writer-wins guard, not an in-flight registry.
type Deduplicator struct {
	last string
	set  bool
}

// ShouldIssue reports whether key may be issued. It returns false when key
// equals the last accepted key; otherwise it records key and returns true.
func (d *Deduplicator) ShouldIssue(key string) bool {
	if d.set && d.last == key {
		return false
	}
	d.last = key
	d.set = true
	return true
}

// Forget clears the tracked key if it equals key, so a retry of a failed
// request is let through. A different tracked key is left alone.
func (d *Deduplicator) Forget(key string) {
	if d.set && d.last == key {
		d.Clear()
	}
}

// Clear drops the tracked key.
func (d *Deduplicator) Clear() {
	d.last = ""
	d.set = false
}

// Last returns the tracked key and whether one is set.
func (d *Deduplicator) Last() (string, bool) {
	return d.last, d.set
}
