package keyspace

import "time"

// entryOverhead is the fixed per-entry bookkeeping cost folded into
// every footprint calculation, on top of the raw key/value bytes.
const entryOverhead = 8

// entry is a single stored value inside a Keyspace.
//
// expiry is stored as UnixNano for fast numeric comparison without an
// extra time.Time allocation. A zero expiry means the entry never
// expires.
type entry struct {
	key      string
	value    []byte
	expiry   int64
	tenantID string
}

// footprint returns len(key)+len(value)+entryOverhead, the unit the
// per-tenant quota is measured in.
func (e *entry) footprint() int64 {
	return int64(len(e.key)) + int64(len(e.value)) + entryOverhead
}

// expired reports whether e's deadline has passed. A zero expiry
// never expires.
func (e *entry) expired(now time.Time) bool {
	if e.expiry == 0 {
		return false
	}
	return now.UnixNano() > e.expiry
}

func footprintFor(key string, value []byte) int64 {
	return int64(len(key)) + int64(len(value)) + entryOverhead
}
