package keyspace

// Stats tracks runtime performance counters for a single Keyspace:
// hits/misses on GET, and entries removed by quota-driven eviction. Deliberately minimal, no internal locking,
// synchronized entirely by the Keyspace's own lock.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Stats returns a snapshot of the keyspace's runtime counters.
func (k *Keyspace) Stats() Stats {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stats
}
