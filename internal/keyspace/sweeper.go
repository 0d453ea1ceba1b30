package keyspace

import "time"

// runSweeper is the background reaper: once per sweepInterval it
// scans the LRU list from the back (oldest access first, though
// sweeping has nothing to do with recency) and removes anything whose
// deadline has passed. It never replies to a client and has no
// observable effect beyond removals and counter updates.
func (k *Keyspace) runSweeper(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(k.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.deleteExpired()
		case <-stop:
			return
		}
	}
}

// deleteExpired removes every expired entry under the keyspace lock.
// Kept as its own method (rather than folded into runSweeper) so a
// sweep can be run directly, without waiting for the ticker.
func (k *Keyspace) deleteExpired() {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()
	for elem := k.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*entry).expired(now) {
			k.removeElement(elem)
		}
		elem = prev
	}
}
