package keyspace

import (
	"testing"
)

// BenchmarkSet measures the write path: quota check, LRU move/insert,
// and RESP encoding, repeatedly overwriting the same key.
func BenchmarkSet(b *testing.B) {
	k := New(Config{TenantID: "bench", MemoryLimitMB: 64})
	k.Start()
	defer k.Stop()

	for i := 0; i < b.N; i++ {
		k.Execute("SET", []string{"key", "value"})
	}
}

func BenchmarkGetHit(b *testing.B) {
	k := New(Config{TenantID: "bench", MemoryLimitMB: 64})
	k.Start()
	defer k.Stop()
	k.Execute("SET", []string{"key", "value"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k.Execute("GET", []string{"key"})
	}
}
