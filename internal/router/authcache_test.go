package router

import (
	"testing"
	"time"
)

func TestAuthCacheStoreAndLookup(t *testing.T) {
	c := NewAuthCache(16, time.Minute, time.Second)

	if _, ok := c.Lookup("k1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Store("k1", Binding{TenantID: "t1", Host: "localhost", Port: 6380})

	b, ok := c.Lookup("k1")
	if !ok {
		t.Fatal("expected hit after store")
	}
	if b.TenantID != "t1" || b.Port != 6380 {
		t.Errorf("unexpected binding: %+v", b)
	}
}

func TestAuthCacheRejectedRoundTrip(t *testing.T) {
	c := NewAuthCache(16, time.Minute, time.Minute)

	if c.Rejected("bad") {
		t.Fatal("expected not rejected before StoreRejected")
	}
	c.StoreRejected("bad")
	if !c.Rejected("bad") {
		t.Fatal("expected rejected after StoreRejected")
	}
}

func TestAuthCacheStoreClearsRejection(t *testing.T) {
	c := NewAuthCache(16, time.Minute, time.Minute)

	c.StoreRejected("k2")
	if !c.Rejected("k2") {
		t.Fatal("expected rejected")
	}

	c.Store("k2", Binding{TenantID: "t2"})
	if c.Rejected("k2") {
		t.Fatal("expected rejection cleared once the key verifies")
	}
}

func TestAuthCacheDefaultSize(t *testing.T) {
	c := NewAuthCache(0, time.Minute, time.Minute)
	if c.positive == nil || c.negative == nil {
		t.Fatal("expected caches to be initialized with default size")
	}
}
