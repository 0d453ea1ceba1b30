package tenant

import "testing"

func TestAllocatePortSequential(t *testing.T) {
	s := &Service{portLow: 100, portHigh: 102, nextPort: 100}

	p1, err := s.allocatePort()
	if err != nil {
		t.Fatalf("allocatePort: %v", err)
	}
	p2, err := s.allocatePort()
	if err != nil {
		t.Fatalf("allocatePort: %v", err)
	}
	if p1 != 100 || p2 != 101 {
		t.Errorf("got ports %d, %d, want 100, 101", p1, p2)
	}
}

func TestAllocatePortExhausted(t *testing.T) {
	s := &Service{portLow: 100, portHigh: 100, nextPort: 100}

	if _, err := s.allocatePort(); err != nil {
		t.Fatalf("first allocation should succeed: %v", err)
	}
	if _, err := s.allocatePort(); err == nil {
		t.Fatal("expected range-exhausted error on second allocation")
	}
}
