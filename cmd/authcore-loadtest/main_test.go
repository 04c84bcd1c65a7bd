package main

import (
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50 = %v, want 5", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100 = %v, want 10", got)
	}
	if got := percentile(nil, 99); got != 0 {
		t.Fatalf("empty percentile = %v", got)
	}
}

func TestRunPhaseCountsFailures(t *testing.T) {
	ids := []string{"a", "b"}
	s := runPhase(ids, 100, 4, func(id string) bool { return id == "a" })
	if s.ops != 100 {
		t.Fatalf("ops = %d, want 100", s.ops)
	}
	if s.failures == 0 || s.failures == 100 {
		t.Fatalf("expected a mix of failures, got %d", s.failures)
	}
}
