package risk

import "testing"

func TestAllow(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: 50}
	if !limits.Allow(49.9) {
		t.Fatalf("expected notional under limit to pass")
	}
	if limits.Allow(50.1) {
		t.Fatalf("expected notional above limit to fail")
	}
}

func TestUncappedLimits(t *testing.T) {
	var limits Limits
	if !limits.Allow(1e9) {
		t.Fatalf("expected zero cap to disable the check")
	}
}

func TestCheckReasons(t *testing.T) {
	limits := Limits{MaxNotionalPerTrade: 100, MinNotional: 1}
	if err := limits.Check(10); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if err := limits.Check(0.5); err == nil {
		t.Fatalf("expected minimum error")
	}
	if err := limits.Check(101); err == nil {
		t.Fatalf("expected cap error")
	}
}
