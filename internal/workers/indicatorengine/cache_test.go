package indicatorengine

import "testing"

func TestDailySMACache_HitAndMiss(t *testing.T) {
	c := newDailySMACache()

	if _, ok := c.Get("AAPL", "2026-07-20"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("AAPL", "2026-07-20", 150.0)
	v, ok := c.Get("AAPL", "2026-07-20")
	if !ok || v != 150.0 {
		t.Fatalf("expected hit with value 150.0, got %v %v", v, ok)
	}
}

func TestDailySMACache_EvictsStaleDateOnRollover(t *testing.T) {
	c := newDailySMACache()
	c.Set("AAPL", "2026-07-20", 150.0)
	c.Set("AAPL", "2026-07-21", 151.0)

	if _, ok := c.Get("AAPL", "2026-07-20"); ok {
		t.Fatal("expected the prior date's entry to be evicted on rollover")
	}
	v, ok := c.Get("AAPL", "2026-07-21")
	if !ok || v != 151.0 {
		t.Fatalf("expected current date hit with 151.0, got %v %v", v, ok)
	}
}

func TestDailySMACache_IndependentPerSymbol(t *testing.T) {
	c := newDailySMACache()
	c.Set("AAPL", "2026-07-20", 150.0)
	c.Set("MSFT", "2026-07-20", 300.0)

	aapl, _ := c.Get("AAPL", "2026-07-20")
	msft, _ := c.Get("MSFT", "2026-07-20")
	if aapl == msft {
		t.Fatal("expected per-symbol cache isolation")
	}
}
