package config

import "testing"

func TestServerConfigAddr(t *testing.T) {
	cases := []struct {
		host string
		port int
		want string
	}{
		{"127.0.0.1", 8080, "127.0.0.1:8080"},
		{"", 9000, "0.0.0.0:9000"},
	}
	for _, c := range cases {
		got := ServerConfig{Host: c.host, Port: c.port}.Addr()
		if got != c.want {
			t.Errorf("Addr(%q, %d) = %q, want %q", c.host, c.port, got, c.want)
		}
	}
}

func TestDefaultCoins(t *testing.T) {
	coins := DefaultCoins()
	if coins.CostNormal <= 0 || coins.CostExclusive <= 0 {
		t.Fatalf("default costs must be positive: %+v", coins)
	}
	if coins.CostExclusive <= coins.CostNormal {
		t.Errorf("exclusive cost %d should exceed normal cost %d", coins.CostExclusive, coins.CostNormal)
	}
	if coins.MaxSlots != 4 {
		t.Errorf("default max slots = %d, want 4", coins.MaxSlots)
	}
	if coins.GuaranteePercent < 0 || coins.GuaranteePercent > 100 {
		t.Errorf("guarantee percent out of range: %d", coins.GuaranteePercent)
	}
}

func TestStoreSnapshotWithoutRedis(t *testing.T) {
	store := NewStore(DefaultCoins(), nil)
	got := store.Snapshot()
	if got != DefaultCoins() {
		t.Errorf("snapshot = %+v, want defaults", got)
	}
}

func TestStoreUpdate(t *testing.T) {
	store := NewStore(DefaultCoins(), nil)

	updated := CoinsConfig{
		CostNormal:          20,
		CostExclusive:       60,
		MaxSlots:            5,
		GuaranteePercent:    50,
		GuaranteeWindowDays: 14,
	}
	if err := store.Update(updated); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}
	if got := store.Snapshot(); got != updated {
		t.Errorf("snapshot after update = %+v, want %+v", got, updated)
	}
}

func TestStoreUpdateRejectsInvalid(t *testing.T) {
	store := NewStore(DefaultCoins(), nil)

	bad := []CoinsConfig{
		{CostNormal: 0, CostExclusive: 50, MaxSlots: 4, GuaranteePercent: 30},
		{CostNormal: 15, CostExclusive: 0, MaxSlots: 4, GuaranteePercent: 30},
		{CostNormal: 15, CostExclusive: 50, MaxSlots: 0, GuaranteePercent: 30},
		{CostNormal: 15, CostExclusive: 50, MaxSlots: 4, GuaranteePercent: 101},
		{CostNormal: 15, CostExclusive: 50, MaxSlots: 4, GuaranteePercent: -1},
		{CostNormal: 15, CostExclusive: 50, MaxSlots: 4, GuaranteePercent: 30, GuaranteeWindowDays: -1},
	}
	before := store.Snapshot()
	for i, coins := range bad {
		if err := store.Update(coins); err == nil {
			t.Errorf("case %d: invalid config accepted: %+v", i, coins)
		}
	}
	if got := store.Snapshot(); got != before {
		t.Errorf("rejected update leaked into snapshot: %+v", got)
	}
}
