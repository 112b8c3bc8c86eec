package middleware

import "testing"

func TestTokenBucketDrains(t *testing.T) {
	tb := NewTokenBucket(3, 1)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d should pass within capacity", i)
		}
	}
	if tb.Allow() {
		t.Error("request beyond capacity should be rejected")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	tb := NewTokenBucket(2, 5)
	tb.tokens = 0
	// 把上次补充时间拨回一秒，模拟时间流逝
	tb.lastRefill = tb.lastRefill.Add(-1_000_000_000)

	if !tb.Allow() {
		t.Error("bucket should refill after elapsed time")
	}
}

func TestTokenBucketCapacityCap(t *testing.T) {
	tb := NewTokenBucket(2, 100)
	tb.lastRefill = tb.lastRefill.Add(-10_000_000_000)

	// 补充后不超过容量
	for i := 0; i < 2; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d should pass", i)
		}
	}
	if tb.Allow() {
		t.Error("tokens must not exceed capacity after refill")
	}
}
