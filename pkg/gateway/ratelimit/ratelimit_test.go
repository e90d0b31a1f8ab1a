package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func TestAllow_WithinWindow(t *testing.T) {
	l := New(Config{Max: 3, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1", now.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1", now.Add(3*time.Second)) {
		t.Fatal("request past max within window should be denied")
	}
}

func TestAllow_WindowResets(t *testing.T) {
	l := New(Config{Max: 2, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	if !l.Allow("a", now) || !l.Allow("a", now) {
		t.Fatal("first two should pass")
	}
	if l.Allow("a", now.Add(30*time.Second)) {
		t.Fatal("third within window should be denied")
	}
	// A full window after the first request, the count resets to 1.
	if !l.Allow("a", now.Add(time.Minute+time.Millisecond)) {
		t.Fatal("request after window elapsed should pass")
	}
	if !l.Allow("a", now.Add(time.Minute+2*time.Millisecond)) {
		t.Fatal("count should have reset to 1")
	}
}

func TestAllow_AddressesIndependent(t *testing.T) {
	l := New(Config{Max: 1, Window: time.Minute})
	now := time.Unix(1_700_000_000, 0)

	if !l.Allow("a", now) {
		t.Fatal("first from a should pass")
	}
	if l.Allow("a", now) {
		t.Fatal("second from a should be denied")
	}
	if !l.Allow("b", now) {
		t.Fatal("first from b should pass")
	}
}

func TestAllow_DisabledWhenUnconfigured(t *testing.T) {
	l := New(Config{})
	now := time.Now()
	for i := 0; i < 100; i++ {
		if !l.Allow("a", now) {
			t.Fatal("unconfigured limiter should allow everything")
		}
	}
}

func TestAllow_MaxEntriesBounded(t *testing.T) {
	l := New(Config{Max: 1, Window: time.Minute, MaxEntries: 4})
	now := time.Unix(1_700_000_000, 0)
	for i := 0; i < 32; i++ {
		l.Allow(fmt.Sprintf("addr-%d", i), now.Add(time.Duration(i)*time.Second))
	}
	l.mu.Lock()
	n := len(l.m)
	l.mu.Unlock()
	if n > 4 {
		t.Fatalf("map grew to %d entries, want <= 4", n)
	}
}
