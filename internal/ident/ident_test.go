package ident

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewFormat(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	id := NewAt(now)

	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		t.Fatalf("expected timestamp and random parts, got %q", id)
	}

	ms, err := strconv.ParseInt(parts[0], 36, 64)
	if err != nil {
		t.Fatalf("timestamp part is not base36: %v", err)
	}
	if ms != now.UnixMilli() {
		t.Fatalf("expected %d, got %d", now.UnixMilli(), ms)
	}

	if len(parts[1]) != randomLen {
		t.Fatalf("expected %d random characters, got %d", randomLen, len(parts[1]))
	}
	for _, r := range parts[1] {
		if (r < 'a' || r > 'z') && (r < '2' || r > '7') {
			t.Fatalf("unexpected character %q in id", r)
		}
	}
}

func TestNewUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		id := NewAt(now)
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %q after %d iterations", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestDeviceID(t *testing.T) {
	a, b := DeviceID(), DeviceID()
	if !strings.HasPrefix(a, "device-") {
		t.Fatalf("expected device- prefix, got %q", a)
	}
	if a == b {
		t.Fatal("expected distinct device ids")
	}
}
