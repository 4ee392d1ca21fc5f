package id

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		value, err := New()
		if err != nil {
			t.Fatalf("generate id: %v", err)
		}
		if len(value) != length {
			t.Fatalf("expected %d characters, got %d (%q)", length, len(value), value)
		}
		if strings.ToLower(value) != value {
			t.Fatalf("expected lowercase id, got %q", value)
		}
		if _, dup := seen[value]; dup {
			t.Fatalf("duplicate id generated: %q", value)
		}
		seen[value] = struct{}{}
	}
}
