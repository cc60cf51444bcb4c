package videoid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	id := New()
	if !strings.HasPrefix(id, "vid_") {
		t.Fatalf("expected vid_ prefix, got %s", id)
	}
	if !IsValid(id) {
		t.Fatalf("expected generated id to be valid, got %s", id)
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := New()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"generated id", New(), true},
		{"missing prefix", "01hqv3x8y5z6w7a8b9c0d1e2f3", false},
		{"wrong prefix", "job_01hqv3x8y5z6w7a8b9c0d1e2f3", false},
		{"garbage", "vid_not-a-ulid", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.value); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
