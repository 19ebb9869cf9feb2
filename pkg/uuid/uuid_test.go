package uuid

import (
	"regexp"
	"sort"
	"testing"
	"time"
)

var uuidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewV7_Format(t *testing.T) {
	t.Parallel()

	s := NewV7().String()
	if !uuidRe.MatchString(s) {
		t.Errorf("NewV7().String() = %q, not a valid v7 UUID", s)
	}
}

func TestNewV7_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := NewString()
		if seen[s] {
			t.Fatalf("duplicate UUID generated: %s", s)
		}
		seen[s] = true
	}
}

func TestNewV7_SortableByTime(t *testing.T) {
	t.Parallel()

	first := NewV7().String()
	time.Sleep(2 * time.Millisecond)
	second := NewV7().String()

	ids := []string{second, first}
	sort.Strings(ids)
	if ids[0] != first {
		t.Errorf("expected %q to sort before %q", first, second)
	}
}
