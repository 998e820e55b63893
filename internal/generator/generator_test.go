package generator_test

import (
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/aoi-yuito/disrecord/internal/generator"
)

func TestUUIDV7Generator_Next_Format(t *testing.T) {
	regex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	gen := generator.UUIDV7Generator{}

	seen := make(map[string]struct{})
	for range 1000 {
		id, err := gen.Next()
		if err != nil {
			t.Fatal("expected no error, got:", err)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("expected a unique ID, got duplicate: %s", id)
		}
		seen[id] = struct{}{}

		if !regex.MatchString(id) {
			t.Fatalf("expected valid UUIDv7 format, got %s", id)
		}
	}
}

func TestUUIDV7Generator_Next_Sortable(t *testing.T) {
	gen := generator.UUIDV7Generator{}

	var ids []string
	for range 5 {
		id, err := gen.Next()
		if err != nil {
			t.Fatal("expected no error, got:", err)
		}
		ids = append(ids, id)
		// UUIDv7 has millisecond timestamp precision.
		time.Sleep(2 * time.Millisecond)
	}

	if !sort.StringsAreSorted(ids) {
		t.Errorf("expected ids generated over time to sort lexicographically, got %v", ids)
	}
}
