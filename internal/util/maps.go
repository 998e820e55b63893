package util

import "fmt"

// GetOne returns the sole value in m. It errors when the map is empty or
// holds more than one entry, so callers can require exactly one of
// something (e.g. one attachment on an upload).
func GetOne[K comparable, V any](m map[K]V) (V, error) {
	var zero V
	if len(m) != 1 {
		return zero, fmt.Errorf("expected exactly one element, found %d", len(m))
	}
	for _, v := range m {
		return v, nil
	}
	return zero, nil
}
