// Package enums holds the string enums shared by the database schema, the
// HTTP API and outbox payloads.
package enums

import (
	"fmt"
	"slices"
)

func member[T ~string](set []T, v T) bool {
	return slices.Contains(set, v)
}

func parse[T ~string](set []T, raw, kind string) (T, error) {
	if v := T(raw); member(set, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
