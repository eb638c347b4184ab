// Copyright 2025 Shadow Atlas Contributors
//
// Top-level canonical-reference lookup. Congressional districts and
// counties are the only layers with a nationally standardized, enumerable
// total (spec section 8, completeness property 7); other layers are
// apportioned by each state independently and have no fixed national count,
// so CanonicalSet reports ErrNoCanonicalData for them rather than fabricate
// a number.

package reference

import (
	"errors"
	"sync"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

// ErrNoCanonicalData is returned by CanonicalSet for boundary types this
// package does not carry a nationally enumerable canonical list for.
var ErrNoCanonicalData = errors.New("reference: no canonical GEOID data for this boundary type")

var (
	cdOnce     sync.Once
	cdSet      map[string]struct{}
	countyOnce sync.Once
	countySet  map[string]struct{}
)

// CanonicalSet returns the canonical GEOID set for a boundary type, as a
// lookup set suitable for a completeness scan. Built lazily and cached;
// the underlying slices are immutable package data.
func CanonicalSet(t boundary.Type) (map[string]struct{}, error) {
	switch t {
	case boundary.TypeCongressionalDistrict:
		cdOnce.Do(func() {
			ids := CanonicalCongressionalDistricts()
			cdSet = make(map[string]struct{}, len(ids))
			for _, id := range ids {
				cdSet[id] = struct{}{}
			}
		})
		return cdSet, nil
	case boundary.TypeCounty:
		countyOnce.Do(func() {
			ids := CanonicalCounties()
			countySet = make(map[string]struct{}, len(ids))
			for _, id := range ids {
				countySet[id] = struct{}{}
			}
		})
		return countySet, nil
	default:
		return nil, ErrNoCanonicalData
	}
}

// HasCanonicalData reports whether a boundary type carries a canonical
// reference list at all.
func HasCanonicalData(t boundary.Type) bool {
	return t == boundary.TypeCongressionalDistrict || t == boundary.TypeCounty
}

// ExpectedCount reports the canonical number of boundaries a single state's
// scope should contain for layers with a nationally enumerable total, for
// use as the tessellation proof's cardinality axiom (spec section 4.3.2).
// Layers without a canonical per-state total (anything apportioned
// independently by each state or municipality) report ok=false rather than
// fabricate a number.
func ExpectedCount(t boundary.Type, stateFIPS string) (int, bool) {
	switch t {
	case boundary.TypeCongressionalDistrict:
		seats, ok := cdSeats[stateFIPS]
		return seats, ok
	case boundary.TypeCounty:
		n, ok := countyCount[stateFIPS]
		return n, ok
	default:
		return 0, false
	}
}
