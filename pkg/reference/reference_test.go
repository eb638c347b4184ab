// Copyright 2025 Shadow Atlas Contributors

package reference

import (
	"testing"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

func TestCanonicalCongressionalDistrictsTotal(t *testing.T) {
	ids := CanonicalCongressionalDistricts()
	if len(ids) != 441 {
		t.Fatalf("expected 441 canonical CDs, got %d", len(ids))
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate canonical CD GEOID %s", id)
		}
		seen[id] = true
		if err := boundary.ValidateGEOID(boundary.TypeCongressionalDistrict, id); err != nil {
			t.Fatalf("canonical CD %s fails GEOID validation: %v", id, err)
		}
	}
}

func TestCanonicalCountiesTotal(t *testing.T) {
	ids := CanonicalCounties()
	if len(ids) != 3235 {
		t.Fatalf("expected 3235 canonical counties, got %d", len(ids))
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate canonical county GEOID %s", id)
		}
		seen[id] = true
		if err := boundary.ValidateGEOID(boundary.TypeCounty, id); err != nil {
			t.Fatalf("canonical county %s fails GEOID validation: %v", id, err)
		}
	}
}

func TestCanonicalSetUnknownLayer(t *testing.T) {
	if _, err := CanonicalSet(boundary.TypeVotingPrecinct); err != ErrNoCanonicalData {
		t.Fatalf("expected ErrNoCanonicalData for voting precincts, got %v", err)
	}
	if HasCanonicalData(boundary.TypeVotingPrecinct) {
		t.Fatal("voting precincts should not report canonical data")
	}
	if !HasCanonicalData(boundary.TypeCounty) {
		t.Fatal("counties should report canonical data")
	}
}

func TestRedistrictingGapCalifornia(t *testing.T) {
	inGap := InRedistrictingGap("06", boundary.TypeCongressionalDistrict, time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC))
	if !inGap {
		t.Fatal("expected California CD to be in its redistricting gap on 2022-03-15")
	}
	notInGap := InRedistrictingGap("06", boundary.TypeCongressionalDistrict, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	if notInGap {
		t.Fatal("expected California CD gap to have closed by 2024-06-15")
	}
}

func TestRedistrictingGapNonLegislativeLayer(t *testing.T) {
	if InRedistrictingGap("06", boundary.TypeSchoolUnified, time.Now()) {
		t.Fatal("school districts are not subject to redistricting gap detection")
	}
}

func TestOverrideTable(t *testing.T) {
	nyc, ok := OverrideFor("3651000")
	if !ok || !nyc.Accepted {
		t.Fatal("expected NYC override to be present and accepted")
	}
	honolulu, ok := OverrideFor("1509000")
	if !ok || !honolulu.Accepted {
		t.Fatal("expected Honolulu override to be present and accepted")
	}
	if _, ok := OverrideFor("9999999"); ok {
		t.Fatal("unexpected override for unknown place")
	}
}
