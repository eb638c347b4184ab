// Copyright 2025 Shadow Atlas Contributors

package validator

import (
	"testing"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

func square(minLon, minLat, maxLon, maxLat float64) boundary.Geometry {
	ring := boundary.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}
	return boundary.Geometry{Polygons: [][]boundary.Ring{{ring}}}
}

func TestCheckCompletenessCongressionalDistricts(t *testing.T) {
	// California has 52 districts (GEOIDs 0601..0652); omit one to force a
	// missing entry and add a bogus 9999 to force an extra entry.
	var ids []string
	for i := 1; i <= 52; i++ {
		if i == 10 {
			continue
		}
		ids = append(ids, padCD("06", i))
	}
	ids = append(ids, "9999")

	report := CheckCompleteness(boundary.TypeCongressionalDistrict, ids)
	if report.Valid {
		t.Fatal("expected invalid completeness report")
	}
	if len(report.Missing) == 0 {
		t.Fatal("expected at least one missing GEOID")
	}
	foundExtra := false
	for _, id := range report.Extra {
		if id == "9999" {
			foundExtra = true
		}
	}
	if !foundExtra {
		t.Fatal("expected 9999 reported as extra")
	}
}

func padCD(fips string, d int) string {
	if d < 10 {
		return fips + "0" + itoa(d)
	}
	return fips + itoa(d)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestCheckCompletenessNoCanonicalData(t *testing.T) {
	report := CheckCompleteness(boundary.TypeVotingPrecinct, []string{"anything"})
	if !report.Valid {
		t.Fatal("layers without canonical data should always report valid")
	}
}

func TestCheckTopologySelfIntersection(t *testing.T) {
	bowtie := boundary.Ring{{0, 0}, {1, 1}, {1, 0}, {0, 1}, {0, 0}}
	b := &boundary.Boundary{ID: "0601", Geometry: boundary.Geometry{Polygons: [][]boundary.Ring{{bowtie}}}}
	report := CheckTopology([]*boundary.Boundary{b})
	if report.SelfIntersections == 0 {
		t.Fatal("expected bowtie ring to be flagged as self-intersecting")
	}
}

func TestCheckCoordinatesOutOfRange(t *testing.T) {
	b := &boundary.Boundary{ID: "0601", Geometry: square(-200, 10, -190, 20)}
	report := CheckCoordinates([]*boundary.Boundary{b})
	if report.OutOfRangeCount != 1 {
		t.Fatalf("expected 1 out-of-range boundary, got %d", report.OutOfRangeCount)
	}
}

func TestCheckCoordinatesNullIsland(t *testing.T) {
	b := &boundary.Boundary{ID: "0601", Geometry: square(-0.001, -0.001, 0.001, 0.001)}
	report := CheckCoordinates([]*boundary.Boundary{b})
	if report.SuspiciousCentroids != 1 {
		t.Fatal("expected null-island centroid to be flagged")
	}
}

func TestCheckTessellationCardinalityPromotion(t *testing.T) {
	jurisdiction := square(0, 0, 10, 10)
	candidates := []*boundary.Boundary{
		{ID: "001", Geometry: square(0, 0, 5, 10)},
		{ID: "002", Geometry: square(5, 0, 10, 10)},
		{ID: "099", Geometry: square(0, 0, 0.001, 0.001)}, // placeholder GEOID
	}
	result := CheckTessellation(TessellationInput{
		Jurisdiction:  jurisdiction,
		Candidates:    candidates,
		ExpectedCount: 2,
	})
	if !result.CardinalityPass {
		t.Fatal("expected cardinality to pass after placeholder removal")
	}
}

// lShape returns a concave L-shaped polygon occupying the lower-left three
// quarters of [minLon,maxLon]x[minLat,maxLat] — its bounding box is the
// full square, but the notch in the upper-right quadrant is empty.
func lShape(minLon, minLat, maxLon, maxLat float64) boundary.Geometry {
	midLon := (minLon + maxLon) / 2
	midLat := (minLat + maxLat) / 2
	ring := boundary.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, midLat},
		{midLon, midLat}, {midLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}
	return boundary.Geometry{Polygons: [][]boundary.Ring{{ring}}}
}

func TestCheckTessellationAdjacentConcaveDistrictsDoNotFailExclusivity(t *testing.T) {
	// Two L-shaped districts whose bounding boxes overlap heavily (both
	// span the full [0,10]x[0,10] square) but whose actual rings share
	// only a border, with zero true overlap area.
	candidates := []*boundary.Boundary{
		{ID: "001", Geometry: lShape(0, 0, 10, 10)},
		{ID: "002", Geometry: boundary.Geometry{Polygons: [][]boundary.Ring{{{
			{10, 10}, {5, 10}, {5, 5}, {10, 5}, {10, 10},
		}}}}},
	}
	result := CheckTessellation(TessellationInput{
		Jurisdiction:  square(0, 0, 10, 10),
		Candidates:    candidates,
		ExpectedCount: 2,
	})
	if !result.ExclusivityPass {
		t.Fatal("expected adjacent non-overlapping concave districts to pass exclusivity")
	}
}

func TestCheckTessellationOverlappingDistrictsFailExclusivity(t *testing.T) {
	candidates := []*boundary.Boundary{
		{ID: "001", Geometry: square(0, 0, 6, 10)},
		{ID: "002", Geometry: square(4, 0, 10, 10)}, // genuinely overlaps 001 in [4,6]x[0,10]
	}
	result := CheckTessellation(TessellationInput{
		Jurisdiction:  square(0, 0, 10, 10),
		Candidates:    candidates,
		ExpectedCount: 2,
	})
	if result.ExclusivityPass {
		t.Fatal("expected genuinely overlapping districts to fail exclusivity")
	}
}

func TestCheckRedistrictingGapCalifornia(t *testing.T) {
	inGap := time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)
	warning := CheckRedistrictingGap(boundary.TypeCongressionalDistrict, "06", inGap)
	if warning == nil {
		t.Fatal("expected gap warning for California CD on 2022-03-15")
	}
	if warning.Recommendation != "use-primary" {
		t.Fatalf("expected use-primary recommendation, got %s", warning.Recommendation)
	}

	closed := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if CheckRedistrictingGap(boundary.TypeCongressionalDistrict, "06", closed) != nil {
		t.Fatal("expected no gap warning once TIGER has published")
	}
}

func TestValidateComposesQualityScore(t *testing.T) {
	b := &boundary.Boundary{ID: "0601", BoundaryType: boundary.TypeCongressionalDistrict, Geometry: square(0, 0, 1, 1)}
	result := Validate(Input{
		Layer:      boundary.TypeVotingPrecinct, // no canonical data -> completeness always valid
		StateFIPS:  "06",
		Boundaries: []*boundary.Boundary{b},
		AsOf:       time.Now(),
	})
	if result.QualityScore <= 0 {
		t.Fatalf("expected positive quality score, got %f", result.QualityScore)
	}
	if result.TessellationApplicable {
		t.Fatal("tessellation should not apply when no TessellationInput was given")
	}
}
