// Copyright 2025 Shadow Atlas Contributors
//
// Tessellation proof: cardinality, exclusivity, exhaustivity, containment
// (spec section 4.3.2), consulting the per-jurisdiction tolerance override
// table (pkg/reference) for known exceptions like NYC and Honolulu.

package validator

import (
	"fmt"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/reference"
)

const exclusivityToleranceMeters2 = 150000.0

// TessellationInput scopes one jurisdiction's tessellation check.
type TessellationInput struct {
	PlaceFIPS     string
	Jurisdiction  boundary.Geometry
	Candidates    []*boundary.Boundary
	ExpectedCount int
	Coastal       bool
}

// TessellationResult reports per-axiom pass/fail plus the measured ratios.
type TessellationResult struct {
	CardinalityPass  bool
	ExclusivityPass  bool
	ExhaustivityPass bool
	ContainmentPass  bool
	ExhaustivityRatio float64
	ContainmentRatio  float64
	OverrideApplied   bool
	OverrideNote      string
}

// Applicable reports whether all four axioms passed (spec's "tessellation
// soundness" property).
func (r TessellationResult) Applicable() bool {
	return r.CardinalityPass && r.ExclusivityPass && r.ExhaustivityPass && r.ContainmentPass
}

// CheckTessellation runs the four axioms against in.Candidates.
func CheckTessellation(in TessellationInput) TessellationResult {
	candidates := in.Candidates
	if len(candidates) != in.ExpectedCount {
		nonPlaceholder := filterPlaceholders(candidates)
		if len(nonPlaceholder) == in.ExpectedCount {
			candidates = nonPlaceholder
		}
	}

	result := TessellationResult{CardinalityPass: len(candidates) == in.ExpectedCount}

	result.ExclusivityPass = true
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			overlap := overlapAreaMeters(candidates[i].Geometry, candidates[j].Geometry)
			if overlap >= exclusivityToleranceMeters2 {
				result.ExclusivityPass = false
			}
		}
	}

	jurisdictionArea := geometryAreaMeters(in.Jurisdiction)
	var unionIntersectJurisdiction, unionArea float64
	for _, c := range candidates {
		unionArea += geometryAreaMeters(c.Geometry)
		unionIntersectJurisdiction += overlapAreaMeters(c.Geometry, in.Jurisdiction)
	}

	minRatio, maxRatio := 0.85, 1.15
	if in.Coastal {
		maxRatio = 2.0
	}
	if override, ok := reference.OverrideFor(in.PlaceFIPS); ok {
		result.OverrideApplied = true
		result.OverrideNote = override.Note
		minRatio = override.MinCoverage
	}

	if jurisdictionArea > 0 {
		result.ExhaustivityRatio = unionIntersectJurisdiction / jurisdictionArea
	}
	exhaustivityPass := result.ExhaustivityRatio >= minRatio && result.ExhaustivityRatio <= maxRatio
	if override, ok := reference.OverrideFor(in.PlaceFIPS); ok && override.Accepted && !exhaustivityPass {
		exhaustivityPass = true // flagged, not failed — see override.Note
	}
	result.ExhaustivityPass = exhaustivityPass

	if unionArea > 0 {
		unionOutsideJurisdiction := unionArea - unionIntersectJurisdiction
		if unionOutsideJurisdiction < 0 {
			unionOutsideJurisdiction = 0
		}
		result.ContainmentRatio = unionOutsideJurisdiction / unionArea
	}
	result.ContainmentPass = result.ContainmentRatio <= 0.15

	return result
}

func filterPlaceholders(candidates []*boundary.Boundary) []*boundary.Boundary {
	out := make([]*boundary.Boundary, 0, len(candidates))
	for _, c := range candidates {
		if !boundary.IsPlaceholderGEOID(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

func (r TessellationResult) String() string {
	return fmt.Sprintf("cardinality=%v exclusivity=%v exhaustivity=%v(%.2f) containment=%v(%.2f) override=%v",
		r.CardinalityPass, r.ExclusivityPass, r.ExhaustivityPass, r.ExhaustivityRatio,
		r.ContainmentPass, r.ContainmentRatio, r.OverrideApplied)
}
