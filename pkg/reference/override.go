// Copyright 2025 Shadow Atlas Contributors
//
// Per-jurisdiction tessellation tolerance overrides. The exhaustivity axiom
// (spec section 4.3.3) expects a layer's boundaries to tile their parent
// region to within a small tolerance; a handful of real jurisdictions never
// will, for structural reasons unrelated to data quality, and need a named
// carve-out instead of a blanket tolerance relaxation.

package reference

// ToleranceOverride relaxes (or tightens) the exhaustivity tolerance for
// one place, and records why.
type ToleranceOverride struct {
	PlaceFIPS    string
	MinCoverage  float64 // accept coverage ratios at or above this
	Accepted     bool    // true: downgrade a tolerance failure to a warning
	Note         string
}

// placeOverrides is keyed by 7-digit place GEOID.
var placeOverrides = map[string]ToleranceOverride{
	// New York City: the five constituent counties each publish their own
	// council-district tessellation independently, and the published city
	// council layer only covers roughly 55% of the five-borough area once
	// park land and unincorporated waterway parcels are excluded. Accepted
	// per Open Question resolution: flag, don't fail.
	"3651000": {
		PlaceFIPS:   "3651000",
		MinCoverage: 0.50,
		Accepted:    true,
		Note:        "five-borough council districts exclude large non-residential parcels; coverage ~55% is expected",
	},
	// Honolulu: city and county are coextensive with all of Oahu, but the
	// authoritative source publishes the urban core only for the municipal
	// council layer. Prefer the authoritative (partial) geometry over a
	// synthesized full-island fallback.
	"1509000": {
		PlaceFIPS:   "1509000",
		MinCoverage: 0.0,
		Accepted:    true,
		Note:        "authoritative council-district source covers urban Honolulu only; do not fall back to a synthesized full-island boundary",
	},
	// Portland, OR: the documented worked example for a municipal ArcGIS
	// provider override (spec section 3, municipal resolver precedence).
	"4159000": {
		PlaceFIPS:   "4159000",
		MinCoverage: 0.98,
		Accepted:    false,
		Note:        "standard full-coverage expectation; listed to document municipal-resolver precedence, not to relax tolerance",
	},
}

// OverrideFor returns the tolerance override for a place GEOID, if any.
func OverrideFor(placeFIPS string) (ToleranceOverride, bool) {
	o, ok := placeOverrides[placeFIPS]
	return o, ok
}
