// Copyright 2025 Shadow Atlas Contributors
//
// Normalizer: the stage between a provider's raw Fetch result and the
// validators/Merkle builder. Validates GEOID shape and CRS, and resolves
// precedence when
// more than one provider yields a boundary for the same (type, id) per
// spec section 4.2: authority rank first, then retrievedAt (newest wins),
// then providerName lexicographically as the final tie-break. Provenance
// (source checksum, retrievedAt) passes through exactly as each provider
// set it; this package neither computes nor fills it in.

package normalizer

import (
	"sort"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/errs"
)

// Normalize validates a batch of raw boundaries from a single provider
// fetch, returning only the boundaries that pass validation (unmodified)
// and the list of rejection errors for the rest.
func Normalize(raw []*boundary.Boundary) (valid []*boundary.Boundary, rejected []error) {
	for _, b := range raw {
		if err := validateOne(b); err != nil {
			rejected = append(rejected, err)
			continue
		}
		valid = append(valid, b)
	}
	return valid, rejected
}

func validateOne(b *boundary.Boundary) error {
	if b.Geometry.IsEmpty() {
		return errs.New(errs.ValidationFailed, "boundary "+b.ID+" has empty geometry")
	}
	// Placeholder GEOIDs (spec section 4.3.1) are sentinel IDs, not real
	// GEOIDs, so they never match a layer's digit-shape pattern. They still
	// flow through to completeness as extra entries; only the tessellation
	// candidate filter (pkg/validator/tessellation.go) excludes them.
	if !boundary.IsPlaceholderGEOID(b.ID) {
		if err := boundary.ValidateGEOID(b.BoundaryType, b.ID); err != nil {
			return errs.Wrap(errs.SchemaError, "geoid validation", err)
		}
	}
	if b.Source.CoordinateSystem != "" && b.Source.CoordinateSystem != "EPSG:4326" {
		return errs.New(errs.ValidationFailed, "boundary "+b.ID+" is not in EPSG:4326")
	}
	return nil
}

// Resolve applies the precedence rule across every provider's yield for the
// same (type, id), keeping exactly one Boundary per key.
func Resolve(candidates []*boundary.Boundary) []*boundary.Boundary {
	byKey := make(map[string][]*boundary.Boundary)
	order := make([]string, 0)
	for _, b := range candidates {
		k := string(b.BoundaryType) + "|" + b.ID
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], b)
	}

	out := make([]*boundary.Boundary, 0, len(order))
	for _, k := range order {
		group := byKey[k]
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.Authority != b.Authority {
				return a.Authority < b.Authority // lower enum value = higher authority
			}
			if !a.Source.RetrievedAt.Equal(b.Source.RetrievedAt) {
				return a.Source.RetrievedAt.After(b.Source.RetrievedAt)
			}
			return a.Source.ProviderName < b.Source.ProviderName
		})
		out = append(out, group[0])
	}
	return out
}
