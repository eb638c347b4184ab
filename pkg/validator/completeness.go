// Copyright 2025 Shadow Atlas Contributors
//
// Completeness check: compares the actual GEOID set for a layer against
// its canonical reference (pkg/reference), per spec section 4.3.1.

package validator

import (
	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/reference"
)

// CheckCompleteness compares actual boundary IDs for a layer against the
// canonical set. Layers without canonical data always report Valid=true,
// since there is nothing to compare against.
func CheckCompleteness(layer boundary.Type, actualIDs []string) boundary.CompletenessReport {
	canonical, err := reference.CanonicalSet(layer)
	if err != nil {
		return boundary.CompletenessReport{Valid: true}
	}

	actualSet := make(map[string]struct{}, len(actualIDs))
	for _, id := range actualIDs {
		actualSet[id] = struct{}{}
	}

	var missing, extra []string
	for id := range canonical {
		if _, ok := actualSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	for id := range actualSet {
		if _, ok := canonical[id]; !ok {
			extra = append(extra, id)
		}
	}

	return boundary.CompletenessReport{
		Missing: missing,
		Extra:   extra,
		Valid:   len(missing) == 0 && len(extra) == 0,
	}
}
