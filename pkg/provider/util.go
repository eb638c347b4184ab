// Copyright 2025 Shadow Atlas Contributors

package provider

import "strconv"

// trimFloatString renders a whole-valued float (ArcGIS often JSON-encodes
// integer IDs as numbers) as its plain integer string form.
func trimFloatString(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
