// Copyright 2025 Shadow Atlas Contributors
//
// Coordinate sanity check: vertices outside the valid WGS84 range, and
// polygons whose centroid falls suspiciously close to (0,0) — the
// canonical symptom of a null-island geocoding failure.

package validator

import (
	"math"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

const nullIslandRadiusDegrees = 0.01

// CheckCoordinates scans a layer's boundaries for out-of-range vertices and
// null-island centroids.
func CheckCoordinates(boundaries []*boundary.Boundary) boundary.CoordinateReport {
	var report boundary.CoordinateReport

	for _, b := range boundaries {
		outOfRange := false
		var sumLon, sumLat float64
		var n int
		for _, polygon := range b.Geometry.Polygons {
			for _, ring := range polygon {
				for _, v := range ring {
					lon, lat := v[0], v[1]
					if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
						outOfRange = true
					}
					sumLon += lon
					sumLat += lat
					n++
				}
			}
		}
		if outOfRange {
			report.OutOfRangeCount++
		}
		if n > 0 {
			centroidLon, centroidLat := sumLon/float64(n), sumLat/float64(n)
			if math.Abs(centroidLon) < nullIslandRadiusDegrees && math.Abs(centroidLat) < nullIslandRadiusDegrees {
				report.SuspiciousCentroids++
			}
		}
	}

	return report
}
