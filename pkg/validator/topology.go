// Copyright 2025 Shadow Atlas Contributors
//
// Topology check: flags self-intersecting rings, polygons that overlap
// each other, and geometries too malformed to measure at all (spec section
// 4.3, TopologyReport). Gaps between adjacent polygons are not detected;
// the report's Gaps count is always zero.

package validator

import "github.com/shadowatlas/atlas/pkg/boundary"

// CheckTopology scans a layer's boundaries for geometric defects.
func CheckTopology(boundaries []*boundary.Boundary) boundary.TopologyReport {
	var report boundary.TopologyReport

	for _, b := range boundaries {
		if b.Geometry.IsEmpty() {
			report.InvalidGeometries++
			continue
		}
		for _, polygon := range b.Geometry.Polygons {
			for _, ring := range polygon {
				if len(ring) < 4 {
					report.InvalidGeometries++
					continue
				}
				if hasSelfIntersection(ring) {
					report.SelfIntersections++
				}
			}
		}
	}

	for i := 0; i < len(boundaries); i++ {
		for j := i + 1; j < len(boundaries); j++ {
			overlap := overlapAreaMeters(boundaries[i].Geometry, boundaries[j].Geometry)
			if overlap >= exclusivityToleranceMeters2 {
				report.Overlaps++
			}
		}
	}

	return report
}

// hasSelfIntersection does a naive O(n²) segment-intersection scan over a
// single ring. Adequate for the small vertex counts district-scale
// polygons carry; not a substitute for a proper planar sweep on a full
// TIGER nationwide coastline ring.
func hasSelfIntersection(ring boundary.Ring) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		a1, a2 := ring[i], ring[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent to closing edge
			}
			b1, b2 := ring[j], ring[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

func segmentsIntersect(p1, p2, p3, p4 [2]float64) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func cross(o, a, b [2]float64) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
