// Copyright 2025 Shadow Atlas Contributors
//
// Spherical-excess area and polygon overlap helpers used by the
// tessellation proof (spec section 4.3.2: "area via a spherical-excess
// formula ... documented; the choice is stable across runs").
//
// Exact polygon boolean operations (intersection/union/difference) need a
// clipping library; none appears anywhere in the retrieval pack's
// dependency surface, so overlap here is approximated by sampling a
// regular grid of points against each geometry's actual rings rather than
// exact ring clipping. This is a deliberate scope limitation — see
// DESIGN.md.

package validator

import (
	"math"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

const earthRadiusMeters = 6371008.8 // IUGG mean radius

// ringAreaMeters computes the area enclosed by a WGS84 ring (lon, lat
// degrees) using the standard spherical-excess line-integral approximation:
// sum over edges of (lon2-lon1)·(2 + sin(lat1) + sin(lat2)), scaled by
// R²/2.
func ringAreaMeters(ring boundary.Ring) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		lon1, lat1 := ring[i][0]*math.Pi/180, ring[i][1]*math.Pi/180
		lon2, lat2 := ring[j][0]*math.Pi/180, ring[j][1]*math.Pi/180
		sum += (lon2 - lon1) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}
	return math.Abs(sum * earthRadiusMeters * earthRadiusMeters / 2)
}

// geometryAreaMeters sums each polygon's exterior ring area minus its
// holes' areas, across every polygon in the geometry.
func geometryAreaMeters(g boundary.Geometry) float64 {
	var total float64
	for _, polygon := range g.Polygons {
		for i, ring := range polygon {
			a := ringAreaMeters(ring)
			if i == 0 {
				total += a
			} else {
				total -= a
			}
		}
	}
	return total
}

// bbox is an axis-aligned WGS84 bounding box.
type bbox struct {
	minLon, minLat, maxLon, maxLat float64
}

func boundingBox(g boundary.Geometry) bbox {
	b := bbox{minLon: math.Inf(1), minLat: math.Inf(1), maxLon: math.Inf(-1), maxLat: math.Inf(-1)}
	for _, polygon := range g.Polygons {
		for _, ring := range polygon {
			for _, v := range ring {
				if v[0] < b.minLon {
					b.minLon = v[0]
				}
				if v[0] > b.maxLon {
					b.maxLon = v[0]
				}
				if v[1] < b.minLat {
					b.minLat = v[1]
				}
				if v[1] > b.maxLat {
					b.maxLat = v[1]
				}
			}
		}
	}
	return b
}

func (b bbox) intersect(o bbox) (bbox, bool) {
	r := bbox{
		minLon: math.Max(b.minLon, o.minLon),
		minLat: math.Max(b.minLat, o.minLat),
		maxLon: math.Min(b.maxLon, o.maxLon),
		maxLat: math.Min(b.maxLat, o.maxLat),
	}
	if r.minLon >= r.maxLon || r.minLat >= r.maxLat {
		return bbox{}, false
	}
	return r, true
}

// areaMeters approximates the area of a bounding box via the same
// spherical-excess formula applied to its four corners as a closed ring.
func (b bbox) areaMeters() float64 {
	ring := boundary.Ring{
		{b.minLon, b.minLat}, {b.maxLon, b.minLat},
		{b.maxLon, b.maxLat}, {b.minLon, b.maxLat},
	}
	return ringAreaMeters(ring)
}

// overlapSampleGrid is the per-axis resolution of the point-in-polygon
// sampling grid overlapAreaMeters uses.
const overlapSampleGrid = 24

// pointInRing reports whether pt lies inside ring via the standard even-odd
// ray-casting rule.
func pointInRing(pt [2]float64, ring boundary.Ring) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if ((yi > pt[1]) != (yj > pt[1])) &&
			(pt[0] < (xj-xi)*(pt[1]-yi)/(yj-yi)+xi) {
			inside = !inside
		}
	}
	return inside
}

// pointInPolygon reports whether pt is inside polygon's exterior ring and
// outside every hole ring.
func pointInPolygon(pt [2]float64, polygon []boundary.Ring) bool {
	if len(polygon) == 0 || !pointInRing(pt, polygon[0]) {
		return false
	}
	for _, hole := range polygon[1:] {
		if pointInRing(pt, hole) {
			return false
		}
	}
	return true
}

// pointInGeometry reports whether pt falls inside any polygon of g.
func pointInGeometry(pt [2]float64, g boundary.Geometry) bool {
	for _, polygon := range g.Polygons {
		if pointInPolygon(pt, polygon) {
			return true
		}
	}
	return false
}

// overlapAreaMeters approximates the true polygon intersection area between
// a and b by sampling a regular grid over their bounding-box intersection
// and counting points that fall inside both geometries' actual rings.
//
// A plain bounding-box intersection (the earlier approach here) produces
// false positives for any pair of adjacent, non-rectangular districts: two
// irregular polygons that share a border but do not overlap still have
// overlapping bounding boxes. Sampling against the real rings instead means
// two merely-adjacent concave districts correctly measure near-zero
// overlap. Exact polygon clipping would need a clipping library; none
// appears anywhere in the retrieval pack, so this grid sample is the
// approximation — see DESIGN.md.
func overlapAreaMeters(a, b boundary.Geometry) float64 {
	bb, ok := boundingBox(a).intersect(boundingBox(b))
	if !ok {
		return 0
	}
	lonStep := (bb.maxLon - bb.minLon) / overlapSampleGrid
	latStep := (bb.maxLat - bb.minLat) / overlapSampleGrid
	if lonStep <= 0 || latStep <= 0 {
		return 0
	}

	var hits int
	for i := 0; i < overlapSampleGrid; i++ {
		lon := bb.minLon + (float64(i)+0.5)*lonStep
		for j := 0; j < overlapSampleGrid; j++ {
			lat := bb.minLat + (float64(j)+0.5)*latStep
			pt := [2]float64{lon, lat}
			if pointInGeometry(pt, a) && pointInGeometry(pt, b) {
				hits++
			}
		}
	}
	fraction := float64(hits) / float64(overlapSampleGrid*overlapSampleGrid)
	return fraction * bb.areaMeters()
}

// BoundingBoxGeometry returns a single-ring rectangle covering the combined
// bounding box of every boundary passed in. Used as a stand-in jurisdiction
// geometry when no independently-fetched parent boundary (state or place)
// is available to compare a layer's tessellation against.
func BoundingBoxGeometry(boundaries []*boundary.Boundary) boundary.Geometry {
	b := bbox{minLon: math.Inf(1), minLat: math.Inf(1), maxLon: math.Inf(-1), maxLat: math.Inf(-1)}
	for _, bd := range boundaries {
		ob := boundingBox(bd.Geometry)
		if ob.minLon < b.minLon {
			b.minLon = ob.minLon
		}
		if ob.minLat < b.minLat {
			b.minLat = ob.minLat
		}
		if ob.maxLon > b.maxLon {
			b.maxLon = ob.maxLon
		}
		if ob.maxLat > b.maxLat {
			b.maxLat = ob.maxLat
		}
	}
	if b.minLon > b.maxLon || b.minLat > b.maxLat {
		return boundary.Geometry{}
	}
	ring := boundary.Ring{
		{b.minLon, b.minLat}, {b.maxLon, b.minLat},
		{b.maxLon, b.maxLat}, {b.minLon, b.maxLat}, {b.minLon, b.minLat},
	}
	return boundary.Geometry{Polygons: [][]boundary.Ring{{ring}}}
}
