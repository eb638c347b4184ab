// Copyright 2025 Shadow Atlas Contributors
//
// GeoJSON feature decoding shared by the ArcGIS and Socrata-backed
// providers, via paulmach/orb — the geometry library the retrieval pack
// uses for GIS feature handling.

package provider

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

// geometryFromOrb converts an orb.Geometry (Polygon or MultiPolygon) into
// the package's normalized boundary.Geometry.
func geometryFromOrb(g orb.Geometry) boundary.Geometry {
	switch geom := g.(type) {
	case orb.Polygon:
		return boundary.Geometry{Polygons: [][]boundary.Ring{ringsFromOrbPolygon(geom)}}
	case orb.MultiPolygon:
		polys := make([][]boundary.Ring, 0, len(geom))
		for _, p := range geom {
			polys = append(polys, ringsFromOrbPolygon(p))
		}
		return boundary.Geometry{Polygons: polys}
	default:
		return boundary.Geometry{}
	}
}

func ringsFromOrbPolygon(p orb.Polygon) []boundary.Ring {
	rings := make([]boundary.Ring, 0, len(p))
	for _, ring := range p {
		r := make(boundary.Ring, 0, len(ring))
		for _, pt := range ring {
			r = append(r, [2]float64{pt[0], pt[1]})
		}
		rings = append(rings, r)
	}
	return rings
}

// featureGeometry extracts and converts the geometry of a single GeoJSON
// feature.
func featureGeometry(f *geojson.Feature) boundary.Geometry {
	if f == nil || f.Geometry == nil {
		return boundary.Geometry{}
	}
	return geometryFromOrb(f.Geometry)
}

// stringProp reads a feature property as a string regardless of its
// underlying JSON type (ArcGIS frequently returns numeric GEOIDs).
func stringProp(f *geojson.Feature, key string) string {
	v, ok := f.Properties[key]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return trimFloatString(val)
	default:
		return ""
	}
}
