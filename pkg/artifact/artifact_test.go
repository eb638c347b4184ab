// Copyright 2025 Shadow Atlas Contributors

package artifact

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/merkle"
)

func sampleBoundaries() []*boundary.Boundary {
	geom := boundary.Geometry{Polygons: [][]boundary.Ring{{{
		{-100, 40}, {-100, 41}, {-99, 41}, {-99, 40}, {-100, 40},
	}}}}
	return []*boundary.Boundary{
		{
			ID:           "0601",
			BoundaryType: boundary.TypeCongressionalDistrict,
			Geometry:     geom,
			Authority:    boundary.AuthorityFederalMandate,
			Source:       boundary.Source{ProviderName: "tiger", CoordinateSystem: "EPSG:4326"},
		},
		{
			ID:           "0602",
			BoundaryType: boundary.TypeCongressionalDistrict,
			Geometry:     geom,
			Authority:    boundary.AuthorityStateOfficial,
			Source:       boundary.Source{ProviderName: "tiger", CoordinateSystem: "EPSG:4326"},
		},
	}
}

func TestBuildDocumentRoundTrips(t *testing.T) {
	bs := sampleBoundaries()
	tree, err := merkle.BuildTree(bs)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	doc, err := BuildDocument(tree, AuthorityIndex(bs), "2024", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}

	if doc.Version != Version {
		t.Errorf("expected version %s, got %s", Version, doc.Version)
	}
	if doc.BoundaryCount != 2 {
		t.Errorf("expected boundaryCount 2, got %d", doc.BoundaryCount)
	}
	if doc.Root == "" {
		t.Error("expected non-empty root")
	}
	if doc.Metadata.LayerCounts["congressional-district"] != 2 {
		t.Errorf("expected layer count 2, got %d", doc.Metadata.LayerCounts["congressional-district"])
	}

	raw, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("round trip unmarshal: %v", err)
	}
	if decoded["root"] != doc.Root {
		t.Errorf("round trip mismatch on root")
	}
}

func TestBuildProofMatchesTreeProof(t *testing.T) {
	bs := sampleBoundaries()
	tree, err := merkle.BuildTree(bs)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	mp, err := tree.GenerateProof(boundary.TypeCongressionalDistrict, "0601")
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}

	p := BuildProof(mp)
	if p.BoundaryID != "0601" {
		t.Errorf("expected boundaryId 0601, got %s", p.BoundaryID)
	}
	if p.BoundaryType != string(boundary.TypeCongressionalDistrict) {
		t.Errorf("unexpected boundaryType %s", p.BoundaryType)
	}
	if len(p.Siblings) != len(p.PathIndices) {
		t.Error("siblings/pathIndices length mismatch")
	}
}
