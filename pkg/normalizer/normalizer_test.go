// Copyright 2025 Shadow Atlas Contributors

package normalizer

import (
	"testing"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

func validGeometry() boundary.Geometry {
	return boundary.Geometry{Polygons: [][]boundary.Ring{{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}}
}

func TestNormalizeRejectsEmptyGeometry(t *testing.T) {
	raw := []*boundary.Boundary{
		{ID: "0601", BoundaryType: boundary.TypeCongressionalDistrict},
	}
	valid, rejected := Normalize(raw)
	if len(valid) != 0 || len(rejected) != 1 {
		t.Fatalf("expected 1 rejection, got valid=%d rejected=%d", len(valid), len(rejected))
	}
}

func TestNormalizeAcceptsPlaceholderGEOID(t *testing.T) {
	raw := []*boundary.Boundary{
		{ID: "0699", BoundaryType: boundary.TypeCongressionalDistrict, Geometry: validGeometry()},
	}
	valid, rejected := Normalize(raw)
	if len(valid) != 1 || len(rejected) != 0 {
		t.Fatalf("expected placeholder GEOID to pass through normalization, got valid=%d rejected=%d", len(valid), len(rejected))
	}
}

func TestNormalizeAcceptsValid(t *testing.T) {
	raw := []*boundary.Boundary{
		{ID: "0601", BoundaryType: boundary.TypeCongressionalDistrict, Geometry: validGeometry()},
	}
	valid, rejected := Normalize(raw)
	if len(valid) != 1 || len(rejected) != 0 {
		t.Fatalf("expected 1 valid boundary, got valid=%d rejected=%d", len(valid), len(rejected))
	}
}

func TestResolvePrefersHigherAuthority(t *testing.T) {
	low := &boundary.Boundary{
		ID: "0601", BoundaryType: boundary.TypeCongressionalDistrict,
		Authority: boundary.AuthorityMunicipalAgency,
		Source:    boundary.Source{ProviderName: "socrata", RetrievedAt: time.Now()},
	}
	high := &boundary.Boundary{
		ID: "0601", BoundaryType: boundary.TypeCongressionalDistrict,
		Authority: boundary.AuthorityFederalMandate,
		Source:    boundary.Source{ProviderName: "tiger", RetrievedAt: time.Now().Add(-time.Hour)},
	}
	resolved := Resolve([]*boundary.Boundary{low, high})
	if len(resolved) != 1 || resolved[0].Source.ProviderName != "tiger" {
		t.Fatalf("expected tiger (higher authority) to win despite older timestamp")
	}
}

func TestResolveTiesBreakOnRetrievedAtThenProviderName(t *testing.T) {
	older := &boundary.Boundary{
		ID: "0601", BoundaryType: boundary.TypeCongressionalDistrict,
		Authority: boundary.AuthorityFederalMandate,
		Source:    boundary.Source{ProviderName: "tiger", RetrievedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	newer := &boundary.Boundary{
		ID: "0601", BoundaryType: boundary.TypeCongressionalDistrict,
		Authority: boundary.AuthorityFederalMandate,
		Source:    boundary.Source{ProviderName: "aaa-mirror", RetrievedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	resolved := Resolve([]*boundary.Boundary{older, newer})
	if resolved[0].Source.ProviderName != "aaa-mirror" {
		t.Fatal("expected newer retrievedAt to win regardless of provider name")
	}

	sameTime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	zBoundary := &boundary.Boundary{
		ID: "0602", BoundaryType: boundary.TypeCongressionalDistrict,
		Authority: boundary.AuthorityFederalMandate,
		Source:    boundary.Source{ProviderName: "zzz", RetrievedAt: sameTime},
	}
	aBoundary := &boundary.Boundary{
		ID: "0602", BoundaryType: boundary.TypeCongressionalDistrict,
		Authority: boundary.AuthorityFederalMandate,
		Source:    boundary.Source{ProviderName: "aaa", RetrievedAt: sameTime},
	}
	resolved = Resolve([]*boundary.Boundary{zBoundary, aBoundary})
	if resolved[0].Source.ProviderName != "aaa" {
		t.Fatal("expected lexicographically first provider name to win on full tie")
	}
}
