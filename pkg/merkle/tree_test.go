// Copyright 2025 Shadow Atlas Contributors

package merkle

import (
	"testing"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/shadowatlas/atlas/pkg/boundary"
)

func sampleGeometry(offset float64) boundary.Geometry {
	return boundary.Geometry{
		Polygons: [][]boundary.Ring{
			{
				{
					{-122.4 + offset, 37.7}, {-122.3 + offset, 37.7},
					{-122.3 + offset, 37.8}, {-122.4 + offset, 37.8},
					{-122.4 + offset, 37.7},
				},
			},
		},
	}
}

func sampleBoundary(id string, bt boundary.Type, authority boundary.Authority, checksum string) *boundary.Boundary {
	return &boundary.Boundary{
		ID:           id,
		BoundaryType: bt,
		Level:        boundary.LevelFederal,
		Geometry:     sampleGeometry(0),
		Authority:    authority,
		Source: boundary.Source{
			ProviderName: "tiger",
			URL:          "https://example.gov/a.zip",
			Checksum:     checksum,
			RetrievedAt:  time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestDeterminismAcrossRuns(t *testing.T) {
	boundaries := []*boundary.Boundary{
		sampleBoundary("0601", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "abc123"),
		sampleBoundary("0602", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "def456"),
	}

	tree1, err := BuildTree(boundaries)
	if err != nil {
		t.Fatalf("build 1: %v", err)
	}
	tree2, err := BuildTree(boundaries)
	if err != nil {
		t.Fatalf("build 2: %v", err)
	}
	if tree1.RootHex() != tree2.RootHex() {
		t.Fatalf("roots differ across runs: %s vs %s", tree1.RootHex(), tree2.RootHex())
	}
	if tree1.Depth() != tree2.Depth() {
		t.Fatalf("depths differ: %d vs %d", tree1.Depth(), tree2.Depth())
	}
}

func TestComputeLeafHashesBatchMatchesSequential(t *testing.T) {
	boundaries := []*boundary.Boundary{
		sampleBoundary("0601", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "abc"),
		sampleBoundary("0602", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "def"),
		sampleBoundary("0603", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "ghi"),
	}

	batch, err := ComputeLeafHashesBatch(boundaries)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	for i, b := range boundaries {
		single, err := ComputeLeafHash(b)
		if err != nil {
			t.Fatalf("single %d: %v", i, err)
		}
		if single.LeafHash != batch[i].LeafHash {
			t.Fatalf("leaf %d mismatch: batch=%x single=%x", i, batch[i].LeafHash, single.LeafHash)
		}
	}
}

func TestProvenanceSensitivity(t *testing.T) {
	base := sampleBoundary("0601", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "abc123")
	leafBase, err := ComputeLeafHash(base)
	if err != nil {
		t.Fatal(err)
	}

	variants := []func(*boundary.Boundary){
		func(b *boundary.Boundary) { b.Source.URL = "https://example.gov/b.zip" },
		func(b *boundary.Boundary) { b.Source.Checksum = "zzz999" },
		func(b *boundary.Boundary) { b.Source.RetrievedAt = b.Source.RetrievedAt.Add(time.Hour) },
	}
	for i, mutate := range variants {
		clone := *base
		mutate(&clone)
		leaf, err := ComputeLeafHash(&clone)
		if err != nil {
			t.Fatal(err)
		}
		if leaf.LeafHash == leafBase.LeafHash {
			t.Fatalf("variant %d did not change leaf hash", i)
		}
	}
}

func TestBackwardCompatibilityNoProvenance(t *testing.T) {
	withEmpty := sampleBoundary("0601", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "")
	withEmpty.Source.URL = "https://whatever"
	withEmpty.Source.RetrievedAt = time.Now().Add(-time.Hour)

	withoutSource := sampleBoundary("0601", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "")
	withoutSource.Source = boundary.Source{}

	leafA, err := ComputeLeafHash(withEmpty)
	if err != nil {
		t.Fatal(err)
	}
	leafB, err := ComputeLeafHash(withoutSource)
	if err != nil {
		t.Fatal(err)
	}
	if leafA.LeafHash != leafB.LeafHash {
		t.Fatalf("empty checksum should hash identically regardless of url/timestamp: %x vs %x", leafA.LeafHash, leafB.LeafHash)
	}
}

func TestTypeSeparation(t *testing.T) {
	a := sampleBoundary("0101", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "")
	b := sampleBoundary("0101", boundary.TypeCounty, boundary.AuthorityFederalMandate, "")
	b.Geometry = a.Geometry // force identical geometry hash too

	leafA, err := ComputeLeafHash(a)
	if err != nil {
		t.Fatal(err)
	}
	leafB, err := ComputeLeafHash(b)
	if err != nil {
		t.Fatal(err)
	}
	if leafA.LeafHash == leafB.LeafHash {
		t.Fatal("boundaries differing only in type must produce distinct leaves")
	}
}

func TestProofSoundness(t *testing.T) {
	boundaries := []*boundary.Boundary{
		sampleBoundary("0601", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "a"),
		sampleBoundary("0602", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "b"),
		sampleBoundary("0603", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "c"),
		sampleBoundary("0604", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "d"),
		sampleBoundary("0605", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "e"),
	}
	tree, err := BuildTree(boundaries)
	if err != nil {
		t.Fatal(err)
	}

	for _, b := range boundaries {
		proof, err := tree.GenerateProof(b.BoundaryType, b.ID)
		if err != nil {
			t.Fatalf("generate proof for %s: %v", b.ID, err)
		}
		ok, err := VerifyProof(proof)
		if err != nil {
			t.Fatalf("verify proof for %s: %v", b.ID, err)
		}
		if !ok {
			t.Fatalf("proof for %s did not verify", b.ID)
		}

		tampered := *proof
		tampered.Leaf = elementToHex(elementFromUint64(999999))
		ok, err = VerifyProof(&tampered)
		if err != nil {
			t.Fatalf("verify tampered proof: %v", err)
		}
		if ok {
			t.Fatalf("tampered leaf for %s unexpectedly verified", b.ID)
		}
	}
}

func TestFieldBounds(t *testing.T) {
	b := sampleBoundary("0601", boundary.TypeCongressionalDistrict, boundary.AuthorityFederalMandate, "abc")
	leaf, err := ComputeLeafHash(b)
	if err != nil {
		t.Fatal(err)
	}
	var e fr.Element
	e.SetBytes(leaf.LeafHash[:])
	if !lessThanModulus(e) {
		t.Fatal("leaf hash must be < BN254 modulus")
	}
}
