// Copyright 2025 Shadow Atlas Contributors
//
// Leaf hash computation. Per spec section 4.4:
//
//	leaf = H( H(type_tag, id_bytes), geometry_hash, authority_enum, provenance_hash )
//
//	provenance_hash =
//	    if source.checksum is empty then 0
//	    else H(bytes("url|checksum|timestamp"))
//
// The provenance_hash=0 branch is load-bearing: leaves computed before
// provenance existed must hash identically once the field is added,
// provided checksum is empty (spec section 8, property 3).

package merkle

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/shadowatlas/atlas/pkg/boundary"
)

// typeTag assigns each boundary type a fixed numeric domain tag. Values are
// part of the committed hash input and must never be renumbered.
var typeTag = map[boundary.Type]uint64{
	boundary.TypeCongressionalDistrict:   1,
	boundary.TypeStateLegislativeUpper:   2,
	boundary.TypeStateLegislativeLower:   3,
	boundary.TypeCounty:                  4,
	boundary.TypePlace:                   5,
	boundary.TypeVotingPrecinct:          6,
	boundary.TypeSchoolUnified:           7,
	boundary.TypeSchoolElementary:        8,
	boundary.TypeSchoolSecondary:         9,
	boundary.TypeWard:                    10,
	boundary.TypeMunicipalCouncilDistrict: 11,
	boundary.TypeSpecialDistrict:         12,
}

// provenanceHash computes H(bytes("url|checksum|timestamp")), or the zero
// element when checksum is empty (backward-compatibility path).
func provenanceHash(src boundary.Source) fr.Element {
	if src.Checksum == "" {
		return fr.Element{}
	}
	msg := src.URL + "|" + src.Checksum + "|" + src.RetrievedAt.UTC().Format("2006-01-02T15:04:05Z")
	elements := packBytesToFieldElements([]byte(msg))
	return Hash(elements...)
}

// identityHash computes H(type_tag, id_bytes).
func identityHash(t boundary.Type, id string) fr.Element {
	tag := elementFromUint64(typeTag[t])
	idElements := packBytesToFieldElements([]byte(id))
	args := make([]fr.Element, 0, 1+len(idElements))
	args = append(args, tag)
	args = append(args, idElements...)
	return Hash(args...)
}

// ComputeLeafHash computes the leaf hash for a single Boundary.
func ComputeLeafHash(b *boundary.Boundary) (boundary.MerkleLeaf, error) {
	geomHash, err := geometryHashElement(b.Geometry)
	if err != nil {
		return boundary.MerkleLeaf{}, err
	}

	idHash := identityHash(b.BoundaryType, b.ID)
	authorityElem := elementFromUint64(uint64(b.Authority))
	provHash := provenanceHash(b.Source)

	leaf := Hash(idHash, geomHash, authorityElem, provHash)

	return boundary.MerkleLeaf{
		LeafHash:     leaf.Bytes(),
		BoundaryID:   b.ID,
		BoundaryType: b.BoundaryType,
		GeometryHash: geomHash.Bytes(),
	}, nil
}

// ComputeLeafHashesBatch is the parallel form of ComputeLeafHash. Per spec
// section 8 (determinism property 1), it must return bit-identical hashes
// to calling ComputeLeafHash on each element in sequence.
func ComputeLeafHashesBatch(boundaries []*boundary.Boundary) ([]boundary.MerkleLeaf, error) {
	leaves := make([]boundary.MerkleLeaf, len(boundaries))
	errs := make([]error, len(boundaries))

	const maxWorkers = 8
	workers := maxWorkers
	if len(boundaries) < workers {
		workers = len(boundaries)
	}
	if workers <= 1 {
		for i, b := range boundaries {
			leaves[i], errs[i] = ComputeLeafHash(b)
		}
		return firstErrOrLeaves(leaves, errs)
	}

	jobs := make(chan int)
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				leaves[i], errs[i] = ComputeLeafHash(boundaries[i])
			}
			done <- struct{}{}
		}()
	}
	go func() {
		for i := range boundaries {
			jobs <- i
		}
		close(jobs)
	}()
	for w := 0; w < workers; w++ {
		<-done
	}

	return firstErrOrLeaves(leaves, errs)
}

func firstErrOrLeaves(leaves []boundary.MerkleLeaf, errs []error) ([]boundary.MerkleLeaf, error) {
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return leaves, nil
}
