// Copyright 2025 Shadow Atlas Contributors
//
// Artifact and Proof JSON serialization for Merkle tree output. Per spec
// section 6's external interface contracts. Modeled on the teacher's
// ProofArtifactService bundling pattern (pkg/proof/artifact_service.go),
// narrowed from multi-generator proof bundling to a single Merkle artifact.

package artifact

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/merkle"
)

// Version is the artifact schema version emitted in every document.
const Version = "2.0.0"

// Leaf is one entry in an Artifact's leaves array.
type Leaf struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Hash         string `json:"hash"`
	Authority    int    `json:"authority"`
	GeometryHash string `json:"geometryHash"`
}

// Metadata carries generation provenance and layer counts.
type Metadata struct {
	GeneratedAt  time.Time      `json:"generatedAt"`
	TigerVersion string         `json:"tigerVersion"`
	LayerCounts  map[string]int `json:"layerCounts"`
}

// Document is the JSON artifact format of spec section 6.
type Document struct {
	Version       string   `json:"version"`
	Root          string   `json:"root"`
	BoundaryCount int      `json:"boundaryCount"`
	TreeType      string   `json:"treeType"`
	TreeDepth     int      `json:"treeDepth"`
	Leaves        []Leaf   `json:"leaves"`
	Metadata      Metadata `json:"metadata"`
}

// Proof is the JSON inclusion-proof format of spec section 6.
type Proof struct {
	Root         string   `json:"root"`
	Leaf         string   `json:"leaf"`
	Siblings     []string `json:"siblings"`
	PathIndices  []int    `json:"pathIndices"`
	BoundaryID   string   `json:"boundaryId"`
	BoundaryType string   `json:"boundaryType"`
}

// BuildDocument assembles the JSON artifact for a completed tree. authority
// is a lookup from (type, id) to the authority enum value, since Merkle
// leaves carry only the hash, not the full boundary record.
func BuildDocument(t *merkle.Tree, authority map[leafKey]boundary.Authority, tigerVersion string, generatedAt time.Time) (*Document, error) {
	leaves := t.Leaves()
	out := make([]Leaf, len(leaves))
	layerCounts := make(map[string]int)

	for i, l := range leaves {
		a := authority[leafKey{l.BoundaryType, l.BoundaryID}]
		out[i] = Leaf{
			ID:           l.BoundaryID,
			Type:         string(l.BoundaryType),
			Hash:         hexPrefixed(l.LeafHash[:]),
			Authority:    int(a),
			GeometryHash: hexPrefixed(l.GeometryHash[:]),
		}
		layerCounts[string(l.BoundaryType)]++
	}

	return &Document{
		Version:       Version,
		Root:          t.RootHex(),
		BoundaryCount: t.LeafCount(),
		TreeType:      merkle.TreeType,
		TreeDepth:     t.Depth(),
		Leaves:        out,
		Metadata: Metadata{
			GeneratedAt:  generatedAt,
			TigerVersion: tigerVersion,
			LayerCounts:  layerCounts,
		},
	}, nil
}

// leafKey mirrors merkle's internal lookup key; duplicated here because the
// merkle package does not export it.
type leafKey struct {
	boundaryType boundary.Type
	id           string
}

// AuthorityIndex builds the (type, id) -> Authority lookup BuildDocument
// needs, from the original boundary set that fed the tree.
func AuthorityIndex(boundaries []*boundary.Boundary) map[leafKey]boundary.Authority {
	idx := make(map[leafKey]boundary.Authority, len(boundaries))
	for _, b := range boundaries {
		idx[leafKey{b.BoundaryType, b.ID}] = b.Authority
	}
	return idx
}

// BuildProof converts a merkle.Proof into its JSON wire format.
func BuildProof(p *merkle.Proof) *Proof {
	return &Proof{
		Root:         p.Root,
		Leaf:         p.Leaf,
		Siblings:     p.Siblings,
		PathIndices:  p.PathIndices,
		BoundaryID:   p.BoundaryID,
		BoundaryType: string(p.BoundaryType),
	}
}

// Marshal renders a Document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("artifact: marshal: %w", err)
	}
	return b, nil
}

// Marshal renders a Proof as indented JSON.
func (p *Proof) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("artifact: marshal proof: %w", err)
	}
	return b, nil
}

func hexPrefixed(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
