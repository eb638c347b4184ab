// Copyright 2025 Shadow Atlas Contributors
//
// Core data model: the normalized Boundary record and its satellite types.
// Per spec section 3.

package boundary

import (
	"fmt"
	"regexp"
	"time"
)

// Type enumerates the boundary layers the pipeline understands.
type Type string

const (
	TypeCongressionalDistrict  Type = "congressional-district"
	TypeStateLegislativeUpper  Type = "state-legislative-upper"
	TypeStateLegislativeLower  Type = "state-legislative-lower"
	TypeCounty                 Type = "county"
	TypePlace                  Type = "place"
	TypeVotingPrecinct         Type = "voting-precinct"
	TypeSchoolUnified          Type = "school-unified"
	TypeSchoolElementary       Type = "school-elementary"
	TypeSchoolSecondary        Type = "school-secondary"
	TypeWard                   Type = "ward"
	TypeMunicipalCouncilDistrict Type = "municipal-council-district"
	TypeSpecialDistrict        Type = "special-district"
)

// Level is the administrative level a boundary type belongs to.
type Level string

const (
	LevelFederal   Level = "federal"
	LevelState     Level = "state"
	LevelCounty    Level = "county"
	LevelMunicipal Level = "municipal"
	LevelSpecial   Level = "special"
)

// Authority is a small enum with a fixed numeric encoding; the encoding is
// part of the leaf-hash input and must never be renumbered.
type Authority int

const (
	AuthorityFederalMandate    Authority = 1
	AuthorityStateOfficial     Authority = 2
	AuthorityMunicipalOfficial Authority = 3
	AuthorityMunicipalAgency   Authority = 4
	AuthoritySpecialDistrict   Authority = 5
)

func (a Authority) String() string {
	switch a {
	case AuthorityFederalMandate:
		return "FEDERAL_MANDATE"
	case AuthorityStateOfficial:
		return "STATE_OFFICIAL"
	case AuthorityMunicipalOfficial:
		return "MUNICIPAL_OFFICIAL"
	case AuthorityMunicipalAgency:
		return "MUNICIPAL_AGENCY"
	case AuthoritySpecialDistrict:
		return "SPECIAL_DISTRICT"
	default:
		return "UNKNOWN"
	}
}

// geoidPattern gives the expected GEOID regex for each boundary type.
// Lengths are normative (spec section 3): CD=4, SLDU/SLDL/county=5, place=7,
// VTD=11, school=7, ward=4.
var geoidPattern = map[Type]*regexp.Regexp{
	TypeCongressionalDistrict:   regexp.MustCompile(`^\d{4}$`),
	TypeStateLegislativeUpper:   regexp.MustCompile(`^\d{5}$`),
	TypeStateLegislativeLower:   regexp.MustCompile(`^\d{5}$`),
	TypeCounty:                  regexp.MustCompile(`^\d{5}$`),
	TypePlace:                   regexp.MustCompile(`^\d{7}$`),
	TypeVotingPrecinct:          regexp.MustCompile(`^\d{11}$`),
	TypeSchoolUnified:           regexp.MustCompile(`^\d{7}$`),
	TypeSchoolElementary:        regexp.MustCompile(`^\d{7}$`),
	TypeSchoolSecondary:         regexp.MustCompile(`^\d{7}$`),
	TypeWard:                    regexp.MustCompile(`^\d{4}$`),
	TypeMunicipalCouncilDistrict: regexp.MustCompile(`^\d{7}$`),
	TypeSpecialDistrict:         regexp.MustCompile(`^\d{5}$`),
}

// ExpectedGEOIDLength returns the normative digit count for a boundary type,
// or 0 if the type is unknown.
func ExpectedGEOIDLength(t Type) int {
	switch t {
	case TypeCongressionalDistrict, TypeWard:
		return 4
	case TypeStateLegislativeUpper, TypeStateLegislativeLower, TypeCounty, TypeSpecialDistrict:
		return 5
	case TypePlace, TypeSchoolUnified, TypeSchoolElementary, TypeSchoolSecondary, TypeMunicipalCouncilDistrict:
		return 7
	case TypeVotingPrecinct:
		return 11
	default:
		return 0
	}
}

// ValidateGEOID checks that id matches the normative pattern for t.
func ValidateGEOID(t Type, id string) error {
	pattern, ok := geoidPattern[t]
	if !ok {
		return fmt.Errorf("unknown boundary type %q", t)
	}
	if !pattern.MatchString(id) {
		return fmt.Errorf("geoid %q does not match expected format for %s (length %d)", id, t, ExpectedGEOIDLength(t))
	}
	return nil
}

// IsPlaceholderGEOID reports whether id is a placeholder (e.g. 01ZZ, ends in
// 99 or ZZ) per spec section 4.3.1. Placeholder GEOIDs are flagged as extra
// and excluded from the tessellation proof.
func IsPlaceholderGEOID(id string) bool {
	if len(id) >= 2 {
		suffix := id[len(id)-2:]
		if suffix == "99" || suffix == "ZZ" {
			return true
		}
	}
	return false
}

// Ring is a closed sequence of WGS84 (longitude, latitude) vertices.
// rings[0] is the exterior; any further rings are holes.
type Ring [][2]float64

// Geometry is a polygon or multipolygon in WGS84 (EPSG:4326).
type Geometry struct {
	// Polygons holds one or more polygons; each polygon is a slice of rings
	// with the exterior ring first.
	Polygons [][]Ring
}

// IsEmpty reports whether the geometry has no polygons.
func (g Geometry) IsEmpty() bool {
	return len(g.Polygons) == 0
}

// Source captures provenance: the provenance triple (url, checksum,
// retrievedAt) plus surrounding metadata. Per spec section 3.
type Source struct {
	ProviderName     string    `json:"providerName"`
	URL              string    `json:"url"`
	Version          string    `json:"version"`
	License          string    `json:"license"`
	RetrievedAt      time.Time `json:"retrievedAt"`
	Checksum         string    `json:"checksum"` // sha256 of raw bytes, hex
	AuthorityLevel   string    `json:"authorityLevel"`
	LegalStatus      string    `json:"legalStatus"`
	CoordinateSystem string    `json:"coordinateSystem"`
	GeometryRepaired bool      `json:"geometryRepaired,omitempty"`
}

// Boundary is the normalized unit flowing from providers through the
// validators into the Merkle builder.
type Boundary struct {
	ID           string
	BoundaryType Type
	Level        Level
	Geometry     Geometry
	Authority    Authority
	Source       Source
}

// Key returns the composite sort key (type, id) used for precedence
// resolution and Merkle leaf ordering.
func (b *Boundary) Key() (Type, string) {
	return b.BoundaryType, b.ID
}

// MerkleLeaf is derived from a Boundary; see pkg/merkle for hash computation.
type MerkleLeaf struct {
	LeafHash     [32]byte
	BoundaryID   string
	BoundaryType Type
	GeometryHash [32]byte
}

// CompletenessReport compares canonical and actual GEOID sets.
type CompletenessReport struct {
	Missing []string
	Extra   []string
	Valid   bool
}

// TopologyReport summarizes geometric defects found across a layer.
type TopologyReport struct {
	SelfIntersections int
	Overlaps          int
	Gaps              int
	InvalidGeometries int
}

// CoordinateReport flags suspicious coordinate data.
type CoordinateReport struct {
	OutOfRangeCount     int
	SuspiciousCentroids int
}

// GapType enumerates the redistricting-gap classifications.
type GapType string

const GapTypePostFinalizationPreTiger GapType = "post-finalization-pre-tiger"

// RedistrictingGapWarning is attached to a ValidationResult when a
// legislative layer is in-gap for a state (spec section 4.3.3).
type RedistrictingGapWarning struct {
	GapType            GapType
	FinalizationDate   time.Time
	TigerPublicationDate time.Time
	CourtChallenge     bool
	Recommendation     string // always "use-primary"
}

// ValidationResult is produced per (layer, optional state) tuple.
type ValidationResult struct {
	Layer                Type
	StateFIPS            string // empty if layer-wide (no state scope)
	QualityScore         float64
	Completeness         CompletenessReport
	Topology             TopologyReport
	Coordinates          CoordinateReport
	TessellationApplicable bool
	GapWarning           *RedistrictingGapWarning
	Warnings             []string
	Error                string
}

// JobStatus enumerates the Job lifecycle states.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobArchived  JobStatus = "archived"
)

// BuildRequest is the input contract to the core (spec section 6).
type BuildRequest struct {
	Layers              []Type
	StateFIPS           []string
	VintageYear         int
	QualityThreshold    float64
	OutputPath          string
	CrossValidate       bool
}

// Job is an atlas build: scope, status, counters, timestamps, Snapshot.
type Job struct {
	ID          string
	Request     BuildRequest
	Status      JobStatus
	LayerCounts map[Type]int
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	ArchivedAt  *time.Time
	FailReason  string
	Snapshot    *Snapshot
}

// Snapshot is an immutable build artifact identified by its Merkle root.
type Snapshot struct {
	ID             string
	MerkleRoot     string // hex BN254 field element
	Regions        []string
	ArtifactPath   string
	BoundaryCount  int
	CreatedAt      time.Time
	DeprecatedAt   *time.Time
}
