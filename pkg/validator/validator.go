// Copyright 2025 Shadow Atlas Contributors
//
// Validator entry point: runs completeness, topology, coordinate, and
// tessellation checks for one (layer, state) scope and composes the
// weighted quality score (spec section 4.3.4).

package validator

import (
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

const (
	weightCompleteness = 0.40
	weightTopology     = 0.30
	weightCoordinates  = 0.20
	weightTessellation = 0.10
)

// Input scopes a single validator run.
type Input struct {
	Layer        boundary.Type
	StateFIPS    string
	Boundaries   []*boundary.Boundary
	Tessellation *TessellationInput // nil if not applicable to this layer/state
	AsOf         time.Time
}

// Validate runs every applicable check and composes the ValidationResult.
func Validate(in Input) boundary.ValidationResult {
	ids := make([]string, 0, len(in.Boundaries))
	for _, b := range in.Boundaries {
		ids = append(ids, b.ID)
	}

	completeness := CheckCompleteness(in.Layer, ids)
	topology := CheckTopology(in.Boundaries)
	coordinates := CheckCoordinates(in.Boundaries)

	result := boundary.ValidationResult{
		Layer:        in.Layer,
		StateFIPS:    in.StateFIPS,
		Completeness: completeness,
		Topology:     topology,
		Coordinates:  coordinates,
	}

	completenessScore := scoreFromBool(completeness.Valid)
	topologyScore := scoreFromDefectCount(topology.SelfIntersections + topology.Overlaps + topology.Gaps + topology.InvalidGeometries)
	coordinateScore := scoreFromDefectCount(coordinates.OutOfRangeCount + coordinates.SuspiciousCentroids)

	var tessellationScore float64 = 100
	if in.Tessellation != nil {
		result.TessellationApplicable = true
		tr := CheckTessellation(*in.Tessellation)
		if tr.Applicable() {
			tessellationScore = 100
		} else {
			tessellationScore = 0
		}
		if tr.OverrideApplied {
			result.Warnings = append(result.Warnings, "tessellation override applied: "+tr.OverrideNote)
		}
	}

	result.QualityScore = weightCompleteness*completenessScore +
		weightTopology*topologyScore +
		weightCoordinates*coordinateScore +
		weightTessellation*tessellationScore

	if gap := CheckRedistrictingGap(in.Layer, in.StateFIPS, in.AsOf); gap != nil {
		result.GapWarning = gap
		result.Warnings = append(result.Warnings, WarningText(gap))
	}

	return result
}

func scoreFromBool(ok bool) float64 {
	if ok {
		return 100
	}
	return 0
}

// scoreFromDefectCount decays smoothly from 100, reaching 0 at 20 defects;
// a handful of noisy coordinates shouldn't zero out an otherwise sound
// layer the way a binary pass/fail would.
func scoreFromDefectCount(defects int) float64 {
	const zeroAt = 20
	if defects <= 0 {
		return 100
	}
	if defects >= zeroAt {
		return 0
	}
	return 100 * float64(zeroAt-defects) / float64(zeroAt)
}
