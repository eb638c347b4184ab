// Copyright 2025 Shadow Atlas Contributors
//
// Orchestrator wires providers, the normalizer, validators, the Merkle
// builder, and the artifact writer into the single BuildAtlas entrypoint
// (spec section 6's input contract). Modeled on the teacher's
// UnifiedOrchestrator (pkg/execution/unified_orchestrator.go): a config
// struct holding every collaborator, a constructor with sane defaults, and
// one top-level Execute-style method per request shape.

package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/shadowatlas/atlas/pkg/artifact"
	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/errs"
	"github.com/shadowatlas/atlas/pkg/job"
	"github.com/shadowatlas/atlas/pkg/merkle"
	"github.com/shadowatlas/atlas/pkg/persistence"
)

// ExitCode mirrors the CLI host exit-code contract of spec section 6.
type ExitCode int

const (
	ExitSuccess           ExitCode = 0
	ExitCompletedWarnings ExitCode = 1
	ExitValidationFailed  ExitCode = 2
	ExitInvalidArguments  ExitCode = 3
	ExitFatalInternal     ExitCode = 4
)

var fipsPattern = regexp.MustCompile(`^\d{2}$`)

// validKnownLayers enumerates the layers BuildAtlas accepts; anything else
// is a parse-time InvalidArgument per spec section 6.
var validKnownLayers = map[boundary.Type]bool{
	boundary.TypeCongressionalDistrict:   true,
	boundary.TypeStateLegislativeUpper:   true,
	boundary.TypeStateLegislativeLower:   true,
	boundary.TypeCounty:                  true,
	boundary.TypePlace:                   true,
	boundary.TypeVotingPrecinct:          true,
	boundary.TypeSchoolUnified:           true,
	boundary.TypeSchoolElementary:        true,
	boundary.TypeSchoolSecondary:         true,
	boundary.TypeWard:                    true,
	boundary.TypeMunicipalCouncilDistrict: true,
	boundary.TypeSpecialDistrict:         true,
}

// Result bundles everything a BuildAtlas caller needs: the Job record, the
// rendered artifact document (nil if the build produced zero boundaries),
// and the CLI exit code.
type Result struct {
	Job      *boundary.Job
	Document *artifact.Document
	ExitCode ExitCode
}

// Orchestrator wires the full pipeline.
type Orchestrator struct {
	Runner *job.Runner

	Jobs        *persistence.JobRepository
	Snapshots   *persistence.SnapshotRepository
	TigerVersion string

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
	// NewID is overridable for tests; defaults to uuid.NewString.
	NewID func() string
}

// New builds an Orchestrator with teacher-style defaults filled in.
func New(runner *job.Runner, jobs *persistence.JobRepository, snapshots *persistence.SnapshotRepository) *Orchestrator {
	return &Orchestrator{
		Runner:       runner,
		Jobs:         jobs,
		Snapshots:    snapshots,
		TigerVersion: "2024",
		Now:          time.Now,
		NewID:        uuid.NewString,
	}
}

// ValidateRequest parses and validates a BuildRequest per spec section 6's
// input contract, returning an errs.InvalidArgument error on any violation.
func ValidateRequest(req boundary.BuildRequest) error {
	if len(req.Layers) == 0 {
		return errs.New(errs.InvalidArgument, "at least one layer is required")
	}
	for _, layer := range req.Layers {
		if !validKnownLayers[layer] {
			return errs.New(errs.InvalidArgument, fmt.Sprintf("unknown layer %q", layer))
		}
	}
	if len(req.StateFIPS) == 0 {
		return errs.New(errs.InvalidArgument, "at least one state FIPS code is required")
	}
	for _, fips := range req.StateFIPS {
		if !fipsPattern.MatchString(fips) {
			return errs.New(errs.InvalidArgument, fmt.Sprintf("malformed state FIPS %q", fips))
		}
	}
	if req.QualityThreshold < 0 || req.QualityThreshold > 100 {
		return errs.New(errs.InvalidArgument, "quality threshold must be between 0 and 100")
	}
	return nil
}

// BuildAtlas executes the full pipeline for one request: fan out download
// and validation tasks, build the Merkle tree over every boundary that
// survived validation, render the artifact, and persist a Snapshot.
//
// Per spec section 7: the overall build fails only if every requested
// layer fails; a single state's provider outage downgrades that layer's
// quality score to zero without aborting the rest.
func (o *Orchestrator) BuildAtlas(ctx context.Context, req boundary.BuildRequest) (*Result, error) {
	if err := ValidateRequest(req); err != nil {
		return &Result{ExitCode: ExitInvalidArguments}, err
	}

	j := &boundary.Job{
		ID:        o.NewID(),
		Request:   req,
		Status:    boundary.JobPending,
		CreatedAt: o.now(),
	}
	if o.Jobs != nil {
		if err := o.Jobs.Create(ctx, j); err != nil {
			return &Result{Job: j, ExitCode: ExitFatalInternal}, fmt.Errorf("orchestrator: create job: %w", err)
		}
		_ = o.Jobs.UpdateStatus(ctx, j.ID, boundary.JobRunning, "")
	}
	j.Status = boundary.JobRunning

	results, err := o.Runner.Run(ctx, j)
	if err != nil {
		if o.Jobs != nil {
			_ = o.Jobs.UpdateStatus(ctx, j.ID, boundary.JobFailed, err.Error())
		}
		j.Status = boundary.JobFailed
		j.FailReason = err.Error()
		return &Result{Job: j, ExitCode: ExitFatalInternal}, err
	}

	layerCounts := make(map[boundary.Type]int)
	warnings := false
	failedLayers := 0
	for _, res := range results {
		if res.Err != nil {
			failedLayers++
			continue
		}
		layerCounts[res.Task.Layer] += len(res.Boundaries)
		if len(res.Validation.Warnings) > 0 || res.Validation.QualityScore < req.QualityThreshold {
			warnings = true
		}
	}
	j.LayerCounts = layerCounts

	if len(results) > 0 && failedLayers == len(results) {
		reason := "all requested layers failed"
		if o.Jobs != nil {
			_ = o.Jobs.UpdateStatus(ctx, j.ID, boundary.JobFailed, reason)
		}
		j.Status = boundary.JobFailed
		j.FailReason = reason
		return &Result{Job: j, ExitCode: ExitValidationFailed}, errs.New(errs.ValidationFailed, reason)
	}

	merged := job.MergeBoundaries(results)
	if len(merged) == 0 {
		reason := "no boundaries survived normalization"
		if o.Jobs != nil {
			_ = o.Jobs.UpdateStatus(ctx, j.ID, boundary.JobFailed, reason)
		}
		j.Status = boundary.JobFailed
		j.FailReason = reason
		return &Result{Job: j, ExitCode: ExitValidationFailed}, errs.New(errs.ValidationFailed, reason)
	}

	tree, err := merkle.BuildTree(merged)
	if err != nil {
		if o.Jobs != nil {
			_ = o.Jobs.UpdateStatus(ctx, j.ID, boundary.JobFailed, err.Error())
		}
		j.Status = boundary.JobFailed
		j.FailReason = err.Error()
		return &Result{Job: j, ExitCode: ExitFatalInternal}, fmt.Errorf("orchestrator: build tree: %w", err)
	}

	doc, err := artifact.BuildDocument(tree, artifact.AuthorityIndex(merged), o.TigerVersion, o.now())
	if err != nil {
		return &Result{Job: j, ExitCode: ExitFatalInternal}, fmt.Errorf("orchestrator: build document: %w", err)
	}

	regions := make([]string, 0, len(layerCounts))
	for layer := range layerCounts {
		regions = append(regions, string(layer))
	}
	snapshot := &boundary.Snapshot{
		ID:            o.NewID(),
		MerkleRoot:    tree.RootHex(),
		Regions:       regions,
		ArtifactPath:  req.OutputPath,
		BoundaryCount: tree.LeafCount(),
		CreatedAt:     o.now(),
	}
	j.Snapshot = snapshot
	if o.Snapshots != nil {
		if err := o.Snapshots.Create(ctx, j.ID, snapshot); err != nil {
			return &Result{Job: j, Document: doc, ExitCode: ExitFatalInternal}, fmt.Errorf("orchestrator: create snapshot: %w", err)
		}
	}

	if o.Jobs != nil {
		_ = o.Jobs.UpdateStatus(ctx, j.ID, boundary.JobCompleted, "")
	}
	j.Status = boundary.JobCompleted

	exitCode := ExitSuccess
	if warnings {
		exitCode = ExitCompletedWarnings
	}
	return &Result{Job: j, Document: doc, ExitCode: exitCode}, nil
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
