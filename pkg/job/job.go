// Copyright 2025 Shadow Atlas Contributors
//
// Job runner: fans a BuildRequest out into per-(layer, state) download and
// validation tasks, bounds concurrency, and enforces per-request and
// per-job timeouts with cooperative cancellation.

package job

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/cache"
	"github.com/shadowatlas/atlas/pkg/errs"
	"github.com/shadowatlas/atlas/pkg/normalizer"
	"github.com/shadowatlas/atlas/pkg/persistence"
	"github.com/shadowatlas/atlas/pkg/provider"
	"github.com/shadowatlas/atlas/pkg/reference"
	"github.com/shadowatlas/atlas/pkg/validator"
)

const (
	// DefaultMaxConcurrency bounds simultaneous downloads across all states
	// and layers in a single job.
	DefaultMaxConcurrency = 8

	// DefaultPerRequestTimeout bounds a single provider fetch.
	DefaultPerRequestTimeout = 2 * time.Minute

	// DefaultJobTimeout bounds an entire build end to end.
	DefaultJobTimeout = 6 * time.Hour
)

// LayerTask scopes one fetch+validate unit of work.
type LayerTask struct {
	Layer       boundary.Type
	StateFIPS   string
	VintageYear int
}

// TaskResult is the outcome of one LayerTask.
type TaskResult struct {
	Task       LayerTask
	Boundaries []*boundary.Boundary
	Validation boundary.ValidationResult
	Err        error
}

// Runner executes a BuildRequest as a bounded, cancellable fan-out of
// download and validation tasks.
type Runner struct {
	Registry *provider.Registry
	Cache    *cache.DownloadCache

	Jobs        *persistence.JobRepository
	Extractions *persistence.ExtractionRepository
	Failures    *persistence.FailureRepository
	Validations *persistence.ValidationResultRepository

	MaxConcurrency    int
	PerRequestTimeout time.Duration
	JobTimeout        time.Duration

	Logger *log.Logger

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewRunner builds a Runner with teacher-style defaults filled in.
func NewRunner(reg *provider.Registry, dc *cache.DownloadCache, jobs *persistence.JobRepository, extractions *persistence.ExtractionRepository, failures *persistence.FailureRepository, validations *persistence.ValidationResultRepository) *Runner {
	return &Runner{
		Registry:          reg,
		Cache:             dc,
		Jobs:              jobs,
		Extractions:       extractions,
		Failures:          failures,
		Validations:       validations,
		MaxConcurrency:    DefaultMaxConcurrency,
		PerRequestTimeout: DefaultPerRequestTimeout,
		JobTimeout:        DefaultJobTimeout,
		Logger:            log.New(log.Writer(), "[job] ", log.LstdFlags),
		Now:               time.Now,
	}
}

// buildTasks expands a request's layer/state scope into individual tasks,
// consulting the registry so only (layer, state) pairs with a supporting
// provider are scheduled.
func (r *Runner) buildTasks(req boundary.BuildRequest) []LayerTask {
	var tasks []LayerTask
	for _, layer := range req.Layers {
		for _, fips := range req.StateFIPS {
			if _, ok := r.Registry.Resolve(layer, fips); ok {
				tasks = append(tasks, LayerTask{Layer: layer, StateFIPS: fips, VintageYear: req.VintageYear})
			}
		}
	}
	return tasks
}

// Run executes the full job: fan out tasks bounded by MaxConcurrency, each
// under PerRequestTimeout, the whole job under JobTimeout. Returns the
// per-task results in the order tasks were scheduled (not completion
// order) so downstream Merkle ordering is deterministic regardless of
// goroutine scheduling.
func (r *Runner) Run(ctx context.Context, job *boundary.Job) ([]TaskResult, error) {
	tasks := r.buildTasks(job.Request)
	results := make([]TaskResult, len(tasks))

	jobCtx, cancel := context.WithTimeout(ctx, r.jobTimeout())
	defer cancel()

	g, gctx := errgroup.WithContext(jobCtx)
	g.SetLimit(r.maxConcurrency())

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = r.runTask(gctx, job.ID, task)
			if results[i].Err != nil && errs.KindOf(results[i].Err) == errs.Cancelled {
				return results[i].Err
			}
			// Individual task failures are recorded, not propagated: one
			// state's provider outage shouldn't abort the whole job.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("job: aborted: %w", err)
	}
	return results, nil
}

func (r *Runner) runTask(ctx context.Context, jobID string, task LayerTask) TaskResult {
	res := TaskResult{Task: task}

	reqCtx, cancel := context.WithTimeout(ctx, r.perRequestTimeout())
	defer cancel()

	p, ok := r.Registry.Resolve(task.Layer, task.StateFIPS)
	if !ok {
		res.Err = errs.New(errs.InvalidArgument, fmt.Sprintf("no provider for %s/%s", task.Layer, task.StateFIPS))
		r.recordFailure(ctx, jobID, task, res.Err)
		return res
	}

	fetched, err := r.fetchWithCache(reqCtx, p, task)
	if err != nil {
		res.Err = err
		r.recordFailure(ctx, jobID, task, err)
		return res
	}

	valid, rejected := normalizer.Normalize(fetched.Boundaries)
	for _, rerr := range rejected {
		r.Logger.Printf("task %s/%s: rejected record: %v", task.Layer, task.StateFIPS, rerr)
	}
	resolved := normalizer.Resolve(valid)

	vr := validator.Validate(validator.Input{
		Layer:        task.Layer,
		StateFIPS:    task.StateFIPS,
		Boundaries:   resolved,
		Tessellation: tessellationInputFor(task, resolved),
		AsOf:         r.now(),
	})

	res.Boundaries = resolved
	res.Validation = vr

	if r.Extractions != nil {
		_ = r.Extractions.Upsert(ctx, persistence.Extraction{
			JobID:         jobID,
			StateFIPS:     task.StateFIPS,
			Layer:         task.Layer,
			ProviderName:  p.Name(),
			BoundaryCount: len(resolved),
			Checksum:      fetched.Source.Checksum,
			RetrievedAt:   fetched.FetchedAt,
		})
	}
	if r.Validations != nil {
		_ = r.Validations.Create(ctx, jobID, &vr)
	}
	return res
}

// tessellationInputFor builds the jurisdiction/candidate grouping the
// tessellation proof needs, or nil for layers and scopes it doesn't apply
// to. State-enumerable layers (congressional district, county) check
// against reference's canonical per-state seat/county counts; the
// municipal-council-district layer has no nationally canonical count, so
// its cardinality axiom is self-consistent (it always passes) while
// exclusivity, exhaustivity, and containment still run against the
// registered place's override table.
func tessellationInputFor(task LayerTask, resolved []*boundary.Boundary) *validator.TessellationInput {
	if len(resolved) == 0 {
		return nil
	}

	switch task.Layer {
	case boundary.TypeCongressionalDistrict, boundary.TypeCounty:
		expected, ok := reference.ExpectedCount(task.Layer, task.StateFIPS)
		if !ok {
			return nil
		}
		return &validator.TessellationInput{
			Jurisdiction:  validator.BoundingBoxGeometry(resolved),
			Candidates:    resolved,
			ExpectedCount: expected,
		}
	case boundary.TypeMunicipalCouncilDistrict:
		// Boundary IDs are built as placeFIPS[2:] + districtCode (see
		// pkg/provider/municipal.go), so the 5-digit place suffix is always
		// the first 5 characters.
		if len(resolved[0].ID) < 5 {
			return nil
		}
		placeFIPS := task.StateFIPS + resolved[0].ID[:5]
		return &validator.TessellationInput{
			PlaceFIPS:     placeFIPS,
			Jurisdiction:  validator.BoundingBoxGeometry(resolved),
			Candidates:    resolved,
			ExpectedCount: len(filterPlaceholderBoundaries(resolved)),
		}
	case boundary.TypeWard:
		return &validator.TessellationInput{
			Jurisdiction:  validator.BoundingBoxGeometry(resolved),
			Candidates:    resolved,
			ExpectedCount: len(filterPlaceholderBoundaries(resolved)),
		}
	default:
		return nil
	}
}

func filterPlaceholderBoundaries(boundaries []*boundary.Boundary) []*boundary.Boundary {
	out := make([]*boundary.Boundary, 0, len(boundaries))
	for _, b := range boundaries {
		if !boundary.IsPlaceholderGEOID(b.ID) {
			out = append(out, b)
		}
	}
	return out
}

func (r *Runner) fetchWithCache(ctx context.Context, p provider.BoundaryProvider, task LayerTask) (*provider.FetchResult, error) {
	key := cache.Key(p.Name(), string(task.Layer), task.StateFIPS, task.VintageYear)

	var lastChecksum string
	if r.Cache != nil {
		if cached, ok, err := r.Cache.Get(key); err == nil && ok {
			lastChecksum = string(cached)
		}
	}

	fr := provider.FetchRequest{Layer: task.Layer, StateFIPS: task.StateFIPS, VintageYear: task.VintageYear}
	if lastChecksum != "" {
		if changed, err := p.CheckForUpdates(ctx, fr, lastChecksum); err == nil && !changed {
			r.Logger.Printf("task %s/%s: upstream unchanged since last checksum", task.Layer, task.StateFIPS)
		}
	}

	policy := provider.DefaultRetryPolicy()

	var result *provider.FetchResult
	err := provider.WithRetry(ctx, policy, func() error {
		var ferr error
		result, ferr = p.Fetch(ctx, fr)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	if r.Cache != nil && result != nil {
		_ = r.Cache.Put(key, []byte(result.Source.Checksum))
	}
	return result, nil
}

func (r *Runner) recordFailure(ctx context.Context, jobID string, task LayerTask, err error) {
	r.Logger.Printf("task %s/%s failed: %v", task.Layer, task.StateFIPS, err)
	if r.Failures == nil {
		return
	}
	_ = r.Failures.Record(ctx, persistence.Failure{
		JobID:      jobID,
		StateFIPS:  task.StateFIPS,
		Layer:      string(task.Layer),
		Kind:       errs.KindOf(err),
		Message:    err.Error(),
		OccurredAt: r.now(),
	})
}

func (r *Runner) maxConcurrency() int {
	if r.MaxConcurrency <= 0 {
		return DefaultMaxConcurrency
	}
	return r.MaxConcurrency
}

func (r *Runner) perRequestTimeout() time.Duration {
	if r.PerRequestTimeout <= 0 {
		return DefaultPerRequestTimeout
	}
	return r.PerRequestTimeout
}

func (r *Runner) jobTimeout() time.Duration {
	if r.JobTimeout <= 0 {
		return DefaultJobTimeout
	}
	return r.JobTimeout
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// MergeBoundaries flattens task results into one ordered slice, used by the
// orchestrator to feed the Merkle builder. Task order is preserved so the
// resulting tree is deterministic regardless of goroutine scheduling.
func MergeBoundaries(results []TaskResult) []*boundary.Boundary {
	var out []*boundary.Boundary
	for _, res := range results {
		out = append(out, res.Boundaries...)
	}
	return out
}

// CanonicalGapCheck reports whether the layer has canonical reference data
// at all, used by the orchestrator to decide whether completeness was even
// assessable for a scope that matched zero canonical entries.
func CanonicalGapCheck(layer boundary.Type) bool {
	return reference.HasCanonicalData(layer)
}
