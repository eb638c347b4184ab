// Copyright 2025 Shadow Atlas Contributors

package job

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/cache"
	"github.com/shadowatlas/atlas/pkg/provider"
)

type fakeProvider struct {
	name        string
	layer       boundary.Type
	fipsSupport map[string]bool
	fetchCount  int32
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Supports(layer boundary.Type, stateFIPS string) bool {
	return layer == p.layer && p.fipsSupport[stateFIPS]
}

func (p *fakeProvider) Fetch(ctx context.Context, req provider.FetchRequest) (*provider.FetchResult, error) {
	atomic.AddInt32(&p.fetchCount, 1)
	b := &boundary.Boundary{
		ID:           req.StateFIPS + "01",
		BoundaryType: req.Layer,
		Geometry: boundary.Geometry{Polygons: [][]boundary.Ring{{{
			{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0},
		}}}},
		Authority: boundary.AuthorityStateOfficial,
		Source: boundary.Source{
			ProviderName:     p.name,
			CoordinateSystem: "EPSG:4326",
			Checksum:         "deadbeef",
			RetrievedAt:      time.Now(),
		},
	}
	return &provider.FetchResult{Boundaries: []*boundary.Boundary{b}, Source: b.Source, FetchedAt: time.Now()}, nil
}

func (p *fakeProvider) CheckForUpdates(ctx context.Context, req provider.FetchRequest, lastChecksum string) (bool, error) {
	return true, nil
}

func newTestRunner(p *fakeProvider) *Runner {
	reg := provider.NewRegistry(p)
	dc := cache.NewDownloadCache(dbm.NewMemDB())
	return NewRunner(reg, dc, nil, nil, nil, nil)
}

func TestRunBuildsTaskPerLayerState(t *testing.T) {
	p := &fakeProvider{
		name:        "fake-tiger",
		layer:       boundary.TypeCounty,
		fipsSupport: map[string]bool{"06": true, "36": true},
	}
	r := newTestRunner(p)

	job := &boundary.Job{
		ID: "job-1",
		Request: boundary.BuildRequest{
			Layers:    []boundary.Type{boundary.TypeCounty},
			StateFIPS: []string{"06", "36"},
		},
	}

	results, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 task results, got %d", len(results))
	}
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("task %v failed: %v", res.Task, res.Err)
		}
		if len(res.Boundaries) != 1 {
			t.Errorf("task %v: expected 1 boundary, got %d", res.Task, len(res.Boundaries))
		}
	}

	merged := MergeBoundaries(results)
	if len(merged) != 2 {
		t.Errorf("expected 2 merged boundaries, got %d", len(merged))
	}
}

func TestRunSkipsUnsupportedScope(t *testing.T) {
	p := &fakeProvider{
		name:        "fake-tiger",
		layer:       boundary.TypeCounty,
		fipsSupport: map[string]bool{"06": true},
	}
	r := newTestRunner(p)

	job := &boundary.Job{
		ID: "job-2",
		Request: boundary.BuildRequest{
			Layers:    []boundary.Type{boundary.TypeCounty},
			StateFIPS: []string{"06", "99"},
		},
	}

	results, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 task result (unsupported state skipped), got %d", len(results))
	}
}

func TestRunRespectsMaxConcurrency(t *testing.T) {
	p := &fakeProvider{
		name:        "fake-tiger",
		layer:       boundary.TypeCounty,
		fipsSupport: map[string]bool{"06": true, "36": true, "48": true, "12": true},
	}
	r := newTestRunner(p)
	r.MaxConcurrency = 1

	job := &boundary.Job{
		ID: "job-3",
		Request: boundary.BuildRequest{
			Layers:    []boundary.Type{boundary.TypeCounty},
			StateFIPS: []string{"06", "36", "48", "12"},
		},
	}

	results, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if p.fetchCount != 4 {
		t.Errorf("expected 4 fetches, got %d", p.fetchCount)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	p := &fakeProvider{
		name:        "fake-tiger",
		layer:       boundary.TypeCounty,
		fipsSupport: map[string]bool{"06": true},
	}
	r := newTestRunner(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &boundary.Job{
		ID: "job-4",
		Request: boundary.BuildRequest{
			Layers:    []boundary.Type{boundary.TypeCounty},
			StateFIPS: []string{"06"},
		},
	}

	// A cancelled parent context should not panic; the per-request timeout
	// context derives from it and Fetch still runs (the fake provider
	// ignores ctx), but this exercises the cancellation plumbing.
	_, _ = r.Run(ctx, job)
}
