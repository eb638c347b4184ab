// Copyright 2025 Shadow Atlas Contributors

package orchestrator

import (
	"context"
	"testing"
	"time"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/cache"
	"github.com/shadowatlas/atlas/pkg/job"
	"github.com/shadowatlas/atlas/pkg/provider"
)

type stubProvider struct {
	layer boundary.Type
	fips  map[string]bool
	fail  bool
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Supports(layer boundary.Type, stateFIPS string) bool {
	return layer == p.layer && p.fips[stateFIPS]
}

func (p *stubProvider) Fetch(ctx context.Context, req provider.FetchRequest) (*provider.FetchResult, error) {
	if p.fail {
		return nil, errFetch
	}
	b := &boundary.Boundary{
		ID:           req.StateFIPS + "01",
		BoundaryType: req.Layer,
		Geometry: boundary.Geometry{Polygons: [][]boundary.Ring{{{
			{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0},
		}}}},
		Authority: boundary.AuthorityStateOfficial,
		Source:    boundary.Source{ProviderName: "stub", CoordinateSystem: "EPSG:4326", Checksum: "abc", RetrievedAt: time.Now()},
	}
	return &provider.FetchResult{Boundaries: []*boundary.Boundary{b}, Source: b.Source, FetchedAt: time.Now()}, nil
}

func (p *stubProvider) CheckForUpdates(ctx context.Context, req provider.FetchRequest, lastChecksum string) (bool, error) {
	return true, nil
}

type fetchErr struct{ msg string }

func (e *fetchErr) Error() string { return e.msg }

var errFetch = &fetchErr{"stub fetch failed"}

func newTestOrchestrator(p *stubProvider) *Orchestrator {
	reg := provider.NewRegistry(p)
	dc := cache.NewDownloadCache(dbm.NewMemDB())
	runner := job.NewRunner(reg, dc, nil, nil, nil, nil)
	return New(runner, nil, nil)
}

func TestValidateRequestRejectsUnknownLayer(t *testing.T) {
	req := boundary.BuildRequest{Layers: []boundary.Type{"not-a-layer"}, StateFIPS: []string{"06"}}
	if err := ValidateRequest(req); err == nil {
		t.Error("expected error for unknown layer")
	}
}

func TestValidateRequestRejectsMalformedFIPS(t *testing.T) {
	req := boundary.BuildRequest{Layers: []boundary.Type{boundary.TypeCounty}, StateFIPS: []string{"6"}}
	if err := ValidateRequest(req); err == nil {
		t.Error("expected error for malformed FIPS")
	}
}

func TestBuildAtlasSucceeds(t *testing.T) {
	p := &stubProvider{layer: boundary.TypeCounty, fips: map[string]bool{"06": true}}
	o := newTestOrchestrator(p)

	result, err := o.BuildAtlas(context.Background(), boundary.BuildRequest{
		Layers:    []boundary.Type{boundary.TypeCounty},
		StateFIPS: []string{"06"},
	})
	if err != nil {
		t.Fatalf("BuildAtlas: %v", err)
	}
	if result.Document == nil {
		t.Fatal("expected a rendered artifact document")
	}
	if result.Document.BoundaryCount != 1 {
		t.Errorf("expected 1 boundary, got %d", result.Document.BoundaryCount)
	}
	if result.Job.Status != boundary.JobCompleted {
		t.Errorf("expected job completed, got %s", result.Job.Status)
	}
}

func TestBuildAtlasFailsWhenAllLayersFail(t *testing.T) {
	p := &stubProvider{layer: boundary.TypeCounty, fips: map[string]bool{"06": true}, fail: true}
	o := newTestOrchestrator(p)

	result, err := o.BuildAtlas(context.Background(), boundary.BuildRequest{
		Layers:    []boundary.Type{boundary.TypeCounty},
		StateFIPS: []string{"06"},
	})
	if err == nil {
		t.Fatal("expected error when every layer fails")
	}
	if result.ExitCode != ExitValidationFailed {
		t.Errorf("expected ExitValidationFailed, got %d", result.ExitCode)
	}
}

func TestBuildAtlasRejectsInvalidRequest(t *testing.T) {
	p := &stubProvider{layer: boundary.TypeCounty, fips: map[string]bool{"06": true}}
	o := newTestOrchestrator(p)

	result, err := o.BuildAtlas(context.Background(), boundary.BuildRequest{
		Layers:    []boundary.Type{boundary.TypeCounty},
		StateFIPS: []string{"not-fips"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if result.ExitCode != ExitInvalidArguments {
		t.Errorf("expected ExitInvalidArguments, got %d", result.ExitCode)
	}
}
