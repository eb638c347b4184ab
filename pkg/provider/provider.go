// Copyright 2025 Shadow Atlas Contributors
//
// BoundaryProvider is the uniform contract every upstream data source
// implements — TIGER/Line bulk shapefiles, DC's ward ArcGIS service,
// municipal ArcGIS REST endpoints, Socrata open-data portals, raw
// shapefiles, and Connecticut's post-2022 planning-region ESA feed. Modeled
// on the teacher's scheme-agnostic AttestationStrategy contract
// (pkg/attestation/strategy/interface.go), generalized from signature
// collection to boundary retrieval.

package provider

import (
	"context"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

// FetchRequest scopes a single provider call to one layer in one state.
type FetchRequest struct {
	Layer       boundary.Type
	StateFIPS   string
	VintageYear int
}

// FetchResult is the raw yield of a provider call, prior to normalization.
type FetchResult struct {
	Boundaries []*boundary.Boundary
	Source     boundary.Source
	FetchedAt  time.Time
}

// BoundaryProvider is implemented by every upstream data source.
type BoundaryProvider interface {
	// Name identifies the provider for logging, metrics, and precedence
	// tie-breaking (spec section 4.2: providerName is the final sort key).
	Name() string

	// Supports reports whether this provider can serve a given layer/state.
	Supports(layer boundary.Type, stateFIPS string) bool

	// Fetch retrieves and parses boundary data for the given scope.
	Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error)

	// CheckForUpdates reports whether upstream data has changed since
	// lastChecksum, without downloading the full payload where the upstream
	// API supports a cheaper existence/ETag check.
	CheckForUpdates(ctx context.Context, req FetchRequest, lastChecksum string) (changed bool, err error)
}

// Registry resolves the right provider for a (layer, state) pair, trying
// each registered provider in priority order.
type Registry struct {
	providers []BoundaryProvider
}

// NewRegistry builds a Registry from providers in priority order: the first
// provider in the list that Supports a request wins.
func NewRegistry(providers ...BoundaryProvider) *Registry {
	return &Registry{providers: providers}
}

// Resolve returns the first provider supporting the given scope.
func (r *Registry) Resolve(layer boundary.Type, stateFIPS string) (BoundaryProvider, bool) {
	for _, p := range r.providers {
		if p.Supports(layer, stateFIPS) {
			return p, true
		}
	}
	return nil, false
}

// All returns every registered provider, in priority order.
func (r *Registry) All() []BoundaryProvider {
	return r.providers
}
