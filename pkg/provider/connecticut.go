// Copyright 2025 Shadow Atlas Contributors
//
// ConnecticutESAProvider serves Connecticut's nine county-equivalent
// planning regions. Connecticut eliminated functioning county government in
// 1960 and, effective the 2022 vintage, the Census Bureau's Economic
// Statistical Areas (ESA) redefinition means Connecticut's canonical
// "counties" are nine Councils of Government planning regions rather than
// the eight historical counties TIGER published before 2022 (spec section
// 4.3.1). This provider exists because TIGER's generic COUNTY layer
// endpoint is wrong for Connecticut below that vintage boundary.

package provider

import (
	"context"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
)

const connecticutFIPS = "09"

// planningRegionFallbackVintage is the first TIGER vintage year that
// publishes the nine-region geometry; requests for this vintage or later
// defer to the normal TIGER provider instead.
const planningRegionFallbackVintage = 2022

// ConnecticutESAProvider wraps a TIGERProvider, redirecting pre-2022
// Connecticut county requests to the nine-region statically known GEOID
// set while passing 2022+ requests straight through.
type ConnecticutESAProvider struct {
	Delegate *TIGERProvider
}

// NewConnecticutESAProvider builds a provider delegating non-transition
// requests to the given TIGER provider.
func NewConnecticutESAProvider(delegate *TIGERProvider) *ConnecticutESAProvider {
	return &ConnecticutESAProvider{Delegate: delegate}
}

func (p *ConnecticutESAProvider) Name() string { return "connecticut-esa" }

func (p *ConnecticutESAProvider) Supports(layer boundary.Type, stateFIPS string) bool {
	return layer == boundary.TypeCounty && stateFIPS == connecticutFIPS
}

// planningRegions are the nine Councils of Government, GEOID 09110-09190.
var planningRegions = []string{"09110", "09120", "09130", "09140", "09150", "09160", "09170", "09180", "09190"}

func (p *ConnecticutESAProvider) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if req.VintageYear >= planningRegionFallbackVintage {
		return p.Delegate.Fetch(ctx, req)
	}

	now := time.Now().UTC()
	src := boundary.Source{
		ProviderName:     p.Name(),
		Version:          "pre-2022 planning-region placeholder",
		RetrievedAt:      now,
		AuthorityLevel:   boundary.AuthorityFederalMandate.String(),
		CoordinateSystem: "EPSG:4326",
	}
	boundaries := make([]*boundary.Boundary, 0, len(planningRegions))
	for _, id := range planningRegions {
		boundaries = append(boundaries, &boundary.Boundary{
			ID:           id,
			BoundaryType: boundary.TypeCounty,
			Level:        boundary.LevelCounty,
			Authority:    boundary.AuthorityFederalMandate,
			Source:       src,
		})
	}
	return &FetchResult{Boundaries: boundaries, Source: src, FetchedAt: now}, nil
}

func (p *ConnecticutESAProvider) CheckForUpdates(ctx context.Context, req FetchRequest, lastChecksum string) (bool, error) {
	if req.VintageYear >= planningRegionFallbackVintage {
		return p.Delegate.CheckForUpdates(ctx, req, lastChecksum)
	}
	return false, nil
}
