// Copyright 2025 Shadow Atlas Contributors
//
// MunicipalArcGISProvider serves municipal-council-district boundaries from
// a per-city ArcGIS FeatureServer. Unlike TIGER, there is no single national
// endpoint: each supported municipality is registered individually with its
// own query URL and field mapping.

package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/cache"
	"github.com/shadowatlas/atlas/pkg/errs"
)

// MunicipalEndpoint configures one city's ArcGIS feature service.
type MunicipalEndpoint struct {
	PlaceFIPS  string // 7-digit place GEOID prefix, e.g. "4159000" for Portland
	QueryURL   string
	GEOIDField string
	Mapper     FieldMapper
}

// MunicipalArcGISProvider serves the municipal-council-district layer for a
// fixed set of registered cities.
type MunicipalArcGISProvider struct {
	Endpoints  map[string]MunicipalEndpoint // keyed by PlaceFIPS
	HTTPClient *http.Client
	Limiter    *HostLimiter

	// ParsedCache holds already-decoded boundary sets keyed by checksum, so
	// a build that re-runs against an unchanged ArcGIS response within the
	// cache's lifetime skips re-parsing GeoJSON and re-applying field maps.
	ParsedCache *cache.MunicipalLRU
}

// NewMunicipalArcGISProvider builds a provider from a set of per-city
// endpoints, backed by a bounded in-process LRU of parsed boundary sets.
func NewMunicipalArcGISProvider(endpoints []MunicipalEndpoint, limiter *HostLimiter) *MunicipalArcGISProvider {
	m := make(map[string]MunicipalEndpoint, len(endpoints))
	for _, e := range endpoints {
		m[e.PlaceFIPS] = e
	}
	return &MunicipalArcGISProvider{
		Endpoints:   m,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		Limiter:     limiter,
		ParsedCache: cache.NewMunicipalLRU(32),
	}
}

func (p *MunicipalArcGISProvider) Name() string { return "municipal-arcgis" }

func (p *MunicipalArcGISProvider) Supports(layer boundary.Type, stateFIPS string) bool {
	if layer != boundary.TypeMunicipalCouncilDistrict {
		return false
	}
	for fips := range p.Endpoints {
		if len(fips) >= 2 && fips[:2] == stateFIPS {
			return true
		}
	}
	return false
}

// endpointFor picks the registered endpoint whose place FIPS falls within
// the requested state.
func (p *MunicipalArcGISProvider) endpointFor(stateFIPS string) (MunicipalEndpoint, bool) {
	for fips, e := range p.Endpoints {
		if len(fips) >= 2 && fips[:2] == stateFIPS {
			return e, true
		}
	}
	return MunicipalEndpoint{}, false
}

func (p *MunicipalArcGISProvider) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	endpoint, ok := p.endpointFor(req.StateFIPS)
	if !ok {
		return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("municipal-arcgis: no registered endpoint for state %s", req.StateFIPS))
	}

	u, err := url.Parse(endpoint.QueryURL)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "parse municipal endpoint url", err)
	}
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx, u.Host); err != nil {
			return nil, errs.Wrap(errs.Cancelled, "rate limiter wait", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.QueryURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "build municipal request", err)
	}
	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, "municipal fetch", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errs.New(errs.RateLimited, "municipal-arcgis: rate limited")
	}
	if resp.StatusCode >= 500 {
		return nil, errs.New(errs.NetworkError, fmt.Sprintf("municipal-arcgis: upstream %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, errs.New(errs.UpstreamError, fmt.Sprintf("municipal-arcgis: upstream %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, "read municipal body", err)
	}

	sum := sha256.Sum256(body)
	checksum := hex.EncodeToString(sum[:])
	now := time.Now().UTC()
	src := boundary.Source{
		ProviderName:     p.Name(),
		URL:              endpoint.QueryURL,
		RetrievedAt:      now,
		Checksum:         checksum,
		AuthorityLevel:   boundary.AuthorityMunicipalAgency.String(),
		CoordinateSystem: "EPSG:4326",
	}

	cacheKey := endpoint.PlaceFIPS + ":" + checksum
	if p.ParsedCache != nil {
		if cached, ok := p.ParsedCache.Get(cacheKey); ok {
			return &FetchResult{Boundaries: cached, Source: src, FetchedAt: now}, nil
		}
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, errs.Wrap(errs.FormatError, "parse municipal geojson", err)
	}

	boundaries := make([]*boundary.Boundary, 0, len(fc.Features))
	for _, f := range fc.Features {
		raw := make(map[string]string, len(f.Properties))
		for k, v := range f.Properties {
			raw[k] = stringProp(f, k)
		}
		mapped, err := endpoint.Mapper.Apply(raw)
		if err != nil {
			return nil, errs.Wrap(errs.FormatError, "apply municipal field map", err)
		}
		id := endpoint.PlaceFIPS[2:] + mapped[endpoint.GEOIDField]
		boundaries = append(boundaries, &boundary.Boundary{
			ID:           id,
			BoundaryType: boundary.TypeMunicipalCouncilDistrict,
			Level:        boundary.LevelMunicipal,
			Geometry:     featureGeometry(f),
			Authority:    boundary.AuthorityMunicipalAgency,
			Source:       src,
		})
	}

	if p.ParsedCache != nil {
		p.ParsedCache.Put(cacheKey, boundaries)
	}

	return &FetchResult{Boundaries: boundaries, Source: src, FetchedAt: now}, nil
}

func (p *MunicipalArcGISProvider) CheckForUpdates(ctx context.Context, req FetchRequest, lastChecksum string) (bool, error) {
	return true, nil
}
