// Copyright 2025 Shadow Atlas Contributors
//
// SocrataProvider serves boundary layers published through a Socrata
// open-data portal (Socrata's SODA API returns each record's geometry as a
// GeoJSON-shaped column, typically named "the_geom" or "shape").

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
	"github.com/shadowatlas/atlas/pkg/errs"
)

// SocrataEndpoint configures one dataset on a Socrata domain.
type SocrataEndpoint struct {
	StateFIPS    string
	Layer        boundary.Type
	DatasetURL   string // e.g. "https://data.cityofchicago.org/resource/xyz.json"
	GeometryCol  string
	GEOIDField   string
	Mapper       FieldMapper
}

// SocrataProvider serves one or more registered Socrata datasets.
type SocrataProvider struct {
	Endpoints  []SocrataEndpoint
	HTTPClient *http.Client
	Limiter    *HostLimiter
}

// NewSocrataProvider builds a provider from registered dataset endpoints.
func NewSocrataProvider(endpoints []SocrataEndpoint, limiter *HostLimiter) *SocrataProvider {
	return &SocrataProvider{Endpoints: endpoints, HTTPClient: &http.Client{Timeout: 30 * time.Second}, Limiter: limiter}
}

func (p *SocrataProvider) Name() string { return "socrata" }

func (p *SocrataProvider) endpointFor(layer boundary.Type, stateFIPS string) (SocrataEndpoint, bool) {
	for _, e := range p.Endpoints {
		if e.Layer == layer && e.StateFIPS == stateFIPS {
			return e, true
		}
	}
	return SocrataEndpoint{}, false
}

func (p *SocrataProvider) Supports(layer boundary.Type, stateFIPS string) bool {
	_, ok := p.endpointFor(layer, stateFIPS)
	return ok
}

type socrataRecord map[string]json.RawMessage

func (p *SocrataProvider) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	endpoint, ok := p.endpointFor(req.Layer, req.StateFIPS)
	if !ok {
		return nil, errs.New(errs.InvalidArgument, "socrata: no registered dataset for this layer/state")
	}

	u, err := url.Parse(endpoint.DatasetURL)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "parse socrata dataset url", err)
	}
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx, u.Host); err != nil {
			return nil, errs.Wrap(errs.Cancelled, "rate limiter wait", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.DatasetURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "build socrata request", err)
	}
	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, "socrata fetch", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errs.New(errs.RateLimited, "socrata: rate limited")
	}
	if resp.StatusCode >= 500 {
		return nil, errs.New(errs.NetworkError, fmt.Sprintf("socrata: upstream %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, errs.New(errs.UpstreamError, fmt.Sprintf("socrata: upstream %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, "read socrata body", err)
	}

	var records []socrataRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, errs.Wrap(errs.FormatError, "parse socrata json", err)
	}

	sum := sha256.Sum256(body)
	now := time.Now().UTC()
	src := boundary.Source{
		ProviderName:     p.Name(),
		URL:              endpoint.DatasetURL,
		RetrievedAt:      now,
		Checksum:         hex.EncodeToString(sum[:]),
		AuthorityLevel:   boundary.AuthorityMunicipalAgency.String(),
		CoordinateSystem: "EPSG:4326",
	}

	boundaries := make([]*boundary.Boundary, 0, len(records))
	for _, rec := range records {
		raw := make(map[string]string, len(rec))
		for k, v := range rec {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				raw[k] = s
			}
		}
		mapped, err := endpoint.Mapper.Apply(raw)
		if err != nil {
			return nil, errs.Wrap(errs.FormatError, "apply socrata field map", err)
		}

		var geom boundary.Geometry
		if raw, ok := rec[endpoint.GeometryCol]; ok {
			var g geojson.Geometry
			if err := json.Unmarshal(raw, &g); err == nil {
				geom = geometryFromOrb(g.Geometry())
			}
		}

		boundaries = append(boundaries, &boundary.Boundary{
			ID:           mapped[endpoint.GEOIDField],
			BoundaryType: req.Layer,
			Geometry:     geom,
			Authority:    boundary.AuthorityMunicipalAgency,
			Source:       src,
		})
	}

	return &FetchResult{Boundaries: boundaries, Source: src, FetchedAt: now}, nil
}

func (p *SocrataProvider) CheckForUpdates(ctx context.Context, req FetchRequest, lastChecksum string) (bool, error) {
	return true, nil
}
