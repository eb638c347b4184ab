// Copyright 2025 Shadow Atlas Contributors
//
// TIGERProvider fetches Census TIGER/Line bulk shapefiles. It is the
// default, highest-authority provider for every layer TIGER publishes
// (CD, SLDU, SLDL, county, place, VTD, school districts).

package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/errs"
)

// tigerLayerPaths maps a boundary type to the TIGER/Line product directory
// name used to build a download URL.
var tigerLayerPaths = map[boundary.Type]string{
	boundary.TypeCongressionalDistrict: "CD",
	boundary.TypeStateLegislativeUpper: "SLDU",
	boundary.TypeStateLegislativeLower: "SLDL",
	boundary.TypeCounty:                "COUNTY",
	boundary.TypePlace:                 "PLACE",
	boundary.TypeVotingPrecinct:        "VTD",
	boundary.TypeSchoolUnified:         "UNSD",
	boundary.TypeSchoolElementary:      "ELSD",
	boundary.TypeSchoolSecondary:       "SCSD",
}

// TIGERProvider downloads shapefiles from the Census TIGER/Line FTP-over-
// HTTPS mirror.
type TIGERProvider struct {
	BaseURL    string // e.g. "https://www2.census.gov/geo/tiger"
	HTTPClient *http.Client
	Limiter    *HostLimiter
	Parser     ShapefileParser
}

// NewTIGERProvider constructs a provider pointed at the given base URL.
func NewTIGERProvider(baseURL string, limiter *HostLimiter) *TIGERProvider {
	return &TIGERProvider{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		Limiter:    limiter,
		Parser:     ShapefileParser{},
	}
}

func (p *TIGERProvider) Name() string { return "tiger" }

func (p *TIGERProvider) Supports(layer boundary.Type, stateFIPS string) bool {
	_, ok := tigerLayerPaths[layer]
	return ok
}

func (p *TIGERProvider) downloadURL(req FetchRequest) (string, error) {
	product, ok := tigerLayerPaths[req.Layer]
	if !ok {
		return "", errs.New(errs.InvalidArgument, fmt.Sprintf("tiger: unsupported layer %s", req.Layer))
	}
	return fmt.Sprintf("%s/TIGER%d/%s/tl_%d_%s_%s.zip", p.BaseURL, req.VintageYear, product, req.VintageYear, req.StateFIPS, product), nil
}

func (p *TIGERProvider) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	url, err := p.downloadURL(req)
	if err != nil {
		return nil, err
	}
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx, "www2.census.gov"); err != nil {
			return nil, errs.Wrap(errs.Cancelled, "rate limiter wait", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "build tiger request", err)
	}
	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, "tiger fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errs.New(errs.RateLimited, "tiger: rate limited by upstream")
	}
	if resp.StatusCode >= 500 {
		return nil, errs.New(errs.NetworkError, fmt.Sprintf("tiger: upstream %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, errs.New(errs.UpstreamError, fmt.Sprintf("tiger: upstream %d for %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.NetworkError, "read tiger body", err)
	}

	sum := sha256.Sum256(body)
	boundaries, err := p.Parser.Parse(body, req.Layer)
	if err != nil {
		return nil, errs.Wrap(errs.FormatError, "parse tiger shapefile", err)
	}

	now := time.Now().UTC()
	src := boundary.Source{
		ProviderName:     p.Name(),
		URL:              url,
		Version:          fmt.Sprintf("TIGER%d", req.VintageYear),
		RetrievedAt:      now,
		Checksum:         hex.EncodeToString(sum[:]),
		AuthorityLevel:   boundary.AuthorityFederalMandate.String(),
		CoordinateSystem: "EPSG:4326",
	}
	for _, b := range boundaries {
		b.Source = src
		b.Authority = boundary.AuthorityFederalMandate
	}

	return &FetchResult{Boundaries: boundaries, Source: src, FetchedAt: now}, nil
}

func (p *TIGERProvider) CheckForUpdates(ctx context.Context, req FetchRequest, lastChecksum string) (bool, error) {
	url, err := p.downloadURL(req)
	if err != nil {
		return false, err
	}
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx, "www2.census.gov"); err != nil {
			return false, errs.Wrap(errs.Cancelled, "rate limiter wait", err)
		}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, errs.Wrap(errs.InvalidArgument, "build tiger HEAD request", err)
	}
	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return false, errs.Wrap(errs.NetworkError, "tiger HEAD", err)
	}
	defer resp.Body.Close()
	etag := resp.Header.Get("ETag")
	if etag == "" {
		// No cheap existence check available; caller should do a full fetch.
		return true, nil
	}
	return etag != lastChecksum, nil
}
