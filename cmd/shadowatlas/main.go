// Copyright 2025 Shadow Atlas Contributors
//
// Shadow Atlas CLI: builds a deterministic Merkle-rooted artifact from US
// administrative boundary data. Thin wiring entrypoint over
// pkg/orchestrator, following the teacher's flag-parsing and /health,
// /metrics HTTP server conventions (main.go).

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shadowatlas/atlas/pkg/boundary"
	"github.com/shadowatlas/atlas/pkg/cache"
	"github.com/shadowatlas/atlas/pkg/config"
	"github.com/shadowatlas/atlas/pkg/job"
	"github.com/shadowatlas/atlas/pkg/metrics"
	"github.com/shadowatlas/atlas/pkg/orchestrator"
	"github.com/shadowatlas/atlas/pkg/persistence"
	"github.com/shadowatlas/atlas/pkg/provider"

	dbm "github.com/cometbft/cometbft-db"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if len(os.Args) < 2 {
		printHelp()
		os.Exit(int(orchestrator.ExitInvalidArguments))
	}

	switch os.Args[1] {
	case "build":
		os.Exit(int(runBuild(os.Args[2:])))
	case "serve":
		os.Exit(int(runServe(os.Args[2:])))
	case "help", "-h", "--help":
		printHelp()
		os.Exit(int(orchestrator.ExitSuccess))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", os.Args[1])
		printHelp()
		os.Exit(127)
	}
}

func printHelp() {
	fmt.Println(`shadowatlas - deterministic US administrative boundary Merkle builder

Usage:
  shadowatlas build -layers county,congressional-district -states 06,36 -out atlas.json
  shadowatlas serve

Subcommands:
  build   run a single build and exit
  serve   run the HTTP health/metrics server
  help    show this message`)
}

func runBuild(args []string) orchestrator.ExitCode {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	layers := fs.String("layers", "county", "comma-separated layer list")
	states := fs.String("states", "", "comma-separated 2-digit state FIPS list")
	vintage := fs.Int("vintage", time.Now().Year(), "vintage year")
	threshold := fs.Float64("quality-threshold", 85.0, "minimum acceptable quality score (0-100)")
	out := fs.String("out", "atlas.json", "output artifact path")
	crossValidate := fs.Bool("cross-validate", false, "enable cross-provider validation")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load configuration: %v", err)
		return orchestrator.ExitFatalInternal
	}

	o, cleanup, err := wireOrchestrator(cfg)
	if err != nil {
		log.Printf("failed to wire orchestrator: %v", err)
		return orchestrator.ExitFatalInternal
	}
	defer cleanup()

	req := boundary.BuildRequest{
		Layers:           splitLayers(*layers),
		StateFIPS:        splitCSV(*states),
		VintageYear:      *vintage,
		QualityThreshold: *threshold,
		OutputPath:       *out,
		CrossValidate:    *crossValidate,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
	defer cancel()

	result, err := o.BuildAtlas(ctx, req)
	if err != nil {
		log.Printf("build failed: %v", err)
		return result.ExitCode
	}

	if result.Document != nil {
		raw, err := result.Document.Marshal()
		if err != nil {
			log.Printf("failed to marshal artifact: %v", err)
			return orchestrator.ExitFatalInternal
		}
		if err := os.WriteFile(*out, raw, 0o644); err != nil {
			log.Printf("failed to write artifact to %s: %v", *out, err)
			return orchestrator.ExitFatalInternal
		}
		log.Printf("wrote artifact: root=%s leaves=%d path=%s", result.Document.Root, result.Document.BoundaryCount, *out)
	}

	return result.ExitCode
}

func runServe(args []string) orchestrator.ExitCode {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load configuration: %v", err)
		return orchestrator.ExitFatalInternal
	}

	reg := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(reg)
	_ = collectors
	health := metrics.NewHealth()

	persist, err := persistence.NewClient(cfg.DatabasePath)
	if err != nil {
		log.Printf("persistence unavailable, running degraded: %v", err)
		health.SetPersistence("disconnected")
	} else {
		if err := persist.MigrateUp(context.Background()); err != nil {
			log.Printf("migration failed: %v", err)
		}
		health.SetPersistence("connected")
		defer persist.Close()
	}
	health.SetProviders("ok")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		snapshot := health.Snapshot()
		data, _ := json.Marshal(snapshot)
		w.Write(data)
	})
	mux.Handle("/metrics", collectors.Handler(reg))

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Printf("server exited: %v", err)
		return orchestrator.ExitFatalInternal
	}
	return orchestrator.ExitSuccess
}

// wireOrchestrator constructs the full provider registry, persistence
// repositories, job runner, and orchestrator for a single build invocation.
func wireOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, func(), error) {
	limiter := provider.NewHostLimiter()

	tiger := provider.NewTIGERProvider("https://www2.census.gov/geo/tiger", limiter)
	ct := provider.NewConnecticutESAProvider(tiger)
	dcWards := provider.NewDCWardsProvider("https://maps2.dcgis.dc.gov/dcgis/rest/services/Administrative/Ward/MapServer/0/query", limiter)

	var municipal provider.BoundaryProvider
	var socrata provider.BoundaryProvider
	if providersCfg, err := config.LoadProvidersConfig(cfg.ProvidersConfigPath); err == nil {
		municipal = provider.NewMunicipalArcGISProvider(toMunicipalEndpoints(providersCfg.Municipal), limiter)
		socrata = provider.NewSocrataProvider(toSocrataEndpoints(providersCfg.Socrata), limiter)
	} else {
		log.Printf("providers config unavailable at %s, municipal/socrata layers disabled: %v", cfg.ProvidersConfigPath, err)
		municipal = provider.NewMunicipalArcGISProvider(nil, limiter)
		socrata = provider.NewSocrataProvider(nil, limiter)
	}

	registry := provider.NewRegistry(ct, dcWards, municipal, socrata, tiger)

	cacheDB, err := dbm.NewGoLevelDB("download-cache", cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("download cache: %w", err)
	}
	downloadCache := cache.NewDownloadCache(cacheDB)

	persist, err := persistence.NewClient(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("persistence: %w", err)
	}
	if err := persist.MigrateUp(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("persistence: migrate: %w", err)
	}

	jobs := persistence.NewJobRepository(persist)
	extractions := persistence.NewExtractionRepository(persist)
	failures := persistence.NewFailureRepository(persist)
	validations := persistence.NewValidationResultRepository(persist)
	snapshots := persistence.NewSnapshotRepository(persist)

	runner := job.NewRunner(registry, downloadCache, jobs, extractions, failures, validations)
	runner.MaxConcurrency = cfg.MaxConcurrency
	runner.PerRequestTimeout = cfg.PerRequestTimeout
	runner.JobTimeout = cfg.JobTimeout

	o := orchestrator.New(runner, jobs, snapshots)

	cleanup := func() {
		_ = downloadCache.Close()
		_ = persist.Close()
	}
	return o, cleanup, nil
}

func toMunicipalEndpoints(cfgs []config.MunicipalEndpointConfig) []provider.MunicipalEndpoint {
	out := make([]provider.MunicipalEndpoint, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, provider.MunicipalEndpoint{
			PlaceFIPS:  c.PlaceFIPS,
			QueryURL:   c.QueryURL,
			GEOIDField: c.GEOIDField,
			Mapper:     provider.FieldMapper{Ops: toFieldOps(c.FieldOps)},
		})
	}
	return out
}

func toSocrataEndpoints(cfgs []config.SocrataEndpointConfig) []provider.SocrataEndpoint {
	out := make([]provider.SocrataEndpoint, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, provider.SocrataEndpoint{
			StateFIPS:   c.StateFIPS,
			Layer:       boundary.Type(c.Layer),
			DatasetURL:  c.DatasetURL,
			GeometryCol: c.GeometryCol,
			GEOIDField:  c.GEOIDField,
			Mapper:      provider.FieldMapper{Ops: toFieldOps(c.FieldOps)},
		})
	}
	return out
}

func toFieldOps(cfgs []config.FieldOpConfig) []provider.FieldOp {
	out := make([]provider.FieldOp, 0, len(cfgs))
	for _, c := range cfgs {
		pattern, err := c.CompilePattern()
		if err != nil {
			log.Printf("invalid field op pattern %q: %v", c.Pattern, err)
		}
		out = append(out, provider.FieldOp{
			Op:      c.Op,
			Source:  c.Source,
			Sources: c.Sources,
			Target:  c.Target,
			Sep:     c.Sep,
			Start:   c.Start,
			End:     c.End,
			Pattern: pattern,
			Value:   c.Value,
		})
	}
	return out
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitLayers(s string) []boundary.Type {
	raw := splitCSV(s)
	out := make([]boundary.Type, 0, len(raw))
	for _, r := range raw {
		out = append(out, boundary.Type(r))
	}
	return out
}
