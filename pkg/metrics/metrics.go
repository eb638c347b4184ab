// Copyright 2025 Shadow Atlas Contributors
//
// Prometheus collectors for job, provider, and validator instrumentation.
// Modeled on the teacher's component-status HealthStatus struct (main.go)
// and the pack's collector-registration pattern
// (_examples/luxfi-consensus/api/metrics/metrics.go), generalized from
// consensus-round counters to pipeline build counters.

package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shadowatlas"

// Collectors bundles the pipeline's Prometheus metrics. The serve command
// constructs it once and registers it on the /metrics registry; the job
// runner, providers, and validator do not record to it.
type Collectors struct {
	JobsStarted   prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter
	JobDuration   prometheus.Histogram

	ProviderFetches     *prometheus.CounterVec
	ProviderFetchErrors *prometheus.CounterVec
	ProviderFetchLatency *prometheus.HistogramVec

	ValidationQualityScore *prometheus.HistogramVec
	ValidationFailures     *prometheus.CounterVec

	MerkleLeafCount prometheus.Gauge
	MerkleBuildDuration prometheus.Histogram
}

// NewCollectors builds and registers every collector against reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		JobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_started_total", Help: "Number of builds started.",
		}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_completed_total", Help: "Number of builds completed successfully.",
		}),
		JobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "jobs_failed_total", Help: "Number of builds that failed entirely.",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "job_duration_seconds", Help: "Wall-clock duration of a build.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}),
		ProviderFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "provider_fetches_total", Help: "Fetch attempts per provider.",
		}, []string{"provider", "layer"}),
		ProviderFetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "provider_fetch_errors_total", Help: "Fetch failures per provider and error kind.",
		}, []string{"provider", "layer", "kind"}),
		ProviderFetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "provider_fetch_duration_seconds", Help: "Fetch latency per provider.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "layer"}),
		ValidationQualityScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "validation_quality_score", Help: "Composite quality score per (layer, state).",
			Buckets: []float64{10, 25, 50, 70, 85, 90, 95, 99, 100},
		}, []string{"layer"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "validation_failures_total", Help: "Validation gate failures per layer and check.",
		}, []string{"layer", "check"}),
		MerkleLeafCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "merkle_leaf_count", Help: "Leaf count of the most recently built tree.",
		}),
		MerkleBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "merkle_build_duration_seconds", Help: "Time to build the Merkle tree.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.JobsStarted, c.JobsCompleted, c.JobsFailed, c.JobDuration,
		c.ProviderFetches, c.ProviderFetchErrors, c.ProviderFetchLatency,
		c.ValidationQualityScore, c.ValidationFailures,
		c.MerkleLeafCount, c.MerkleBuildDuration,
	)
	return c
}

// ObserveFetch records a provider fetch outcome.
func (c *Collectors) ObserveFetch(provider, layer string, duration time.Duration, errKind string) {
	c.ProviderFetches.WithLabelValues(provider, layer).Inc()
	c.ProviderFetchLatency.WithLabelValues(provider, layer).Observe(duration.Seconds())
	if errKind != "" {
		c.ProviderFetchErrors.WithLabelValues(provider, layer, errKind).Inc()
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (c *Collectors) Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Health tracks the readiness of the pipeline's dependencies for the
// /health endpoint: the persistence store, the provider registry, and the
// currently running job, if any.
type Health struct {
	mu          sync.RWMutex
	Status      string `json:"status"` // "ok", "degraded", "error"
	Persistence string `json:"persistence"`
	Providers   string `json:"providers"`
	ActiveJobID string `json:"activeJobId,omitempty"`
	startTime   time.Time
}

// NewHealth constructs a Health tracker in the "starting" state.
func NewHealth() *Health {
	return &Health{Status: "starting", Persistence: "unknown", Providers: "unknown", startTime: time.Now()}
}

// SetPersistence updates the persistence component's status.
func (h *Health) SetPersistence(status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Persistence = status
	h.recompute()
}

// SetProviders updates the provider registry's status.
func (h *Health) SetProviders(status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Providers = status
	h.recompute()
}

// SetActiveJob records the currently running job, or clears it when empty.
func (h *Health) SetActiveJob(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ActiveJobID = jobID
}

func (h *Health) recompute() {
	if h.Persistence == "disconnected" {
		h.Status = "error"
		return
	}
	if h.Providers == "degraded" {
		h.Status = "degraded"
		return
	}
	if h.Persistence == "connected" && h.Providers == "ok" {
		h.Status = "ok"
	}
}

// Snapshot returns a copy safe to marshal without holding the lock.
func (h *Health) Snapshot() Health {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Health{Status: h.Status, Persistence: h.Persistence, Providers: h.Providers, ActiveJobID: h.ActiveJobID}
}
