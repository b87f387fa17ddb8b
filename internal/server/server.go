// Package server implements the optional HTTP server: POST /diff, GET
// /health, GET /version, and a Prometheus /metrics endpoint. The core
// pipeline remains a pure function; this package only adapts it to HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/presidioforts/PR-Diff-Ingestion/config"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/gitdriver"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/pipeline"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/serialize"
)

// Version is the module version reported by GET /version, a constant baked
// into the binary at build time.
const Version = "1.0.0"

// Server wires the pure pipeline.Run function to HTTP handlers.
type Server struct {
	driver   gitdriver.Driver
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	omittedFilesSum prometheus.Counter
}

// New returns a Server backed by driver, with its own Prometheus registry so
// tests can construct multiple instances without collector name collisions.
func New(driver gitdriver.Driver) *Server {
	s := &Server{
		driver:   driver,
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Total diff ingestion runs, partitioned by outcome.",
		}, []string{"ok"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Wall-clock duration of a diff ingestion run.",
			Buckets: prometheus.DefBuckets,
		}),
		omittedFilesSum: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_omitted_files_total",
			Help: "Cumulative count of files globally omitted by the cap engine.",
		}),
	}
	s.registry.MustRegister(s.runsTotal, s.runDuration, s.omittedFilesSum)
	return s
}

// Handler returns the full routed mux: /diff, /health, /version, /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/diff", s.handleDiff)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/version", s.handleVersion)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

type diffRequest struct {
	RepoURL              string `json:"repoUrl"`
	CommitGood           string `json:"commitGood"`
	CommitCandidate      string `json:"commitCandidate"`
	BranchName           string `json:"branchName"`
	CapTotal             int    `json:"capTotal"`
	CapFile              int    `json:"capFile"`
	ContextLines         int    `json:"contextLines"`
	FindRenamesThreshold int    `json:"findRenamesThreshold"`
	KeepWorkdir          bool   `json:"keepWorkdir"`
	KeepOnError          bool   `json:"keepOnError"`
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var req diffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	cfg := config.Default()
	cfg.RepoURL = req.RepoURL
	cfg.CommitGood = req.CommitGood
	cfg.CommitCandidate = req.CommitCandidate
	cfg.BranchName = req.BranchName
	if req.CapTotal > 0 {
		cfg.CapTotal = req.CapTotal
	}
	if req.CapFile > 0 {
		cfg.CapFile = req.CapFile
	}
	if req.ContextLines > 0 {
		cfg.ContextLines = req.ContextLines
	}
	if req.FindRenamesThreshold > 0 {
		cfg.FindRenamesThreshold = req.FindRenamesThreshold
	}
	cfg.KeepWorkdir = req.KeepWorkdir
	cfg.KeepOnError = req.KeepOnError

	start := time.Now()
	env := pipeline.Run(r.Context(), cfg, s.driver)
	s.runDuration.Observe(time.Since(start).Seconds())

	outcome := "true"
	if !env.OK {
		outcome = "false"
	}
	s.runsTotal.WithLabelValues(outcome).Inc()
	if env.OK && env.Data != nil {
		s.omittedFilesSum.Add(float64(env.Data.OmittedFilesCount))
	}

	body, err := serialize.Envelope(env)
	if err != nil {
		http.Error(w, "failed to serialize envelope", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !env.OK {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	gitVersion, err := s.driver.DetectVersion(ctx)
	resp := map[string]any{
		"status":        "ok",
		"version":       Version,
		"git_available": err == nil,
		"git_version":   gitVersion,
	}
	if err != nil {
		resp["status"] = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	gitVersion, _ := s.driver.DetectVersion(ctx)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"version":        Version,
		"git_version":    gitVersion,
		"diff_algorithm": "myers",
	})
}
