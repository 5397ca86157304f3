package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-resolver/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response.
type HealthResponse struct {
	Status            string `json:"status"`
	Ready             bool   `json:"ready"`
	Version           string `json:"version"`
	Uptime            string `json:"uptime"`
	Indexing          bool   `json:"indexing"`
	LastIndexed       string `json:"lastIndexed,omitempty"`
	InitialIndexError string `json:"initialIndexError,omitempty"`
	CatalogError      string `json:"catalogError,omitempty"`

	FilesIndexed int64 `json:"filesIndexed"`
	TotalAssets  int   `json:"totalAssets"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports overall service health. It answers 503 until the
// initial index has finished.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.indexer.GetHealthStatus()

	response := HealthResponse{
		Status:       statusStarting,
		Ready:        status.Ready,
		Version:      startup.Version,
		Uptime:       status.Uptime,
		Indexing:     status.Indexing,
		FilesIndexed: status.FilesIndexed,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if status.Ready {
		response.Status = statusHealthy
	}
	if !status.LastIndexed.IsZero() {
		response.LastIndexed = status.LastIndexed.Format(time.RFC3339)
	}
	if status.InitialIndexError != "" {
		response.InitialIndexError = status.InitialIndexError
		response.Status = statusDegraded
	}

	if stats, err := h.catalog.GetStats(r.Context()); err != nil {
		response.CatalogError = err.Error()
		response.Status = statusDegraded
	} else {
		response.TotalAssets = stats.Total()
	}

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, code, response)
}

// LivenessCheck returns 200 while the process is serving.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 once the initial index is done and the
// catalog answers.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !h.indexer.IsReady() {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	if err := h.catalog.Ping(r.Context()); err != nil {
		log.Warn("readiness: catalog ping failed: %v", err)
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "catalog_unavailable"})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetVersion reports the build that is serving requests.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, startup.GetBuildInfo())
}

// MetricsHandler is mounted on the metrics port only.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
