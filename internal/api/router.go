package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/contracts"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/pipeline"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
)

// NewRouter wires the read-only ops endpoints
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(handler *RunHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs/latest", handler.GetLatestRun).Methods("GET")
	api.HandleFunc("/runs/{id}", handler.GetRun).Methods("GET")
	api.HandleFunc("/regime", handler.GetRegime).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "overnight-screener",
	})
}

// RunHandler serves persisted run state. Strictly read-only: runs are
// started by the scheduler or the CLI, never over HTTP.
type RunHandler struct {
	store  pipeline.RunStore
	logger *logger.Logger
}

// NewRunHandler creates the run endpoints handler
func NewRunHandler(store pipeline.RunStore, log *logger.Logger) *RunHandler {
	return &RunHandler{
		store:  store,
		logger: log.Component("api.runs"),
	}
}

// GetLatestRun serves the most recent run as a report payload
func (h *RunHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.LatestRun(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pipeline.BuildReport(run, time.Now()))
}

// GetRun serves one run by id
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pipeline.BuildReport(run, time.Now()))
}

// GetRegime serves the latest run's regime assessment on its own,
// for dashboards that only need the market state
func (h *RunHandler) GetRegime(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.LatestRun(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		RunID  string                     `json:"run_id"`
		Regime contracts.RegimeAssessment `json:"regime"`
	}{RunID: run.ID, Regime: run.Regime})
}

func (h *RunHandler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrNoRuns) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no runs recorded"})
		return
	}
	h.logger.WithError(err).Error("Run store query failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")
					writeJSON(w, http.StatusInternalServerError, map[string]string{
						"error": "internal server error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
