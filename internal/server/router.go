// internal/server/router.go
//
// Read-only admin API over the loaded configuration.
//
// Routes
// ------
//
//	GET  /healthz   200 when the configuration loads, 503 otherwise
//	GET  /config    masked configuration (JSON, or YAML with ?format=yaml)
//	GET  /origins   winning source per key
//	GET  /sources   source records of the most recent load
//	POST /reload    reload now; 422 with violations on failure
//	GET  /metrics   Prometheus exposition
//
// Secrets never leave the process: every body is rendered from
// config.Config, whose Secret values marshal as the mask.

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/confstack/internal/config"
	"github.com/yanizio/confstack/internal/middleware"
)

// Router builds the admin handler over src.
func Router[T any](src *config.Loader[T], log *zap.SugaredLogger) http.Handler {
	h := &handlers[T]{src: src, log: log}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Security)

	r.Get("/healthz", h.health)
	r.Get("/config", h.config)
	r.Get("/origins", h.origins)
	r.Get("/sources", h.sources)
	r.Post("/reload", h.reload)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type handlers[T any] struct {
	src *config.Loader[T]
	log *zap.SugaredLogger
}

func (h *handlers[T]) health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.src.Config(); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "root": h.src.Root()})
}

func (h *handlers[T]) config(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.src.Config()
	if err != nil {
		h.fail(w, err)
		return
	}
	if r.URL.Query().Get("format") == "yaml" {
		w.Header().Set("Content-Type", "application/yaml")
		if err := config.DumpYAML(w, cfg); err != nil {
			h.log.Errorw("render yaml", "err", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *handlers[T]) origins(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.src.Config()
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make(map[string]config.SourceKind, len(cfg.Keys()))
	for _, k := range cfg.Keys() {
		if o, ok := cfg.Origin(k); ok {
			out[k] = o
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers[T]) sources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.src.Sources())
}

// reload loads again.  On failure the previous configuration keeps
// serving and the response lists what is wrong with the new one.
func (h *handlers[T]) reload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.src.Reload(); err != nil {
		h.fail(w, err)
		return
	}
	h.log.Infow("configuration reloaded")
	writeJSON(w, http.StatusOK, h.src.Sources())
}

// fail maps load errors onto status codes.  Validation problems are the
// caller's to fix (422); anything else means the service is unusable (503).
func (h *handlers[T]) fail(w http.ResponseWriter, err error) {
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      config.ErrValidation.Error(),
			"violations": ve.Violations,
		})
		return
	}
	h.log.Warnw("configuration unavailable", "err", err)
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
