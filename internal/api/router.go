package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"reportdash/internal/backend"
	"reportdash/internal/config"
	"reportdash/internal/middleware"
	"reportdash/internal/service"
	"reportdash/internal/util"
)

type Handlers struct {
	cfg config.Config
	log *zap.Logger
	svc *service.Service
}

func NewRouter(cfg config.Config, log *zap.Logger, svc *service.Service) http.Handler {
	h := &Handlers{cfg: cfg, log: log, svc: svc}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeaders)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}))
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		util.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", h.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/reports", h.ListReports)
		r.Post("/reports/generate", h.GenerateMonthly)
		r.Post("/reports/generate-periodic", h.GeneratePeriodic)
		r.Get("/reports/{fileName}/details", h.ReportDetails)
		r.Get("/reports/{fileName}/analytics", h.ReportAnalytics)
		r.Get("/reports/{fileName}/download", h.Download)
		r.Get("/backend/health", h.BackendHealth)
		r.Get("/stats", h.Stats)
		r.Get("/activity", h.Activity)
		r.Get("/meta", h.Meta)
	})

	fs := http.FileServer(http.Dir(cfg.WebDir))
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/health/") {
			http.NotFound(w, r)
			return
		}
		if p == "/" {
			http.ServeFile(w, r, filepath.Join(cfg.WebDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})

	return r
}

func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	ready := map[string]any{
		"checked_at": time.Now().UTC().Format(time.RFC3339),
		"components": map[string]any{},
	}
	comps := ready["components"].(map[string]any)

	ok := true
	if err := h.svc.StorePing(r.Context()); err != nil {
		ok = false
		comps["store"] = map[string]any{"ok": false, "error": err.Error()}
	} else {
		comps["store"] = map[string]any{"ok": true}
	}

	if hs, err := h.svc.BackendHealth(r.Context()); err != nil {
		// Unreachable backend degrades readiness but the dashboard still
		// serves demo data, so this stays informational.
		comps["backend"] = map[string]any{"ok": false, "error": err.Error(), "simulated": h.svc.Simulated()}
	} else {
		comps["backend"] = map[string]any{"ok": hs.Status == "healthy", "status": hs.Status, "simulated": h.svc.Simulated()}
	}

	if ok {
		ready["status"] = "ready"
		util.WriteJSON(w, 200, ready)
		return
	}
	ready["status"] = "degraded"
	util.WriteJSON(w, 503, ready)
}

func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListReports(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, out)
}

func (h *Handlers) GenerateMonthly(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	month, err := queryInt(r, "month", int(now.Month()))
	if err != nil {
		util.WriteError(w, 400, "validation_error", "month must be a number", middleware.RequestID(r.Context()))
		return
	}
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		util.WriteError(w, 400, "validation_error", "year must be a number", middleware.RequestID(r.Context()))
		return
	}
	out, err := h.svc.GenerateMonthly(r.Context(), month, year)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, out)
}

func (h *Handlers) GeneratePeriodic(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GeneratePeriodic(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, out)
}

func (h *Handlers) ReportDetails(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ReportDetail(r.Context(), chi.URLParam(r, "fileName"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, out)
}

func (h *Handlers) ReportAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ReportAnalytics(r.Context(), chi.URLParam(r, "fileName"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, out)
}

func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	meta, stream, err := h.svc.Download(r.Context(), chi.URLParam(r, "fileName"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+meta.FileName+`"`)
	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	if _, err := io.Copy(w, stream); err != nil {
		h.log.Warn("download stream interrupted",
			zap.String("file_name", meta.FileName),
			zap.String("request_id", middleware.RequestID(r.Context())),
			zap.Error(err))
	}
}

func (h *Handlers) BackendHealth(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.BackendHealth(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, out)
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Stats(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, out)
}

func (h *Handlers) Activity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		util.WriteError(w, 400, "validation_error", "limit must be a number", middleware.RequestID(r.Context()))
		return
	}
	out, err := h.svc.Activity(r.Context(), limit)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	util.WriteJSON(w, 200, map[string]any{"entries": out})
}

func (h *Handlers) Meta(w http.ResponseWriter, r *http.Request) {
	util.WriteJSON(w, 200, h.svc.Meta())
}

// writeErr maps service/backend errors onto HTTP statuses. Validation
// failures are the caller's fault; everything coming back broken from
// the backend surfaces as a gateway error.
func (h *Handlers) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.RequestID(r.Context())

	switch {
	case errors.Is(err, service.ErrInvalidTypeFilter),
		errors.Is(err, backend.ErrInvalidFileName),
		errors.Is(err, backend.ErrInvalidMonth):
		util.WriteError(w, 400, "validation_error", err.Error(), reqID)
		return
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Category {
		case backend.CategoryNotFound:
			util.WriteError(w, 404, "not_found", apiErr.Message, reqID)
		case backend.CategoryBadRequest:
			util.WriteError(w, 400, "bad_request", apiErr.Message, reqID)
		default:
			util.WriteError(w, 502, "backend_error", apiErr.Message, reqID)
		}
		return
	}

	h.log.Error("request failed", zap.String("request_id", reqID), zap.Error(err))
	util.WriteError(w, 502, "backend_unavailable", "report backend request failed", reqID)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
