package shipments_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/ShipBoard/internal/services/shipments"
	"github.com/BearBump/ShipBoard/internal/storage/pgshipments"
	"github.com/go-chi/chi/v5"
)

const DefaultMaxUploadBytes = 20 << 20

// Limiter is the redis INCR rate limiter; nil disables upload limiting.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Opts struct {
	MaxUploadBytes           int64
	UploadRateLimitPerMinute int64
}

type ShipmentsAPI struct {
	svc     *shipments.Service
	limiter Limiter
	opts    Opts
}

func New(svc *shipments.Service, limiter Limiter, opts Opts) *ShipmentsAPI {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &ShipmentsAPI{svc: svc, limiter: limiter, opts: opts}
}

func (a *ShipmentsAPI) Register(r chi.Router) {
	r.Post("/upload", a.Upload)
	r.Get("/insights", a.Insights)
	r.Get("/shipments", a.ListShipments)
	r.Get("/shipment/{id}", a.ShipmentDetails)
}

func (a *ShipmentsAPI) Upload(w http.ResponseWriter, r *http.Request) {
	if a.limiter != nil && a.opts.UploadRateLimitPerMinute > 0 {
		key := "rl:upload:" + clientIP(r)
		ok, _, err := a.limiter.Allow(r.Context(), key, a.opts.UploadRateLimitPerMinute, time.Minute)
		if err != nil {
			// Limiter outage must not block uploads.
			slog.Warn("upload rate limit check failed", "err", err)
		} else if !ok {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"message": "Upload failed",
				"error":   "too many uploads, retry later",
			})
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.opts.MaxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Upload failed",
			"error":   err.Error(),
		})
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Upload failed",
			"error":   "file field is required",
		})
		return
	}
	defer func() { _ = file.Close() }()

	if !allowedUploadName(hdr.Filename) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Upload failed",
			"error":   "only .csv and .txt files are accepted",
		})
		return
	}

	sum, err := a.svc.UploadCSV(r.Context(), file, hdr.Filename)
	if err != nil {
		slog.Error("upload failed", "file", hdr.Filename, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message": "Upload failed",
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Upload and processing complete",
		"path":      hdr.Filename,
		"processed": sum.Processed,
		"skipped":   sum.Skipped,
	})
}

func (a *ShipmentsAPI) Insights(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Insights(r.Context())
	if err != nil {
		slog.Error("insights failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Internal error"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *ShipmentsAPI) ListShipments(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	q := pgshipments.ListQuery{
		Search:      r.URL.Query().Get("search"),
		Status:      r.URL.Query().Get("status"),
		Destination: r.URL.Query().Get("destination"),
		Carrier:     r.URL.Query().Get("carrier"),
		SortBy:      r.URL.Query().Get("sort_by"),
		SortOrder:   r.URL.Query().Get("sort_order"),
		Page:        page,
	}

	out, err := a.svc.ListShipments(r.Context(), q)
	if err != nil {
		slog.Error("list shipments failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Internal error"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *ShipmentsAPI) ShipmentDetails(w http.ResponseWriter, r *http.Request) {
	// A non-numeric or non-positive id can match no shipment.
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
		return
	}

	sh, err := a.svc.GetShipment(r.Context(), id)
	if err != nil {
		slog.Error("shipment details failed", "id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "Internal error"})
		return
	}
	if sh == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not found"})
		return
	}
	writeJSON(w, http.StatusOK, sh)
}

func allowedUploadName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return true
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
