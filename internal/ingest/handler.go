package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"spindex/internal/geom"
	"spindex/internal/httputil"
	"spindex/internal/index"
	"spindex/internal/index/model"
	"spindex/internal/logging"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	IndexID string `json:"index"`
	Data    []struct {
		Coords    []float64   `json:"coords"`
		Payload   interface{} `json:"payload"`
		CreatedAt time.Time   `json:"createdAt"`
	} `json:"data"`
}

func NewHandler(cfg *Config, collector index.Collector) (http.Handler, error) {
	s := &handler{
		collector: collector,
		cfg:       cfg,
	}
	return s, nil
}

type handler struct {
	collector index.Collector
	cfg       *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	defer func() {
		logger.Infof("Collected %d points for index %s", len(req.Data), req.IndexID)
	}()
	go func() {
		sort.Slice(req.Data, func(i, j int) bool {
			return req.Data[i].CreatedAt.Before(req.Data[j].CreatedAt)
		})
		for _, dat := range req.Data {
			createdAt := dat.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}
			if err := h.collector.Collect(
				model.New(req.IndexID, geom.NewPoint(dat.Coords, dat.Payload), createdAt),
			); err != nil {
				logger.Errorf("error sending to collect service: %v", err)
			}
		}
	}()
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status": "ok"}`)
}

type deleteRequest struct {
	IndexID string    `json:"index"`
	Coords  []float64 `json:"coords"`
}

// NewDeleteHandler removes every stored point of an index matching the
// request coordinates and reports how many were removed.
func NewDeleteHandler(cfg *Config, collector index.Collector) (http.Handler, error) {
	return &deleteHandler{
		collector: collector,
		cfg:       cfg,
	}, nil
}

type deleteHandler struct {
	collector index.Collector
	cfg       *Config
}

func (h *deleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	removed, err := h.collector.Remove(req.IndexID, req.Coords)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "remove processing error, %v"}`, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"status": "ok", "removed": %d}`, removed)
}
