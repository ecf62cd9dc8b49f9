package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"spindex/internal/httputil"
	"spindex/internal/index"
	"spindex/internal/index/model"
	"spindex/internal/logging"
)

const maxBodyBytes = 64 * 1024 * 1024

const (
	opKNN   = "knn"
	opRange = "range"
	opBBox  = "bbox"
)

type query struct {
	Op      string    `json:"op"`
	Coords  []float64 `json:"coords"`
	K       int       `json:"k"`
	Radius  float64   `json:"radius"`
	Origin  []float64 `json:"origin"`
	Extents []float64 `json:"extents"`
}

type request struct {
	IndexID string  `json:"index"`
	Queries []query `json:"queries"`
}

type result struct {
	Op      string         `json:"op"`
	Matched []model.Record `json:"matched"`
}

type response struct {
	IndexID string   `json:"index"`
	Results []result `json:"results"`
}

func NewHandler(cfg *Config, searcher index.Searcher) (http.Handler, error) {
	return &handler{
		cfg:      cfg,
		searcher: searcher,
	}, nil
}

type handler struct {
	searcher index.Searcher
	cfg      *Config
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

	if len(req.Queries) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "queries is too large, max allowed len is %d"}`, h.cfg.MaxDataItemsLen)
		return
	}

	var results []result
	errGrp := errgroup.Group{}
	mtx := sync.Mutex{}
	for _, q := range req.Queries {
		q := q
		errGrp.Go(func() error {
			matched, err := h.run(req.IndexID, q)
			if err != nil {
				return fmt.Errorf("search error: %v", err)
			}
			mtx.Lock()
			results = append(results, result{Op: q.Op, Matched: matched})
			mtx.Unlock()
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "search processing error, %v"}`, err)
		return
	}

	resp := response{
		IndexID: req.IndexID,
	}
	resp.Results = results
	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

func (h *handler) run(indexID string, q query) ([]model.Record, error) {
	switch q.Op {
	case opKNN:
		return h.searcher.KNN(indexID, q.Coords, q.K)
	case opRange:
		return h.searcher.RangeSearch(indexID, q.Coords, q.Radius)
	case opBBox:
		return h.searcher.RangeSearchBBox(indexID, q.Origin, q.Extents)
	default:
		return nil, fmt.Errorf("unknown search op: %s", q.Op)
	}
}

// NewStatsHandler reports the size and distinct coordinate count of every
// index.
func NewStatsHandler(searcher index.Searcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		bytes, err := json.Marshal(searcher.Stats())
		if err != nil {
			httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "%s", bytes)
	})
}
