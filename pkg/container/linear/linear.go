// Package linear implements the shared index surface as a brute-force
// scan over a flat slice. It has no spatial acceleration at all, which
// makes it the reference oracle in randomized tests and a debugging
// fallback for small collections.
package linear

import (
	"fmt"

	"spindex/internal/geom"
	"spindex/pkg/container/pqueue"
)

var ErrInvalidDimension = fmt.Errorf("dimension must be 2 or 3")

type Option func(*Index)

// WithDistanceFn sets the default metric used by KNN and RangeSearch when
// no per-call metric is given.
func WithDistanceFn(fn geom.DistanceFn) Option {
	return func(idx *Index) {
		idx.distFn = fn
	}
}

// Index is the linear-scan variant. Mutations and queries are O(n).
//
// The index performs no internal locking: callers must not mutate it
// concurrently or query it while a mutation is in progress.
type Index struct {
	points []geom.Point
	dim    int
	distFn geom.DistanceFn
}

func New(dim int, opts ...Option) (*Index, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	idx := &Index{dim: dim, distFn: geom.EuclideanDistance}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

func (idx *Index) Len() int {
	return len(idx.points)
}

func (idx *Index) Dimensions() int {
	return idx.dim
}

// Points returns all stored points in insertion order.
func (idx *Index) Points() []geom.Point {
	out := make([]geom.Point, len(idx.points))
	copy(out, idx.points)
	return out
}

func (idx *Index) Insert(p geom.Point) {
	idx.points = append(idx.points, p.Copy())
}

func (idx *Index) InsertBulk(points ...geom.Point) {
	for _, p := range points {
		idx.Insert(p)
	}
}

// Delete removes every entry whose coordinates equal p's and returns the
// count. Payloads do not participate in matching.
func (idx *Index) Delete(p geom.Point) int {
	removed := 0
	kept := idx.points[:0]
	for _, sp := range idx.points {
		if sp.Equal(p) {
			removed++
			continue
		}
		kept = append(kept, sp)
	}
	idx.points = kept
	return removed
}

// KNN returns up to k stored points ordered by ascending distance to q
// under the default metric.
func (idx *Index) KNN(q geom.Point, k int) ([]geom.Point, error) {
	return idx.KNNFunc(q, k, nil)
}

// KNNFunc is KNN with a per-call metric; nil falls back to the default.
func (idx *Index) KNNFunc(q geom.Point, k int, distFn geom.DistanceFn) ([]geom.Point, error) {
	if distFn == nil {
		distFn = idx.distFn
	}
	if k <= 0 || len(idx.points) == 0 {
		return []geom.Point{}, nil
	}
	if k > len(idx.points) {
		k = len(idx.points)
	}
	best := pqueue.NewKBest(k)
	for _, p := range idx.points {
		d, err := distFn(q.Coords, p.Coords)
		if err != nil {
			return nil, err
		}
		best.Offer(p, d)
	}
	out := make([]geom.Point, 0, best.Len())
	for _, item := range best.Sorted() {
		out = append(out, item.Value.(geom.Point))
	}
	return out, nil
}

// RangeSearch returns every point within radius of q under the default
// metric.
func (idx *Index) RangeSearch(q geom.Point, radius float64) ([]geom.Point, error) {
	return idx.RangeSearchFunc(q, radius, nil)
}

// RangeSearchFunc is RangeSearch with a per-call metric; nil falls back to
// the default.
func (idx *Index) RangeSearchFunc(q geom.Point, radius float64, distFn geom.DistanceFn) ([]geom.Point, error) {
	if distFn == nil {
		distFn = idx.distFn
	}
	out := []geom.Point{}
	if radius < 0 {
		return out, nil
	}
	for _, p := range idx.points {
		d, err := distFn(q.Coords, p.Coords)
		if err != nil {
			return nil, err
		}
		if d <= radius {
			out = append(out, p)
		}
	}
	return out, nil
}

// RangeSearchBBox returns every point contained in the query region.
func (idx *Index) RangeSearchBBox(region geom.Region) []geom.Point {
	out := []geom.Point{}
	for _, p := range idx.points {
		if region.ContainsCoords(p.Coords) {
			out = append(out, p)
		}
	}
	return out
}
