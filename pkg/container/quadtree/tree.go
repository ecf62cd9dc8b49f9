package quadtree

import (
	"fmt"

	"spindex/internal/geom"
	"spindex/pkg/container/pqueue"
)

var (
	ErrInvalidCapacity  = fmt.Errorf("capacity must be positive")
	ErrInvalidDimension = fmt.Errorf("bounds must be two-dimensional")
)

type Option func(*Tree)

// WithDistanceFn sets the default metric used by KNN and RangeSearch when
// no per-call metric is given.
func WithDistanceFn(fn geom.DistanceFn) Option {
	return func(t *Tree) {
		t.distFn = fn
	}
}

// Tree is a fixed-subdivision quadtree over a configured 2D bounding area.
// A quadrant holding more than capacity points splits into four equal
// children; deletions merge quadrants back when the survivors fit in one
// node. Points outside the configured bounds are ignored by Insert.
//
// The tree performs no internal locking: callers must not mutate it
// concurrently or query it while a mutation is in progress.
type Tree struct {
	root     *node
	bounds   geom.Region
	capacity int
	size     int
	distFn   geom.DistanceFn
}

func New(bounds geom.Region, capacity int, opts ...Option) (*Tree, error) {
	if bounds.Dimensions() != 2 {
		return nil, fmt.Errorf("%w: got %d dimensions", ErrInvalidDimension, bounds.Dimensions())
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	t := &Tree{
		root:     &node{bounds: bounds},
		bounds:   bounds,
		capacity: capacity,
		distFn:   geom.EuclideanDistance,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tree) Len() int {
	return t.size
}

func (t *Tree) Dimensions() int {
	return 2
}

// Bounds returns the configured bounding area.
func (t *Tree) Bounds() geom.Region {
	return t.bounds
}

// Points returns all stored points. Duplicates appear once per stored
// entry.
func (t *Tree) Points() []geom.Point {
	return t.root.allPoints(make([]geom.Point, 0, t.size))
}

// Insert adds one point. Points outside the configured bounds are dropped
// and do not count toward Len.
func (t *Tree) Insert(p geom.Point) {
	if t.root.insert(p.Copy(), t.capacity, 0) {
		t.size++
	}
}

// InsertBulk inserts a batch of points, skipping any outside the bounds.
func (t *Tree) InsertBulk(points ...geom.Point) {
	for _, p := range points {
		t.Insert(p)
	}
}

// Delete removes every entry whose coordinates equal p's and returns the
// count. Payloads do not participate in matching.
func (t *Tree) Delete(p geom.Point) int {
	removed := t.root.delete(p, t.capacity)
	t.size -= removed
	return removed
}

// KNN returns up to k stored points ordered by ascending distance to q
// under the tree's default metric.
func (t *Tree) KNN(q geom.Point, k int) ([]geom.Point, error) {
	return t.KNNFunc(q, k, nil)
}

// KNNFunc is KNN with a per-call metric; nil falls back to the default.
// Quadrants are pruned by the distance from q to their bounding area.
func (t *Tree) KNNFunc(q geom.Point, k int, distFn geom.DistanceFn) ([]geom.Point, error) {
	if distFn == nil {
		distFn = t.distFn
	}
	if k <= 0 || t.size == 0 {
		return []geom.Point{}, nil
	}
	if k > t.size {
		k = t.size
	}
	best := pqueue.NewKBest(k)
	if err := t.knnAt(t.root, q, distFn, best); err != nil {
		return nil, err
	}
	out := make([]geom.Point, 0, best.Len())
	for _, item := range best.Sorted() {
		out = append(out, item.Value.(geom.Point))
	}
	return out, nil
}

func (t *Tree) knnAt(n *node, q geom.Point, distFn geom.DistanceFn, best *pqueue.KBest) error {
	for _, p := range n.points {
		d, err := distFn(q.Coords, p.Coords)
		if err != nil {
			return err
		}
		best.Offer(p, d)
	}
	for _, c := range n.children {
		if c.bounds.MinDistance(q.Coords) > best.Worst() {
			continue
		}
		if err := t.knnAt(c, q, distFn, best); err != nil {
			return err
		}
	}
	return nil
}

// RangeSearch returns every point within radius of q under the tree's
// default metric.
func (t *Tree) RangeSearch(q geom.Point, radius float64) ([]geom.Point, error) {
	return t.RangeSearchFunc(q, radius, nil)
}

// RangeSearchFunc is RangeSearch with a per-call metric; nil falls back to
// the default.
func (t *Tree) RangeSearchFunc(q geom.Point, radius float64, distFn geom.DistanceFn) ([]geom.Point, error) {
	if distFn == nil {
		distFn = t.distFn
	}
	if radius < 0 || t.size == 0 {
		return []geom.Point{}, nil
	}
	out := []geom.Point{}
	if err := t.rangeAt(t.root, q, radius, distFn, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree) rangeAt(n *node, q geom.Point, radius float64, distFn geom.DistanceFn, out *[]geom.Point) error {
	if n.bounds.MinDistance(q.Coords) > radius {
		return nil
	}
	for _, p := range n.points {
		d, err := distFn(q.Coords, p.Coords)
		if err != nil {
			return err
		}
		if d <= radius {
			*out = append(*out, p)
		}
	}
	for _, c := range n.children {
		if err := t.rangeAt(c, q, radius, distFn, out); err != nil {
			return err
		}
	}
	return nil
}

// RangeSearchBBox returns every point contained in the query region.
func (t *Tree) RangeSearchBBox(region geom.Region) []geom.Point {
	out := []geom.Point{}
	if t.size == 0 {
		return out
	}
	t.bboxAt(t.root, region, &out)
	return out
}

func (t *Tree) bboxAt(n *node, region geom.Region, out *[]geom.Point) {
	if !n.bounds.Intersects(region) {
		return
	}
	for _, p := range n.points {
		if region.ContainsCoords(p.Coords) {
			*out = append(*out, p)
		}
	}
	for _, c := range n.children {
		t.bboxAt(c, region, out)
	}
}
