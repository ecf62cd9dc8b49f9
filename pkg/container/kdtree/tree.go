package kdtree

import (
	"fmt"
	"math"
	"sort"

	"spindex/internal/geom"
	"spindex/pkg/container/pqueue"
)

var ErrInvalidDimension = fmt.Errorf("dimension must be 2 or 3")

type Option func(*Tree)

// WithDistanceFn sets the default metric used by KNN and RangeSearch when
// no per-call metric is given.
func WithDistanceFn(fn geom.DistanceFn) Option {
	return func(t *Tree) {
		t.distFn = fn
	}
}

// Tree is a kd-tree over 2D or 3D payload-carrying points. Splitting axes
// cycle with depth; duplicate coordinates coexist as distinct entries and
// always descend right.
//
// The tree performs no internal locking: callers must not mutate it
// concurrently or query it while a mutation is in progress.
type Tree struct {
	root   *node
	dim    int
	size   int
	distFn geom.DistanceFn
}

func New(dim int, opts ...Option) (*Tree, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	t := &Tree{dim: dim, distFn: geom.EuclideanDistance}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tree) Len() int {
	return t.size
}

func (t *Tree) Dimensions() int {
	return t.dim
}

// Points returns all stored points in-order. Duplicates appear once per
// stored entry.
func (t *Tree) Points() []geom.Point {
	return t.root.points(make([]geom.Point, 0, t.size))
}

// Insert adds one point.
func (t *Tree) Insert(p geom.Point) {
	t.root = t.root.insert(p.Copy(), 0, t.dim)
	t.size++
}

// InsertBulk adds a batch of points and rebalances: the tree is rebuilt
// over the union of the existing and new points by median splitting, so a
// bulk load lands balanced regardless of input order.
func (t *Tree) InsertBulk(points ...geom.Point) {
	if len(points) == 0 {
		return
	}
	all := t.root.points(make([]geom.Point, 0, t.size+len(points)))
	for _, p := range points {
		all = append(all, p.Copy())
	}
	t.root = buildMedian(all, 0, t.dim)
	t.size = len(all)
}

// Balance rebuilds the tree over its current points by median splitting.
func (t *Tree) Balance() {
	t.root = buildMedian(t.Points(), 0, t.dim)
}

func buildMedian(points []geom.Point, axis, dim int) *node {
	if len(points) == 0 {
		return nil
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Dim(axis) < points[j].Dim(axis)
	})
	mid := len(points) / 2
	next := (axis + 1) % dim
	return &node{
		point: points[mid],
		left:  buildMedian(points[:mid], next, dim),
		right: buildMedian(points[mid+1:], next, dim),
	}
}

// KNN returns up to k stored points ordered by ascending distance to q
// under the tree's default metric.
func (t *Tree) KNN(q geom.Point, k int) ([]geom.Point, error) {
	return t.KNNFunc(q, k, nil)
}

// KNNFunc is KNN with a per-call metric; nil falls back to the default.
// The far side of a split is visited only while the axis gap could still
// beat the current k-th best distance, which holds for any metric that
// dominates per-axis difference.
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
	if err := t.knnAt(t.root, q, 0, distFn, best); err != nil {
		return nil, err
	}
	out := make([]geom.Point, 0, best.Len())
	for _, item := range best.Sorted() {
		out = append(out, item.Value.(geom.Point))
	}
	return out, nil
}

func (t *Tree) knnAt(n *node, q geom.Point, axis int, distFn geom.DistanceFn, best *pqueue.KBest) error {
	if n == nil {
		return nil
	}
	d, err := distFn(q.Coords, n.point.Coords)
	if err != nil {
		return err
	}
	best.Offer(n.point, d)

	next := (axis + 1) % t.dim
	near, far := n.left, n.right
	if q.Dim(axis) >= n.point.Dim(axis) {
		near, far = far, near
	}
	if err := t.knnAt(near, q, next, distFn, best); err != nil {
		return err
	}
	if math.Abs(q.Dim(axis)-n.point.Dim(axis)) <= best.Worst() {
		return t.knnAt(far, q, next, distFn, best)
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
	if err := t.rangeAt(t.root, q, radius, 0, distFn, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree) rangeAt(n *node, q geom.Point, radius float64, axis int, distFn geom.DistanceFn, out *[]geom.Point) error {
	if n == nil {
		return nil
	}
	d, err := distFn(q.Coords, n.point.Coords)
	if err != nil {
		return err
	}
	if d <= radius {
		*out = append(*out, n.point)
	}
	next := (axis + 1) % t.dim
	if q.Dim(axis)-radius <= n.point.Dim(axis) {
		if err := t.rangeAt(n.left, q, radius, next, distFn, out); err != nil {
			return err
		}
	}
	if q.Dim(axis)+radius >= n.point.Dim(axis) {
		if err := t.rangeAt(n.right, q, radius, next, distFn, out); err != nil {
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
	t.root.bboxSearch(region, 0, t.dim, &out)
	return out
}

// Delete removes every entry whose coordinates equal p's and returns the
// count. Payloads do not participate in matching. Deleting an absent point
// returns 0.
func (t *Tree) Delete(p geom.Point) int {
	removed := 0
	for {
		target := t.findNode(t.root, p, 0)
		if target == nil {
			break
		}
		t.root = t.deleteNode(t.root, target, 0)
		t.size--
		removed++
	}
	return removed
}

func (t *Tree) findNode(n *node, p geom.Point, axis int) *node {
	if n == nil {
		return nil
	}
	if n.point.Equal(p) {
		return n
	}
	next := (axis + 1) % t.dim
	if p.Dim(axis) < n.point.Dim(axis) {
		return t.findNode(n.left, p, next)
	}
	return t.findNode(n.right, p, next)
}

// deleteNode removes the exact node target from the subtree. A removed
// inner node is replaced by the minimum of its right subtree on the node's
// axis; with no right subtree, the left subtree's minimum is promoted and
// the remainder becomes the right child, which keeps the axis ordering
// intact at every depth.
func (t *Tree) deleteNode(n, target *node, axis int) *node {
	if n == nil {
		return nil
	}
	next := (axis + 1) % t.dim
	if n != target {
		if target.point.Dim(axis) < n.point.Dim(axis) {
			n.left = t.deleteNode(n.left, target, next)
		} else {
			n.right = t.deleteNode(n.right, target, next)
		}
		return n
	}

	switch {
	case n.right != nil:
		min := n.right.findMin(axis, next, t.dim)
		n.point = min.point
		n.right = t.deleteNode(n.right, min, next)
	case n.left != nil:
		min := n.left.findMin(axis, next, t.dim)
		n.point = min.point
		n.right = t.deleteNode(n.left, min, next)
		n.left = nil
	default:
		return nil
	}
	return n
}
