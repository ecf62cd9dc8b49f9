package rtree

import (
	"fmt"
	"math"
	"sort"

	"spindex/internal/geom"
)

var (
	ErrInvalidCapacity  = fmt.Errorf("capacity must be at least 2")
	ErrInvalidDimension = fmt.Errorf("dimension must be 2 or 3")
)

const (
	// fraction of capacity a node must keep after a split or deletion
	minFillFactor = 0.4
	// fraction of capacity removed by a forced reinsertion
	reinsertFactor = 0.3
	// choose-subtree overlap enlargement is evaluated over at most this
	// many least-enlargement candidates
	chooseSubtreeCandidates = 32
)

type Option func(*Tree)

// WithDistanceFn sets the default metric used by KNN and RangeSearch when
// no per-call metric is given.
func WithDistanceFn(fn geom.DistanceFn) Option {
	return func(t *Tree) {
		t.distFn = fn
	}
}

// Tree is a dynamic R-tree over 2D or 3D payload-carrying points. The
// R*-tree variant (NewRStar) shares the structure and query engine and
// refines subtree choice, split and overflow handling.
//
// The tree performs no internal locking: callers must not mutate it
// concurrently or query it while a mutation is in progress.
type Tree struct {
	root     *node
	dim      int
	capacity int
	minFill  int
	star     bool
	height   int
	size     int
	distFn   geom.DistanceFn
}

// New creates an R-tree with the given dimensionality and per-node
// capacity.
func New(dim, capacity int, opts ...Option) (*Tree, error) {
	return newTree(dim, capacity, false, opts...)
}

// NewRStar creates an R*-tree: overlap-aware subtree choice at the leaf
// level, forced reinsertion before splitting, margin/overlap-minimizing
// split.
func NewRStar(dim, capacity int, opts ...Option) (*Tree, error) {
	return newTree(dim, capacity, true, opts...)
}

func newTree(dim, capacity int, star bool, opts ...Option) (*Tree, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	if capacity < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	t := &Tree{
		root:     &node{leaf: true},
		dim:      dim,
		capacity: capacity,
		minFill:  int(math.Ceil(float64(capacity) * minFillFactor)),
		star:     star,
		height:   1,
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
	return t.dim
}

func (t *Tree) Capacity() int {
	return t.capacity
}

// Points returns all stored points. Duplicates appear once per stored
// entry.
func (t *Tree) Points() []geom.Point {
	return t.root.points(make([]geom.Point, 0, t.size))
}

// insertState tracks a single public mutation: entries queued for
// reinsertion and the levels that already force-reinserted during this
// call, so reinsertion runs at most once per level.
type insertState struct {
	reinserted map[int]bool
	pending    []pendingEntry
}

type pendingEntry struct {
	e     entry
	level int
}

// Insert adds one point. Duplicate coordinates coexist as distinct
// entries.
func (t *Tree) Insert(p geom.Point) {
	st := &insertState{reinserted: map[int]bool{}}
	t.insertEntry(pointEntry(p.Copy()), 0, st)
	t.drain(st)
	t.size++
}

func (t *Tree) drain(st *insertState) {
	for len(st.pending) > 0 {
		pe := st.pending[len(st.pending)-1]
		st.pending = st.pending[:len(st.pending)-1]
		t.insertEntry(pe.e, pe.level, st)
	}
}

// insertEntry places e into a node at the target level (0 = leaf). If the
// tree shrank below the target, the entry's subtree is unpacked one level
// and requeued.
func (t *Tree) insertEntry(e entry, target int, st *insertState) {
	if target > t.height-1 {
		for _, ce := range e.child.entries {
			st.pending = append(st.pending, pendingEntry{e: ce, level: target - 1})
		}
		return
	}
	if split := t.insertAt(t.root, t.height-1, target, e, st); split != nil {
		old := t.root
		t.root = &node{entries: []entry{nodeEntry(old), *split}}
		t.height++
	}
}

func (t *Tree) insertAt(n *node, level, target int, e entry, st *insertState) *entry {
	if level == target {
		n.entries = append(n.entries, e)
	} else {
		i := t.chooseSubtree(n, level, e)
		child := n.entries[i].child
		if split := t.insertAt(child, level-1, target, e, st); split != nil {
			n.entries[i].region = child.cover()
			n.entries = append(n.entries, *split)
		} else {
			n.entries[i].region = child.cover()
		}
	}
	if len(n.entries) > t.capacity {
		return t.overflow(n, level, st)
	}
	return nil
}

// overflow resolves a node holding capacity+1 entries. The R*-tree first
// tries forced reinsertion (non-root levels, once per level per call);
// otherwise the node splits in place and the new sibling's entry is
// returned for the parent to absorb.
func (t *Tree) overflow(n *node, level int, st *insertState) *entry {
	if t.star && level < t.height-1 && !st.reinserted[level] {
		st.reinserted[level] = true
		for _, re := range t.pickReinsert(n) {
			st.pending = append(st.pending, pendingEntry{e: re, level: level})
		}
		return nil
	}
	var g1, g2 []entry
	if t.star {
		g1, g2 = t.splitRStar(n.entries)
	} else {
		g1, g2 = t.splitQuadratic(n.entries)
	}
	n.entries = g1
	sibling := &node{leaf: n.leaf, entries: g2}
	se := nodeEntry(sibling)
	return &se
}

// pickReinsert removes the reinsert fraction of entries whose centers are
// farthest from the node's center, farthest first.
func (t *Tree) pickReinsert(n *node) []entry {
	count := int(math.Ceil(float64(t.capacity) * reinsertFactor))
	cover := n.cover()
	center := make([]float64, t.dim)
	for d := 0; d < t.dim; d++ {
		center[d] = cover.Center(d)
	}
	centerDist := func(e entry) float64 {
		var sum float64
		for d := 0; d < t.dim; d++ {
			diff := e.region.Center(d) - center[d]
			sum += diff * diff
		}
		return sum
	}
	sort.SliceStable(n.entries, func(i, j int) bool {
		return centerDist(n.entries[i]) > centerDist(n.entries[j])
	})
	removed := make([]entry, count)
	copy(removed, n.entries[:count])
	n.entries = append(n.entries[:0], n.entries[count:]...)
	return removed
}

func (t *Tree) chooseSubtree(n *node, level int, e entry) int {
	if t.star && level == 1 {
		return chooseSubtreeOverlap(n, e)
	}
	return chooseSubtreeEnlargement(n, e)
}

// chooseSubtreeEnlargement picks the child needing the least area
// enlargement; ties break to the smaller area, then to iteration order.
func chooseSubtreeEnlargement(n *node, e entry) int {
	best := 0
	bestEnl := math.Inf(1)
	bestArea := math.Inf(1)
	for i, ce := range n.entries {
		enl := ce.region.Enlargement(e.region)
		area := ce.region.Area()
		if enl < bestEnl || (enl == bestEnl && area < bestArea) {
			best = i
			bestEnl = enl
			bestArea = area
		}
	}
	return best
}

// chooseSubtreeOverlap picks, among a bounded set of least-enlargement
// candidates, the child whose absorption of e grows the overlap with its
// siblings the least.
func chooseSubtreeOverlap(n *node, e entry) int {
	candidates := make([]int, len(n.entries))
	for i := range candidates {
		candidates[i] = i
	}
	enl := make([]float64, len(n.entries))
	for i, ce := range n.entries {
		enl[i] = ce.region.Enlargement(e.region)
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return enl[candidates[a]] < enl[candidates[b]]
	})
	if len(candidates) > chooseSubtreeCandidates {
		candidates = candidates[:chooseSubtreeCandidates]
	}

	best := candidates[0]
	bestOverlap := math.Inf(1)
	bestEnl := math.Inf(1)
	bestArea := math.Inf(1)
	for _, i := range candidates {
		grown := n.entries[i].region.Union(e.region)
		var overlapEnl float64
		for j, se := range n.entries {
			if j == i {
				continue
			}
			overlapEnl += grown.Overlap(se.region) - n.entries[i].region.Overlap(se.region)
		}
		area := n.entries[i].region.Area()
		if overlapEnl < bestOverlap ||
			(overlapEnl == bestOverlap && enl[i] < bestEnl) ||
			(overlapEnl == bestOverlap && enl[i] == bestEnl && area < bestArea) {
			best = i
			bestOverlap = overlapEnl
			bestEnl = enl[i]
			bestArea = area
		}
	}
	return best
}

// Delete removes every entry whose coordinates equal p's and returns the
// count. Payloads do not participate in matching. Leaves and internal
// nodes falling below the minimum fill are dissolved and their entries
// reinserted at their original level. Deleting an absent point returns 0.
func (t *Tree) Delete(p geom.Point) int {
	var orphans []pendingEntry
	removed := t.deleteAt(t.root, t.height-1, p, &orphans)
	if removed == 0 {
		return 0
	}
	t.size -= removed

	if !t.root.leaf && len(t.root.entries) == 0 {
		t.root = &node{leaf: true}
		t.height = 1
	}
	for !t.root.leaf && len(t.root.entries) == 1 {
		t.root = t.root.entries[0].child
		t.height--
	}

	st := &insertState{reinserted: map[int]bool{}}
	for _, o := range orphans {
		t.insertEntry(o.e, o.level, st)
		t.drain(st)
	}
	return removed
}

func (t *Tree) deleteAt(n *node, level int, p geom.Point, orphans *[]pendingEntry) int {
	if n.leaf {
		removed := 0
		kept := n.entries[:0]
		for _, e := range n.entries {
			if e.point.Equal(p) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		n.entries = kept
		return removed
	}

	removed := 0
	for i := 0; i < len(n.entries); i++ {
		e := n.entries[i]
		// several subtrees may qualify because sibling regions overlap
		if !e.region.ContainsCoords(p.Coords) {
			continue
		}
		r := t.deleteAt(e.child, level-1, p, orphans)
		if r == 0 {
			continue
		}
		removed += r
		if len(e.child.entries) < t.minFill {
			for _, ce := range e.child.entries {
				*orphans = append(*orphans, pendingEntry{e: ce, level: level - 1})
			}
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			i--
		} else {
			n.entries[i].region = e.child.cover()
		}
	}
	return removed
}
