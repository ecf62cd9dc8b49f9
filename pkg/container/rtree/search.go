package rtree

import (
	"spindex/internal/geom"
	"spindex/pkg/container/pqueue"
)

// KNN returns up to k stored points ordered by ascending distance to q
// under the tree's default metric. k=0 returns an empty result; k greater
// than the stored count returns every point, ordered.
func (t *Tree) KNN(q geom.Point, k int) ([]geom.Point, error) {
	return t.KNNFunc(q, k, nil)
}

// KNNFunc is KNN with a per-call metric; nil falls back to the default.
// Results are exact: the branch-and-bound queue visits only subtrees whose
// region lower bound could still beat the current k-th best distance.
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

	queue := pqueue.New()
	best := pqueue.NewKBest(k)
	queue.Push(t.root, t.root.cover().MinDistance(q.Coords))

	for queue.Len() > 0 {
		v, prior := queue.Pop()
		if prior > best.Worst() {
			break
		}
		n := v.(*node)
		if n.leaf {
			for _, e := range n.entries {
				d, err := distFn(q.Coords, e.point.Coords)
				if err != nil {
					return nil, err
				}
				best.Offer(e.point, d)
			}
			continue
		}
		for _, e := range n.entries {
			md := e.region.MinDistance(q.Coords)
			if md <= best.Worst() {
				queue.Push(e.child, md)
			}
		}
	}

	out := make([]geom.Point, 0, best.Len())
	for _, item := range best.Sorted() {
		out = append(out, item.Value.(geom.Point))
	}
	return out, nil
}

// RangeSearch returns every point within radius of q under the tree's
// default metric. radius=0 matches only exact coordinates.
func (t *Tree) RangeSearch(q geom.Point, radius float64) ([]geom.Point, error) {
	return t.RangeSearchFunc(q, radius, nil)
}

// RangeSearchFunc is RangeSearch with a per-call metric; nil falls back to
// the default. Subtrees are pruned when their covering region does not
// intersect the query ball.
func (t *Tree) RangeSearchFunc(q geom.Point, radius float64, distFn geom.DistanceFn) ([]geom.Point, error) {
	if distFn == nil {
		distFn = t.distFn
	}
	if radius < 0 || t.size == 0 {
		return []geom.Point{}, nil
	}
	out := []geom.Point{}
	err := t.rangeAt(t.root, q, radius, distFn, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree) rangeAt(n *node, q geom.Point, radius float64, distFn geom.DistanceFn, out *[]geom.Point) error {
	if n.leaf {
		for _, e := range n.entries {
			d, err := distFn(q.Coords, e.point.Coords)
			if err != nil {
				return err
			}
			if d <= radius {
				*out = append(*out, e.point)
			}
		}
		return nil
	}
	for _, e := range n.entries {
		if e.region.MinDistance(q.Coords) > radius {
			continue
		}
		if err := t.rangeAt(e.child, q, radius, distFn, out); err != nil {
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
	if n.leaf {
		for _, e := range n.entries {
			if region.ContainsCoords(e.point.Coords) {
				*out = append(*out, e.point)
			}
		}
		return
	}
	for _, e := range n.entries {
		if e.region.Intersects(region) {
			t.bboxAt(e.child, region, out)
		}
	}
}
