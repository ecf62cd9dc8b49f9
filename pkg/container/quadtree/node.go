package quadtree

import (
	"spindex/internal/geom"
)

// maxDepth caps subdivision so a quadrant full of identical coordinates
// degrades to an oversized leaf instead of recursing forever.
const maxDepth = 32

type node struct {
	bounds   geom.Region
	points   []geom.Point
	children []*node
}

func (n *node) divided() bool {
	return n.children != nil
}

func (n *node) insert(p geom.Point, capacity, depth int) bool {
	if !n.bounds.ContainsPoint(p) {
		return false
	}
	if !n.divided() {
		if len(n.points) < capacity || depth == maxDepth {
			n.points = append(n.points, p)
			return true
		}
		n.subdivide(capacity, depth)
	}
	for _, c := range n.children {
		if c.insert(p, capacity, depth+1) {
			return true
		}
	}
	return false
}

// subdivide splits the node into four equal quadrants and pushes the held
// points down. Points on an internal boundary land in the first quadrant
// containing them.
func (n *node) subdivide(capacity, depth int) {
	x, y := n.bounds.Min(0), n.bounds.Min(1)
	w, h := n.bounds.Extents[0]/2, n.bounds.Extents[1]/2
	n.children = []*node{
		{bounds: geom.NewRegion([]float64{x, y}, []float64{w, h})},
		{bounds: geom.NewRegion([]float64{x + w, y}, []float64{w, h})},
		{bounds: geom.NewRegion([]float64{x, y + h}, []float64{w, h})},
		{bounds: geom.NewRegion([]float64{x + w, y + h}, []float64{w, h})},
	}
	held := n.points
	n.points = nil
	for _, p := range held {
		n.insert(p, capacity, depth)
	}
}

func (n *node) allPoints(out []geom.Point) []geom.Point {
	out = append(out, n.points...)
	for _, c := range n.children {
		out = c.allPoints(out)
	}
	return out
}

// delete removes every coordinate match under n and merges quadrants back
// into leaves wherever the survivors fit in one node again.
func (n *node) delete(p geom.Point, capacity int) int {
	if !n.bounds.ContainsCoords(p.Coords) {
		return 0
	}
	if !n.divided() {
		removed := 0
		kept := n.points[:0]
		for _, sp := range n.points {
			if sp.Equal(p) {
				removed++
				continue
			}
			kept = append(kept, sp)
		}
		n.points = kept
		return removed
	}
	removed := 0
	for _, c := range n.children {
		removed += c.delete(p, capacity)
	}
	if removed > 0 {
		n.tryMerge(capacity)
	}
	return removed
}

func (n *node) tryMerge(capacity int) {
	if !n.divided() {
		return
	}
	total := 0
	for _, c := range n.children {
		if c.divided() {
			return
		}
		total += len(c.points)
	}
	if total > capacity {
		return
	}
	merged := make([]geom.Point, 0, total)
	for _, c := range n.children {
		merged = append(merged, c.points...)
	}
	n.points = merged
	n.children = nil
}
