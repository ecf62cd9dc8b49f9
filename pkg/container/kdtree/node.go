package kdtree

import (
	"spindex/internal/geom"
)

type node struct {
	point geom.Point
	left  *node
	right *node
}

func (n *node) points(out []geom.Point) []geom.Point {
	if n == nil {
		return out
	}
	out = n.left.points(out)
	out = append(out, n.point)
	return n.right.points(out)
}

func (n *node) insert(p geom.Point, axis, dim int) *node {
	if n == nil {
		return &node{point: p}
	}
	if p.Dim(axis) < n.point.Dim(axis) {
		n.left = n.left.insert(p, (axis+1)%dim, dim)
	} else {
		n.right = n.right.insert(p, (axis+1)%dim, dim)
	}
	return n
}

// findMin returns the node with the smallest coordinate on axis d in the
// subtree. Both children must be searched except when the splitting axis is
// d itself, where the minimum cannot sit in the right subtree.
func (n *node) findMin(d, axis, dim int) *node {
	min := n
	if n.left != nil {
		if lm := n.left.findMin(d, (axis+1)%dim, dim); lm.point.Dim(d) < min.point.Dim(d) {
			min = lm
		}
	}
	if axis != d && n.right != nil {
		if rm := n.right.findMin(d, (axis+1)%dim, dim); rm.point.Dim(d) < min.point.Dim(d) {
			min = rm
		}
	}
	return min
}

func (n *node) bboxSearch(region geom.Region, axis, dim int, out *[]geom.Point) {
	if n == nil {
		return
	}
	if region.ContainsCoords(n.point.Coords) {
		*out = append(*out, n.point)
	}
	next := (axis + 1) % dim
	if n.point.Dim(axis) >= region.Min(axis) {
		n.left.bboxSearch(region, next, dim, out)
	}
	if n.point.Dim(axis) <= region.Max(axis) {
		n.right.bboxSearch(region, next, dim, out)
	}
}
