package rtree

import (
	"spindex/internal/geom"
)

// entry is one slot of a node: a stored point in a leaf, or a
// (region, child) pair in an internal node. The region always contains the
// child's covering region.
type entry struct {
	region geom.Region
	child  *node
	point  geom.Point
}

func pointEntry(p geom.Point) entry {
	return entry{region: geom.RegionFromPoint(p.Coords), point: p}
}

func nodeEntry(n *node) entry {
	return entry{region: n.cover(), child: n}
}

// node levels count from the leaves: leaf nodes are level 0, a node at
// level l holds children at level l-1. A node's parent exclusively owns it;
// there are no parent pointers, traversals carry ancestor context.
type node struct {
	leaf    bool
	entries []entry
}

func (n *node) cover() geom.Region {
	regions := make([]geom.Region, len(n.entries))
	for i := range n.entries {
		regions[i] = n.entries[i].region
	}
	return geom.Cover(regions...)
}

func coverEntries(entries []entry) geom.Region {
	acc := entries[0].region
	for _, e := range entries[1:] {
		acc = acc.Union(e.region)
	}
	return acc
}

func (n *node) points(out []geom.Point) []geom.Point {
	if n.leaf {
		for _, e := range n.entries {
			out = append(out, e.point)
		}
		return out
	}
	for _, e := range n.entries {
		out = e.child.points(out)
	}
	return out
}
