package rtree

import (
	"math"
	"sort"
)

// splitQuadratic splits capacity+1 entries with Guttman's quadratic
// algorithm: seed the two groups with the pair wasting the most area, then
// hand out the rest one at a time to the group needing less enlargement,
// forcing assignments once a group must take everything left to reach the
// minimum fill.
func (t *Tree) splitQuadratic(entries []entry) ([]entry, []entry) {
	s1, s2 := quadraticSeeds(entries)
	g1 := []entry{entries[s1]}
	g2 := []entry{entries[s2]}
	r1 := entries[s1].region
	r2 := entries[s2].region

	rest := make([]entry, 0, len(entries)-2)
	for i, e := range entries {
		if i == s1 || i == s2 {
			continue
		}
		rest = append(rest, e)
	}

	for i, e := range rest {
		remaining := len(rest) - i
		if len(g1)+remaining <= t.minFill {
			g1 = append(g1, e)
			r1 = r1.Union(e.region)
			continue
		}
		if len(g2)+remaining <= t.minFill {
			g2 = append(g2, e)
			r2 = r2.Union(e.region)
			continue
		}

		d1 := r1.Enlargement(e.region)
		d2 := r2.Enlargement(e.region)
		first := d1 < d2 ||
			(d1 == d2 && r1.Area() < r2.Area()) ||
			(d1 == d2 && r1.Area() == r2.Area() && len(g1) <= len(g2))
		if first {
			g1 = append(g1, e)
			r1 = r1.Union(e.region)
		} else {
			g2 = append(g2, e)
			r2 = r2.Union(e.region)
		}
	}
	return g1, g2
}

// quadraticSeeds returns the pair of entries whose combined region wastes
// the most area beyond the sum of their individual areas.
func quadraticSeeds(entries []entry) (int, int) {
	s1, s2 := 0, 1
	worst := math.Inf(-1)
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			waste := entries[i].region.Union(entries[j].region).Area() -
				entries[i].region.Area() - entries[j].region.Area()
			if waste > worst {
				worst = waste
				s1, s2 = i, j
			}
		}
	}
	return s1, s2
}

// splitRStar picks the split axis by minimum total margin over the
// candidate distributions of both boundary sorts, then picks the
// distribution on that axis with the least overlap between the two groups
// (tie: smaller total area).
func (t *Tree) splitRStar(entries []entry) ([]entry, []entry) {
	sorted := make([]entry, len(entries))
	copy(sorted, entries)

	bestAxis, bestUpper := 0, false
	minMargin := math.Inf(1)
	for axis := 0; axis < t.dim; axis++ {
		for _, upper := range []bool{false, true} {
			sortByBound(sorted, axis, upper)
			margin := 0.0
			for k := t.minFill; k <= len(sorted)-t.minFill; k++ {
				margin += coverEntries(sorted[:k]).Margin() + coverEntries(sorted[k:]).Margin()
			}
			if margin < minMargin {
				minMargin = margin
				bestAxis = axis
				bestUpper = upper
			}
		}
	}

	sortByBound(sorted, bestAxis, bestUpper)
	bestK := t.minFill
	bestOverlap := math.Inf(1)
	bestArea := math.Inf(1)
	for k := t.minFill; k <= len(sorted)-t.minFill; k++ {
		c1 := coverEntries(sorted[:k])
		c2 := coverEntries(sorted[k:])
		overlap := c1.Overlap(c2)
		area := c1.Area() + c2.Area()
		if overlap < bestOverlap || (overlap == bestOverlap && area < bestArea) {
			bestOverlap = overlap
			bestArea = area
			bestK = k
		}
	}

	g1 := make([]entry, bestK)
	copy(g1, sorted[:bestK])
	g2 := make([]entry, len(sorted)-bestK)
	copy(g2, sorted[bestK:])
	return g1, g2
}

func sortByBound(entries []entry, axis int, upper bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		if upper {
			if entries[i].region.Max(axis) != entries[j].region.Max(axis) {
				return entries[i].region.Max(axis) < entries[j].region.Max(axis)
			}
			return entries[i].region.Min(axis) < entries[j].region.Min(axis)
		}
		if entries[i].region.Min(axis) != entries[j].region.Min(axis) {
			return entries[i].region.Min(axis) < entries[j].region.Min(axis)
		}
		return entries[i].region.Max(axis) < entries[j].region.Max(axis)
	})
}
