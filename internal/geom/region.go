package geom

import "math"

// Region is an axis-aligned rectangle (2D) or cuboid (3D) defined by an
// origin and non-negative extents per axis. All extents zero degenerates
// to a single point.
type Region struct {
	Origin  []float64 `json:"origin"`
	Extents []float64 `json:"extents"`
}

func NewRegion(origin, extents []float64) Region {
	return Region{Origin: origin, Extents: extents}
}

// RegionFromPoint returns the degenerate region covering exactly coords.
func RegionFromPoint(coords []float64) Region {
	origin := make([]float64, len(coords))
	extents := make([]float64, len(coords))
	copy(origin, coords)
	return Region{Origin: origin, Extents: extents}
}

// RegionFromPointRadius returns the bounding box of the ball with the given
// center and radius.
func RegionFromPointRadius(coords []float64, radius float64) Region {
	origin := make([]float64, len(coords))
	extents := make([]float64, len(coords))
	for i := range coords {
		origin[i] = coords[i] - radius
		extents[i] = 2 * radius
	}
	return Region{Origin: origin, Extents: extents}
}

func (r Region) Dimensions() int {
	return len(r.Origin)
}

func (r Region) Min(axis int) float64 {
	return r.Origin[axis]
}

func (r Region) Max(axis int) float64 {
	return r.Origin[axis] + r.Extents[axis]
}

func (r Region) Center(axis int) float64 {
	return r.Origin[axis] + r.Extents[axis]/2
}

func (r Region) ContainsCoords(coords []float64) bool {
	for i := range r.Origin {
		if coords[i] < r.Min(i) || coords[i] > r.Max(i) {
			return false
		}
	}
	return true
}

func (r Region) ContainsPoint(p Point) bool {
	return r.ContainsCoords(p.Coords)
}

func (r Region) ContainsRegion(other Region) bool {
	for i := range r.Origin {
		if other.Min(i) < r.Min(i) || other.Max(i) > r.Max(i) {
			return false
		}
	}
	return true
}

func (r Region) Intersects(other Region) bool {
	for i := range r.Origin {
		if other.Min(i) > r.Max(i) || other.Max(i) < r.Min(i) {
			return false
		}
	}
	return true
}

// Area returns the area (2D) or volume (3D) of the region.
func (r Region) Area() float64 {
	area := 1.0
	for i := range r.Extents {
		area *= r.Extents[i]
	}
	return area
}

// Margin returns the sum of the extents, the linear measure used to pick
// a split axis: half the perimeter in 2D, a quarter of the total edge
// length in 3D.
func (r Region) Margin() float64 {
	var m float64
	for i := range r.Extents {
		m += r.Extents[i]
	}
	return m
}

// Overlap returns the shared area (2D) or volume (3D) of two regions.
func (r Region) Overlap(other Region) float64 {
	overlap := 1.0
	for i := range r.Origin {
		low := math.Max(r.Min(i), other.Min(i))
		high := math.Min(r.Max(i), other.Max(i))
		if high <= low {
			return 0
		}
		overlap *= high - low
	}
	return overlap
}

// Union returns the smallest region containing both r and other.
func (r Region) Union(other Region) Region {
	origin := make([]float64, len(r.Origin))
	extents := make([]float64, len(r.Origin))
	for i := range r.Origin {
		low := math.Min(r.Min(i), other.Min(i))
		high := math.Max(r.Max(i), other.Max(i))
		origin[i] = low
		extents[i] = high - low
	}
	return Region{Origin: origin, Extents: extents}
}

// Enlargement returns the additional area required to grow r to include
// other.
func (r Region) Enlargement(other Region) float64 {
	return r.Union(other).Area() - r.Area()
}

// MinDistance returns the distance from coords to the nearest point of the
// region, zero when coords lie inside it.
func (r Region) MinDistance(coords []float64) float64 {
	var sum float64
	for i := range r.Origin {
		var d float64
		switch {
		case coords[i] < r.Min(i):
			d = r.Min(i) - coords[i]
		case coords[i] > r.Max(i):
			d = coords[i] - r.Max(i)
		}
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Cover returns the minimum bounding region of the given regions.
func Cover(regions ...Region) Region {
	acc := regions[0]
	for _, r := range regions[1:] {
		acc = acc.Union(r)
	}
	return acc
}

// CoverPoints returns the minimum bounding region of the given points.
func CoverPoints(points ...Point) Region {
	acc := RegionFromPoint(points[0].Coords)
	for _, p := range points[1:] {
		acc = acc.Union(RegionFromPoint(p.Coords))
	}
	return acc
}
