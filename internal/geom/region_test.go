package geom

import (
	"math"
	"testing"
)

func TestRegionContainsCoords(t *testing.T) {
	tests := []struct {
		name     string
		region   Region
		coords   []float64
		expected bool
	}{
		{name: "inside", region: NewRegion([]float64{0, 0}, []float64{10, 10}), coords: []float64{5, 5}, expected: true},
		{name: "boundary", region: NewRegion([]float64{0, 0}, []float64{10, 10}), coords: []float64{10, 10}, expected: true},
		{name: "outside", region: NewRegion([]float64{0, 0}, []float64{10, 10}), coords: []float64{11, 5}, expected: false},
		{name: "degenerate_hit", region: RegionFromPoint([]float64{3, 4}), coords: []float64{3, 4}, expected: true},
		{name: "degenerate_miss", region: RegionFromPoint([]float64{3, 4}), coords: []float64{3, 4.1}, expected: false},
		{name: "inside_3d", region: NewRegion([]float64{0, 0, 0}, []float64{2, 2, 2}), coords: []float64{1, 1, 1}, expected: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.region.ContainsCoords(test.coords); got != test.expected {
				t.Errorf("got %v, expected %v", got, test.expected)
			}
		})
	}
}

func TestRegionIntersects(t *testing.T) {
	tests := []struct {
		name     string
		a        Region
		b        Region
		expected bool
	}{
		{name: "overlapping", a: NewRegion([]float64{0, 0}, []float64{4, 4}), b: NewRegion([]float64{2, 2}, []float64{4, 4}), expected: true},
		{name: "touching", a: NewRegion([]float64{0, 0}, []float64{4, 4}), b: NewRegion([]float64{4, 4}, []float64{2, 2}), expected: true},
		{name: "disjoint", a: NewRegion([]float64{0, 0}, []float64{4, 4}), b: NewRegion([]float64{5, 5}, []float64{2, 2}), expected: false},
		{name: "contained", a: NewRegion([]float64{0, 0}, []float64{10, 10}), b: NewRegion([]float64{2, 2}, []float64{1, 1}), expected: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.a.Intersects(test.b); got != test.expected {
				t.Errorf("got %v, expected %v", got, test.expected)
			}
			if got := test.b.Intersects(test.a); got != test.expected {
				t.Errorf("not symmetric: got %v, expected %v", got, test.expected)
			}
		})
	}
}

func TestRegionUnionAndEnlargement(t *testing.T) {
	a := NewRegion([]float64{0, 0}, []float64{2, 2})
	b := NewRegion([]float64{4, 4}, []float64{2, 2})

	u := a.Union(b)
	if u.Min(0) != 0 || u.Min(1) != 0 || u.Max(0) != 6 || u.Max(1) != 6 {
		t.Errorf("unexpected union bounds: %+v", u)
	}
	if got := u.Area(); got != 36 {
		t.Errorf("union area got %f, expected 36", got)
	}
	if got := a.Enlargement(b); got != 32 {
		t.Errorf("enlargement got %f, expected 32", got)
	}
	if got := a.Enlargement(NewRegion([]float64{1, 1}, []float64{1, 1})); got != 0 {
		t.Errorf("enlargement of contained region got %f, expected 0", got)
	}
}

func TestRegionOverlap(t *testing.T) {
	tests := []struct {
		name     string
		a        Region
		b        Region
		expected float64
	}{
		{name: "quarter", a: NewRegion([]float64{0, 0}, []float64{4, 4}), b: NewRegion([]float64{2, 2}, []float64{4, 4}), expected: 4},
		{name: "disjoint", a: NewRegion([]float64{0, 0}, []float64{4, 4}), b: NewRegion([]float64{5, 5}, []float64{2, 2}), expected: 0},
		{name: "touching_edge", a: NewRegion([]float64{0, 0}, []float64{4, 4}), b: NewRegion([]float64{4, 0}, []float64{4, 4}), expected: 0},
		{name: "volume", a: NewRegion([]float64{0, 0, 0}, []float64{2, 2, 2}), b: NewRegion([]float64{1, 1, 1}, []float64{2, 2, 2}), expected: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.a.Overlap(test.b); got != test.expected {
				t.Errorf("got %f, expected %f", got, test.expected)
			}
		})
	}
}

func TestRegionMinDistance(t *testing.T) {
	region := NewRegion([]float64{0, 0}, []float64{4, 4})
	tests := []struct {
		name     string
		coords   []float64
		expected float64
	}{
		{name: "inside", coords: []float64{2, 2}, expected: 0},
		{name: "boundary", coords: []float64{4, 2}, expected: 0},
		{name: "right_of", coords: []float64{7, 2}, expected: 3},
		{name: "corner", coords: []float64{7, 8}, expected: 5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := region.MinDistance(test.coords); math.Abs(got-test.expected) > 1e-12 {
				t.Errorf("got %f, expected %f", got, test.expected)
			}
		})
	}
}

func TestCoverPoints(t *testing.T) {
	region := CoverPoints(
		NewPoint([]float64{1, 2}, nil),
		NewPoint([]float64{3, 4}, nil),
		NewPoint([]float64{-1, 0}, nil),
	)
	if region.Min(0) != -1 || region.Min(1) != 0 || region.Max(0) != 3 || region.Max(1) != 4 {
		t.Errorf("unexpected cover bounds: %+v", region)
	}
}

func TestRegionMargin(t *testing.T) {
	if got := NewRegion([]float64{0, 0}, []float64{3, 4}).Margin(); got != 7 {
		t.Errorf("got %f, expected 7", got)
	}
	if got := NewRegion([]float64{0, 0, 0}, []float64{1, 2, 3}).Margin(); got != 6 {
		t.Errorf("got %f, expected 6", got)
	}
}

func TestPointEqual(t *testing.T) {
	tests := []struct {
		name     string
		p        Point
		p1       Point
		expected bool
	}{
		{name: "equal", p: NewPoint([]float64{1, 2}, "a"), p1: NewPoint([]float64{1, 2}, "b"), expected: true},
		{name: "not_equal", p: NewPoint([]float64{1, 2}, nil), p1: NewPoint([]float64{1, 3}, nil), expected: false},
		{name: "dim_mismatch", p: NewPoint([]float64{1, 2}, nil), p1: NewPoint([]float64{1, 2, 3}, nil), expected: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.p.Equal(test.p1); got != test.expected {
				t.Errorf("got %v, expected %v", got, test.expected)
			}
		})
	}
}
