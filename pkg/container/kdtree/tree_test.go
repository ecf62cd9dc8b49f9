package kdtree

import (
	"math"
	"sort"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/valyala/fastrand"

	"spindex/internal/geom"
)

func TestNewTree(t *testing.T) {
	t.Parallel()
	for _, dim := range []int{0, 1, 4} {
		if _, err := New(dim); err == nil {
			t.Errorf("New(%d) succeeded, want error", dim)
		}
	}
	for _, dim := range []int{2, 3} {
		if _, err := New(dim); err != nil {
			t.Errorf("New(%d): %v", dim, err)
		}
	}
}

func TestInsertKNN(t *testing.T) {
	t.Parallel()
	tr, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, c := range [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {2, 3}} {
		tr.Insert(geom.NewPoint(c, nil))
	}
	if got := tr.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}

	q := geom.NewPoint([]float64{2, 3}, nil)
	got, err := tr.KNN(q, 3)
	if err != nil {
		t.Fatalf("KNN: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("KNN returned %d points, want 3: %s", len(got), spew.Sdump(got))
	}
	if !got[0].Equal(q) {
		t.Errorf("KNN[0] = %v, want [2 3]", got[0].Coords)
	}
	wantDists := []float64{0, math.Sqrt2, math.Sqrt2}
	for i := range got {
		d, _ := geom.EuclideanDistance(q.Coords, got[i].Coords)
		if math.Abs(d-wantDists[i]) > 1e-9 {
			t.Errorf("KNN[%d] distance = %v, want %v (point %v)", i, d, wantDists[i], got[i].Coords)
		}
	}
}

func TestKNNEdgeCases(t *testing.T) {
	t.Parallel()
	tr, _ := New(2)
	q := geom.NewPoint([]float64{0, 0}, nil)

	if got, _ := tr.KNN(q, 3); len(got) != 0 {
		t.Errorf("KNN on empty tree = %d points, want 0", len(got))
	}
	tr.Insert(geom.NewPoint([]float64{1, 1}, nil))
	if got, _ := tr.KNN(q, 0); len(got) != 0 {
		t.Errorf("KNN k=0 = %d points, want 0", len(got))
	}
	if got, _ := tr.KNN(q, 5); len(got) != 1 {
		t.Errorf("KNN k>size = %d points, want 1", len(got))
	}
}

func TestRangeSearch(t *testing.T) {
	t.Parallel()
	tr, _ := New(2)
	for _, c := range [][]float64{{0, 0}, {1, 0}, {0, 1}, {3, 3}, {5, 5}} {
		tr.Insert(geom.NewPoint(c, nil))
	}
	table := []struct {
		name   string
		q      []float64
		radius float64
		want   int
	}{
		{name: "unit-ball", q: []float64{0, 0}, radius: 1, want: 3},
		{name: "all", q: []float64{0, 0}, radius: 100, want: 5},
		{name: "negative", q: []float64{0, 0}, radius: -1, want: 0},
		{name: "zero-exact", q: []float64{3, 3}, radius: 0, want: 1},
	}
	for i := range table {
		tc := table[i]
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tr.RangeSearch(geom.NewPoint(tc.q, nil), tc.radius)
			if err != nil {
				t.Fatalf("RangeSearch: %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("RangeSearch(%v, %v) = %d points, want %d", tc.q, tc.radius, len(got), tc.want)
			}
		})
	}
}

func TestRangeSearchBBox(t *testing.T) {
	t.Parallel()
	tr, _ := New(2)
	for _, c := range [][]float64{{0, 0}, {1, 1}, {2, 2}, {5, 5}} {
		tr.Insert(geom.NewPoint(c, nil))
	}
	got := tr.RangeSearchBBox(geom.NewRegion([]float64{1, 1}, []float64{1, 1}))
	if len(got) != 2 {
		t.Errorf("RangeSearchBBox = %d points, want 2: %s", len(got), spew.Sdump(got))
	}
}

func TestDeleteRemovesAllMatches(t *testing.T) {
	t.Parallel()
	tr, _ := New(2)
	tr.Insert(geom.NewPoint([]float64{4, 4}, "a"))
	tr.Insert(geom.NewPoint([]float64{4, 4}, "b"))
	for _, c := range [][]float64{{0, 0}, {1, 2}, {8, 8}} {
		tr.Insert(geom.NewPoint(c, nil))
	}

	if got := tr.Delete(geom.NewPoint([]float64{9, 9}, nil)); got != 0 {
		t.Errorf("Delete absent = %d, want 0", got)
	}
	if got := tr.Delete(geom.NewPoint([]float64{4, 4}, nil)); got != 2 {
		t.Errorf("Delete duplicates = %d, want 2", got)
	}
	if got := tr.Len(); got != 3 {
		t.Errorf("Len after delete = %d, want 3", got)
	}
	got, err := tr.RangeSearch(geom.NewPoint([]float64{4, 4}, nil), 0)
	if err != nil {
		t.Fatalf("RangeSearch: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("deleted coordinates still found: %s", spew.Sdump(got))
	}
}

// TestDeleteKeepsOrdering deletes inner nodes from a randomized tree and
// checks that every survivor stays reachable by exact lookup.
func TestDeleteKeepsOrdering(t *testing.T) {
	t.Parallel()
	prng := fastrand.RNG{}
	tr, _ := New(2)
	seen := map[[2]float64]bool{}
	cloud := make([]geom.Point, 0, 300)
	for len(cloud) < 300 {
		p := randomPoint(&prng, 2, 50)
		key := [2]float64{p.Coords[0], p.Coords[1]}
		if seen[key] {
			continue
		}
		seen[key] = true
		cloud = append(cloud, p)
		tr.Insert(p)
	}
	for i, p := range cloud {
		tr.Delete(p)
		for _, rest := range cloud[i+1:] {
			got, err := tr.RangeSearch(rest, 0)
			if err != nil {
				t.Fatalf("RangeSearch: %v", err)
			}
			if len(got) == 0 {
				t.Fatalf("point %v unreachable after deleting %v", rest.Coords, p.Coords)
			}
		}
		if tr.Len() != 300-(i+1) {
			t.Fatalf("Len = %d after %d deletes", tr.Len(), i+1)
		}
	}
	if tr.Len() != 0 {
		t.Fatalf("Len = %d after deleting all, want 0", tr.Len())
	}
}

func TestBulkBuildMatchesLinearScan(t *testing.T) {
	t.Parallel()
	for _, dim := range []int{2, 3} {
		dim := dim
		prng := fastrand.RNG{}
		cloud := make([]geom.Point, 400)
		for i := range cloud {
			cloud[i] = randomPoint(&prng, dim, 100)
		}
		tr, _ := New(dim)
		tr.InsertBulk(cloud...)
		if tr.Len() != len(cloud) {
			t.Fatalf("Len = %d, want %d", tr.Len(), len(cloud))
		}

		for trial := 0; trial < 20; trial++ {
			q := randomPoint(&prng, dim, 100)
			k := 1 + int(prng.Uint32n(10))
			got, err := tr.KNN(q, k)
			if err != nil {
				t.Fatalf("KNN: %v", err)
			}
			want := bruteKNN(cloud, q, k)
			for i := range got {
				a, _ := geom.EuclideanDistance(q.Coords, got[i].Coords)
				b, _ := geom.EuclideanDistance(q.Coords, want[i].Coords)
				if math.Abs(a-b) > 1e-9 {
					t.Fatalf("KNN(%v, %d)[%d] distance %v, linear scan %v\n%s",
						q.Coords, k, i, a, b, spew.Sdump(got))
				}
			}
		}
	}
}

func TestKNNFuncMetricOverride(t *testing.T) {
	t.Parallel()
	tr, _ := New(2)
	tr.Insert(geom.NewPoint([]float64{3, 0}, nil))
	tr.Insert(geom.NewPoint([]float64{2.5, 2.5}, nil))
	q := geom.NewPoint([]float64{0, 0}, nil)

	got, err := tr.KNNFunc(q, 1, geom.ChebyshevDistance)
	if err != nil {
		t.Fatalf("KNNFunc: %v", err)
	}
	if !got[0].Equal(geom.NewPoint([]float64{2.5, 2.5}, nil)) {
		t.Errorf("chebyshev KNN = %v, want [2.5 2.5]", got[0].Coords)
	}
}

func randomPoint(prng *fastrand.RNG, dim int, span uint32) geom.Point {
	coords := make([]float64, dim)
	for d := range coords {
		coords[d] = float64(prng.Uint32n(span*10)) / 10
	}
	return geom.NewPoint(coords, nil)
}

func bruteKNN(cloud []geom.Point, q geom.Point, k int) []geom.Point {
	sorted := make([]geom.Point, len(cloud))
	copy(sorted, cloud)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := geom.EuclideanDistance(q.Coords, sorted[i].Coords)
		b, _ := geom.EuclideanDistance(q.Coords, sorted[j].Coords)
		return a < b
	})
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}
