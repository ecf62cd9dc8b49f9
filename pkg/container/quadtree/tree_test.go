package quadtree

import (
	"math"
	"sort"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/valyala/fastrand"

	"spindex/internal/geom"
)

func testBounds() geom.Region {
	return geom.NewRegion([]float64{0, 0}, []float64{100, 100})
}

func TestNewTree(t *testing.T) {
	t.Parallel()
	if _, err := New(testBounds(), 0); err == nil {
		t.Error("New with capacity 0 succeeded, want error")
	}
	if _, err := New(geom.NewRegion([]float64{0, 0, 0}, []float64{1, 1, 1}), 4); err == nil {
		t.Error("New with 3D bounds succeeded, want error")
	}
	if _, err := New(testBounds(), 4); err != nil {
		t.Errorf("New: %v", err)
	}
}

func TestInsertSubdivides(t *testing.T) {
	t.Parallel()
	tr, _ := New(testBounds(), 2)
	for _, c := range [][]float64{{10, 10}, {20, 20}, {80, 80}, {90, 10}} {
		tr.Insert(geom.NewPoint(c, nil))
	}
	if got := tr.Len(); got != 4 {
		t.Fatalf("Len = %d, want 4", got)
	}
	if !tr.root.divided() {
		t.Fatal("root not subdivided past capacity")
	}
	if got := len(tr.Points()); got != 4 {
		t.Fatalf("Points() = %d, want 4", got)
	}
}

func TestInsertOutOfBoundsDropped(t *testing.T) {
	t.Parallel()
	tr, _ := New(testBounds(), 4)
	tr.Insert(geom.NewPoint([]float64{150, 150}, nil))
	tr.Insert(geom.NewPoint([]float64{-1, 50}, nil))
	if got := tr.Len(); got != 0 {
		t.Errorf("Len = %d after out-of-bounds inserts, want 0", got)
	}
}

func TestDuplicateOverflowTerminates(t *testing.T) {
	t.Parallel()
	tr, _ := New(testBounds(), 2)
	for i := 0; i < 10; i++ {
		tr.Insert(geom.NewPoint([]float64{50, 50}, i))
	}
	if got := tr.Len(); got != 10 {
		t.Fatalf("Len = %d, want 10", got)
	}
	got, err := tr.RangeSearch(geom.NewPoint([]float64{50, 50}, nil), 0)
	if err != nil {
		t.Fatalf("RangeSearch: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("RangeSearch found %d duplicates, want 10", len(got))
	}
}

func TestKNN(t *testing.T) {
	t.Parallel()
	tr, _ := New(testBounds(), 3)
	for _, c := range [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {2, 3}} {
		tr.Insert(geom.NewPoint(c, nil))
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
			t.Errorf("KNN[%d] distance = %v, want %v", i, d, wantDists[i])
		}
	}

	if empty, _ := tr.KNN(q, 0); len(empty) != 0 {
		t.Errorf("KNN k=0 = %d points, want 0", len(empty))
	}
	if all, _ := tr.KNN(q, 50); len(all) != 5 {
		t.Errorf("KNN k>size = %d points, want 5", len(all))
	}
}

func TestRangeSearchBBox(t *testing.T) {
	t.Parallel()
	tr, _ := New(testBounds(), 2)
	for _, c := range [][]float64{{10, 10}, {11, 11}, {12, 12}, {50, 50}, {90, 90}} {
		tr.Insert(geom.NewPoint(c, nil))
	}
	got := tr.RangeSearchBBox(geom.NewRegion([]float64{10, 10}, []float64{2, 2}))
	if len(got) != 3 {
		t.Errorf("RangeSearchBBox = %d points, want 3: %s", len(got), spew.Sdump(got))
	}
}

func TestDeleteMergesQuadrants(t *testing.T) {
	t.Parallel()
	tr, _ := New(testBounds(), 2)
	dup := geom.NewPoint([]float64{25, 25}, nil)
	tr.Insert(dup)
	tr.Insert(geom.NewPoint([]float64{25, 25}, nil))
	tr.Insert(geom.NewPoint([]float64{75, 75}, nil))
	tr.Insert(geom.NewPoint([]float64{75, 25}, nil))
	if !tr.root.divided() {
		t.Fatal("root not subdivided")
	}

	if got := tr.Delete(geom.NewPoint([]float64{60, 60}, nil)); got != 0 {
		t.Errorf("Delete absent = %d, want 0", got)
	}
	if got := tr.Delete(dup); got != 2 {
		t.Errorf("Delete duplicates = %d, want 2", got)
	}
	if got := tr.Len(); got != 2 {
		t.Errorf("Len after delete = %d, want 2", got)
	}
	if tr.root.divided() {
		t.Error("root still divided after shrinking within capacity")
	}
}

func TestRandomizedAgainstLinearScan(t *testing.T) {
	t.Parallel()
	prng := fastrand.RNG{}
	tr, _ := New(testBounds(), 4)
	cloud := make([]geom.Point, 400)
	for i := range cloud {
		cloud[i] = geom.NewPoint([]float64{
			float64(prng.Uint32n(1000)) / 10,
			float64(prng.Uint32n(1000)) / 10,
		}, nil)
		tr.Insert(cloud[i])
	}

	for trial := 0; trial < 20; trial++ {
		q := geom.NewPoint([]float64{
			float64(prng.Uint32n(1000)) / 10,
			float64(prng.Uint32n(1000)) / 10,
		}, nil)
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
				t.Fatalf("KNN(%v, %d)[%d] distance %v, linear scan %v", q.Coords, k, i, a, b)
			}
		}
	}
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
