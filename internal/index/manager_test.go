package index

import (
	"context"
	"testing"
	"time"

	"spindex/internal/geom"
	"spindex/internal/index/model"
	"spindex/pkg/container/avltree"
	"spindex/pkg/iqueue"
)

func testTreeProvideFn(t *testing.T) ProvideTreeFn {
	t.Helper()
	provideFn, err := ProvideTreeFor(&Config{Variant: VariantRStar, Dimensions: 2, Capacity: 8})
	if err != nil {
		t.Fatalf("creating the tree factory: %v", err)
	}
	return provideFn
}

func testManager(t *testing.T, deleted *[]model.Record) *manager {
	t.Helper()
	m := &manager{
		collectCh:     make(chan model.Record, 1),
		shutDownCh:    make(chan error, 1),
		treeProvideFn: testTreeProvideFn(t),
		trees:         map[string]Tree{},
		timeIdx:       map[string]*avltree.Tree{},
		coordSeen:     map[string]map[[32]byte]int{},
		queue:         map[string]*iqueue.Queue{},
	}
	m.opts.deps = pullDependencies{
		appendRecords: func(ctx context.Context, recs []model.Record) error { return nil },
		deleteRecord: func(ctx context.Context, rec model.Record) error {
			*deleted = append(*deleted, rec)
			return nil
		},
		deleteRecords: func(ctx context.Context, recs []model.Record) error {
			*deleted = append(*deleted, recs...)
			return nil
		},
	}
	m.dbTxExecutor = newTxExecutor(dbTxExecutorOptions{
		appendFn:    m.opts.deps.appendRecords,
		dbFlushSize: 1024,
		dbFlushTime: time.Minute,
	}, make(chan error, 1))
	return m
}

func TestManagerProcessAndSearch(t *testing.T) {
	var deleted []model.Record
	m := testManager(t, &deleted)
	ctx := context.Background()

	coords := [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {1, 2}}
	for _, c := range coords {
		rec := model.New("cities", geom.NewPoint(c, nil), time.Now())
		if err := m.process(ctx, rec); err != nil {
			t.Fatalf("processing a record: %v", err)
		}
	}

	got, err := m.KNN("cities", []float64{1, 2}, 2)
	if err != nil {
		t.Fatalf("calling the KNN method: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("KNN result length got: %v, expected: 2", len(got))
	}
	for _, rec := range got {
		if rec.Coords[0] != 1 || rec.Coords[1] != 2 {
			t.Errorf("KNN nearest coords got: %v, expected: [1 2]", rec.Coords)
		}
	}

	if _, err := m.KNN("unknown", []float64{1, 2}, 1); err == nil {
		t.Errorf("calling the KNN method with an unknown index, expected error")
	}

	inRange, err := m.RangeSearch("cities", []float64{3, 4}, 3)
	if err != nil {
		t.Fatalf("calling the RangeSearch method: %v", err)
	}
	if len(inRange) != 4 {
		t.Errorf("RangeSearch result length got: %v, expected: 4", len(inRange))
	}

	boxed, err := m.RangeSearchBBox("cities", []float64{0, 0}, []float64{4, 5})
	if err != nil {
		t.Fatalf("calling the RangeSearchBBox method: %v", err)
	}
	if len(boxed) != 3 {
		t.Errorf("RangeSearchBBox result length got: %v, expected: 3", len(boxed))
	}

	st := m.Stats()["cities"]
	if st.Size != 5 {
		t.Errorf("stats size got: %v, expected: 5", st.Size)
	}
	if st.Distinct != 4 {
		t.Errorf("stats distinct got: %v, expected: 4", st.Distinct)
	}

	removed, err := m.Remove("cities", []float64{1, 2})
	if err != nil {
		t.Fatalf("calling the Remove method: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed count got: %v, expected: 2", removed)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted from store got: %v, expected: 2", len(deleted))
	}
	if st := m.Stats()["cities"]; st.Size != 3 || st.Distinct != 3 {
		t.Errorf("stats after remove got: %+v, expected size 3, distinct 3", st)
	}
}

func TestManagerRejectsDimensionMismatch(t *testing.T) {
	var deleted []model.Record
	m := testManager(t, &deleted)
	ctx := context.Background()

	bad := model.New("cities", geom.NewPoint([]float64{1, 2, 3}, nil), time.Now())
	if err := m.process(ctx, bad); err == nil {
		t.Fatalf("processing a three-coordinate record into a 2d index, expected error")
	}

	for _, c := range [][]float64{{1, 2}, {3, 4}} {
		if err := m.process(ctx, model.New("cities", geom.NewPoint(c, nil), time.Now())); err != nil {
			t.Fatalf("processing a record: %v", err)
		}
	}
	if got := m.trees["cities"].Len(); got != 2 {
		t.Errorf("tree length got: %v, expected: 2", got)
	}

	if _, err := m.KNN("cities", []float64{1, 2, 3}, 1); err == nil {
		t.Errorf("calling the KNN method with three coordinates, expected error")
	}
	if _, err := m.RangeSearch("cities", []float64{1}, 1); err == nil {
		t.Errorf("calling the RangeSearch method with one coordinate, expected error")
	}
	if _, err := m.RangeSearchBBox("cities", []float64{0, 0}, []float64{1, 2, 3}); err == nil {
		t.Errorf("calling the RangeSearchBBox method with three extents, expected error")
	}
	if _, err := m.Remove("cities", []float64{1, 2, 3}); err == nil {
		t.Errorf("calling the Remove method with three coordinates, expected error")
	}

	got, err := m.KNN("cities", []float64{1, 2}, 1)
	if err != nil {
		t.Fatalf("calling the KNN method: %v", err)
	}
	if len(got) != 1 || got[0].Coords[0] != 1 || got[0].Coords[1] != 2 {
		t.Errorf("KNN after rejected inserts got: %v, expected the (1,2) record", got)
	}
}

func TestManagerEvictOutdated(t *testing.T) {
	var deleted []model.Record
	m := testManager(t, &deleted)
	m.opts.maxStorageTime = time.Hour
	ctx := context.Background()

	stale := model.New("fleet", geom.NewPoint([]float64{1, 1}, nil), time.Now().Add(-2*time.Hour))
	fresh := model.New("fleet", geom.NewPoint([]float64{2, 2}, nil), time.Now())
	for _, rec := range []model.Record{stale, fresh} {
		if err := m.process(ctx, rec); err != nil {
			t.Fatalf("processing a record: %v", err)
		}
	}

	if err := m.rebuildOutdated(); err != nil {
		t.Fatalf("calling the rebuildOutdated method: %v", err)
	}

	if len(deleted) != 1 || deleted[0].ID != stale.ID {
		t.Fatalf("deleted records got: %v, expected only the stale one", deleted)
	}
	if got := m.trees["fleet"].Len(); got != 1 {
		t.Errorf("tree length after eviction got: %v, expected: 1", got)
	}
	if got := m.timeIdx["fleet"].Len(); got != 1 {
		t.Errorf("time index length after eviction got: %v, expected: 1", got)
	}
}

func TestManagerEvictOversize(t *testing.T) {
	var deleted []model.Record
	m := testManager(t, &deleted)
	m.opts.maxItemsStored = 2
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	var oldest model.Record
	for i := 0; i < 4; i++ {
		rec := model.New("fleet", geom.NewPoint([]float64{float64(i), float64(i)}, nil), base.Add(time.Duration(i)*time.Second))
		if i == 0 {
			oldest = rec
		}
		if err := m.process(ctx, rec); err != nil {
			t.Fatalf("processing a record: %v", err)
		}
	}

	if err := m.rebuildSize(); err != nil {
		t.Fatalf("calling the rebuildSize method: %v", err)
	}

	if len(deleted) != 2 {
		t.Fatalf("deleted records got: %v, expected: 2", len(deleted))
	}
	if deleted[0].ID != oldest.ID {
		t.Errorf("oldest record was not evicted first, got: %v", deleted[0].Coords)
	}
	if got := m.trees["fleet"].Len(); got != 2 {
		t.Errorf("tree length after eviction got: %v, expected: 2", got)
	}
}
