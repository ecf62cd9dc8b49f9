package index

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"spindex/internal/database"
	"spindex/internal/geom"
	indexDb "spindex/internal/index/database"
	"spindex/internal/index/model"
	"spindex/internal/logging"
	"spindex/internal/util"
	"spindex/pkg/container/avltree"
	"spindex/pkg/iqueue"
	"spindex/pkg/rworker"
)

// Contract for returning the Manager instance
type ProvideFn func(chan<- error) (Manager, error)

// The interface defines the behavior of the background indexing service.
type Manager interface {
	CollectSearcher
	// Start method of the service
	Run(context.Context) error
	// Method for stopping the service
	Stop()
}

// Collector defines the behavior of the service for accepting new points
type Collector interface {
	// The method accepts records from outside and writes them to the queue
	Collect(in ...model.Record) error
	// Remove deletes every record of the named index matching the coordinates
	// and reports how many were removed
	Remove(indexID string, coords []float64) (int, error)
}

// The interface defines the behavior of the service only for queries
type Searcher interface {
	KNN(indexID string, coords []float64, k int) ([]model.Record, error)
	RangeSearch(indexID string, coords []float64, radius float64) ([]model.Record, error)
	RangeSearchBBox(indexID string, origin, extents []float64) ([]model.Record, error)
	Stats() map[string]IndexStats
}

// Aggregation interface for Collector and Searcher interfaces
type CollectSearcher interface {
	Collector
	Searcher
}

// IndexStats is the per-index view returned by Stats.
type IndexStats struct {
	Size     int `json:"size"`
	Distinct int `json:"distinct"`
}

// Abstractions for getting dependencies
type (
	// function for getting records of one index
	fetchRecordsByIndexFn func(string, indexDb.FilterFn) ([]model.Record, error)
	// function for deleting a record
	deleteRecordFn func(context.Context, model.Record) error
	// function for deleting multiple records
	deleteRecordsFn func(context.Context, []model.Record) error
	// function to add sets of records
	appendRecordsFn func(context.Context, []model.Record) error
	// function for getting all index IDs
	fetchKeysFn func() ([]string, error)
	// number of records by index id
	countByIndexFn func(string) (int, error)
)

// General structure for aggregation of dependency pulling functions
type pullDependencies struct {
	fetchRecordsByIndex fetchRecordsByIndexFn
	deleteRecord        deleteRecordFn
	deleteRecords       deleteRecordsFn
	appendRecords       appendRecordsFn
	fetchKeys           fetchKeysFn
	countByIndex        countByIndexFn
}

type Options struct {
	maxItemsStored int
	maxStorageTime time.Duration
	dbFlushTime    time.Duration
	dbFlushSize    int
	rebuildDBTime  time.Duration
	deps           pullDependencies
}

type Option func(*manager)

func WithDBFlushTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.dbFlushTime = t
	}
}

func WithDBFlushSize(n int) Option {
	return func(o *manager) {
		o.opts.dbFlushSize = n
	}
}

func WithRebuildDBTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.rebuildDBTime = t
	}
}

func WithMaxItemsStored(n int) Option {
	return func(o *manager) {
		o.opts.maxItemsStored = n
	}
}

func WithMaxStorageTime(t time.Duration) Option {
	return func(o *manager) {
		o.opts.maxStorageTime = t
	}
}

// New return manager
func New(
	db *database.DB,
	provideTreeFn ProvideTreeFn,
	shutdownCh chan<- error,
	opts ...Option,
) (*manager, error) {
	if provideTreeFn == nil {
		return nil, fmt.Errorf("tree factory is not created")
	}

	m := &manager{
		indexDB:       indexDb.New(db),
		collectCh:     make(chan model.Record, 1),
		shutDownCh:    shutdownCh,
		treeProvideFn: provideTreeFn,
		trees:         map[string]Tree{},
		timeIdx:       map[string]*avltree.Tree{},
		coordSeen:     map[string]map[[32]byte]int{},
		queue:         map[string]*iqueue.Queue{},
	}

	for _, f := range opts {
		f(m)
	}

	// structure containing functions for getting and adding records
	m.opts.deps = pullDependencies{
		fetchRecordsByIndex: m.indexDB.FindByIndex,
		deleteRecord:        m.indexDB.Delete,
		deleteRecords:       m.indexDB.DeleteMany,
		appendRecords:       m.indexDB.AppendMany,
		fetchKeys:           m.indexDB.Keys,
		countByIndex:        m.indexDB.CountByIndex,
	}

	// Creates a new instance of dbTxExecutor
	m.dbTxExecutor = newTxExecutor(
		dbTxExecutorOptions{
			appendFn:    m.opts.deps.appendRecords,
			dbFlushSize: m.opts.dbFlushSize,
			dbFlushTime: m.opts.dbFlushTime,
		},
		shutdownCh,
	)

	return m, nil
}

// The main structure of the indexing service. Owns one in-memory tree per
// named index plus the AVL time index the eviction scheduler walks.
type manager struct {
	mtx sync.RWMutex

	// Manager options
	opts Options
	// Main record storage
	indexDB *indexDb.DB
	// The transaction manager in the store
	dbTxExecutor *dbTxExecutor

	// Queue for new data to be processed
	queue map[string]*iqueue.Queue
	// New data channel for processing
	collectCh chan model.Record
	// Channel to shutdown the application
	shutDownCh chan<- error

	closed bool
	// The factory returns an empty tree of the configured variant
	treeProvideFn ProvideTreeFn
	// Created trees, one per index id
	trees map[string]Tree
	// Records ordered by creation time, one AVL tree per index id
	timeIdx map[string]*avltree.Tree
	// Occurrences per coordinate hash, for the distinct count in Stats
	coordSeen map[string]map[[32]byte]int

	// cancellation
	cancel func()
}

// The Run method starts collection, persistence and eviction
func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go m.collector(ctx)
	go m.dbTxExecutor.flusher(ctx)
	go m.schedule(ctx)

	// Loading data from storage to memory
	if err := m.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start index manager: %w", err)
	}

	return nil
}

// Stop the manager
func (m *manager) Stop() {
	m.cancel()
}

// Collect adds records to the feed for saving to the queue
func (m *manager) Collect(in ...model.Record) error {
	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return fmt.Errorf("error send to collect, shutting down")
	}
	for i := range in {
		m.collectCh <- in[i]
	}
	m.mtx.RUnlock()
	return nil
}

// Remove deletes all records of the index matching the coordinates, both
// from the in-memory tree and from the store.
func (m *manager) Remove(indexID string, coords []float64) (int, error) {
	q := geom.NewPoint(coords, nil)

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.closed {
		return 0, fmt.Errorf("error to remove, shutting down")
	}

	tree, ok := m.trees[indexID]
	if !ok {
		return 0, fmt.Errorf("unknown index: %s", indexID)
	}
	if err := checkDims(tree, coords); err != nil {
		return 0, err
	}

	// The matches still hold their records, collect them before the tree
	// forgets about them.
	matches, err := tree.RangeSearch(q, 0)
	if err != nil {
		return 0, fmt.Errorf("unable search index %s: %w", indexID, err)
	}

	removed := tree.Delete(q)
	if removed == 0 {
		return 0, nil
	}

	recs := recordsOf(matches)
	if len(recs) == 1 {
		err = m.opts.deps.deleteRecord(context.Background(), recs[0])
	} else {
		err = m.opts.deps.deleteRecords(context.Background(), recs)
	}
	if err != nil {
		return removed, fmt.Errorf("unable delete records of index %s: %w", indexID, err)
	}

	m.rebuildTimeIndex(indexID)
	delete(m.coordSeen[indexID], util.HashVector(coords))

	stats.RecordWithTags(context.Background(),
		[]tag.Mutator{tag.Upsert(KeyIndex, indexID)},
		mEvicted.M(int64(removed)), mTreeSize.M(int64(tree.Len())),
	)

	return removed, nil
}

// KNN returns the records of the k nearest stored points
func (m *manager) KNN(indexID string, coords []float64, k int) ([]model.Record, error) {
	return m.search(indexID, func(tree Tree) ([]geom.Point, error) {
		if err := checkDims(tree, coords); err != nil {
			return nil, err
		}
		return tree.KNN(geom.NewPoint(coords, nil), k)
	})
}

// RangeSearch returns the records within radius of the query point
func (m *manager) RangeSearch(indexID string, coords []float64, radius float64) ([]model.Record, error) {
	return m.search(indexID, func(tree Tree) ([]geom.Point, error) {
		if err := checkDims(tree, coords); err != nil {
			return nil, err
		}
		return tree.RangeSearch(geom.NewPoint(coords, nil), radius)
	})
}

// RangeSearchBBox returns the records inside the axis-aligned box
func (m *manager) RangeSearchBBox(indexID string, origin, extents []float64) ([]model.Record, error) {
	return m.search(indexID, func(tree Tree) ([]geom.Point, error) {
		if err := checkDims(tree, origin); err != nil {
			return nil, err
		}
		if err := checkDims(tree, extents); err != nil {
			return nil, err
		}
		return tree.RangeSearchBBox(geom.NewRegion(origin, extents)), nil
	})
}

// checkDims rejects coordinates whose length differs from the tree's
// dimensionality before they can reach the tree's region math.
func checkDims(tree Tree, coords []float64) error {
	if len(coords) != tree.Dimensions() {
		return fmt.Errorf("dimensions mismatch: got %d, want %d", len(coords), tree.Dimensions())
	}
	return nil
}

// Stats reports the size and distinct coordinate count of every index
func (m *manager) Stats() map[string]IndexStats {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	out := make(map[string]IndexStats, len(m.trees))
	for id, tree := range m.trees {
		out[id] = IndexStats{Size: tree.Len(), Distinct: len(m.coordSeen[id])}
	}
	return out
}

func (m *manager) search(indexID string, fn func(Tree) ([]geom.Point, error)) ([]model.Record, error) {
	began := time.Now()

	m.mtx.RLock()
	if m.closed {
		m.mtx.RUnlock()
		return nil, fmt.Errorf("error to search, shutting down")
	}
	tree, ok := m.trees[indexID]
	if !ok {
		m.mtx.RUnlock()
		return nil, fmt.Errorf("unknown index: %s", indexID)
	}
	points, err := fn(tree)
	m.mtx.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("unable search index %s: %w", indexID, err)
	}

	stats.RecordWithTags(context.Background(),
		[]tag.Mutator{tag.Upsert(KeyIndex, indexID)},
		mQueries.M(1), mQueryLatency.M(float64(time.Since(began))/float64(time.Millisecond)),
	)

	return recordsOf(points), nil
}

// recordsOf unwraps the record each stored point carries as its payload.
func recordsOf(points []geom.Point) []model.Record {
	recs := make([]model.Record, 0, len(points))
	for i := range points {
		if rec, ok := points[i].Data.(model.Record); ok {
			recs = append(recs, rec)
		}
	}
	return recs
}

// ensureIndex returns the tree of the index, creating it from the factory
// on first use. Callers must hold the write lock.
func (m *manager) ensureIndex(indexID string) (Tree, error) {
	tree, ok := m.trees[indexID]
	if !ok {
		newTree, err := m.treeProvideFn()
		if err != nil {
			return nil, fmt.Errorf("can not create tree instance: %w", err)
		}
		tree = newTree
		m.trees[indexID] = newTree
		m.timeIdx[indexID] = avltree.New()
		m.coordSeen[indexID] = map[[32]byte]int{}
	}
	return tree, nil
}

// bulkLoad loading data from storage to memory, one worker per stored
// index.
func (m *manager) bulkLoad(ctx context.Context) error {
	keys, err := m.opts.deps.fetchKeys()
	if err != nil {
		return fmt.Errorf("unable to fetch index keys: %w", err)
	}

	var wg sync.WaitGroup
	rate := make(chan struct{}, runtime.NumCPU())
	errCh := make(chan error, 1)
	for i := range keys {
		indexID := keys[i]
		rworker.Job(&wg, func() error {
			return m.loadIndex(indexID)
		}, rate, errCh)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return fmt.Errorf("unable bulk load: %w", err)
	default:
	}

	return nil
}

func (m *manager) loadIndex(indexID string) error {
	length, err := m.opts.deps.countByIndex(indexID)
	if err != nil {
		return fmt.Errorf("unable count by index %s: %w", indexID, err)
	}
	if length == 0 {
		return nil
	}

	recs, err := m.opts.deps.fetchRecordsByIndex(indexID, nil)
	if err != nil {
		return fmt.Errorf("unable find records by index %s: %w", indexID, err)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	tree, err := m.ensureIndex(indexID)
	if err != nil {
		return err
	}

	points := make([]geom.Point, 0, length)
	for i := range recs {
		points = append(points, recs[i].Point())
		m.timeIdx[indexID].Add(timeItem{K: recs[i].CreatedAt, V: recs[i]})
		m.coordSeen[indexID][util.HashVector(recs[i].Coords)]++
	}
	tree.InsertBulk(points...)

	return nil
}

func (m *manager) process(ctx context.Context, rec model.Record) error {
	m.mtx.Lock()
	tree, err := m.ensureIndex(rec.IndexID)
	if err != nil {
		m.mtx.Unlock()
		return err
	}
	if err := checkDims(tree, rec.Coords); err != nil {
		m.mtx.Unlock()
		return fmt.Errorf("record %s rejected: %w", rec.ID, err)
	}
	tree.Insert(rec.Point())
	m.timeIdx[rec.IndexID].Add(timeItem{K: rec.CreatedAt, V: rec})
	m.coordSeen[rec.IndexID][util.HashVector(rec.Coords)]++
	size := tree.Len()
	m.mtx.Unlock()

	m.dbTxExecutor.write(ctx, rec)

	stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyIndex, rec.IndexID)},
		mCollected.M(1), mTreeSize.M(int64(size)),
	)

	return nil
}

// rebuildTimeIndex rebuilds the AVL time index of one index from the
// records its tree still holds. Callers must hold the write lock.
func (m *manager) rebuildTimeIndex(indexID string) {
	rebuilt := avltree.New()
	for _, rec := range recordsOf(m.trees[indexID].Points()) {
		rebuilt.Add(timeItem{K: rec.CreatedAt, V: rec})
	}
	m.timeIdx[indexID] = rebuilt
}

func (m *manager) shutdown(ctx context.Context, q *iqueue.Queue) error {
	for {
		front := q.Queue().Front()
		if front == nil {
			if !m.recvShutdown() {
				return fmt.Errorf("index shutdown: closed num receivers not equal created")
			}
			break
		}

		if err := m.process(ctx, front.Value.(model.Record)); err != nil {
			return fmt.Errorf("index shutdown: unable processed data: %w", err)
		}

		q.Queue().Remove(front)
	}
	return nil
}

func (m *manager) recvShutdown() bool {
	finishedNum, queuesNum := 0, len(m.queue)
	for _, q := range m.queue {
		if q.Queue().Len() == 0 {
			finishedNum += 1
		}
	}

	return finishedNum == queuesNum
}

func (m *manager) receive(ctx context.Context, q *iqueue.Queue) {
	logger := logging.FromContext(ctx)
	defer func() {
		m.shutDownCh <- m.shutdown(ctx, q)
	}()

	for {
		select {
		case recv := <-q.Receive():
			if err := m.process(ctx, recv.(model.Record)); err != nil {
				logger.Errorf("unable processed data: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *manager) collector(ctx context.Context) {
	defer close(m.collectCh)
	for {
		select {
		case in := <-m.collectCh:
			q, ok := m.queue[in.IndexID]
			if !ok {
				queue := iqueue.New()
				go queue.Loop()
				// One receiver per index keeps inserts in arrival order.
				go m.receive(ctx, queue)
				m.queue[in.IndexID] = queue
				q = queue
			}
			q.Send(in)
		case <-ctx.Done():
			m.mtx.Lock()
			m.closed = true
			m.mtx.Unlock()
			return
		}
	}
}
