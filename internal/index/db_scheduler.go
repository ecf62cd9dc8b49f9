package index

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"spindex/internal/geom"
	"spindex/internal/index/model"
	"spindex/internal/logging"
	"spindex/internal/util"
	"spindex/pkg/container/avltree"
)

// schedule runs the periodic eviction pass. Oversize and outdated records
// are removed from the store and the in-memory trees are rebuilt from the
// survivors, so duplicate coordinates never evict more than their share.
func (m *manager) schedule(ctx context.Context) {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(m.opts.rebuildDBTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if m.opts.maxItemsStored > 0 {
				if err := m.rebuildSize(); err != nil {
					logger.Errorf("unable db rebuild size: %v", err)
				}
			}
			if m.opts.maxStorageTime > 0 {
				if err := m.rebuildOutdated(); err != nil {
					logger.Errorf("unable db rebuild outdated: %v", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *manager) rebuildOutdated() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for indexID := range m.trees {
		expired := m.timeIdx[indexID].Filter(func(current avltree.Item) bool {
			return time.Since(current.(timeItem).K) > m.opts.maxStorageTime
		})
		if len(expired) == 0 {
			continue
		}
		if err := m.evict(indexID, itemRecords(expired)); err != nil {
			return fmt.Errorf("unable process index %s: %v", indexID, err)
		}
	}
	return nil
}

func (m *manager) rebuildSize() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for indexID, tree := range m.trees {
		excess := tree.Len() - m.opts.maxItemsStored
		if excess <= 0 {
			continue
		}
		// Points walks the time index ascending, the oldest records come
		// first.
		oldest := m.timeIdx[indexID].Points()[:excess]
		if err := m.evict(indexID, itemRecords(oldest)); err != nil {
			return fmt.Errorf("unable process index %s: %v", indexID, err)
		}
	}
	return nil
}

// evict drops the given records from the store and rebuilds the index from
// the remainder. Callers must hold the write lock.
func (m *manager) evict(indexID string, expired []model.Record) error {
	if err := m.opts.deps.deleteRecords(context.Background(), expired); err != nil {
		return fmt.Errorf("unable delete records: %v", err)
	}

	dropped := map[uuid.UUID]bool{}
	for i := range expired {
		dropped[expired[i].ID] = true
	}

	survivors := make([]model.Record, 0, m.timeIdx[indexID].Len()-len(expired))
	for _, item := range m.timeIdx[indexID].Points() {
		rec := item.(timeItem).V
		if !dropped[rec.ID] {
			survivors = append(survivors, rec)
		}
	}

	if err := m.rebuildIndex(indexID, survivors); err != nil {
		return err
	}

	stats.RecordWithTags(context.Background(),
		[]tag.Mutator{tag.Upsert(KeyIndex, indexID)},
		mEvicted.M(int64(len(expired))), mTreeSize.M(int64(len(survivors))),
	)

	return nil
}

// rebuildIndex replaces the tree, time index and coordinate counters of one
// index with fresh ones built from the surviving records. Callers must hold
// the write lock.
func (m *manager) rebuildIndex(indexID string, survivors []model.Record) error {
	tree, err := m.treeProvideFn()
	if err != nil {
		return fmt.Errorf("can not create tree instance: %w", err)
	}

	timeIdx := avltree.New()
	seen := map[[32]byte]int{}
	points := make([]geom.Point, 0, len(survivors))
	for i := range survivors {
		points = append(points, survivors[i].Point())
		timeIdx.Add(timeItem{K: survivors[i].CreatedAt, V: survivors[i]})
		seen[util.HashVector(survivors[i].Coords)]++
	}
	tree.InsertBulk(points...)

	m.trees[indexID] = tree
	m.timeIdx[indexID] = timeIdx
	m.coordSeen[indexID] = seen

	return nil
}

func itemRecords(items []avltree.Item) []model.Record {
	recs := make([]model.Record, 0, len(items))
	for i := range items {
		recs = append(recs, items[i].(timeItem).V)
	}
	return recs
}
