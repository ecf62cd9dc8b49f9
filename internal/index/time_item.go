package index

import (
	"time"

	"spindex/internal/index/model"
	"spindex/pkg/container/avltree"
)

// timeItem orders records by creation time inside the per-index AVL time
// index the eviction scheduler walks.
type timeItem struct {
	K time.Time
	V model.Record
}

func (i timeItem) Key() interface{} {
	return i.K
}

func (i timeItem) Value() interface{} {
	return i.V
}

func (i timeItem) Subtraction(item avltree.Item) int {
	if i.K.Equal(item.(timeItem).K) {
		return 0
	}

	if i.K.Before(item.(timeItem).K) {
		return -1
	}
	return 1
}
