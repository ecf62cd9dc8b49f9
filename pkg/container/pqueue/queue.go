package pqueue

import (
	"container/heap"
	"math"
	"sort"
)

type Item struct {
	Value interface{}
	Prior float64
}

type itemHeap struct {
	items []Item
	desc  bool
}

func (h *itemHeap) Len() int { return len(h.items) }

func (h *itemHeap) Less(i, j int) bool {
	if h.desc {
		return h.items[i].Prior > h.items[j].Prior
	}
	return h.items[i].Prior < h.items[j].Prior
}

func (h *itemHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *itemHeap) Push(x interface{}) { h.items = append(h.items, x.(Item)) }

func (h *itemHeap) Pop() interface{} {
	l := len(h.items) - 1
	x := h.items[l]
	h.items = h.items[:l]
	return x
}

func New() *Queue {
	return &Queue{h: &itemHeap{}}
}

// Queue is a priority queue ordered ascending by priority.
type Queue struct {
	h *itemHeap
}

func (q *Queue) Len() int { return q.h.Len() }

func (q *Queue) Push(val interface{}, prior float64) {
	heap.Push(q.h, Item{Value: val, Prior: prior})
}

// Pop removes and returns the item with the smallest priority.
func (q *Queue) Pop() (interface{}, float64) {
	item := heap.Pop(q.h).(Item)
	return item.Value, item.Prior
}

func (q *Queue) Peek() (interface{}, float64) {
	item := q.h.items[0]
	return item.Value, item.Prior
}

// NewKBest returns a bounded structure keeping the cap smallest-priority
// items offered to it. A non-positive cap keeps nothing.
func NewKBest(cap int) *KBest {
	return &KBest{cap: cap, h: &itemHeap{desc: true}}
}

type KBest struct {
	cap int
	h   *itemHeap
}

func (b *KBest) Len() int { return b.h.Len() }

func (b *KBest) Full() bool { return b.h.Len() >= b.cap }

// Worst returns the largest retained priority, or +Inf while the structure
// is not yet full.
func (b *KBest) Worst() float64 {
	if !b.Full() {
		return math.Inf(1)
	}
	return b.h.items[0].Prior
}

func (b *KBest) Offer(val interface{}, prior float64) {
	if b.cap <= 0 {
		return
	}
	if b.h.Len() < b.cap {
		heap.Push(b.h, Item{Value: val, Prior: prior})
		return
	}
	if prior < b.h.items[0].Prior {
		b.h.items[0] = Item{Value: val, Prior: prior}
		heap.Fix(b.h, 0)
	}
}

// Sorted returns the retained items ascending by priority.
func (b *KBest) Sorted() []Item {
	items := make([]Item, len(b.h.items))
	copy(items, b.h.items)
	sort.Slice(items, func(i, j int) bool { return items[i].Prior < items[j].Prior })
	return items
}
