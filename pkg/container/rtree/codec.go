package rtree

import (
	"encoding/json"
	"fmt"

	"spindex/internal/geom"
)

const (
	variantRTree = "RTREE"
	variantRStar = "RSTAR"
)

// snapshot is the serialized form of a tree: configuration plus the stored
// points. The layout is an implementation detail; the contract is that a
// restored tree answers every query identically to the original. Payloads
// round-trip through JSON and must be JSON-marshalable.
type snapshot struct {
	Variant  string       `json:"variant"`
	Dim      int          `json:"dim"`
	Capacity int          `json:"capacity"`
	Points   []geom.Point `json:"points"`
}

// Snapshot serializes the tree's full state to an opaque byte sequence.
func (t *Tree) Snapshot() ([]byte, error) {
	variant := variantRTree
	if t.star {
		variant = variantRStar
	}
	s := snapshot{
		Variant:  variant,
		Dim:      t.dim,
		Capacity: t.capacity,
		Points:   t.Points(),
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode tree snapshot: %w", err)
	}
	return data, nil
}

// Restore rebuilds a tree from a Snapshot byte sequence.
func Restore(data []byte, opts ...Option) (*Tree, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode tree snapshot: %w", err)
	}

	var (
		t   *Tree
		err error
	)
	switch s.Variant {
	case variantRTree:
		t, err = New(s.Dim, s.Capacity, opts...)
	case variantRStar:
		t, err = NewRStar(s.Dim, s.Capacity, opts...)
	default:
		return nil, fmt.Errorf("unknown tree variant in snapshot: %q", s.Variant)
	}
	if err != nil {
		return nil, err
	}
	t.InsertBulk(s.Points...)
	return t, nil
}
