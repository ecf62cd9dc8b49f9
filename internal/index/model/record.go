package model

import (
	"time"

	"github.com/google/uuid"

	"spindex/internal/geom"
)

// Record is a stored point with its index membership and bookkeeping
// fields. It is the durable form of a point: what the collect pipeline
// buffers, the bbolt store persists and the eviction scheduler ages out.
type Record struct {
	ID        uuid.UUID   `json:"id"`
	IndexID   string      `json:"indexId"`
	Coords    []float64   `json:"coords"`
	Payload   interface{} `json:"payload,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func New(indexID string, p geom.Point, createdAt time.Time) Record {
	return Record{
		ID:        uuid.New(),
		IndexID:   indexID,
		Coords:    p.Coords,
		Payload:   p.Data,
		CreatedAt: createdAt,
	}
}

// Point returns the record as a tree point. The record itself rides along
// as the payload so query results can be mapped back.
func (r Record) Point() geom.Point {
	return geom.NewPoint(r.Coords, r)
}
