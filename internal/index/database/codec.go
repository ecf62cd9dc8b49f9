package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	xdr "github.com/davecgh/go-xdr/xdr2"
	"github.com/google/uuid"

	"spindex/internal/index/model"
	"spindex/internal/util"
)

// recordWire is the XDR shape of a stored record. XDR handles only
// concrete types, so the opaque payload travels as JSON bytes.
type recordWire struct {
	ID        string
	IndexID   string
	Coords    []float64
	Payload   []byte
	CreatedAt int64
}

func encodeRecord(rec model.Record) ([]byte, error) {
	wire := recordWire{
		ID:        rec.ID.String(),
		IndexID:   rec.IndexID,
		Coords:    rec.Coords,
		CreatedAt: rec.CreatedAt.UnixNano(),
	}
	if rec.Payload != nil {
		payload, err := json.Marshal(rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode record payload: %w", err)
		}
		wire.Payload = payload
	}

	buf := util.GetBytesBuffer()
	defer util.PutBytesBuffer(buf)
	defer buf.Reset()

	if _, err := xdr.Marshal(buf, wire); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	// bbolt keeps the value slice until the transaction commits, the
	// pooled buffer must not leak into it
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decodeRecord(data []byte) (model.Record, error) {
	var wire recordWire
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &wire); err != nil {
		return model.Record{}, fmt.Errorf("decode record: %w", err)
	}
	id, err := uuid.Parse(wire.ID)
	if err != nil {
		return model.Record{}, fmt.Errorf("decode record id: %w", err)
	}
	rec := model.Record{
		ID:        id,
		IndexID:   wire.IndexID,
		Coords:    wire.Coords,
		CreatedAt: time.Unix(0, wire.CreatedAt).UTC(),
	}
	if len(wire.Payload) > 0 {
		if err := json.Unmarshal(wire.Payload, &rec.Payload); err != nil {
			return model.Record{}, fmt.Errorf("decode record payload: %w", err)
		}
	}
	return rec, nil
}
