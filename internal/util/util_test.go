package util

import (
	"testing"
)

func TestHashVector(t *testing.T) {
	a := HashVector([]float64{1.5, 2.5})
	b := HashVector([]float64{1.5, 2.5})
	c := HashVector([]float64{2.5, 1.5})
	if a != b {
		t.Errorf("equal vectors hash differently")
	}
	if a == c {
		t.Errorf("reordered vector hashes the same")
	}
}

func TestBytesBufferPool(t *testing.T) {
	buf := GetBytesBuffer()
	buf.WriteString("scratch")
	buf.Reset()
	PutBytesBuffer(buf)

	got := GetBytesBuffer()
	defer PutBytesBuffer(got)
	if got.Len() != 0 {
		t.Errorf("pooled buffer length got: %v, expected: 0", got.Len())
	}
}
