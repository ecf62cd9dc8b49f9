package rtree

import (
	"math"
	"sort"

	"spindex/internal/geom"
)

const (
	hilbertOrder = 16
	hilbertMax   = (1 << hilbertOrder) - 1
	mortonOrder  = 10
	mortonMax    = (1 << mortonOrder) - 1
)

// InsertBulk inserts a batch of points. The batch is ordered along a
// space-filling curve over its bounding region before falling back to the
// incremental insertion path, which keeps sequential inserts spatially
// local and the resulting node regions compact. The guarantee is
// behavioral: the tree answers queries as if the points had been inserted
// one at a time.
func (t *Tree) InsertBulk(points ...geom.Point) {
	if len(points) == 0 {
		return
	}
	if len(points) == 1 {
		t.Insert(points[0])
		return
	}

	batch := make([]geom.Point, len(points))
	copy(batch, points)
	extent := geom.CoverPoints(batch...)

	keys := make([]uint64, len(batch))
	order := make([]int, len(batch))
	for i := range batch {
		keys[i] = t.curveKey(batch[i].Coords, extent)
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return keys[order[i]] < keys[order[j]]
	})
	sorted := make([]geom.Point, len(batch))
	for i, idx := range order {
		sorted[i] = batch[idx]
	}
	batch = sorted

	for _, p := range batch {
		t.Insert(p)
	}
}

// curveKey maps coordinates to a position on a Hilbert curve (2D) or a
// Morton curve (3D) over the batch extent.
func (t *Tree) curveKey(coords []float64, extent geom.Region) uint64 {
	if t.dim == 2 {
		hx := gridCoord(coords[0], extent, 0, hilbertMax)
		hy := gridCoord(coords[1], extent, 1, hilbertMax)
		return uint64(hilbertFromXY(hx, hy))
	}
	mx := gridCoord(coords[0], extent, 0, mortonMax)
	my := gridCoord(coords[1], extent, 1, mortonMax)
	mz := gridCoord(coords[2], extent, 2, mortonMax)
	return mortonFromXYZ(mx, my, mz)
}

func gridCoord(v float64, extent geom.Region, axis int, max uint32) uint32 {
	width := extent.Extents[axis]
	if width == 0 {
		return 0
	}
	r := (v - extent.Min(axis)) / width
	return uint32(math.Floor(float64(max) * r))
}

// hilbertFromXY converts a 2D grid coordinate to its Hilbert curve index.
// Based on the public-domain rawrunprotected/hilbert_curves bit-twiddling.
func hilbertFromXY(x, y uint32) uint32 {
	a := x ^ y
	b := 0xFFFF ^ a
	c := 0xFFFF ^ (x | y)
	d := x & (y ^ 0xFFFF)

	A := a | (b >> 1)
	B := (a >> 1) ^ a
	C := ((c >> 1) ^ (b & (d >> 1))) ^ c
	D := ((a & (c >> 1)) ^ (d >> 1)) ^ d

	a, b, c, d = A, B, C, D
	A = (a & (a >> 2)) ^ (b & (b >> 2))
	B = (a & (b >> 2)) ^ (b & ((a ^ b) >> 2))
	C ^= (a & (c >> 2)) ^ (b & (d >> 2))
	D ^= (b & (c >> 2)) ^ ((a ^ b) & (d >> 2))

	a, b, c, d = A, B, C, D
	A = (a & (a >> 4)) ^ (b & (b >> 4))
	B = (a & (b >> 4)) ^ (b & ((a ^ b) >> 4))
	C ^= (a & (c >> 4)) ^ (b & (d >> 4))
	D ^= (b & (c >> 4)) ^ ((a ^ b) & (d >> 4))

	a, b, c, d = A, B, C, D
	C ^= (a & (c >> 8)) ^ (b & (d >> 8))
	D ^= (b & (c >> 8)) ^ ((a ^ b) & (d >> 8))

	a = C ^ (C >> 1)
	b = D ^ (D >> 1)

	i0 := x ^ y
	i1 := b | (0xFFFF ^ (i0 | a))

	i0 = (i0 | (i0 << 8)) & 0x00FF00FF
	i0 = (i0 | (i0 << 4)) & 0x0F0F0F0F
	i0 = (i0 | (i0 << 2)) & 0x33333333
	i0 = (i0 | (i0 << 1)) & 0x55555555

	i1 = (i1 | (i1 << 8)) & 0x00FF00FF
	i1 = (i1 | (i1 << 4)) & 0x0F0F0F0F
	i1 = (i1 | (i1 << 2)) & 0x33333333
	i1 = (i1 | (i1 << 1)) & 0x55555555

	return (i1 << 1) | i0
}

// mortonFromXYZ interleaves three 10-bit grid coordinates.
func mortonFromXYZ(x, y, z uint32) uint64 {
	return spread3(x) | spread3(y)<<1 | spread3(z)<<2
}

func spread3(v uint32) uint64 {
	x := uint64(v) & mortonMax
	x = (x | x<<16) & 0x030000FF
	x = (x | x<<8) & 0x0300F00F
	x = (x | x<<4) & 0x030C30C3
	x = (x | x<<2) & 0x09249249
	return x
}
