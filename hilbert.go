package quadtree

import "math"

// InsertBulk inserts keys[i] with boxes[i], visiting the boxes in Hilbert order
// of their centers. Neighbouring boxes then end up in neighbouring pool slots,
// which makes later queries friendlier to the cache. It returns the number of
// boxes that were inserted. If a key repeats, which of its boxes is kept is
// unspecified.
func (t *QuadTree[F, K]) InsertBulk(keys []K, boxes []AABB[F]) int {
	n := min(len(keys), len(boxes))
	if n == 0 || t.root == nilIndex {
		return 0
	}
	t.Reserve(len(t.leaves) + n)

	region := t.branchArena.at(t.root).bounds
	hilbertMax := float64((1 << 16) - 1)
	entries := make([]hilbertEntry, n)
	for i := range entries {
		b := boxes[i]
		b.Normalize()
		x := hilbertCoord(hilbertMax, float64(b.CenterX()-region.X)/float64(region.W))
		y := hilbertCoord(hilbertMax, float64(b.CenterY()-region.Y)/float64(region.H))
		entries[i] = hilbertEntry{value: hilbertXYToIndex(16, x, y), index: int32(i)}
	}
	sortHilbert(entries)

	inserted := 0
	for _, e := range entries {
		if t.Insert(keys[e.index], boxes[e.index]) {
			inserted++
		}
	}
	return inserted
}

// hilbertEntry pairs a box's position on the curve with its input index
type hilbertEntry struct {
	value uint32
	index int32
}

// hilbertCoord maps a relative position in [0,1] onto the Hilbert grid,
// clamping boxes whose center lies outside the region.
func hilbertCoord(hilbertMax, rel float64) uint32 {
	if math.IsNaN(rel) || rel < 0 {
		rel = 0
	} else if rel > 1 {
		rel = 1
	}
	return uint32(hilbertMax * rel)
}

// hilbertXYToIndex maps a cell of a 2^n x 2^n grid to its distance along the
// Hilbert curve. The branch-free prefix scan is the public domain algorithm
// from https://github.com/rawrunprotected/hilbert_curves, as used by
// github.com/bmharper/flatbush-go.
func hilbertXYToIndex(n uint32, x uint32, y uint32) uint32 {
	x = x << (16 - n)
	y = y << (16 - n)

	var A, B, C, D uint32

	// Initial prefix scan round, prime with x and y
	{
		a := uint32(x ^ y)
		b := uint32(0xFFFF ^ a)
		c := uint32(0xFFFF ^ (x | y))
		d := uint32(x & (y ^ 0xFFFF))

		A = a | (b >> 1)
		B = (a >> 1) ^ a

		C = ((c >> 1) ^ (b & (d >> 1))) ^ c
		D = ((a & (c >> 1)) ^ (d >> 1)) ^ d
	}

	{
		a := A
		b := B
		c := C
		d := D

		A = ((a & (a >> 2)) ^ (b & (b >> 2)))
		B = ((a & (b >> 2)) ^ (b & ((a ^ b) >> 2)))

		C ^= ((a & (c >> 2)) ^ (b & (d >> 2)))
		D ^= ((b & (c >> 2)) ^ ((a ^ b) & (d >> 2)))
	}

	{
		a := A
		b := B
		c := C
		d := D

		A = ((a & (a >> 4)) ^ (b & (b >> 4)))
		B = ((a & (b >> 4)) ^ (b & ((a ^ b) >> 4)))

		C ^= ((a & (c >> 4)) ^ (b & (d >> 4)))
		D ^= ((b & (c >> 4)) ^ ((a ^ b) & (d >> 4)))
	}

	// Final round and projection
	{
		a := A
		b := B
		c := C
		d := D

		C ^= ((a & (c >> 8)) ^ (b & (d >> 8)))
		D ^= ((b & (c >> 8)) ^ ((a ^ b) & (d >> 8)))
	}

	// Undo transformation prefix scan
	a := uint32(C ^ (C >> 1))
	b := uint32(D ^ (D >> 1))

	// Recover index bits
	i0 := uint32(x ^ y)
	i1 := uint32(b | (0xFFFF ^ (i0 | a)))

	return ((interleave(i1) << 1) | interleave(i0)) >> (32 - 2*n)
}

// interleave spreads the low 16 bits of x over the even bits of the result
func interleave(x uint32) uint32 {
	x = (x | (x << 8)) & 0x00FF00FF
	x = (x | (x << 4)) & 0x0F0F0F0F
	x = (x | (x << 2)) & 0x33333333
	x = (x | (x << 1)) & 0x55555555
	return x
}

// sortHilbert orders entries by curve position with a Hoare partition
// quicksort. Entries with equal values keep no particular order.
func sortHilbert(entries []hilbertEntry) {
	if len(entries) < 2 {
		return
	}
	pivot := entries[(len(entries)-1)>>1].value
	i, j := -1, len(entries)
	for {
		for i++; entries[i].value < pivot; i++ {
		}
		for j--; entries[j].value > pivot; j-- {
		}
		if i >= j {
			break
		}
		entries[i], entries[j] = entries[j], entries[i]
	}
	sortHilbert(entries[:j+1])
	sortHilbert(entries[j+1:])
}
