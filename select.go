package quadtree

// A query collects candidates into two buckets. Leaves under a branch that the
// query fully covers go into complete and are never re-tested. Leaves of
// branches the query only partly covers go into maybe, and are re-tested
// against their own box when a precise result is asked for. Overhanging
// leaves are always tested against their own box and join maybe.
type buckets[K comparable] struct {
	maybe    []K
	complete []K
}

// Select returns the keys whose box intersects box.
// Without precise the result is a superset: nothing is missed, but keys of
// nearby leaves may be included.
func (t *QuadTree[F, K]) Select(box AABB[F], precise bool) []K {
	return t.SelectFast(box, precise, []K{})
}

// SelectFast accepts a 'results' as input. If you are performing millions of
// queries, then reusing a 'results' slice will reduce the number of allocations.
func (t *QuadTree[F, K]) SelectFast(box AABB[F], precise bool, results []K) []K {
	results = results[:0]
	if t.root == nilIndex {
		return results
	}
	t.counters.selects++
	box.Normalize()

	bk := buckets[K]{maybe: results, complete: t.keyLists.get()}
	t.selectByAABB(t.root, box, &bk)
	for _, li := range t.overhang {
		if l := t.leafArena.at(li); l.bounds.IsIntersect(box) {
			bk.maybe = append(bk.maybe, l.key)
		}
	}
	if precise {
		bk.maybe = t.refineAABB(bk.maybe, box)
	}
	results = append(bk.maybe, bk.complete...)
	t.keyLists.put(bk.complete)
	return results
}

// SelectPoint returns the keys whose box contains p
func (t *QuadTree[F, K]) SelectPoint(p Point[F], precise bool) []K {
	return t.SelectPointFast(p, precise, []K{})
}

func (t *QuadTree[F, K]) SelectPointFast(p Point[F], precise bool, results []K) []K {
	results = results[:0]
	if t.root == nilIndex {
		return results
	}
	t.counters.selects++
	results = t.selectByPoint(t.root, p, results)
	for _, li := range t.overhang {
		if l := t.leafArena.at(li); l.bounds.ContainsPoint(p) {
			results = append(results, l.key)
		}
	}
	if precise {
		results = t.refinePoint(results, p)
	}
	return results
}

// SelectRegions returns the keys whose box intersects any of boxes
func (t *QuadTree[F, K]) SelectRegions(boxes []AABB[F], precise bool) []K {
	return t.SelectRegionsFast(boxes, precise, []K{})
}

func (t *QuadTree[F, K]) SelectRegionsFast(boxes []AABB[F], precise bool, results []K) []K {
	results = results[:0]
	if t.root == nilIndex || len(boxes) == 0 {
		return results
	}
	t.counters.selects++

	regions := t.boxLists.get()
	for _, b := range boxes {
		b.Normalize()
		regions = append(regions, b)
	}
	bk := buckets[K]{maybe: results, complete: t.keyLists.get()}
	t.selectByRegions(t.root, regions, &bk)
	for _, li := range t.overhang {
		if l := t.leafArena.at(li); l.bounds.AnyIntersect(regions) {
			bk.maybe = append(bk.maybe, l.key)
		}
	}
	if precise {
		bk.maybe = t.refineRegions(bk.maybe, regions)
	}
	results = append(bk.maybe, bk.complete...)
	t.keyLists.put(bk.complete)
	t.boxLists.put(regions)
	return results
}

func (t *QuadTree[F, K]) selectByAABB(bi int32, q AABB[F], bk *buckets[K]) {
	b := t.branchArena.at(bi)
	if q.Contains(b.bounds) {
		bk.complete = t.appendAll(bi, bk.complete)
		return
	}
	if !b.bounds.IsIntersect(q) {
		return
	}
	bk.maybe = t.appendOwn(b, bk.maybe)
	for _, ci := range b.children {
		if ci != nilIndex {
			t.selectByAABB(ci, q, bk)
		}
	}
}

func (t *QuadTree[F, K]) selectByRegions(bi int32, regions []AABB[F], bk *buckets[K]) {
	b := t.branchArena.at(bi)
	if b.bounds.AnyContainsBy(regions) {
		bk.complete = t.appendAll(bi, bk.complete)
		return
	}
	if !b.bounds.AnyIntersect(regions) {
		return
	}
	bk.maybe = t.appendOwn(b, bk.maybe)
	for _, ci := range b.children {
		if ci != nilIndex {
			t.selectByRegions(ci, regions, bk)
		}
	}
}

// A point can never cover a branch, so there is no complete bucket here
func (t *QuadTree[F, K]) selectByPoint(bi int32, p Point[F], results []K) []K {
	b := t.branchArena.at(bi)
	if !b.bounds.ContainsPoint(p) {
		return results
	}
	results = t.appendOwn(b, results)
	for _, ci := range b.children {
		if ci != nilIndex {
			results = t.selectByPoint(ci, p, results)
		}
	}
	return results
}

// appendOwn adds the leaves stored directly on b
func (t *QuadTree[F, K]) appendOwn(b *branch[F], keys []K) []K {
	for _, li := range b.direct {
		keys = append(keys, t.leafArena.at(li).key)
	}
	for _, li := range b.cross {
		keys = append(keys, t.leafArena.at(li).key)
	}
	return keys
}

// appendAll adds every leaf under bi
func (t *QuadTree[F, K]) appendAll(bi int32, keys []K) []K {
	b := t.branchArena.at(bi)
	keys = t.appendOwn(b, keys)
	for _, ci := range b.children {
		if ci != nilIndex {
			keys = t.appendAll(ci, keys)
		}
	}
	return keys
}

// The refine functions filter keys in place, keeping their order

func (t *QuadTree[F, K]) refineAABB(keys []K, q AABB[F]) []K {
	n := 0
	for _, k := range keys {
		if q.IsIntersect(t.leafArena.at(t.leaves[k]).bounds) {
			keys[n] = k
			n++
		}
	}
	return keys[:n]
}

func (t *QuadTree[F, K]) refinePoint(keys []K, p Point[F]) []K {
	n := 0
	for _, k := range keys {
		if t.leafArena.at(t.leaves[k]).bounds.ContainsPoint(p) {
			keys[n] = k
			n++
		}
	}
	return keys[:n]
}

func (t *QuadTree[F, K]) refineRegions(keys []K, regions []AABB[F]) []K {
	n := 0
	for _, k := range keys {
		if t.leafArena.at(t.leaves[k]).bounds.AnyIntersect(regions) {
			keys[n] = k
			n++
		}
	}
	return keys[:n]
}
