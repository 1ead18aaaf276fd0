package quadtree

// The *From variants of Select drop queries that are entirely farther than
// CullingDistance from a reference point before touching the tree.

func (t *QuadTree[F, K]) SelectFrom(box AABB[F], from Point[F], precise bool) []K {
	return t.SelectFromFast(box, from, precise, []K{})
}

func (t *QuadTree[F, K]) SelectFromFast(box AABB[F], from Point[F], precise bool, results []K) []K {
	if t.isBoxCulled(box, from) {
		t.counters.culled++
		return results[:0]
	}
	return t.SelectFast(box, precise, results)
}

func (t *QuadTree[F, K]) SelectPointFrom(p Point[F], from Point[F], precise bool) []K {
	return t.SelectPointFromFast(p, from, precise, []K{})
}

func (t *QuadTree[F, K]) SelectPointFromFast(p Point[F], from Point[F], precise bool, results []K) []K {
	if t.isPointCulled(p, from) {
		t.counters.culled++
		return results[:0]
	}
	return t.SelectPointFast(p, precise, results)
}

func (t *QuadTree[F, K]) SelectRegionsFrom(boxes []AABB[F], from Point[F], precise bool) []K {
	return t.SelectRegionsFromFast(boxes, from, precise, []K{})
}

// SelectRegionsFromFast filters boxes according to RegionCullMode, then
// queries the regions that are left.
func (t *QuadTree[F, K]) SelectRegionsFromFast(boxes []AABB[F], from Point[F], precise bool, results []K) []K {
	if _, ok := t.cullingDistanceSqr(); !ok {
		return t.SelectRegionsFast(boxes, precise, results)
	}
	kept := t.boxLists.get()
	for _, b := range boxes {
		if t.isBoxCulled(b, from) {
			t.counters.culled++
			if t.RegionCullMode == CullTruncate {
				break
			}
			continue
		}
		kept = append(kept, b)
	}
	results = t.SelectRegionsFast(kept, precise, results)
	t.boxLists.put(kept)
	return results
}

func (t *QuadTree[F, K]) cullingDistanceSqr() (F, bool) {
	cd := t.CullingDistance
	if cd != cd || cd <= 0 {
		// NaN or disabled
		return 0, false
	}
	return cd * cd, true
}

func (t *QuadTree[F, K]) isPointCulled(p, from Point[F]) bool {
	sqr, ok := t.cullingDistanceSqr()
	return ok && sqr < p.Sub(from).SqrMagnitude()
}

// isBoxCulled is true only when all four corners are out of range
func (t *QuadTree[F, K]) isBoxCulled(box AABB[F], from Point[F]) bool {
	sqr, ok := t.cullingDistanceSqr()
	if !ok {
		return false
	}
	for _, c := range box.Corners() {
		if c.Sub(from).SqrMagnitude() <= sqr {
			return false
		}
	}
	return true
}
