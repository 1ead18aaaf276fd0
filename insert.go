package quadtree

import (
	"github.com/sirupsen/logrus"
)

// Insert places key in the tree with the given box, returning true on success.
// If key is already present its box is replaced; a key is never stored twice.
// A box that does not intersect the tree region is dropped and false is
// returned, leaving the tree (and any previous box for key) unchanged.
// A box that only partly overlaps the region is kept in a separate overhang
// list which every query scans, so it is found on both sides of the edge.
func (t *QuadTree[F, K]) Insert(key K, box AABB[F]) bool {
	if t.root == nilIndex {
		return false
	}
	box.Normalize()
	region := t.branchArena.at(t.root).bounds
	if !region.IsIntersect(box) {
		t.counters.rejected++
		if t.debugEnabled() {
			t.log.WithFields(logrus.Fields{"key": key, "box": box}).Debug("insert outside of tree region")
		}
		return false
	}

	li, ok := t.leaves[key]
	if ok {
		t.detach(li)
		t.leafArena.at(li).bounds = box
		t.counters.updates++
	} else {
		li = t.leafArena.acquire()
		l := t.leafArena.at(li)
		l.key = key
		l.bounds = box
		l.branch = nilIndex
		t.leaves[key] = li
		t.counters.inserts++
	}
	if !region.Contains(box) {
		t.overhang = append(t.overhang, li)
		t.leafArena.at(li).branch = overhangIndex
		return true
	}
	return t.insert(t.root, li)
}

// Remove takes key out of the tree. Branches are never merged back, so the
// tree keeps its shape until the next Clear.
func (t *QuadTree[F, K]) Remove(key K) bool {
	li, ok := t.leaves[key]
	if !ok {
		return false
	}
	t.detach(li)
	delete(t.leaves, key)
	t.leafArena.release(li)
	t.counters.removed++
	return true
}

func (t *QuadTree[F, K]) insert(bi, li int32) bool {
	b := t.branchArena.at(bi)
	if !b.bounds.IsIntersect(t.leafArena.at(li).bounds) {
		return false
	}
	if !b.split {
		if b.depth < t.maxLevel && len(b.direct)+len(b.cross) >= t.maxLeafPerBranch {
			b.split = true
			t.counters.splits++
			if t.debugEnabled() {
				t.log.WithFields(logrus.Fields{"depth": b.depth, "bounds": b.bounds, "leaves": len(b.direct) + len(b.cross)}).Debug("branch split")
			}
			return t.insert(bi, li)
		}
		b.direct = append(b.direct, li)
		t.leafArena.at(li).branch = bi
		return true
	}
	if len(b.direct) > 0 {
		t.flush(bi)
	}
	return t.route(bi, li)
}

// flush moves the leaves a branch collected before it split into its quadrants
func (t *QuadTree[F, K]) flush(bi int32) {
	pending := t.branchArena.at(bi).direct
	for _, li := range pending {
		t.route(bi, li)
	}
	t.branchArena.at(bi).direct = pending[:0]
}

// route sends a leaf into the single quadrant it touches, or keeps it in the
// branch's cross list if it touches several.
func (t *QuadTree[F, K]) route(bi, li int32) bool {
	lb := t.leafArena.at(li).bounds
	b := t.branchArena.at(bi)
	count := 0
	quad := -1
	for i := 0; i < 4; i++ {
		if !b.regions[i].IsIntersect(lb) {
			continue
		}
		count++
		quad = i
		if b.children[i] == nilIndex {
			ci := t.newBranch(bi, b.depth+1, b.regions[i])
			b = t.branchArena.at(bi)
			b.children[i] = ci
		}
	}

	if count > 1 {
		t.keepCross(bi, li)
		return true
	}
	if quad < 0 {
		// rounding at a quadrant edge
		quad = 3
		if b.children[quad] == nilIndex {
			ci := t.newBranch(bi, b.depth+1, b.regions[quad])
			b = t.branchArena.at(bi)
			b.children[quad] = ci
		}
	}
	if t.insert(b.children[quad], li) {
		return true
	}
	t.keepCross(bi, li)
	return true
}

func (t *QuadTree[F, K]) keepCross(bi, li int32) {
	b := t.branchArena.at(bi)
	b.cross = append(b.cross, li)
	t.leafArena.at(li).branch = bi
}

// detach unlinks a leaf from its owning branch, preserving the order of the
// remaining leaves.
func (t *QuadTree[F, K]) detach(li int32) {
	l := t.leafArena.at(li)
	switch l.branch {
	case nilIndex:
		return
	case overhangIndex:
		l.branch = nilIndex
		removeIndex(&t.overhang, li)
		return
	}
	b := t.branchArena.at(l.branch)
	l.branch = nilIndex
	if removeIndex(&b.direct, li) {
		return
	}
	removeIndex(&b.cross, li)
}

func removeIndex(list *[]int32, v int32) bool {
	s := *list
	for i, x := range s {
		if x == v {
			copy(s[i:], s[i+1:])
			*list = s[:len(s)-1]
			return true
		}
	}
	return false
}
