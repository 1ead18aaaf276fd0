package quadtree

// BranchInfo describes one branch, for debugging and visualization
type BranchInfo[F Float] struct {
	Bounds   AABB[F]
	Depth    int
	Quadrant int // index in the parent (0 top-left, clockwise), -1 for the root
	Split    bool
	Direct   int // leaves stored while unsplit
	Cross    int // leaves spanning several quadrants
	Children int // materialized child branches
}

// LeafInfo tells where a key is stored.
// An overhanging leaf reports the root as its branch.
type LeafInfo[F Float] struct {
	Bounds   AABB[F]
	Branch   BranchInfo[F]
	Cross    bool
	Overhang bool // the box reaches past the tree region
}

// Walk visits branches depth first, parents before children.
// Returning false from fn stops the walk.
func (t *QuadTree[F, K]) Walk(fn func(b BranchInfo[F]) bool) {
	if t.root == nilIndex {
		return
	}
	t.walk(t.root, -1, fn)
}

func (t *QuadTree[F, K]) walk(bi int32, quadrant int, fn func(b BranchInfo[F]) bool) bool {
	if !fn(t.branchInfo(bi, quadrant)) {
		return false
	}
	children := t.branchArena.at(bi).children
	for i, ci := range children {
		if ci != nilIndex && !t.walk(ci, i, fn) {
			return false
		}
	}
	return true
}

// EachLeaf calls fn for every key in the tree, in tree order.
// Returning false from fn stops the iteration.
func (t *QuadTree[F, K]) EachLeaf(fn func(key K, box AABB[F]) bool) {
	if t.root == nilIndex {
		return
	}
	keys := t.appendAll(t.root, t.keyLists.get())
	for _, li := range t.overhang {
		keys = append(keys, t.leafArena.at(li).key)
	}
	for _, k := range keys {
		if !fn(k, t.leafArena.at(t.leaves[k]).bounds) {
			break
		}
	}
	t.keyLists.put(keys)
}

// Locate returns the branch that owns key
func (t *QuadTree[F, K]) Locate(key K) (LeafInfo[F], bool) {
	li, ok := t.leaves[key]
	if !ok {
		return LeafInfo[F]{}, false
	}
	l := t.leafArena.at(li)
	switch l.branch {
	case nilIndex:
		return LeafInfo[F]{}, false
	case overhangIndex:
		return LeafInfo[F]{Bounds: l.bounds, Branch: t.branchInfo(t.root, -1), Overhang: true}, true
	}
	b := t.branchArena.at(l.branch)
	quadrant := -1
	if b.parent != nilIndex {
		p := t.branchArena.at(b.parent)
		for i, ci := range p.children {
			if ci == l.branch {
				quadrant = i
			}
		}
	}
	cross := false
	for _, x := range b.cross {
		if x == li {
			cross = true
			break
		}
	}
	return LeafInfo[F]{
		Bounds: l.bounds,
		Branch: t.branchInfo(l.branch, quadrant),
		Cross:  cross,
	}, true
}

func (t *QuadTree[F, K]) branchInfo(bi int32, quadrant int) BranchInfo[F] {
	b := t.branchArena.at(bi)
	children := 0
	for _, ci := range b.children {
		if ci != nilIndex {
			children++
		}
	}
	return BranchInfo[F]{
		Bounds:   b.bounds,
		Depth:    b.depth,
		Quadrant: quadrant,
		Split:    b.split,
		Direct:   len(b.direct),
		Cross:    len(b.cross),
		Children: children,
	}
}
