package quadtree

type counters struct {
	inserts  uint64
	updates  uint64
	rejected uint64
	removed  uint64
	splits   uint64
	selects  uint64
	culled   uint64
}

// Stats is a snapshot of the tree shape, the pools, and running counters
type Stats struct {
	Leaves        int
	CrossLeaves   int
	Overhang      int // leaves reaching past the tree region
	Branches      int
	SplitBranches int
	MaxDepth      int

	PooledBranches int
	PooledLeaves   int

	// Counters since New. Clear does not reset them.
	Inserts  uint64 // new keys
	Updates  uint64 // existing keys moved
	Rejected uint64 // boxes outside the tree region
	Removed  uint64
	Splits   uint64
	Selects  uint64
	Culled   uint64 // queries or regions dropped by the distance pre-filter
}

func (t *QuadTree[F, K]) Stats() Stats {
	s := Stats{
		Leaves:         len(t.leaves),
		Overhang:       len(t.overhang),
		PooledBranches: t.branchArena.pooled(),
		PooledLeaves:   t.leafArena.pooled(),
		Inserts:        t.counters.inserts,
		Updates:        t.counters.updates,
		Rejected:       t.counters.rejected,
		Removed:        t.counters.removed,
		Splits:         t.counters.splits,
		Selects:        t.counters.selects,
		Culled:         t.counters.culled,
	}
	t.Walk(func(b BranchInfo[F]) bool {
		s.Branches++
		s.CrossLeaves += b.Cross
		if b.Split {
			s.SplitBranches++
		}
		s.MaxDepth = max(s.MaxDepth, b.Depth)
		return true
	})
	return s
}
