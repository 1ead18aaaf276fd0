// Package quadtree is a static, pooled quad-tree for 2D range, point and
// multi-region queries over boxes.
//
// The tree is meant to be built once, queried many times (typically once per
// frame), and rebuilt in bulk with Clear followed by Insert when the scene
// changes a lot. There is no rebalancing and no merging of emptied branches.
//
// A QuadTree must not be used from more than one goroutine at a time.
package quadtree

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	MaxLimitLevel           = 32 // MaxLevel must be below this
	DefaultMaxLevel         = 10
	DefaultMaxLeafPerBranch = 50
)

var ErrInvalidConfig = errors.New("invalid quadtree configuration")

// CullMode controls how SelectRegionsFrom applies the distance pre-filter to a
// list of regions.
type CullMode int

const (
	// CullEach drops every region that is out of range, and keeps the rest
	CullEach CullMode = iota
	// CullTruncate drops the first out of range region and every region after it
	CullTruncate
)

// branch is one quadrant of space. Children are created the first time a leaf
// is routed into their quadrant.
type branch[F Float] struct {
	bounds   AABB[F]
	regions  [4]AABB[F] // top-left, top-right, bottom-right, bottom-left
	children [4]int32
	direct   []int32 // leaves held while unsplit
	cross    []int32 // leaves spanning more than one quadrant
	parent   int32
	depth    int
	split    bool
}

type leaf[F Float, K comparable] struct {
	key    K
	bounds AABB[F]
	branch int32 // owning branch, nilIndex while detached, overhangIndex past the region
}

// overhangIndex is the owner of leaves whose box reaches past the root region.
// They live in QuadTree.overhang and every query tests them one by one.
const overhangIndex int32 = -2

// QuadTree indexes keys by their box.
type QuadTree[F Float, K comparable] struct {
	// CullingDistance enables the distance pre-filter of the *From queries.
	// NaN or a value <= 0 disables it.
	CullingDistance F
	RegionCullMode  CullMode

	root             int32
	leaves           map[K]int32
	overhang         []int32
	maxLevel         int
	maxLeafPerBranch int

	branchArena *arena[branch[F]]
	leafArena   *arena[leaf[F, K]]
	keyLists    listPool[K]
	boxLists    listPool[AABB[F]]

	counters counters
	log      *logrus.Entry
}

// New creates an empty tree covering region.
// maxLevel must be in [0, MaxLimitLevel), maxLeafPerBranch must be at least 1,
// and region must have a non-zero, finite area.
func New[F Float, K comparable](region AABB[F], maxLevel, maxLeafPerBranch int) (*QuadTree[F, K], error) {
	t := &QuadTree[F, K]{
		CullingDistance: F(math.NaN()),
		root:            nilIndex,
		log:             logrus.WithField("component", "quadtree"),
	}
	t.initPools()
	if err := t.Reset(region, maxLevel, maxLeafPerBranch); err != nil {
		return nil, err
	}
	return t, nil
}

// NewDefault creates a tree with DefaultMaxLevel and DefaultMaxLeafPerBranch
func NewDefault[F Float, K comparable](region AABB[F]) (*QuadTree[F, K], error) {
	return New[F, K](region, DefaultMaxLevel, DefaultMaxLeafPerBranch)
}

// MustNew is like New but panics on a bad configuration
func MustNew[F Float, K comparable](region AABB[F], maxLevel, maxLeafPerBranch int) *QuadTree[F, K] {
	t, err := New[F, K](region, maxLevel, maxLeafPerBranch)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *QuadTree[F, K]) initPools() {
	t.branchArena = newArena(func(b *branch[F]) {
		b.direct = b.direct[:0]
		b.cross = b.cross[:0]
		b.children = [4]int32{nilIndex, nilIndex, nilIndex, nilIndex}
		b.parent = nilIndex
		b.split = false
	})
	t.leafArena = newArena(func(l *leaf[F, K]) {
		var zero K
		l.key = zero
		l.branch = nilIndex
	})
	t.leaves = make(map[K]int32)
}

func validateConfig[F Float](region AABB[F], maxLevel, maxLeafPerBranch int) error {
	if maxLevel < 0 || maxLevel >= MaxLimitLevel {
		return errors.Wrapf(ErrInvalidConfig, "max level %d must be in [0, %d)", maxLevel, MaxLimitLevel)
	}
	if maxLeafPerBranch < 1 {
		return errors.Wrapf(ErrInvalidConfig, "max leaf per branch %d must be at least 1", maxLeafPerBranch)
	}
	if !region.IsFinite() {
		return errors.Wrapf(ErrInvalidConfig, "region (%v) is not finite", region)
	}
	if region.IsZero() {
		return errors.Wrapf(ErrInvalidConfig, "region (%v) has no area", region)
	}
	return nil
}

// Reset reconfigures the tree and empties it.
// On error the tree is left untouched.
func (t *QuadTree[F, K]) Reset(region AABB[F], maxLevel, maxLeafPerBranch int) error {
	region.Normalize()
	if err := validateConfig(region, maxLevel, maxLeafPerBranch); err != nil {
		return err
	}
	if t.leaves == nil {
		// disposed
		t.initPools()
	}
	t.maxLevel = maxLevel
	t.maxLeafPerBranch = maxLeafPerBranch
	if t.root != nilIndex {
		t.recycleBranch(t.root)
		t.recycleOverhang()
		clear(t.leaves)
	}
	t.root = t.newBranch(nilIndex, 0, region)
	t.log.WithFields(logrus.Fields{
		"region":           region,
		"maxLevel":         maxLevel,
		"maxLeafPerBranch": maxLeafPerBranch,
	}).Debug("quadtree reset")
	return nil
}

// SetLogger replaces the logger used for debug output
func (t *QuadTree[F, K]) SetLogger(log *logrus.Entry) {
	t.log = log
}

func (t *QuadTree[F, K]) debugEnabled() bool {
	return t.log.Logger.IsLevelEnabled(logrus.DebugLevel)
}

// Reserve enough room for n leaves
func (t *QuadTree[F, K]) Reserve(n int) {
	if t.root == nilIndex {
		return
	}
	t.leafArena.reserve(n)
	t.branchArena.reserve(1 + 4*n/t.maxLeafPerBranch)
	if len(t.leaves) == 0 {
		t.leaves = make(map[K]int32, n)
	}
}

// Clear recycles every branch and leaf and installs a fresh root over the same
// region. The tuning parameters are kept.
func (t *QuadTree[F, K]) Clear() {
	if t.root == nilIndex {
		return
	}
	region := t.branchArena.at(t.root).bounds
	n := len(t.leaves)
	t.recycleBranch(t.root)
	t.recycleOverhang()
	clear(t.leaves)
	t.root = t.newBranch(nilIndex, 0, region)
	if t.debugEnabled() {
		t.log.WithField("leaves", n).Debug("quadtree cleared")
	}
}

// Dispose releases all pooled memory. The tree is unusable afterwards, until
// Reset is called.
func (t *QuadTree[F, K]) Dispose() {
	t.root = nilIndex
	t.leaves = nil
	t.overhang = nil
	t.branchArena.drop()
	t.leafArena.drop()
	t.keyLists.drop()
	t.boxLists.drop()
}

// Len is the number of keys in the tree
func (t *QuadTree[F, K]) Len() int {
	return len(t.leaves)
}

func (t *QuadTree[F, K]) Contains(key K) bool {
	_, ok := t.leaves[key]
	return ok
}

// Bounds returns the box stored for key
func (t *QuadTree[F, K]) Bounds(key K) (AABB[F], bool) {
	li, ok := t.leaves[key]
	if !ok {
		return AABB[F]{}, false
	}
	return t.leafArena.at(li).bounds, true
}

// Region is the box covered by the root branch
func (t *QuadTree[F, K]) Region() AABB[F] {
	if t.root == nilIndex {
		return AABB[F]{}
	}
	return t.branchArena.at(t.root).bounds
}

func (t *QuadTree[F, K]) MaxLevel() int         { return t.maxLevel }
func (t *QuadTree[F, K]) MaxLeafPerBranch() int { return t.maxLeafPerBranch }

// newBranch takes a branch from the pool and initializes it.
// Any *branch obtained before this call is invalid afterwards.
func (t *QuadTree[F, K]) newBranch(parent int32, depth int, bounds AABB[F]) int32 {
	bi := t.branchArena.acquire()
	b := t.branchArena.at(bi)
	b.bounds = bounds
	b.regions = bounds.quadrants()
	b.children = [4]int32{nilIndex, nilIndex, nilIndex, nilIndex}
	b.direct = b.direct[:0]
	b.cross = b.cross[:0]
	b.parent = parent
	b.depth = depth
	b.split = false
	return bi
}

// recycleBranch returns bi, its leaves, and all of its descendants to the pools
func (t *QuadTree[F, K]) recycleBranch(bi int32) {
	b := t.branchArena.at(bi)
	for _, li := range b.direct {
		t.leafArena.release(li)
	}
	for _, li := range b.cross {
		t.leafArena.release(li)
	}
	children := b.children
	t.branchArena.release(bi)
	for _, ci := range children {
		if ci != nilIndex {
			t.recycleBranch(ci)
		}
	}
}

func (t *QuadTree[F, K]) recycleOverhang() {
	for _, li := range t.overhang {
		t.leafArena.release(li)
	}
	t.overhang = t.overhang[:0]
}
