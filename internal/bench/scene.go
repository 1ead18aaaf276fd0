package bench

import (
	"math/rand"

	quadtree "github.com/bmharper/quadtree-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Scene struct {
	Keys   []uuid.UUID
	Boxes  []quadtree.AABB[float64]
	Bounds quadtree.AABB[float64]
}

// NewScene scatters cfg.Objects boxes over cfg.World. The same seed always
// produces the same scene, keys included.
func NewScene(cfg Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	world := cfg.World
	world.Normalize()
	rng := rand.New(rand.NewSource(cfg.Seed))

	s := &Scene{
		Keys:  make([]uuid.UUID, cfg.Objects),
		Boxes: make([]quadtree.AABB[float64], cfg.Objects),
	}
	for i := range s.Boxes {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, errors.Wrap(err, "generating object key")
		}
		size := cfg.MinSize + rng.Float64()*(cfg.MaxSize-cfg.MinSize)
		w := min(size, world.W)
		h := min(size*(0.5+rng.Float64()), world.H)
		s.Keys[i] = id
		s.Boxes[i] = quadtree.NewAABB(
			world.X+rng.Float64()*(world.W-w),
			world.Y+rng.Float64()*(world.H-h),
			w, h)
	}
	s.Bounds = quadtree.BoundsOf(s.Boxes)
	return s, nil
}

// Fill inserts every object and returns how many were accepted
func (s *Scene) Fill(qt *quadtree.QuadTree[float64, uuid.UUID], bulk bool) int {
	if bulk {
		return qt.InsertBulk(s.Keys, s.Boxes)
	}
	qt.Reserve(len(s.Keys))
	n := 0
	for i, key := range s.Keys {
		if qt.Insert(key, s.Boxes[i]) {
			n++
		}
	}
	return n
}
