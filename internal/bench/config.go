// Package bench drives a quad tree through a synthetic scene: a viewer moves
// along a circle and every frame selects the objects in a few view regions
// ahead of it.
package bench

import (
	"math"

	quadtree "github.com/bmharper/quadtree-go"
	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("invalid bench config")

type Config struct {
	// World is the area objects are scattered over. The tree region is the
	// union of the generated object boxes.
	World            quadtree.AABB[float64] `json:"world"`
	MaxLevel         int                    `json:"maxLevel"`
	MaxLeafPerBranch int                    `json:"maxLeafPerBranch"`

	Objects int     `json:"objects"`
	MinSize float64 `json:"minSize"`
	MaxSize float64 `json:"maxSize"`
	Seed    int64   `json:"seed"`
	Bulk    bool    `json:"bulk"` // build with InsertBulk

	Frames      int     `json:"frames"`
	ViewRegions int     `json:"viewRegions"`
	ViewSize    float64 `json:"viewSize"`

	// CullingDistance <= 0 disables the distance pre-filter
	CullingDistance float64 `json:"cullingDistance"`
	Truncate        bool    `json:"truncate"`
	Precise         bool    `json:"precise"`
	Rebuild         bool    `json:"rebuild"` // clear and insert every object again after each frame
}

func DefaultConfig() Config {
	return Config{
		World:            quadtree.NewAABB[float64](-512, -512, 1024, 1024),
		MaxLevel:         quadtree.DefaultMaxLevel,
		MaxLeafPerBranch: quadtree.DefaultMaxLeafPerBranch,
		Objects:          3456,
		MinSize:          1,
		MaxSize:          8,
		Seed:             1,
		Frames:           600,
		ViewRegions:      3,
		ViewSize:         64,
		CullingDistance:  300,
		Precise:          true,
	}
}

func (c *Config) Validate() error {
	w := c.World
	w.Normalize()
	switch {
	case !w.IsFinite() || w.IsZero():
		return errors.Wrapf(ErrInvalidConfig, "world %v must be finite with a non-zero area", c.World)
	case c.MaxLevel < 0 || c.MaxLevel >= quadtree.MaxLimitLevel:
		return errors.Wrapf(ErrInvalidConfig, "maxLevel %d out of range [0, %d)", c.MaxLevel, quadtree.MaxLimitLevel)
	case c.MaxLeafPerBranch < 1:
		return errors.Wrapf(ErrInvalidConfig, "maxLeafPerBranch %d must be at least 1", c.MaxLeafPerBranch)
	case c.Objects < 1:
		return errors.Wrapf(ErrInvalidConfig, "objects %d must be at least 1", c.Objects)
	case !(c.MinSize > 0) || c.MaxSize < c.MinSize || math.IsInf(c.MaxSize, 0):
		return errors.Wrapf(ErrInvalidConfig, "object size range [%v, %v] is invalid", c.MinSize, c.MaxSize)
	case c.Frames < 0:
		return errors.Wrapf(ErrInvalidConfig, "frames %d must not be negative", c.Frames)
	case c.ViewRegions < 1:
		return errors.Wrapf(ErrInvalidConfig, "viewRegions %d must be at least 1", c.ViewRegions)
	case !(c.ViewSize > 0) || math.IsInf(c.ViewSize, 0):
		return errors.Wrapf(ErrInvalidConfig, "viewSize %v must be positive", c.ViewSize)
	}
	return nil
}
