package quadtree

import (
	"fmt"
	"math"
)

type Float interface {
	float32 | float64
}

type Point[F Float] struct {
	X F
	Y F
}

// Sub returns p - o
func (p Point[F]) Sub(o Point[F]) Point[F] {
	return Point[F]{p.X - o.X, p.Y - o.Y}
}

// SqrMagnitude is the squared length of p as a vector
func (p Point[F]) SqrMagnitude() F {
	return p.X*p.X + p.Y*p.Y
}

// AABB is an axis aligned box described by its top-left corner and its size.
// W and H may be negative while a box is being built up; call Normalize before
// using such a box for queries.
type AABB[F Float] struct {
	X F
	Y F
	W F
	H F
}

func NewAABB[F Float](x, y, w, h F) AABB[F] {
	return AABB[F]{X: x, Y: y, W: w, H: h}
}

// FromEdges builds a box from its left, top, right and bottom edges
func FromEdges[F Float](left, top, right, bottom F) AABB[F] {
	return AABB[F]{X: left, Y: top, W: right - left, H: bottom - top}
}

// BoundsOf returns the smallest box covering all of boxes.
// The zero box is returned for an empty slice.
func BoundsOf[F Float](boxes []AABB[F]) AABB[F] {
	if len(boxes) == 0 {
		return AABB[F]{}
	}
	b := boxes[0]
	b.Normalize()
	for i := 1; i < len(boxes); i++ {
		b.Union(boxes[i])
	}
	return b
}

func (a AABB[F]) Left() F   { return a.X }
func (a AABB[F]) Top() F    { return a.Y }
func (a AABB[F]) Right() F  { return a.X + a.W }
func (a AABB[F]) Bottom() F { return a.Y + a.H }

func (a AABB[F]) CenterX() F { return a.X + a.W*0.5 }
func (a AABB[F]) CenterY() F { return a.Y + a.H*0.5 }
func (a AABB[F]) ExtentX() F { return a.W * 0.5 }
func (a AABB[F]) ExtentY() F { return a.H * 0.5 }

func (a AABB[F]) Center() Point[F] { return Point[F]{a.CenterX(), a.CenterY()} }
func (a AABB[F]) Extent() Point[F] { return Point[F]{a.ExtentX(), a.ExtentY()} }

func (a AABB[F]) Min() Point[F] { return Point[F]{a.Left(), a.Top()} }
func (a AABB[F]) Max() Point[F] { return Point[F]{a.Right(), a.Bottom()} }

func (a AABB[F]) TopLeft() Point[F]     { return Point[F]{a.Left(), a.Top()} }
func (a AABB[F]) TopRight() Point[F]    { return Point[F]{a.Right(), a.Top()} }
func (a AABB[F]) BottomRight() Point[F] { return Point[F]{a.Right(), a.Bottom()} }
func (a AABB[F]) BottomLeft() Point[F]  { return Point[F]{a.Left(), a.Bottom()} }

// Corners in clockwise order starting at the top-left
func (a AABB[F]) Corners() [4]Point[F] {
	return [4]Point[F]{a.TopLeft(), a.TopRight(), a.BottomRight(), a.BottomLeft()}
}

// SetRight moves the right edge, keeping the left edge in place
func (a *AABB[F]) SetRight(r F) { a.W = r - a.X }

// SetBottom moves the bottom edge, keeping the top edge in place
func (a *AABB[F]) SetBottom(b F) { a.H = b - a.Y }

func (a *AABB[F]) Set(x, y, w, h F) {
	a.X = x
	a.Y = y
	a.W = w
	a.H = h
}

// IsZero reports whether the box has no area.
// A zero box is the sentinel for "no intersection".
func (a AABB[F]) IsZero() bool {
	return a.Left() == a.Right() || a.Top() == a.Bottom()
}

// IsFinite is false if any component is NaN or infinite
func (a AABB[F]) IsFinite() bool {
	for _, v := range [4]F{a.X, a.Y, a.W, a.H} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Normalize flips negative widths and heights so that Right >= Left and Bottom >= Top
func (a *AABB[F]) Normalize() {
	l, t, r, b := a.Left(), a.Top(), a.Right(), a.Bottom()
	*a = FromEdges(min(l, r), min(t, b), max(l, r), max(t, b))
}

// IsIntersect reports whether the two boxes overlap with a non-zero area.
// Touching edges do not count as an intersection.
func (a AABB[F]) IsIntersect(o AABB[F]) bool {
	if a.IsZero() || o.IsZero() {
		return false
	}
	return a.X < o.Right() && a.Y < o.Bottom() && a.Right() > o.X && a.Bottom() > o.Y
}

// Intersection returns the overlapping region of the two boxes, and whether that
// region is non-degenerate. The returned box is only meaningful when ok is true.
func (a AABB[F]) Intersection(o AABB[F]) (r AABB[F], ok bool) {
	r = FromEdges(max(a.Left(), o.Left()), max(a.Top(), o.Top()), min(a.Right(), o.Right()), min(a.Bottom(), o.Bottom()))
	return r, r.W > 0 && r.H > 0
}

// Contains reports whether o lies fully inside a, edges included.
// A zero box contains nothing, and a zero o is never contained.
func (a AABB[F]) Contains(o AABB[F]) bool {
	if a.IsZero() || o.IsZero() {
		return false
	}
	return o.X >= a.X && o.Y >= a.Y && o.Right() <= a.Right() && o.Bottom() <= a.Bottom()
}

// ContainsPoint uses half-open bounds: [Left,Right) x [Top,Bottom)
func (a AABB[F]) ContainsPoint(p Point[F]) bool {
	return p.X >= a.Left() && p.X < a.Right() && p.Y >= a.Top() && p.Y < a.Bottom()
}

// Union grows a in place to cover o
func (a *AABB[F]) Union(o AABB[F]) {
	a.UnionPoint(o.Min())
	a.UnionPoint(o.Max())
}

// UnionPoint grows a in place to cover p
func (a *AABB[F]) UnionPoint(p Point[F]) {
	l, t, r, b := a.Left(), a.Top(), a.Right(), a.Bottom()
	*a = FromEdges(
		min(l, r, p.X),
		min(t, b, p.Y),
		max(l, r, p.X),
		max(t, b, p.Y),
	)
}

// AnyIntersect is true if a intersects at least one of boxes
func (a AABB[F]) AnyIntersect(boxes []AABB[F]) bool {
	for i := range boxes {
		if a.IsIntersect(boxes[i]) {
			return true
		}
	}
	return false
}

// AnyContainsBy is true if at least one of boxes fully contains a
func (a AABB[F]) AnyContainsBy(boxes []AABB[F]) bool {
	for i := range boxes {
		if boxes[i].Contains(a) {
			return true
		}
	}
	return false
}

func (a AABB[F]) Equal(o AABB[F]) bool {
	return a.X == o.X && a.Y == o.Y && a.W == o.W && a.H == o.H
}

func (a AABB[F]) String() string {
	return fmt.Sprintf("x:%v, y:%v, w:%v, h:%v, right:%v, bottom:%v", a.X, a.Y, a.W, a.H, a.Right(), a.Bottom())
}

// quadrants splits a into four non-overlapping quarters, in the order
// top-left, top-right, bottom-right, bottom-left. The shared edges are
// computed once, so the quarters tile a without gaps.
func (a AABB[F]) quadrants() [4]AABB[F] {
	l, t, r, b := a.Left(), a.Top(), a.Right(), a.Bottom()
	mx := a.X + a.W*0.5
	my := a.Y + a.H*0.5
	return [4]AABB[F]{
		FromEdges(l, t, mx, my),
		FromEdges(mx, t, r, my),
		FromEdges(mx, my, r, b),
		FromEdges(l, my, mx, b),
	}
}
