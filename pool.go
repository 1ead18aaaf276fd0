package quadtree

// nilIndex marks "no node" in an arena-backed reference
const nilIndex int32 = -1

// arena is a free-list of T slots addressed by index.
// Released slots are handed out again by acquire, so a slot obtained from the
// arena holds whatever its previous owner left in it, minus what clear wiped.
type arena[T any] struct {
	slots []T
	free  []int32
	clear func(*T)
}

func newArena[T any](clear func(*T)) *arena[T] {
	return &arena[T]{clear: clear}
}

// reserve grows capacity so that n slots can live without reallocating
func (a *arena[T]) reserve(n int) {
	if n > cap(a.slots) {
		slots := make([]T, len(a.slots), n)
		copy(slots, a.slots)
		a.slots = slots
	}
}

func (a *arena[T]) acquire() int32 {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		return idx
	}
	var zero T
	a.slots = append(a.slots, zero)
	return int32(len(a.slots) - 1)
}

func (a *arena[T]) release(idx int32) {
	if a.clear != nil {
		a.clear(&a.slots[idx])
	}
	a.free = append(a.free, idx)
}

// at returns a pointer into the arena. It is invalidated by the next acquire.
func (a *arena[T]) at(idx int32) *T {
	return &a.slots[idx]
}

// live is the number of slots currently handed out
func (a *arena[T]) live() int {
	return len(a.slots) - len(a.free)
}

func (a *arena[T]) pooled() int {
	return len(a.free)
}

func (a *arena[T]) drop() {
	a.slots = nil
	a.free = nil
}

// listPool recycles scratch slices between queries
type listPool[T any] struct {
	lists [][]T
}

func (p *listPool[T]) get() []T {
	if n := len(p.lists); n > 0 {
		l := p.lists[n-1]
		p.lists = p.lists[:n-1]
		return l
	}
	return make([]T, 0, 32)
}

func (p *listPool[T]) put(l []T) {
	var zero T
	for i := range l {
		l[i] = zero
	}
	p.lists = append(p.lists, l[:0])
}

func (p *listPool[T]) drop() {
	p.lists = nil
}
