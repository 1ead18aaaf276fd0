package quadtree

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testDim = 1000

// fillRandom inserts n boxes that lie inside (0, 0, testDim, testDim).
// The returned boxes are normalized the same way Insert normalizes them.
func fillRandom[TFloat float32 | float64](t testing.TB, qt *QuadTree[TFloat, int], rng *rand.Rand, n int) []AABB[TFloat] {
	boxes := make([]AABB[TFloat], n)
	for i := 0; i < n; i++ {
		w := TFloat(0.5 + rng.Float32()*9)
		h := TFloat(0.5 + rng.Float32()*9)
		x := TFloat(rng.Float32()) * (testDim - 10)
		y := TFloat(rng.Float32()) * (testDim - 10)
		b := NewAABB(x, y, w, h)
		require.True(t, qt.Insert(i, b))
		b.Normalize()
		boxes[i] = b
	}
	return boxes
}

func randomQuery[TFloat float32 | float64](rng *rand.Rand) AABB[TFloat] {
	pad := TFloat(20)
	x := TFloat(rng.Float32())*(testDim+pad) - pad
	y := TFloat(rng.Float32())*(testDim+pad) - pad
	q := NewAABB(x, y, TFloat(1+rng.Float32()*60), TFloat(1+rng.Float32()*60))
	q.Normalize()
	return q
}

func requireUnique(t *testing.T, keys []int) map[int]bool {
	set := make(map[int]bool, len(keys))
	for _, k := range keys {
		require.False(t, set[k], "key %d returned twice", k)
		set[k] = true
	}
	return set
}

func TestSelectRandom(t *testing.T) {
	testSelectRandom[float32](t)
	testSelectRandom[float64](t)
}

func testSelectRandom[TFloat float32 | float64](t *testing.T) {
	qt := MustNew[TFloat, int](NewAABB[TFloat](0, 0, testDim, testDim), 8, 4)
	rng := rand.New(rand.NewSource(0))
	boxes := fillRandom(t, qt, rng, 3000)

	totalResults := 0
	nSamples := 500
	results := []int{}
	for i := 0; i < nSamples; i++ {
		q := randomQuery[TFloat](rng)

		loose := requireUnique(t, qt.Select(q, false))
		results = qt.SelectFast(q, true, results)
		exact := requireUnique(t, results)
		totalResults += len(exact)

		// brute force validation: no false negatives in either mode, and no
		// false positives in precise mode
		for key, b := range boxes {
			if b.IsIntersect(q) {
				require.True(t, loose[key], "loose query %v missed %v", q, b)
				require.True(t, exact[key], "precise query %v missed %v", q, b)
			} else {
				require.False(t, exact[key], "precise query %v returned %v", q, b)
			}
		}
		for key := range exact {
			require.True(t, loose[key])
		}
	}
	require.Greater(t, totalResults, 0)
}

func TestSelectPointRandom(t *testing.T) {
	testSelectPointRandom[float32](t)
	testSelectPointRandom[float64](t)
}

func testSelectPointRandom[TFloat float32 | float64](t *testing.T) {
	qt := MustNew[TFloat, int](NewAABB[TFloat](0, 0, testDim, testDim), 8, 4)
	rng := rand.New(rand.NewSource(1))
	boxes := fillRandom(t, qt, rng, 3000)

	totalResults := 0
	for i := 0; i < 1000; i++ {
		p := Point[TFloat]{TFloat(rng.Float32()) * testDim, TFloat(rng.Float32()) * testDim}
		loose := requireUnique(t, qt.SelectPoint(p, false))
		exact := requireUnique(t, qt.SelectPoint(p, true))
		totalResults += len(exact)
		for key, b := range boxes {
			if b.ContainsPoint(p) {
				require.True(t, loose[key], "loose point %v missed %v", p, b)
				require.True(t, exact[key], "precise point %v missed %v", p, b)
			} else {
				require.False(t, exact[key], "precise point %v returned %v", p, b)
			}
		}
	}
	require.Greater(t, totalResults, 0)

	// outside the tree region nothing is found
	require.Empty(t, qt.SelectPoint(Point[TFloat]{-1, -1}, false))
	require.Empty(t, qt.SelectPoint(Point[TFloat]{testDim, 5}, false))
}

func TestSelectRegionsRandom(t *testing.T) {
	testSelectRegionsRandom[float32](t)
	testSelectRegionsRandom[float64](t)
}

func testSelectRegionsRandom[TFloat float32 | float64](t *testing.T) {
	qt := MustNew[TFloat, int](NewAABB[TFloat](0, 0, testDim, testDim), 8, 4)
	rng := rand.New(rand.NewSource(2))
	boxes := fillRandom(t, qt, rng, 3000)

	results := []int{}
	for i := 0; i < 300; i++ {
		regions := make([]AABB[TFloat], 1+rng.Intn(4))
		for j := range regions {
			regions[j] = randomQuery[TFloat](rng)
		}

		loose := requireUnique(t, qt.SelectRegions(regions, false))
		results = qt.SelectRegionsFast(regions, true, results)
		exact := requireUnique(t, results)
		for key, b := range boxes {
			if b.AnyIntersect(regions) {
				require.True(t, loose[key], "loose regions %v missed %v", regions, b)
				require.True(t, exact[key], "precise regions %v missed %v", regions, b)
			} else {
				require.False(t, exact[key], "precise regions %v returned %v", regions, b)
			}
		}
	}
}

func TestSelectRegionsMatchesSingle(t *testing.T) {
	qt := MustNew[float64, int](NewAABB[float64](0, 0, testDim, testDim), 8, 4)
	rng := rand.New(rand.NewSource(3))
	fillRandom(t, qt, rng, 2000)

	for i := 0; i < 100; i++ {
		q := randomQuery[float64](rng)
		require.ElementsMatch(t, qt.Select(q, true), qt.SelectRegions([]AABB[float64]{q}, true))
		require.ElementsMatch(t, qt.Select(q, false), qt.SelectRegions([]AABB[float64]{q}, false))
	}
	require.Empty(t, qt.SelectRegions(nil, false))
}

func TestSelectFullRegionUsesCompleteBucket(t *testing.T) {
	qt := MustNew[float64, int](NewAABB[float64](0, 0, testDim, testDim), 8, 4)
	rng := rand.New(rand.NewSource(4))
	fillRandom(t, qt, rng, 1000)

	all := qt.Select(NewAABB[float64](0, 0, testDim, testDim), false)
	require.Len(t, all, 1000)
	requireUnique(t, all)

	all = qt.SelectRegions([]AABB[float64]{NewAABB[float64](10, 10, 5, 5), NewAABB[float64](-1, -1, testDim+2, testDim+2)}, false)
	require.Len(t, all, 1000)
}

func TestSelectZeroQuery(t *testing.T) {
	qt := newScenarioTree(t)
	require.Empty(t, qt.Select(NewAABB[float64](2, 2, 0, 5), false))
	require.Empty(t, qt.Select(NewAABB[float64](2, 2, 5, 0), true))
	require.Empty(t, qt.SelectRegions([]AABB[float64]{NewAABB[float64](0, 0, 0, 0)}, false))
}

func TestSelectFastReusesResults(t *testing.T) {
	qt := newScenarioTree(t)
	results := make([]string, 0, 16)
	results = qt.SelectFast(NewAABB[float64](0, 0, 10, 10), true, results)
	require.Equal(t, []string{"A", "B"}, results)
	require.Equal(t, 16, cap(results))

	results = qt.SelectFast(NewAABB[float64](49, 49, 2, 2), true, results)
	require.Equal(t, []string{"C"}, results)
	require.Equal(t, 16, cap(results))

	results = qt.SelectPointFast(Point[float64]{1.5, 1.5}, true, results)
	require.Equal(t, []string{"A"}, results)
}

func fillGrid(qt *QuadTree[float64, int], sideLength int) {
	qt.Reserve(sideLength * sideLength)
	i := 0
	for x := 0; x < sideLength; x++ {
		for y := 0; y < sideLength; y++ {
			qt.Insert(i, NewAABB(float64(x)+0.1, float64(y)+0.1, 0.8, 0.8))
			i++
		}
	}
}

func BenchmarkInsert(b *testing.B) {
	dim := 300
	for i := 0; i < b.N; i++ {
		start := time.Now()
		qt := MustNew[float64, int](NewAABB[float64](0, 0, float64(dim), float64(dim)), DefaultMaxLevel, 16)
		fillGrid(qt, dim)
		b.Logf("Time to insert %v elements: %.0f milliseconds", dim*dim, time.Since(start).Seconds()*1000)
	}
}

func BenchmarkQuery(b *testing.B) {
	benchmarkQuery(b, false)
}

func BenchmarkQueryPrecise(b *testing.B) {
	benchmarkQuery(b, true)
}

func benchmarkQuery(b *testing.B, precise bool) {
	dim := 300
	qt := MustNew[float64, int](NewAABB[float64](0, 0, float64(dim), float64(dim)), DefaultMaxLevel, 16)
	fillGrid(qt, dim)

	b.ResetTimer()
	start := time.Now()
	results := []int{}
	nresults := 0
	for i := 0; i < b.N; i++ {
		minx := float64(i % dim)
		miny := float64((i * 7) % dim)
		results = qt.SelectFast(NewAABB(minx, miny, 5, 5), precise, results)
		nresults += len(results)
	}
	elapsedS := time.Since(start).Seconds()
	b.Logf("Time per query, returning average of %.0f elements: %.2f nanoseconds\n", float64(nresults)/float64(b.N), elapsedS*1e9/float64(b.N))
}

func TestSelectPastRegionEdge(t *testing.T) {
	qt := MustNew[float64, string](NewAABB[float64](0, 0, 100, 100), 10, 1)
	require.True(t, qt.Insert("F", NewAABB[float64](95, 95, 10, 10)))
	require.True(t, qt.Insert("G", NewAABB[float64](10, 10, 1, 1)))

	// only the part of F outside the region is touched
	q := NewAABB[float64](101, 101, 2, 2)
	require.Equal(t, []string{"F"}, qt.Select(q, false))
	require.Equal(t, []string{"F"}, qt.Select(q, true))
	require.Equal(t, []string{"F"}, qt.SelectPoint(Point[float64]{101, 101}, false))
	require.Equal(t, []string{"F"}, qt.SelectRegions([]AABB[float64]{NewAABB[float64](-10, -10, 5, 5), q}, true))
	require.Empty(t, qt.Select(NewAABB[float64](120, 120, 2, 2), false))

	// inside the region F is found once, next to the tree's own leaves
	require.ElementsMatch(t, []string{"F", "G"}, qt.Select(NewAABB[float64](0, 0, 100, 100), false))
	require.Equal(t, []string{"F"}, qt.SelectPoint(Point[float64]{96, 96}, true))

	loc, ok := qt.Locate("F")
	require.True(t, ok)
	require.True(t, loc.Overhang)
	require.Equal(t, -1, loc.Branch.Quadrant)
	require.Equal(t, 1, qt.Stats().Overhang)

	// moving F fully inside takes it off the overhang list, and back out again
	require.True(t, qt.Insert("F", NewAABB[float64](80, 80, 5, 5)))
	require.Empty(t, qt.Select(q, false))
	require.Equal(t, 0, qt.Stats().Overhang)
	loc, _ = qt.Locate("F")
	require.False(t, loc.Overhang)
	require.True(t, qt.Insert("F", NewAABB[float64](-3, 50, 5, 5)))
	require.Equal(t, []string{"F"}, qt.SelectPoint(Point[float64]{-1, 51}, true))

	require.True(t, qt.Remove("F"))
	require.Empty(t, qt.SelectPoint(Point[float64]{-1, 51}, false))
	require.Equal(t, 0, qt.Stats().Overhang)

	require.True(t, qt.Insert("H", NewAABB[float64](-5, -5, 10, 10)))
	qt.Clear()
	require.Empty(t, qt.Select(NewAABB[float64](-10, -10, 20, 20), false))
	require.Equal(t, 0, qt.Stats().Overhang)
}

func TestSelectRandomPastRegionEdge(t *testing.T) {
	testSelectRandomPastRegionEdge[float32](t)
	testSelectRandomPastRegionEdge[float64](t)
}

func testSelectRandomPastRegionEdge[TFloat float32 | float64](t *testing.T) {
	qt := MustNew[TFloat, int](NewAABB[TFloat](0, 0, testDim, testDim), 8, 4)
	rng := rand.New(rand.NewSource(6))

	// boxes scattered over a wider area than the region, some across its edges
	boxes := map[int]AABB[TFloat]{}
	for i := 0; i < 3000; i++ {
		b := NewAABB(TFloat(rng.Float32())*1200-100, TFloat(rng.Float32())*1200-100, TFloat(1+rng.Float32()*40), TFloat(1+rng.Float32()*40))
		if qt.Insert(i, b) {
			boxes[i] = b
		}
	}
	require.Equal(t, len(boxes), qt.Len())
	require.Greater(t, qt.Stats().Overhang, 0)

	for i := 0; i < 300; i++ {
		q := NewAABB(TFloat(rng.Float32())*1300-150, TFloat(rng.Float32())*1300-150, TFloat(1+rng.Float32()*60), TFloat(1+rng.Float32()*60))
		p := Point[TFloat]{q.X, q.Y}
		loose := requireUnique(t, qt.Select(q, false))
		exact := requireUnique(t, qt.Select(q, true))
		points := requireUnique(t, qt.SelectPoint(p, true))
		for key, b := range boxes {
			require.Equal(t, b.IsIntersect(q), exact[key], "query %v box %v", q, b)
			require.Equal(t, b.ContainsPoint(p), points[key], "point %v box %v", p, b)
			if exact[key] {
				require.True(t, loose[key])
			}
		}
	}
}
