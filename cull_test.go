package quadtree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	nearBox = NewAABB[float64](0, 0, 10, 10)
	farBox  = NewAABB[float64](49, 49, 4, 4)
	origin  = Point[float64]{0, 0}
)

func TestCullingDisabled(t *testing.T) {
	qt := newScenarioTree(t)
	require.True(t, math.IsNaN(qt.CullingDistance))

	for _, cd := range []float64{math.NaN(), 0, -5} {
		qt.CullingDistance = cd
		require.Equal(t, []string{"C"}, qt.SelectFrom(farBox, origin, true))
		require.Equal(t, []string{"C"}, qt.SelectPointFrom(Point[float64]{51, 51}, origin, true))
		require.Equal(t, []string{"C"}, qt.SelectRegionsFrom([]AABB[float64]{farBox}, origin, true))
	}
	require.Equal(t, uint64(0), qt.Stats().Culled)
}

func TestCullBox(t *testing.T) {
	qt := newScenarioTree(t)
	qt.CullingDistance = 10

	require.Equal(t, []string{"A", "B"}, qt.SelectFrom(nearBox, origin, true))
	require.Empty(t, qt.SelectFrom(farBox, origin, true))
	require.Equal(t, uint64(1), qt.Stats().Culled)

	// one corner in range keeps the whole box
	require.Equal(t, []string{"C"}, qt.SelectFrom(NewAABB[float64](7, 7, 46, 46), origin, true))

	// the corner test is conservative: a box around the reference point whose
	// corners are all out of range is culled
	require.Empty(t, qt.SelectFrom(NewAABB[float64](-20, -20, 40, 40), origin, false))
	require.Equal(t, uint64(2), qt.Stats().Culled)

	// the reference point moves with the viewer
	require.Equal(t, []string{"C"}, qt.SelectFrom(farBox, Point[float64]{45, 45}, true))
}

func TestCullPoint(t *testing.T) {
	qt := newScenarioTree(t)
	qt.CullingDistance = 10

	require.Equal(t, []string{"A"}, qt.SelectPointFrom(Point[float64]{2, 2}, origin, true))
	require.Empty(t, qt.SelectPointFrom(Point[float64]{51, 51}, origin, true))

	// exactly at the culling distance is still in range
	qt.CullingDistance = 5
	require.Equal(t, []string{"B"}, qt.SelectPointFrom(Point[float64]{4, 3}, origin, true))
	require.Empty(t, qt.SelectPointFrom(Point[float64]{4, 3.5}, origin, true))
	require.Equal(t, uint64(2), qt.Stats().Culled)
}

func TestCullRegionsEach(t *testing.T) {
	qt := newScenarioTree(t)
	qt.CullingDistance = 10
	require.Equal(t, CullEach, qt.RegionCullMode)

	require.Equal(t, []string{"A", "B"}, qt.SelectRegionsFrom([]AABB[float64]{nearBox, farBox}, origin, true))
	require.Equal(t, []string{"A", "B"}, qt.SelectRegionsFrom([]AABB[float64]{farBox, nearBox}, origin, true))
	require.Empty(t, qt.SelectRegionsFrom([]AABB[float64]{farBox, farBox}, origin, true))
	require.Equal(t, uint64(4), qt.Stats().Culled)
}

func TestCullRegionsTruncate(t *testing.T) {
	qt := newScenarioTree(t)
	qt.CullingDistance = 10
	qt.RegionCullMode = CullTruncate

	require.Equal(t, []string{"A", "B"}, qt.SelectRegionsFrom([]AABB[float64]{nearBox, farBox}, origin, true))
	// everything from the first culled region on is dropped
	require.Empty(t, qt.SelectRegionsFrom([]AABB[float64]{farBox, nearBox}, origin, true))
	require.Equal(t, uint64(2), qt.Stats().Culled)
}

func TestCullFastReusesResults(t *testing.T) {
	qt := newScenarioTree(t)
	qt.CullingDistance = 10
	results := make([]string, 0, 8)
	results = qt.SelectFromFast(nearBox, origin, true, results)
	require.Equal(t, []string{"A", "B"}, results)
	results = qt.SelectFromFast(farBox, origin, true, results)
	require.Empty(t, results)
	require.Equal(t, 8, cap(results))

	results = qt.SelectPointFromFast(Point[float64]{2, 2}, origin, true, results)
	require.Equal(t, []string{"A"}, results)
	results = qt.SelectRegionsFromFast([]AABB[float64]{farBox}, origin, true, results)
	require.Empty(t, results)
	require.Equal(t, 8, cap(results))
}
