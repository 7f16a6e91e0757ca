package region

import (
	"errors"
	"math"
	"testing"

	"github.com/philipparndt/vecstl/pkg/geometry"
	"github.com/philipparndt/vecstl/pkg/pathio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// loopSegments returns the closed loop through pts as separate segments
func loopSegments(pts ...geometry.Point2D) []pathio.Segment {
	segs := openSegments(pts...)
	return append(segs, pathio.Segment{Start: pts[len(pts)-1], End: pts[0]})
}

func openSegments(pts ...geometry.Point2D) []pathio.Segment {
	var segs []pathio.Segment
	for i := 1; i < len(pts); i++ {
		segs = append(segs, pathio.Segment{Start: pts[i-1], End: pts[i]})
	}
	return segs
}

func square(x, y, size float64) []geometry.Point2D {
	return []geometry.Point2D{
		geometry.Pt(x, y), geometry.Pt(x+size, y), geometry.Pt(x+size, y+size), geometry.Pt(x, y+size),
	}
}

func extract(t *testing.T, segs ...[]pathio.Segment) *Extraction {
	t.Helper()
	var all []pathio.Segment
	for _, s := range segs {
		all = append(all, s...)
	}
	ex, err := Extract(pathio.PathCollection{Segments: all}, DefaultOptions())
	require.NoError(t, err)
	return ex
}

func TestExtractSquare(t *testing.T) {
	ex := extract(t, loopSegments(square(0, 0, 10)...))

	require.NoError(t, ex.Err())
	require.Len(t, ex.Polygons, 1)
	p := ex.Polygons[0]
	assert.True(t, p.Outer.IsClosed())
	assert.Len(t, p.Outer, 5)
	assert.Empty(t, p.Holes)
	assert.InDelta(t, 100, p.Area(), 1e-9)
	assert.False(t, ex.NoClosedRegion)
	assert.Empty(t, ex.OpenChains)
}

func TestExtractNormalizesClockwiseOuter(t *testing.T) {
	pts := square(0, 0, 10)
	cw := []geometry.Point2D{pts[3], pts[2], pts[1], pts[0]}
	ex := extract(t, loopSegments(cw...))

	require.Len(t, ex.Polygons, 1)
	assert.Greater(t, ex.Polygons[0].Outer.SignedArea(), 0.0)
}

func TestExtractJoinsSegmentsWithinTolerance(t *testing.T) {
	segs := []pathio.Segment{
		{Start: geometry.Pt(0, 0), End: geometry.Pt(10, 0)},
		{Start: geometry.Pt(10, 10), End: geometry.Pt(10+1e-8, 0)},
		{Start: geometry.Pt(0, 10), End: geometry.Pt(10, 10-1e-8)},
		{Start: geometry.Pt(1e-8, 1e-8), End: geometry.Pt(0, 10)},
	}
	ex := extract(t, segs)

	require.Len(t, ex.Polygons, 1)
	assert.Equal(t, 4, ex.Polygons[0].PointCount())
}

func TestExtractSquareWithHole(t *testing.T) {
	ex := extract(t, loopSegments(square(0, 0, 10)...), loopSegments(square(3, 3, 4)...))

	require.Len(t, ex.Polygons, 1)
	p := ex.Polygons[0]
	require.Len(t, p.Holes, 1)
	assert.Greater(t, p.Outer.SignedArea(), 0.0)
	assert.Less(t, p.Holes[0].SignedArea(), 0.0)
	assert.InDelta(t, 84, p.Area(), 1e-9)
	assert.Len(t, p.Rings(), 2)
}

func TestExtractIslandInsideHole(t *testing.T) {
	ex := extract(t,
		loopSegments(square(0, 0, 30)...),
		loopSegments(square(5, 5, 20)...),
		loopSegments(square(10, 10, 10)...),
	)

	require.Len(t, ex.Polygons, 2)
	assert.Len(t, ex.Polygons[0].Holes, 1)
	assert.Empty(t, ex.Polygons[1].Holes)
	assert.InDelta(t, 900-400, ex.Polygons[0].Area(), 1e-9)
	assert.InDelta(t, 100, ex.Polygons[1].Area(), 1e-9)
}

func TestExtractTwoDisjointSquares(t *testing.T) {
	ex := extract(t, loopSegments(square(0, 0, 10)...), loopSegments(square(20, 0, 5)...))

	require.NoError(t, ex.Err())
	require.Len(t, ex.Polygons, 2)
	assert.Empty(t, ex.Polygons[0].Holes)
	assert.Empty(t, ex.Polygons[1].Holes)
}

func TestExtractOpenPolyline(t *testing.T) {
	ex := extract(t, openSegments(geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10)))

	assert.True(t, ex.NoClosedRegion)
	assert.Empty(t, ex.Polygons)
	require.Len(t, ex.OpenChains, 1)
	assert.Len(t, ex.OpenChains[0], 3)
	assert.ErrorIs(t, ex.Err(), ErrNoClosedRegion)
}

func TestExtractEmptyCollection(t *testing.T) {
	ex := extract(t)
	assert.True(t, ex.NoClosedRegion)
	assert.ErrorIs(t, ex.Err(), ErrNoClosedRegion)
}

func TestExtractSquareWithDanglingTail(t *testing.T) {
	tail := openSegments(geometry.Pt(10, 10), geometry.Pt(15, 15), geometry.Pt(20, 15))
	ex := extract(t, loopSegments(square(0, 0, 10)...), tail)

	require.NoError(t, ex.Err())
	require.Len(t, ex.Polygons, 1)
	assert.Equal(t, 4, ex.Polygons[0].PointCount())
	require.Len(t, ex.OpenChains, 1)
	assert.Equal(t, []geometry.Point2D{geometry.Pt(10, 10), geometry.Pt(15, 15), geometry.Pt(20, 15)}, ex.OpenChains[0])
}

func TestExtractFigureEight(t *testing.T) {
	bowtie := loopSegments(geometry.Pt(0, 0), geometry.Pt(10, 10), geometry.Pt(10, 0), geometry.Pt(0, 10))
	ex := extract(t, bowtie)

	assert.False(t, ex.NoClosedRegion)
	assert.Empty(t, ex.Polygons)
	require.Len(t, ex.Rejected, 1)
	assert.Equal(t, SelfIntersecting, ex.Rejected[0].Reason)
	assert.InDelta(t, 5, ex.Rejected[0].At.X, 1e-9)
	assert.InDelta(t, 5, ex.Rejected[0].At.Y, 1e-9)

	err := ex.Err()
	assert.ErrorIs(t, err, ErrSelfIntersectingRegion)
	var sErr *SelfIntersectionError
	require.True(t, errors.As(err, &sErr))
	assert.Len(t, sErr.Loops, 1)
	assert.Contains(t, err.Error(), "self-intersecting")
}

func TestExtractLoopsSharingAPoint(t *testing.T) {
	ex := extract(t, loopSegments(square(0, 0, 10)...), loopSegments(square(10, 10, 10)...))

	require.NoError(t, ex.Err())
	require.Len(t, ex.Polygons, 2)
	assert.Empty(t, ex.Rejected)
	for _, p := range ex.Polygons {
		assert.InDelta(t, 100, p.Area(), 1e-9)
	}
}

func TestExtractDividedRectangle(t *testing.T) {
	outline := loopSegments(
		geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(20, 0),
		geometry.Pt(20, 10), geometry.Pt(10, 10), geometry.Pt(0, 10),
	)
	divider := openSegments(geometry.Pt(10, 0), geometry.Pt(10, 10))
	ex := extract(t, outline, divider)

	require.NoError(t, ex.Err())
	assert.Empty(t, ex.Rejected)
	assert.Empty(t, ex.OpenChains)
	require.Len(t, ex.Polygons, 2)
	for _, p := range ex.Polygons {
		assert.Empty(t, p.Holes)
		assert.Equal(t, 4, p.PointCount())
		assert.InDelta(t, 100, p.Outer.SignedArea(), 1e-9)
	}
}

func TestExtractGridOfFaces(t *testing.T) {
	// A 2x2 grid drawn as three horizontal and three vertical lines
	var segs []pathio.Segment
	for i := 0; i <= 2; i++ {
		v := float64(i) * 5
		segs = append(segs, openSegments(geometry.Pt(0, v), geometry.Pt(5, v), geometry.Pt(10, v))...)
		segs = append(segs, openSegments(geometry.Pt(v, 0), geometry.Pt(v, 5), geometry.Pt(v, 10))...)
	}
	ex := extract(t, segs)

	require.Len(t, ex.Polygons, 4)
	total := 0.0
	for _, p := range ex.Polygons {
		total += p.Area()
	}
	assert.InDelta(t, 100, total, 1e-9)
}

func TestExtractBridgeToHoleIsDropped(t *testing.T) {
	bridge := openSegments(geometry.Pt(0, 0), geometry.Pt(3, 3))
	ex := extract(t, loopSegments(square(0, 0, 10)...), loopSegments(square(3, 3, 4)...), bridge)

	require.NoError(t, ex.Err())
	require.Len(t, ex.Polygons, 1)
	require.Len(t, ex.Polygons[0].Holes, 1)
	assert.InDelta(t, 84, ex.Polygons[0].Area(), 1e-9)
	require.Len(t, ex.OpenChains, 1)
	assert.ElementsMatch(t, []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(3, 3)}, ex.OpenChains[0])
}

func TestExtractNetworkWithCrossingEdges(t *testing.T) {
	diagonals := append(
		openSegments(geometry.Pt(0, 0), geometry.Pt(10, 10)),
		openSegments(geometry.Pt(10, 0), geometry.Pt(0, 10))...,
	)
	ex := extract(t, loopSegments(square(0, 0, 10)...), diagonals)

	assert.Empty(t, ex.Polygons)
	require.Len(t, ex.Rejected, 1)
	assert.Equal(t, SelfIntersecting, ex.Rejected[0].Reason)
	assert.InDelta(t, 5, ex.Rejected[0].At.X, 1e-9)
	assert.InDelta(t, 5, ex.Rejected[0].At.Y, 1e-9)
	assert.ErrorIs(t, ex.Err(), ErrSelfIntersectingRegion)
}

func TestExtractFaceTouchingItselfIsRejected(t *testing.T) {
	// A triangle hanging inside the square from its corner splits off a
	// face that passes the corner twice
	triangle := loopSegments(geometry.Pt(0, 0), geometry.Pt(5, 2), geometry.Pt(2, 5))
	ex := extract(t, loopSegments(square(0, 0, 10)...), triangle)

	require.Len(t, ex.Polygons, 1)
	assert.InDelta(t, 10.5, ex.Polygons[0].Area(), 1e-9)
	require.Len(t, ex.Rejected, 1)
	assert.Equal(t, Branching, ex.Rejected[0].Reason)
	assert.Equal(t, geometry.Pt(0, 0), ex.Rejected[0].At)
	assert.NoError(t, ex.Err())
}

func TestExtractCrossingLoops(t *testing.T) {
	ex := extract(t, loopSegments(square(0, 0, 10)...), loopSegments(square(5, 5, 10)...))

	assert.Empty(t, ex.Polygons)
	require.Len(t, ex.Rejected, 2)
	assert.Equal(t, Crossing, ex.Rejected[0].Reason)
	assert.ErrorIs(t, ex.Err(), ErrSelfIntersectingRegion)
}

func TestExtractKeepsValidLoopsBesideRejectedOnes(t *testing.T) {
	bowtie := loopSegments(geometry.Pt(20, 0), geometry.Pt(30, 10), geometry.Pt(30, 0), geometry.Pt(20, 10))
	ex := extract(t, loopSegments(square(0, 0, 10)...), bowtie)

	require.Len(t, ex.Polygons, 1)
	require.Len(t, ex.Rejected, 1)
	assert.NoError(t, ex.Err())
}

func TestExtractFoldBackIsRejected(t *testing.T) {
	// The last point lies on the first edge, so the loop doubles back
	ex := extract(t, loopSegments(geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(5, 0)))
	assert.Empty(t, ex.Polygons)
	assert.ErrorIs(t, ex.Err(), ErrSelfIntersectingRegion)
}

func TestExtractInvalidTolerance(t *testing.T) {
	for _, tol := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := Extract(pathio.PathCollection{}, Options{Tolerance: tol})
		assert.ErrorIs(t, err, ErrInvalidTolerance)
	}
}

func TestRejectReasonString(t *testing.T) {
	assert.Equal(t, "branching", Branching.String())
	assert.Equal(t, "crossing another loop", Crossing.String())
}

func TestExtractShuffledPolygonProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(3, 24).Draw(t, "n")
		radius := rapid.Float64Range(1, 1000).Draw(t, "radius")
		pts := make([]geometry.Point2D, n)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(n)
			pts[i] = geometry.Pt(radius*math.Cos(a), radius*math.Sin(a))
		}

		segs := loopSegments(pts...)
		for i := range segs {
			// Nudge endpoints well below the tolerance and flip some segments
			jitter := rapid.Float64Range(-1e-9, 1e-9).Draw(t, "jitter")
			segs[i].End = segs[i].End.Add(geometry.Pt(jitter, -jitter))
			if rapid.Bool().Draw(t, "flip") {
				segs[i].Start, segs[i].End = segs[i].End, segs[i].Start
			}
		}
		segs = rapid.Permutation(segs).Draw(t, "order")

		ex, err := Extract(pathio.PathCollection{Segments: segs}, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if len(ex.Polygons) != 1 {
			t.Fatalf("expected one polygon, got %d (rejected %d)", len(ex.Polygons), len(ex.Rejected))
		}
		p := ex.Polygons[0]
		if p.PointCount() != n {
			t.Fatalf("expected %d points, got %d", n, p.PointCount())
		}
		if p.Outer.SignedArea() <= 0 {
			t.Fatalf("outer ring is not counter-clockwise")
		}
		if len(ex.OpenChains) != 0 {
			t.Fatalf("unexpected open chains: %v", ex.OpenChains)
		}
	})
}
