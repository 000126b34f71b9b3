package geometry

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/basinworks/roaddensity/internal/model"
)

func square(size float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, size, 0, size, size, 0, size, 0, 0,
	}, []int{10})
}

func TestGEOS_LengthAndArea(t *testing.T) {
	eng := NewGEOS(model.CRS{})

	length, err := eng.Length(geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1000, 0}))
	require.NoError(t, err)
	assert.InDelta(t, 1000, length, 1e-6)

	area, err := eng.Area(square(1000))
	require.NoError(t, err)
	assert.InDelta(t, 1e6, area, 1e-3)
}

func TestGEOS_GeographicCRSRejected(t *testing.T) {
	eng := NewGEOS(model.CRS{Geographic: true})
	ls := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 0})

	_, err := eng.Length(ls)
	assert.True(t, eris.Is(err, model.ErrUnprojectedCRS))

	_, err = eng.Area(square(1))
	assert.True(t, eris.Is(err, model.ErrUnprojectedCRS))

	_, err = eng.Buffer(ls, 100)
	assert.True(t, eris.Is(err, model.ErrUnprojectedCRS))
}

func TestGEOS_BufferValidation(t *testing.T) {
	eng := NewGEOS(model.CRS{})
	ls := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 100, 0})

	_, err := eng.Buffer(nil, 100)
	assert.True(t, eris.Is(err, model.ErrInvalidGeometry))

	_, err = eng.Buffer(ls, 0)
	assert.True(t, eris.Is(err, model.ErrInvalidGeometry))

	_, err = eng.Buffer(ls, -10)
	assert.True(t, eris.Is(err, model.ErrInvalidGeometry))
}

func TestGEOS_BufferContainsLine(t *testing.T) {
	eng := NewGEOS(model.CRS{})
	ls := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1000, 0})

	buf, err := eng.Buffer(ls, 100)
	require.NoError(t, err)
	require.NotNil(t, buf)

	// 1000 m line with a 100 m buffer: at least the 1000x200 core.
	area, err := eng.Area(buf)
	require.NoError(t, err)
	assert.Greater(t, area, 200_000.0)

	hit, err := eng.Intersects(buf, ls)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestGEOS_ClipLineAgainstPolygon(t *testing.T) {
	eng := NewGEOS(model.CRS{})

	// Line crossing the 1000x1000 square from x=-500 to x=1500.
	ls := geom.NewLineStringFlat(geom.XY, []float64{-500, 500, 1500, 500})
	clipped, err := eng.Clip(ls, square(1000))
	require.NoError(t, err)
	require.NotNil(t, clipped)

	length, err := eng.Length(clipped)
	require.NoError(t, err)
	assert.InDelta(t, 1000, length, 1e-6)
}

func TestGEOS_ClipDisjointIsEmpty(t *testing.T) {
	eng := NewGEOS(model.CRS{})

	ls := geom.NewLineStringFlat(geom.XY, []float64{5000, 5000, 6000, 5000})
	clipped, err := eng.Clip(ls, square(1000))
	require.NoError(t, err)
	assert.Nil(t, clipped)

	// Nil polygon means "no zone": also empty, not an error.
	clipped, err = eng.Clip(ls, nil)
	require.NoError(t, err)
	assert.Nil(t, clipped)
}

func TestGEOS_UnionMergesOverlappingBuffers(t *testing.T) {
	eng := NewGEOS(model.CRS{})

	// Two collinear overlapping stream reaches: the union must not double
	// count the overlap.
	a, err := eng.Buffer(geom.NewLineStringFlat(geom.XY, []float64{0, 0, 600, 0}), 100)
	require.NoError(t, err)
	b, err := eng.Buffer(geom.NewLineStringFlat(geom.XY, []float64{400, 0, 1000, 0}), 100)
	require.NoError(t, err)

	union, err := eng.Union([]geom.T{a, b})
	require.NoError(t, err)
	require.NotNil(t, union)

	areaA, err := eng.Area(a)
	require.NoError(t, err)
	areaB, err := eng.Area(b)
	require.NoError(t, err)
	areaU, err := eng.Area(union)
	require.NoError(t, err)
	assert.Less(t, areaU, areaA+areaB)

	empty, err := eng.Union(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}
