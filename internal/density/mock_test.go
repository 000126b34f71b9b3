package density

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/basinworks/roaddensity/internal/geometry"
	"github.com/basinworks/roaddensity/internal/model"
)

// planarEngine is a simple axis-aligned engine for tests: buffers are
// bounding-box expansions, polygons are treated as rectangles, and lines
// are clipped with Liang-Barsky. Exact for the rectangular fixtures used
// here, which keeps expected values computable by hand.
type planarEngine struct {
	crs model.CRS
}

func planarFactory(crs model.CRS) (geometry.Engine, error) {
	return &planarEngine{crs: crs}, nil
}

type rect struct {
	minX, minY, maxX, maxY float64
}

func (e *planarEngine) Buffer(g geom.T, distance float64) (geom.T, error) {
	if g == nil || len(g.FlatCoords()) == 0 {
		return nil, model.ErrInvalidGeometry
	}
	if distance <= 0 {
		return nil, model.ErrInvalidGeometry
	}
	b := g.Bounds()
	return rectPolygon(rect{
		minX: b.Min(0) - distance,
		minY: b.Min(1) - distance,
		maxX: b.Max(0) + distance,
		maxY: b.Max(1) + distance,
	}), nil
}

func (e *planarEngine) Union(gs []geom.T) (geom.T, error) {
	var rects []rect
	for _, g := range gs {
		if g == nil {
			continue
		}
		rects = append(rects, rectsOf(g)...)
	}
	if len(rects) == 0 {
		return nil, nil
	}
	if len(rects) == 1 {
		return rectPolygon(rects[0]), nil
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for _, r := range rects {
		_ = mp.Push(rectPolygon(r))
	}
	return mp, nil
}

func (e *planarEngine) Clip(line, polygon geom.T) (geom.T, error) {
	if line == nil || len(line.FlatCoords()) == 0 {
		return nil, model.ErrInvalidGeometry
	}
	if polygon == nil {
		return nil, nil
	}

	out := geom.NewMultiLineString(geom.XY)
	for _, r := range rectsOf(polygon) {
		for _, seg := range segmentsOf(line) {
			if clipped, ok := clipSegment(seg, r); ok {
				_ = out.Push(geom.NewLineStringFlat(geom.XY, clipped[:]))
			}
		}
	}
	if out.NumLineStrings() == 0 {
		return nil, nil
	}
	return out, nil
}

func (e *planarEngine) Intersects(a, b geom.T) (bool, error) {
	if a == nil || b == nil {
		return false, nil
	}
	ba, bb := a.Bounds(), b.Bounds()
	return ba.Min(0) <= bb.Max(0) && bb.Min(0) <= ba.Max(0) &&
		ba.Min(1) <= bb.Max(1) && bb.Min(1) <= ba.Max(1), nil
}

func (e *planarEngine) Length(g geom.T) (float64, error) {
	if e.crs.Geographic {
		return 0, model.ErrUnprojectedCRS
	}
	if g == nil {
		return 0, nil
	}
	var total float64
	for _, seg := range segmentsOf(g) {
		total += math.Hypot(seg[2]-seg[0], seg[3]-seg[1])
	}
	return total, nil
}

func (e *planarEngine) Area(g geom.T) (float64, error) {
	if e.crs.Geographic {
		return 0, model.ErrUnprojectedCRS
	}
	if g == nil {
		return 0, nil
	}
	var total float64
	for _, r := range rectsOf(g) {
		total += (r.maxX - r.minX) * (r.maxY - r.minY)
	}
	return total, nil
}

// segment is x1, y1, x2, y2.
type segment [4]float64

func segmentsOf(g geom.T) []segment {
	var segs []segment
	switch line := g.(type) {
	case *geom.LineString:
		segs = lineSegments(line.FlatCoords(), line.Stride())
	case *geom.MultiLineString:
		for i := 0; i < line.NumLineStrings(); i++ {
			ls := line.LineString(i)
			segs = append(segs, lineSegments(ls.FlatCoords(), ls.Stride())...)
		}
	}
	return segs
}

func lineSegments(flat []float64, stride int) []segment {
	var segs []segment
	for i := 0; i+stride+1 < len(flat); i += stride {
		segs = append(segs, segment{flat[i], flat[i+1], flat[i+stride], flat[i+stride+1]})
	}
	return segs
}

func rectsOf(g geom.T) []rect {
	boundsRect := func(t geom.T) rect {
		b := t.Bounds()
		return rect{minX: b.Min(0), minY: b.Min(1), maxX: b.Max(0), maxY: b.Max(1)}
	}
	switch p := g.(type) {
	case *geom.Polygon:
		return []rect{boundsRect(p)}
	case *geom.MultiPolygon:
		rects := make([]rect, 0, p.NumPolygons())
		for i := 0; i < p.NumPolygons(); i++ {
			rects = append(rects, boundsRect(p.Polygon(i)))
		}
		return rects
	default:
		return nil
	}
}

func rectPolygon(r rect) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		r.minX, r.minY,
		r.maxX, r.minY,
		r.maxX, r.maxY,
		r.minX, r.maxY,
		r.minX, r.minY,
	}, []int{10})
}

// clipSegment applies Liang-Barsky clipping of one segment against a rect.
func clipSegment(s segment, r rect) (segment, bool) {
	dx := s[2] - s[0]
	dy := s[3] - s[1]
	t0, t1 := 0.0, 1.0

	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{s[0] - r.minX, r.maxX - s[0], s[1] - r.minY, r.maxY - s[1]}

	for i := 0; i < 4; i++ {
		if p[i] == 0 {
			if q[i] < 0 {
				return segment{}, false
			}
			continue
		}
		t := q[i] / p[i]
		if p[i] < 0 {
			if t > t1 {
				return segment{}, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return segment{}, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}

	if t0 >= t1 {
		return segment{}, false
	}
	return segment{
		s[0] + t0*dx, s[1] + t0*dy,
		s[0] + t1*dx, s[1] + t1*dy,
	}, true
}
