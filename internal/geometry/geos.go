package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"

	"github.com/basinworks/roaddensity/internal/model"
)

// bufferQuadSegs controls the roundness of buffer ends. The default GEOS
// value (8) leaves visible facets at typical stream-buffer distances.
const bufferQuadSegs = 16

// GEOSEngine implements Engine on top of GEOS. Each instance owns its own
// geos.Context; a Context is not safe for concurrent use, so instances
// must not be shared across goroutines.
type GEOSEngine struct {
	ctx *geos.Context
	crs model.CRS
}

// NewGEOS returns an engine bound to the given canonical CRS.
func NewGEOS(crs model.CRS) *GEOSEngine {
	return &GEOSEngine{ctx: geos.NewContext(), crs: crs}
}

// GEOSFactory is the production Factory.
var GEOSFactory Factory = func(crs model.CRS) (Engine, error) {
	return NewGEOS(crs), nil
}

func (e *GEOSEngine) Buffer(g geom.T, distance float64) (geom.T, error) {
	if e.crs.Geographic {
		return nil, eris.Wrap(model.ErrUnprojectedCRS, "geometry: buffer distance is linear")
	}
	if isEmpty(g) {
		return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: buffer of empty geometry")
	}
	if distance <= 0 {
		return nil, eris.Wrapf(model.ErrInvalidGeometry, "geometry: buffer distance %v is not positive", distance)
	}

	gg, err := e.toGeos(g)
	if err != nil {
		return nil, err
	}
	return e.fromGeos(gg.Buffer(distance, bufferQuadSegs))
}

func (e *GEOSEngine) Union(gs []geom.T) (geom.T, error) {
	geoms := make([]*geos.Geom, 0, len(gs))
	for _, g := range gs {
		if isEmpty(g) {
			continue
		}
		gg, err := e.toGeos(g)
		if err != nil {
			return nil, err
		}
		geoms = append(geoms, gg)
	}
	if len(geoms) == 0 {
		return nil, nil
	}
	if len(geoms) == 1 {
		return e.fromGeos(geoms[0])
	}

	coll := e.ctx.NewCollection(geos.TypeIDGeometryCollection, geoms)
	return e.fromGeos(coll.UnaryUnion())
}

func (e *GEOSEngine) Clip(line, polygon geom.T) (geom.T, error) {
	if isEmpty(line) {
		return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: clip of empty line")
	}
	if isEmpty(polygon) {
		return nil, nil
	}

	gl, err := e.toGeos(line)
	if err != nil {
		return nil, err
	}
	gp, err := e.toGeos(polygon)
	if err != nil {
		return nil, err
	}

	clipped := gl.Intersection(gp)
	if clipped == nil || clipped.IsEmpty() {
		return nil, nil
	}
	return e.fromGeos(clipped)
}

func (e *GEOSEngine) Intersects(a, b geom.T) (bool, error) {
	if isEmpty(a) || isEmpty(b) {
		return false, nil
	}
	ga, err := e.toGeos(a)
	if err != nil {
		return false, err
	}
	gb, err := e.toGeos(b)
	if err != nil {
		return false, err
	}
	return ga.Intersects(gb), nil
}

func (e *GEOSEngine) Length(g geom.T) (float64, error) {
	if e.crs.Geographic {
		return 0, eris.Wrap(model.ErrUnprojectedCRS, "geometry: length in angular units")
	}
	if g == nil {
		return 0, nil
	}
	gg, err := e.toGeos(g)
	if err != nil {
		return 0, err
	}
	return gg.Length(), nil
}

func (e *GEOSEngine) Area(g geom.T) (float64, error) {
	if e.crs.Geographic {
		return 0, eris.Wrap(model.ErrUnprojectedCRS, "geometry: area in angular units")
	}
	if g == nil {
		return 0, nil
	}
	gg, err := e.toGeos(g)
	if err != nil {
		return 0, err
	}
	return gg.Area(), nil
}

// toGeos moves a go-geom value into this engine's GEOS context via WKB.
func (e *GEOSEngine) toGeos(g geom.T) (*geos.Geom, error) {
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geometry: encode WKB")
	}
	gg, err := e.ctx.NewGeomFromWKB(data)
	if err != nil {
		return nil, eris.Wrap(model.ErrInvalidGeometry, "geometry: decode into engine")
	}
	return gg, nil
}

// fromGeos moves a GEOS geometry back into a go-geom value.
func (e *GEOSEngine) fromGeos(gg *geos.Geom) (geom.T, error) {
	if gg == nil || gg.IsEmpty() {
		return nil, nil
	}
	out, err := wkb.Unmarshal(gg.ToWKB())
	if err != nil {
		return nil, eris.Wrap(err, "geometry: decode WKB from engine")
	}
	return out, nil
}
