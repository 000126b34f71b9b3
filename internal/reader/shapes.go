package reader

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// fieldIndex returns the index of a named attribute field, or -1. Shapefile
// field names are NUL-padded fixed-width, so both are stripped before the
// case-insensitive compare.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polyLineToMultiLineString converts a shapefile PolyLine to a
// geom.MultiLineString. Returns nil for degenerate input.
func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY)

	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		end := partEnd(pl.Parts, i, len(pl.Points))
		if end-start < 2 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}

		if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("reader: skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Ring orientation is significant in shapefiles: clockwise rings are outer
// boundaries, counter-clockwise rings are holes. Holes are attached as
// interior rings of the outer that encloses them, so area and clip
// operations see them as voids rather than additive geometry.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var (
		outers []*geom.Polygon
		holes  []*geom.LinearRing
	)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := partEnd(p.Parts, i, len(p.Points))
		if end-start < 4 {
			// A ring needs at least 3 distinct vertices plus closure.
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		if !ringIsClockwise(flat) {
			holes = append(holes, ring)
			continue
		}
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("reader: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		outers = append(outers, poly)
	}

	// Some writers ignore orientation. With no clockwise ring at all, treat
	// every ring as an outer boundary rather than dropping the shape.
	if len(outers) == 0 {
		for _, ring := range holes {
			poly := geom.NewPolygon(geom.XY)
			if err := poly.Push(ring); err != nil {
				continue
			}
			outers = append(outers, poly)
		}
		holes = nil
	}

	for _, hole := range holes {
		if !attachHole(outers, hole) {
			zap.L().Debug("reader: hole ring outside every outer ring")
		}
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for _, poly := range outers {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("reader: skipping malformed polygon part", zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// ringIsClockwise reports whether a closed XY ring winds clockwise, the
// shapefile convention for outer boundaries.
func ringIsClockwise(flat []float64) bool {
	var sum float64
	for i := 0; i+3 < len(flat); i += 2 {
		sum += flat[i]*flat[i+3] - flat[i+2]*flat[i+1]
	}
	return sum < 0
}

// attachHole pushes hole onto the first outer polygon whose boundary ring
// encloses the hole's first vertex.
func attachHole(outers []*geom.Polygon, hole *geom.LinearRing) bool {
	coords := hole.FlatCoords()
	for _, poly := range outers {
		if pointInRing(coords[0], coords[1], poly.LinearRing(0).FlatCoords()) {
			if err := poly.Push(hole); err == nil {
				return true
			}
		}
	}
	return false
}

// pointInRing is an even-odd ray cast against a closed XY ring.
func pointInRing(x, y float64, flat []float64) bool {
	inside := false
	for i := 0; i+3 < len(flat); i += 2 {
		x1, y1 := flat[i], flat[i+1]
		x2, y2 := flat[i+2], flat[i+3]
		if (y1 > y) != (y2 > y) && x < x1+(y-y1)/(y2-y1)*(x2-x1) {
			inside = !inside
		}
	}
	return inside
}

func partEnd(parts []int32, i int32, total int) int32 {
	if int(i)+1 < len(parts) {
		return parts[i+1]
	}
	return int32(total)
}
