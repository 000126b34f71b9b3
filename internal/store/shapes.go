package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/basinworks/roaddensity/internal/model"
)

// shapefileParts are the sidecar extensions go-shp produces for one layer.
var shapefileParts = []string{".shp", ".shx", ".dbf"}

// ExportRoads writes the classified road geometries to a shapefile for
// inspection, with category and near/far length attributes per feature.
// Like the tabular writers, output is staged under a temporary name and
// renamed into place.
func ExportRoads(roads []model.ClassifiedRoad, crs model.CRS, dest string, overwrite bool) error {
	for _, ext := range shapefileParts {
		if err := CheckDestination(swapExt(dest, ext), overwrite); err != nil {
			return err
		}
	}

	tmpBase := filepath.Join(filepath.Dir(dest), fmt.Sprintf(".roads-%d.shp", os.Getpid()))
	if err := writeRoadsShapefile(roads, tmpBase); err != nil {
		removeShapefile(tmpBase)
		return err
	}

	for _, ext := range shapefileParts {
		if err := os.Rename(swapExt(tmpBase, ext), swapExt(dest, ext)); err != nil {
			removeShapefile(tmpBase)
			return eris.Wrapf(model.ErrWrite, "store: move %s export into place", ext)
		}
	}

	if crs.WKT != "" {
		if err := os.WriteFile(swapExt(dest, ".prj"), []byte(crs.WKT), 0o644); err != nil {
			return eris.Wrap(model.ErrWrite, "store: write export .prj")
		}
	}
	return nil
}

func writeRoadsShapefile(roads []model.ClassifiedRoad, path string) error {
	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return eris.Wrap(model.ErrWrite, "store: create roads shapefile")
	}
	defer w.Close()

	fields := []shp.Field{
		shp.StringField("CATEGORY", 16),
		shp.FloatField("NEAR_KM", 19, 11),
		shp.FloatField("FAR_KM", 19, 11),
		shp.FloatField("TOTAL_KM", 19, 11),
	}
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(model.ErrWrite, "store: set export fields")
	}

	for _, road := range roads {
		parts := lineParts(road.Geom)
		if len(parts) == 0 {
			continue
		}
		row := int(w.Write(shp.NewPolyLine(parts)))

		attrs := []any{
			string(road.Category),
			road.NearLength / metersPerKM,
			road.FarLength / metersPerKM,
			road.TotalLength / metersPerKM,
		}
		for i, v := range attrs {
			if err := w.WriteAttribute(row, i, v); err != nil {
				return eris.Wrap(model.ErrWrite, "store: write export attribute")
			}
		}
	}

	return nil
}

const metersPerKM = 1000.0

// lineParts flattens a line geometry into go-shp part/point form.
func lineParts(g geom.T) [][]shp.Point {
	switch line := g.(type) {
	case *geom.LineString:
		return [][]shp.Point{coordsToPoints(line.FlatCoords(), line.Stride())}
	case *geom.MultiLineString:
		parts := make([][]shp.Point, 0, line.NumLineStrings())
		for i := 0; i < line.NumLineStrings(); i++ {
			ls := line.LineString(i)
			parts = append(parts, coordsToPoints(ls.FlatCoords(), ls.Stride()))
		}
		return parts
	default:
		return nil
	}
}

func coordsToPoints(flat []float64, stride int) []shp.Point {
	points := make([]shp.Point, 0, len(flat)/stride)
	for i := 0; i+1 < len(flat); i += stride {
		points = append(points, shp.Point{X: flat[i], Y: flat[i+1]})
	}
	return points
}

func swapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func removeShapefile(base string) {
	for _, ext := range shapefileParts {
		_ = os.Remove(swapExt(base, ext))
	}
}

// RemoveExport deletes a classified-roads export and its sidecars. The
// pipeline uses it to roll back the export when a later write in the same
// run fails.
func RemoveExport(dest string) {
	removeShapefile(dest)
	_ = os.Remove(swapExt(dest, ".prj"))
}
