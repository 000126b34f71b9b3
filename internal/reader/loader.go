// Package reader loads watershed, stream, and road shapefiles into typed
// in-memory records with a common projected coordinate system.
package reader

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/basinworks/roaddensity/internal/model"
)

// Inputs names the feature sources for one run.
type Inputs struct {
	WatershedPath    string
	IDField          string
	StreamPath       string
	RoadPath         string
	ProposedRoadPath string
}

// Dataset is the loaded, validated, co-projected input set.
type Dataset struct {
	CRS        model.CRS
	Watersheds []model.Watershed
	Streams    []model.StreamSegment
	Roads      []model.RoadSegment
}

// Load reads all sources, validates the watershed ID field, and reprojects
// streams and roads into the watershed coordinate system. It only reads;
// source data is never mutated.
func Load(ctx context.Context, in Inputs) (*Dataset, error) {
	log := zap.L().With(zap.String("component", "reader"))

	watersheds, crs, err := loadWatersheds(in.WatershedPath, in.IDField)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "reader: load cancelled")
	}

	streams, err := loadStreams(in.StreamPath, crs)
	if err != nil {
		return nil, err
	}

	roads, err := loadRoads(in.RoadPath, model.RoadExisting, crs)
	if err != nil {
		return nil, err
	}
	proposed, err := loadRoads(in.ProposedRoadPath, model.RoadProposed, crs)
	if err != nil {
		return nil, err
	}
	roads = append(roads, proposed...)

	log.Info("inputs loaded",
		zap.Int("watersheds", len(watersheds)),
		zap.Int("streams", len(streams)),
		zap.Int("roads", len(roads)),
		zap.Bool("geographic_crs", crs.Geographic),
	)

	return &Dataset{
		CRS:        crs,
		Watersheds: watersheds,
		Streams:    streams,
		Roads:      roads,
	}, nil
}

// loadWatersheds reads the watershed polygons and enforces the ID
// invariants: the field exists and every value is non-empty and unique.
func loadWatersheds(path, idField string) ([]model.Watershed, model.CRS, error) {
	crs, err := readCRS(path)
	if err != nil {
		return nil, model.CRS{}, err
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, model.CRS{}, eris.Wrapf(err, "reader: open watershed shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	idIdx := fieldIndex(reader, idField)
	if idIdx < 0 {
		return nil, model.CRS{}, eris.Wrapf(model.ErrSchema, "reader: id field %q not found in %s", idField, path)
	}

	var (
		watersheds []model.Watershed
		seen       = map[string]bool{}
		skipped    int
	)
	for reader.Next() {
		_, shape := reader.Shape()

		id := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))
		if id == "" {
			return nil, model.CRS{}, eris.Wrapf(model.ErrSchema, "reader: empty watershed id in %s", path)
		}
		if seen[id] {
			return nil, model.CRS{}, eris.Wrapf(model.ErrSchema, "reader: duplicate watershed id %q in %s", id, path)
		}
		seen[id] = true

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		g := polygonToMultiPolygon(poly)
		if g == nil {
			skipped++
			continue
		}

		watersheds = append(watersheds, model.Watershed{ID: id, Geom: g})
	}
	if skipped > 0 {
		zap.L().Warn("reader: skipped degenerate watershed shapes",
			zap.String("source", path), zap.Int("skipped", skipped))
	}

	return watersheds, crs, nil
}

func loadStreams(path string, target model.CRS) ([]model.StreamSegment, error) {
	lines, err := loadPolylines(path, target)
	if err != nil {
		return nil, err
	}
	streams := make([]model.StreamSegment, 0, len(lines))
	for _, g := range lines {
		streams = append(streams, model.StreamSegment{Geom: g})
	}
	return streams, nil
}

func loadRoads(path string, category model.RoadCategory, target model.CRS) ([]model.RoadSegment, error) {
	lines, err := loadPolylines(path, target)
	if err != nil {
		return nil, err
	}
	roads := make([]model.RoadSegment, 0, len(lines))
	for _, g := range lines {
		roads = append(roads, model.RoadSegment{Category: category, Geom: g})
	}
	return roads, nil
}

// loadPolylines reads all line shapes from a shapefile, reprojecting into
// the target CRS when the source disagrees.
func loadPolylines(path string, target model.CRS) ([]geom.T, error) {
	crs, err := readCRS(path)
	if err != nil {
		return nil, err
	}
	tf, err := newTransformer(crs, target)
	if err != nil {
		return nil, eris.Wrapf(err, "reader: source %s", path)
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reader: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var (
		lines   []geom.T
		skipped int
	)
	for reader.Next() {
		_, shape := reader.Shape()

		pl, ok := shape.(*shp.PolyLine)
		if !ok {
			skipped++
			continue
		}
		g := polyLineToMultiLineString(pl)
		if g == nil {
			skipped++
			continue
		}
		if err := tf.apply(g); err != nil {
			return nil, eris.Wrapf(err, "reader: source %s", path)
		}

		lines = append(lines, g)
	}
	if skipped > 0 {
		zap.L().Warn("reader: skipped degenerate line shapes",
			zap.String("source", path), zap.Int("skipped", skipped))
	}

	return lines, nil
}
