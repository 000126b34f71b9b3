package density

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/basinworks/roaddensity/internal/geometry"
	"github.com/basinworks/roaddensity/internal/model"
	"github.com/basinworks/roaddensity/internal/reader"
	"github.com/basinworks/roaddensity/internal/store"
)

// Options configures one pipeline run.
type Options struct {
	Inputs reader.Inputs

	// DistanceM is the stream buffer distance in meters.
	DistanceM float64
	// MinAreaM2 excludes sliver watersheds from aggregation.
	MinAreaM2 float64
	// Workers bounds parallel per-watershed aggregation.
	Workers int

	// Destination is the output table path, or a directory in which
	// results.csv is created.
	Destination string
	Overwrite   bool
	// ExportRoads additionally writes the classified road geometries next
	// to the result table for inspection.
	ExportRoads bool
}

// Run executes one road-density analysis: load, classify, aggregate,
// write. It aborts on the first component failure and produces no partial
// output; retry is left to the caller. The context is checked between
// stages and between watersheds so long batches can be cancelled before
// anything is written.
func Run(ctx context.Context, factory geometry.Factory, opts Options) ([]model.DensityRecord, error) {
	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("run_id", runID),
	)
	log.Info("starting road-density run",
		zap.Float64("distance_m", opts.DistanceM),
		zap.String("destination", opts.Destination),
	)

	ds, err := reader.Load(ctx, opts.Inputs)
	if err != nil {
		return nil, err
	}
	if len(ds.Watersheds) == 0 {
		return nil, eris.Wrap(model.ErrSchema, "pipeline: watershed source has no usable polygons")
	}

	eng, err := factory(ds.CRS)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create engine")
	}

	classification, err := Classify(ctx, eng, ds, opts.DistanceM)
	if err != nil {
		return nil, err
	}

	records, err := Aggregate(ctx, factory, ds.CRS, ds.Watersheds, classification.Roads, AggregateOptions{
		MinAreaM2: opts.MinAreaM2,
		Workers:   opts.Workers,
	})
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: cancelled before write")
	}

	tablePath := ResolveDestination(opts.Destination)
	if err := store.CheckDestination(tablePath, opts.Overwrite); err != nil {
		return nil, err
	}

	// The export goes first and is rolled back if the table write fails,
	// so a failed run never leaves one artifact without the other.
	var shpPath string
	if opts.ExportRoads {
		shpPath = roadsExportPath(tablePath)
		if err := store.ExportRoads(classification.Roads, ds.CRS, shpPath, opts.Overwrite); err != nil {
			return nil, err
		}
	}

	if err := store.WriteRecords(records, tablePath, opts.Overwrite); err != nil {
		if shpPath != "" {
			store.RemoveExport(shpPath)
		}
		return nil, err
	}
	if shpPath != "" {
		log.Info("classified roads exported", zap.String("path", shpPath))
	}

	log.Info("run complete",
		zap.Int("records", len(records)),
		zap.String("table", tablePath),
	)
	return records, nil
}

// ResolveDestination maps a destination to a concrete table path. A path
// with no extension is treated as a directory receiving results.csv.
func ResolveDestination(dest string) string {
	if filepath.Ext(dest) == "" {
		return filepath.Join(dest, "results.csv")
	}
	return dest
}

// roadsExportPath places the classified-roads shapefile next to the result
// table.
func roadsExportPath(tablePath string) string {
	return filepath.Join(filepath.Dir(tablePath), "classified_roads.shp")
}
