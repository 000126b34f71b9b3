package main

import (
	"fmt"
	"io"
	"math"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basinworks/roaddensity/internal/config"
	"github.com/basinworks/roaddensity/internal/density"
	"github.com/basinworks/roaddensity/internal/geometry"
	"github.com/basinworks/roaddensity/internal/model"
	"github.com/basinworks/roaddensity/internal/reader"
)

var (
	runWatersheds  string
	runIDField     string
	runStreams     string
	runRoads       string
	runProposed    string
	runDistance    string
	runOut         string
	runOverwrite   bool
	runExportRoads bool
	runWorkers     int
	runReport      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the road-density analysis",
	Long: `Runs the full analysis: loads watersheds, streams, and roads, buffers
the streams, classifies roads by stream proximity, aggregates lengths and
densities per watershed, and writes the result table.

Examples:
  # Defaults: 100 m buffer, results.csv in the output directory
  roaddensity run --watersheds ws.shp --id-field HUC10 --streams streams.shp \
      --roads roads.shp --proposed-roads planned.shp --out ./out

  # Wider buffer, spreadsheet output, keep classified road geometries
  roaddensity run --watersheds ws.shp --id-field HUC10 --streams streams.shp \
      --roads roads.shp --proposed-roads planned.shp \
      --distance "250 meters" --out ./out/results.xlsx --export-roads`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		distStr := runDistance
		if distStr == "" {
			distStr = cfg.Density.Distance
		}
		distanceM, err := config.ParseDistance(distStr)
		if err != nil {
			return err
		}

		workers := runWorkers
		if workers <= 0 {
			workers = cfg.Density.Workers
		}
		reportN := runReport
		if reportN < 0 {
			reportN = cfg.Density.Report
		}

		opts := density.Options{
			Inputs: reader.Inputs{
				WatershedPath:    runWatersheds,
				IDField:          runIDField,
				StreamPath:       runStreams,
				RoadPath:         runRoads,
				ProposedRoadPath: runProposed,
			},
			DistanceM:   distanceM,
			MinAreaM2:   cfg.Density.MinAreaM2,
			Workers:     workers,
			Destination: runOut,
			Overwrite:   runOverwrite || cfg.Output.Overwrite,
			ExportRoads: runExportRoads || cfg.Output.ExportRoads,
		}

		records, err := density.Run(ctx, geometry.GEOSFactory, opts)
		if err != nil {
			return eris.Wrap(err, "run")
		}

		zap.L().Info("analysis complete",
			zap.Int("watersheds", len(records)),
			zap.String("table", density.ResolveDestination(runOut)),
		)
		printChangeReport(cmd.OutOrStdout(), records, reportN)
		return nil
	},
}

// printChangeReport lists the watersheds whose near-stream density changes
// most once proposed roads are added, largest change first.
func printChangeReport(w io.Writer, records []model.DensityRecord, n int) {
	if n <= 0 || len(records) == 0 {
		return
	}

	sorted := make([]model.DensityRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return densityChange(sorted[i]) > densityChange(sorted[j])
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	fmt.Fprintf(w, "%-27s %10s %10s %10s\n", "watershed", "existing", "future", "change")
	for _, rec := range sorted {
		fmt.Fprintf(w, "%-27.27s %10.6f %10.6f %10.6f\n",
			rec.WatershedID,
			rec.ExistingNearDensity,
			rec.CombinedNearDensity(),
			densityChange(rec),
		)
	}
}

func densityChange(rec model.DensityRecord) float64 {
	return math.Abs(rec.CombinedNearDensity() - rec.ExistingNearDensity)
}

func init() {
	runCmd.Flags().StringVar(&runWatersheds, "watersheds", "", "watershed polygon shapefile (required)")
	runCmd.Flags().StringVar(&runIDField, "id-field", "", "unique watershed ID field (required)")
	runCmd.Flags().StringVar(&runStreams, "streams", "", "stream line shapefile (required)")
	runCmd.Flags().StringVar(&runRoads, "roads", "", "existing road line shapefile (required)")
	runCmd.Flags().StringVar(&runProposed, "proposed-roads", "", "proposed road line shapefile (required)")
	runCmd.Flags().StringVar(&runDistance, "distance", "", `stream buffer distance, e.g. "100 meters"`)
	runCmd.Flags().StringVar(&runOut, "out", "", "output table path or directory (required)")
	runCmd.Flags().BoolVar(&runOverwrite, "overwrite", false, "replace existing output")
	runCmd.Flags().BoolVar(&runExportRoads, "export-roads", false, "also export classified road geometries")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "parallel watershed workers (0 = config default)")
	runCmd.Flags().IntVar(&runReport, "report", -1, "rows in the density-change report (-1 = config default, 0 = off)")

	for _, flag := range []string{"watersheds", "id-field", "streams", "roads", "proposed-roads", "out"} {
		_ = runCmd.MarkFlagRequired(flag)
	}

	rootCmd.AddCommand(runCmd)
}
