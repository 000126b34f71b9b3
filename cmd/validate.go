package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/basinworks/roaddensity/internal/reader"
)

var (
	validateWatersheds string
	validateIDField    string
	validateStreams    string
	validateRoads      string
	validateProposed   string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate inputs without running the analysis",
	Long:  "Loads all sources, checks the watershed ID field for presence and uniqueness, and verifies the inputs share a usable projected coordinate system.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ds, err := reader.Load(ctx, reader.Inputs{
			WatershedPath:    validateWatersheds,
			IDField:          validateIDField,
			StreamPath:       validateStreams,
			RoadPath:         validateRoads,
			ProposedRoadPath: validateProposed,
		})
		if err != nil {
			return eris.Wrap(err, "validate")
		}

		crsKind := "projected"
		if ds.CRS.Geographic {
			crsKind = "geographic (angular units; run will fail on measurement)"
		}
		if ds.CRS.WKT == "" {
			crsKind = "unknown (no .prj)"
		}

		fmt.Printf("watersheds: %d\n", len(ds.Watersheds))
		fmt.Printf("streams:    %d\n", len(ds.Streams))
		fmt.Printf("roads:      %d\n", len(ds.Roads))
		fmt.Printf("crs:        %s\n", crsKind)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateWatersheds, "watersheds", "", "watershed polygon shapefile (required)")
	validateCmd.Flags().StringVar(&validateIDField, "id-field", "", "unique watershed ID field (required)")
	validateCmd.Flags().StringVar(&validateStreams, "streams", "", "stream line shapefile (required)")
	validateCmd.Flags().StringVar(&validateRoads, "roads", "", "existing road line shapefile (required)")
	validateCmd.Flags().StringVar(&validateProposed, "proposed-roads", "", "proposed road line shapefile (required)")

	for _, flag := range []string{"watersheds", "id-field", "streams", "roads", "proposed-roads"} {
		_ = validateCmd.MarkFlagRequired(flag)
	}

	rootCmd.AddCommand(validateCmd)
}
