package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basinworks/roaddensity/internal/config"
	"github.com/basinworks/roaddensity/internal/model"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "roaddensity",
	Short: "Road density near streams, per watershed",
	Long:  "Buffers stream centerlines, classifies existing and proposed roads by stream proximity, and aggregates road-length density per watershed.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error (%s): %v\n", model.ErrorKind(err), err)
		os.Exit(1)
	}
}
