// GridScout is an FRC scouting-data aggregator: it merges scouting
// spreadsheets, The Blue Alliance, and Statbotics into per-event unified
// datasets and generates LLM-ranked alliance-selection picklists.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gridscout/internal/config"
	"gridscout/internal/logging"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gridscout",
	Short: "FRC scouting data aggregation and picklist generation",
	Long: `GridScout merges match scouting spreadsheets, The Blue Alliance, and
Statbotics EPA data into one unified dataset per event, then uses an LLM to
generate ranked alliance-selection picklists from weighted priorities.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return logging.Initialize(cfg.Logging.Level, cfg.Logging.Format)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "gridscout.yaml", "path to config file")
}

func main() {
	defer logging.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
