package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"gridscout/internal/dataset"
	"gridscout/internal/sheets"
)

var (
	buildYear     int
	buildWorkbook string
	buildMatchTab string
	buildSuperTab string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage unified event datasets",
}

var datasetBuildCmd = &cobra.Command{
	Use:   "build <eventKey>",
	Short: "Build the unified dataset for an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		var scout dataset.ScoutingSource
		src, err := sheets.ResolveSource(ctx, a.store, a.sheetReader,
			args[0], buildWorkbook, buildMatchTab, buildSuperTab)
		if err != nil {
			return err
		}
		if src != nil {
			scout = src
		}
		ds, err := a.builder.Build(ctx, args[0], buildYear, scout)
		if err != nil {
			return err
		}
		fmt.Printf("built dataset for %s: %d teams, %d matches\n",
			ds.EventKey, len(ds.Teams), len(ds.Matches))
		return nil
	},
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		events, err := a.repo.List()
		if err != nil {
			return err
		}
		sort.Strings(events)
		for _, e := range events {
			fmt.Println(e)
		}
		return nil
	},
}

var datasetShowCmd = &cobra.Command{
	Use:   "show <eventKey>",
	Short: "Print a dataset as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		ds, err := a.repo.Load(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ds)
	},
}

func init() {
	datasetBuildCmd.Flags().IntVar(&buildYear, "year", 2025, "competition season year")
	datasetBuildCmd.Flags().StringVar(&buildWorkbook, "workbook", "", "local .xlsx scouting workbook")
	datasetBuildCmd.Flags().StringVar(&buildMatchTab, "match-tab", "", "match scouting tab name")
	datasetBuildCmd.Flags().StringVar(&buildSuperTab, "super-tab", "", "superscouting tab name")

	datasetCmd.AddCommand(datasetBuildCmd, datasetListCmd, datasetShowCmd)
	rootCmd.AddCommand(datasetCmd)
}
