package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var archiveName string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive and restore event data",
}

var archiveCreateCmd = &cobra.Command{
	Use:   "create <eventKey>",
	Short: "Snapshot an event's dataset and records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		ae, err := a.archive.Archive(ctx, args[0], archiveName)
		if err != nil {
			return err
		}
		fmt.Printf("archived %s as #%d\n", ae.EventKey, ae.ID)
		return nil
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		archives, err := a.archive.List(ctx)
		if err != nil {
			return err
		}
		for _, ae := range archives {
			fmt.Printf("#%d  %s  %s  %s\n",
				ae.ID, ae.EventKey, ae.Name, ae.ArchivedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var archiveRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Restore an archived event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("id must be numeric: %s", args[0])
		}
		ctx := context.Background()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.close()

		snapshot, err := a.archive.Restore(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("restored %s\n", snapshot.EventKey)
		return nil
	},
}

func init() {
	archiveCreateCmd.Flags().StringVar(&archiveName, "name", "", "human-readable archive name")
	archiveCmd.AddCommand(archiveCreateCmd, archiveListCmd, archiveRestoreCmd)
	rootCmd.AddCommand(archiveCmd)
}
