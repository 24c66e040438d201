package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/store"
	"github.com/yavuzhankeles/StaffLinuxMonitor/internal/version"
)

func newCollectCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Assemble one snapshot and print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			snap := newAssembler(cfg, logger).Assemble(cmd.Context())
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}

func newFetchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Print the snapshot the collector currently holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			client, err := newClient(cfg, logger)
			if err != nil {
				return err
			}
			snap, err := client.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch from %s: %w", client.Endpoint(), err)
			}
			return printJSON(cmd.OutOrStdout(), snap)
		},
	}
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int
	var id string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List snapshots in the local history store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.History.Path == "" {
				return errors.New("history store disabled: set history.path")
			}
			hist, err := store.OpenHistory(cmd.Context(), cfg.History.Path, version.Short())
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer hist.Close()

			if id != "" {
				snap, err := hist.Snapshot(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), snap)
			}

			entries, err := hist.ListSnapshots(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to list (0 lists all)")
	cmd.Flags().StringVar(&id, "id", "", "Print the stored snapshot with this id instead of listing")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntries(w io.Writer, entries []store.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCAPTURED\tHOST\tBYTES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.ID, e.CapturedAt, e.Hostname, e.Size)
	}
	return tw.Flush()
}
