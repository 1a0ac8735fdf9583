package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pimformat/internal/preset"
)

func newPresetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage the stored preset reference table",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a preset source (.xlsx or .csv), replacing the stored table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cache, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			m, imported, err := cache.Import(ctx, args[0])
			if err != nil {
				return err
			}
			if imported {
				fmt.Fprintln(cmd.OutOrStdout(), "imported")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "unchanged; stored table reused")
			}
			printMeta(cmd.OutOrStdout(), m)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show where the stored preset table came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cache, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			m, err := cache.Status(ctx)
			if errors.Is(err, preset.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no preset stored")
				return nil
			}
			if err != nil {
				return err
			}
			printMeta(cmd.OutOrStdout(), m)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored preset table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cache, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			if err := cache.Delete(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "preset deleted")
			return nil
		},
	}

	cmd.AddCommand(importCmd, statusCmd, deleteCmd)
	return cmd
}

func printMeta(w io.Writer, m preset.Meta) {
	fmt.Fprintf(w, "source:      %s\n", m.Source)
	fmt.Fprintf(w, "fingerprint: %s\n", m.Fingerprint)
	fmt.Fprintf(w, "imported at: %s\n", m.ImportedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "rows:        %d\n", m.Rows)
	fmt.Fprintf(w, "columns:     %d\n", m.Columns)
}
