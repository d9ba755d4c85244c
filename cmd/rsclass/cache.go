package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genomenote/rsclass/internal/duckdb"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show or clear the annotation table",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := duckdb.Open(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ids, rows, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store:       %s\n", store.Path())
			fmt.Fprintf(out, "Identifiers: %d\n", ids)
			fmt.Fprintf(out, "Rows:        %d\n", rows)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every annotation row",
		Long:  "Remove every annotation row. Stored reports and downloaded records are kept.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := duckdb.Open(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.ClearAnnotations(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Annotation table cleared")
			return nil
		},
	})

	return cmd
}
