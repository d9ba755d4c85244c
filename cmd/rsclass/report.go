package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genomenote/rsclass/internal/duckdb"
	"github.com/genomenote/rsclass/internal/output"
)

func newReportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "Print a stored report",
		Long: `Print the classified calls stored for a run id (shown by analyze) as
tab-separated text or as an XLSX workbook on stdout.`,
		Example: `  rsclass report 5f0c3a4e-8d1b-4c8e-9a57-2b7f1c0d9e61
  rsclass report --format xlsx 5f0c3a4e-8d1b-4c8e-9a57-2b7f1c0d9e61 > report.xlsx`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "tab" && format != "xlsx" {
				return usageError{fmt.Errorf("unknown report format %q (want tab or xlsx)", format)}
			}

			store, err := duckdb.Open(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			calls, err := store.LoadReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(calls) == 0 {
				return fmt.Errorf("no report stored for run %q", args[0])
			}

			out := cmd.OutOrStdout()
			if format == "tab" {
				return encodeTab(out, calls)
			}
			xw, err := output.NewXLSXWriter()
			if err != nil {
				return err
			}
			for _, cc := range calls {
				xw.Write(cc)
			}
			return xw.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "tab", "Output format: tab or xlsx")
	return cmd
}
