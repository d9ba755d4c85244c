package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genomenote/rsclass/internal/genotype"
	"github.com/genomenote/rsclass/internal/refsnp"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <genotype-file>",
		Short: "Download missing RefSNP records for a raw data file",
		Long: `Download the RefSNP record of every identifier in the raw data file that is
not yet on disk. Nothing is fetched during the blackout window.`,
		Example: `  rsclass fetch user42_file7.23andme.txt`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			logger := zap.L()

			calls, _, err := genotype.ReadFile(args[0])
			if err != nil {
				return err
			}
			studied, err := loadStudied(cfg.Citations, logger)
			if err != nil {
				return err
			}

			var ids []string
			for _, id := range genotype.Identifiers(calls) {
				if refsnp.IsIdentifier(id) {
					ids = append(ids, id)
				}
			}
			if studied != nil {
				ids = studied.Filter(ids)
			}

			client := newClient(cfg.Fetch, logger)
			fresh, err := client.HasNewBulkData(cmd.Context(), ids)
			if errors.Is(err, refsnp.ErrOffline) {
				fmt.Fprintln(os.Stderr, "Downloads are disabled (fetch.allow_download=false); nothing fetched")
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if fresh {
				fmt.Fprintf(out, "Fetched %d new records for %d identifiers\n", client.Fetches(), len(ids))
			} else {
				fmt.Fprintf(out, "No new records fetched for %d identifiers\n", len(ids))
			}
			return nil
		},
	}
}
