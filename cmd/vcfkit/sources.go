package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gusevfe/bio-db-vcf/internal/duckdb"
)

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sources",
		Short:   "List VCF files loaded into the database",
		Example: `  vcfkit sources`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := duckdb.Open(cfg.Load.DB)
			if err != nil {
				return err
			}
			defer store.Close()

			return runSources(cmd.OutOrStdout(), store)
		},
	}
}

func runSources(w io.Writer, store *duckdb.Store) error {
	sources, err := store.Sources()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tPATH\tSIZE\tSAMPLES\tRECORDS\tLOADED")
	for _, src := range sources {
		n, err := store.CountRecords(src.RunID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			src.RunID, src.Path, src.Size, src.SampleCount, n, src.LoadedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
