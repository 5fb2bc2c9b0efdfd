package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gusevfe/bio-db-vcf/internal/duckdb"
)

func newQueryCmd() *cobra.Command {
	var sample string

	cmd := &cobra.Command{
		Use:   "query <chrom> <pos>",
		Short: "Show stored records at a position",
		Example: `  vcfkit query 20 14370
  vcfkit query --sample NA00001 20 14370`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[1], err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := duckdb.Open(cfg.Load.DB)
			if err != nil {
				return err
			}
			defer store.Close()

			return runQuery(cmd.OutOrStdout(), store, args[0], pos, sample)
		},
	}

	cmd.Flags().StringVar(&sample, "sample", "", "Also show this sample's genotype")
	return cmd
}

func runQuery(w io.Writer, store *duckdb.Store, chrom string, pos int64, sample string) error {
	rows, err := store.LookupPosition(chrom, pos)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "No records at %s:%d\n", chrom, pos)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tGT")
	for _, r := range rows {
		qual := "."
		if r.Qual.Valid {
			qual = strconv.FormatFloat(r.Qual.Float64, 'g', -1, 64)
		}
		gt := ""
		if sample != "" {
			g, ok, err := store.Genotype(r.RunID, r.Seq, sample)
			if err != nil {
				return err
			}
			if ok {
				gt = g.GT
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunID, r.Chrom, r.Pos, r.ID, r.Ref, r.Alt, qual, r.Filter, r.Info, gt)
	}
	return tw.Flush()
}
