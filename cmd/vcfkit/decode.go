package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gusevfe/bio-db-vcf/internal/vcf"
)

func newDecodeCmd() *cobra.Command {
	var (
		outputFile string
		passOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "decode <input-file>",
		Short: "Decode VCF records into JSON lines",
		Long: `Decode every record of a VCF file against its header and write one JSON
object per record, in input order. Use '-' to read stdin.`,
		Example: `  vcfkit decode input.vcf
  vcfkit decode --pass-only -o pass.jsonl input.vcf
  cat input.vcf | vcfkit decode --workers 4 -`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"decode.workers":      "workers",
				"decode.skip_invalid": "skip-invalid",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			return runDecode(cmd.Context(), args[0], out, cfg, passOnly)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&passOnly, "pass-only", false, "Only emit records whose FILTER is PASS")
	cmd.Flags().Int("workers", 0, "Decoding workers (default: number of CPUs)")
	cmd.Flags().Bool("skip-invalid", false, "Log and skip records that fail to decode instead of stopping")

	return cmd
}

func runDecode(ctx context.Context, path string, w io.Writer, cfg *Config, passOnly bool) error {
	r, err := vcf.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	r.SetLogger(logger)

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	var written, skipped int
	err = r.DecodeAll(ctx, cfg.Decode.Workers, func(res vcf.WorkResult) error {
		if res.Err != nil {
			if !cfg.Decode.SkipInvalid {
				return res.Err
			}
			skipped++
			logger.Warn("skipping record", zap.Int("line", res.Line), zap.Error(res.Err))
			return nil
		}
		if passOnly && !res.Record.Pass() {
			return nil
		}
		written++
		return enc.Encode(res.Record)
	})
	if err != nil {
		return err
	}

	logger.Info("decoded records",
		zap.String("input", path),
		zap.Int("written", written),
		zap.Int("skipped", skipped))

	return bw.Flush()
}
