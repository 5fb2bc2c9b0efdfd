package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gusevfe/bio-db-vcf/internal/duckdb"
	"github.com/gusevfe/bio-db-vcf/internal/vcf"
)

func newLoadCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "load <input-file>",
		Short: "Decode a VCF file and store it in DuckDB",
		Long: `Decode every record of a VCF file and store the header, records and
per-sample genotypes in a DuckDB database. A file that was already loaded and
has not changed since is skipped unless --force is given.`,
		Example: `  vcfkit load input.vcf
  vcfkit load --db /data/variants.duckdb --batch-size 5000 input.vcf`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"load.db":             "db",
				"load.batch_size":     "batch-size",
				"decode.workers":      "workers",
				"decode.skip_invalid": "skip-invalid",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runLoad(cmd.Context(), args[0], cfg, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reload even if the file is unchanged")
	cmd.Flags().String("db", "", "DuckDB database path (default: ~/.vcfkit/variants.duckdb)")
	cmd.Flags().Int("batch-size", 0, "Records per DuckDB append batch")
	cmd.Flags().Int("workers", 0, "Decoding workers (default: number of CPUs)")
	cmd.Flags().Bool("skip-invalid", false, "Log and skip records that fail to decode instead of stopping")

	return cmd
}

func runLoad(ctx context.Context, path string, cfg *Config, force bool) error {
	fp, err := duckdb.StatFile(path)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	unlock, err := acquireDBLock(cfg.Load.DB+".lock", cfg.Load.LockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	store, err := duckdb.Open(cfg.Load.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	if prev, found, err := store.FindSource(fp); err != nil {
		return err
	} else if found {
		if !force {
			logger.Info("file already loaded, skipping", zap.String("input", path), zap.String("run_id", prev))
			return nil
		}
		if err := store.ClearRun(prev); err != nil {
			return fmt.Errorf("clear previous run: %w", err)
		}
	}

	r, err := vcf.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	r.SetLogger(logger)

	runID := uuid.NewString()
	if err := store.WriteSource(runID, fp, r.Schema()); err != nil {
		return fmt.Errorf("write source: %w", err)
	}

	batchSize := cfg.Load.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	batch := make([]duckdb.SeqRecord, 0, batchSize)
	var total, skipped int

	flush := func() error {
		if err := store.WriteRecords(runID, batch, cfg.Load.NormalizeChrom); err != nil {
			return fmt.Errorf("write records: %w", err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err = r.DecodeAll(ctx, cfg.Decode.Workers, func(res vcf.WorkResult) error {
		if res.Err != nil {
			if !cfg.Decode.SkipInvalid {
				return res.Err
			}
			skipped++
			logger.Warn("skipping record", zap.Int("line", res.Line), zap.Error(res.Err))
			return nil
		}
		batch = append(batch, duckdb.SeqRecord{Seq: res.Seq, Record: res.Record})
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		if cerr := store.ClearRun(runID); cerr != nil {
			logger.Error("failed to clear partial run", zap.String("run_id", runID), zap.Error(cerr))
		}
		return err
	}

	logger.Info("loaded records",
		zap.String("input", path),
		zap.String("db", cfg.Load.DB),
		zap.String("run_id", runID),
		zap.Int("records", total),
		zap.Int("skipped", skipped))
	fmt.Printf("Loaded %d records from %s (run %s)\n", total, path, runID)
	return nil
}

// acquireDBLock obtains an exclusive lock next to the database file.
func acquireDBLock(lockPath string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return func() {}, fmt.Errorf("create database directory: %w", err)
	}
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire database lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another load is in progress (lock: %s)", lockPath)
		}
		logger.Debug("waiting for database lock", zap.String("lock", lockPath))
		time.Sleep(200 * time.Millisecond)
	}
}
