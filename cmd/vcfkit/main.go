// Package main provides the vcfkit command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Config holds settings read from ~/.vcfkit.yaml and VCFKIT_* environment variables.
type Config struct {
	Decode struct {
		Workers     int  `mapstructure:"workers"`
		SkipInvalid bool `mapstructure:"skip_invalid"`
	} `mapstructure:"decode"`
	Load struct {
		DB             string        `mapstructure:"db"`
		BatchSize      int           `mapstructure:"batch_size"`
		LockTimeout    time.Duration `mapstructure:"lock_timeout"`
		NormalizeChrom bool          `mapstructure:"normalize_chrom"`
	} `mapstructure:"load"`
}

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "vcfkit",
		Short:        "Typed Variant Call Format decoding",
		Long:         "vcfkit parses VCF headers into a typed schema and decodes records against it.",
		Version:      fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			l, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.vcfkit.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug) logging")

	root.AddCommand(newHeaderCmd())
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newLoadCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newSourcesCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig reads the config file and environment.
func initConfig() error {
	viper.SetDefault("decode.workers", 0)
	viper.SetDefault("decode.skip_invalid", false)
	viper.SetDefault("load.db", defaultDBPath())
	viper.SetDefault("load.batch_size", 1000)
	viper.SetDefault("load.lock_timeout", 30*time.Second)
	viper.SetDefault("load.normalize_chrom", false)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".vcfkit")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VCFKIT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// bindFlags binds a command's flags to config keys. Binding happens per
// invocation because several commands share a key.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// loadConfig decodes the merged settings into a Config.
func loadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vcfkit.duckdb"
	}
	return filepath.Join(home, ".vcfkit", "variants.duckdb")
}

// newLogger builds a stderr logger: JSON at info level, or console at debug level when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
