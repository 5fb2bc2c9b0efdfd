package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vcfkit configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vcfkit.yaml.",
		Example: `  vcfkit config                         # show effective config
  vcfkit config set load.batch_size 5000   # larger DuckDB batches
  vcfkit config get decode.workers         # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Printf("# Config file: %s\n", used)
	}
	fmt.Print(string(out))
	return nil
}

// configKeys lists the settable keys and the kind of value each takes.
var configKeys = map[string]string{
	"decode.workers":       "int",
	"decode.skip_invalid":  "bool",
	"load.db":              "path",
	"load.batch_size":      "int",
	"load.lock_timeout":    "duration",
	"load.normalize_chrom": "bool",
}

// parseConfigValue converts value to the kind registered for key.
func parseConfigValue(key, value string) (any, error) {
	kind, ok := configKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key %q", key)
	}
	switch kind {
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
		}
		return n, nil
	case "bool":
		switch value {
		case "true", "yes", "on":
			return true, nil
		case "false", "no", "off":
			return false, nil
		}
		return nil, fmt.Errorf("%s must be true or false, got %q", key, value)
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return d.String(), nil
	default:
		return value, nil
	}
}

func runConfigSet(key, value string) error {
	v, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}
	viper.Set(key, v)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".vcfkit.yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	logger.Debug("config updated", zap.String("key", key), zap.String("file", cfgFile))
	fmt.Printf("Set %s = %v in %s\n", key, v, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	if _, ok := configKeys[key]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if !viper.IsSet(key) {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(viper.Get(key))
	return nil
}
