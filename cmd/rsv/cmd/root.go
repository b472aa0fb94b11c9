/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/rsv/pkg/config"
	"github.com/ssargent/rsv/pkg/di"
	"github.com/ssargent/rsv/pkg/logging"
)

var container *di.Container

// SetContainer injects the dependency container
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rsv",
	Short: "rsv - Rows of String Values toolkit",
	Long: `rsv reads, writes and stores RSV streams: rows of UTF-8 strings framed
by the bytes 0xFF (end of value), 0xFE (null) and 0xFD (end of row).

Examples:
  rsv cat data.rsv
  rsv encode rows.jsonl -w data.rsv.zst
  rsv import data.rsv && rsv serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("dependency container not initialized")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		container.SetConfig(cfg)
		container.SetLogger(logging.New("rsv", cfg.Logging, cmd.ErrOrStderr()))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().String("override", "", "TOML file whose keys override the config file")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the row store")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("format", "o", "table", "Output format (table or json)")
}

// loadConfig resolves the configuration for a command run: defaults, then
// the config file when one exists, then the override file, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else if explicit && cmd.Name() != "init" {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if override, _ := cmd.Flags().GetString("override"); override != "" {
		if err := config.MergeOverrides(cfg, override); err != nil {
			return nil, err
		}
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
