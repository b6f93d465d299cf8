package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fieldwork/internal/config"
	"github.com/aretw0/fieldwork/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "fieldwork",
	Short: "Fieldwork saves survey drafts section by section",
	Long: `Fieldwork validates survey drafts and persists them one section at a time,
tracking the save state of every section.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadRuntime reads the config selected by the persistent flags and builds
// the logger it describes. The closer flushes the log file, if any.
func loadRuntime(cmd *cobra.Command) (config.Config, *slog.Logger, io.Closer, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	logger, closer := logging.NewWithOptions(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	return cfg, logger, closer, nil
}
