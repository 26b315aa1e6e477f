package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/quakelens/internal/config"
	"github.com/rewired-gh/quakelens/internal/logger"
)

var (
	configPath string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:   "quakelens",
		Short: "Statistical analysis of earthquake catalogues",
		Long: `quakelens reads earthquake catalogues from JSON documents or the
catalogue API and reports frequency-magnitude statistics, completeness,
clustering and moment release.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.AddCommand(analyzeCmd, compareCmd, generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(c.Logging.Level, c.Logging.Format)
	if configPath != "" {
		logger.Info("Configuration loaded from %s", configPath)
	} else {
		logger.Debug("No config file given, using defaults and environment")
	}
	cfg = c
	return nil
}
