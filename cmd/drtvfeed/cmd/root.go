// Package cmd implements the drtvfeed CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/voyagen/drtvfeed/internal/config"
	"github.com/voyagen/drtvfeed/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "drtvfeed",
	Short: "DR TV live channel and programme feed",
	Long: `drtvfeed scrapes the DR TV front page, live page and schedule API,
merges live channels with the programme currently airing and publishes
the result as a single state snapshot.`,
	SilenceUsage: true,
	PersistentPreRunE: func(c *cobra.Command, _ []string) error {
		return initConfig(c)
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file; env vars are used otherwise")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(serveCmd, fetchCmd, updateCmd)
}

// initConfig loads configuration and builds the logger. Flags override
// config and env only when set explicitly.
func initConfig(c *cobra.Command) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return err
	}

	if c.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if c.Flags().Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return err
	}
	log = logging.New(cfg.LogLevel, cfg.LogFormat)
	return nil
}
