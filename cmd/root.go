// Package cmd holds the cardchat command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linanwx/cardchat/config"
	"github.com/linanwx/cardchat/logger"
)

var configDirFlag string

var rootCmd = &cobra.Command{
	Use:           "cardchat",
	Short:         "A pocket chat client for Gemini",
	Long:          `cardchat keeps a short rolling conversation with a Gemini model on a small fixed-size screen.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if configDirFlag == "" {
			return nil
		}
		config.SetConfigDir(configDirFlag)
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return logger.Init(cfg.BuildLoggerConfig(), configDirFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.cardchat)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
