package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linanwx/cardchat/config"
	"github.com/linanwx/cardchat/device"
	"github.com/linanwx/cardchat/internal/health"
	"github.com/linanwx/cardchat/provider"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show config and network status as JSON",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	path, _ := config.ConfigPath()
	link := device.NewLink(device.LinkConfig{ProbeAddr: cfg.Network.ProbeAddr})
	ctx := cmd.Context()

	snap := health.Collect(health.Options{
		ConfigPath: path,
		LogFile:    cfg.Logging.File,
		Model:      cfg.Gemini.Model,
		ModelName:  provider.DisplayName(cfg.Gemini.Model),
		APIBase:    cfg.Gemini.APIBase,
		APIKeySet:  strings.TrimSpace(cfg.Gemini.APIKey) != "",
		WifiSSID:   cfg.Device.WifiSSID,
		ProbeAddr:  cfg.Network.ProbeAddr,
		Probe:      func() bool { return link.IsReady(ctx) },
	})
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
