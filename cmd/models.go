package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linanwx/cardchat/config"
	"github.com/linanwx/cardchat/provider"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List supported models",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	current := provider.DefaultModel
	if cfg, err := config.Load(); err == nil {
		current = cfg.Gemini.Model
	}
	out := cmd.OutOrStdout()
	for _, m := range provider.SupportedModels() {
		mark := " "
		if m.ID == current {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-24s %s\n", mark, m.ID, m.DisplayName)
	}
	return nil
}
