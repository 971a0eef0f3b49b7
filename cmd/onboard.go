package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/linanwx/cardchat/config"
	"github.com/linanwx/cardchat/provider"
)

const apiKeyURL = "https://aistudio.google.com/apikey"

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create the cardchat configuration",
	Long:  `Ask for the model, API key and wifi credentials and write config.yaml.`,
	RunE:  runOnboard,
}

func init() {
	rootCmd.AddCommand(onboardCmd)
}

func runOnboard(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config already exists at:", configPath)
		fmt.Println("To reconfigure, edit the file directly or delete it first.")
		return nil
	}

	var (
		selectedModel = provider.DefaultModel
		apiKey        string
		wifiSSID      string
		wifiPassword  string
	)

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose a model").
				Description("Flash-Lite is the fastest and cheapest.").
				Options(buildModelOptions()...).
				Value(&selectedModel),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Enter your Gemini API key").
				Description("Create one at "+apiKeyURL).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("API key is required")
					}
					return nil
				}).
				Value(&apiKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("WiFi network name").
				Description("Leave empty to skip; the device then never tries to reconnect.").
				Value(&wifiSSID),
			huh.NewInput().
				Title("WiFi password").
				EchoMode(huh.EchoModePassword).
				Value(&wifiPassword),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Gemini.Model = selectedModel
	cfg.Gemini.APIKey = strings.TrimSpace(apiKey)
	cfg.Device.WifiSSID = strings.TrimSpace(wifiSSID)
	cfg.Device.WifiPassword = wifiPassword
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("cardchat initialized successfully!")
	fmt.Println()
	fmt.Println("  Config:", configPath)
	fmt.Println("  Model:", provider.DisplayName(selectedModel))
	fmt.Println()
	fmt.Println("Run 'cardchat chat' to start.")
	return nil
}

func buildModelOptions() []huh.Option[string] {
	models := provider.SupportedModels()
	options := make([]huh.Option[string], 0, len(models))
	for _, m := range models {
		label := m.DisplayName + " (" + m.ID + ")"
		if m.ID == provider.DefaultModel {
			label += " [Recommended]"
		}
		options = append(options, huh.NewOption(label, m.ID))
	}
	return options
}
