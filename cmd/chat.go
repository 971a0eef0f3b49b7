package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linanwx/cardchat/chat"
	"github.com/linanwx/cardchat/config"
	"github.com/linanwx/cardchat/device"
	"github.com/linanwx/cardchat/internal/clock"
	"github.com/linanwx/cardchat/logger"
	"github.com/linanwx/cardchat/plaintext"
	"github.com/linanwx/cardchat/provider"
)

const msgMissingKey = "Set gemini.apiKey in config!"

var chatMessage string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a conversation",
	Long: `Open the chat screen. With a terminal on stdin this is the full-screen
device view; otherwise each input line is sent as one message.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send one message, print the reply and exit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	stderr := device.NewConsole(nil, os.Stderr)
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrConfigMissing) {
			chat.ShowTimed(stderr, clock.Real(), cfg.NotifyDuration(), msgMissingKey)
			return fmt.Errorf("%w (run 'cardchat onboard')", err)
		}
		return err
	}
	if err := provider.ValidateModel(cfg.Gemini.Model); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	message := strings.TrimSpace(chatMessage)
	interactive := message == "" && device.IsTerminal(os.Stdin)

	bell := device.NewBell(os.Stderr)
	s := newSession(cfg, bell)
	defer s.close()

	s.setStatusSink(stderr.Status)
	s.notifier.set(stderr)
	s.connect(ctx)

	switch {
	case message != "":
		return runOnce(ctx, s, message)
	case interactive:
		return runTUI(ctx, s)
	default:
		console := device.NewConsole(os.Stdin, os.Stdout)
		s.setStatusSink(console.Status)
		s.notifier.set(console)
		return console.Run(ctx, s.ctrl.Ask)
	}
}

func runOnce(ctx context.Context, s *session, message string) error {
	reply, err := s.ctrl.Ask(ctx, message)
	if err != nil {
		return err
	}
	fmt.Println(plaintext.Convert(reply))
	return nil
}

func runTUI(ctx context.Context, s *session) error {
	ui := device.NewTUI(ctx, s.fb, s.ctrl.Ask, os.Stderr)
	s.setStatusSink(s.screenStatus)
	s.notifier.set(ui)
	if err := s.screen.Render(); err != nil {
		logger.Warn("initial render failed", "err", err)
	}
	return ui.Run()
}
