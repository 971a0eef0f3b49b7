package cmd

import (
	"context"
	"sync"

	"github.com/linanwx/cardchat/chat"
	"github.com/linanwx/cardchat/config"
	"github.com/linanwx/cardchat/conversation"
	"github.com/linanwx/cardchat/device"
	"github.com/linanwx/cardchat/internal/clock"
	"github.com/linanwx/cardchat/layout"
	"github.com/linanwx/cardchat/logger"
	"github.com/linanwx/cardchat/provider"
	"github.com/linanwx/cardchat/render"
)

// session wires one conversation to the screen, the network and the API.
type session struct {
	cfg       *config.Config
	store     *conversation.Store
	fb        *device.Framebuffer
	screen    *render.Coordinator
	link      *device.Link
	transport *provider.HTTPTransport
	ctrl      *chat.Controller
	notifier  *lateNotifier

	statusMu sync.Mutex
	status   device.StatusFunc
}

func newSession(cfg *config.Config, beeper chat.Beeper) *session {
	s := &session{
		cfg:       cfg,
		store:     conversation.NewStore(cfg.Gemini.Persona),
		transport: provider.NewHTTPTransport(0),
		notifier:  &lateNotifier{},
	}
	d := cfg.Display
	s.fb = device.NewFramebuffer(d.Width, d.Height, d.GlyphWidth, d.LineHeight, nil)
	s.screen = render.NewCoordinator(
		s.fb,
		s.store,
		render.DefaultGeometry(d.Width, d.Height, d.LineHeight),
		layout.Monospace(d.GlyphWidth),
		"Model: "+provider.DisplayName(cfg.Gemini.Model),
	)
	s.status = s.screenStatus

	clk := clock.Real()
	s.link = device.NewLink(device.LinkConfig{
		ProbeAddr:      cfg.Network.ProbeAddr,
		Retries:        cfg.Network.Retries,
		Backoff:        cfg.Backoff(),
		Clock:          clk,
		Status:         s.showStatus,
		Notifier:       s.notifier,
		NotifyDuration: cfg.NotifyDuration(),
	})
	s.ctrl = chat.NewController(chat.Deps{
		Store:     s.store,
		Network:   s.link,
		Transport: s.transport,
		Notifier:  s.notifier,
		Beeper:    beeper,
		Renderer:  s.screen,
		Clock:     clk,
	}, chat.Options{
		APIBase:         cfg.Gemini.APIBase,
		Model:           cfg.Gemini.Model,
		APIKey:          cfg.Gemini.APIKey,
		MaxPairs:        cfg.Gemini.MaxPairs,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		ExtraBody:       cfg.Gemini.ExtraBody,
		RequestTimeout:  cfg.RequestTimeout(),
		NotifyDuration:  cfg.NotifyDuration(),
		NotifyMaxChars:  cfg.Notify.MaxChars,
		BodyPrefix:      cfg.Notify.BodyPrefix,
		Credentials:     s.credentials(),
		Debug:           cfg.Debug,
	})
	return s
}

func (s *session) credentials() chat.Credentials {
	return chat.Credentials{SSID: s.cfg.Device.WifiSSID, Password: s.cfg.Device.WifiPassword}
}

// connect brings the link up once at startup. Failure is not fatal: the
// controller retries before every request.
func (s *session) connect(ctx context.Context) {
	if s.link.IsReady(ctx) {
		return
	}
	if !s.link.Connect(ctx, s.credentials()) {
		logger.Warn("initial network connect failed, continuing without network")
	}
}

// setStatusSink routes connection status lines to fn.
func (s *session) setStatusSink(fn device.StatusFunc) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status = fn
}

func (s *session) showStatus(msg string) {
	s.statusMu.Lock()
	fn := s.status
	s.statusMu.Unlock()
	fn(msg)
}

func (s *session) screenStatus(msg string) {
	var err error
	if msg == "" {
		err = s.screen.ClearStatus()
	} else {
		err = s.screen.Status(msg)
	}
	if err != nil {
		logger.Warn("status draw failed", "err", err)
	}
}

func (s *session) close() {
	s.transport.Close()
}

// lateNotifier forwards to a front end chosen after the controller is built.
type lateNotifier struct {
	mu     sync.Mutex
	target chat.Notifier
}

func (n *lateNotifier) set(target chat.Notifier) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = target
}

func (n *lateNotifier) get() chat.Notifier {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

func (n *lateNotifier) ShowError(msg string) {
	if t := n.get(); t != nil {
		t.ShowError(msg)
	}
}

func (n *lateNotifier) Dismiss() {
	if t := n.get(); t != nil {
		t.Dismiss()
	}
}
