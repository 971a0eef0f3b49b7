package device

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/linanwx/cardchat/chat"
	"github.com/linanwx/cardchat/internal/clock"
	"github.com/linanwx/cardchat/logger"
)

const defaultProbeTimeout = 2 * time.Second

// StatusFunc shows a one-line connection status. An empty message clears it.
type StatusFunc func(msg string)

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// LinkConfig configures a Link.
type LinkConfig struct {
	ProbeAddr    string
	Retries      int
	Backoff      time.Duration
	ProbeTimeout time.Duration
	Clock        clock.Clock
	Dial         DialFunc
	Status       StatusFunc
	// Notifier, if set, shows connect failures for NotifyDuration.
	Notifier       chat.Notifier
	NotifyDuration time.Duration
}

const (
	msgNoCredentials = "No WiFi credentials!"
	msgConnectFailed = "WiFi connection failed!"
)

// Link reports network readiness by dialing a probe address. Reconnecting
// retries the probe a bounded number of times with a fixed backoff,
// reporting each attempt through the status line.
type Link struct {
	cfg LinkConfig
}

// NewLink creates a link. Zero fields take defaults.
func NewLink(cfg LinkConfig) *Link {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Dial == nil {
		d := &net.Dialer{}
		cfg.Dial = d.DialContext
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 1
	}
	return &Link{cfg: cfg}
}

// IsReady dials the probe address once.
func (l *Link) IsReady(ctx context.Context) bool {
	if l.cfg.ProbeAddr == "" {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, l.cfg.ProbeTimeout)
	defer cancel()
	conn, err := l.cfg.Dial(ctx, "tcp", l.cfg.ProbeAddr)
	if err != nil {
		logger.Debug("network probe failed", "addr", l.cfg.ProbeAddr, "err", err)
		return false
	}
	_ = conn.Close()
	return true
}

// Connect retries the probe until it succeeds, the attempts run out or ctx
// is done.
func (l *Link) Connect(ctx context.Context, creds chat.Credentials) bool {
	if strings.TrimSpace(creds.SSID) == "" || creds.Password == "" {
		logger.Warn("network connect skipped: missing ssid or password")
		l.notify(msgNoCredentials)
		return false
	}

	for attempt := 1; attempt <= l.cfg.Retries; attempt++ {
		l.status(fmt.Sprintf("Connecting WiFi... %d", attempt))
		if l.IsReady(ctx) {
			l.status("")
			logger.Info("network connected", "ssid", creds.SSID, "attempts", attempt)
			return true
		}
		if attempt == l.cfg.Retries {
			break
		}
		select {
		case <-ctx.Done():
			l.status("")
			logger.Warn("network connect cancelled", "attempts", attempt)
			return false
		case <-l.cfg.Clock.After(l.cfg.Backoff):
		}
	}
	l.status("")
	logger.Warn("network connect failed", "ssid", creds.SSID, "attempts", l.cfg.Retries)
	l.notify(msgConnectFailed)
	return false
}

func (l *Link) notify(msg string) {
	chat.ShowTimed(l.cfg.Notifier, l.cfg.Clock, l.cfg.NotifyDuration, msg)
}

func (l *Link) status(msg string) {
	if l.cfg.Status != nil {
		l.cfg.Status(msg)
	}
}
