// Package chat drives one request/response round trip against the remote
// model and keeps the conversation store consistent when it fails.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linanwx/cardchat/conversation"
	"github.com/linanwx/cardchat/internal/clock"
	"github.com/linanwx/cardchat/layout"
	"github.com/linanwx/cardchat/logger"
	"github.com/linanwx/cardchat/provider"
)

// Credentials are passed to the network collaborator when reconnecting.
type Credentials struct {
	SSID     string
	Password string
}

// Network reports link readiness and reconnects with bounded retries.
type Network interface {
	IsReady(ctx context.Context) bool
	Connect(ctx context.Context, creds Credentials) bool
}

// Transport performs the HTTP POST. An error means no status was received.
type Transport interface {
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*provider.Result, error)
}

// Notifier shows a short error message to the user.
type Notifier interface {
	ShowError(msg string)
	Dismiss()
}

// Beeper plays the one-shot acknowledgment after a reply arrives.
type Beeper interface {
	Beep()
}

// Renderer repaints the conversation.
type Renderer interface {
	Render() error
}

// Options configures a Controller.
type Options struct {
	APIBase         string
	Model           string
	APIKey          string
	MaxPairs        int
	MaxOutputTokens int
	ExtraBody       map[string]any
	RequestTimeout  time.Duration
	NotifyDuration  time.Duration
	NotifyMaxChars  int
	BodyPrefix      int
	Credentials     Credentials
	// Debug turns invariant violations into panics.
	Debug bool
}

const (
	msgNoNetwork = "No network!"
	msgBadShape  = "Bad response shape"
)

// Controller runs request lifecycles. At most one request is in flight at a
// time; a submission while busy fails with ErrBusy.
type Controller struct {
	store     *conversation.Store
	network   Network
	transport Transport
	notifier  Notifier
	beeper    Beeper
	renderer  Renderer
	clock     clock.Clock
	opts      Options

	inFlight atomic.Bool
	mu       sync.Mutex
	state    State
}

// Deps bundles the collaborators of a Controller.
type Deps struct {
	Store     *conversation.Store
	Network   Network
	Transport Transport
	Notifier  Notifier
	Beeper    Beeper
	Renderer  Renderer
	Clock     clock.Clock
}

// NewController creates a controller. A nil Clock uses the real clock.
func NewController(deps Deps, opts Options) *Controller {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Controller{
		store:     deps.Store,
		network:   deps.Network,
		transport: deps.Transport,
		notifier:  deps.Notifier,
		beeper:    deps.Beeper,
		renderer:  deps.Renderer,
		clock:     clk,
		opts:      opts,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a request is outstanding.
func (c *Controller) Busy() bool {
	return c.inFlight.Load()
}

// Ask appends prompt as a user turn, repaints, and runs one request.
func (c *Controller) Ask(ctx context.Context, prompt string) (string, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer c.inFlight.Store(false)

	if err := c.store.Append(conversation.UserTurn(prompt)); err != nil {
		c.invariant(err)
		return "", err
	}
	c.render()
	return c.send(ctx)
}

func (c *Controller) send(ctx context.Context) (string, error) {
	defer c.setState(StateIdle)

	c.setState(StateNetworkCheck)
	if !c.network.IsReady(ctx) {
		c.setState(StateReconnecting)
		logger.Info("network not ready, reconnecting")
		connected := c.network.Connect(ctx, c.opts.Credentials)
		c.render()
		if !connected {
			err := &TransportError{Detail: "no network", Err: ErrNetworkUnavailable}
			c.setState(StateTransportError)
			logger.Warn("request aborted before send", "err", err)
			c.notify(msgNoNetwork)
			return "", err
		}
	}

	c.setState(StateSending)
	window := c.store.ContextWindow(c.opts.MaxPairs)
	body, err := provider.EncodeRequest(buildRequest(window, c.opts.MaxOutputTokens), c.opts.ExtraBody)
	if err != nil {
		terr := &TransportError{Detail: err.Error(), Err: err}
		c.setState(StateTransportError)
		logger.Error("build payload failed", "err", err)
		c.notify(terr.Error())
		return "", terr
	}

	if err := c.store.AppendPendingModelTurn(); err != nil {
		c.invariant(err)
		return "", err
	}
	c.render()

	endpoint := provider.EndpointURL(c.opts.APIBase, c.opts.Model, c.opts.APIKey)
	logger.Info(
		"request sent",
		"url", provider.RedactURL(endpoint),
		"turns", len(window),
		"payloadBytes", len(body),
		"promptTokensEst", provider.EstimateTokens(string(body)),
	)

	c.setState(StateAwaitingResponse)
	start := c.clock.Now()
	reqCtx := ctx
	if c.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.opts.RequestTimeout)
		defer cancel()
	}
	res, err := c.transport.Post(reqCtx, endpoint, map[string]string{"Content-Type": "application/json"}, body)
	latency := c.clock.Now().Sub(start)

	if err != nil {
		cause := stripURL(err)
		detail := transportDetail(cause)
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			detail = "request timed out"
		}
		terr := &TransportError{Detail: detail, Err: cause}
		c.setState(StateTransportError)
		logger.Error("request failed", "err", cause, "latencyMs", latency.Milliseconds())
		c.rollback()
		c.notify(terr.Error())
		return "", terr
	}

	if res.Status != http.StatusOK {
		herr := &HTTPError{
			Status:     res.Status,
			BodyPrefix: layout.Truncate(string(res.Body), c.opts.BodyPrefix),
		}
		c.setState(StateHTTPError)
		logger.Error(
			"request rejected",
			"status", res.Status,
			"message", provider.ErrorMessage(res.Body),
			"latencyMs", latency.Milliseconds(),
		)
		c.rollback()
		c.notify(herr.Error())
		return "", herr
	}

	text, err := provider.DecodeResponse(res.Body)
	if err != nil {
		c.setState(StateParseError)
		logger.Error("response parse failed", "err", err, "body", layout.Truncate(string(res.Body), 100))
		c.rollback()
		c.notify(msgBadShape)
		return "", err
	}

	if err := c.store.FillPending(text); err != nil {
		c.invariant(err)
		return "", err
	}
	c.setState(StateSuccess)
	logger.Info("response received", "outputChars", len(text), "latencyMs", latency.Milliseconds())
	if c.beeper != nil {
		c.beeper.Beep()
	}
	c.render()
	return text, nil
}

// stripURL drops the *url.Error wrapper added by net/http. Its message
// carries the endpoint, API key included.
func stripURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}

// transportDetail is the short failure cause shown to the user, e.g.
// "connect: connection refused".
func transportDetail(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return opErr.Err.Error()
	}
	return err.Error()
}

func buildRequest(window []conversation.Turn, maxOutputTokens int) provider.Request {
	contents := make([]provider.Content, 0, len(window))
	for _, turn := range window {
		contents = append(contents, provider.TextContent(string(turn.Role), turn.Text))
	}
	return provider.Request{
		Contents:         contents,
		GenerationConfig: provider.GenerationConfig{MaxOutputTokens: maxOutputTokens},
	}
}

// rollback removes the pending turn and repaints so no empty reply line
// remains on screen.
func (c *Controller) rollback() {
	if err := c.store.RemovePending(); err != nil {
		c.invariant(err)
		return
	}
	c.render()
}

func (c *Controller) notify(msg string) {
	ShowTimed(c.notifier, c.clock, c.opts.NotifyDuration, layout.Truncate(msg, c.opts.NotifyMaxChars))
}

func (c *Controller) render() {
	if c.renderer == nil {
		return
	}
	if err := c.renderer.Render(); err != nil {
		logger.Warn("render failed", "err", err)
	}
}

func (c *Controller) invariant(err error) {
	if c.opts.Debug {
		panic(fmt.Sprintf("conversation invariant: %v", err))
	}
	logger.Error("conversation invariant violated", "err", err)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	if prev != s {
		logger.Debug("request state", "from", prev.String(), "to", s.String(), "turns", c.store.Len())
	}
}

// ShowTimed shows msg, waits d on clk, then dismisses it.
func ShowTimed(n Notifier, clk clock.Clock, d time.Duration, msg string) {
	if n == nil {
		return
	}
	n.ShowError(msg)
	clk.Sleep(d)
	n.Dismiss()
}
