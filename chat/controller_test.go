package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/linanwx/cardchat/conversation"
	"github.com/linanwx/cardchat/internal/clock"
	"github.com/linanwx/cardchat/logger"
	"github.com/linanwx/cardchat/provider"
)

const persona = "Answer in one short sentence."

type harness struct {
	store     *conversation.Store
	network   *fakeNetwork
	transport *fakeTransport
	notifier  *fakeNotifier
	beeper    *countingBeeper
	renderer  *countingRenderer
	clock     *clock.FakeClock
	ctrl      *Controller
}

func newHarness(t *testing.T, result *provider.Result, postErr error) *harness {
	t.Helper()
	h := &harness{
		store:     conversation.NewStore(persona),
		network:   &fakeNetwork{ready: true},
		transport: &fakeTransport{result: result, err: postErr},
		notifier:  &fakeNotifier{},
		beeper:    &countingBeeper{},
		renderer:  &countingRenderer{},
		clock:     clock.Fake(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)),
	}
	h.ctrl = NewController(Deps{
		Store:     h.store,
		Network:   h.network,
		Transport: h.transport,
		Notifier:  h.notifier,
		Beeper:    h.beeper,
		Renderer:  h.renderer,
		Clock:     h.clock,
	}, Options{
		APIBase:         "https://example.test/v1beta",
		Model:           "gemini-2.5-flash-lite",
		APIKey:          "test-key",
		MaxPairs:        5,
		MaxOutputTokens: 50,
		RequestTimeout:  time.Second,
		NotifyDuration:  3 * time.Second,
		NotifyMaxChars:  72,
		BodyPrefix:      50,
		Credentials:     Credentials{SSID: "home", Password: "pw"},
	})
	return h
}

func okBody(text string) []byte {
	return []byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":` + quote(text) + `}]}}]}`)
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestAskSuccessFromEmptyHistory(t *testing.T) {
	h := newHarness(t, &provider.Result{Status: 200, Body: okBody("Hi there!")}, nil)

	var pendingSeen bool
	h.transport.during = func() { pendingSeen = h.store.HasPending() }

	reply, err := h.ctrl.Ask(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if reply != "Hi there!" {
		t.Fatalf("reply = %q", reply)
	}
	if !pendingSeen {
		t.Fatal("pending turn should exist while the request is outstanding")
	}

	turns := h.store.Snapshot()
	if len(turns) != 2 || turns[0] != conversation.UserTurn("Hello") || turns[1] != conversation.ModelTurn("Hi there!") {
		t.Fatalf("store = %+v", turns)
	}

	if len(h.transport.calls) != 1 {
		t.Fatalf("transport calls = %d", len(h.transport.calls))
	}
	call := h.transport.calls[0]
	want := `{"contents":[{"role":"user","parts":[{"text":"` + persona + `"}]},{"role":"user","parts":[{"text":"Hello"}]}],"generationConfig":{"maxOutputTokens":50}}`
	if string(call.body) != want {
		t.Fatalf("payload =\n%s\nwant\n%s", call.body, want)
	}
	if call.headers["Content-Type"] != "application/json" {
		t.Fatalf("headers = %v", call.headers)
	}
	if call.url != "https://example.test/v1beta/models/gemini-2.5-flash-lite:generateContent?key=test-key" {
		t.Fatalf("url = %q", call.url)
	}

	if h.beeper.beeps != 1 {
		t.Fatalf("beeps = %d, want 1", h.beeper.beeps)
	}
	if len(h.notifier.shown) != 0 {
		t.Fatalf("unexpected notifications: %v", h.notifier.shown)
	}
	// user turn, pending turn, filled reply.
	if h.renderer.renders != 3 {
		t.Fatalf("renders = %d, want 3", h.renderer.renders)
	}
	if h.ctrl.State() != StateIdle || h.ctrl.Busy() {
		t.Fatalf("controller not idle after success: state=%v busy=%v", h.ctrl.State(), h.ctrl.Busy())
	}
}

func TestAskBoundsContextWindow(t *testing.T) {
	h := newHarness(t, &provider.Result{Status: 200, Body: okBody("ok")}, nil)
	for i := 0; i < 6; i++ {
		_ = h.store.Append(conversation.UserTurn("q"))
		_ = h.store.Append(conversation.ModelTurn("a"))
	}

	if _, err := h.ctrl.Ask(context.Background(), "latest"); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	var req provider.Request
	if err := json.Unmarshal(h.transport.calls[0].body, &req); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(req.Contents) != 11 {
		t.Fatalf("contents = %d, want persona + 10", len(req.Contents))
	}
	if req.Contents[0].Parts[0].Text != persona {
		t.Fatalf("contents[0] = %+v, want persona", req.Contents[0])
	}
	last := req.Contents[len(req.Contents)-1]
	if last.Role != "user" || last.Parts[0].Text != "latest" {
		t.Fatalf("last content = %+v", last)
	}
	for _, c := range req.Contents {
		if c.Role == "model" && c.Parts[0].Text == "" {
			t.Fatal("payload leaked the pending turn")
		}
	}
}

func TestHTTPErrorRollsBack(t *testing.T) {
	body := `{"error":{"code":503,"message":"The model is overloaded. Please try again later.","status":"UNAVAILABLE"}}`
	h := newHarness(t, &provider.Result{Status: 503, Body: []byte(body)}, nil)

	_, err := h.ctrl.Ask(context.Background(), "Hello")
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("Ask() error = %v, want *HTTPError", err)
	}
	if herr.Status != 503 || len([]rune(herr.BodyPrefix)) != 50 {
		t.Fatalf("HTTPError = %+v", herr)
	}
	if h.store.Len() != 1 || h.store.HasPending() {
		t.Fatalf("store not rolled back: len=%d pending=%v", h.store.Len(), h.store.HasPending())
	}
	if len(h.notifier.shown) != 1 || !strings.Contains(h.notifier.shown[0], "503") {
		t.Fatalf("notifications = %v", h.notifier.shown)
	}
	if len([]rune(h.notifier.shown[0])) > 72 {
		t.Fatalf("notification not truncated: %q", h.notifier.shown[0])
	}
	if h.notifier.dismissed != 1 {
		t.Fatalf("dismissed = %d, want 1", h.notifier.dismissed)
	}
	if h.clock.Slept() != 3*time.Second {
		t.Fatalf("notification held for %v, want 3s", h.clock.Slept())
	}
	if h.beeper.beeps != 0 {
		t.Fatal("beeped on failure")
	}
}

func TestMalformedBodyIsParseError(t *testing.T) {
	h := newHarness(t, &provider.Result{Status: 200, Body: []byte(`{"promptFeedback":{"blockReason":"OTHER"}}`)}, nil)

	_, err := h.ctrl.Ask(context.Background(), "Hello")
	var perr *provider.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Ask() error = %v, want *provider.ParseError", err)
	}
	if h.store.Len() != 1 || h.store.HasPending() {
		t.Fatalf("store = %+v", h.store.Snapshot())
	}
	if len(h.notifier.shown) != 1 || h.notifier.shown[0] != "Bad response shape" {
		t.Fatalf("notifications = %v", h.notifier.shown)
	}
}

func TestTransportErrorRollsBack(t *testing.T) {
	h := newHarness(t, nil, errors.New("dial tcp: connection refused"))

	_, err := h.ctrl.Ask(context.Background(), "Hello")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Ask() error = %v, want *TransportError", err)
	}
	if h.store.Len() != 1 {
		t.Fatalf("store len = %d, want 1", h.store.Len())
	}
	if len(h.notifier.shown) != 1 || !strings.Contains(h.notifier.shown[0], "connection refused") {
		t.Fatalf("notifications = %v", h.notifier.shown)
	}
}

func TestHTTPTransportFailureShowsCause(t *testing.T) {
	if err := logger.Init(logger.Config{Enabled: true, Level: "debug", Stdout: true}, ""); err != nil {
		t.Fatalf("logger.Init() error = %v", err)
	}
	var logs bytes.Buffer
	logger.Intercept(&logs)
	defer logger.Restore()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	h := newHarness(t, nil, nil)
	tr := provider.NewHTTPTransport(0)
	defer tr.Close()
	h.ctrl.transport = tr
	h.ctrl.opts.APIBase = base
	h.ctrl.opts.APIKey = "SECRETKEY123"

	_, err := h.ctrl.Ask(context.Background(), "Hello")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Ask() error = %v, want *TransportError", err)
	}
	if len(h.notifier.shown) != 1 || !strings.Contains(h.notifier.shown[0], "connection refused") {
		t.Fatalf("notifications = %q, want the dial cause", h.notifier.shown)
	}
	for name, text := range map[string]string{
		"error":        err.Error(),
		"notification": h.notifier.shown[0],
		"log":          logs.String(),
	} {
		if strings.Contains(text, "SECRETKEY123") {
			t.Fatalf("%s leaks the API key: %q", name, text)
		}
	}
	if !strings.Contains(logs.String(), "request failed") {
		t.Fatalf("log = %q", logs.String())
	}
	if h.store.Len() != 1 || h.store.HasPending() {
		t.Fatalf("store = %+v", h.store.Snapshot())
	}
}

func TestTransportDetail(t *testing.T) {
	refused := &url.Error{Op: "Post", URL: "http://h/x?key=k", Err: &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: errors.New("connect: connection refused"),
	}}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"url and dial wrappers", refused, "connect: connection refused"},
		{"plain", errors.New("tls: handshake failure"), "tls: handshake failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transportDetail(stripURL(tt.err)); got != tt.want {
				t.Fatalf("detail = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestTimeoutIsTransportError(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.transport.block = make(chan struct{})
	h.ctrl.opts.RequestTimeout = 20 * time.Millisecond

	_, err := h.ctrl.Ask(context.Background(), "Hello")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Ask() error = %v, want *TransportError", err)
	}
	if terr.Detail != "request timed out" {
		t.Fatalf("Detail = %q", terr.Detail)
	}
	if h.store.HasPending() {
		t.Fatal("pending turn left after timeout")
	}
}

func TestNetworkUnavailableAbortsBeforeRequest(t *testing.T) {
	h := newHarness(t, &provider.Result{Status: 200, Body: okBody("x")}, nil)
	h.network.ready = false

	_, err := h.ctrl.Ask(context.Background(), "Hello")
	if !errors.Is(err, ErrNetworkUnavailable) {
		t.Fatalf("Ask() error = %v, want ErrNetworkUnavailable", err)
	}
	var terr *TransportError
	if !errors.As(err, &terr) || terr.Detail != "no network" {
		t.Fatalf("Ask() error = %v, want TransportError(no network)", err)
	}
	if h.network.connects != 1 || h.network.gotCreds.SSID != "home" || h.network.gotCreds.Password != "pw" {
		t.Fatalf("connect calls = %d creds = %+v", h.network.connects, h.network.gotCreds)
	}
	if len(h.transport.calls) != 0 {
		t.Fatal("transport called without network")
	}
	turns := h.store.Snapshot()
	if len(turns) != 1 || turns[0] != conversation.UserTurn("Hello") || h.store.HasPending() {
		t.Fatalf("store = %+v", turns)
	}
	// user turn, then a repaint after the reconnect attempt.
	if h.renderer.renders != 2 {
		t.Fatalf("renders = %d, want 2", h.renderer.renders)
	}
	if len(h.notifier.shown) != 1 || h.notifier.shown[0] != "No network!" {
		t.Fatalf("notifications = %v", h.notifier.shown)
	}
}

func TestReconnectThenAsk(t *testing.T) {
	h := newHarness(t, &provider.Result{Status: 200, Body: okBody("back online")}, nil)
	h.network.ready = false
	h.network.connectOK = true

	reply, err := h.ctrl.Ask(context.Background(), "Hello")
	if err != nil || reply != "back online" {
		t.Fatalf("Ask() = %q, %v", reply, err)
	}
	if h.network.connects != 1 {
		t.Fatalf("connects = %d", h.network.connects)
	}
}

func TestAskWhileBusyIsRefused(t *testing.T) {
	h := newHarness(t, &provider.Result{Status: 200, Body: okBody("done")}, nil)
	h.transport.block = make(chan struct{})
	started := make(chan struct{})
	h.transport.during = func() { close(started) }

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Ask(context.Background(), "first")
		done <- err
	}()
	<-started

	if !h.ctrl.Busy() {
		t.Fatal("Busy() = false during a request")
	}
	if _, err := h.ctrl.Ask(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Ask() error = %v, want ErrBusy", err)
	}

	close(h.transport.block)
	if err := <-done; err != nil {
		t.Fatalf("first Ask() error = %v", err)
	}
	turns := h.store.Snapshot()
	if len(turns) != 2 || turns[0].Text != "first" || turns[1].Text != "done" {
		t.Fatalf("store = %+v", turns)
	}
}

func TestDebugPanicsOnInvariantViolation(t *testing.T) {
	h := newHarness(t, &provider.Result{Status: 200, Body: okBody("x")}, nil)
	h.ctrl.opts.Debug = true
	_ = h.store.AppendPendingModelTurn()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic in debug mode")
		}
	}()
	_, _ = h.ctrl.Ask(context.Background(), "Hello")
}

func TestReleaseIgnoresInvariantViolation(t *testing.T) {
	h := newHarness(t, &provider.Result{Status: 200, Body: okBody("x")}, nil)
	_ = h.store.Append(conversation.UserTurn("Hello"))
	_ = h.store.AppendPendingModelTurn()

	_, err := h.ctrl.Ask(context.Background(), "again")
	if !errors.Is(err, conversation.ErrInvariantViolation) {
		t.Fatalf("Ask() error = %v, want ErrInvariantViolation", err)
	}
	if len(h.transport.calls) != 0 {
		t.Fatal("request dispatched despite invariant violation")
	}
	if h.store.Len() != 2 {
		t.Fatalf("store len = %d, want 2", h.store.Len())
	}
}

func TestBadExtraBodyFailsBeforeMutation(t *testing.T) {
	h := newHarness(t, &provider.Result{Status: 200, Body: okBody("x")}, nil)
	h.ctrl.opts.ExtraBody = map[string]any{"contents.0.role": "model"}

	_, err := h.ctrl.Ask(context.Background(), "Hello")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Ask() error = %v, want *TransportError", err)
	}
	if h.store.Len() != 1 || h.store.HasPending() {
		t.Fatalf("store = %+v", h.store.Snapshot())
	}
}

func TestStateNames(t *testing.T) {
	if StateAwaitingResponse.String() != "awaiting_response" || State(99).String() != "unknown" {
		t.Fatal("unexpected state names")
	}
	if StateSending.Terminal() || !StateParseError.Terminal() {
		t.Fatal("unexpected Terminal() results")
	}
}

func TestErrorMessages(t *testing.T) {
	if got := (&HTTPError{Status: 404}).Error(); got != "HTTP Error: 404" {
		t.Fatalf("HTTPError = %q", got)
	}
	if got := (&HTTPError{Status: 500, BodyPrefix: "oops"}).Error(); got != "HTTP Error: 500 - oops" {
		t.Fatalf("HTTPError = %q", got)
	}
	if got := (&TransportError{Detail: "timeout"}).Error(); got != "Request Fail: timeout" {
		t.Fatalf("TransportError = %q", got)
	}
}
