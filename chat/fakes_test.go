package chat

import (
	"context"
	"sync"

	"github.com/linanwx/cardchat/provider"
)

type fakeNetwork struct {
	ready     bool
	connectOK bool
	connects  int
	gotCreds  Credentials
}

func (n *fakeNetwork) IsReady(context.Context) bool { return n.ready }
func (n *fakeNetwork) Connect(_ context.Context, creds Credentials) bool {
	n.connects++
	n.gotCreds = creds
	if n.connectOK {
		n.ready = true
	}
	return n.connectOK
}

type postCall struct {
	url     string
	headers map[string]string
	body    []byte
}

type fakeTransport struct {
	mu     sync.Mutex
	calls  []postCall
	result *provider.Result
	err    error
	// during runs inside Post, e.g. to observe store state mid-request.
	during func()
	block  chan struct{}
}

func (t *fakeTransport) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*provider.Result, error) {
	t.mu.Lock()
	t.calls = append(t.calls, postCall{url: url, headers: headers, body: body})
	t.mu.Unlock()
	if t.during != nil {
		t.during()
	}
	if t.block != nil {
		select {
		case <-t.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return t.result, t.err
}

type fakeNotifier struct {
	mu        sync.Mutex
	shown     []string
	dismissed int
}

func (n *fakeNotifier) ShowError(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, msg)
}

func (n *fakeNotifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dismissed++
}

type countingBeeper struct{ beeps int }

func (b *countingBeeper) Beep() { b.beeps++ }

type countingRenderer struct {
	mu      sync.Mutex
	renders int
}

func (r *countingRenderer) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders++
	return nil
}
