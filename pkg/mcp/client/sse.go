package client

import (
	"context"
	"sync"

	// Packages
	transport "github.com/mutablelogic/go-mcp/pkg/mcp/transport"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// FallbackTransport drives the Streamable HTTP transport until the server
// answers a 404/405 to a send, meaning it predates Streamable HTTP support,
// then transparently switches to the legacy SSE transport for the rest of
// the connection. The switch happens at most once and is invisible to the
// Client, which only ever sees the transport.Transport interface.
type FallbackTransport struct {
	cfg *transport.Config

	mu     sync.Mutex
	active transport.Transport
	legacy bool
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var _ transport.Transport = (*FallbackTransport)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewFallbackTransport builds a FallbackTransport starting on Streamable
// HTTP, bound to cfg.
func NewFallbackTransport(cfg *transport.Config) (*FallbackTransport, error) {
	primary, err := transport.New(cfg)
	if err != nil {
		return nil, err
	}
	return &FallbackTransport{cfg: cfg, active: primary}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (f *FallbackTransport) Connect(ctx context.Context) error {
	f.mu.Lock()
	t := f.active
	f.mu.Unlock()
	return t.Connect(ctx)
}

func (f *FallbackTransport) Disconnect() error {
	f.mu.Lock()
	t := f.active
	f.mu.Unlock()
	return t.Disconnect()
}

func (f *FallbackTransport) Receive() <-chan []byte {
	f.mu.Lock()
	t := f.active
	f.mu.Unlock()
	return t.Receive()
}

func (f *FallbackTransport) SessionID() string {
	f.mu.Lock()
	t := f.active
	f.mu.Unlock()
	return t.SessionID()
}

func (f *FallbackTransport) OnEvent(fn transport.EventFunc) {
	f.mu.Lock()
	t := f.active
	f.mu.Unlock()
	t.OnEvent(fn)
}

// Send tries the active transport. On the first 404/405 seen from the
// Streamable HTTP transport it connects the legacy SSE transport, retires
// the Streamable HTTP one, and retries msg there; every subsequent Send
// goes straight to whichever transport won.
func (f *FallbackTransport) Send(ctx context.Context, msg []byte) ([]byte, error) {
	f.mu.Lock()
	t, legacy := f.active, f.legacy
	f.mu.Unlock()

	resp, err := t.Send(ctx, msg)
	if err == nil || legacy {
		return resp, err
	}
	if !transport.IsHTTPStatus(err, 404) && !transport.IsHTTPStatus(err, 405) {
		return resp, err
	}

	legacyT, lerr := transport.NewLegacySSE(f.cfg)
	if lerr != nil {
		return nil, err
	}
	if cerr := legacyT.Connect(ctx); cerr != nil {
		return nil, err
	}
	_ = t.Disconnect()

	f.mu.Lock()
	f.active = legacyT
	f.legacy = true
	f.mu.Unlock()

	return legacyT.Send(ctx, msg)
}
