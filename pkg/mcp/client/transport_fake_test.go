package client

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	transport "github.com/mutablelogic/go-mcp/pkg/mcp/transport"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// fakeTransport is a transport.Transport test double driven entirely
// in-process: Send dispatches to a per-method handler table, and tests
// can push server-initiated messages straight onto the inbound channel.
type fakeTransport struct {
	mu       sync.Mutex
	inbound  chan []byte
	closed   bool
	handlers map[string]func(schema.Request) (any, *schema.Error, bool)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound:  make(chan []byte, 64),
		handlers: make(map[string]func(schema.Request) (any, *schema.Error, bool)),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// on registers a handler for method, returning (result, rpcErr, immediate).
// immediate=true answers synchronously from Send; immediate=false pushes
// the response onto the inbound channel instead (simulating a 202/SSE
// disposition).
func (t *fakeTransport) on(method string, fn func(schema.Request) (any, *schema.Error, bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[method] = fn
}

// push delivers a raw server-initiated message (notification or request)
// straight to the client's inbound stream.
func (t *fakeTransport) push(v any) {
	data, _ := json.Marshal(v)
	t.inbound <- data
}

func (t *fakeTransport) Connect(ctx context.Context) error { return nil }

func (t *fakeTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.inbound)
	}
	return nil
}

func (t *fakeTransport) Receive() <-chan []byte { return t.inbound }

func (t *fakeTransport) SessionID() string { return "" }

func (t *fakeTransport) OnEvent(fn transport.EventFunc) {}

func (t *fakeTransport) Send(ctx context.Context, msg []byte) ([]byte, error) {
	var req schema.Request
	if err := json.Unmarshal(msg, &req); err != nil || req.Method == "" {
		return nil, nil // notification: no reply expected
	}

	t.mu.Lock()
	fn, ok := t.handlers[req.Method]
	t.mu.Unlock()
	if !ok {
		return nil, nil // left pending; test controls timing explicitly
	}

	result, rpcErr, immediate := fn(req)
	resp := schema.Response{Version: schema.RPCVersion, ID: req.ID}
	if rpcErr != nil {
		resp.Err = rpcErr
	} else {
		resp.Result = result
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	if immediate {
		return data, nil
	}
	t.inbound <- data
	return nil, nil
}

///////////////////////////////////////////////////////////////////////////////
// HELPERS

func defaultClientCaps() schema.ClientCapabilities {
	return schema.ClientCapabilities{Roots: &schema.RootsCapability{}}
}

func okInitializeHandler(serverCaps schema.ServerCapabilities) func(schema.Request) (any, *schema.Error, bool) {
	return func(req schema.Request) (any, *schema.Error, bool) {
		return schema.ResponseInitialize{
			ProtocolVersion: schema.SupportedProtocolVersions[0],
			Capabilities:    serverCaps,
			ServerInfo:      schema.Implementation{Name: "fake-server", Version: "1.0.0"},
		}, nil, true
	}
}

// connectedClient builds a Client over a fakeTransport with a canned
// successful initialize handler, and connects it.
func connectedClient(t *testing.T, serverCaps schema.ServerCapabilities, opts ...func(*Client)) (*Client, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	tr.on(schema.MethodInitialize, okInitializeHandler(serverCaps))

	c := New(tr, schema.Implementation{Name: "test-client", Version: "0.0.0"}, defaultClientCaps())
	for _, opt := range opts {
		opt(c)
	}
	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return c, tr
}
