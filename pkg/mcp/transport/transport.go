// Package transport implements the MCP Streamable HTTP transport: HTTP POST
// carrying JSON-RPC messages, with optional per-response upgrade to
// Server-Sent Events and an opaque session identifier. It opens no
// standalone GET stream for server-initiated messages.
package transport

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"

	// Packages
	goclient "github.com/mutablelogic/go-client"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	"golang.org/x/sync/semaphore"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Transport is the interface the MCP client drives: send a message,
// optionally get an immediate response, and consume an inbound stream of
// messages that arrive asynchronously (via SSE upgrade, or on a background
// listener stream).
type Transport interface {
	// Connect prepares the transport for use. For Streamable HTTP this is
	// a cheap local operation; the first real exchange happens on Send.
	Connect(ctx context.Context) error

	// Disconnect tears the transport down. Idempotent: a second call is a
	// no-op. Cancels any open SSE reader and wakes Receive() consumers.
	Disconnect() error

	// Send posts msg to the server. It returns a non-nil immediate
	// response when the server answered with disposition 200+json; it
	// returns (nil, nil) for 202 Accepted or a 200+SSE upgrade, in which
	// case the eventual response (if any) arrives via Receive().
	Send(ctx context.Context, msg []byte) ([]byte, error)

	// Receive returns the channel of inbound messages decoded from
	// background SSE streams. It is closed on Disconnect.
	Receive() <-chan []byte

	// SessionID returns the current session id, or "" if none has been
	// observed yet.
	SessionID() string

	// OnEvent registers an observability listener. Safe to call before or
	// after Connect.
	OnEvent(fn EventFunc)
}

// StreamableHTTPTransport implements Transport per spec §4.1.
type StreamableHTTPTransport struct {
	cfg    *Config
	client *goclient.Client

	mu         sync.Mutex
	sessionID  string
	closed     bool
	closing    bool
	readerDone chan struct{}
	readerCancel context.CancelFunc

	sem *semaphore.Weighted

	inbound chan []byte

	eventMu   sync.Mutex
	listeners []EventFunc
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	acceptHeader = "application/json, text/event-stream"
	sessionIDHdr = "Mcp-Session-Id"
)

var _ Transport = (*StreamableHTTPTransport)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New builds a StreamableHTTPTransport bound to cfg.
func New(cfg *Config) (*StreamableHTTPTransport, error) {
	opts := []goclient.ClientOpt{goclient.OptEndpoint(cfg.URL)}
	for k, v := range cfg.Headers {
		opts = append(opts, goclient.OptReqHeader(k, v))
	}
	c, err := goclient.New(opts...)
	if err != nil {
		return nil, err
	}
	return &StreamableHTTPTransport{
		cfg:     cfg,
		client:  c,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests)),
		inbound: make(chan []byte, 64),
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (t *StreamableHTTPTransport) Connect(ctx context.Context) error {
	t.emit(Event{Kind: EventConnecting})
	t.mu.Lock()
	t.closed = false
	t.closing = false
	t.mu.Unlock()
	t.emit(Event{Kind: EventConnected})
	return nil
}

func (t *StreamableHTTPTransport) Disconnect() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.emit(Event{Kind: EventDisconnecting})
	t.closing = true
	cancel := t.readerCancel
	done := t.readerDone
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	t.mu.Lock()
	t.closed = true
	t.closing = false
	close(t.inbound)
	t.mu.Unlock()

	t.emit(Event{Kind: EventDisconnected})
	return nil
}

func (t *StreamableHTTPTransport) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

func (t *StreamableHTTPTransport) Receive() <-chan []byte {
	return t.inbound
}

func (t *StreamableHTTPTransport) OnEvent(fn EventFunc) {
	t.eventMu.Lock()
	defer t.eventMu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Send posts msg and classifies the response disposition per spec §4.1.
func (t *StreamableHTTPTransport) Send(ctx context.Context, msg []byte) ([]byte, error) {
	t.mu.Lock()
	closed, closing := t.closed, t.closing
	t.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if closing {
		return nil, ErrClosed
	}

	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer t.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, strings.NewReader(string(msg)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeader)
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}
	if sid := t.SessionID(); sid != "" {
		req.Header.Set(sessionIDHdr, sid)
	}

	resp, err := t.client.Client.Do(req)
	if err != nil {
		t.emitErr(err)
		return nil, &ConnectionError{URL: t.cfg.URL, Cause: err}
	}
	defer resp.Body.Close()

	t.adoptSessionID(resp.Header.Get(sessionIDHdr))
	t.emit(Event{Kind: EventMessageSent})

	switch {
	case resp.StatusCode == http.StatusAccepted:
		return nil, nil

	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		err := &Error{StatusCode: resp.StatusCode, Body: string(body)}
		t.emitErr(err)
		return nil, err

	case resp.StatusCode == http.StatusOK:
		ct := resp.Header.Get("Content-Type")
		mimetype, _, _ := mime.ParseMediaType(ct)
		switch mimetype {
		case "text/event-stream":
			t.emit(Event{Kind: EventSSEOpened})
			t.startReader(resp.Body)
			return nil, nil
		default:
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, err
			}
			t.emit(Event{Kind: EventMessageReceived})
			return data, nil
		}

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// startReader spawns a background reader over an SSE body returned in
// response to Send. Per spec §4.1, if a second SSE upgrade arrives while a
// previous reader is running, the previous one is cancelled first.
func (t *StreamableHTTPTransport) startReader(body io.ReadCloser) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	t.mu.Lock()
	if t.readerCancel != nil {
		prevCancel := t.readerCancel
		prevDone := t.readerDone
		t.mu.Unlock()
		prevCancel()
		<-prevDone
		t.mu.Lock()
	}
	t.readerCancel = cancel
	t.readerDone = done
	t.mu.Unlock()

	go func() {
		defer close(done)
		defer body.Close()
		defer t.emit(Event{Kind: EventSSEClosed})

		go func() {
			<-ctx.Done()
			body.Close()
		}()

		_ = decodeSSE(body, func(ev sseEvent) error {
			if ctx.Err() != nil {
				return io.EOF
			}
			if ev.Data == "" {
				return nil
			}
			select {
			case t.inbound <- []byte(ev.Data):
				t.emit(Event{Kind: EventMessageReceived})
			case <-ctx.Done():
				return io.EOF
			}
			return nil
		})
	}()
}

func (t *StreamableHTTPTransport) adoptSessionID(id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	changed := id != t.sessionID
	t.sessionID = id
	t.mu.Unlock()
	if changed {
		t.emit(Event{Kind: EventSessionEstablished, SessionID: id})
	}
}

func (t *StreamableHTTPTransport) emit(e Event) {
	t.eventMu.Lock()
	listeners := append([]EventFunc(nil), t.listeners...)
	t.eventMu.Unlock()
	for _, fn := range listeners {
		fn(e)
	}
}

func (t *StreamableHTTPTransport) emitErr(err error) {
	t.emit(Event{Kind: EventError, Err: err})
}

// IsHTTPStatus reports whether err is a transport *Error or an
// httpresponse.Err (or wraps one) carrying the given status code. Used by the client to decide whether to
// fall back from Streamable HTTP to the legacy SSE transport on 404/405.
func IsHTTPStatus(err error, code int) bool {
	var httpErr httpresponse.Err
	if errors.As(err, &httpErr) && int(httpErr) == code {
		return true
	}
	var te *Error
	if errors.As(err, &te) && te.StatusCode == code {
		return true
	}
	return false
}

// StatusCode extracts the HTTP status from a transport *Error, if any.
func StatusCode(err error) (int, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.StatusCode, true
	}
	return 0, false
}
