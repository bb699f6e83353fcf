package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	// Packages
	goclient "github.com/mutablelogic/go-client"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// LegacySSETransport implements the pre-2025-03-26 MCP transport: a
// long-lived GET SSE stream carries inbound messages, and outbound
// messages are POSTed to a message endpoint the server announces as the
// stream's first "endpoint" event. It exists as a fallback for servers
// that don't speak Streamable HTTP, selected by the client on a 404/405
// from the Streamable HTTP attempt (see IsHTTPStatus).
type LegacySSETransport struct {
	cfg    *Config
	client *goclient.Client

	mu         sync.Mutex
	messageURL string
	closed     bool
	body       io.ReadCloser
	cancel     context.CancelFunc
	done       chan struct{}

	inbound chan []byte

	eventMu   sync.Mutex
	listeners []EventFunc
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// EndpointEventTimeout bounds how long Connect waits for the server's
// initial "endpoint" SSE event before giving up.
const EndpointEventTimeout = 30 * time.Second

var _ Transport = (*LegacySSETransport)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewLegacySSE builds a LegacySSETransport bound to cfg.
func NewLegacySSE(cfg *Config) (*LegacySSETransport, error) {
	opts := []goclient.ClientOpt{goclient.OptEndpoint(cfg.URL)}
	for k, v := range cfg.Headers {
		opts = append(opts, goclient.OptReqHeader(k, v))
	}
	c, err := goclient.New(opts...)
	if err != nil {
		return nil, err
	}
	return &LegacySSETransport{
		cfg:     cfg,
		client:  c,
		inbound: make(chan []byte, 64),
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Connect opens the long-lived GET SSE stream and waits for the server's
// endpoint event naming where outbound messages should be POSTed.
func (t *LegacySSETransport) Connect(ctx context.Context) error {
	t.emit(Event{Kind: EventConnecting})

	streamCtx, cancel := context.WithCancel(context.Background())
	// The stream outlives ctx, but until Connect returns ctx's cancellation
	// also aborts the GET, including a server that never sends headers.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, t.cfg.URL, nil)
	if err != nil {
		cancel()
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Client.Do(req)
	if err != nil {
		cancel()
		t.emitErr(err)
		return &ConnectionError{URL: t.cfg.URL, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		cancel()
		return &Error{StatusCode: resp.StatusCode, Body: string(body)}
	}

	endpointCh := make(chan string, 1)
	done := make(chan struct{})

	t.mu.Lock()
	t.body = resp.Body
	t.cancel = cancel
	t.done = done
	t.closed = false
	t.mu.Unlock()

	go t.readLoop(streamCtx, resp.Body, endpointCh, done)

	select {
	case ep := <-endpointCh:
		messageURL, err := resolveEndpoint(t.cfg.URL, ep)
		if err != nil {
			cancel()
			return err
		}
		t.mu.Lock()
		t.messageURL = messageURL
		t.mu.Unlock()
		t.emit(Event{Kind: EventConnected})
		return nil
	case <-time.After(EndpointEventTimeout):
		cancel()
		return fmt.Errorf("legacy SSE transport: timeout waiting for endpoint event")
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

func (t *LegacySSETransport) Disconnect() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.emit(Event{Kind: EventDisconnecting})
	cancel := t.cancel
	done := t.done
	t.closed = true
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	close(t.inbound)
	t.emit(Event{Kind: EventDisconnected})
	return nil
}

func (t *LegacySSETransport) SessionID() string { return "" }

func (t *LegacySSETransport) Receive() <-chan []byte { return t.inbound }

func (t *LegacySSETransport) OnEvent(fn EventFunc) {
	t.eventMu.Lock()
	defer t.eventMu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Send POSTs msg to the message endpoint announced at Connect time. The
// legacy transport never returns an immediate response: every reply,
// like every server-initiated message, arrives over the SSE stream and
// is surfaced through Receive.
func (t *LegacySSETransport) Send(ctx context.Context, msg []byte) ([]byte, error) {
	t.mu.Lock()
	closed, messageURL := t.closed, t.messageURL
	t.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if messageURL == "" {
		return nil, fmt.Errorf("legacy SSE transport: not connected")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, messageURL, strings.NewReader(string(msg)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Client.Do(req)
	if err != nil {
		t.emitErr(err)
		return nil, &ConnectionError{URL: messageURL, Cause: err}
	}
	defer resp.Body.Close()
	t.emit(Event{Kind: EventMessageSent})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		err := &Error{StatusCode: resp.StatusCode, Body: string(body)}
		t.emitErr(err)
		return nil, err
	}
	io.Copy(io.Discard, resp.Body)
	return nil, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (t *LegacySSETransport) readLoop(ctx context.Context, body io.ReadCloser, endpointCh chan<- string, done chan struct{}) {
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
		switch ev.Name {
		case "endpoint":
			select {
			case endpointCh <- ev.Data:
			default:
			}
			return nil
		case "message", "":
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
		default:
			return nil
		}
	})
}

func resolveEndpoint(base, endpoint string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("legacy SSE transport: %w", err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("legacy SSE transport: invalid endpoint %q: %w", endpoint, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

func (t *LegacySSETransport) emit(e Event) {
	t.eventMu.Lock()
	listeners := append([]EventFunc(nil), t.listeners...)
	t.eventMu.Unlock()
	for _, fn := range listeners {
		fn(e)
	}
}

func (t *LegacySSETransport) emitErr(err error) {
	t.emit(Event{Kind: EventError, Err: err})
}
