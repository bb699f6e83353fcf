// Package client implements the MCP client core: capability negotiation,
// request/response correlation over a Transport, and the protocol-level
// operations (tools, prompts, resources, roots, sampling, elicitation,
// completion, logging, cancellation, tasks) built on top of it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	state "github.com/mutablelogic/go-mcp/pkg/mcp/state"
	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
	transport "github.com/mutablelogic/go-mcp/pkg/mcp/transport"
	trace "go.opentelemetry.io/otel/trace"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// NotifyFunc is called for server-initiated notifications (list-changed and
// any other method) received off the inbound stream that are not consumed
// by a dedicated subsystem handler; progress, log message and cancellation
// notifications never reach it.
type NotifyFunc func(method string, params json.RawMessage)

// RequestHandler answers a server-initiated request registered via
// OnRequest. Returning a non-nil *schema.Error sends that error back to
// the server verbatim; any other error is converted to INTERNAL_ERROR.
type RequestHandler func(ctx context.Context, params json.RawMessage) (any, error)

// SamplingHandler answers sampling/createMessage requests initiated by the
// server. A returned error denies the request; the denial is reported to
// the server as an INTERNAL_ERROR carrying data.reason="denied".
type SamplingHandler func(ctx context.Context, req schema.RequestCreateMessage) (*schema.ResponseCreateMessage, error)

// ElicitationHandler answers elicitation/create requests initiated by the
// server, normally by prompting a human for input or confirmation.
type ElicitationHandler func(ctx context.Context, req schema.RequestElicit) (*schema.ResponseElicit, error)

// Client is an MCP client bound to a single server connection.
type Client struct {
	info schema.Implementation
	caps schema.ClientCapabilities
	tr   transport.Transport
	sm   *state.Machine

	mu      sync.Mutex
	pending map[string]chan rpcResult
	result  *schema.NegotiationResult

	notifyMu sync.Mutex
	notifyFn NotifyFunc

	handlersMu sync.Mutex
	handlers   map[string]RequestHandler

	samplingMu sync.Mutex
	samplingFn SamplingHandler

	elicitMu   sync.Mutex
	elicitFn   ElicitationHandler
	urlSchemes []string

	roots        *RootsManager
	toolCache    toolCache
	cancellation cancellation
	progress     progressTracker
	logging      loggingState
	tracer       trace.Tracer

	tasksMu sync.Mutex
	tasks   *task.Manager

	dispatchOnce sync.Once
}

type rpcResult struct {
	result any
	rpcErr *schema.Error
	err    error
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// DefaultRequestTimeout bounds a request/response round trip when the
// caller's context carries no deadline of its own.
const DefaultRequestTimeout = 60 * time.Second

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New constructs a Client bound to tr, declaring info and caps for the
// eventual handshake. The client is not connected until Connect is called.
func New(tr transport.Transport, info schema.Implementation, caps schema.ClientCapabilities) *Client {
	return &Client{
		info:    info,
		caps:    caps,
		tr:      tr,
		sm:      state.New(),
		pending: make(map[string]chan rpcResult),
		roots:   newRootsManager(),
	}
}

// Connect transitions DISCONNECTED -> CONNECTING -> INITIALIZING -> READY:
// it opens the transport, starts the inbound dispatcher, and performs the
// initialize/initialized handshake.
func (c *Client) Connect(ctx context.Context) (_ *schema.NegotiationResult, err error) {
	ctx, endSpan := c.startSpan(ctx, "Connect", "")
	defer func() { endSpan(err) }()

	if err := c.sm.Transition(state.Connecting); err != nil {
		return nil, err
	}
	if err := c.tr.Connect(ctx); err != nil {
		c.sm.ForceState(state.Disconnected)
		return nil, err
	}

	c.dispatchOnce.Do(func() { go c.dispatch() })

	if err := c.sm.Transition(state.Initializing); err != nil {
		return nil, err
	}

	result, err := c.negotiate(ctx)
	if err != nil {
		c.sm.ForceState(state.Disconnected)
		return nil, err
	}

	c.samplingMu.Lock()
	missingSampling := c.caps.RequiresSamplingHandler() && c.samplingFn == nil
	c.samplingMu.Unlock()
	if missingSampling {
		c.sm.ForceState(state.Disconnected)
		return nil, &MissingSamplingHandlerError{}
	}

	if err := c.sm.Transition(state.Ready); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.result = result
	c.mu.Unlock()

	return result, nil
}

// Close transitions the client towards CLOSED, tearing down the transport
// and waking any pending requests with a cancellation error.
func (c *Client) Close() error {
	_ = c.sm.Transition(state.Closing)

	err := c.tr.Disconnect()

	c.mu.Lock()
	for id, ch := range c.pending {
		ch <- rpcResult{rpcErr: schema.ErrCancelled("client closed")}
		delete(c.pending, id)
	}
	c.mu.Unlock()

	_ = c.sm.Transition(state.Closed)
	return err
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// NegotiationResult returns the result of the initialize handshake, or nil
// if the client has not reached READY.
func (c *Client) NegotiationResult() *schema.NegotiationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// State reports the current protocol lifecycle state.
func (c *Client) State() state.ProtocolState { return c.sm.State() }

// OnNotification registers the callback invoked for server-initiated
// notifications not otherwise consumed by a dedicated handler.
func (c *Client) OnNotification(fn NotifyFunc) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.notifyFn = fn
}

// OnSampling registers the handler for sampling/createMessage requests.
// Declaring SamplingCapability without registering a handler makes Connect
// fail with MissingSamplingHandlerError; a sampling request that arrives
// while no handler is registered is denied with an INTERNAL_ERROR.
func (c *Client) OnSampling(fn SamplingHandler) {
	c.samplingMu.Lock()
	defer c.samplingMu.Unlock()
	c.samplingFn = fn
}

// OnElicitation registers the handler for elicitation/create requests.
func (c *Client) OnElicitation(fn ElicitationHandler) {
	c.elicitMu.Lock()
	defer c.elicitMu.Unlock()
	c.elicitFn = fn
}

// OnRequest registers fn to answer server-initiated requests for method.
// It is the generic extension point §4.3 specifies for subsystems (the
// task manager's tasks/list, tasks/get, tasks/cancel surface) that are not
// among the handful of methods client.go answers directly. Registering a
// handler for a method client.go already owns (ping, the sampling/
// elicitation/roots triad) has no effect: those are answered first.
func (c *Client) OnRequest(method string, fn RequestHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	if c.handlers == nil {
		c.handlers = make(map[string]RequestHandler)
	}
	c.handlers[method] = fn
}

// Roots returns the client-side roots manager backing the roots/list
// handler.
func (c *Client) Roots() *RootsManager { return c.roots }

// Request sends a JSON-RPC request for method with params and blocks for
// the correlated response, honoring ctx's deadline with a
// DefaultRequestTimeout fallback. A JSON-RPC error response surfaces as a
// *schema.Error. The raw result is returned as `any`; use
// schema.DecodeResult to project it onto a concrete wire type.
func (c *Client) Request(ctx context.Context, method string, params any) (any, error) {
	result, _, err := c.requestID(ctx, method, params)
	return result, err
}

// requestID behaves like Request but also returns the generated request id,
// needed by callers (negotiate, cancellation bookkeeping) that must track a
// specific in-flight request.
func (c *Client) requestID(ctx context.Context, method string, params any) (result any, id string, err error) {
	ctx, endSpan := c.startSpan(ctx, "Request", method)
	defer func() { endSpan(err) }()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	raw, err := marshalParams(params)
	if err != nil {
		return nil, "", err
	}
	req, err := schema.NewRequest(method, raw)
	if err != nil {
		return nil, "", err
	}

	ch := make(chan rpcResult, 1)
	c.mu.Lock()
	c.pending[req.ID] = ch
	c.mu.Unlock()

	cleanup := func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}

	data, err := json.Marshal(req)
	if err != nil {
		cleanup()
		return nil, req.ID, err
	}

	immediate, err := c.tr.Send(ctx, data)
	if err != nil {
		cleanup()
		return nil, req.ID, err
	}
	if immediate != nil {
		if err := c.deliver(immediate); err != nil {
			cleanup()
			return nil, req.ID, err
		}
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, req.ID, res.err
		}
		if res.rpcErr != nil {
			return nil, req.ID, res.rpcErr
		}
		return res.result, req.ID, nil
	case <-ctx.Done():
		cleanup()
		if errors.Is(ctx.Err(), context.Canceled) {
			_, _ = c.Notify(context.Background(), schema.NotificationCancelled, schema.CancelledNotification{RequestID: req.ID, Reason: "cancelled"})
			return nil, req.ID, schema.ErrCancelled("context canceled")
		}
		_, _ = c.Notify(context.Background(), schema.NotificationCancelled, schema.CancelledNotification{RequestID: req.ID, Reason: "timeout"})
		return nil, req.ID, schema.ErrTimeout(0)
	}
}

// Notify sends a JSON-RPC notification; no response is expected.
func (c *Client) Notify(ctx context.Context, method string, params any) ([]byte, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	note, err := schema.NewNotification(method, raw)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(note)
	if err != nil {
		return nil, err
	}
	return c.tr.Send(ctx, data)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// dispatch drains the transport's inbound channel (messages delivered
// asynchronously via the SSE upgrade or the background listener stream)
// and routes each one through deliver.
func (c *Client) dispatch() {
	for msg := range c.tr.Receive() {
		_ = c.deliver(msg)
	}
}

// deliver classifies a raw message and either completes a pending request,
// dispatches a notification, or answers a server-initiated request.
func (c *Client) deliver(data []byte) error {
	kind, err := schema.Classify(data)
	if err != nil {
		return err
	}

	switch kind {
	case schema.KindResponse:
		var resp schema.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return err
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- rpcResult{result: resp.Result, rpcErr: resp.Err}
		}
		return nil

	case schema.KindNotification:
		var note schema.Notification
		if err := json.Unmarshal(data, &note); err != nil {
			return err
		}
		return c.handleServerNotification(note)

	case schema.KindRequest:
		var req schema.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		return c.handleServerRequest(req)

	default:
		return fmt.Errorf("mcp: unrecognized inbound message")
	}
}

// handleServerNotification dispatches server->client notifications. Cancel,
// log and progress notifications have dedicated owners; everything else
// falls through to the generic NotifyFunc callback.
func (c *Client) handleServerNotification(note schema.Notification) error {
	switch note.Method {
	case schema.NotificationCancelled:
		var cn schema.CancelledNotification
		if err := json.Unmarshal(note.Payload, &cn); err != nil {
			return err
		}
		c.dispatchServerCancel(cn)
		return nil
	case schema.NotificationMessage:
		var ln schema.LoggingMessageNotification
		if err := json.Unmarshal(note.Payload, &ln); err != nil {
			return err
		}
		c.dispatchLogMessage(ln)
		return nil
	case schema.NotificationProgress:
		var pn schema.ProgressNotification
		if err := json.Unmarshal(note.Payload, &pn); err != nil {
			return err
		}
		c.dispatchProgress(pn.ProgressToken, pn.Progress, pn.Total, pn.Message)
		return nil
	}

	c.notifyMu.Lock()
	fn := c.notifyFn
	c.notifyMu.Unlock()
	if fn != nil {
		fn(note.Method, note.Payload)
	}
	return nil
}

// handleServerRequest answers server-initiated requests: sampling,
// elicitation, roots/list, and ping.
func (c *Client) handleServerRequest(req schema.Request) error {
	ctx := context.Background()
	var result any
	var rpcErr *schema.Error

	switch req.Method {
	case schema.MethodCreateMessage:
		result, rpcErr = c.answerSampling(ctx, req)
	case schema.MethodElicitationCreate:
		result, rpcErr = c.answerElicitation(ctx, req)
	case schema.MethodListRoots:
		result = c.roots.List()
	case schema.MethodPing:
		result = struct{}{}
	default:
		c.handlersMu.Lock()
		fn := c.handlers[req.Method]
		c.handlersMu.Unlock()
		if fn == nil {
			rpcErr = schema.NewError(schema.ErrorCodeMethodNotFound, "method not found: "+req.Method)
			break
		}
		result, rpcErr = c.answerRegistered(ctx, fn, req.Payload)
	}

	resp := schema.Response{Version: schema.RPCVersion, ID: req.ID}
	if rpcErr != nil {
		resp.Err = rpcErr
	} else {
		resp.Result = result
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = c.tr.Send(ctx, data)
	return err
}

func (c *Client) answerSampling(ctx context.Context, req schema.Request) (any, *schema.Error) {
	c.samplingMu.Lock()
	fn := c.samplingFn
	c.samplingMu.Unlock()
	if fn == nil {
		denied := &SamplingDeniedError{Reason: "no handler registered"}
		return nil, schema.NewError(schema.ErrorCodeInternalError, denied.Error(), map[string]string{"reason": "denied"})
	}
	var params schema.RequestCreateMessage
	if err := json.Unmarshal(req.Payload, &params); err != nil {
		return nil, schema.NewError(schema.ErrorCodeInvalidParams, err.Error())
	}
	result, err := fn(ctx, params)
	if err != nil {
		if err == context.DeadlineExceeded {
			timeout := &SamplingTimeoutError{}
			return nil, schema.NewError(schema.ErrorCodeRequestTimeout, timeout.Error())
		}
		denied := &SamplingDeniedError{Reason: err.Error()}
		return nil, schema.NewError(schema.ErrorCodeInternalError, denied.Error(), map[string]string{"reason": "denied"})
	}
	return result, nil
}

func (c *Client) answerElicitation(ctx context.Context, req schema.Request) (any, *schema.Error) {
	var params schema.RequestElicit
	if err := json.Unmarshal(req.Payload, &params); err != nil {
		return nil, schema.NewError(schema.ErrorCodeInvalidParams, err.Error())
	}
	if err := c.checkElicitationURL(params); err != nil {
		return nil, schema.NewError(schema.ErrorCodeInvalidParams, err.Error())
	}

	c.elicitMu.Lock()
	fn := c.elicitFn
	c.elicitMu.Unlock()
	if fn == nil {
		err := &ElicitationError{Cause: fmt.Errorf("no handler registered")}
		return nil, schema.NewError(schema.ErrorCodeInternalError, err.Error())
	}
	result, err := fn(ctx, params)
	if err != nil {
		if err == context.DeadlineExceeded {
			timeout := &ElicitationTimeoutError{}
			return nil, schema.NewError(schema.ErrorCodeRequestTimeout, timeout.Error())
		}
		wrapped := &ElicitationError{Cause: err}
		return nil, schema.NewError(schema.ErrorCodeInternalError, wrapped.Error())
	}
	return result, nil
}

// answerRegistered invokes a handler registered via OnRequest, converting
// any non-*schema.Error failure to INTERNAL_ERROR per the receive loop's
// error-conversion rule in §4.3.
func (c *Client) answerRegistered(ctx context.Context, fn RequestHandler, payload json.RawMessage) (any, *schema.Error) {
	result, err := fn(ctx, payload)
	if err == nil {
		return result, nil
	}
	var rpcErr *schema.Error
	if ok := func() bool {
		e, ok := err.(*schema.Error)
		if ok {
			rpcErr = e
		}
		return ok
	}(); ok {
		return nil, rpcErr
	}
	return nil, schema.NewError(schema.ErrorCodeInternalError, err.Error())
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	return json.Marshal(params)
}
