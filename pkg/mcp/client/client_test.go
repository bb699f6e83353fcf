package client

import (
	"context"
	"errors"
	"testing"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	state "github.com/mutablelogic/go-mcp/pkg/mcp/state"
	assert "github.com/stretchr/testify/assert"
)

func Test_Connect_001(t *testing.T) {
	assert := assert.New(t)

	c, _ := connectedClient(t, schema.ServerCapabilities{Tools: &schema.ListCapability{}})
	assert.Equal(state.Ready, c.State())

	result := c.NegotiationResult()
	if assert.NotNil(result) {
		assert.Equal("fake-server", result.ServerInfo.Name)
		assert.True(result.HasTools())
		assert.False(result.HasPrompts())
	}
}

func Test_Connect_002_IncompatibleProtocol(t *testing.T) {
	assert := assert.New(t)

	tr := newFakeTransport()
	tr.on(schema.MethodInitialize, func(req schema.Request) (any, *schema.Error, bool) {
		return schema.ResponseInitialize{ProtocolVersion: "1999-01-01"}, nil, true
	})

	c := New(tr, schema.Implementation{Name: "test-client"}, defaultClientCaps())
	_, err := c.Connect(context.Background())

	var incompat *IncompatibleProtocolError
	assert.True(errors.As(err, &incompat))
	assert.Equal(state.Disconnected, c.State())
}

func Test_Connect_003_RequiresSamplingHandler(t *testing.T) {
	assert := assert.New(t)

	tr := newFakeTransport()
	tr.on(schema.MethodInitialize, okInitializeHandler(schema.ServerCapabilities{}))

	caps := defaultClientCaps()
	caps.Sampling = &schema.SamplingCapability{}
	c := New(tr, schema.Implementation{Name: "test-client"}, caps)

	_, err := c.Connect(context.Background())
	var missing *MissingSamplingHandlerError
	assert.True(errors.As(err, &missing))

	// Registering a handler before connecting satisfies the invariant.
	tr2 := newFakeTransport()
	tr2.on(schema.MethodInitialize, okInitializeHandler(schema.ServerCapabilities{}))
	c2 := New(tr2, schema.Implementation{Name: "test-client"}, caps)
	c2.OnSampling(func(ctx context.Context, req schema.RequestCreateMessage) (*schema.ResponseCreateMessage, error) {
		return &schema.ResponseCreateMessage{}, nil
	})
	_, err = c2.Connect(context.Background())
	assert.NoError(err)
}

func Test_Ping_001(t *testing.T) {
	assert := assert.New(t)

	c, tr := connectedClient(t, schema.ServerCapabilities{})
	tr.on(schema.MethodPing, func(req schema.Request) (any, *schema.Error, bool) {
		return struct{}{}, nil, true
	})
	assert.NoError(c.Ping(context.Background()))
}

func Test_CancelRequest_001_RefusesInitialize(t *testing.T) {
	assert := assert.New(t)

	c, _ := connectedClient(t, schema.ServerCapabilities{})
	id := c.initializeRequestID()
	if assert.NotEmpty(id) {
		err := c.CancelRequest(context.Background(), id, "test")
		var cancelErr *CancellationError
		assert.True(errors.As(err, &cancelErr))
	}
}

func Test_CancelRequest_002_CancelsPending(t *testing.T) {
	assert := assert.New(t)

	c, tr := connectedClient(t, schema.ServerCapabilities{})
	// No handler registered for "slow/op": the request is left pending
	// until cancelled.
	_ = tr

	var id string
	var reqErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, reqID, err := c.requestID(context.Background(), "slow/op", nil)
		id = reqID
		reqErr = err
	}()

	// Give the goroutine time to register the pending request.
	deadline := time.Now().Add(time.Second)
	for {
		c.mu.Lock()
		n := len(c.pending)
		c.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	c.mu.Lock()
	for pendingID := range c.pending {
		id = pendingID
	}
	c.mu.Unlock()

	assert.NoError(c.CancelRequest(context.Background(), id, "no longer needed"))
	<-done

	var rpcErr *schema.Error
	if assert.True(errors.As(reqErr, &rpcErr)) {
		assert.Equal(schema.ErrorCodeRequestCancelled, rpcErr.Code)
	}

	c.mu.Lock()
	_, stillPending := c.pending[id]
	c.mu.Unlock()
	assert.False(stillPending)
}

func Test_RequestID_001_DeadlineExceeded(t *testing.T) {
	assert := assert.New(t)

	c, _ := connectedClient(t, schema.ServerCapabilities{})
	// No handler registered for "slow/op": the request is left pending
	// until the deadline fires.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err := c.requestID(ctx, "slow/op", nil)
	var rpcErr *schema.Error
	if assert.True(errors.As(err, &rpcErr)) {
		assert.Equal(schema.ErrorCodeRequestTimeout, rpcErr.Code)
	}
}

func Test_RequestID_002_CallerCancelled(t *testing.T) {
	assert := assert.New(t)

	c, _ := connectedClient(t, schema.ServerCapabilities{})
	// No handler registered for "slow/op": the request is left pending
	// until the caller cancels its own context (not via CancelRequest).
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var reqErr error
	go func() {
		defer close(done)
		_, _, reqErr = c.requestID(ctx, "slow/op", nil)
	}()

	deadline := time.Now().Add(time.Second)
	for {
		c.mu.Lock()
		n := len(c.pending)
		c.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done

	var rpcErr *schema.Error
	if assert.True(errors.As(reqErr, &rpcErr)) {
		assert.Equal(schema.ErrorCodeRequestCancelled, rpcErr.Code)
	}
}

func Test_Close_001_WakesPending(t *testing.T) {
	assert := assert.New(t)

	c, _ := connectedClient(t, schema.ServerCapabilities{})

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), "slow/op", nil)
		errCh <- err
	}()

	deadline := time.Now().Add(time.Second)
	for {
		c.mu.Lock()
		n := len(c.pending)
		c.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	assert.NoError(c.Close())
	err := <-errCh
	var rpcErr *schema.Error
	if assert.True(errors.As(err, &rpcErr)) {
		assert.Equal(schema.ErrorCodeRequestCancelled, rpcErr.Code)
	}
	assert.Equal(state.Closed, c.State())
}
