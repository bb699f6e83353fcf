package transport_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transport "github.com/mutablelogic/go-mcp/pkg/mcp/transport"
)

func TestURLPolicy(t *testing.T) {
	assert := assert.New(t)

	_, err := transport.NewConfig("http://example.com/mcp")
	assert.Error(err)

	_, err = transport.NewConfig("http://127.0.0.1:8080/mcp")
	assert.NoError(err)

	_, err = transport.NewConfig("https://example.com/mcp")
	assert.NoError(err)

	_, err = transport.NewConfig("ftp://example.com/mcp")
	assert.Error(err)
}

func TestSendImmediateJSON(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Mcp-Session-Id", "sess-1")
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":"1","result":{"ok":true}}`)
	}))
	defer srv.Close()

	cfg, err := transport.NewConfig("http://127.0.0.1" + srv.URL[len("http://127.0.0.1"):])
	require.NoError(err)

	tr, err := transport.New(cfg)
	require.NoError(err)
	require.NoError(tr.Connect(context.Background()))
	defer tr.Disconnect()

	resp, err := tr.Send(context.Background(), []byte(`{"jsonrpc":"2.0","id":"1","method":"ping"}`))
	require.NoError(err)
	assert.Contains(string(resp), `"ok":true`)
	assert.Equal("sess-1", tr.SessionID())
}

func TestSendAccepted(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg, err := transport.NewConfig(srv.URL)
	require.NoError(err)
	tr, err := transport.New(cfg)
	require.NoError(err)
	require.NoError(tr.Connect(context.Background()))
	defer tr.Disconnect()

	resp, err := tr.Send(context.Background(), []byte(`{}`))
	require.NoError(err)
	assert.Nil(resp)
}

func TestSendSSEUpgrade(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"jsonrpc\":\"2.0\",\"method\":\"notifications/progress\",\"params\":{}}\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	cfg, err := transport.NewConfig(srv.URL)
	require.NoError(err)
	tr, err := transport.New(cfg)
	require.NoError(err)
	require.NoError(tr.Connect(context.Background()))
	defer tr.Disconnect()

	resp, err := tr.Send(context.Background(), []byte(`{}`))
	require.NoError(err)
	assert.Nil(resp)

	select {
	case msg := <-tr.Receive():
		assert.Contains(string(msg), "notifications/progress")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound SSE message")
	}
}

func TestSendHTTPError(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer srv.Close()

	cfg, err := transport.NewConfig(srv.URL)
	require.NoError(err)
	tr, err := transport.New(cfg)
	require.NoError(err)
	require.NoError(tr.Connect(context.Background()))
	defer tr.Disconnect()

	_, err = tr.Send(context.Background(), []byte(`{}`))
	require.Error(err)

	code, ok := transport.StatusCode(err)
	assert.True(ok)
	assert.Equal(http.StatusInternalServerError, code)
}

func TestDisconnectIdempotent(t *testing.T) {
	require := require.New(t)

	cfg, err := transport.NewConfig("https://example.com/mcp")
	require.NoError(err)
	tr, err := transport.New(cfg)
	require.NoError(err)
	require.NoError(tr.Connect(context.Background()))

	require.NoError(tr.Disconnect())
	require.NoError(tr.Disconnect())
}

func TestSendWhileClosed(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	cfg, err := transport.NewConfig("https://example.com/mcp")
	require.NoError(err)
	tr, err := transport.New(cfg)
	require.NoError(err)
	require.NoError(tr.Connect(context.Background()))
	require.NoError(tr.Disconnect())

	_, err = tr.Send(context.Background(), []byte(`{}`))
	assert.ErrorIs(err, transport.ErrClosed)
}
