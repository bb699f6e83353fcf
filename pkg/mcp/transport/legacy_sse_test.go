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

func TestLegacySSEConnectAndReceive(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	var messageURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", messageURL)
		flusher.Flush()
		fmt.Fprint(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"method\":\"notifications/progress\",\"params\":{}}\n\n")
		flusher.Flush()
		<-r.Context().Done()
	})
	mux.HandleFunc("/message", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	messageURL = srv.URL + "/message"

	cfg, err := transport.NewConfig(srv.URL + "/sse")
	require.NoError(err)
	tr, err := transport.NewLegacySSE(cfg)
	require.NoError(err)
	require.NoError(tr.Connect(context.Background()))
	defer tr.Disconnect()

	select {
	case msg := <-tr.Receive():
		assert.Contains(string(msg), "notifications/progress")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound SSE message")
	}

	resp, err := tr.Send(context.Background(), []byte(`{"jsonrpc":"2.0","id":"1","method":"ping"}`))
	require.NoError(err)
	assert.Nil(resp)
	assert.Equal("", tr.SessionID())
}

func TestLegacySSEConnectTimeout(t *testing.T) {
	require := require.New(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg, err := transport.NewConfig(srv.URL + "/sse")
	require.NoError(err)
	tr, err := transport.NewLegacySSE(cfg)
	require.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Error(tr.Connect(ctx))
}

func TestLegacySSESendWhileClosed(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "event: endpoint\ndata: /message\n\n")
		flusher.Flush()
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg, err := transport.NewConfig(srv.URL + "/sse")
	require.NoError(err)
	tr, err := transport.NewLegacySSE(cfg)
	require.NoError(err)
	require.NoError(tr.Connect(context.Background()))
	require.NoError(tr.Disconnect())

	_, err = tr.Send(context.Background(), []byte(`{}`))
	assert.ErrorIs(err, transport.ErrClosed)
}
