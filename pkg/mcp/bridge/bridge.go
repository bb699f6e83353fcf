// Package bridge implements the multi-server MCP bridge: it owns one
// client connection per configured server, fans tool discovery out across
// all of them, and synthesizes a unified, typed tool.Toolkit a host can
// hand straight to an LLM tool-calling loop.
package bridge

import (
	"context"
	"log"
	"sync"

	// Packages
	client "github.com/mutablelogic/go-mcp/pkg/mcp/client"
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
	transport "github.com/mutablelogic/go-mcp/pkg/mcp/transport"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Bridge is HybridMCPBridge: it owns a ConnectedServer per configured URL,
// negotiates and re-exposes handlers for every client-declared capability
// on each connection, and aggregates the tools they advertise.
type Bridge struct {
	info schema.Implementation
	caps schema.ClientCapabilities

	samplingFn   client.SamplingHandler
	elicitFn     client.ElicitationHandler
	roots        []schema.Root
	taskManagers bool

	mu      sync.Mutex
	servers map[string]*ConnectedServer
	configs []ServerConfig
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewBridge constructs a Bridge that will declare info and caps to every
// server it connects to.
func NewBridge(info schema.Implementation, caps schema.ClientCapabilities, opts ...BridgeOpt) *Bridge {
	b := &Bridge{
		info:    info,
		caps:    caps,
		servers: make(map[string]*ConnectedServer),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// AddServer registers a server to connect to on the next Initialize call.
// It does not itself open a connection.
func (b *Bridge) AddServer(cfg ServerConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configs = append(b.configs, cfg)
}

// Initialize connects to every registered server in turn. A connection
// failure of any kind, including a URL that fails validation, is logged and
// that server is skipped. Initialize always returns nil, even when no server
// connected — the caller decides whether that is fatal.
func (b *Bridge) Initialize(ctx context.Context) error {
	b.mu.Lock()
	configs := append([]ServerConfig(nil), b.configs...)
	b.mu.Unlock()

	for _, cfg := range configs {
		cs, err := b.connect(ctx, cfg)
		if err != nil {
			log.Printf("bridge: connect %s (%s): %v", cfg.Name, cfg.URL, err)
			continue
		}
		b.mu.Lock()
		b.servers[cfg.URL] = cs
		b.mu.Unlock()
	}
	return nil
}

// Shutdown disconnects every connected server and clears the registry. It
// is idempotent and safe to call more than once or concurrently with
// itself; a second call observes an empty map and does nothing.
func (b *Bridge) Shutdown() error {
	b.mu.Lock()
	servers := b.servers
	b.servers = make(map[string]*ConnectedServer)
	b.mu.Unlock()

	var errs error
	for url, cs := range servers {
		if err := cs.Client.Close(); err != nil {
			log.Printf("bridge: close %s: %v", url, err)
			if errs == nil {
				errs = err
			}
		}
	}
	return errs
}

// Registry returns a snapshot of every connected server.
func (b *Bridge) Registry() []ServerInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]ServerInfo, 0, len(b.servers))
	for url, cs := range b.servers {
		info := ServerInfo{Name: cs.Name, URL: url, Connected: cs.Negotiation != nil}
		if cs.Negotiation != nil {
			info.ProtocolVersion = cs.Negotiation.ProtocolVersion
			info.ServerInfo = cs.Negotiation.ServerInfo
			info.Capabilities = cs.Negotiation.ServerCapabilities
		}
		out = append(out, info)
	}
	return out
}

// Get returns the connected server for url, or nil if it is not connected.
func (b *Bridge) Get(url string) *ConnectedServer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.servers[url]
}

// Client returns the underlying *client.Client for url, implementing
// task.Getter-adjacent lookups a host needs to route a call by server URL.
func (b *Bridge) Client(url string) (*client.Client, error) {
	cs := b.Get(url)
	if cs == nil {
		return nil, &ServerNotFoundError{URL: url}
	}
	return cs.Client, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (b *Bridge) connect(ctx context.Context, cfg ServerConfig) (*ConnectedServer, error) {
	topts := []transport.ConfigOpt{}
	for k, v := range cfg.Headers {
		topts = append(topts, transport.WithHeader(k, v))
	}
	tcfg, err := transport.NewConfig(cfg.URL, topts...)
	if err != nil {
		return nil, err
	}
	tr, err := client.NewFallbackTransport(tcfg)
	if err != nil {
		return nil, err
	}

	c := client.New(tr, b.info, b.caps)
	if b.caps.Sampling != nil && b.samplingFn != nil {
		c.OnSampling(b.samplingFn)
	}
	if b.caps.Elicitation != nil && b.elicitFn != nil {
		c.OnElicitation(b.elicitFn)
	}
	if b.caps.Roots != nil && len(b.roots) > 0 {
		_ = c.Roots().Set(b.roots)
	}

	result, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}

	cs := &ConnectedServer{
		Name:        cfg.Name,
		Config:      cfg,
		Transport:   tr,
		Client:      c,
		Negotiation: result,
	}
	if b.taskManagers {
		cs.Tasks = task.NewManager()
		c.UseTasks(cs.Tasks)
	}
	return cs, nil
}
