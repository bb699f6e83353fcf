package bridge

import (
	// Packages
	client "github.com/mutablelogic/go-mcp/pkg/mcp/client"
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// BridgeOpt configures a Bridge during construction.
type BridgeOpt func(*Bridge)

// WithSamplingHandler registers the handler used to answer
// sampling/createMessage on every connection the bridge opens, provided
// the bridge's declared capabilities include sampling.
func WithSamplingHandler(fn client.SamplingHandler) BridgeOpt {
	return func(b *Bridge) { b.samplingFn = fn }
}

// WithElicitationHandler registers the handler used to answer
// elicitation/create on every connection the bridge opens.
func WithElicitationHandler(fn client.ElicitationHandler) BridgeOpt {
	return func(b *Bridge) { b.elicitFn = fn }
}

// WithRoots seeds every connection's RootsManager with roots, provided the
// bridge's declared capabilities include roots.
func WithRoots(roots []schema.Root) BridgeOpt {
	return func(b *Bridge) { b.roots = roots }
}

// WithTaskManagers gives every connection its own task.Manager, wired via
// client.UseTasks so the server can poll sampling/elicitation work the
// client chose to run as a task.
func WithTaskManagers() BridgeOpt {
	return func(b *Bridge) { b.taskManagers = true }
}

// Servers is a convenience constructor option equivalent to calling
// AddServer once per entry after NewBridge returns.
func Servers(configs ...ServerConfig) BridgeOpt {
	return func(b *Bridge) { b.configs = append(b.configs, configs...) }
}
