package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	// Packages
	kong "github.com/alecthomas/kong"
	mcpbridge "github.com/mutablelogic/go-mcp/pkg/mcp/bridge"
	mcpclient "github.com/mutablelogic/go-mcp/pkg/mcp/client"
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
	transport "github.com/mutablelogic/go-mcp/pkg/mcp/transport"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type CLI struct {
	Globals

	// Commands
	Ping     PingCommand     `cmd:"" help:"Ping the MCP server"`
	Login    LoginCommand    `cmd:"" help:"Login to an MCP server using OAuth"`
	Tools    ToolsCommand    `cmd:"" help:"List available tools"`
	Do       DoCommand       `cmd:"" help:"Call a tool by name"`
	RunTask  RunTaskCommand  `cmd:"" help:"Call a tool as a task and poll it to completion"`
	Prompts  PromptsCommand  `cmd:"" help:"List available prompts"`
	Prompt   PromptCommand   `cmd:"" help:"Get a prompt by name"`
	Complete CompleteCommand `cmd:"" help:"Request completion suggestions for a prompt or resource argument"`
	Bridge   BridgeCommand   `cmd:"" help:"List tools aggregated across every server in a config file"`
}

type Globals struct {
	Auth  string `name:"auth" help:"Authentication bearer token sent as Authorization: Bearer <token>" optional:""`
	Debug bool   `name:"debug" help:"Enable debug output" default:"false"`

	// Private
	ctx    context.Context
	cancel context.CancelFunc
	client *mcpclient.Client
}

type PingCommand struct {
	URL string `arg:"" help:"MCP server URL"`
}

type LoginCommand struct {
	URL  string `arg:"" help:"MCP server URL"`
	Port int    `name:"port" help:"Local port for OAuth callback" default:"0"`
}

type ToolsCommand struct {
	URL string `arg:"" help:"MCP server URL"`
}

type DoCommand struct {
	URL  string   `arg:"" help:"MCP server URL"`
	Name string   `arg:"" help:"Tool name"`
	Args []string `arg:"" help:"Tool arguments as key=value pairs" optional:""`
}

type RunTaskCommand struct {
	URL      string        `arg:"" help:"MCP server URL"`
	Name     string        `arg:"" help:"Tool name"`
	Args     []string      `arg:"" help:"Tool arguments as key=value pairs" optional:""`
	Interval time.Duration `name:"interval" help:"Poll interval" default:"500ms"`
}

type PromptsCommand struct {
	URL string `arg:"" help:"MCP server URL"`
}

type PromptCommand struct {
	URL  string   `arg:"" help:"MCP server URL"`
	Name string   `arg:"" help:"Prompt name"`
	Args []string `arg:"" help:"Prompt arguments as key=value pairs" optional:""`
}

type CompleteCommand struct {
	URL      string `arg:"" help:"MCP server URL"`
	Kind     string `arg:"" help:"Reference kind: prompt or resource"`
	Name     string `arg:"" help:"Prompt name or resource URI"`
	ArgName  string `arg:"" help:"Argument name to complete"`
	ArgValue string `arg:"" help:"Partial argument value"`
}

type BridgeCommand struct {
	Config string `arg:"" help:"Path to a JSON file of the form {\"mcpServers\":{...}}"`
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func main() {
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name("mcp-client"),
		kong.Description("MCP (Model Context Protocol) client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	// Create context
	cli.ctx, cli.cancel = signal.NotifyContext(context.Background(), os.Interrupt)
	defer cli.cancel()

	// Run the selected command
	cmd.FatalIfErrorf(cmd.Run(&cli.Globals))
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *LoginCommand) Run(g *Globals) error {
	fmt.Fprintf(os.Stderr, "Discovering OAuth metadata for %s...\n", cmd.URL)
	meta, err := mcpclient.DiscoverOAuth(g.ctx, cmd.URL)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Issuer: %s\n", meta.Issuer)

	if !meta.SupportsS256() {
		return fmt.Errorf("server does not support S256 PKCE")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cmd.Port))
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback", listener.Addr().(*net.TCPAddr).Port)

	if !meta.SupportsRegistration() {
		listener.Close()
		return fmt.Errorf("server does not support dynamic client registration; provide a client_id")
	}
	fmt.Fprintf(os.Stderr, "Registering client...\n")
	reg, err := meta.Register(g.ctx, "mcp-client", []string{redirectURI})
	if err != nil {
		listener.Close()
		return err
	}
	fmt.Fprintf(os.Stderr, "Client ID: %s\n", reg.ClientID)

	verifier := mcpclient.NewPKCEVerifier()
	cfg := meta.Config(reg.ClientID, redirectURI)
	authURL := mcpclient.AuthorizationURL(cfg, verifier)
	fmt.Fprintf(os.Stderr, "\nOpen this URL in your browser to authorize:\n\n")
	fmt.Println(authURL)
	fmt.Fprintf(os.Stderr, "\nWaiting for callback...\n")

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			desc := r.URL.Query().Get("error_description")
			http.Error(w, "Authorization failed: "+errMsg, http.StatusBadRequest)
			errCh <- fmt.Errorf("authorization failed: %s: %s", errMsg, desc)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			errCh <- fmt.Errorf("callback missing authorization code")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h2>Authorization successful</h2><p>You can close this window.</p></body></html>")
		codeCh <- code
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		server.Close()
		return err
	case <-g.ctx.Done():
		server.Close()
		return g.ctx.Err()
	}
	server.Close()

	fmt.Fprintf(os.Stderr, "Exchanging authorization code for token...\n")
	token, err := mcpclient.ExchangeCode(g.ctx, cfg, code, verifier)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(token)
}

func (cmd *PingCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.client.Close()

	if err := g.client.Ping(g.ctx); err != nil {
		return err
	}
	fmt.Println("OK")

	result := g.client.NegotiationResult()
	if result != nil {
		fmt.Printf("Server: %s %s (protocol %s)\n", result.ServerInfo.Name, result.ServerInfo.Version, result.ProtocolVersion)
		fmt.Printf("Capabilities: tools=%v prompts=%v resources=%v logging=%v\n",
			result.ServerCapabilities.Tools != nil,
			result.ServerCapabilities.Prompts != nil,
			result.ServerCapabilities.Resources != nil,
			result.ServerCapabilities.Logging != nil,
		)
	}
	return nil
}

func (cmd *ToolsCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.client.Close()

	tools, err := g.client.ListAllTools(g.ctx)
	if err != nil {
		return err
	}
	for i, t := range tools {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s\n", t.Name)
		if t.Description != "" {
			fmt.Printf("  %s\n", t.Description)
		}
		if len(t.InputSchema) > 0 {
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, t.InputSchema, "  ", "  "); err == nil {
				fmt.Printf("  %s\n", pretty.String())
			}
		}
	}
	fmt.Printf("\n%d tools\n", len(tools))
	return nil
}

func (cmd *DoCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.client.Close()

	args, err := parseArgsJSON(cmd.Args)
	if err != nil {
		return err
	}

	result, err := g.client.CallTool(g.ctx, cmd.Name, args)
	if err != nil {
		return err
	}

	if result.IsError {
		fmt.Fprintln(os.Stderr, "Tool returned an error")
	}
	for _, c := range result.Content {
		switch c.Type {
		case "text":
			fmt.Println(c.Text)
		default:
			fmt.Printf("[%s] %s\n", c.Type, c.MimeType)
		}
	}
	return nil
}

func (cmd *RunTaskCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.client.Close()

	mgr := task.NewManager()
	defer mgr.Close()
	g.client.UseTasks(mgr)

	args, err := parseArgsJSON(cmd.Args)
	if err != nil {
		return err
	}

	t, err := g.client.CallToolAsTask(cmd.Name, args)
	if err != nil {
		return err
	}
	fmt.Printf("task %s: %s\n", t.ID, t.State)

	ticker := time.NewTicker(cmd.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-g.ctx.Done():
			return g.ctx.Err()
		case <-ticker.C:
			t, err := mgr.Get(t.ID)
			if err != nil {
				return err
			}
			pct := 0.0
			if t.Progress != nil {
				pct = t.Progress.Current * 100
			}
			fmt.Printf("task %s: %s (%.0f%%)\n", t.ID, t.State, pct)
			if t.State.IsTerminal() {
				if t.Error != nil {
					return fmt.Errorf("task failed: %s", t.Error.Message)
				}
				data, _ := json.MarshalIndent(t.Result, "", "  ")
				fmt.Println(string(data))
				return nil
			}
		}
	}
}

func (cmd *PromptsCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.client.Close()

	prompts, err := g.client.ListAllPrompts(g.ctx)
	if err != nil {
		return err
	}
	for _, p := range prompts {
		fmt.Printf("%-30s %s\n", p.Name, p.Description)
		for _, arg := range p.Arguments {
			req := ""
			if arg.Required {
				req = " (required)"
			}
			fmt.Printf("  %-28s %s%s\n", arg.Name, arg.Description, req)
		}
	}
	fmt.Printf("\n%d prompts\n", len(prompts))
	return nil
}

func (cmd *PromptCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.client.Close()

	args := make(map[string]string)
	for _, kv := range cmd.Args {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("argument must be key=value, got %q", kv)
		}
		args[parts[0]] = parts[1]
	}

	result, err := g.client.GetPrompt(g.ctx, cmd.Name, args)
	if err != nil {
		return err
	}
	if result.Description != "" {
		fmt.Println(result.Description)
		fmt.Println()
	}
	for i, msg := range result.Messages {
		fmt.Printf("[%d] %s (%s):\n", i, msg.Role, msg.Content.Type)
		if msg.Content.Text != "" {
			fmt.Println(msg.Content.Text)
		}
		fmt.Println()
	}
	return nil
}

func (cmd *CompleteCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.client.Close()

	var ref schema.CompletionReference
	switch cmd.Kind {
	case "prompt":
		ref = schema.CompletionReference{Type: "ref/prompt", Name: cmd.Name}
	case "resource":
		ref = schema.CompletionReference{Type: "ref/resource", URI: cmd.Name}
	default:
		return fmt.Errorf("kind must be %q or %q, got %q", "prompt", "resource", cmd.Kind)
	}

	result, err := g.client.Complete(g.ctx, ref, schema.CompletionArgument{Name: cmd.ArgName, Value: cmd.ArgValue}, nil)
	if err != nil {
		return err
	}
	for _, v := range result.Values {
		fmt.Println(v)
	}
	if result.Total != nil {
		fmt.Printf("\n%d of %d total, hasMore=%v\n", len(result.Values), *result.Total, result.HasMore)
	}
	return nil
}

func (cmd *BridgeCommand) Run(g *Globals) error {
	cfg, err := mcpbridge.LoadConfig(cmd.Config)
	if err != nil {
		return err
	}

	b := mcpbridge.NewBridge(
		schema.Implementation{Name: "mcp-client", Version: "0.0.1"},
		schema.ClientCapabilities{},
		mcpbridge.Servers(cfg.ServerConfigs()...),
	)
	if err := b.Initialize(g.ctx); err != nil {
		return err
	}
	defer b.Shutdown()

	for _, s := range b.Registry() {
		fmt.Printf("%s: %s (connected=%v)\n", s.Name, s.URL, s.Connected)
	}

	tools, err := b.ListAllTools(g.ctx)
	if err != nil {
		return err
	}
	for _, t := range tools {
		fmt.Printf("%-30s %s [%s]\n", t.Name, t.Description, t.ServerURL)
	}
	fmt.Printf("\n%d tools across %d servers\n", len(tools), len(b.Registry()))
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// connect creates and stores the MCP client on Globals.
func (g *Globals) connect(url string) error {
	var topts []transport.ConfigOpt
	if g.Auth != "" {
		topts = append(topts, transport.WithHeader("Authorization", "Bearer "+g.Auth))
	}

	tcfg, err := transport.NewConfig(url, topts...)
	if err != nil {
		return err
	}
	tr, err := mcpclient.NewFallbackTransport(tcfg)
	if err != nil {
		return err
	}
	if g.Debug {
		tr.OnEvent(func(ev transport.Event) {
			fmt.Fprintf(os.Stderr, "transport: %+v\n", ev)
		})
	}

	c := mcpclient.New(tr, schema.Implementation{Name: "mcp-client", Version: "0.0.1"}, schema.ClientCapabilities{})
	c.OnNotification(func(method string, params json.RawMessage) {
		fmt.Printf("notification: %s %s\n", method, string(params))
	})

	if _, err := c.Connect(g.ctx); err != nil {
		return err
	}

	g.client = c
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// HELPERS

// parseArgsJSON converts key=value pairs to a JSON object (json.RawMessage).
// Returns nil if no args are provided.
func parseArgsJSON(args []string) (json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(args))
	for _, kv := range args {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("argument must be key=value, got %q", kv)
		}
		var v any
		if err := json.Unmarshal([]byte(parts[1]), &v); err != nil {
			v = parts[1]
		}
		m[parts[0]] = v
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
