package client

import (
	"context"
	"log"
	"sync"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// LogLevel is one of the RFC-5424 severities, in increasing order of
// severity (debug is least severe, emergency most).
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
	LevelCritical
	LevelAlert
	LevelEmergency
)

var levelNames = map[string]LogLevel{
	"debug":     LevelDebug,
	"info":      LevelInfo,
	"notice":    LevelNotice,
	"warning":   LevelWarning,
	"error":     LevelError,
	"critical":  LevelCritical,
	"alert":     LevelAlert,
	"emergency": LevelEmergency,
}

func (l LogLevel) String() string {
	for name, v := range levelNames {
		if v == l {
			return name
		}
	}
	return "unknown"
}

// LogListener receives inbound notifications/message entries that pass the
// configured minimum level.
type LogListener func(level LogLevel, logger string, data any)

type loggingState struct {
	mu       sync.Mutex
	minLevel LogLevel
	prefix   string
	forward  bool
	listener LogListener
	cached   string
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// OnLogMessage registers a listener for inbound notifications/message
// (log message) notifications that meet the configured minimum level.
func (c *Client) OnLogMessage(fn LogListener) {
	c.logging.mu.Lock()
	defer c.logging.mu.Unlock()
	c.logging.listener = fn
}

// SetMinLogLevel filters which inbound log notifications reach the
// registered listener and the forwarded standard log output.
func (c *Client) SetMinLogLevel(level LogLevel) {
	c.logging.mu.Lock()
	defer c.logging.mu.Unlock()
	c.logging.minLevel = level
}

// ForwardLogsTo enables forwarding of inbound log notifications to the
// standard log package under prefix. RFC-5424's notice/alert/emergency
// collapse to info/critical respectively, since log.Logger has no finer
// granularity.
func (c *Client) ForwardLogsTo(prefix string) {
	c.logging.mu.Lock()
	defer c.logging.mu.Unlock()
	c.logging.forward = true
	c.logging.prefix = prefix
}

// SetLevel asks the server to filter notifications/message below level.
// The client's cached level is only updated once the server acknowledges.
func (c *Client) SetLevel(ctx context.Context, level string) error {
	if _, err := c.Request(ctx, schema.MethodLoggingSetLevel, schema.RequestSetLevel{Level: level}); err != nil {
		return err
	}
	c.logging.mu.Lock()
	c.logging.cached = level
	c.logging.mu.Unlock()
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *Client) dispatchLogMessage(note schema.LoggingMessageNotification) {
	level, ok := levelNames[note.Level]
	if !ok {
		level = LevelInfo
	}

	c.logging.mu.Lock()
	min := c.logging.minLevel
	fn := c.logging.listener
	forward := c.logging.forward
	prefix := c.logging.prefix
	c.logging.mu.Unlock()

	if level < min {
		return
	}
	if fn != nil {
		fn(level, note.Logger, note.Data)
	}
	if forward {
		log.Printf("%s[%s] %s: %v", prefix, collapseLevel(level), note.Logger, note.Data)
	}
}

// collapseLevel maps RFC-5424 severities without a standard-log equivalent
// onto the nearest one the host's log facility understands.
func collapseLevel(l LogLevel) string {
	switch l {
	case LevelNotice:
		return "INFO"
	case LevelAlert, LevelEmergency:
		return "CRITICAL"
	default:
		return l.String()
	}
}
