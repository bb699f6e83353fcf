package transport

import (
	"fmt"
	"net/url"
	"time"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Config configures a Transport. Construct with NewConfig so the URL policy
// of spec §4.1 is enforced at configuration time rather than at first use.
type Config struct {
	URL                   string
	Headers               map[string]string
	MaxConcurrentRequests int
	ConnectTimeout        time.Duration
	RequestTimeout        time.Duration

	// insecureLoopbackOK is not read: the scheme policy (https always,
	// http only for loopback hosts) is fixed in validateURL.
	insecureLoopbackOK bool
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultMaxConcurrentRequests = 8
	DefaultConnectTimeout        = 10 * time.Second
	DefaultRequestTimeout        = 60 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewConfig validates endpoint and returns a Config with defaults applied.
// Per spec §4.1's URL policy, only https is accepted for non-loopback
// hosts; http is accepted only against localhost/127.0.0.1/::1.
func NewConfig(endpoint string, opts ...ConfigOpt) (*Config, error) {
	c := &Config{
		URL:                   endpoint,
		MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		ConnectTimeout:        DefaultConnectTimeout,
		RequestTimeout:        DefaultRequestTimeout,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := validateURL(c.URL); err != nil {
		return nil, err
	}
	return c, nil
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// ConfigOpt mutates a Config during construction.
type ConfigOpt func(*Config) error

// WithHeader adds a static header sent on every outbound request (e.g.
// Authorization).
func WithHeader(key, value string) ConfigOpt {
	return func(c *Config) error {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
		return nil
	}
}

// WithMaxConcurrentRequests overrides the semaphore bound on in-flight
// HTTP POSTs.
func WithMaxConcurrentRequests(n int) ConfigOpt {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("max concurrent requests must be positive")
		}
		c.MaxConcurrentRequests = n
		return nil
	}
}

// WithConnectTimeout sets Config.ConnectTimeout. Neither transport in this
// package reads the field.
func WithConnectTimeout(d time.Duration) ConfigOpt {
	return func(c *Config) error {
		c.ConnectTimeout = d
		return nil
	}
}

// WithRequestTimeout sets Config.RequestTimeout. Neither transport in this
// package reads the field; a Send is bounded only by its context.
func WithRequestTimeout(d time.Duration) ConfigOpt {
	return func(c *Config) error {
		c.RequestTimeout = d
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func validateURL(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid transport url %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if isLoopbackHost(u.Hostname()) {
			return nil
		}
		return fmt.Errorf("transport url %q: plaintext http is only permitted against loopback hosts", endpoint)
	default:
		return fmt.Errorf("transport url %q: unsupported scheme %q", endpoint, u.Scheme)
	}
}

func isLoopbackHost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
