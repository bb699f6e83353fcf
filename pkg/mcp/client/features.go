package client

import (
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// SamplingDeniedError reports that a registered sampling handler (or the
// absence of one) refused a sampling/createMessage request.
type SamplingDeniedError struct {
	Reason string
}

func (e *SamplingDeniedError) Error() string {
	if e.Reason == "" {
		return "mcp: sampling request denied"
	}
	return "mcp: sampling request denied: " + e.Reason
}

// SamplingTimeoutError reports that a sampling handler did not answer
// within the request's deadline.
type SamplingTimeoutError struct{}

func (e *SamplingTimeoutError) Error() string { return "mcp: sampling request timed out" }

// ElicitationError wraps a failure from a registered elicitation handler.
type ElicitationError struct {
	Cause error
}

func (e *ElicitationError) Error() string { return "mcp: elicitation failed: " + e.Cause.Error() }
func (e *ElicitationError) Unwrap() error { return e.Cause }

// ElicitationTimeoutError reports that an elicitation handler did not
// answer within the request's deadline.
type ElicitationTimeoutError struct{}

func (e *ElicitationTimeoutError) Error() string { return "mcp: elicitation request timed out" }

// InvalidURLSchemeError reports that a URL elicitation named a scheme
// outside the client's configured allow-list.
type InvalidURLSchemeError struct {
	URL string
}

func (e *InvalidURLSchemeError) Error() string {
	return "mcp: elicitation url uses a disallowed scheme: " + e.URL
}

// DefaultAllowedURLSchemes is the default allow-list for URL elicitations,
// matching the host-side OAuth callback's and the elicitation handler's
// expectations.
var DefaultAllowedURLSchemes = []string{"https", "http"}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// SetAllowedURLSchemes overrides the allow-list URL elicitations are
// checked against before being handed to the registered handler.
func (c *Client) SetAllowedURLSchemes(schemes []string) {
	c.elicitMu.Lock()
	defer c.elicitMu.Unlock()
	c.urlSchemes = append([]string(nil), schemes...)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *Client) allowedURLSchemes() []string {
	c.elicitMu.Lock()
	defer c.elicitMu.Unlock()
	if len(c.urlSchemes) == 0 {
		return DefaultAllowedURLSchemes
	}
	return c.urlSchemes
}

func validURLScheme(rawURL string, allowed []string) bool {
	scheme, _, found := strings.Cut(rawURL, "://")
	if !found {
		return false
	}
	scheme = strings.ToLower(scheme)
	for _, a := range allowed {
		if scheme == a {
			return true
		}
	}
	return false
}

// checkElicitationURL enforces the URL scheme allow-list for URL-style
// elicitations (RequestElicit.URL set, as opposed to a structured form).
func (c *Client) checkElicitationURL(req schema.RequestElicit) error {
	if req.URL == "" {
		return nil
	}
	if !validURLScheme(req.URL, c.allowedURLSchemes()) {
		return &InvalidURLSchemeError{URL: req.URL}
	}
	return nil
}
