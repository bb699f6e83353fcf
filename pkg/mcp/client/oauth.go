package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	// Packages
	oauth2 "golang.org/x/oauth2"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// OAuthMetadata is the OAuth 2.0 Authorization Server Metadata (RFC 8414)
// published at the server's well-known discovery endpoint.
type OAuthMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint,omitempty"`
	RevocationEndpoint                string   `json:"revocation_endpoint,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported,omitempty"`
	ResponseModesSupported            []string `json:"response_modes_supported,omitempty"`
	GrantTypesSupported               []string `json:"grant_types_supported,omitempty"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported,omitempty"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
}

// OAuthRegistration is the response from dynamic client registration (RFC 7591).
type OAuthRegistration struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at,omitempty"`
	ClientSecretExpiresAt   int64    `json:"client_secret_expires_at,omitempty"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	ClientName              string   `json:"client_name,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// DiscoverOAuth fetches the OAuth 2.0 Authorization Server Metadata for the
// given MCP server's origin.
func DiscoverOAuth(ctx context.Context, serverURL string) (*OAuthMetadata, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	wellKnown := fmt.Sprintf("%s://%s/.well-known/oauth-authorization-server", u.Scheme, u.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OAuth discovery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OAuth discovery returned %s", resp.Status)
	}

	var meta OAuthMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("OAuth discovery: invalid response: %w", err)
	}
	if meta.AuthorizationEndpoint == "" {
		return nil, fmt.Errorf("OAuth discovery: missing authorization_endpoint")
	}
	if meta.TokenEndpoint == "" {
		return nil, fmt.Errorf("OAuth discovery: missing token_endpoint")
	}
	return &meta, nil
}

// Register performs OAuth 2.0 Dynamic Client Registration (RFC 7591) against
// the metadata's registration endpoint.
func (m *OAuthMetadata) Register(ctx context.Context, clientName string, redirectURIs []string) (*OAuthRegistration, error) {
	if m.RegistrationEndpoint == "" {
		return nil, fmt.Errorf("server does not support dynamic client registration")
	}

	body := map[string]any{
		"client_name":                clientName,
		"redirect_uris":              redirectURIs,
		"grant_types":                []string{"authorization_code", "refresh_token"},
		"response_types":             []string{"code"},
		"token_endpoint_auth_method": "none",
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.RegistrationEndpoint, strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client registration failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("client registration returned %s", resp.Status)
	}

	var reg OAuthRegistration
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return nil, fmt.Errorf("client registration: invalid response: %w", err)
	}
	if reg.ClientID == "" {
		return nil, fmt.Errorf("client registration: missing client_id")
	}
	return &reg, nil
}

// SupportsS256 reports whether the server supports S256 PKCE challenges.
func (m *OAuthMetadata) SupportsS256() bool {
	for _, method := range m.CodeChallengeMethodsSupported {
		if method == "S256" {
			return true
		}
	}
	return false
}

// SupportsRegistration reports whether the server supports dynamic client
// registration.
func (m *OAuthMetadata) SupportsRegistration() bool {
	return m.RegistrationEndpoint != ""
}

// Config builds an oauth2.Config for the authorization code flow against
// this server's endpoints, scoped to clientID/redirectURI/scopes.
func (m *OAuthMetadata) Config(clientID, redirectURI string, scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   m.AuthorizationEndpoint,
			TokenURL:  m.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// NewPKCEVerifier generates a fresh PKCE code verifier, per RFC 7636. Pass
// it to AuthorizationURL and, after the callback, to ExchangeCode.
func NewPKCEVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthorizationURL builds the S256 PKCE authorization URL for cfg. The
// caller opens this URL in a browser and waits for the redirect callback.
func AuthorizationURL(cfg *oauth2.Config, verifier string) string {
	return cfg.AuthCodeURL("", oauth2.S256ChallengeOption(verifier))
}

// ExchangeCode exchanges an authorization code for a token set, validating
// the PKCE verifier against the challenge sent in AuthorizationURL.
func ExchangeCode(ctx context.Context, cfg *oauth2.Config, code, verifier string) (*oauth2.Token, error) {
	return cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
}

// TokenSource returns an oauth2.TokenSource that transparently refreshes
// tok via cfg's token endpoint as it nears expiry.
func TokenSource(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) oauth2.TokenSource {
	return cfg.TokenSource(ctx, tok)
}
