package oauth

import (
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultExpiryMargin is the margin applied when checking token expiry, to
// account for clock skew and network latency between check and use.
const DefaultExpiryMargin = 30 * time.Second

// Token represents an OAuth access token with associated metadata, shared
// between the upstream-federation client and the gateway's own issued
// tokens.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	Issuer       string    `json:"issuer,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
}

// IsExpired reports whether the token has expired or will within
// DefaultExpiryMargin.
func (t *Token) IsExpired() bool {
	return t.IsExpiredWithMargin(DefaultExpiryMargin)
}

// IsExpiredWithMargin reports whether the token has expired or will expire
// within margin.
func (t *Token) IsExpiredWithMargin(margin time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(margin).After(t.ExpiresAt)
}

// SetExpiresAtFromExpiresIn derives ExpiresAt from ExpiresIn when the
// server only returned a relative lifetime.
func (t *Token) SetExpiresAtFromExpiresIn() {
	if t.ExpiresIn > 0 && t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
}

// Scopes splits the space-separated Scope field into individual scopes.
func (t *Token) Scopes() []string {
	if t.Scope == "" {
		return nil
	}
	return strings.Fields(t.Scope)
}

// ToOAuth2Token converts Token to an oauth2.Token for use with
// golang.org/x/oauth2-based clients (the upstream federation exchange).
func (t *Token) ToOAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
	if t.IDToken != "" {
		tok = tok.WithExtra(map[string]interface{}{"id_token": t.IDToken})
	}
	return tok
}

// FromOAuth2Token builds a Token from an oauth2.Token plus the scope string
// returned alongside it (oauth2.Token does not carry scope itself).
func FromOAuth2Token(t *oauth2.Token, scope, issuer string) *Token {
	out := &Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry,
		Scope:        scope,
		Issuer:       issuer,
	}
	if idToken, ok := t.Extra("id_token").(string); ok {
		out.IDToken = idToken
	}
	return out
}

// Metadata represents OAuth 2.0 Authorization Server Metadata (RFC 8414).
type Metadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserinfoEndpoint                  string   `json:"userinfo_endpoint,omitempty"`
	JwksURI                           string   `json:"jwks_uri,omitempty"`
	RegistrationEndpoint              string   `json:"registration_endpoint,omitempty"`
	RevocationEndpoint                string   `json:"revocation_endpoint,omitempty"`
	IntrospectionEndpoint             string   `json:"introspection_endpoint,omitempty"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported,omitempty"`
	GrantTypesSupported               []string `json:"grant_types_supported,omitempty"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported,omitempty"`
}

// SupportsPKCE reports whether the server supports S256 PKCE (assumed true
// when the field is unspecified, per the OAuth 2.1 requirement).
func (m *Metadata) SupportsPKCE() bool {
	for _, method := range m.CodeChallengeMethodsSupported {
		if method == "S256" {
			return true
		}
	}
	return len(m.CodeChallengeMethodsSupported) == 0
}

// ProtectedResourceMetadata represents RFC 9728 OAuth Protected Resource
// Metadata, served by the gateway at /.well-known/oauth-protected-resource.
type ProtectedResourceMetadata struct {
	Resource             string   `json:"resource"`
	AuthorizationServers []string `json:"authorization_servers"`
	ScopesSupported      []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported,omitempty"`
}

// PKCEChallenge represents a PKCE (Proof Key for Code Exchange) pair.
// Required for every authorization code flow under OAuth 2.1.
type PKCEChallenge struct {
	CodeVerifier        string
	CodeChallenge        string
	CodeChallengeMethod string
}

// ClientMetadata represents OAuth 2.0 Dynamic Client Registration metadata
// (RFC 7591), as accepted by POST /oauth/register and returned to callers.
type ClientMetadata struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientName              string   `json:"client_name,omitempty"`
	ClientURI               string   `json:"client_uri,omitempty"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
	LogoURI                 string   `json:"logo_uri,omitempty"`
}
