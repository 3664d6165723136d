// Package oauthgw implements OAuthGateway (spec.md §4.5): the approval
// dialog, the upstream-federated authorization code flow, and the
// gateway's own token issuance / dynamic client registration surface.
package oauthgw

import (
	"time"

	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
)

// AuthRequest is the MCP client's incoming authorization request
// (spec.md §4.5's "originalOAuthRequest"), carried unchanged from the
// first GET /oauth/authorize through to completeAuthorization.
type AuthRequest struct {
	ClientID            string `json:"client_id"`
	RedirectURI         string `json:"redirect_uri"`
	ResponseType        string `json:"response_type"`
	Scope               string `json:"scope"`
	State               string `json:"state"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method"`
	Resource            string `json:"resource,omitempty"`
}

// TransitState is round-tripped through the upstream's own OAuth server
// as the `state` query parameter (spec.md §4.5:
// `state = base64(JSON({...originalOAuthRequest, permissions}))`). It is
// HMAC-signed (see transit.go) since it crosses an untrusted redirect.
type TransitState struct {
	Request     AuthRequest `json:"request"`
	Permissions []string    `json:"permissions"`
}

// Client is a dynamically registered OAuth client (RFC 7591).
type Client struct {
	ClientID     string    `json:"client_id"`
	ClientName   string    `json:"client_name,omitempty"`
	RedirectURIs []string  `json:"redirect_uris"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRedirectURI reports whether uri is one of the client's registered
// redirect URIs.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// Grant is the binding produced by completeAuthorization: everything the
// gateway needs to know about the user/client/permissions once the
// upstream login succeeds, keyed first by an authorization code and then
// — after token exchange — by the issued access token.
type Grant struct {
	UserID              string                   `json:"user_id"`
	UserLabel           string                   `json:"user_label"`
	UpstreamToken       string                   `json:"upstream_token"`
	ClientID            string                   `json:"client_id"`
	RedirectURI         string                   `json:"redirect_uri"`
	Scope               string                   `json:"scope"`
	GrantedScopes       scopes.Set[scopes.Scope] `json:"granted_scopes"`
	GrantedSkills       scopes.Set[scopes.Skill] `json:"granted_skills"`
	CodeChallenge       string                   `json:"code_challenge"`
	CodeChallengeMethod string                   `json:"code_challenge_method"`
}

// AccessToken is the gateway-issued bearer token record bound to a Grant.
type AccessToken struct {
	Token string `json:"token"`
	Grant Grant  `json:"grant"`
}
