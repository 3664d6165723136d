package oauthgw

import (
	"context"
	"encoding/json"
	"time"

	"github.com/getsentry/sentry-mcp-gateway/internal/store"
)

// CodeTTL bounds how long a minted authorization code may be exchanged
// for an access token before it is considered expired (single-use,
// short-lived, per RFC 6749 §4.1.2).
const CodeTTL = 60 * time.Second

// AccessTokenTTL is the lifetime of a gateway-issued MCP access token.
const AccessTokenTTL = 30 * 24 * time.Hour

// ClientStore persists dynamically registered OAuth clients (RFC 7591).
// This is the "concrete persistence... explicitly placed outside the
// core's scope" that spec.md §1 leaves to a storage layer.
type ClientStore interface {
	Get(ctx context.Context, clientID string) (*Client, bool)
	Put(ctx context.Context, client *Client) error
}

// GrantStore persists the two stages of the authorization: the
// short-lived code minted by completeAuthorization, and the
// longer-lived access token minted by the token endpoint.
type GrantStore interface {
	PutCode(ctx context.Context, code string, grant *Grant) error
	TakeCode(ctx context.Context, code string) (*Grant, bool)
	PutToken(ctx context.Context, token string, grant *Grant) error
	GetToken(ctx context.Context, token string) (*Grant, bool)
}

// kvClientStore adapts internal/store.KV (already wired to both a
// memory and a Valkey backend) into ClientStore, the same "adapter over
// a generic KV" shape the teacher uses in
// internal/mcpserver/oauth_token_store_adapter.go.
type kvClientStore struct {
	kv store.KV
}

// NewClientStore builds a ClientStore over kv.
func NewClientStore(kv store.KV) ClientStore {
	return &kvClientStore{kv: kv}
}

func clientKey(clientID string) string { return "oauthgw:client:" + clientID }

func (s *kvClientStore) Get(ctx context.Context, clientID string) (*Client, bool) {
	raw, ok := s.kv.Get(ctx, clientKey(clientID))
	if !ok {
		return nil, false
	}
	var c Client
	if json.Unmarshal(raw, &c) != nil {
		return nil, false
	}
	return &c, true
}

func (s *kvClientStore) Put(ctx context.Context, client *Client) error {
	raw, err := json.Marshal(client)
	if err != nil {
		return err
	}
	// Registered clients have no natural expiry; use a long TTL rather
	// than inventing a third store.KV method for "forever".
	return s.kv.Set(ctx, clientKey(client.ClientID), raw, 365*24*time.Hour)
}

type kvGrantStore struct {
	kv store.KV
}

// NewGrantStore builds a GrantStore over kv.
func NewGrantStore(kv store.KV) GrantStore {
	return &kvGrantStore{kv: kv}
}

func codeKey(code string) string   { return "oauthgw:code:" + code }
func tokenKey(token string) string { return "oauthgw:token:" + token }

func (s *kvGrantStore) PutCode(ctx context.Context, code string, grant *Grant) error {
	raw, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, codeKey(code), raw, CodeTTL)
}

// TakeCode retrieves and immediately deletes the code, enforcing
// single-use per RFC 6749 §4.1.2.
func (s *kvGrantStore) TakeCode(ctx context.Context, code string) (*Grant, bool) {
	raw, ok := s.kv.Get(ctx, codeKey(code))
	if !ok {
		return nil, false
	}
	_ = s.kv.Delete(ctx, codeKey(code))
	var g Grant
	if json.Unmarshal(raw, &g) != nil {
		return nil, false
	}
	return &g, true
}

func (s *kvGrantStore) PutToken(ctx context.Context, token string, grant *Grant) error {
	raw, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, tokenKey(token), raw, AccessTokenTTL)
}

func (s *kvGrantStore) GetToken(ctx context.Context, token string) (*Grant, bool) {
	raw, ok := s.kv.Get(ctx, tokenKey(token))
	if !ok {
		return nil, false
	}
	var g Grant
	if json.Unmarshal(raw, &g) != nil {
		return nil, false
	}
	return &g, true
}
