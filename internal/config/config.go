// Package config loads the gateway's process-level configuration from the
// environment, the same "explicit Default<Field> constant plus a Load()"
// idiom the teacher uses for its server defaults.
package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// DefaultUpstreamHost is the upstream error-tracking backend's hostname
	// when UPSTREAM_HOST is unset. Must be a bare hostname, never a URL.
	DefaultUpstreamHost = "sentry.io"

	// DefaultListenAddr is the gateway's HTTP listen address.
	DefaultListenAddr = ":8787"

	// DefaultOpenAIModel is used when OPENAI_MODEL is unset and
	// OPENAI_API_KEY is configured.
	DefaultOpenAIModel = "gpt-5"

	// DefaultOAuthStoreBackend selects the in-process KV implementation
	// when OAUTH_STORE_BACKEND is unset.
	DefaultOAuthStoreBackend = "memory"

	// DefaultConstraintsCacheTTL is the fail-open capability cache TTL
	// (spec.md §4.6, §3 CachedConstraints).
	DefaultConstraintsCacheTTL = 900 * time.Second

	// DefaultProjectLookupTimeout caps the ConstraintVerifier's project
	// capability lookup (spec.md §4.6, §5).
	DefaultProjectLookupTimeout = 5 * time.Second

	// DefaultApprovedClientsCookieName is the cookie holding the HMAC-signed
	// set of upstream client ids this browser has already approved.
	DefaultApprovedClientsCookieName = "mcp-approved-clients"

	// DefaultChatStateCookieName is the CSRF nonce cookie for the
	// in-browser chat OAuth dance.
	DefaultChatStateCookieName = "chat_oauth_state"

	// DefaultChatStateCookieTTL matches spec.md §6.
	DefaultChatStateCookieTTL = 600 * time.Second
)

// Config is the gateway's fully-resolved runtime configuration.
type Config struct {
	// UpstreamHost is a bare hostname (never a URL scheme/path).
	UpstreamHost         string
	UpstreamClientID     string
	UpstreamClientSecret string

	CookieSecret string

	OpenAIAPIKey           string
	OpenAIModel            string
	OpenAIReasoningEffort  string
	OpenAIBaseURL          string // programmatic-only; never read from env

	ListenAddr string
	PublicURL  string
	LogLevel   string

	OAuthStoreBackend string
	ValkeyAddr        string
}

// Load builds a Config from the process environment, applying defaults
// for anything unset. It does not validate cross-field invariants (e.g.
// that UpstreamClientID is set) — callers that need a hard requirement
// check should call Validate.
func Load() *Config {
	return &Config{
		UpstreamHost:          getenv("UPSTREAM_HOST", DefaultUpstreamHost),
		UpstreamClientID:      os.Getenv("UPSTREAM_CLIENT_ID"),
		UpstreamClientSecret:  os.Getenv("UPSTREAM_CLIENT_SECRET"),
		CookieSecret:          os.Getenv("COOKIE_SECRET"),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           getenv("OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIReasoningEffort: os.Getenv("OPENAI_REASONING_EFFORT"),
		ListenAddr:            getenv("GATEWAY_LISTEN_ADDR", DefaultListenAddr),
		PublicURL:             os.Getenv("GATEWAY_PUBLIC_URL"),
		LogLevel:              getenv("GATEWAY_LOG_LEVEL", "info"),
		OAuthStoreBackend:     getenv("OAUTH_STORE_BACKEND", DefaultOAuthStoreBackend),
		ValkeyAddr:            os.Getenv("VALKEY_ADDR"),
	}
}

// Validate checks the invariants the gateway cannot run without.
func (c *Config) Validate() error {
	if c.UpstreamHost == "" {
		return fmt.Errorf("UPSTREAM_HOST must not be empty")
	}
	if c.CookieSecret == "" {
		return fmt.Errorf("COOKIE_SECRET is required to sign the approved-clients cookie")
	}
	if c.OAuthStoreBackend == "valkey" && c.ValkeyAddr == "" {
		return fmt.Errorf("VALKEY_ADDR is required when OAUTH_STORE_BACKEND=valkey")
	}
	return nil
}

// EmbeddedAgentsEnabled reports whether OPENAI_API_KEY was configured;
// the two embedded agents (search translators, use_sentry) are disabled
// entirely otherwise.
func (c *Config) EmbeddedAgentsEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
