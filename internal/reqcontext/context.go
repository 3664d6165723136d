// Package reqcontext implements the per-request ambient context described
// in spec.md §4.2: every code path inside a request sees the same
// ServerContext, concurrent requests are isolated, and nested scopes
// stack correctly. Per spec.md §9's own design note, this is implemented
// with Go's native context.Context rather than an emulated task-local
// store — context.WithValue already gives nested-scope stacking and
// per-goroutine isolation for free, grounded on the context-key pattern
// the teacher uses to carry a single access token
// (internal/server/token_provider.go), generalized here to the full
// ServerContext.
package reqcontext

import (
	"context"

	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
)

// ProjectCapabilities are the feature flags derived from the upstream
// project's configuration (spec.md §3 Constraints).
type ProjectCapabilities struct {
	Profiles bool
	Replays  bool
	Logs     bool
	Traces   bool
}

// Constraints is the org/project/region restriction derived from the
// request URL and verified against the upstream (spec.md §3).
//
// Invariant: if ProjectSlug is set, OrganizationSlug must also be set.
// If verification succeeded, RegionURL is either a valid HTTPS URL or
// empty.
type Constraints struct {
	OrganizationSlug    string
	ProjectSlug         string
	RegionURL           string
	ProjectCapabilities *ProjectCapabilities
}

// ServerContext is the resolved per-request state: who the caller is,
// what they're allowed to do, and which org/project/region the request
// is scoped to. Created once at the entry of every MCP request,
// immutable thereafter.
type ServerContext struct {
	UserID        string
	ClientID      string
	AccessToken   string
	UpstreamHost  string
	MCPURL        string
	GrantedScopes scopes.Set[scopes.Scope]
	GrantedSkills scopes.Set[scopes.Skill]
	Constraints   Constraints

	MCPClientName      string
	MCPClientVersion   string
	MCPProtocolVersion string

	// AgentMode mirrors the request's agent=1 query flag (spec.md §6),
	// propagated into the use_sentry tool so it knows to run its
	// embedded-agent path rather than return raw tool output.
	AgentMode bool
}

type contextKey struct{}

var serverContextKey = contextKey{}

// WithServerContext returns a copy of parent carrying sc. Code inside the
// returned context's subtree observes sc; the parent's own context
// (including whatever it carried before) reappears once control returns
// past this call, giving the nested "stacking" semantics spec.md §4.2
// requires without any goroutine-local bookkeeping.
func WithServerContext(parent context.Context, sc *ServerContext) context.Context {
	return context.WithValue(parent, serverContextKey, sc)
}

// FromContext retrieves the ServerContext installed by WithServerContext.
// Returns nil, false outside of any request scope.
func FromContext(ctx context.Context) (*ServerContext, bool) {
	sc, ok := ctx.Value(serverContextKey).(*ServerContext)
	return sc, ok
}

// HasScope reports whether the scope was granted to this request's
// caller.
func (sc *ServerContext) HasScope(s scopes.Scope) bool {
	if sc == nil {
		return false
	}
	return sc.GrantedScopes.Has(s)
}

// HasSkill reports whether the skill was granted to this request's
// caller.
func (sc *ServerContext) HasSkill(sk scopes.Skill) bool {
	if sc == nil {
		return false
	}
	return sc.GrantedSkills.Has(sk)
}
