// Package httpapi implements RequestPipeline (spec.md §4.7): the outer
// HTTP app composing IP extraction, security headers, CSRF, the bot
// filter, and the route table for OAuth, MCP, and discovery endpoints.
// Grounded on the teacher's (deleted) internal/server/oauth_http.go
// CreateMux/setupOAuthRoutes/setupMCPRoutes composition style: a
// *http.ServeMux built once, with handlers wrapped in http.Handler-
// returning middleware rather than a third-party router.
package httpapi

import (
	"net/http"

	"github.com/getsentry/sentry-mcp-gateway/internal/config"
	"github.com/getsentry/sentry-mcp-gateway/internal/constraints"
	"github.com/getsentry/sentry-mcp-gateway/internal/dispatcher"
	"github.com/getsentry/sentry-mcp-gateway/internal/oauthgw"
)

// Pipeline wires the dispatcher, the OAuth gateway, and the constraint
// verifier into a single http.Handler.
type Pipeline struct {
	cfg *config.Config

	Dispatcher *dispatcher.Dispatcher
	Gateway    *oauthgw.Gateway
	Grants     oauthgw.GrantStore
	Verifier   *constraints.Verifier

	// SPAHandler serves the web UI's static assets at "/" for requests
	// that don't negotiate text/markdown. Optional; nil means 404.
	SPAHandler http.Handler
}

// New builds a Pipeline. grants and verifier back the MCP endpoint's
// bearer-token lookup and org/project constraint checks respectively.
func New(cfg *config.Config, d *dispatcher.Dispatcher, gateway *oauthgw.Gateway, grants oauthgw.GrantStore, verifier *constraints.Verifier) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		Dispatcher: d,
		Gateway:    gateway,
		Grants:     grants,
		Verifier:   verifier,
	}
}

// Handler builds the route table and applies the middleware chain
// (spec.md §4.7 steps 1-4) to every route except where exempted.
func (p *Pipeline) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /robots.txt", p.handleRobots)
	mux.HandleFunc("GET /llms.txt", p.handleLLMsTxt)
	mux.HandleFunc("GET /", p.handleRoot)
	mux.HandleFunc("GET /sse", p.handleSSE)

	mux.HandleFunc("GET /.well-known/oauth-protected-resource", p.handleProtectedResourceMetadata)
	mux.HandleFunc("GET /.well-known/oauth-protected-resource/", p.handleProtectedResourceMetadata)
	mux.HandleFunc("GET /.well-known/oauth-authorization-server", p.handleAuthorizationServerMetadata)

	mux.HandleFunc("/oauth/authorize", p.Gateway.HandleAuthorize)
	mux.HandleFunc("/oauth/callback", p.Gateway.HandleCallback)
	mux.HandleFunc("/oauth/token", p.Gateway.HandleToken)
	mux.HandleFunc("/oauth/register", p.Gateway.HandleRegister)

	mux.HandleFunc("/mcp", p.handleMCP)
	mux.HandleFunc("/mcp/", p.handleMCP)

	return chain(mux)
}
