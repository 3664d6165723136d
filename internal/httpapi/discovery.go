package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	pkgoauth "github.com/getsentry/sentry-mcp-gateway/pkg/oauth"
)

const robotsBody = `User-agent: *
Allow: /llms.txt
Allow: /robots.txt
Disallow: /oauth/
Disallow: /mcp
`

func llmsTxtBody(publicURL string) string {
	mcpURL := strings.TrimRight(publicURL, "/") + "/mcp"
	return "# Sentry MCP Gateway\n\n" +
		"This service exposes a remote error-tracking backend through the " +
		"Model Context Protocol (MCP).\n\n" +
		"## MCP endpoint\n\n" +
		mcpURL + "\n\n" +
		"## Example client configuration\n\n" +
		"```json\n" +
		`{"mcpServers":{"sentry":{"url":"` + mcpURL + `"}}}` + "\n" +
		"```\n"
}

func (p *Pipeline) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(robotsBody))
}

func (p *Pipeline) handleLLMsTxt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(llmsTxtBody(p.cfg.PublicURL)))
}

// handleRoot serves the llms.txt body for text/markdown Accept headers
// and falls through to the SPA asset handler otherwise (spec.md §4.7:
// "otherwise falls through to the SPA asset handler (external)").
func (p *Pipeline) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(llmsTxtBody(p.cfg.PublicURL)))
		return
	}
	if p.SPAHandler != nil {
		p.SPAHandler.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}

type sseRemovedBody struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	MigrationGuide string `json:"migrationGuide"`
}

// handleSSE is the deprecation stub for the removed SSE transport
// (spec.md §4.7). The body is the exact literal spec.md §6/§8 requires,
// not derived from configuration.
func (p *Pipeline) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusGone)
	_ = json.NewEncoder(w).Encode(sseRemovedBody{
		Error:          "SSE transport has been removed",
		Message:        "The SSE transport endpoint is no longer supported. Please use the HTTP transport at /mcp instead.",
		MigrationGuide: "https://mcp.sentry.dev",
	})
}

// handleProtectedResourceMetadata serves RFC 9728 Protected Resource
// Metadata. resource echoes the request path with the well-known prefix
// stripped and any query string dropped; authorization_servers always
// names this gateway's own origin, since it is both the resource server
// protecting /mcp and the authorization server that issued the token.
func (p *Pipeline) handleProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	const prefix = "/.well-known/oauth-protected-resource"
	resourcePath := strings.TrimPrefix(r.URL.Path, prefix)
	origin := strings.TrimRight(p.cfg.PublicURL, "/")

	meta := pkgoauth.ProtectedResourceMetadata{
		Resource:               origin + resourcePath,
		AuthorizationServers:   []string{origin},
		BearerMethodsSupported: []string{"header"},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(meta)
}

// handleAuthorizationServerMetadata serves RFC 8414 Authorization Server
// Metadata, delegating the document shape to oauthgw.Gateway.Metadata.
func (p *Pipeline) handleAuthorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(p.Gateway.Metadata())
}
