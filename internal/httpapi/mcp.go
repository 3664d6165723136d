package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/getsentry/sentry-mcp-gateway/internal/constraints"
	"github.com/getsentry/sentry-mcp-gateway/internal/dispatcher"
	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
)

const protocolVersion = "2024-11-05"

// handleMCP is the single stateless entry point for the MCP endpoint
// (spec.md §4.7, §6): POST /mcp[/:org[/:project]], JSON-RPC 2.0 bodies,
// the bearer token mapped to a Grant, the org/project path segments
// verified against the upstream, and every request building a fresh
// ServerContext — no session state survives past the response (spec.md
// §9: "no persistent agent state between MCP requests" generalizes to
// the whole endpoint).
func (p *Pipeline) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	token, ok := bearerToken(r)
	if !ok {
		p.writeUnauthorized(w, r)
		return
	}
	grant, ok := p.Grants.GetToken(r.Context(), token)
	if !ok {
		p.writeUnauthorized(w, r)
		return
	}

	org, project := parseMCPPath(r.URL.Path)

	var req jsonrpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONRPC(w, http.StatusBadRequest, newError(nil, errCodeParseError, "invalid JSON-RPC request body"))
		return
	}

	result, err := p.Verifier.Verify(r.Context(), grant.UserID, org, project, grant.UpstreamToken, p.cfg.UpstreamHost)
	if err != nil {
		status, message := verificationErrorResponse(err)
		writeJSONRPC(w, status, newError(req.ID, errCodeInternal, message))
		return
	}

	sc := &reqcontext.ServerContext{
		UserID:        grant.UserID,
		ClientID:      grant.ClientID,
		AccessToken:   grant.UpstreamToken,
		UpstreamHost:  p.cfg.UpstreamHost,
		MCPURL:        strings.TrimRight(p.cfg.PublicURL, "/") + r.URL.Path,
		GrantedScopes: grant.GrantedScopes,
		GrantedSkills: grant.GrantedSkills,
		AgentMode:     r.URL.Query().Get("agent") == "1",
	}
	sc.Constraints.OrganizationSlug = org
	sc.Constraints.ProjectSlug = project
	if result != nil {
		sc.Constraints.RegionURL = result.RegionURL
		sc.Constraints.ProjectCapabilities = result.ProjectCapabilities
	}

	ctx := reqcontext.WithServerContext(r.Context(), sc)
	resp := p.dispatchMethod(ctx, sc, req)
	writeJSONRPC(w, http.StatusOK, resp)
}

func (p *Pipeline) dispatchMethod(ctx context.Context, sc *reqcontext.ServerContext, req jsonrpcRequest) jsonrpcResponse {
	switch req.Method {
	case "initialize":
		return newResult(req.ID, initializeResult(sc))
	case "tools/list":
		return newResult(req.ID, mcp.ListToolsResult{Tools: p.Dispatcher.ListTools(sc)})
	case "tools/call":
		var params struct {
			Name      string                 `json:"name"`
			Arguments map[string]interface{} `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return newError(req.ID, errCodeInvalidParams, "invalid tools/call params")
		}
		return newResult(req.ID, p.Dispatcher.CallTool(ctx, sc, params.Name, params.Arguments))
	case "prompts/list":
		return newResult(req.ID, mcp.ListPromptsResult{Prompts: promptList()})
	case "prompts/get":
		var params struct {
			Name      string                 `json:"name"`
			Arguments map[string]interface{} `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return newError(req.ID, errCodeInvalidParams, "invalid prompts/get params")
		}
		text, err := p.Dispatcher.GetPrompt(ctx, sc, params.Name, params.Arguments)
		if err != nil {
			return newError(req.ID, errCodeInvalidParams, err.Error())
		}
		return newResult(req.ID, mcp.GetPromptResult{
			Messages: []mcp.PromptMessage{{Role: mcp.Role("assistant"), Content: mcp.NewTextContent(text)}},
		})
	case "resources/list":
		return newResult(req.ID, mcp.ListResourcesResult{Resources: resourceList()})
	case "resources/read":
		var params struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return newError(req.ID, errCodeInvalidParams, "invalid resources/read params")
		}
		text, mimeType, err := p.readResource(ctx, sc, params.URI)
		if err != nil {
			return newError(req.ID, errCodeInvalidParams, err.Error())
		}
		return newResult(req.ID, mcp.ReadResourceResult{
			Contents: []mcp.ResourceContents{
				mcp.TextResourceContents{URI: params.URI, MIMEType: mimeType, Text: text},
			},
		})
	default:
		return newError(req.ID, errCodeMethodNotFound, "unknown method: "+req.Method)
	}
}

func initializeResult(sc *reqcontext.ServerContext) mcp.InitializeResult {
	return mcp.InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools:     &mcp.ToolsCapability{ListChanged: false},
			Prompts:   &mcp.PromptsCapability{ListChanged: false},
			Resources: &mcp.ResourcesCapability{ListChanged: false},
		},
		ServerInfo: mcp.Implementation{
			Name:    "sentry-mcp-gateway",
			Version: "1.0.0",
		},
	}
}

func promptList() []mcp.Prompt {
	prompts := dispatcher.Prompts()
	out := make([]mcp.Prompt, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, mcp.Prompt{Name: p.Name, Description: p.Description})
	}
	return out
}

func resourceList() []mcp.Resource {
	resources := dispatcher.Resources()
	out := make([]mcp.Resource, 0, len(resources))
	for _, r := range resources {
		out = append(out, mcp.Resource{URI: r.URITemplate, Description: r.Description, MIMEType: r.MimeType})
	}
	return out
}

// readResource matches uri against the resource catalog's URI templates
// (e.g. "https://docs.sentry.io/platforms/{platform}/"), extracts the
// placeholder values, and renders the matching resource.
func (p *Pipeline) readResource(ctx context.Context, sc *reqcontext.ServerContext, uri string) (text, mimeType string, err error) {
	for _, resource := range dispatcher.Resources() {
		params, ok := matchURITemplate(resource.URITemplate, uri)
		if !ok {
			continue
		}
		rendered, err := p.Dispatcher.ReadResource(ctx, sc, resource.URITemplate, params)
		if err != nil {
			return "", "", err
		}
		return rendered, resource.MimeType, nil
	}
	return "", "", errUnknownResource(uri)
}

func matchURITemplate(template, uri string) (map[string]interface{}, bool) {
	placeholderRe := regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)
	matches := placeholderRe.FindAllStringSubmatchIndex(template, -1)

	var pattern strings.Builder
	pattern.WriteString("^")
	var names []string
	last := 0
	for _, idx := range matches {
		pattern.WriteString(regexp.QuoteMeta(template[last:idx[0]]))
		names = append(names, template[idx[2]:idx[3]])
		pattern.WriteString(`([^/]+)`)
		last = idx[1]
	}
	pattern.WriteString(regexp.QuoteMeta(template[last:]))
	pattern.WriteString("$")

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, false
	}
	m := re.FindStringSubmatch(uri)
	if m == nil {
		return nil, false
	}

	params := make(map[string]interface{}, len(names))
	for i, name := range names {
		params[name] = m[i+1]
	}
	return params, true
}

func errUnknownResource(uri string) error {
	return &unknownResourceError{uri: uri}
}

type unknownResourceError struct{ uri string }

func (e *unknownResourceError) Error() string { return "unknown resource: " + e.uri }

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// parseMCPPath extracts the optional {org}/{project} segments from
// /mcp[/:org[/:project]] (spec.md §4.7, §6).
func parseMCPPath(path string) (org, project string) {
	trimmed := strings.TrimPrefix(path, "/mcp")
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return "", ""
	}
	parts := strings.SplitN(trimmed, "/", 2)
	org = parts[0]
	if len(parts) > 1 {
		project = parts[1]
	}
	return org, project
}

// writeUnauthorized rejects a request with no valid bearer token.
// spec.md §7 requires a plain text body here, not a JSON-RPC envelope —
// the request never got far enough to be a JSON-RPC call.
func (p *Pipeline) writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	origin := strings.TrimRight(p.cfg.PublicURL, "/")
	w.Header().Set("WWW-Authenticate", `Bearer resource_metadata="`+origin+`/.well-known/oauth-protected-resource"`)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte("missing or invalid access token"))
}

func verificationErrorResponse(err error) (int, string) {
	if vErr, ok := err.(*constraints.VerificationError); ok {
		return vErr.Status, vErr.Message
	}
	return http.StatusInternalServerError, err.Error()
}

func writeJSONRPC(w http.ResponseWriter, status int, resp jsonrpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
