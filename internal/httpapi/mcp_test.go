package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getsentry/sentry-mcp-gateway/internal/config"
	"github.com/getsentry/sentry-mcp-gateway/internal/constraints"
	"github.com/getsentry/sentry-mcp-gateway/internal/dispatcher"
	"github.com/getsentry/sentry-mcp-gateway/internal/oauthgw"
	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
)

type fakeGrantStore struct {
	tokens map[string]*oauthgw.Grant
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{tokens: map[string]*oauthgw.Grant{}}
}

func (f *fakeGrantStore) PutCode(ctx context.Context, code string, grant *oauthgw.Grant) error {
	return nil
}
func (f *fakeGrantStore) TakeCode(ctx context.Context, code string) (*oauthgw.Grant, bool) {
	return nil, false
}
func (f *fakeGrantStore) PutToken(ctx context.Context, token string, grant *oauthgw.Grant) error {
	f.tokens[token] = grant
	return nil
}
func (f *fakeGrantStore) GetToken(ctx context.Context, token string) (*oauthgw.Grant, bool) {
	g, ok := f.tokens[token]
	return g, ok
}

func mcpTestPipeline() (*Pipeline, *fakeGrantStore) {
	grants := newFakeGrantStore()
	grants.tokens["valid-token"] = &oauthgw.Grant{
		UserID:        "user-1",
		ClientID:      "client-1",
		UpstreamToken: "upstream-token",
		GrantedScopes: scopes.NewSet(scopes.ScopeEventRead),
		GrantedSkills: scopes.NewSet(scopes.SkillInspect),
	}
	p := &Pipeline{
		cfg:        &config.Config{PublicURL: "https://gateway.example.com", UpstreamHost: "sentry.io"},
		Dispatcher: dispatcher.New(nil, nil),
		Grants:     grants,
		Verifier:   constraints.New(nil),
	}
	return p, grants
}

func doMCPRequest(p *Pipeline, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	p.handleMCP(rec, req)
	return rec
}

func TestHandleMCP_MissingBearerToken(t *testing.T) {
	p, _ := mcpTestPipeline()
	rec := doMCPRequest(p, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header on 401")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain (spec.md §7: plain text body on auth failure)", ct)
	}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		t.Errorf("body = %q, want plain text, not a JSON-RPC envelope", rec.Body.String())
	}
}

func TestHandleMCP_InvalidBearerToken(t *testing.T) {
	p, _ := mcpTestPipeline()
	rec := doMCPRequest(p, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, map[string]string{
		"Authorization": "Bearer nope",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleMCP_WrongMethodRejected(t *testing.T) {
	p, _ := mcpTestPipeline()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	p.handleMCP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandleMCP_Initialize(t *testing.T) {
	p, _ := mcpTestPipeline()
	rec := doMCPRequest(p, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, map[string]string{
		"Authorization": "Bearer valid-token",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp jsonrpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestHandleMCP_ToolsListEmptyRegistry(t *testing.T) {
	p, _ := mcpTestPipeline()
	rec := doMCPRequest(p, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`, map[string]string{
		"Authorization": "Bearer valid-token",
	})
	var resp struct {
		Result struct {
			Tools []interface{} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp.Result.Tools) != 0 {
		t.Errorf("expected no tools from an empty registry, got %d", len(resp.Result.Tools))
	}
}

func TestHandleMCP_ToolsCallUnknownToolIsError(t *testing.T) {
	p, _ := mcpTestPipeline()
	rec := doMCPRequest(p, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope","arguments":{}}}`, map[string]string{
		"Authorization": "Bearer valid-token",
	})
	var resp struct {
		Result struct {
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !resp.Result.IsError {
		t.Error("expected isError for an unknown tool")
	}
}

func TestHandleMCP_PromptsGetUseSentry(t *testing.T) {
	p, _ := mcpTestPipeline()
	rec := doMCPRequest(p, `{"jsonrpc":"2.0","id":4,"method":"prompts/get","params":{"name":"use_sentry"}}`, map[string]string{
		"Authorization": "Bearer valid-token",
	})
	var resp jsonrpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestHandleMCP_PromptsGetUnknownIsJSONRPCError(t *testing.T) {
	p, _ := mcpTestPipeline()
	rec := doMCPRequest(p, `{"jsonrpc":"2.0","id":5,"method":"prompts/get","params":{"name":"nope"}}`, map[string]string{
		"Authorization": "Bearer valid-token",
	})
	var resp jsonrpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("expected a JSON-RPC error for an unknown prompt")
	}
}

func TestHandleMCP_ResourcesReadPlatformDocs(t *testing.T) {
	p, _ := mcpTestPipeline()
	body := `{"jsonrpc":"2.0","id":6,"method":"resources/read","params":{"uri":"https://docs.sentry.io/platforms/python/"}}`
	rec := doMCPRequest(p, body, map[string]string{
		"Authorization": "Bearer valid-token",
	})
	var resp struct {
		Result struct {
			Contents []struct {
				Text     string `json:"text"`
				MIMEType string `json:"mimeType"`
			} `json:"contents"`
		} `json:"result"`
		Error *jsonrpcError `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if len(resp.Result.Contents) != 1 {
		t.Fatalf("expected 1 content entry, got %d", len(resp.Result.Contents))
	}
	if resp.Result.Contents[0].MIMEType != "text/markdown" {
		t.Errorf("mimeType = %q, want text/markdown", resp.Result.Contents[0].MIMEType)
	}
}

func TestHandleMCP_ResourcesReadUnknownURI(t *testing.T) {
	p, _ := mcpTestPipeline()
	body := `{"jsonrpc":"2.0","id":7,"method":"resources/read","params":{"uri":"https://example.com/nope"}}`
	rec := doMCPRequest(p, body, map[string]string{
		"Authorization": "Bearer valid-token",
	})
	var resp jsonrpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("expected a JSON-RPC error for an unmatched resource URI")
	}
}

func TestHandleMCP_InvalidJSONBody(t *testing.T) {
	p, _ := mcpTestPipeline()
	rec := doMCPRequest(p, `not json`, map[string]string{
		"Authorization": "Bearer valid-token",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleMCP_UnknownMethod(t *testing.T) {
	p, _ := mcpTestPipeline()
	rec := doMCPRequest(p, `{"jsonrpc":"2.0","id":8,"method":"bogus/method"}`, map[string]string{
		"Authorization": "Bearer valid-token",
	})
	var resp jsonrpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != errCodeMethodNotFound {
		t.Fatalf("expected errCodeMethodNotFound, got %+v", resp.Error)
	}
}

func TestMatchURITemplate(t *testing.T) {
	params, ok := matchURITemplate("https://docs.sentry.io/platforms/{platform}/", "https://docs.sentry.io/platforms/python/")
	if !ok {
		t.Fatal("expected a match")
	}
	if params["platform"] != "python" {
		t.Errorf("platform = %v, want python", params["platform"])
	}
}

func TestMatchURITemplate_NoMatch(t *testing.T) {
	_, ok := matchURITemplate("https://docs.sentry.io/platforms/{platform}/", "https://docs.sentry.io/guides/python/")
	if ok {
		t.Error("expected no match for a differently shaped URI")
	}
}

func TestParseMCPPath(t *testing.T) {
	cases := []struct {
		path        string
		org, project string
	}{
		{"/mcp", "", ""},
		{"/mcp/", "", ""},
		{"/mcp/acme", "acme", ""},
		{"/mcp/acme/backend", "acme", "backend"},
	}
	for _, c := range cases {
		org, project := parseMCPPath(c.path)
		if org != c.org || project != c.project {
			t.Errorf("parseMCPPath(%q) = (%q, %q), want (%q, %q)", c.path, org, project, c.org, c.project)
		}
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	if _, ok := bearerToken(req); ok {
		t.Error("expected no token without an Authorization header")
	}
	req.Header.Set("Authorization", "Bearer abc123")
	token, ok := bearerToken(req)
	if !ok || token != "abc123" {
		t.Errorf("bearerToken = (%q, %v), want (abc123, true)", token, ok)
	}
}
