package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-mcp-gateway/internal/agentrt"
	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
)

func TestRegistry_NilAgentOmitsUseSentry(t *testing.T) {
	reg := Registry(nil)
	for _, tool := range reg {
		if tool.Name == "use_sentry" {
			t.Fatal("use_sentry should not be registered without an embedded agent")
		}
		if _, ok := tool.InputSchema["naturalLanguageQuery"]; ok {
			t.Errorf("%s should not expose naturalLanguageQuery without an embedded agent", tool.Name)
		}
	}
}

func fakeChatServer(t *testing.T, responses ...string) *httptest.Server {
	t.Helper()
	i := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i >= len(responses) {
			t.Fatalf("unexpected extra chat completion request")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responses[i]))
		i++
	}))
}

func simpleAgentResponse(content string) string {
	return fmt.Sprintf(`{"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, content)
}

func TestRegistry_WithAgentAddsUseSentry(t *testing.T) {
	srv := fakeChatServer(t)
	defer srv.Close()
	agent := agentrt.New(agentrt.Config{APIKey: "k", Model: "gpt-5", BaseURL: srv.URL})

	reg := Registry(agent)
	found := false
	for _, tool := range reg {
		if tool.Name == "use_sentry" {
			found = true
		}
		if tool.Name == "search_issues" {
			if _, ok := tool.InputSchema["naturalLanguageQuery"]; !ok {
				t.Error("search_issues should expose naturalLanguageQuery when an agent is configured")
			}
		}
	}
	if !found {
		t.Error("expected use_sentry to be registered when an embedded agent is configured")
	}
}

func TestUseSentryTool_RequiresAgentModeFlag(t *testing.T) {
	srv := fakeChatServer(t)
	defer srv.Close()
	agent := agentrt.New(agentrt.Config{APIKey: "k", Model: "gpt-5", BaseURL: srv.URL})

	base := Registry(nil)
	tool := useSentryTool(base, agent)
	sc := &reqcontext.ServerContext{
		AgentMode:     false,
		GrantedScopes: scopes.NewSet(scopes.BaseScopes...),
		GrantedSkills: scopes.NewSet(scopes.SkillInspect, scopes.SkillTriage),
	}
	_, err := tool.Handler(context.Background(), map[string]interface{}{"prompt": "help"}, sc)
	if err == nil {
		t.Fatal("expected an error when agent=1 was not set")
	}
}

func TestTranslateIssueQuery_RejectsEmptyQuery(t *testing.T) {
	srv := fakeChatServer(t, simpleAgentResponse(`{"query":""}`), simpleAgentResponse(`{"query":""}`))
	defer srv.Close()
	agent := agentrt.New(agentrt.Config{APIKey: "k", Model: "gpt-5", BaseURL: srv.URL})

	_, err := translateIssueQuery(context.Background(), agent, "find stuff")
	if err == nil {
		t.Fatal("expected a validation error when the translator returns an empty query")
	}
}

func TestTranslateIssueQuery_Success(t *testing.T) {
	srv := fakeChatServer(t, simpleAgentResponse(`{"query":"is:unresolved","sort":"date"}`))
	defer srv.Close()
	agent := agentrt.New(agentrt.Config{APIKey: "k", Model: "gpt-5", BaseURL: srv.URL})

	out, err := translateIssueQuery(context.Background(), agent, "recent unresolved issues")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Query != "is:unresolved" || out.Sort != "date" {
		t.Errorf("out = %+v", out)
	}
}

func TestTranslateDiscoverQuery_Success(t *testing.T) {
	srv := fakeChatServer(t, simpleAgentResponse(`{"query":"level:error","fields":["title","count()"]}`))
	defer srv.Close()
	agent := agentrt.New(agentrt.Config{APIKey: "k", Model: "gpt-5", BaseURL: srv.URL})

	out, err := translateDiscoverQuery(context.Background(), agent, "count errors by title")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Query != "level:error" || len(out.Fields) != 2 {
		t.Errorf("out = %+v", out)
	}
}

func TestToJSONSchema_MarksRequiredFields(t *testing.T) {
	schema := toJSONSchema(map[string]Field{
		"issueId": {Type: FieldString, Required: true},
		"note":    {Type: FieldString},
	})
	required, ok := schema["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "issueId" {
		t.Errorf("required = %v", schema["required"])
	}
}
