package tools

import (
	"context"

	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
	"testing"
)

func noopHandler(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
	return "", nil
}

func testRegistry() []Config {
	return []Config{
		{
			Name:           "find_projects",
			RequiredScopes: []scopes.Scope{scopes.ScopeProjectRead},
			RequiredSkills: []scopes.Skill{scopes.SkillInspect},
			InputSchema: map[string]Field{
				"organizationSlug": {Type: FieldString, Required: true},
			},
			Handler: noopHandler,
		},
		{
			Name:           "update_issue",
			RequiredScopes: []scopes.Scope{scopes.ScopeEventWrite},
			RequiredSkills: []scopes.Skill{scopes.SkillTriage},
			InputSchema: map[string]Field{
				"organizationSlug": {Type: FieldString, Required: true},
				"projectSlug":      {Type: FieldString},
				"projectSlugOrId":  {Type: FieldString},
				"issueId":          {Type: FieldString, Required: true},
			},
			Handler: noopHandler,
		},
		{
			Name:           "create_team",
			RequiredScopes: []scopes.Scope{scopes.ScopeTeamWrite},
			RequiredSkills: []scopes.Skill{scopes.SkillProjectManagement},
			InputSchema: map[string]Field{
				"organizationSlug": {Type: FieldString, Required: true},
				"name":             {Type: FieldString, Required: true},
			},
			Handler: noopHandler,
		},
	}
}

func TestPrepare_DropsToolsWithoutGrantedSkill(t *testing.T) {
	sc := &reqcontext.ServerContext{
		GrantedSkills: scopes.NewSet(scopes.SkillInspect),
	}
	prepared := Prepare(testRegistry(), sc)
	if len(prepared) != 1 {
		t.Fatalf("len(prepared) = %d, want 1 (only find_projects)", len(prepared))
	}
	if prepared[0].Tool.Name != "find_projects" {
		t.Errorf("prepared tool = %q, want find_projects", prepared[0].Tool.Name)
	}
}

func TestPrepare_SkillGrantsExpandedScopes(t *testing.T) {
	sc := &reqcontext.ServerContext{
		GrantedSkills: scopes.NewSet(scopes.SkillTriage, scopes.SkillProjectManagement),
	}
	prepared := Prepare(testRegistry(), sc)
	names := map[string]bool{}
	for _, p := range prepared {
		names[p.Tool.Name] = true
	}
	if !names["update_issue"] || !names["create_team"] {
		t.Errorf("expected update_issue and create_team granted, got %+v", names)
	}
	if names["find_projects"] {
		t.Errorf("find_projects requires skill inspect, which wasn't granted")
	}
}

func TestPrepare_VisibleSchemaDropsConstrainedFields(t *testing.T) {
	sc := &reqcontext.ServerContext{
		GrantedSkills: scopes.NewSet(scopes.SkillTriage),
		Constraints: reqcontext.Constraints{
			OrganizationSlug: "acme",
			ProjectSlug:      "backend",
		},
	}
	prepared := Prepare(testRegistry(), sc)
	if len(prepared) != 1 || prepared[0].Tool.Name != "update_issue" {
		t.Fatalf("expected only update_issue prepared, got %+v", prepared)
	}
	schema := prepared[0].VisibleSchema
	if _, ok := schema["organizationSlug"]; ok {
		t.Error("organizationSlug should be hidden once constrained")
	}
	if _, ok := schema["projectSlug"]; ok {
		t.Error("projectSlug should be hidden once constrained")
	}
	if _, ok := schema["projectSlugOrId"]; ok {
		t.Error("projectSlugOrId should be hidden once constrained (aliases projectSlug)")
	}
	if _, ok := schema["issueId"]; !ok {
		t.Error("issueId is not constraint-injected and must remain visible")
	}
}

func TestPrepare_PreservesRegistryOrder(t *testing.T) {
	sc := &reqcontext.ServerContext{
		GrantedSkills: scopes.NewSet(scopes.SkillInspect, scopes.SkillTriage, scopes.SkillProjectManagement),
	}
	prepared := Prepare(testRegistry(), sc)
	if len(prepared) != 3 {
		t.Fatalf("len(prepared) = %d, want 3", len(prepared))
	}
	want := []string{"find_projects", "update_issue", "create_team"}
	for i, name := range want {
		if prepared[i].Tool.Name != name {
			t.Errorf("prepared[%d].Tool.Name = %q, want %q", i, prepared[i].Tool.Name, name)
		}
	}
}

func TestPrepare_NilServerContextYieldsBaseScopesOnly(t *testing.T) {
	// find_projects only requires project:read, a base scope granted
	// unconditionally — it survives even with no context at all. Tools
	// requiring a non-base scope (event:write, team:write) need a granted
	// skill to unlock that scope, which a nil context can never provide.
	prepared := Prepare(testRegistry(), nil)
	if len(prepared) != 1 || prepared[0].Tool.Name != "find_projects" {
		t.Fatalf("prepared = %+v, want only find_projects (its scope is a base scope)", prepared)
	}
}
