package tools

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/getsentry/sentry-mcp-gateway/internal/agentrt"
	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
	"github.com/getsentry/sentry-mcp-gateway/internal/upstream"
)

// orgField and projField are the recurring constraint-injected schema
// fields shared by nearly every tool.
var orgField = Field{Type: FieldString, Description: "The organization's slug.", Required: true}
var projField = Field{Type: FieldString, Description: "The project's slug or numeric ID.", Required: true}

// Registry returns the fixed, ~30-tool definition list (spec.md §1, §3
// ToolConfig), in the stable order ToolPreparer and MCPDispatcher both
// rely on for deterministic output. agent may be nil (embedded agents
// disabled, spec.md §4.8): search_issues/search_errors then fall back to
// their raw query parameters and use_sentry is omitted entirely.
func Registry(agent *agentrt.Agent) []Config {
	base := []Config{
		whoamiTool(),
		findOrganizationsTool(),
		findProjectsTool(),
		findTeamsTool(),
		findReleasesTool(),
		findTagsTool(),
		findMembersTool(),
		createTeamTool(),
		createProjectTool(),
		updateProjectTool(),
		addTeamToProjectTool(),
		createClientKeyTool(),
		findClientKeysTool(),
		searchIssuesTool(agent),
		getIssueTool(),
		getIssueEventTool(),
		getIssueLatestEventTool(),
		updateIssueTool(),
		listEventAttachmentsTool(),
		getEventAttachmentTool(),
		searchErrorsTool(agent),
		searchSpansTool(),
		searchLogsTool(),
		getTraceTool(),
		startAutofixTool(),
		getAutofixStateTool(),
		getIssueUrlTool(),
		getIssuesSearchUrlTool(),
		getEventsExplorerUrlTool(),
	}
	if agent == nil {
		return base
	}
	return append(base, useSentryTool(base, agent))
}

// useSentryTool implements the free-form embedded agent (spec.md §4.8):
// a single tool that hands the caller's natural-language request to an
// LLM with every other tool this request is authorized for, and returns
// its final answer. Only registered when agent is non-nil; gated at call
// time on sc.AgentMode so it still 400s cleanly if the agent=1 query
// flag wasn't set (spec.md §6).
func useSentryTool(baseRegistry []Config, agent *agentrt.Agent) Config {
	return Config{
		Name:           "use_sentry",
		Description:    "Ask a free-form question and let an embedded agent plan and run whichever tools are needed to answer it.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		OpenWorldHint:  true,
		InputSchema: map[string]Field{
			"prompt": {Type: FieldString, Description: "The natural-language question or task.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			if sc == nil || !sc.AgentMode {
				return "", apierr.NewUserInputError("use_sentry requires the agent=1 query flag on the MCP URL")
			}
			prompt, err := stringParam(params, "prompt")
			if err != nil {
				return "", err
			}

			prepared := Prepare(baseRegistry, sc)
			specs := make([]agentrt.ToolSpec, 0, len(prepared))
			byName := make(map[string]PreparedTool, len(prepared))
			for _, p := range prepared {
				specs = append(specs, agentrt.ToolSpec{
					Name:        p.Tool.Name,
					Description: p.Tool.Description,
					Parameters:  toJSONSchema(p.VisibleSchema),
				})
				byName[p.Tool.Name] = p
			}

			caller := func(ctx context.Context, name string, args map[string]interface{}) string {
				tool, ok := byName[name]
				if !ok {
					return fmt.Sprintf(`{"error":"unknown tool %q"}`, name)
				}
				result, err := Invoke(ctx, tool, sc, args)
				if err != nil {
					return fmt.Sprintf(`{"error":%q}`, apierr.FormatForTool(name, err))
				}
				return result
			}

			const system = "You are a Sentry assistant. Use the available tools to investigate and answer " +
				"the user's request. Once you have enough information, stop calling tools and respond " +
				"with a JSON object: {\"answer\": \"<your concise final answer>\"}. If the request cannot " +
				"be fulfilled, respond with {\"error\": \"<why>\"} instead."

			var out struct {
				Answer string `json:"answer"`
			}
			if _, err := agent.Run(ctx, system, prompt, specs, caller, &out); err != nil {
				return "", err
			}
			return out.Answer, nil
		},
	}
}

// toJSONSchema renders a tool's visible field map as the JSON-schema
// object an LLM function-calling API expects.
func toJSONSchema(fields map[string]Field) map[string]interface{} {
	properties := make(map[string]interface{}, len(fields))
	var required []string
	for name, field := range fields {
		prop := map[string]interface{}{"type": string(field.Type)}
		if field.Description != "" {
			prop["description"] = field.Description
		}
		if len(field.Enum) > 0 {
			prop["enum"] = field.Enum
		}
		if field.Type == FieldArray && field.ItemType != "" {
			prop["items"] = map[string]interface{}{"type": string(field.ItemType)}
		}
		properties[name] = prop
		if field.Required {
			required = append(required, name)
		}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func whoamiTool() Config {
	return Config{
		Name:           "whoami",
		Description:    "Return the identity of the currently authenticated user.",
		RequiredScopes: []scopes.Scope{scopes.ScopeOrgRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema:    map[string]Field{},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			user, err := upstreamClient(sc).GetAuthenticatedUser(ctx)
			if err != nil {
				return "", err
			}
			return toJSON(user)
		},
	}
}

func findOrganizationsTool() Config {
	return Config{
		Name:           "find_organizations",
		Description:    "List every organization visible to the current user, across all data-residency regions.",
		RequiredScopes: []scopes.Scope{scopes.ScopeOrgRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema:    map[string]Field{},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			orgs, err := upstreamClient(sc).ListOrganizations(ctx)
			if err != nil {
				return "", err
			}
			return toJSON(orgs)
		},
	}
}

func findProjectsTool() Config {
	return Config{
		Name:           "find_projects",
		Description:    "List the projects within an organization.",
		RequiredScopes: []scopes.Scope{scopes.ScopeProjectRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			projects, err := upstreamClient(sc).ListProjects(ctx, org)
			if err != nil {
				return "", err
			}
			return toJSON(projects)
		},
	}
}

func findTeamsTool() Config {
	return Config{
		Name:           "find_teams",
		Description:    "List the teams within an organization.",
		RequiredScopes: []scopes.Scope{scopes.ScopeTeamRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			teams, err := upstreamClient(sc).ListTeams(ctx, org)
			if err != nil {
				return "", err
			}
			return toJSON(teams)
		},
	}
}

func findReleasesTool() Config {
	return Config{
		Name:           "find_releases",
		Description:    "List releases for an organization, optionally scoped to one project.",
		RequiredScopes: []scopes.Scope{scopes.ScopeProjectReleases},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  {Type: FieldString, Description: "Optional project slug or ID to scope the release list."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			project := optionalStringParam(params, FieldProjectSlugOrID)
			releases, err := upstreamClient(sc).ListReleases(ctx, org, project)
			if err != nil {
				return "", err
			}
			return toJSON(releases)
		},
	}
}

func findTagsTool() Config {
	return Config{
		Name:           "find_tags",
		Description:    "List searchable event tag keys for a project.",
		RequiredScopes: []scopes.Scope{scopes.ScopeProjectRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  projField,
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			project, err := projectSlugOrID(params)
			if err != nil {
				return "", err
			}
			tags, err := upstreamClient(sc).ListTags(ctx, org, project)
			if err != nil {
				return "", err
			}
			return toJSON(tags)
		},
	}
}

func findMembersTool() Config {
	return Config{
		Name:           "find_members",
		Description:    "List the members of an organization.",
		RequiredScopes: []scopes.Scope{scopes.ScopeMemberRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			members, err := upstreamClient(sc).ListOrganizationMembers(ctx, org)
			if err != nil {
				return "", err
			}
			return toJSON(members)
		},
	}
}

func createTeamTool() Config {
	return Config{
		Name:           "create_team",
		Description:    "Create a new team within an organization.",
		RequiredScopes: []scopes.Scope{scopes.ScopeTeamWrite},
		RequiredSkills: []scopes.Skill{scopes.SkillProjectManagement},
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			"name":                {Type: FieldString, Description: "The new team's name.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			name, err := stringParam(params, "name")
			if err != nil {
				return "", err
			}
			team, err := upstreamClient(sc).CreateTeam(ctx, org, name)
			if err != nil {
				return "", err
			}
			return toJSON(team)
		},
	}
}

func createProjectTool() Config {
	return Config{
		Name:           "create_project",
		Description:    "Create a new project owned by a team.",
		RequiredScopes: []scopes.Scope{scopes.ScopeProjectWrite},
		RequiredSkills: []scopes.Skill{scopes.SkillProjectManagement},
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			"teamSlug":            {Type: FieldString, Description: "The owning team's slug.", Required: true},
			"name":                {Type: FieldString, Description: "The new project's name.", Required: true},
			"platform":            {Type: FieldString, Description: "Optional platform identifier (e.g. \"python\", \"javascript-react\")."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			team, err := stringParam(params, "teamSlug")
			if err != nil {
				return "", err
			}
			name, err := stringParam(params, "name")
			if err != nil {
				return "", err
			}
			platform := optionalStringParam(params, "platform")
			project, err := upstreamClient(sc).CreateProject(ctx, org, team, name, platform)
			if err != nil {
				return "", err
			}
			return toJSON(project)
		},
	}
}

func updateProjectTool() Config {
	return Config{
		Name:           "update_project",
		Description:    "Update a project's name, slug, or platform.",
		RequiredScopes: []scopes.Scope{scopes.ScopeProjectWrite},
		RequiredSkills: []scopes.Skill{scopes.SkillProjectManagement},
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  projField,
			"name":                {Type: FieldString, Description: "New project name."},
			"slug":                {Type: FieldString, Description: "New project slug."},
			"platform":            {Type: FieldString, Description: "New platform identifier."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			project, err := projectSlugOrID(params)
			if err != nil {
				return "", err
			}
			fields := map[string]interface{}{}
			for _, key := range []string{"name", "slug", "platform"} {
				if v := optionalStringParam(params, key); v != "" {
					fields[key] = v
				}
			}
			updated, err := upstreamClient(sc).UpdateProject(ctx, org, project, fields)
			if err != nil {
				return "", err
			}
			return toJSON(updated)
		},
	}
}

func addTeamToProjectTool() Config {
	return Config{
		Name:           "add_team_to_project",
		Description:    "Grant a team access to a project.",
		RequiredScopes: []scopes.Scope{scopes.ScopeProjectWrite, scopes.ScopeTeamWrite},
		RequiredSkills: []scopes.Skill{scopes.SkillProjectManagement},
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  projField,
			"teamSlug":            {Type: FieldString, Description: "The team to grant access to.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			project, err := projectSlugOrID(params)
			if err != nil {
				return "", err
			}
			team, err := stringParam(params, "teamSlug")
			if err != nil {
				return "", err
			}
			if err := upstreamClient(sc).AddTeamToProject(ctx, org, project, team); err != nil {
				return "", err
			}
			return fmt.Sprintf("Team %q added to project %q.", team, project), nil
		},
	}
}

func createClientKeyTool() Config {
	return Config{
		Name:           "create_client_key",
		Description:    "Create a new DSN-bearing client key for a project.",
		RequiredScopes: []scopes.Scope{scopes.ScopeProjectWrite},
		RequiredSkills: []scopes.Skill{scopes.SkillProjectManagement},
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  projField,
			"name":                {Type: FieldString, Description: "Optional display name for the key."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			project, err := projectSlugOrID(params)
			if err != nil {
				return "", err
			}
			name := optionalStringParam(params, "name")
			key, err := upstreamClient(sc).CreateClientKey(ctx, org, project, name)
			if err != nil {
				return "", err
			}
			return toJSON(key)
		},
	}
}

func findClientKeysTool() Config {
	return Config{
		Name:           "find_client_keys",
		Description:    "List a project's DSN-bearing client keys.",
		RequiredScopes: []scopes.Scope{scopes.ScopeProjectRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  projField,
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			project, err := projectSlugOrID(params)
			if err != nil {
				return "", err
			}
			keys, err := upstreamClient(sc).ListClientKeys(ctx, org, project)
			if err != nil {
				return "", err
			}
			return toJSON(keys)
		},
	}
}

func searchIssuesTool(agent *agentrt.Agent) Config {
	schema := map[string]Field{
		FieldOrganizationSlug: orgField,
		FieldProjectSlugOrID:  projField,
		"query":               {Type: FieldString, Description: "Search query, e.g. \"is:unresolved\"."},
		"sort":                {Type: FieldString, Description: "One of user, freq, date, new.", Enum: []string{"user", "freq", "date", "new"}},
	}
	if agent != nil {
		schema["naturalLanguageQuery"] = Field{Type: FieldString, Description: "Plain-English description of the issues to find; translated into the upstream search syntax when query is omitted."}
	}
	return Config{
		Name:           "search_issues",
		Description:    "Search issues within a project using the upstream search syntax.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema:    schema,
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			project, err := projectSlugOrID(params)
			if err != nil {
				return "", err
			}
			query := optionalStringParam(params, "query")
			sort := optionalStringParam(params, "sort")
			if query == "" {
				if nlq := optionalStringParam(params, "naturalLanguageQuery"); nlq != "" && agent != nil {
					translated, err := translateIssueQuery(ctx, agent, nlq)
					if err != nil {
						return "", err
					}
					query = translated.Query
					if sort == "" {
						sort = translated.Sort
					}
				}
			}
			issues, err := upstreamClient(sc).ListIssues(ctx, org, project, query, sort)
			if err != nil {
				return "", err
			}
			return toJSON(issues)
		},
	}
}

type translatedIssueQuery struct {
	Query string `json:"query"`
	Sort  string `json:"sort"`
}

// translateIssueQuery runs the search_issues embedded agent (spec.md
// §4.8): one model call to turn a plain-English request into the
// upstream's issue search syntax, one retry if the result doesn't even
// parse as a search clause.
func translateIssueQuery(ctx context.Context, agent *agentrt.Agent, naturalLanguage string) (translatedIssueQuery, error) {
	const system = "You translate a user's plain-English description of issues into Sentry's issue " +
		"search query syntax (e.g. \"is:unresolved\", \"assigned:me level:error\"). Respond with a JSON " +
		"object: {\"query\": \"<search syntax>\", \"sort\": \"<one of user, freq, date, new, or empty>\"}. " +
		"If the request cannot be expressed as a search query, respond with {\"error\": \"<why>\"}."

	var out translatedIssueQuery
	err := agent.RunWithRetry(ctx, system, naturalLanguage, &out, func() error {
		if out.Query == "" {
			return fmt.Errorf("query must not be empty")
		}
		switch out.Sort {
		case "", "user", "freq", "date", "new":
			return nil
		default:
			return fmt.Errorf("sort must be one of user, freq, date, new")
		}
	})
	if err != nil {
		return translatedIssueQuery{}, err
	}
	return out, nil
}

func getIssueTool() Config {
	return Config{
		Name:           "get_issue",
		Description:    "Fetch a single issue by numeric ID or short ID (e.g. PROJECT-123).",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			"issueId": {Type: FieldString, Description: "The issue's numeric ID or short ID.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			issueID, err := stringParam(params, "issueId")
			if err != nil {
				return "", err
			}
			issue, err := upstreamClient(sc).GetIssue(ctx, issueID)
			if err != nil {
				return "", err
			}
			return toJSON(issue)
		},
	}
}

func getIssueEventTool() Config {
	return Config{
		Name:           "get_issue_event",
		Description:    "Fetch a specific event belonging to an issue.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			"issueId": {Type: FieldString, Description: "The issue's numeric ID.", Required: true},
			"eventId": {Type: FieldString, Description: "The event's ID.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			issueID, err := stringParam(params, "issueId")
			if err != nil {
				return "", err
			}
			eventID, err := stringParam(params, "eventId")
			if err != nil {
				return "", err
			}
			event, err := upstreamClient(sc).GetEventForIssue(ctx, issueID, eventID)
			if err != nil {
				return "", err
			}
			return toJSON(event)
		},
	}
}

func getIssueLatestEventTool() Config {
	return Config{
		Name:           "get_issue_latest_event",
		Description:    "Fetch the most recent event belonging to an issue.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			"issueId": {Type: FieldString, Description: "The issue's numeric ID.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			issueID, err := stringParam(params, "issueId")
			if err != nil {
				return "", err
			}
			event, err := upstreamClient(sc).GetLatestEventForIssue(ctx, issueID)
			if err != nil {
				return "", err
			}
			return toJSON(event)
		},
	}
}

func updateIssueTool() Config {
	return Config{
		Name:           "update_issue",
		Description:    "Update an issue's status or assignee.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventWrite},
		RequiredSkills: []scopes.Skill{scopes.SkillTriage},
		InputSchema: map[string]Field{
			"issueId":    {Type: FieldString, Description: "The issue's numeric ID.", Required: true},
			"status":     {Type: FieldString, Description: "New status, e.g. resolved, ignored, unresolved."},
			"assignedTo": {Type: FieldString, Description: "Username or team to assign the issue to."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			issueID, err := stringParam(params, "issueId")
			if err != nil {
				return "", err
			}
			fields := map[string]interface{}{}
			if v := optionalStringParam(params, "status"); v != "" {
				fields["status"] = v
			}
			if v := optionalStringParam(params, "assignedTo"); v != "" {
				fields["assignedTo"] = v
			}
			issue, err := upstreamClient(sc).UpdateIssue(ctx, issueID, fields)
			if err != nil {
				return "", err
			}
			return toJSON(issue)
		},
	}
}

func listEventAttachmentsTool() Config {
	return Config{
		Name:           "list_event_attachments",
		Description:    "List attachment metadata for an event.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  projField,
			"eventId":             {Type: FieldString, Description: "The event's ID.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			project, err := projectSlugOrID(params)
			if err != nil {
				return "", err
			}
			eventID, err := stringParam(params, "eventId")
			if err != nil {
				return "", err
			}
			attachments, err := upstreamClient(sc).ListEventAttachments(ctx, org, project, eventID)
			if err != nil {
				return "", err
			}
			return toJSON(attachments)
		},
	}
}

func getEventAttachmentTool() Config {
	return Config{
		Name:           "get_event_attachment",
		Description:    "Fetch a single event attachment's bytes, base64 in the JSON result.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  projField,
			"eventId":             {Type: FieldString, Description: "The event's ID.", Required: true},
			"attachmentId":        {Type: FieldString, Description: "The attachment's ID.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			project, err := projectSlugOrID(params)
			if err != nil {
				return "", err
			}
			eventID, err := stringParam(params, "eventId")
			if err != nil {
				return "", err
			}
			attachmentID, err := stringParam(params, "attachmentId")
			if err != nil {
				return "", err
			}
			attachment, err := upstreamClient(sc).GetEventAttachment(ctx, org, project, eventID, attachmentID)
			if err != nil {
				return "", err
			}
			return toJSON(map[string]interface{}{
				"attachmentId": attachmentID,
				"filename":     attachment.Filename,
				"contentType":  attachment.ContentType,
				"size":         len(attachment.Bytes),
				"bytes":        base64.StdEncoding.EncodeToString(attachment.Bytes),
			})
		},
	}
}

func searchErrorsTool(agent *agentrt.Agent) Config {
	schema := map[string]Field{
		FieldOrganizationSlug: orgField,
		FieldProjectSlugOrID:  {Type: FieldString, Description: "Optional project slug or ID to scope the query."},
		"query":               {Type: FieldString, Description: "Discover search query."},
		"fields":              {Type: FieldArray, ItemType: FieldString, Description: "Fields to select, in order."},
		"limit":               {Type: FieldNumber, Description: "Max results to return.", Default: 10},
		"sort":                {Type: FieldString, Description: "Sort expression, e.g. \"-count()\"."},
		"statsPeriod":         {Type: FieldString, Description: "Relative time window, e.g. \"14d\"."},
	}
	if agent != nil {
		schema["naturalLanguageQuery"] = Field{Type: FieldString, Description: "Plain-English description of the errors to find; translated into a Discover query when query is omitted."}
	}
	return Config{
		Name:           "search_errors",
		Description:    "Run a Discover query against the errors dataset.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema:    schema,
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			query := optionalStringParam(params, "query")
			fields := stringSliceParam(params, "fields")
			sort := optionalStringParam(params, "sort")
			if query == "" {
				if nlq := optionalStringParam(params, "naturalLanguageQuery"); nlq != "" && agent != nil {
					translated, err := translateDiscoverQuery(ctx, agent, nlq)
					if err != nil {
						return "", err
					}
					query = translated.Query
					if len(fields) == 0 {
						fields = translated.Fields
					}
					if sort == "" {
						sort = translated.Sort
					}
				}
			}
			result, err := upstreamClient(sc).SearchErrors(ctx, org, upstream.DiscoverQuery{
				Query:       query,
				Fields:      fields,
				Limit:       optionalIntParam(params, "limit", 10),
				ProjectSlug: optionalStringParam(params, FieldProjectSlugOrID),
				StatsPeriod: optionalStringParam(params, "statsPeriod"),
				Sort:        sort,
			})
			if err != nil {
				return "", err
			}
			return toJSON(result)
		},
	}
}

type translatedDiscoverQuery struct {
	Query  string   `json:"query"`
	Fields []string `json:"fields"`
	Sort   string   `json:"sort"`
}

// translateDiscoverQuery mirrors translateIssueQuery for the errors
// dataset's Discover query syntax (spec.md §4.8).
func translateDiscoverQuery(ctx context.Context, agent *agentrt.Agent, naturalLanguage string) (translatedDiscoverQuery, error) {
	const system = "You translate a user's plain-English description of errors into a Sentry Discover " +
		"query over the errors dataset. Respond with a JSON object: {\"query\": \"<discover query>\", " +
		"\"fields\": [\"<field>\", ...], \"sort\": \"<sort expression, or empty>\"}. If the request cannot " +
		"be expressed this way, respond with {\"error\": \"<why>\"}."

	var out translatedDiscoverQuery
	err := agent.RunWithRetry(ctx, system, naturalLanguage, &out, func() error {
		if out.Query == "" {
			return fmt.Errorf("query must not be empty")
		}
		return nil
	})
	if err != nil {
		return translatedDiscoverQuery{}, err
	}
	return out, nil
}

func searchSpansTool() Config {
	return Config{
		Name:           "search_spans",
		Description:    "Run an EAP query against the spans dataset.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  {Type: FieldString, Description: "Optional project slug or ID to scope the query."},
			"query":               {Type: FieldString, Description: "EAP search query."},
			"fields":              {Type: FieldArray, ItemType: FieldString, Description: "Fields to select, in order."},
			"limit":               {Type: FieldNumber, Description: "Max results to return.", Default: 10},
			"sort":                {Type: FieldString, Description: "Sort expression, e.g. \"-avg(span.self_time)\"."},
			"statsPeriod":         {Type: FieldString, Description: "Relative time window, e.g. \"14d\"."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			result, err := upstreamClient(sc).SearchSpans(ctx, org, upstream.EapQuery{
				Query:       optionalStringParam(params, "query"),
				Fields:      stringSliceParam(params, "fields"),
				Limit:       optionalIntParam(params, "limit", 10),
				ProjectSlug: optionalStringParam(params, FieldProjectSlugOrID),
				StatsPeriod: optionalStringParam(params, "statsPeriod"),
				Sort:        optionalStringParam(params, "sort"),
			})
			if err != nil {
				return "", err
			}
			return toJSON(result)
		},
	}
}

func searchLogsTool() Config {
	return Config{
		Name:           "search_logs",
		Description:    "Run an EAP query against the logs dataset.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		OpenWorldHint:  true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			FieldProjectSlugOrID:  {Type: FieldString, Description: "Optional project slug or ID to scope the query."},
			"query":               {Type: FieldString, Description: "EAP search query."},
			"fields":              {Type: FieldArray, ItemType: FieldString, Description: "Fields to select, in order."},
			"limit":               {Type: FieldNumber, Description: "Max results to return.", Default: 10},
			"sort":                {Type: FieldString, Description: "Sort expression."},
			"statsPeriod":         {Type: FieldString, Description: "Relative time window, e.g. \"14d\"."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			result, err := upstreamClient(sc).ListLogs(ctx, org, upstream.EapQuery{
				Query:       optionalStringParam(params, "query"),
				Fields:      stringSliceParam(params, "fields"),
				Limit:       optionalIntParam(params, "limit", 10),
				ProjectSlug: optionalStringParam(params, FieldProjectSlugOrID),
				StatsPeriod: optionalStringParam(params, "statsPeriod"),
				Sort:        optionalStringParam(params, "sort"),
			})
			if err != nil {
				return "", err
			}
			return toJSON(result)
		},
	}
}

func getTraceTool() Config {
	return Config{
		Name:           "get_trace_url",
		Description:    "Build the web-UI link for a trace.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			"traceId":             {Type: FieldString, Description: "The trace's ID.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			traceID, err := stringParam(params, "traceId")
			if err != nil {
				return "", err
			}
			return upstream.GetTraceUrl(sc.UpstreamHost, org, traceID), nil
		},
	}
}

func startAutofixTool() Config {
	return Config{
		Name:           "start_autofix",
		Description:    "Kick off a Seer autofix run for an issue.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventWrite},
		RequiredSkills: []scopes.Skill{scopes.SkillSeer},
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			"issueId":             {Type: FieldString, Description: "The issue's numeric ID.", Required: true},
			"eventId":             {Type: FieldString, Description: "Optional event ID to anchor the run to."},
			"instruction":         {Type: FieldString, Description: "Optional free-text instruction to steer the fix."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			issueID, err := stringParam(params, "issueId")
			if err != nil {
				return "", err
			}
			eventID := optionalStringParam(params, "eventId")
			instruction := optionalStringParam(params, "instruction")
			state, err := upstreamClient(sc).StartAutofix(ctx, org, issueID, eventID, instruction)
			if err != nil {
				return "", err
			}
			return toJSON(state)
		},
	}
}

func getAutofixStateTool() Config {
	return Config{
		Name:           "get_autofix_state",
		Description:    "Poll the status of an issue's most recent Seer autofix run.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillSeer},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			"issueId":             {Type: FieldString, Description: "The issue's numeric ID.", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			issueID, err := stringParam(params, "issueId")
			if err != nil {
				return "", err
			}
			state, err := upstreamClient(sc).GetAutofixState(ctx, org, issueID)
			if err != nil {
				return "", err
			}
			return toJSON(state)
		},
	}
}

func getIssueUrlTool() Config {
	return Config{
		Name:           "get_issue_url",
		Description:    "Build the web-UI link for an issue.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			"shortId":             {Type: FieldString, Description: "The issue's short ID (e.g. PROJECT-123).", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			shortID, err := stringParam(params, "shortId")
			if err != nil {
				return "", err
			}
			return upstream.GetIssueUrl(sc.UpstreamHost, org, shortID), nil
		},
	}
}

func getIssuesSearchUrlTool() Config {
	return Config{
		Name:           "get_issues_search_url",
		Description:    "Build the web-UI link for an issues list search.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			"query":               {Type: FieldString, Description: "Optional search query."},
			FieldProjectSlugOrID:  {Type: FieldString, Description: "Optional project slug or ID."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			query := optionalStringParam(params, "query")
			project := optionalStringParam(params, FieldProjectSlugOrID)
			return upstream.GetIssuesSearchUrl(sc.UpstreamHost, org, query, project), nil
		},
	}
}

func getEventsExplorerUrlTool() Config {
	return Config{
		Name:           "get_events_explorer_url",
		Description:    "Build the web-UI link for the Explore/events explorer.",
		RequiredScopes: []scopes.Scope{scopes.ScopeEventRead},
		RequiredSkills: []scopes.Skill{scopes.SkillInspect, scopes.SkillTriage},
		ReadOnlyHint:   true,
		InputSchema: map[string]Field{
			FieldOrganizationSlug: orgField,
			"query":               {Type: FieldString, Description: "Search query.", Required: true},
			"dataset":             {Type: FieldString, Description: "errors, spans, or logs.", Enum: []string{"errors", "spans", "logs"}, Required: true},
			FieldProjectSlugOrID:  {Type: FieldString, Description: "Optional project slug or ID."},
			"fields":              {Type: FieldArray, ItemType: FieldString, Description: "Fields to select, in order."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error) {
			org, err := stringParam(params, FieldOrganizationSlug)
			if err != nil {
				return "", err
			}
			query, err := stringParam(params, "query")
			if err != nil {
				return "", err
			}
			dataset, err := stringParam(params, "dataset")
			if err != nil {
				return "", err
			}
			project := optionalStringParam(params, FieldProjectSlugOrID)
			fields := stringSliceParam(params, "fields")
			return upstream.GetEventsExplorerUrl(sc.UpstreamHost, org, query, upstream.Dataset(dataset), project, fields), nil
		},
	}
}
