package tools

import (
	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
)

// Prepare implements ToolPreparer (spec.md §4.3): given the full
// registry in definition order and a request's ServerContext, produce
// the filtered, schema-redacted list of tools that context may call.
// With a non-nil context, a tool that lists RequiredSkills is kept only
// if at least one of them is granted; with a nil context only the scope
// check applies.
func Prepare(registry []Config, sc *reqcontext.ServerContext) []PreparedTool {
	effective := effectiveScopes(registry, sc)

	prepared := make([]PreparedTool, 0, len(registry))
	for _, tool := range registry {
		if sc != nil && len(tool.RequiredSkills) > 0 && !toolSkillsGranted(tool.RequiredSkills, sc.GrantedSkills) {
			continue
		}
		if !requiredScopesGranted(tool.RequiredScopes, effective) {
			continue
		}
		prepared = append(prepared, PreparedTool{
			Tool:          tool,
			VisibleSchema: visibleSchema(tool.InputSchema, sc),
		})
	}
	return prepared
}

// effectiveScopes expands a ServerContext's granted skills into the scope
// set they imply, unioned with the tools' base requirement and the
// context's own GrantedScopes. Every tool whose RequiredSkills intersects
// ctx.GrantedSkills contributes its RequiredScopes (spec.md §4.3 step 1).
func effectiveScopes(registry []Config, sc *reqcontext.ServerContext) scopes.Set[scopes.Scope] {
	effective := scopes.NewSet(scopes.BaseScopes...)
	if sc == nil {
		return effective
	}
	effective = effective.Union(sc.GrantedScopes)

	for _, tool := range registry {
		if toolSkillsGranted(tool.RequiredSkills, sc.GrantedSkills) {
			effective = effective.Union(scopes.NewSet(tool.RequiredScopes...))
		}
	}
	return effective
}

func toolSkillsGranted(required []scopes.Skill, granted scopes.Set[scopes.Skill]) bool {
	if len(required) == 0 {
		return false
	}
	for _, s := range required {
		if granted.Has(s) {
			return true
		}
	}
	return false
}

func requiredScopesGranted(required []scopes.Scope, effective scopes.Set[scopes.Scope]) bool {
	for _, s := range required {
		if !effective.Has(s) {
			return false
		}
	}
	return true
}

// visibleSchema drops fields that will be auto-injected from constraints
// (spec.md §4.3 step 3). A field is only dropped if it exists in the
// tool's full input schema.
func visibleSchema(full map[string]Field, sc *reqcontext.ServerContext) map[string]Field {
	visible := make(map[string]Field, len(full))
	for name, field := range full {
		visible[name] = field
	}
	if sc == nil {
		return visible
	}

	if sc.Constraints.OrganizationSlug != "" {
		delete(visible, FieldOrganizationSlug)
	}
	if sc.Constraints.ProjectSlug != "" {
		delete(visible, FieldProjectSlug)
		delete(visible, FieldProjectSlugOrID)
	}
	if sc.Constraints.RegionURL != "" {
		delete(visible, FieldRegionURL)
	}
	return visible
}
