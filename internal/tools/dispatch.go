package tools

import (
	"context"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
)

// ValidateParams checks required fields are present and, where possible,
// type-correct against a tool's visible schema (spec.md §4.4 step 2).
// Exported so both the dispatcher and the use_sentry tool (which invokes
// other registry entries directly, to avoid an import cycle back through
// the dispatcher) share one validation path.
func ValidateParams(params map[string]interface{}, schema map[string]Field) error {
	for name, field := range schema {
		value, present := params[name]
		if !present {
			if field.Required {
				return apierr.NewUserInputError("missing required parameter %q", name)
			}
			continue
		}
		if !typeMatches(value, field.Type) {
			return apierr.NewUserInputError("parameter %q has the wrong type, expected %s", name, field.Type)
		}
	}
	return nil
}

func typeMatches(value interface{}, want FieldType) bool {
	switch want {
	case FieldString:
		_, ok := value.(string)
		return ok
	case FieldNumber:
		_, ok := value.(float64)
		return ok
	case FieldBool:
		_, ok := value.(bool)
		return ok
	case FieldArray:
		_, ok := value.([]interface{})
		return ok
	default:
		return true
	}
}

// ApplyConstraints overwrites user-supplied values with the request's
// verified constraints wherever the target field exists in the tool's
// full input schema (spec.md §4.4 step 3). Constraints always win; this
// is the security boundary that prevents a caller from escaping the
// org/project/region its MCP URL was scoped to.
func ApplyConstraints(params map[string]interface{}, sc *reqcontext.ServerContext, fullSchema map[string]Field) map[string]interface{} {
	merged := make(map[string]interface{}, len(params))
	for k, v := range params {
		merged[k] = v
	}
	if sc == nil {
		return merged
	}

	if sc.Constraints.OrganizationSlug != "" {
		if _, ok := fullSchema[FieldOrganizationSlug]; ok {
			merged[FieldOrganizationSlug] = sc.Constraints.OrganizationSlug
		}
	}
	if sc.Constraints.ProjectSlug != "" {
		_, hasSlugOrID := fullSchema[FieldProjectSlugOrID]
		_, hasSlug := fullSchema[FieldProjectSlug]
		switch {
		case hasSlugOrID && !hasSlug:
			merged[FieldProjectSlugOrID] = sc.Constraints.ProjectSlug
		case hasSlug:
			merged[FieldProjectSlug] = sc.Constraints.ProjectSlug
		}
	}
	if sc.Constraints.RegionURL != "" {
		if _, ok := fullSchema[FieldRegionURL]; ok {
			merged[FieldRegionURL] = sc.Constraints.RegionURL
		}
	}
	return merged
}

// Invoke runs a single prepared tool end to end: validate, apply
// constraints, call the handler, and return its raw (result, error) pair
// with no MCP-result wrapping. This is what the use_sentry tool uses to
// call other registry tools on the agent's behalf, since it lives inside
// this package and cannot call back into the dispatcher.
func Invoke(ctx context.Context, tool PreparedTool, sc *reqcontext.ServerContext, params map[string]interface{}) (string, error) {
	if err := ValidateParams(params, tool.VisibleSchema); err != nil {
		return "", err
	}
	merged := ApplyConstraints(params, sc, tool.Tool.InputSchema)
	return tool.Tool.Handler(ctx, merged, sc)
}
