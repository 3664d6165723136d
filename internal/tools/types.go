// Package tools implements ToolRegistry and ToolPreparer (spec.md §4.3):
// the fixed set of ~30 read/write tools over UpstreamClient, and the
// per-request filtering that hides tools a caller isn't authorized for
// and schema fields that will be auto-injected from constraints.
package tools

import (
	"context"

	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
)

// FieldType names the JSON-schema-ish primitive type of one input field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldBool   FieldType = "boolean"
	FieldArray  FieldType = "array"
)

// Field describes one named input field of a tool.
type Field struct {
	Type        FieldType
	Description string
	Required    bool
	Enum        []string
	Default     interface{}
	// ItemType names the element type when Type is FieldArray.
	ItemType FieldType
}

// Handler executes a tool's operation against the resolved params and the
// request's ServerContext, returning either a plain string or a structured
// error. The dispatcher (internal/dispatcher) is responsible for wrapping
// the string into MCP content parts and for formatting errors.
//
// Handler can only ever produce a single text content part: every tool,
// including getEventAttachment, returns JSON-encoded text (base64 for
// binary payloads) rather than a real MCP image/resource content part.
// Widening this to something like (string, mcp.Content, error) would let
// getEventAttachment hand back an inline image instead of a base64
// string, but no current tool needs it enough to justify the churn
// across the whole registry.
type Handler func(ctx context.Context, params map[string]interface{}, sc *reqcontext.ServerContext) (string, error)

// Config is the immutable, startup-defined definition of one tool
// (spec.md §3 ToolConfig).
type Config struct {
	Name           string
	Description    string
	InputSchema    map[string]Field
	RequiredScopes []scopes.Scope
	RequiredSkills []scopes.Skill
	ReadOnlyHint   bool
	OpenWorldHint  bool
	Handler        Handler
}

// Field names that carry constraint-injected values. ToolPreparer may hide
// these from a tool's visible schema and MCPDispatcher may overwrite them
// from ServerContext.Constraints (spec.md §4.3 step 3, §4.4 step 3). This
// is the closed set; no other field name is ever auto-injected.
const (
	FieldOrganizationSlug = "organizationSlug"
	FieldProjectSlug      = "projectSlug"
	FieldProjectSlugOrID  = "projectSlugOrId"
	FieldRegionURL        = "regionUrl"
)

// PreparedTool is one entry of ToolPreparer's output: a tool alongside the
// schema a given ServerContext is allowed to see.
type PreparedTool struct {
	Tool          Config
	VisibleSchema map[string]Field
}
