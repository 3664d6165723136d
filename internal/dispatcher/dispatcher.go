// Package dispatcher implements MCPDispatcher (spec.md §4.4): the single
// JSON-RPC entry point that turns a tools/call, prompts/get, or
// resources/read request into a prepared tool invocation, with
// constraints always winning over caller-supplied input and handler
// errors converted into isError tool results rather than protocol
// errors. Grounded on the teacher's aggregator.createToolHandler, which
// performs the analogous "never let a handler error become a transport
// error" conversion for its own provider-backed tools.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
	"github.com/getsentry/sentry-mcp-gateway/internal/tools"
)

// Dispatcher routes prepared MCP calls against a fixed tool registry.
type Dispatcher struct {
	registry []tools.Config
	tracer   trace.Tracer
}

// New builds a Dispatcher over the full tool registry. tracer may be
// nil, in which case tracing falls back to a no-op tracer.
func New(registry []tools.Config, tracer trace.Tracer) *Dispatcher {
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer("dispatcher")
	}
	return &Dispatcher{registry: registry, tracer: tracer}
}

// ListTools implements the tools/list contract: the dispatcher hands
// back exactly the tools ToolPreparer says this context may call, each
// with its redacted visible schema converted to MCP's wire schema shape.
func (d *Dispatcher) ListTools(sc *reqcontext.ServerContext) []mcp.Tool {
	prepared := tools.Prepare(d.registry, sc)
	out := make([]mcp.Tool, 0, len(prepared))
	for _, p := range prepared {
		out = append(out, mcp.Tool{
			Name:        p.Tool.Name,
			Description: p.Tool.Description,
			InputSchema: toMCPSchema(p.VisibleSchema),
		})
	}
	return out
}

func toMCPSchema(fields map[string]tools.Field) mcp.ToolInputSchema {
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
		if field.Default != nil {
			prop["default"] = field.Default
		}
		if field.Type == tools.FieldArray && field.ItemType != "" {
			prop["items"] = map[string]interface{}{"type": string(field.ItemType)}
		}
		properties[name] = prop
		if field.Required {
			required = append(required, name)
		}
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// CallTool implements the tools/call contract (spec.md §4.4 steps 1-6).
func (d *Dispatcher) CallTool(ctx context.Context, sc *reqcontext.ServerContext, name string, params map[string]interface{}) *mcp.CallToolResult {
	prepared := tools.Prepare(d.registry, sc)

	var tool *tools.PreparedTool
	for i := range prepared {
		if prepared[i].Tool.Name == name {
			tool = &prepared[i]
			break
		}
	}
	if tool == nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown tool: %s", name))
	}

	if err := tools.ValidateParams(params, tool.VisibleSchema); err != nil {
		return mcp.NewToolResultError(err.Error())
	}

	merged := tools.ApplyConstraints(params, sc, tool.Tool.InputSchema)

	ctx, span := d.tracer.Start(ctx, "tools/call "+name)
	defer span.End()
	span.SetAttributes(
		attribute.String("mcp.tool.name", name),
	)
	if sc != nil {
		span.SetAttributes(
			attribute.String("mcp.user.id", sc.UserID),
			attribute.String("mcp.client.id", sc.ClientID),
		)
	}
	for k, v := range merged {
		b, _ := json.Marshal(v)
		span.SetAttributes(attribute.String("mcp.request.argument."+k, string(b)))
	}

	result, err := tool.Tool.Handler(ctx, merged, sc)
	if err != nil {
		return mcp.NewToolResultError(apierr.FormatForTool(name, err))
	}
	// Every Handler result is wire-formatted text (tools.Handler returns
	// only a string), so this always takes the text branch; there is no
	// path by which a handler could hand back an image/resource part.
	return mcp.NewToolResultText(result)
}

