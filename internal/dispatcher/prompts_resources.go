package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
)

// PromptConfig is a static, named prompt the dispatcher can hand back to
// an MCP client via prompts/get.
type PromptConfig struct {
	Name        string
	Description string
	Render      func(params map[string]interface{}) (string, error)
}

// ResourceConfig is a resource whose URI may contain {placeholders}
// substituted from the request's params before Render runs (spec.md
// §4.4: "Resource URIs may be template URIs ... the dispatcher supplies
// the concrete URI after substitution").
type ResourceConfig struct {
	URITemplate string
	Description string
	MimeType    string
	Render      func(uri string, params map[string]interface{}) (string, error)
}

// Prompts returns the gateway's fixed prompt catalog.
func Prompts() []PromptConfig {
	return []PromptConfig{
		{
			Name:        "use_sentry",
			Description: "Guidance for an agent on how to triage issues and errors using the available tools.",
			Render: func(params map[string]interface{}) (string, error) {
				return "Use find_organizations and find_projects to discover scope, then search_issues " +
					"or search_errors to locate problems, and get_issue / get_issue_latest_event to read " +
					"details before proposing a fix.", nil
			},
		},
	}
}

// Resources returns the gateway's fixed resource templates.
func Resources() []ResourceConfig {
	return []ResourceConfig{
		{
			URITemplate: "https://docs.sentry.io/platforms/{platform}/",
			Description: "Platform-specific setup documentation.",
			MimeType:    "text/markdown",
			Render: func(uri string, params map[string]interface{}) (string, error) {
				return fmt.Sprintf("See %s for platform setup instructions.", uri), nil
			},
		},
	}
}

// GetPrompt implements the prompts/get contract: the analogous
// telemetry-tagged flow to CallTool, for a fixed, argument-free (or
// lightly parameterized) prompt catalog.
func (d *Dispatcher) GetPrompt(ctx context.Context, sc *reqcontext.ServerContext, name string, params map[string]interface{}) (string, error) {
	var prompt *PromptConfig
	for i, p := range Prompts() {
		if p.Name == name {
			prompt = &Prompts()[i]
			break
		}
	}
	if prompt == nil {
		return "", apierr.NewUserInputError("unknown prompt: %s", name)
	}

	_, span := d.tracer.Start(ctx, "prompts/get "+name)
	defer span.End()
	span.SetAttributes(attribute.String("mcp.prompt.name", name))
	if sc != nil {
		span.SetAttributes(attribute.String("mcp.user.id", sc.UserID))
	}

	return prompt.Render(params)
}

// ReadResource implements the resources/read contract, substituting
// {placeholder} segments of the template URI from params before
// rendering.
func (d *Dispatcher) ReadResource(ctx context.Context, sc *reqcontext.ServerContext, uriTemplate string, params map[string]interface{}) (string, error) {
	var resource *ResourceConfig
	for i, r := range Resources() {
		if r.URITemplate == uriTemplate {
			resource = &Resources()[i]
			break
		}
	}
	if resource == nil {
		return "", apierr.NewUserInputError("unknown resource: %s", uriTemplate)
	}

	uri := substituteTemplate(uriTemplate, params)

	_, span := d.tracer.Start(ctx, "resources/read "+uriTemplate)
	defer span.End()
	span.SetAttributes(attribute.String("mcp.resource.uri", uri))
	if sc != nil {
		span.SetAttributes(attribute.String("mcp.user.id", sc.UserID))
	}

	return resource.Render(uri, params)
}

func substituteTemplate(template string, params map[string]interface{}) string {
	uri := template
	for k, v := range params {
		s, ok := v.(string)
		if !ok {
			continue
		}
		uri = strings.ReplaceAll(uri, "{"+k+"}", s)
	}
	return uri
}
