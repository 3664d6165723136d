package tools

import (
	"encoding/json"
	"net/url"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
	"github.com/getsentry/sentry-mcp-gateway/internal/upstream"
)

// upstreamClient builds a per-call UpstreamClient from the request's
// ServerContext, retargeted at the verified region host when constraint
// verification resolved one.
func upstreamClient(sc *reqcontext.ServerContext) *upstream.Client {
	host := sc.UpstreamHost
	if sc.Constraints.RegionURL != "" {
		if parsed, err := url.Parse(sc.Constraints.RegionURL); err == nil && parsed.Host != "" {
			host = parsed.Host
		}
	}
	return upstream.New(sc.AccessToken, host)
}

// stringParam reads a required string parameter, returning a UserInputError
// if it is missing or not a string.
func stringParam(params map[string]interface{}, name string) (string, error) {
	raw, ok := params[name]
	if !ok {
		return "", apierr.NewUserInputError("missing required parameter %q", name)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", apierr.NewUserInputError("parameter %q must be a non-empty string", name)
	}
	return s, nil
}

// optionalStringParam reads an optional string parameter, defaulting to "".
func optionalStringParam(params map[string]interface{}, name string) string {
	raw, ok := params[name]
	if !ok {
		return ""
	}
	s, _ := raw.(string)
	return s
}

// optionalIntParam reads an optional numeric parameter, defaulting to def.
// JSON numbers decode as float64 in map[string]interface{}.
func optionalIntParam(params map[string]interface{}, name string, def int) int {
	raw, ok := params[name]
	if !ok {
		return def
	}
	f, ok := raw.(float64)
	if !ok {
		return def
	}
	return int(f)
}

// stringSliceParam reads an optional []string parameter from decoded JSON,
// where elements arrive as []interface{}.
func stringSliceParam(params map[string]interface{}, name string) []string {
	raw, ok := params[name]
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// projectSlugOrID resolves the project identifier, honoring the
// projectSlug → projectSlugOrId alias that the dispatcher's constraint
// injection applies (spec.md §4.4 step 3).
func projectSlugOrID(params map[string]interface{}) (string, error) {
	if v := optionalStringParam(params, "projectSlugOrId"); v != "" {
		return v, nil
	}
	return stringParam(params, "projectSlug")
}

// toJSON renders a result value as a tool's string return, pretty-printed
// for readability in an agent transcript.
func toJSON(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", apierr.NewConfigurationError("failed to encode tool result", err)
	}
	return string(b), nil
}
