// Package constraints implements ConstraintVerifier (spec.md §4.6): it
// resolves a request's {org, project} path segments into a verified
// ServerContext.Constraints, enforcing that the caller's access token
// actually has access to the organization (and, if named, the project)
// before any tool call is allowed to run.
package constraints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
	"github.com/getsentry/sentry-mcp-gateway/internal/reqcontext"
	"github.com/getsentry/sentry-mcp-gateway/internal/store"
	"github.com/getsentry/sentry-mcp-gateway/internal/upstream"
	"github.com/getsentry/sentry-mcp-gateway/pkg/logging"
)

// ProjectLookupTimeout bounds the project-detail call; a timeout fails
// open on capability data only, never on authorization (spec.md §4.6).
const ProjectLookupTimeout = 5 * time.Second

// CacheTTL is the verified-constraints cache lifetime.
const CacheTTL = 900 * time.Second

// Result is what a successful Verify call produces.
type Result struct {
	RegionURL           string
	ProjectCapabilities *reqcontext.ProjectCapabilities
}

// VerificationError carries the exact status/message/eventId shape
// spec.md §4.6 requires callers to render back to the client.
type VerificationError struct {
	Status  int
	Message string
	EventID string
}

func (e *VerificationError) Error() string { return e.Message }

// Verifier verifies org/project path segments against the upstream.
type Verifier struct {
	Cache store.KV

	// HTTPClient overrides the http.Client used to build upstream.Client
	// instances. Nil means upstream.New's default transport/timeout;
	// tests supply one that trusts an httptest.NewTLSServer's cert.
	HTTPClient *http.Client
}

// New builds a Verifier. cache may be nil to disable capability caching.
func New(cache store.KV) *Verifier {
	return &Verifier{Cache: cache}
}

func (v *Verifier) upstreamClient(accessToken, host string) *upstream.Client {
	if v.HTTPClient == nil {
		return upstream.New(accessToken, host)
	}
	return upstream.NewWithClient(accessToken, host, v.HTTPClient)
}

type cachedConstraints struct {
	RegionURL           string                         `json:"regionUrl"`
	ProjectCapabilities *reqcontext.ProjectCapabilities `json:"projectCapabilities"`
}

// Verify implements the ConstraintVerifier contract.
func (v *Verifier) Verify(ctx context.Context, userID, org, project, accessToken, host string) (*Result, error) {
	if org == "" {
		return &Result{}, nil
	}
	if accessToken == "" {
		return nil, &VerificationError{Status: 401, Message: "Missing access token for constraint verification"}
	}

	cacheKey := fmt.Sprintf("caps:v1:%s:%s:%s:%s", userID, host, org, project)
	if project != "" && v.Cache != nil {
		if raw, ok := v.Cache.Get(ctx, cacheKey); ok {
			var cached cachedConstraints
			if json.Unmarshal(raw, &cached) == nil {
				return &Result{RegionURL: cached.RegionURL, ProjectCapabilities: cached.ProjectCapabilities}, nil
			}
		}
	}

	client := v.upstreamClient(accessToken, host)
	upstreamOrg, err := client.GetOrganization(ctx, org)
	if err != nil {
		return nil, orgLookupError(org, err)
	}

	result := &Result{RegionURL: upstreamOrg.Links.RegionURL}
	if project == "" {
		return result, nil
	}

	projectHost := host
	if result.RegionURL != "" {
		if h, herr := hostFromURL(result.RegionURL); herr == nil {
			projectHost = h
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, ProjectLookupTimeout)
	defer cancel()

	detail, err := v.upstreamClient(accessToken, projectHost).GetProject(lookupCtx, org, project)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logging.Warn("ConstraintVerifier", "project lookup for %s/%s timed out after %s, proceeding with no capability data", org, project, ProjectLookupTimeout)
		result.ProjectCapabilities = nil
	case err != nil:
		return nil, projectLookupError(org, project, err)
	default:
		result.ProjectCapabilities = &reqcontext.ProjectCapabilities{
			Profiles: detail.HasProfiles,
			Replays:  detail.HasReplays,
			Logs:     detail.HasLogs,
			Traces:   detail.FirstTransactionEvent,
		}
	}

	if v.Cache != nil {
		go v.writeCache(cacheKey, result)
	}

	return result, nil
}

// writeCache persists result asynchronously; a write failure is logged
// but never surfaced to the caller (spec.md §4.6: "never block the
// response on cache write failure").
func (v *Verifier) writeCache(key string, result *Result) {
	payload, err := json.Marshal(cachedConstraints{
		RegionURL:           result.RegionURL,
		ProjectCapabilities: result.ProjectCapabilities,
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.Cache.Set(ctx, key, payload, CacheTTL); err != nil {
		logging.Warn("ConstraintVerifier", "failed to cache constraints for %s: %v", key, err)
	}
}

func hostFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}
	return parsed.Host, nil
}

func orgLookupError(org string, err error) error {
	var apiErr *apierr.ApiError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 404 {
			return &VerificationError{Status: 404, Message: fmt.Sprintf("Organization '%s' not found", org)}
		}
		return &VerificationError{Status: apiErr.Status, Message: apiErr.Message}
	}
	return &VerificationError{Status: 502, Message: "Failed to verify organization", EventID: logEvent("ConstraintVerifier", err, "failed to verify organization %s", org)}
}

func projectLookupError(org, project string, err error) error {
	var apiErr *apierr.ApiError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 404 {
			return &VerificationError{Status: 404, Message: fmt.Sprintf("Project '%s' not found in organization '%s'", project, org)}
		}
		return &VerificationError{Status: apiErr.Status, Message: apiErr.Message}
	}
	return &VerificationError{Status: 502, Message: "Failed to verify project", EventID: logEvent("ConstraintVerifier", err, "failed to verify project %s/%s", org, project)}
}

// logEvent logs err and mints the event id referenced in a 502
// VerificationError, mirroring apierr.FormatForTool's correlation
// pattern for non-tool-facing error paths.
func logEvent(subsystem string, err error, format string, args ...interface{}) string {
	eventID := uuid.New().String()
	logging.Error(subsystem, err, format+" event_id=%s", append(args, eventID)...)
	return eventID
}
