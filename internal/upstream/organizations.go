package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
)

// GetAuthenticatedUser resolves the identity behind c's access token.
func (c *Client) GetAuthenticatedUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, "GET", "/auth/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// isSaaSHost is a seam over IsSaaSHost so tests can drive the
// region-discovery path against an httptest server, which never presents
// a literal sentry.io hostname.
var isSaaSHost = IsSaaSHost

// is404 reports whether err is an ApiError with status 404.
func is404(err error) bool {
	var apiErr *apierr.ApiError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

// ListOrganizations fans out across every visible region concurrently and
// merges the results (spec.md §4.1.1). For any host that isn't the SaaS
// host, it calls /organizations/ directly once. For the SaaS host, it
// calls /users/me/regions/ first; a 404 there falls back to one direct
// /organizations/ call, matching §8 scenario 4.
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	if !isSaaSHost(c.Host) {
		return c.listOrganizationsOn(ctx, c.Host, "")
	}

	var body struct {
		Regions []Region `json:"regions"`
	}
	err := c.doJSON(ctx, "GET", "/users/me/regions/", nil, &body)
	if err != nil {
		if is404(err) {
			return c.listOrganizationsOn(ctx, c.Host, "")
		}
		return nil, err
	}
	if len(body.Regions) == 0 {
		return c.listOrganizationsOn(ctx, c.Host, "")
	}

	perRegion, err := regionFanOut(ctx, body.Regions, func(ctx context.Context, region Region) ([]Organization, error) {
		host, herr := hostFromRegionURL(region.URL)
		if herr != nil {
			return nil, herr
		}
		return c.listOrganizationsOn(ctx, host, region.Name)
	})
	if err != nil {
		return nil, err
	}

	var all []Organization
	for _, orgs := range perRegion {
		all = append(all, orgs...)
	}
	return all, nil
}

// listOrganizationsOn calls /organizations/ against host, tagging each
// result with regionName. A 404 response (no organizations endpoint on
// that region host) is treated as "no organizations there", not an error.
func (c *Client) listOrganizationsOn(ctx context.Context, host, regionName string) ([]Organization, error) {
	var orgs []Organization
	err := c.WithHost(host).doJSON(ctx, "GET", "/organizations/", nil, &orgs)
	if err != nil {
		if is404(err) {
			return nil, nil
		}
		return nil, err
	}
	for i := range orgs {
		orgs[i].Region = regionName
	}
	return orgs, nil
}

func hostFromRegionURL(regionURL string) (string, error) {
	parsed, err := url.Parse(regionURL)
	if err != nil || parsed.Host == "" {
		return "", apierr.NewConfigurationError(fmt.Sprintf("invalid region URL: %s", regionURL), err)
	}
	return parsed.Host, nil
}

// GetOrganization fetches a single organization by slug.
func (c *Client) GetOrganization(ctx context.Context, orgSlug string) (*Organization, error) {
	var org Organization
	if err := c.doJSON(ctx, "GET", "/organizations/"+orgSlug+"/", nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// ListOrganizationMembers lists an organization's members (SPEC_FULL.md
// addition backing the member-lookup tools).
func (c *Client) ListOrganizationMembers(ctx context.Context, orgSlug string) ([]Member, error) {
	var members []Member
	if err := c.doJSON(ctx, "GET", "/organizations/"+orgSlug+"/members/", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}
