package upstream

import (
	"context"
	"encoding/json"
	"strings"
)

// ListTeams lists an organization's teams.
func (c *Client) ListTeams(ctx context.Context, orgSlug string) ([]Team, error) {
	var teams []Team
	if err := c.doJSON(ctx, "GET", "/organizations/"+orgSlug+"/teams/", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// CreateTeam creates a team in orgSlug with the given name.
func (c *Client) CreateTeam(ctx context.Context, orgSlug, name string) (*Team, error) {
	body, _ := json.Marshal(map[string]string{"name": name})
	var team Team
	if err := c.doJSON(ctx, "POST", "/organizations/"+orgSlug+"/teams/", strings.NewReader(string(body)), &team); err != nil {
		return nil, err
	}
	return &team, nil
}

// ListProjects lists an organization's projects.
func (c *Client) ListProjects(ctx context.Context, orgSlug string) ([]Project, error) {
	var projects []Project
	if err := c.doJSON(ctx, "GET", "/organizations/"+orgSlug+"/projects/", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project under teamSlug in orgSlug.
func (c *Client) CreateProject(ctx context.Context, orgSlug, teamSlug, name, platform string) (*Project, error) {
	payload := map[string]string{"name": name}
	if platform != "" {
		payload["platform"] = platform
	}
	body, _ := json.Marshal(payload)
	var project Project
	path := "/teams/" + orgSlug + "/" + teamSlug + "/projects/"
	if err := c.doJSON(ctx, "POST", path, strings.NewReader(string(body)), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProject fetches a single project's detail, including the
// feature flags ConstraintVerifier (spec.md §4.6) derives
// ProjectCapabilities from.
func (c *Client) GetProject(ctx context.Context, orgSlug, projectSlugOrID string) (*ProjectDetail, error) {
	var project ProjectDetail
	path := "/organizations/" + orgSlug + "/projects/" + projectSlugOrID + "/"
	if err := c.doJSON(ctx, "GET", path, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject patches mutable project fields.
func (c *Client) UpdateProject(ctx context.Context, orgSlug, projectSlugOrID string, fields map[string]interface{}) (*Project, error) {
	body, _ := json.Marshal(fields)
	var project Project
	path := "/organizations/" + orgSlug + "/projects/" + projectSlugOrID + "/"
	if err := c.doJSON(ctx, "PUT", path, strings.NewReader(string(body)), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// AddTeamToProject grants teamSlug access to a project.
func (c *Client) AddTeamToProject(ctx context.Context, orgSlug, projectSlugOrID, teamSlug string) error {
	path := "/organizations/" + orgSlug + "/projects/" + projectSlugOrID + "/teams/" + teamSlug + "/"
	return c.doJSON(ctx, "POST", path, nil, nil)
}

// CreateClientKey creates a new DSN-bearing client key for a project.
func (c *Client) CreateClientKey(ctx context.Context, orgSlug, projectSlugOrID, name string) (*ClientKey, error) {
	body, _ := json.Marshal(map[string]string{"name": name})
	var key ClientKey
	path := "/projects/" + orgSlug + "/" + projectSlugOrID + "/keys/"
	if err := c.doJSON(ctx, "POST", path, strings.NewReader(string(body)), &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// ListClientKeys lists a project's client keys.
func (c *Client) ListClientKeys(ctx context.Context, orgSlug, projectSlugOrID string) ([]ClientKey, error) {
	var keys []ClientKey
	path := "/projects/" + orgSlug + "/" + projectSlugOrID + "/keys/"
	if err := c.doJSON(ctx, "GET", path, nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// ListReleases lists an organization's releases, optionally scoped to a
// single project via the project query parameter.
func (c *Client) ListReleases(ctx context.Context, orgSlug, projectSlugOrID string) ([]Release, error) {
	path := "/organizations/" + orgSlug + "/releases/"
	if projectSlugOrID != "" {
		path += "?project=" + projectSlugOrID
	}
	var releases []Release
	if err := c.doJSON(ctx, "GET", path, nil, &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

// ListTags lists searchable event tag keys for a project.
func (c *Client) ListTags(ctx context.Context, orgSlug, projectSlugOrID string) ([]Tag, error) {
	var tags []Tag
	path := "/projects/" + orgSlug + "/" + projectSlugOrID + "/tags/"
	if err := c.doJSON(ctx, "GET", path, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
