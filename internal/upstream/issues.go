package upstream

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// ListIssues lists issues in a project matching an optional search query.
func (c *Client) ListIssues(ctx context.Context, orgSlug, projectSlugOrID, query, sort string) ([]Issue, error) {
	values := url.Values{}
	if query != "" {
		values.Set("query", query)
	}
	if sort != "" {
		values.Set("sort", sort)
	}
	path := "/projects/" + orgSlug + "/" + projectSlugOrID + "/issues/"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var issues []Issue
	if err := c.doJSON(ctx, "GET", path, nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// GetIssue resolves a single issue by its numeric ID or short ID
// (e.g. "PROJECT-123").
func (c *Client) GetIssue(ctx context.Context, issueIDOrShortID string) (*Issue, error) {
	var issue Issue
	path := "/issues/" + issueIDOrShortID + "/"
	if err := c.doJSON(ctx, "GET", path, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// ResolveShortID resolves an issue short ID (e.g. "PROJECT-123") within
// orgSlug to the issue it names, including its numeric ID (SPEC_FULL.md
// addition). The organization in the upstream response is not returned.
func (c *Client) ResolveShortID(ctx context.Context, orgSlug, shortID string) (*Issue, error) {
	var result struct {
		Organization Organization `json:"organization"`
		GroupID      string       `json:"groupId"`
		Group        Issue        `json:"group"`
	}
	path := "/organizations/" + orgSlug + "/shortids/" + shortID + "/"
	if err := c.doJSON(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return &result.Group, nil
}

// UpdateIssue patches mutable issue fields (e.g. status, assignedTo).
func (c *Client) UpdateIssue(ctx context.Context, issueID string, fields map[string]interface{}) (*Issue, error) {
	body, _ := json.Marshal(fields)
	var issue Issue
	path := "/issues/" + issueID + "/"
	if err := c.doJSON(ctx, "PUT", path, strings.NewReader(string(body)), &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetEventForIssue fetches a specific event belonging to issueID.
func (c *Client) GetEventForIssue(ctx context.Context, issueID, eventID string) (*Event, error) {
	var event Event
	path := "/issues/" + issueID + "/events/" + eventID + "/"
	if err := c.doJSON(ctx, "GET", path, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// GetLatestEventForIssue fetches the most recent event belonging to issueID.
func (c *Client) GetLatestEventForIssue(ctx context.Context, issueID string) (*Event, error) {
	return c.GetEventForIssue(ctx, issueID, "latest")
}

// ListEventAttachments lists attachment metadata for an event.
func (c *Client) ListEventAttachments(ctx context.Context, orgSlug, projectSlugOrID, eventID string) ([]Attachment, error) {
	var attachments []Attachment
	path := "/projects/" + orgSlug + "/" + projectSlugOrID + "/events/" + eventID + "/attachments/"
	if err := c.doJSON(ctx, "GET", path, nil, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// GetEventAttachment fetches a single attachment's bytes, along with
// the filename and content type the upstream advertised for it.
func (c *Client) GetEventAttachment(ctx context.Context, orgSlug, projectSlugOrID, eventID, attachmentID string) (*BinaryContent, error) {
	path := "/projects/" + orgSlug + "/" + projectSlugOrID + "/events/" + eventID + "/attachments/" + attachmentID + "/"
	return c.doBinary(ctx, "GET", path)
}
