package upstream

import (
	"context"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
)

// SearchErrors queries the errors dataset via the Discover builder.
func (c *Client) SearchErrors(ctx context.Context, orgSlug string, q DiscoverQuery) (*SearchResult, error) {
	path := "/organizations/" + orgSlug + "/events/?" + BuildDiscoverApiQuery(q)
	var result SearchResult
	if err := c.doJSON(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchSpans queries the spans dataset via the EAP builder.
func (c *Client) SearchSpans(ctx context.Context, orgSlug string, q EapQuery) (*SearchResult, error) {
	q.Dataset = DatasetSpans
	path := "/organizations/" + orgSlug + "/events/?" + BuildEapApiQuery(q)
	var result SearchResult
	if err := c.doJSON(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListLogs queries the logs (ourlogs) dataset via the EAP builder.
func (c *Client) ListLogs(ctx context.Context, orgSlug string, q EapQuery) (*SearchResult, error) {
	q.Dataset = DatasetLogs
	path := "/organizations/" + orgSlug + "/events/?" + BuildEapApiQuery(q)
	var result SearchResult
	if err := c.doJSON(ctx, "GET", path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSpans is an alias kept for tool-handler naming parity with the
// public operation list in SPEC_FULL.md; it delegates to SearchSpans.
func (c *Client) ListSpans(ctx context.Context, orgSlug string, q EapQuery) (*SearchResult, error) {
	return c.SearchSpans(ctx, orgSlug, q)
}

// SearchEvents routes to the Discover or EAP builder according to
// dataset, per spec.md §4.1.1's dataset routing rule.
func (c *Client) SearchEvents(ctx context.Context, orgSlug string, dataset Dataset, query string, fields []string, limit int, projectSlug, statsPeriod, sort string) (*SearchResult, error) {
	switch dataset {
	case DatasetErrors:
		return c.SearchErrors(ctx, orgSlug, DiscoverQuery{
			Query: query, Fields: fields, Limit: limit,
			ProjectSlug: projectSlug, StatsPeriod: statsPeriod, Sort: sort,
		})
	case DatasetSpans:
		return c.SearchSpans(ctx, orgSlug, EapQuery{
			Query: query, Fields: fields, Limit: limit,
			ProjectSlug: projectSlug, StatsPeriod: statsPeriod, Sort: sort,
		})
	case DatasetLogs:
		return c.ListLogs(ctx, orgSlug, EapQuery{
			Query: query, Fields: fields, Limit: limit,
			ProjectSlug: projectSlug, StatsPeriod: statsPeriod, Sort: sort,
		})
	default:
		return nil, apierr.NewUserInputError("unknown dataset %q: must be one of errors, spans, logs", dataset)
	}
}
