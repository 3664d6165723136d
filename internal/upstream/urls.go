package upstream

import (
	"net/url"
	"strings"
)

// webHost returns the host used for web-UI links: the SaaS host always
// resolves back to the root sentry.io domain regardless of which
// regional API host served the request (spec.md §4.1.2).
func webHost(apiHost string) string {
	if IsSaaSHost(apiHost) {
		return "sentry.io"
	}
	return apiHost
}

// GetIssueUrl builds the web-UI link for an issue.
func GetIssueUrl(apiHost, orgSlug, shortID string) string {
	if IsSaaSHost(apiHost) {
		return "https://" + orgSlug + ".sentry.io/issues/" + shortID
	}
	return "https://" + webHost(apiHost) + "/organizations/" + orgSlug + "/issues/" + shortID
}

// GetTraceUrl builds the web-UI link for a trace.
func GetTraceUrl(apiHost, orgSlug, traceID string) string {
	if IsSaaSHost(apiHost) {
		return "https://" + orgSlug + ".sentry.io/explore/traces/trace/" + traceID
	}
	return "https://" + webHost(apiHost) + "/organizations/" + orgSlug + "/explore/traces/trace/" + traceID
}

// GetIssuesSearchUrl builds the web-UI link for an issues list search.
func GetIssuesSearchUrl(apiHost, orgSlug, query, projectSlugOrID string) string {
	values := url.Values{}
	if query != "" {
		values.Set("query", query)
	}
	if projectSlugOrID != "" {
		values.Set("project", projectSlugOrID)
	}
	base := organizationWebBase(apiHost, orgSlug) + "/issues/"
	return appendQuery(base, values)
}

// GetEventsExplorerUrl builds the web-UI link for the Explore/events
// explorer for a given dataset, query and field selection.
func GetEventsExplorerUrl(apiHost, orgSlug, query string, dataset Dataset, projectSlugOrID string, fields []string) string {
	values := url.Values{}
	values.Set("query", query)

	wireDataset := string(dataset)
	if dataset == DatasetLogs {
		wireDataset = "ourlogs"
	}
	values.Set("dataset", wireDataset)
	values.Set("layout", "table")
	if projectSlugOrID != "" {
		values.Set("project", projectSlugOrID)
	}
	base := organizationWebBase(apiHost, orgSlug) + "/explore/"
	encoded := values.Encode()
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("?")
	b.WriteString(encoded)
	for _, f := range fields {
		b.WriteString("&field=")
		b.WriteString(url.QueryEscape(f))
	}
	return b.String()
}

// BuildDiscoverUrl builds the non-aggregate Discover web-UI layout link.
func BuildDiscoverUrl(apiHost, orgSlug string, q DiscoverQuery) string {
	values := url.Values{}
	values.Set("query", q.Query)
	values.Set("statsPeriod", nonEmpty(q.StatsPeriod, "14d"))
	if q.ProjectSlug != "" {
		values.Set("project", q.ProjectSlug)
	}
	if q.Sort != "" {
		values.Set("sort", transformSort(q.Sort))
	}
	base := organizationWebBase(apiHost, orgSlug) + "/discover/results/"
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("?")
	b.WriteString(values.Encode())
	for _, f := range q.Fields {
		b.WriteString("&field=")
		b.WriteString(url.QueryEscape(f))
	}
	return b.String()
}

// BuildEapUrl builds the aggregate EAP (spans/logs) web-UI layout link.
func BuildEapUrl(apiHost, orgSlug string, q EapQuery) string {
	values := url.Values{}
	values.Set("query", q.Query)
	wireDataset := string(q.Dataset)
	if q.Dataset == DatasetLogs {
		wireDataset = "ourlogs"
	}
	values.Set("dataset", wireDataset)
	values.Set("statsPeriod", nonEmpty(q.StatsPeriod, "14d"))
	if q.ProjectSlug != "" {
		values.Set("project", q.ProjectSlug)
	}
	if q.Sort != "" {
		values.Set("sort", transformSort(q.Sort))
	}
	base := organizationWebBase(apiHost, orgSlug) + "/explore/"
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("?")
	b.WriteString(values.Encode())
	for _, f := range q.Fields {
		b.WriteString("&field=")
		b.WriteString(url.QueryEscape(f))
	}
	return b.String()
}

func organizationWebBase(apiHost, orgSlug string) string {
	if IsSaaSHost(apiHost) {
		return "https://" + orgSlug + ".sentry.io"
	}
	return "https://" + webHost(apiHost) + "/organizations/" + orgSlug
}

func appendQuery(base string, values url.Values) string {
	if len(values) == 0 {
		return base
	}
	return base + "?" + values.Encode()
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
