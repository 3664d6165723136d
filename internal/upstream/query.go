package upstream

import (
	"net/url"
	"strconv"
	"strings"
)

// Dataset names the upstream event storage partition a query targets
// (spec.md glossary).
type Dataset string

const (
	DatasetErrors Dataset = "errors"
	DatasetSpans  Dataset = "spans"
	DatasetLogs   Dataset = "logs" // mapped to "ourlogs" on the wire
)

// DiscoverQuery parameterizes the Discover (errors) query builder.
type DiscoverQuery struct {
	Query       string
	Fields      []string
	Limit       int
	ProjectSlug string
	StatsPeriod string
	Sort        string
}

// BuildDiscoverApiQuery builds the query string for the errors dataset
// search endpoint (spec.md §4.1.1).
func BuildDiscoverApiQuery(q DiscoverQuery) string {
	values := url.Values{}
	values.Set("per_page", strconv.Itoa(q.Limit))
	values.Set("query", q.Query)
	values.Set("dataset", string(DatasetErrors))
	statsPeriod := q.StatsPeriod
	if statsPeriod == "" {
		statsPeriod = "14d"
	}
	values.Set("statsPeriod", statsPeriod)
	if q.ProjectSlug != "" {
		values.Set("project", q.ProjectSlug)
	}
	if q.Sort != "" {
		values.Set("sort", transformSort(q.Sort))
	}
	return encodeWithFields(values, q.Fields)
}

// EapQuery parameterizes the EAP (spans/ourlogs) query builder.
type EapQuery struct {
	Query       string
	Fields      []string
	Limit       int
	ProjectSlug string
	StatsPeriod string
	Sort        string
	Dataset     Dataset // DatasetSpans or DatasetLogs
}

// BuildEapApiQuery builds the query string for the spans/ourlogs dataset
// search endpoint (spec.md §4.1.1). Adds sampling=NORMAL only for spans.
func BuildEapApiQuery(q EapQuery) string {
	values := url.Values{}
	values.Set("per_page", strconv.Itoa(q.Limit))
	values.Set("query", q.Query)

	wireDataset := string(q.Dataset)
	if q.Dataset == DatasetLogs {
		wireDataset = "ourlogs"
	}
	values.Set("dataset", wireDataset)

	statsPeriod := q.StatsPeriod
	if statsPeriod == "" {
		statsPeriod = "14d"
	}
	values.Set("statsPeriod", statsPeriod)
	if q.ProjectSlug != "" {
		values.Set("project", q.ProjectSlug)
	}
	if q.Sort != "" {
		values.Set("sort", transformSort(q.Sort))
	}
	if q.Dataset == DatasetSpans {
		values.Set("sampling", "NORMAL")
	}
	return encodeWithFields(values, q.Fields)
}

// encodeWithFields renders values plus one field=<name> pair per field, in
// the caller-supplied order, since url.Values.Encode() alone would
// alphabetize and collapse repeated keys unpredictably for this purpose.
func encodeWithFields(values url.Values, fields []string) string {
	var b strings.Builder
	b.WriteString(values.Encode())
	for _, f := range fields {
		b.WriteString("&field=")
		b.WriteString(url.QueryEscape(f))
	}
	return b.String()
}

// transformSort implements spec.md §4.1.1's sort transformation rule:
// preserve a leading '-', replace '(' and '.' with '_', drop ')' within
// the aggregate expression, and trim one trailing '_' (so "-count()"
// becomes "-count"). Malformed input (unbalanced parentheses) is
// returned unchanged, and the transform is idempotent on any input
// containing no parentheses.
func transformSort(sort string) string {
	if !strings.ContainsAny(sort, "()") {
		return sort
	}

	prefix := ""
	rest := sort
	if strings.HasPrefix(rest, "-") {
		prefix = "-"
		rest = rest[1:]
	}

	if !isBalanced(rest) {
		return sort
	}

	rest = strings.ReplaceAll(rest, "(", "_")
	rest = strings.ReplaceAll(rest, ".", "_")
	rest = strings.ReplaceAll(rest, ")", "")
	rest = strings.TrimSuffix(rest, "_")
	return prefix + rest
}

// isBalanced reports whether every '(' has a matching ')' with correct
// nesting, so malformed expressions like "count(((" are left untouched
// rather than mangled.
func isBalanced(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
