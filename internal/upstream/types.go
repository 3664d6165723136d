package upstream

// Region describes one upstream data-residency region, returned by the
// SaaS host's region-discovery endpoint (spec.md §4.1.1).
type Region struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// User is the authenticated-user identity (spec.md's getAuthenticatedUser).
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Organization is a minimal projection of the upstream organization
// resource, enough for discovery, slug resolution and constraint
// verification.
type Organization struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Region string            `json:"-"` // populated by the client from region fan-out, not upstream JSON
	Links  OrganizationLinks `json:"links"`
}

// OrganizationLinks carries the region-specific API host an
// organization's detail lookup resolves to (spec.md §4.6: "the
// region-URL-specific host discovered from the org response").
type OrganizationLinks struct {
	RegionURL string `json:"regionUrl"`
}

// Member is an organization member (listOrganizationMembers).
type Member struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Team is an organization team.
type Team struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Project is an upstream project resource.
type Project struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
}

// ProjectDetail is the single-project lookup response, carrying the
// feature flags ConstraintVerifier derives ProjectCapabilities from
// (spec.md §4.6). Fields absent from the upstream response decode to
// their zero value, which is the spec's documented default.
type ProjectDetail struct {
	Project
	HasProfiles          bool `json:"hasProfiles"`
	HasReplays           bool `json:"hasReplays"`
	HasLogs              bool `json:"hasLogs"`
	FirstTransactionEvent bool `json:"firstTransactionEvent"`
}

// ClientKey is a project DSN-bearing client key (createClientKey,
// listClientKeys).
type ClientKey struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	DSN  struct {
		Public string `json:"public"`
		Secret string `json:"secret"`
	} `json:"dsn"`
}

// Release is a project release.
type Release struct {
	Version     string `json:"version"`
	DateCreated string `json:"dateCreated"`
	URL         string `json:"url"`
}

// Tag is a searchable event tag key.
type Tag struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Issue is a grouped error/problem resource.
type Issue struct {
	ID          string `json:"id"`
	ShortID     string `json:"shortId"`
	Title       string `json:"title"`
	Culprit     string `json:"culprit"`
	Permalink   string `json:"permalink"`
	Status      string `json:"status"`
	Count       string `json:"count"`
	UserCount   int    `json:"userCount"`
	FirstSeen   string `json:"firstSeen"`
	LastSeen    string `json:"lastSeen"`
	Level       string `json:"level"`
	Platform    string `json:"platform"`
	Project     Project `json:"project"`
}

// Event is a single captured error/span/log event belonging to an Issue.
type Event struct {
	ID        string                 `json:"id"`
	EventID   string                 `json:"eventID"`
	Message   string                 `json:"message"`
	DateCreated string               `json:"dateCreated"`
	Tags      []map[string]string    `json:"tags"`
	Entries   []map[string]interface{} `json:"entries"`
	Context   map[string]interface{} `json:"contexts"`
}

// Attachment is an event attachment's metadata.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Mimetype string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// SearchResult is the normalized shape returned from the Discover and EAP
// query builders, regardless of dataset (errors, spans, logs).
type SearchResult struct {
	Data []map[string]interface{} `json:"data"`
	Meta map[string]interface{}   `json:"meta"`
}

// AutofixState is the status of an in-flight or completed Seer autofix run.
type AutofixState struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
	Steps  []map[string]interface{} `json:"steps"`
}
