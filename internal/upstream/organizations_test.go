package upstream

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
)

func withForcedSaaSHost(t *testing.T, host string) {
	t.Helper()
	prev := isSaaSHost
	isSaaSHost = func(h string) bool { return h == host }
	t.Cleanup(func() { isSaaSHost = prev })
}

// insecureTestClient trusts any server certificate, needed when a single
// test exercises multiple httptest.NewTLSServer instances (each minting
// its own self-signed cert, so no single srv.Client() trusts them all).
func insecureTestClient() *http.Client {
	return &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}}
}

// TestListOrganizations_RegionFanOut matches spec.md §8 scenario 4's sibling
// case: a regions response naming two regions, each answering /organizations/
// once, concatenated in region order.
func TestListOrganizations_RegionFanOut(t *testing.T) {
	var usHits, euHits int32

	us := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&usHits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1","slug":"org-us","name":"Org US"}]`))
	}))
	defer us.Close()

	eu := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&euHits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"2","slug":"org-eu","name":"Org EU"}]`))
	}))
	defer eu.Close()

	regions := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"regions":[{"name":"US","url":"` + us.URL + `"},{"name":"EU","url":"` + eu.URL + `"}]}`))
	}))
	defer regions.Close()

	host := hostOf(regions.URL)
	withForcedSaaSHost(t, host)

	c := NewWithClient("token", host, insecureTestClient())
	orgs, err := c.ListOrganizations(context.Background())
	if err != nil {
		t.Fatalf("ListOrganizations: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("len(orgs) = %d, want 2", len(orgs))
	}
	if orgs[0].Slug != "org-us" || orgs[1].Slug != "org-eu" {
		t.Errorf("orgs = %+v, want org-us then org-eu in region order", orgs)
	}
	if atomic.LoadInt32(&usHits) != 1 || atomic.LoadInt32(&euHits) != 1 {
		t.Errorf("expected exactly one call per region, got us=%d eu=%d", usHits, euHits)
	}
}

// TestListOrganizations_RegionsNotFoundFallsBack matches spec.md §8 scenario
// 4: a 404 on /users/me/regions/ falls back to exactly one /organizations/
// call.
func TestListOrganizations_RegionsNotFoundFallsBack(t *testing.T) {
	var regionsHits, orgsHits int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/0/users/me/regions/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&regionsHits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"not found"}`))
	})
	mux.HandleFunc("/api/0/organizations/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&orgsHits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"slug":"org-1"},{"slug":"org-2"}]`))
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	host := hostOf(srv.URL)
	withForcedSaaSHost(t, host)

	c := NewWithClient("token", host, srv.Client())
	orgs, err := c.ListOrganizations(context.Background())
	if err != nil {
		t.Fatalf("ListOrganizations: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("len(orgs) = %d, want 2", len(orgs))
	}
	if regionsHits != 1 || orgsHits != 1 {
		t.Errorf("expected exactly one regions call and one orgs call, got regions=%d orgs=%d", regionsHits, orgsHits)
	}
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	}
	return parsed.Host
}
