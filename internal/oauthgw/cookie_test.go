package oauthgw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-mcp-gateway/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{CookieSecret: "test-cookie-secret"}
}

func TestApprovedClientsCookie_RoundTrip(t *testing.T) {
	cfg := testConfig()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	if err := setApprovedClientsCookie(rec, req, cfg, "user1", "client-a"); err != nil {
		t.Fatalf("setApprovedClientsCookie: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected exactly one cookie, got %d", len(cookies))
	}

	next := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	next.AddCookie(cookies[0])

	if !isClientApproved(next, cfg, "user1", "client-a") {
		t.Error("expected client-a to be approved for user1")
	}
}

func TestApprovedClientsCookie_DoesNotCrossApproveOtherClient(t *testing.T) {
	cfg := testConfig()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	_ = setApprovedClientsCookie(rec, req, cfg, "user1", "client-a")
	cookies := rec.Result().Cookies()

	next := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	next.AddCookie(cookies[0])

	if isClientApproved(next, cfg, "user1", "client-b") {
		t.Error("a cookie approving client-a must not approve client-b")
	}
}

func TestApprovedClientsCookie_DoesNotCrossApproveOtherUser(t *testing.T) {
	cfg := testConfig()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	_ = setApprovedClientsCookie(rec, req, cfg, "user1", "client-a")
	cookies := rec.Result().Cookies()

	next := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	next.AddCookie(cookies[0])

	if isClientApproved(next, cfg, "user2", "client-a") {
		t.Error("a cookie signed for user1 must not approve client-a for user2")
	}
}

func TestIsClientApproved_NoCookieIsFalse(t *testing.T) {
	cfg := testConfig()
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	if isClientApproved(req, cfg, "user1", "client-a") {
		t.Error("expected no approval without a cookie")
	}
}

func TestIsClientApproved_TamperedCookieIsFalse(t *testing.T) {
	cfg := testConfig()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	_ = setApprovedClientsCookie(rec, req, cfg, "user1", "client-a")
	cookies := rec.Result().Cookies()
	cookies[0].Value += "tampered"

	next := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	next.AddCookie(cookies[0])

	if isClientApproved(next, cfg, "user1", "client-a") {
		t.Error("expected a tampered cookie to be rejected")
	}
}

func TestSetApprovedClientsCookie_AccumulatesAcrossCalls(t *testing.T) {
	cfg := testConfig()

	rec1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	_ = setApprovedClientsCookie(rec1, req1, cfg, "user1", "client-a")

	req2 := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	req2.AddCookie(rec1.Result().Cookies()[0])
	rec2 := httptest.NewRecorder()
	_ = setApprovedClientsCookie(rec2, req2, cfg, "user1", "client-b")

	final := httptest.NewRequest(http.MethodGet, "/oauth/authorize", nil)
	final.AddCookie(rec2.Result().Cookies()[0])

	if !isClientApproved(final, cfg, "user1", "client-a") {
		t.Error("expected client-a to remain approved after approving client-b")
	}
	if !isClientApproved(final, cfg, "user1", "client-b") {
		t.Error("expected client-b to be approved")
	}
}
