package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
)

func TestDoJSON_HTMLContentTypeProducesConfigurationError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<!doctype html><html><body>login</body></html>"))
	}))
	defer srv.Close()

	c := NewWithClient("token", hostOf(srv.URL), srv.Client())
	var out map[string]interface{}
	err := c.doJSON(context.Background(), "GET", "/whoami/", nil, &out)
	if err == nil {
		t.Fatal("expected error for HTML response")
	}
	var cfgErr *apierr.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}

func TestDoJSON_NonJSONNonHTMLContentType(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewWithClient("token", hostOf(srv.URL), srv.Client())
	err := c.doJSON(context.Background(), "GET", "/whoami/", nil, &struct{}{})
	if err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestDoJSON_4xxUsesDetailMessage(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":"you do not have access to the multi project stream feature"}`))
	}))
	defer srv.Close()

	c := NewWithClient("token", hostOf(srv.URL), srv.Client())
	err := c.doJSON(context.Background(), "GET", "/events/", nil, &struct{}{})
	var apiErr *apierr.ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ApiError, got %T: %v", err, err)
	}
	if apiErr.Status != 403 {
		t.Errorf("Status = %d, want 403", apiErr.Status)
	}
	want := "You do not have access to query across multiple projects. Please select a project for your query."
	if apiErr.Message != want {
		t.Errorf("Message = %q, want %q", apiErr.Message, want)
	}
}

func TestDoJSON_Success(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","name":"me","email":"me@example.com"}`))
	}))
	defer srv.Close()

	c := NewWithClient("tok", hostOf(srv.URL), srv.Client())
	user, err := c.GetAuthenticatedUser(context.Background())
	if err != nil {
		t.Fatalf("GetAuthenticatedUser: %v", err)
	}
	if user.Email != "me@example.com" {
		t.Errorf("Email = %q, want me@example.com", user.Email)
	}
}

func TestMapTransportError_UnreachableHost(t *testing.T) {
	c := New("tok", "127.0.0.1:1")
	_, err := c.GetAuthenticatedUser(context.Background())
	if err == nil {
		t.Fatal("expected error connecting to closed port")
	}
	var cfgErr *apierr.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}
