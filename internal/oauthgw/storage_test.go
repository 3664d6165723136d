package oauthgw

import (
	"context"
	"testing"

	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
	"github.com/getsentry/sentry-mcp-gateway/internal/store"
)

func TestClientStore_PutGet(t *testing.T) {
	kv := store.NewMemoryKV(0)
	defer kv.Close()
	cs := NewClientStore(kv)

	client := &Client{ClientID: "c1", ClientName: "Test Client", RedirectURIs: []string{"https://app/cb"}}
	if err := cs.Put(context.Background(), client); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := cs.Get(context.Background(), "c1")
	if !ok {
		t.Fatal("expected client to be found")
	}
	if got.ClientName != "Test Client" || !got.HasRedirectURI("https://app/cb") {
		t.Errorf("unexpected client round-trip: %+v", got)
	}
}

func TestClientStore_GetMissing(t *testing.T) {
	kv := store.NewMemoryKV(0)
	defer kv.Close()
	cs := NewClientStore(kv)

	_, ok := cs.Get(context.Background(), "nope")
	if ok {
		t.Error("expected miss for unregistered client")
	}
}

func TestGrantStore_CodeIsSingleUse(t *testing.T) {
	kv := store.NewMemoryKV(0)
	defer kv.Close()
	gs := NewGrantStore(kv)

	grant := &Grant{UserID: "u1", ClientID: "c1", GrantedScopes: scopes.NewSet(scopes.ScopeOrgRead)}
	if err := gs.PutCode(context.Background(), "code1", grant); err != nil {
		t.Fatalf("PutCode: %v", err)
	}

	got, ok := gs.TakeCode(context.Background(), "code1")
	if !ok || got.UserID != "u1" {
		t.Fatalf("expected first TakeCode to succeed, got %+v ok=%v", got, ok)
	}

	_, ok = gs.TakeCode(context.Background(), "code1")
	if ok {
		t.Error("expected code to be consumed after first use")
	}
}

func TestGrantStore_TokenRoundTrip(t *testing.T) {
	kv := store.NewMemoryKV(0)
	defer kv.Close()
	gs := NewGrantStore(kv)

	grant := &Grant{UserID: "u2", ClientID: "c2"}
	if err := gs.PutToken(context.Background(), "tok1", grant); err != nil {
		t.Fatalf("PutToken: %v", err)
	}

	got, ok := gs.GetToken(context.Background(), "tok1")
	if !ok || got.UserID != "u2" {
		t.Fatalf("expected token round-trip, got %+v ok=%v", got, ok)
	}

	_, ok = gs.GetToken(context.Background(), "nope")
	if ok {
		t.Error("expected miss for unknown token")
	}
}
