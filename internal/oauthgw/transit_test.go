package oauthgw

import "testing"

func TestSignAndVerifyTransitState_RoundTrip(t *testing.T) {
	secret := []byte("test-cookie-secret")
	state := TransitState{
		Request: AuthRequest{
			ClientID:    "c1",
			RedirectURI: "https://app/cb",
			State:       "client-state",
		},
		Permissions: []string{"issue_triage"},
	}

	signed, err := SignTransitState(secret, state)
	if err != nil {
		t.Fatalf("SignTransitState: %v", err)
	}

	got, err := VerifyTransitState(secret, signed)
	if err != nil {
		t.Fatalf("VerifyTransitState: %v", err)
	}
	if got.Request.ClientID != "c1" || got.Request.RedirectURI != "https://app/cb" {
		t.Errorf("unexpected round-tripped request: %+v", got.Request)
	}
	if len(got.Permissions) != 1 || got.Permissions[0] != "issue_triage" {
		t.Errorf("unexpected round-tripped permissions: %v", got.Permissions)
	}
}

func TestVerifyTransitState_WrongSecretFails(t *testing.T) {
	signed, err := SignTransitState([]byte("secret-a"), TransitState{Request: AuthRequest{ClientID: "c1"}})
	if err != nil {
		t.Fatalf("SignTransitState: %v", err)
	}

	if _, err := VerifyTransitState([]byte("secret-b"), signed); err == nil {
		t.Error("expected verification to fail with the wrong secret")
	}
}

func TestVerifyTransitState_TamperedRejected(t *testing.T) {
	signed, err := SignTransitState([]byte("secret"), TransitState{Request: AuthRequest{ClientID: "c1"}})
	if err != nil {
		t.Fatalf("SignTransitState: %v", err)
	}

	tampered := signed + "x"
	if _, err := VerifyTransitState([]byte("secret"), tampered); err == nil {
		t.Error("expected verification to fail for a tampered token")
	}
}

func TestEncodeDecodeAuthRequest_RoundTrip(t *testing.T) {
	req := AuthRequest{ClientID: "c1", RedirectURI: "https://app/cb", CodeChallenge: "abc", CodeChallengeMethod: "S256"}
	encoded, err := EncodeAuthRequest(req)
	if err != nil {
		t.Fatalf("EncodeAuthRequest: %v", err)
	}

	got, err := DecodeAuthRequest(encoded)
	if err != nil {
		t.Fatalf("DecodeAuthRequest: %v", err)
	}
	if got != req {
		t.Errorf("expected round-trip equality, got %+v want %+v", got, req)
	}
}
