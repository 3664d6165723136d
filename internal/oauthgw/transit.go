package oauthgw

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// transitTTL bounds how long a signed transit state remains acceptable on
// the /oauth/callback leg. The upstream login page itself may take a
// while, but not this long.
const transitTTL = 15 * time.Minute

// transitClaims wraps TransitState in a signed JWT (RegisteredClaims for
// exp/iat) so the value surviving the round trip through the upstream's
// own OAuth server cannot be forged or replayed past its expiry — the
// same HMAC-signing idea spec.md applies to the approved-clients cookie,
// extended to the one other value that crosses an untrusted redirect.
type transitClaims struct {
	jwt.RegisteredClaims
	State TransitState `json:"state"`
}

// SignTransitState encodes state as a compact, HMAC-signed JWT suitable
// for use as the upstream authorize URL's `state` query parameter.
func SignTransitState(secret []byte, state TransitState) (string, error) {
	now := time.Now()
	claims := transitClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(transitTTL)),
		},
		State: state,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyTransitState checks the signature and expiry of a transit state
// token minted by SignTransitState and returns the embedded TransitState.
func VerifyTransitState(secret []byte, signed string) (*TransitState, error) {
	var claims transitClaims
	_, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("oauthgw: unexpected transit state signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("oauthgw: invalid transit state: %w", err)
	}
	return &claims.State, nil
}

// EncodeAuthRequest is used where the approval form round-trips the
// original request as hidden fields rather than as a signed token (the
// gateway's own /oauth/authorize POST, not the upstream redirect).
func EncodeAuthRequest(req AuthRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeAuthRequest reverses EncodeAuthRequest.
func DecodeAuthRequest(raw string) (AuthRequest, error) {
	var req AuthRequest
	err := json.Unmarshal([]byte(raw), &req)
	return req, err
}
