package oauthgw

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-mcp-gateway/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// approvedClientsTTL matches the lifetime of a user's "remember this
// client" decision before they're asked to re-approve.
const approvedClientsTTL = 90 * 24 * time.Hour

// approvedClientsClaims is the signed payload of the approved-clients
// cookie: the set of client_ids this browser has already approved, bound
// to the user who approved them so cookie theft alone can't extend trust
// to a different account.
type approvedClientsClaims struct {
	jwt.RegisteredClaims
	UserID    string   `json:"user_id"`
	ClientIDs []string `json:"client_ids"`
}

// setApprovedClientsCookie adds clientID to the signed set of clients
// userID has approved, preserving whatever was already present in the
// request's cookie (if any and if it verifies for the same user).
func setApprovedClientsCookie(w http.ResponseWriter, r *http.Request, cfg *config.Config, userID, clientID string) error {
	ids := readApprovedClients(r, cfg, userID)
	if !containsString(ids, clientID) {
		ids = append(ids, clientID)
	}
	now := time.Now()
	claims := approvedClientsClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(approvedClientsTTL)),
		},
		UserID:    userID,
		ClientIDs: ids,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.CookieSecret))
	if err != nil {
		return fmt.Errorf("oauthgw: sign approved-clients cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     config.DefaultApprovedClientsCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(approvedClientsTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// isClientApproved reports whether userID has already approved clientID,
// per the signed cookie on r. Any verification failure (missing cookie,
// bad signature, expiry, user mismatch) is treated as "not approved".
// The gateway uses it both to skip the consent screen and to refuse a
// callback for a client the browser never approved.
func isClientApproved(r *http.Request, cfg *config.Config, userID, clientID string) bool {
	return containsString(readApprovedClients(r, cfg, userID), clientID)
}

func readApprovedClients(r *http.Request, cfg *config.Config, userID string) []string {
	cookie, err := r.Cookie(config.DefaultApprovedClientsCookieName)
	if err != nil {
		return nil
	}
	var claims approvedClientsClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("oauthgw: unexpected approved-clients signing method %v", t.Header["alg"])
		}
		return []byte(cfg.CookieSecret), nil
	})
	if err != nil || claims.UserID != userID {
		return nil
	}
	return claims.ClientIDs
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
