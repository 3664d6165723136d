package oauthgw

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/getsentry/sentry-mcp-gateway/internal/config"
	"github.com/getsentry/sentry-mcp-gateway/internal/scopes"
	"github.com/getsentry/sentry-mcp-gateway/internal/upstream"
	"github.com/getsentry/sentry-mcp-gateway/pkg/logging"
	"github.com/getsentry/sentry-mcp-gateway/pkg/oauth"
	"github.com/google/uuid"
)

const subsystem = "OAuthGateway"

// Gateway federates the authorization code flow to the upstream's own
// OAuth server (spec.md §4.5): it owns the approval dialog, the
// approved-clients cookie, the signed transit state, the upstream token
// exchange, and the gateway's own code/token issuance for MCP clients.
type Gateway struct {
	cfg *config.Config

	clients ClientStore
	grants  GrantStore

	// upstreamOAuth describes the upstream's own authorization server,
	// used only for the code exchange leg (golang.org/x/oauth2's own
	// discovery/metadata handling is not used — the authorization and
	// token endpoints are supplied directly, per spec.md §6's external
	// interface list).
	upstreamOAuth oauth2.Config

	httpClient *http.Client
}

// New builds a Gateway. authEndpoint/tokenEndpoint are the upstream
// OAuth server's endpoints (spec.md §6), discovered once at startup via
// RFC 8414 metadata and passed in by the caller.
func New(cfg *config.Config, clients ClientStore, grants GrantStore, authEndpoint, tokenEndpoint string) *Gateway {
	return &Gateway{
		cfg:     cfg,
		clients: clients,
		grants:  grants,
		upstreamOAuth: oauth2.Config{
			ClientID:     cfg.UpstreamClientID,
			ClientSecret: cfg.UpstreamClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authEndpoint,
				TokenURL: tokenEndpoint,
			},
			RedirectURL: strings.TrimRight(cfg.PublicURL, "/") + "/oauth/callback",
		},
		httpClient: &http.Client{Timeout: upstream.DefaultTimeout},
	}
}

// Metadata builds the gateway's own RFC 8414 Authorization Server
// Metadata document, served by the RequestPipeline at
// /.well-known/oauth-authorization-server.
func (g *Gateway) Metadata() oauth.Metadata {
	base := strings.TrimRight(g.cfg.PublicURL, "/")
	scope := make([]string, len(scopes.AllScopes))
	for i, s := range scopes.AllScopes {
		scope[i] = string(s)
	}
	return oauth.Metadata{
		Issuer:                            base,
		AuthorizationEndpoint:             base + "/oauth/authorize",
		TokenEndpoint:                     base + "/oauth/token",
		RegistrationEndpoint:              base + "/oauth/register",
		ScopesSupported:                   scope,
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code"},
		TokenEndpointAuthMethodsSupported: []string{"none"},
		CodeChallengeMethodsSupported:     []string{"S256"},
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// HandleAuthorize implements the GET/POST /oauth/authorize leg of §4.5's
// state machine: GET renders the approval page (or skips straight to the
// upstream redirect if this browser already approved the client); POST
// records the approval decision and performs the upstream redirect.
func (g *Gateway) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		g.handleAuthorizeGet(w, r)
	case http.MethodPost:
		g.handleAuthorizePost(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func parseAuthRequest(q url.Values) (AuthRequest, error) {
	req := AuthRequest{
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		ResponseType:        q.Get("response_type"),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		Resource:            q.Get("resource"),
	}
	if req.ClientID == "" || req.RedirectURI == "" {
		return req, fmt.Errorf("missing client_id or redirect_uri")
	}
	return req, nil
}

func (g *Gateway) handleAuthorizeGet(w http.ResponseWriter, r *http.Request) {
	req, err := parseAuthRequest(r.URL.Query())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid redirect URI")
		return
	}
	client, ok := g.clients.Get(r.Context(), req.ClientID)
	if !ok || !client.HasRedirectURI(req.RedirectURI) {
		writeJSONError(w, http.StatusBadRequest, "Invalid redirect URI")
		return
	}

	// The approval cookie has no user identity yet at this point in the
	// flow (the user hasn't authenticated with the upstream), so approval
	// is tracked per-browser rather than per-user: the anonymous "browser"
	// subject is used here and for the recheck in HandleCallback.
	if isClientApproved(r, g.cfg, anonymousApprover, req.ClientID) {
		g.redirectUpstream(w, r, req, nil)
		return
	}

	renderApprovalPage(w, client, req)
}

// anonymousApprover is the approved-clients cookie subject used before
// the upstream identifies the user (spec.md's approval cookie is
// per-browser, not per-account).
const anonymousApprover = "_browser"

func (g *Gateway) handleAuthorizePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	raw := r.PostForm.Get("request")
	if raw == "" {
		writeJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	req, err := DecodeAuthRequest(raw)
	if err != nil || req.ClientID == "" || req.RedirectURI == "" {
		writeJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	client, ok := g.clients.Get(r.Context(), req.ClientID)
	if !ok || !client.HasRedirectURI(req.RedirectURI) {
		writeJSONError(w, http.StatusBadRequest, "Invalid redirect URI")
		return
	}

	permissions := r.PostForm["permission"]

	if err := setApprovedClientsCookie(w, r, g.cfg, anonymousApprover, req.ClientID); err != nil {
		logging.Warn(subsystem, "failed to set approved-clients cookie: %v", err)
	}

	g.redirectUpstream(w, r, req, permissions)
}

func (g *Gateway) redirectUpstream(w http.ResponseWriter, r *http.Request, req AuthRequest, permissions []string) {
	transit := TransitState{Request: req, Permissions: permissions}
	signed, err := SignTransitState([]byte(g.cfg.CookieSecret), transit)
	if err != nil {
		logging.Error(subsystem, err, "failed to sign transit state")
		writeJSONError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	scope := make([]string, len(scopes.AllScopes))
	for i, s := range scopes.AllScopes {
		scope[i] = string(s)
	}

	authURL := g.upstreamOAuth.AuthCodeURL(signed,
		oauth2.SetAuthURLParam("scope", strings.Join(scope, " ")),
	)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback implements the /oauth/callback leg: verify the transit
// state, exchange the code for an upstream access token, look up the
// authenticated user, mint a grant plus a single-use authorization code,
// and redirect back to the MCP client's own redirect_uri.
func (g *Gateway) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		logging.Warn(subsystem, "upstream returned error=%s description=%s", errParam, q.Get("error_description"))
		renderErrorPage(w, "Authentication was denied or failed. Please try again.")
		return
	}

	code := q.Get("code")
	stateParam := q.Get("state")
	if code == "" || stateParam == "" {
		renderErrorPage(w, "Invalid state")
		return
	}

	transit, err := VerifyTransitState([]byte(g.cfg.CookieSecret), stateParam)
	if err != nil {
		logging.Warn(subsystem, "invalid transit state: %v", err)
		renderErrorPage(w, "Authentication session expired. Please try again.")
		return
	}
	req := transit.Request
	if req.RedirectURI == "" {
		renderErrorPage(w, "Invalid redirect URL")
		return
	}

	// The transit state is HMAC-signed and names the client that was
	// redirected upstream, but the approved-clients cookie is the actual
	// record of user consent (spec.md §4.5). Recheck it here rather than
	// trusting the transit state alone, so a callback can never complete
	// authorization for a client the browser never approved.
	if !isClientApproved(r, g.cfg, anonymousApprover, req.ClientID) {
		logging.Warn(subsystem, "callback for unapproved client_id=%s", req.ClientID)
		http.Error(w, "Authorization failed: Client not approved", http.StatusForbidden)
		return
	}

	exchangeCtx := context.WithValue(r.Context(), oauth2.HTTPClient, g.httpClient)
	upstreamToken, err := g.upstreamOAuth.Exchange(exchangeCtx, code)
	if err != nil {
		logging.Error(subsystem, err, "upstream code exchange failed")
		renderErrorPage(w, "Failed to complete authentication. Please try again.")
		return
	}
	token := oauth.FromOAuth2Token(upstreamToken, req.Scope, g.cfg.UpstreamHost)

	user, err := g.getAuthenticatedUser(r.Context(), token.AccessToken)
	if err != nil {
		logging.Error(subsystem, err, "failed to fetch authenticated user after exchange")
		renderErrorPage(w, "Failed to complete authentication. Please try again.")
		return
	}

	grantedScopes := scopes.GetScopesFromPermissions(transit.Permissions)
	grantedSkills := scopes.GetSkillsFromPermissions(transit.Permissions)

	redirectTo, err := g.completeAuthorization(r.Context(), req, user, token, grantedScopes, grantedSkills)
	if err != nil {
		logging.Error(subsystem, err, "completeAuthorization failed")
		renderErrorPage(w, "Internal error. Please try again.")
		return
	}

	logging.Audit(logging.AuditEvent{
		Action:  "authorize",
		Outcome: "success",
		UserID:  logging.TruncateSessionID(user.ID),
		Target:  req.ClientID,
		Details: "upstream authentication completed",
	})

	http.Redirect(w, r, redirectTo, http.StatusFound)
}

func (g *Gateway) getAuthenticatedUser(ctx context.Context, accessToken string) (*upstream.User, error) {
	client := upstream.NewWithClient(accessToken, g.cfg.UpstreamHost, g.httpClient)
	return client.GetAuthenticatedUser(ctx)
}

// completeAuthorization binds the upstream identity and token to a Grant
// and mints the single-use authorization code the gateway's own /oauth/token
// endpoint will later exchange (spec.md §4.5's completeAuthorization
// contract, reworked around our own code+token issuance rather than an
// opaque external callout).
func (g *Gateway) completeAuthorization(ctx context.Context, req AuthRequest, user *upstream.User, token *oauth.Token, grantedScopes scopes.Set[scopes.Scope], grantedSkills scopes.Set[scopes.Skill]) (string, error) {
	grant := &Grant{
		UserID:              user.ID,
		UserLabel:           user.Name,
		UpstreamToken:       token.AccessToken,
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		GrantedScopes:       grantedScopes,
		GrantedSkills:       grantedSkills,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
	}

	code := uuid.New().String()
	if err := g.grants.PutCode(ctx, code, grant); err != nil {
		return "", fmt.Errorf("oauthgw: store authorization code: %w", err)
	}

	redirectURL, err := url.Parse(req.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("oauthgw: invalid redirect_uri: %w", err)
	}
	values := redirectURL.Query()
	values.Set("code", code)
	if req.State != "" {
		values.Set("state", req.State)
	}
	redirectURL.RawQuery = values.Encode()
	return redirectURL.String(), nil
}

// HandleToken implements POST /oauth/token: the authorization_code grant
// for the gateway's own AS surface (spec.md §6). Verifies PKCE against
// the code_challenge captured at /oauth/authorize, consumes the code
// exactly once, and issues an opaque bearer access token.
func (g *Gateway) HandleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		g.handleAuthorizationCodeGrant(w, r)
	default:
		writeJSONError(w, http.StatusBadRequest, "unsupported_grant_type")
	}
}

func (g *Gateway) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request) {
	code := r.PostForm.Get("code")
	verifier := r.PostForm.Get("code_verifier")
	clientID := r.PostForm.Get("client_id")
	redirectURI := r.PostForm.Get("redirect_uri")

	if code == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	grant, ok := g.grants.TakeCode(r.Context(), code)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_grant")
		return
	}
	if grant.ClientID != clientID || grant.RedirectURI != redirectURI {
		writeJSONError(w, http.StatusBadRequest, "invalid_grant")
		return
	}
	if !oauth.VerifyPKCE(grant.CodeChallenge, grant.CodeChallengeMethod, verifier) {
		writeJSONError(w, http.StatusBadRequest, "invalid_grant")
		return
	}

	accessToken := uuid.New().String()
	if err := g.grants.PutToken(r.Context(), accessToken, grant); err != nil {
		logging.Error(subsystem, err, "failed to store issued access token")
		writeJSONError(w, http.StatusInternalServerError, "server_error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"scope":        grant.Scope,
	})
}

// HandleRegister implements POST /oauth/register: RFC 7591 dynamic
// client registration for MCP clients that have not been pre-registered.
func (g *Gateway) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var meta oauth.ClientMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil || len(meta.RedirectURIs) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_client_metadata")
		return
	}

	client := &Client{
		ClientID:     uuid.New().String(),
		ClientName:   meta.ClientName,
		RedirectURIs: meta.RedirectURIs,
	}
	if err := g.clients.Put(r.Context(), client); err != nil {
		logging.Error(subsystem, err, "failed to persist registered client")
		writeJSONError(w, http.StatusInternalServerError, "server_error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(oauth.ClientMetadata{
		ClientID:                client.ClientID,
		ClientName:              client.ClientName,
		RedirectURIs:            client.RedirectURIs,
		GrantTypes:              []string{"authorization_code"},
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: "none",
	})
}
