// Package oauth provides shared OAuth 2.1 types and utilities used by both
// halves of the gateway's OAuth surface: the federation client that
// exchanges codes with the upstream's own authorization server, and the
// gateway's own authorization server facing MCP clients
// (internal/oauthgw).
//
// # Core components
//
//   - Token: OAuth token representation with expiry checking.
//   - Metadata: OAuth/OIDC authorization server metadata (RFC 8414).
//   - ProtectedResourceMetadata: RFC 9728 protected resource metadata.
//   - PKCEChallenge: Proof Key for Code Exchange generation and
//     verification (RFC 7636). The gateway's own token endpoint calls
//     VerifyPKCE when redeeming a code from an MCP client.
//   - Client: metadata discovery and token-endpoint operations. The
//     gateway binary uses its metadata discovery to resolve the
//     upstream's OAuth endpoints.
//
// # Usage
//
//	client := oauth.NewClient()
//	metadata, err := client.DiscoverMetadata(ctx, issuer)
//	pkce, err := oauth.GeneratePKCE()
//	ok := oauth.VerifyPKCE(storedChallenge, "S256", suppliedVerifier)
package oauth
