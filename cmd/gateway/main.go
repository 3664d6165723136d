// Command gateway runs the Sentry MCP gateway: a stateless HTTP process
// that federates OAuth against the upstream error tracker and serves
// the MCP tool registry over /mcp. Grounded on the teacher's
// AggregatorServer.Start/Stop lifecycle (internal/aggregator/server.go):
// build the handler, listen in a goroutine, shut down on signal with a
// bounded drain timeout.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/getsentry/sentry-mcp-gateway/internal/agentrt"
	"github.com/getsentry/sentry-mcp-gateway/internal/config"
	"github.com/getsentry/sentry-mcp-gateway/internal/constraints"
	"github.com/getsentry/sentry-mcp-gateway/internal/dispatcher"
	"github.com/getsentry/sentry-mcp-gateway/internal/httpapi"
	"github.com/getsentry/sentry-mcp-gateway/internal/oauthgw"
	"github.com/getsentry/sentry-mcp-gateway/internal/store"
	"github.com/getsentry/sentry-mcp-gateway/internal/tools"
	"github.com/getsentry/sentry-mcp-gateway/pkg/logging"
	"github.com/getsentry/sentry-mcp-gateway/pkg/oauth"
)

// shutdownTimeout bounds how long we wait for in-flight requests to
// drain once a shutdown signal arrives.
const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	if err := cfg.Validate(); err != nil {
		logging.Error("Gateway", err, "invalid configuration")
		os.Exit(1)
	}

	kv, closeKV, err := buildStore(cfg)
	if err != nil {
		logging.Error("Gateway", err, "failed to initialize storage backend")
		os.Exit(1)
	}
	defer closeKV()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	authEndpoint, tokenEndpoint, err := discoverUpstreamEndpoints(ctx, cfg.UpstreamHost)
	cancel()
	if err != nil {
		logging.Error("Gateway", err, "failed to discover upstream OAuth endpoints")
		os.Exit(1)
	}

	clients := oauthgw.NewClientStore(kv)
	grants := oauthgw.NewGrantStore(kv)
	gateway := oauthgw.New(cfg, clients, grants, authEndpoint, tokenEndpoint)
	verifier := constraints.New(kv)

	var agent *agentrt.Agent
	if cfg.EmbeddedAgentsEnabled() {
		agent = agentrt.New(agentrt.Config{
			APIKey:          cfg.OpenAIAPIKey,
			Model:           cfg.OpenAIModel,
			ReasoningEffort: cfg.OpenAIReasoningEffort,
			BaseURL:         cfg.OpenAIBaseURL,
		})
		logging.Info("Gateway", "embedded agents enabled (model=%s)", cfg.OpenAIModel)
	} else {
		logging.Info("Gateway", "embedded agents disabled: OPENAI_API_KEY not set")
	}

	registry := tools.Registry(agent)
	d := dispatcher.New(registry, nil)
	pipeline := httpapi.New(cfg, d, gateway, grants, verifier)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: pipeline.Handler(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info("Gateway", "listening on %s (upstream=%s)", cfg.ListenAddr, cfg.UpstreamHost)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	stop, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	select {
	case err := <-serverErr:
		if err != nil {
			logging.Error("Gateway", err, "server exited unexpectedly")
			os.Exit(1)
		}
	case <-stop.Done():
		logging.Info("Gateway", "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error("Gateway", err, "graceful shutdown failed")
			os.Exit(1)
		}
		<-serverErr
	}
}

// buildStore selects the KV backend per cfg.OAuthStoreBackend. The
// returned close func is always safe to call, even for the memory
// backend (where it stops the janitor goroutine).
func buildStore(cfg *config.Config) (store.KV, func(), error) {
	switch cfg.OAuthStoreBackend {
	case "valkey":
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{cfg.ValkeyAddr},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to valkey at %s: %w", cfg.ValkeyAddr, err)
		}
		kv := store.NewValkeyKV(client, "sentry-mcp:")
		return kv, client.Close, nil
	case "memory", "":
		kv := store.NewMemoryKV(time.Minute)
		return kv, kv.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown OAUTH_STORE_BACKEND %q (want memory or valkey)", cfg.OAuthStoreBackend)
	}
}

// discoverUpstreamEndpoints resolves the upstream's authorize/token
// endpoints via RFC 8414 (or the OIDC discovery fallback), so the
// gateway never hardcodes Sentry's own OAuth routes.
func discoverUpstreamEndpoints(ctx context.Context, upstreamHost string) (authEndpoint, tokenEndpoint string, err error) {
	client := oauth.NewClient()
	metadata, err := client.DiscoverMetadata(ctx, "https://"+upstreamHost)
	if err != nil {
		return "", "", err
	}
	if metadata.AuthorizationEndpoint == "" || metadata.TokenEndpoint == "" {
		return "", "", fmt.Errorf("upstream %s did not advertise authorization/token endpoints", upstreamHost)
	}
	return metadata.AuthorizationEndpoint, metadata.TokenEndpoint, nil
}
