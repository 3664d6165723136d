// Package logging provides the gateway's structured logging, built on
// log/slog with a JSON handler so log lines are consumable by the same
// aggregation pipelines the upstream gateway's operators already run.
//
// # Log levels
//
//   - Debug: request/response detail useful only when diagnosing a specific
//     incident (upstream query bodies, token-store lookups).
//   - Info: normal operation (server start, OAuth grant issued, tool call
//     dispatched).
//   - Warn: recoverable anomalies (constraint cache miss fell back to a
//     live lookup, upstream returned a retryable error).
//   - Error: failures that surfaced to the caller as an error response.
//
// # Usage
//
//	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)
//	logging.Info("Dispatcher", "dispatched tool call %s", toolName)
//	logging.Error("Upstream", err, "organization lookup failed for %s", orgSlug)
//
// # Subsystems
//
// Log lines are tagged with a subsystem so they can be filtered per
// component: Bootstrap, Config, Dispatcher, OAuthGateway, Upstream,
// Constraints, Agent, HTTP.
//
// # Audit events
//
// Security-sensitive actions (authorization grants, token exchanges,
// constraint denials) additionally emit an AuditEvent via Audit, which
// formats a single [AUDIT]-prefixed info line that is easy to grep or ship
// to a separate audit sink.
package logging
