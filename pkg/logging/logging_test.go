package logging

import (
	"bytes"
	"strings"
	"testing"

	"log/slog"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, got, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo},
	}

	for _, test := range tests {
		if got := test.level.SlogLevel(); got != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, got, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"":        LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}

	for input, expected := range tests {
		if got := ParseLevel(input); got != expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", input, got, expected)
		}
	}
}

func TestInit_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Info("test-subsystem", "test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Error("expected log message to appear in output")
	}
	if !strings.Contains(output, "test-subsystem") {
		t.Error("expected subsystem to appear in output")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Debug("test", "debug message")
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("debug message should be filtered out at INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("info message should appear at INFO level")
	}
}

func TestError_IncludesErrorText(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Error("test", errInjected, "operation failed")

	output := buf.String()
	if !strings.Contains(output, "operation failed") {
		t.Error("expected message text in output")
	}
	if !strings.Contains(output, errInjected.Error()) {
		t.Error("expected error text in output")
	}
}

func TestTruncateSessionID(t *testing.T) {
	if got := TruncateSessionID("short"); got != "short" {
		t.Errorf("expected short ID unchanged, got %q", got)
	}
	if got := TruncateSessionID("abcdefghijklmnop"); got != "abcdefgh..." {
		t.Errorf("expected truncated ID, got %q", got)
	}
}

func TestAudit_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, &buf)

	Audit(AuditEvent{
		Action:    "token_exchange",
		Outcome:   "success",
		SessionID: "abc12345...",
		UserID:    "u-123",
		Target:    "sentry.io",
	})

	output := buf.String()
	for _, want := range []string{"[AUDIT]", "action=token_exchange", "outcome=success", "target=sentry.io"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected audit output to contain %q, got %q", want, output)
		}
	}
}

var errInjected = errTest("injected failure")

type errTest string

func (e errTest) Error() string { return string(e) }
