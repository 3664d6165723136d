package apierr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/getsentry/sentry-mcp-gateway/pkg/logging"
)

// FormatForTool renders err as the human-readable text block a tool-call
// result shows the agent, per the §7 formatting rules. Telemetry logging
// happens here too, since the format differs based on whether a logged
// event id should be embedded.
func FormatForTool(subsystem string, err error) string {
	var userErr *UserInputError
	if errors.As(err, &userErr) {
		return fmt.Sprintf("**Input Error**\n\n%s\n\nPlease adjust your request and try again.", userErr.Message)
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		logging.Warn(subsystem, "configuration error: %s", cfgErr.Message)
		return fmt.Sprintf("**Configuration Error**\n\n%s", cfgErr.Message)
	}

	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 500 {
			eventID := logEvent(subsystem, err)
			return fmt.Sprintf("**Error**\n\nAPI request failed with status %d: %s\n\nEvent ID: %s", apiErr.Status, apiErr.Message, eventID)
		}
		return fmt.Sprintf("**Error**\n\nAPI request failed with status %d: %s", apiErr.Status, apiErr.Message)
	}

	eventID := logEvent(subsystem, err)
	return fmt.Sprintf("**Error**\n\n%s\n\nEvent ID: %s", err.Error(), eventID)
}

// logEvent logs the error to telemetry and mints the event id referenced
// in the formatted tool-result text, mirroring how the gateway correlates
// a user-visible error with a server-side log line.
func logEvent(subsystem string, err error) string {
	eventID := uuid.New().String()
	logging.Error(subsystem, err, "event_id=%s", eventID)
	return eventID
}
