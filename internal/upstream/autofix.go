package upstream

import (
	"context"
	"encoding/json"
	"strings"
)

// StartAutofix kicks off a Seer autofix run for an issue. eventID and
// instruction are both optional.
func (c *Client) StartAutofix(ctx context.Context, orgSlug, issueID, eventID, instruction string) (*AutofixState, error) {
	payload := map[string]string{}
	if eventID != "" {
		payload["event_id"] = eventID
	}
	if instruction != "" {
		payload["instruction"] = instruction
	}
	body, _ := json.Marshal(payload)
	var state AutofixState
	path := "/issues/" + issueID + "/autofix/"
	if err := c.doJSON(ctx, "POST", path, strings.NewReader(string(body)), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetAutofixState polls the status of an issue's most recent autofix run.
func (c *Client) GetAutofixState(ctx context.Context, orgSlug, issueID string) (*AutofixState, error) {
	var state AutofixState
	path := "/issues/" + issueID + "/autofix/"
	if err := c.doJSON(ctx, "GET", path, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
