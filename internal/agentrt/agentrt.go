// Package agentrt implements EmbeddedAgent (spec.md §4.8): a bounded,
// tool-calling LLM loop shared by the two embedded agents (the
// search_issues/search_errors query translators and the use_sentry
// free-form agent). Grounded on the teacher pack's tool-calling turn
// loop in other_examples' Ruriko internal/gitai/app/app.go (runTurn's
// round-capped "LLM call, inspect FinishReason, execute tool calls,
// append results, loop" structure), adapted onto
// github.com/sashabaranov/go-openai's request/response shapes per the
// pack's own OpenAI-client usage (other_examples' akashicode-kash
// internal/server/server.go).
//
// agentrt deliberately has no dependency on internal/tools or
// internal/dispatcher: it exposes a tool as a name/description/JSON
// schema triple plus a caller-supplied execution function, so the tool
// registry (which already knows how to invoke its own handlers under
// constraints) can adapt itself to this shape without agentrt reaching
// back into it.
package agentrt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/getsentry/sentry-mcp-gateway/internal/apierr"
)

// MaxSteps bounds the tool-calling loop (spec.md §4.8: "Runs at most 5
// steps ... one step = one model call plus any tool calls it triggers").
const MaxSteps = 5

// Config configures an Agent. APIKey empty means embedded agents are
// disabled; callers check this via config.Config.EmbeddedAgentsEnabled
// before constructing one.
type Config struct {
	APIKey string
	Model  string
	// ReasoningEffort is passed through verbatim to the request when
	// non-empty (e.g. "low"/"medium"/"high" for reasoning-capable
	// models); left unset it takes the model's own default.
	ReasoningEffort string
	// BaseURL overrides the OpenAI API origin. Never read from the
	// environment directly (spec.md §6) — callers populate this only
	// from an explicit, programmatic override.
	BaseURL string
}

// Agent runs the bounded tool-calling loop against a configured LLM.
type Agent struct {
	client *openai.Client
	model  string
	effort string
}

// New builds an Agent. cfg.APIKey must be non-empty.
func New(cfg Config) *Agent {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Agent{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		effort: cfg.ReasoningEffort,
	}
}

// ToolSpec is one tool's LLM-facing declaration: enough to build an
// openai.Tool, nothing more. The caller owns translating its own schema
// representation into Parameters (a JSON-schema object).
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolCaller executes one tool call and returns its result rendered as
// text. Errors are the caller's responsibility to fold into the
// returned text (spec.md §4.8: "wrapped into the standard {error:
// string} response shape that the agent can see and reason about") —
// agentrt never inspects the string's content.
type ToolCaller func(ctx context.Context, name string, args map[string]interface{}) string

// ToolCall records one observed invocation (spec.md §4.8: "Every tool
// call observed during the run is recorded ... and returned even on
// success").
type ToolCall struct {
	ToolName string
	Args     map[string]interface{}
}

// Run executes callEmbeddedAgent's contract: up to MaxSteps rounds of
// (model call, tool execution), then one final parse of the model's
// text output into out.
//
// If the parsed output is a JSON object with a string "error" field,
// Run returns a *apierr.UserInputError with that message instead of
// populating out (spec.md §4.8: "the agent is signalling that the
// user's request is malformed"). Otherwise the output is unmarshaled
// into out; a failure to do so is itself a UserInputError (the
// schema-validation-failure path), since out's Go type is this
// implementation's stand-in for the JSON schema callers pass in.
func (a *Agent) Run(ctx context.Context, system, prompt string, toolSpecs []ToolSpec, call ToolCaller, out interface{}) ([]ToolCall, error) {
	if a == nil {
		return nil, apierr.NewConfigurationError("embedded agent not configured: OPENAI_API_KEY is unset", nil)
	}

	openaiTools := make([]openai.Tool, 0, len(toolSpecs))
	for _, spec := range toolSpecs {
		openaiTools = append(openaiTools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	var calls []ToolCall

	for step := 0; step < MaxSteps; step++ {
		req := openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
		}
		if len(openaiTools) > 0 {
			req.Tools = openaiTools
		} else {
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
		}
		if a.effort != "" {
			req.ReasoningEffort = a.effort
		}

		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return calls, apierr.NewConfigurationError("embedded agent LLM call failed", err)
		}
		if len(resp.Choices) == 0 {
			return calls, apierr.NewConfigurationError("embedded agent returned no choices", nil)
		}

		message := resp.Choices[0].Message
		messages = append(messages, message)

		if len(message.ToolCalls) == 0 {
			return calls, parseFinalOutput(message.Content, out)
		}

		for _, tc := range message.ToolCalls {
			var args map[string]interface{}
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			calls = append(calls, ToolCall{ToolName: tc.Function.Name, Args: args})

			var resultText string
			if call != nil {
				resultText = call(ctx, tc.Function.Name, args)
			} else {
				resultText = `{"error":"no tools are available in this context"}`
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    resultText,
				ToolCallID: tc.ID,
			})
		}
	}

	return calls, apierr.NewUserInputError("the request could not be completed within %d steps", MaxSteps)
}

func parseFinalOutput(text string, out interface{}) error {
	var probe map[string]interface{}
	if json.Unmarshal([]byte(text), &probe) == nil {
		if msg, ok := probe["error"].(string); ok {
			return apierr.NewUserInputError("%s", msg)
		}
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return apierr.NewUserInputError("embedded agent output did not match the expected shape: %s", err)
	}
	return nil
}

// RunWithRetry implements the query-translator use sites' single-retry
// pattern (spec.md §4.8): "if the translator's output fails downstream
// validation ... feed the failure back ... and call once more." validate
// is called against the value Run has just unmarshaled into out; a
// non-nil return triggers exactly one retry with the feedback appended
// to the prompt.
func (a *Agent) RunWithRetry(ctx context.Context, system, prompt string, out interface{}, validate func() error) error {
	if _, err := a.Run(ctx, system, prompt, nil, nil, out); err != nil {
		return err
	}
	if err := validate(); err == nil {
		return nil
	} else {
		retryPrompt := fmt.Sprintf("%s\n\nPrevious attempt failed with: %s\nPlease correct the query.", prompt, err)
		if _, err := a.Run(ctx, system, retryPrompt, nil, nil, out); err != nil {
			return err
		}
		return validate()
	}
}
