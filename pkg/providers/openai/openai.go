// Package openai provides a Completer implementation for OpenAI-compatible
// Chat Completions APIs (OpenAI, Moonshot, and anything else speaking the
// same wire format).
package openai

import (
	"context"
	"fmt"

	"github.com/germanamz/chatrelay/pkg/config"
	"github.com/germanamz/chatrelay/pkg/modeladapter"
	"github.com/germanamz/chatrelay/pkg/modeladapter/usage"
)

// completionsPath is appended to the base URL, which carries the version
// segment (e.g. "https://api.openai.com/v1").
const completionsPath = "/chat/completions"

const organizationHeader = "OpenAI-Organization"

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the Chat Completions API.
// An Adapter is bound to the Config it was built from and is never
// reconfigured; build a new one instead.
type Adapter struct {
	modeladapter.ModelAdapter

	cfg config.Config
}

// New creates an Adapter for cfg. It performs no I/O and never fails:
// malformed values surface as errors from Complete.
func New(cfg config.Config) *Adapter {
	a := &Adapter{
		ModelAdapter: modeladapter.New(cfg.BaseURL, modeladapter.Auth{Key: cfg.APIKey}, nil),
		cfg:          cfg,
	}

	if cfg.Organization != "" {
		a.Headers = map[string]string{organizationHeader: cfg.Organization}
	}

	return a
}

// FromConfig is New with the Completer return type, usable as a state.Factory.
func FromConfig(cfg config.Config) modeladapter.Completer {
	return New(cfg)
}

// Config returns the configuration the adapter was built from.
func (a *Adapter) Config() config.Config { return a.cfg }

// Complete sends req to the Chat Completions endpoint. A response without
// choices is returned as-is; deciding whether that is an error is up to the
// caller.
func (a *Adapter) Complete(ctx context.Context, req modeladapter.Request) (modeladapter.Response, error) {
	var resp apiResponse
	if err := a.PostJSON(ctx, completionsPath, buildRequest(req), &resp); err != nil {
		return modeladapter.Response{}, fmt.Errorf("openai: %w", err)
	}

	return resp.toResponse(), nil
}

// --- wire types ---

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type apiResponse struct {
	Model   string      `json:"model"`
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      apiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// --- conversion helpers ---

func buildRequest(req modeladapter.Request) apiRequest {
	out := apiRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages:  make([]apiMessage, 0, len(req.Messages)),
	}

	if req.Temperature != 0 {
		t := req.Temperature
		out.Temperature = &t
	}

	for _, m := range req.Messages {
		text := m.Content
		out.Messages = append(out.Messages, apiMessage{Role: m.Role.String(), Content: &text})
	}

	return out
}

func (r apiResponse) toResponse() modeladapter.Response {
	out := modeladapter.Response{
		Model: r.Model,
		Usage: usage.TokenCount{
			InputTokens:  r.Usage.PromptTokens,
			OutputTokens: r.Usage.CompletionTokens,
		},
	}

	for _, c := range r.Choices {
		var text string
		if c.Message.Content != nil {
			text = *c.Message.Content
		}

		out.Choices = append(out.Choices, modeladapter.Choice{
			Message:      modeladapter.Message{Role: modeladapter.Role(c.Message.Role), Content: text},
			FinishReason: c.FinishReason,
		})
	}

	return out
}
