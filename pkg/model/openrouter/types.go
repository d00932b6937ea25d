package openrouter

import (
	"fmt"

	"github.com/llmcouncil/llmcouncil/pkg/model"
	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	completionsPath    = "/chat/completions"
	defaultHTTPTimeout = 120 // seconds
	userAgent          = "llmcouncil/openrouter"
)

// ChatRequest follows the OpenRouter chat-completions contract.
type ChatRequest struct {
	Model     string            `json:"model"`
	Messages  []model.Message   `json:"messages"`
	Tools     []tool.Definition `json:"tools,omitempty"`
	Reasoning *ReasoningOptions `json:"reasoning,omitempty"`
}

// ReasoningOptions asks reasoning-capable models for high-effort hidden
// reasoning. Exclude keeps the raw chain out of the response body.
type ReasoningOptions struct {
	Effort  string `json:"effort,omitempty"`
	Exclude bool   `json:"exclude,omitempty"`
}

// ChatResponse captures the subset of the completion schema we care about.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice is a single completion alternative; OpenRouter returns one.
type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// ChoiceMessage is the assistant turn inside a Choice.
type ChoiceMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Reasoning string           `json:"reasoning,omitempty"`
	ToolCalls []model.ToolCall `json:"tool_calls,omitempty"`
}

// ErrorResponse models OpenRouter error payloads.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody drills into the API error object.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError is returned for non-2xx API responses.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e APIError) Error() string {
	return fmt.Sprintf("openrouter: status %d: %s", e.StatusCode, e.Message)
}
