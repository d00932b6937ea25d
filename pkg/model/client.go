package model

import (
	"context"

	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

// Response is the outcome of a single completion call against one model.
type Response struct {
	Content   string     `json:"content"`
	Reasoning string     `json:"reasoning,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// HasToolCalls reports whether the model requested at least one tool
// invocation instead of producing a final answer.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// Client sends one completion request to a named model endpoint. Tools may be
// nil when the caller does not want to offer a schema set for this call.
// Implementations must honour ctx cancellation and surface transport or API
// failures as errors.
type Client interface {
	Send(ctx context.Context, model string, messages []Message, tools []tool.Definition) (*Response, error)
}

// ClientFunc adapts a plain function to the Client interface, which keeps
// tests and small callers free of boilerplate.
type ClientFunc func(ctx context.Context, model string, messages []Message, tools []tool.Definition) (*Response, error)

// Send implements Client.
func (f ClientFunc) Send(ctx context.Context, model string, messages []Message, tools []tool.Definition) (*Response, error) {
	return f(ctx, model, messages, tools)
}
