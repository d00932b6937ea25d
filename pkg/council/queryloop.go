package council

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/llmcouncil/llmcouncil/pkg/model"
	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

// DefaultMaxToolIterations bounds the tool loop when no explicit limit is
// configured.
const DefaultMaxToolIterations = 5

// budgetExhaustedMessage is the advisory answer returned when the iteration
// bound is reached while the model still requests tools.
const budgetExhaustedMessage = "Maximum tool calling iterations reached. Please try rephrasing your question."

// QueryLoop drives one conversation against one model endpoint, executing
// bounded rounds of tool calls until the model yields a final answer.
type QueryLoop struct {
	client        model.Client
	tools         *tool.Registry
	maxIterations int
	logger        *slog.Logger
}

// NewQueryLoop builds a loop over the given client. A nil registry disables
// tool calling entirely: schemas are never offered and any tool request in a
// response is treated as a final answer.
func NewQueryLoop(client model.Client, tools *tool.Registry, maxIterations int, logger *slog.Logger) *QueryLoop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxToolIterations
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryLoop{
		client:        client,
		tools:         tools,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Run executes the loop for modelID over its private copy of messages and
// always returns a terminal Outcome; it never panics the sibling loops and
// never blocks beyond the client's own timeout.
func (l *QueryLoop) Run(ctx context.Context, modelID string, messages []model.Message) Outcome {
	transcript := model.Clone(messages)
	var records []ToolCallRecord

	var defs []tool.Definition
	if l.tools != nil && l.tools.Len() > 0 {
		defs = l.tools.Definitions()
	}

	for iteration := 0; iteration < l.maxIterations; iteration++ {
		// Schemas are only offered on the first round; later rounds rely on
		// the model deciding it has enough information.
		var offered []tool.Definition
		if iteration == 0 {
			offered = defs
		}

		resp, err := l.client.Send(ctx, modelID, transcript, offered)
		if err != nil {
			return l.failed(modelID, records, err)
		}

		if !resp.HasToolCalls() || defs == nil {
			return Outcome{
				Kind: OutcomeAnswer,
				Answer: ModelAnswer{
					Model:     modelID,
					Content:   resp.Content,
					Reasoning: resp.Reasoning,
					ToolCalls: records,
				},
			}
		}

		transcript = append(transcript, model.Message{
			Role:      model.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for i, call := range resp.ToolCalls {
			callID := call.ID
			if callID == "" {
				callID = fmt.Sprintf("call_%d_%d", iteration, i)
			}
			args := parseArguments(call.Function.Arguments)
			result := l.tools.Dispatch(ctx, call.Function.Name, args)

			records = append(records, ToolCallRecord{
				Name:      call.Function.Name,
				Arguments: args,
				Result:    result,
			})
			transcript = append(transcript, model.ToolResult(callID, call.Function.Name, result))

			l.logger.Debug("tool call executed",
				"model", modelID,
				"tool", call.Function.Name,
				"iteration", iteration)
		}
	}

	l.logger.Warn("max tool iterations reached", "model", modelID, "limit", l.maxIterations)
	return Outcome{
		Kind: OutcomeBudget,
		Answer: ModelAnswer{
			Model:     modelID,
			Content:   budgetExhaustedMessage,
			ToolCalls: records,
		},
	}
}

func (l *QueryLoop) failed(modelID string, records []ToolCallRecord, err error) Outcome {
	l.logger.Warn("model query failed", "model", modelID, "error", err, "tool_calls", len(records))
	if len(records) > 0 {
		return Outcome{
			Kind: OutcomeDegraded,
			Answer: ModelAnswer{
				Model:     modelID,
				Content:   fmt.Sprintf("Error after %d tool calls: %v", len(records), err),
				ToolCalls: records,
			},
			Err: err,
		}
	}
	return Outcome{
		Kind:   OutcomeAbsent,
		Answer: ModelAnswer{Model: modelID, Failed: true, Error: err.Error()},
		Err:    err,
	}
}

// parseArguments decodes a tool-call argument payload. Malformed payloads are
// a recoverable condition and resolve to empty arguments.
func parseArguments(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}
