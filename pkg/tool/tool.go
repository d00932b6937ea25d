package tool

import "context"

// Tool is a single capability a council model can invoke during Stage 1.
// Execute returns a human-readable result string; operational failures should
// be returned as errors and are folded into descriptive text by Dispatch so
// the query loop can always append a tool message.
type Tool interface {
	Name() string
	Description() string
	Schema() *JSONSchema
	Execute(ctx context.Context, args map[string]any) (string, error)
}
