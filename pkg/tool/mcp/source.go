// Package toolmcp exposes tools served by MCP servers as council tools.
package toolmcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

// transportBuilder is overridden in tests to stub the transport factory.
var transportBuilder = buildTransport

// Source lazily connects to a single MCP server and surfaces its tools.
type Source struct {
	client        *mcpsdk.Client
	session       *mcpsdk.ClientSession
	transportSpec string
	once          sync.Once
	connectErr    error
}

// NewSource constructs a Source for the given transport specification.
// Supported specs: "stdio://cmd args", "sse://host/path", plain http(s) URLs
// (treated as SSE), and "http+stream://..." style hints for streamable HTTP.
func NewSource(spec string) *Source {
	impl := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "llmcouncil", Version: "dev"}, nil)
	return &Source{client: impl, transportSpec: spec}
}

func (s *Source) ensureConnected(ctx context.Context) error {
	s.once.Do(func() {
		transport, err := transportBuilder(ctx, s.transportSpec)
		if err != nil {
			s.connectErr = fmt.Errorf("toolmcp: build transport: %w", err)
			return
		}
		session, err := s.client.Connect(ctx, transport, nil)
		if err != nil {
			s.connectErr = fmt.Errorf("toolmcp: connect %s: %w", s.transportSpec, err)
			return
		}
		s.session = session
	})
	return s.connectErr
}

// Tools lists the server's tools, each wrapped as a council tool that proxies
// execution back to the server.
func (s *Source) Tools(ctx context.Context) ([]tool.Tool, error) {
	if err := s.ensureConnected(ctx); err != nil {
		return nil, err
	}
	var tools []tool.Tool
	for t, err := range s.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("toolmcp: list tools: %w", err)
		}
		rawSchema, _ := t.InputSchema.(map[string]any)
		tools = append(tools, &serverTool{source: s, name: t.Name, description: t.Description, schema: convertSchema(rawSchema)})
	}
	return tools, nil
}

// Register lists the server's tools and registers each with the registry.
func (s *Source) Register(ctx context.Context, registry *tool.Registry) error {
	tools, err := s.Tools(ctx)
	if err != nil {
		return err
	}
	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the underlying session, if any.
func (s *Source) Close() error {
	if s == nil || s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

// serverTool proxies a single remote tool through its Source's session.
type serverTool struct {
	source      *Source
	name        string
	description string
	schema      *tool.JSONSchema
}

var _ tool.Tool = (*serverTool)(nil)

func (t *serverTool) Name() string             { return t.name }
func (t *serverTool) Description() string      { return t.description }
func (t *serverTool) Schema() *tool.JSONSchema { return t.schema }

func (t *serverTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if err := t.source.ensureConnected(ctx); err != nil {
		return "", err
	}
	result, err := t.source.session.CallTool(ctx, &mcpsdk.CallToolParams{Name: t.name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("toolmcp: call %s: %w", t.name, err)
	}
	text := flattenContent(result.Content)
	if result.IsError {
		return "", fmt.Errorf("toolmcp: %s reported an error: %s", t.name, text)
	}
	return text, nil
}

// flattenContent concatenates the textual parts of a tool result. Non-text
// content is ignored; council transcripts carry plain strings.
func flattenContent(content []mcpsdk.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcpsdk.TextContent); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// convertSchema maps a raw MCP input schema onto the registry's schema type.
// Servers that omit a schema get an unconstrained object.
func convertSchema(raw map[string]any) *tool.JSONSchema {
	schema := &tool.JSONSchema{Type: "object"}
	if raw == nil {
		return schema
	}
	if typ, ok := raw["type"].(string); ok && typ != "" {
		schema.Type = typ
	}
	if props, ok := raw["properties"].(map[string]any); ok {
		schema.Properties = props
	}
	switch required := raw["required"].(type) {
	case []string:
		schema.Required = required
	case []any:
		for _, r := range required {
			if name, ok := r.(string); ok {
				schema.Required = append(schema.Required, name)
			}
		}
	}
	return schema
}
