package toolmcp

import (
	"context"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestBuildTransportStdio(t *testing.T) {
	transport, err := buildTransport(context.Background(), "stdio://npx some-server --flag")
	if err != nil {
		t.Fatalf("buildTransport: %v", err)
	}
	cmd, ok := transport.(*mcpsdk.CommandTransport)
	if !ok {
		t.Fatalf("expected CommandTransport, got %T", transport)
	}
	if len(cmd.Command.Args) != 3 || cmd.Command.Args[1] != "some-server" {
		t.Fatalf("unexpected command args %v", cmd.Command.Args)
	}
}

func TestBuildTransportBareCommandDefaultsToStdio(t *testing.T) {
	transport, err := buildTransport(context.Background(), "python server.py")
	if err != nil {
		t.Fatalf("buildTransport: %v", err)
	}
	if _, ok := transport.(*mcpsdk.CommandTransport); !ok {
		t.Fatalf("expected CommandTransport, got %T", transport)
	}
}

func TestBuildTransportSSE(t *testing.T) {
	cases := []struct {
		spec string
		want string
	}{
		{"sse://localhost:3001/sse", "https://localhost:3001/sse"},
		{"sse://http://localhost:3001/sse", "http://localhost:3001/sse"},
		{"https://example.com/mcp", "https://example.com/mcp"},
		{"http+sse://example.com/mcp", "http://example.com/mcp"},
	}
	for _, tc := range cases {
		transport, err := buildTransport(context.Background(), tc.spec)
		if err != nil {
			t.Fatalf("buildTransport(%q): %v", tc.spec, err)
		}
		sse, ok := transport.(*mcpsdk.SSEClientTransport)
		if !ok {
			t.Fatalf("spec %q: expected SSEClientTransport, got %T", tc.spec, transport)
		}
		if sse.Endpoint != tc.want {
			t.Fatalf("spec %q: endpoint %q, want %q", tc.spec, sse.Endpoint, tc.want)
		}
	}
}

func TestBuildTransportStreamableHTTP(t *testing.T) {
	for _, spec := range []string{"http+stream://example.com/mcp", "https+json://example.com/mcp"} {
		transport, err := buildTransport(context.Background(), spec)
		if err != nil {
			t.Fatalf("buildTransport(%q): %v", spec, err)
		}
		if _, ok := transport.(*mcpsdk.StreamableClientTransport); !ok {
			t.Fatalf("spec %q: expected StreamableClientTransport, got %T", spec, transport)
		}
	}
}

func TestBuildTransportRejectsBadSpecs(t *testing.T) {
	for _, spec := range []string{"", "   ", "stdio://", "http+bogus://example.com", "sse://"} {
		if _, err := buildTransport(context.Background(), spec); err == nil {
			t.Fatalf("spec %q should be rejected", spec)
		}
	}
}

func TestConvertSchema(t *testing.T) {
	schema := convertSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
		"required": []any{"query", 42},
	})
	if schema.Type != "object" {
		t.Fatalf("unexpected type %q", schema.Type)
	}
	if _, ok := schema.Properties["query"]; !ok {
		t.Fatalf("properties lost: %+v", schema.Properties)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "query" {
		t.Fatalf("non-string required entries should be dropped, got %v", schema.Required)
	}

	empty := convertSchema(nil)
	if empty.Type != "object" || empty.Properties != nil {
		t.Fatalf("nil schema should map to a bare object, got %+v", empty)
	}
}

func TestFlattenContent(t *testing.T) {
	text := flattenContent([]mcpsdk.Content{
		&mcpsdk.TextContent{Text: "first"},
		&mcpsdk.TextContent{Text: ""},
		&mcpsdk.TextContent{Text: "second"},
	})
	if text != "first\nsecond" {
		t.Fatalf("unexpected flattened text %q", text)
	}
	if flattenContent(nil) != "" {
		t.Fatal("empty content should flatten to an empty string")
	}
}
