package toolbuiltin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebSearchTavily(t *testing.T) {
	var captured tavilyRequest
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(tavilyResponse{Results: []tavilyResult{
			{Title: "Go", URL: "https://go.dev", Content: "The Go programming language."},
			{Title: "", URL: "https://example.com", Content: "Something else."},
		}})
	}))
	defer tavily.Close()

	ws := NewWebSearchToolWithEndpoints("tavily-key", tavily.URL, "http://unused", nil)
	result, err := ws.Execute(context.Background(), map[string]any{"query": "golang"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if captured.APIKey != "tavily-key" || captured.Query != "golang" {
		t.Fatalf("unexpected request %+v", captured)
	}
	if captured.SearchDepth != "basic" || captured.MaxResults != 5 {
		t.Fatalf("unexpected search parameters %+v", captured)
	}
	if !strings.HasPrefix(result, "Web search results:") {
		t.Fatalf("unexpected result prefix: %q", result)
	}
	if !strings.Contains(result, "1. Go\n   URL: https://go.dev") {
		t.Fatalf("first result malformed: %q", result)
	}
	if !strings.Contains(result, "2. No title") {
		t.Fatalf("missing title placeholder not applied: %q", result)
	}
}

func TestWebSearchFallsBackToDuckDuckGo(t *testing.T) {
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer tavily.Close()

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang" {
			t.Errorf("unexpected query %q", got)
		}
		w.Write([]byte(`<html><body>
			<div class="result">
				<a class="result__a" href="https://go.dev">Go language</a>
				<div class="result__snippet">Build simple, secure systems.</div>
			</div>
		</body></html>`))
	}))
	defer ddg.Close()

	ws := NewWebSearchToolWithEndpoints("tavily-key", tavily.URL, ddg.URL, nil)
	result, err := ws.Execute(context.Background(), map[string]any{"query": "golang"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(result, "Go language") || !strings.Contains(result, "https://go.dev") {
		t.Fatalf("fallback result malformed: %q", result)
	}
}

func TestWebSearchSkipsTavilyWithoutKey(t *testing.T) {
	tavilyCalled := false
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tavilyCalled = true
	}))
	defer tavily.Close()

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body></body></html>`))
	}))
	defer ddg.Close()

	ws := NewWebSearchToolWithEndpoints("", tavily.URL, ddg.URL, nil)
	result, err := ws.Execute(context.Background(), map[string]any{"query": "anything"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if tavilyCalled {
		t.Fatal("tavily must not be called without an API key")
	}
	if result != "No results found." {
		t.Fatalf("unexpected result %q", result)
	}
}

func TestWebSearchRequiresQuery(t *testing.T) {
	ws := NewWebSearchTool("")
	if _, err := ws.Execute(context.Background(), map[string]any{"query": "  "}); err == nil {
		t.Fatal("blank query must fail")
	}
}
