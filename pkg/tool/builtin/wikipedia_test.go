package toolbuiltin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWikipediaSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/Go_%28programming_language%29") &&
			!strings.HasSuffix(r.URL.Path, "/Go_(programming_language)") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"type": "standard",
			"title": "Go (programming language)",
			"extract": "Go is a statically typed, compiled language.",
			"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Go_(programming_language)"}}
		}`))
	}))
	defer server.Close()

	wiki := NewWikipediaToolWithEndpoint(server.URL+"/", nil)
	result, err := wiki.Execute(context.Background(), map[string]any{"query": "Go (programming language)"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(result, "Wikipedia: Go (programming language)") {
		t.Fatalf("unexpected result prefix: %q", result)
	}
	if !strings.Contains(result, "statically typed") || !strings.Contains(result, "URL: https://en.wikipedia.org/wiki/") {
		t.Fatalf("result missing summary or URL: %q", result)
	}
}

func TestWikipediaNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	wiki := NewWikipediaToolWithEndpoint(server.URL+"/", nil)
	result, err := wiki.Execute(context.Background(), map[string]any{"query": "Xyzzy Nonsense"})
	if err != nil {
		t.Fatalf("a missing article is not an operational failure: %v", err)
	}
	if !strings.Contains(result, "No article found for 'Xyzzy Nonsense'") {
		t.Fatalf("unexpected result %q", result)
	}
}

func TestWikipediaDisambiguation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type": "disambiguation", "title": "Mercury", "extract": "Mercury may refer to:"}`))
	}))
	defer server.Close()

	wiki := NewWikipediaToolWithEndpoint(server.URL+"/", nil)
	result, err := wiki.Execute(context.Background(), map[string]any{"query": "Mercury"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(result, "disambiguation") || !strings.Contains(result, "more specific") {
		t.Fatalf("unexpected result %q", result)
	}
}

func TestWikipediaRequiresQuery(t *testing.T) {
	wiki := NewWikipediaTool()
	if _, err := wiki.Execute(context.Background(), map[string]any{}); err == nil {
		t.Fatal("missing query must fail")
	}
}
