package toolbuiltin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

const defaultWikipediaEndpoint = "https://en.wikipedia.org/api/rest_v1/page/summary/"

var wikipediaSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "The topic to search for on Wikipedia",
		},
	},
	Required: []string{"query"},
}

// WikipediaTool returns article summaries from the Wikipedia REST API.
type WikipediaTool struct {
	client   *http.Client
	endpoint string
}

// NewWikipediaTool constructs a WikipediaTool against the English Wikipedia.
func NewWikipediaTool() *WikipediaTool {
	return NewWikipediaToolWithEndpoint(defaultWikipediaEndpoint, nil)
}

// NewWikipediaToolWithEndpoint constructs a WikipediaTool with a custom
// summary endpoint and HTTP client, primarily for testing.
func NewWikipediaToolWithEndpoint(endpoint string, client *http.Client) *WikipediaTool {
	if client == nil {
		client = &http.Client{Timeout: defaultSearchTimeout}
	}
	return &WikipediaTool{client: client, endpoint: endpoint}
}

func (t *WikipediaTool) Name() string { return "wikipedia_search" }

func (t *WikipediaTool) Description() string {
	return "Search Wikipedia for encyclopedic information about topics, people, places, concepts, etc. Returns a summary of the Wikipedia article."
}

func (t *WikipediaTool) Schema() *tool.JSONSchema { return wikipediaSchema }

type wikipediaSummary struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

func (t *WikipediaTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("wikipedia_search: query is required")
	}
	title := strings.ReplaceAll(query, " ", "_")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+url.PathEscape(title), nil)
	if err != nil {
		return "", fmt.Errorf("wikipedia_search: build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("wikipedia_search: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Sprintf("Wikipedia: No article found for '%s'. The page may not exist.", query), nil
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("wikipedia_search: unexpected status %d", resp.StatusCode)
	}
	var summary wikipediaSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return "", fmt.Errorf("wikipedia_search: decode response: %w", err)
	}
	if summary.Type == "disambiguation" {
		return fmt.Sprintf("Wikipedia disambiguation: Multiple articles match '%s'. Please be more specific.", query), nil
	}
	return fmt.Sprintf("Wikipedia: %s\n\n%s\n\nURL: %s", summary.Title, summary.Extract, summary.ContentURLs.Desktop.Page), nil
}
