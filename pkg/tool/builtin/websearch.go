package toolbuiltin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

const (
	defaultTavilyEndpoint     = "https://api.tavily.com/search"
	defaultDuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"
	defaultSearchTimeout      = 30 * time.Second
	maxSearchResults          = 5
)

var webSearchSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "The search query to look up on the web",
		},
	},
	Required: []string{"query"},
}

// WebSearchTool searches the web via the Tavily API, falling back to
// DuckDuckGo's HTML endpoint when no API key is configured or Tavily fails.
type WebSearchTool struct {
	apiKey         string
	client         *http.Client
	tavilyEndpoint string
	fallbackURL    string
}

// NewWebSearchTool constructs a WebSearchTool. An empty apiKey disables
// Tavily and uses the DuckDuckGo fallback directly.
func NewWebSearchTool(apiKey string) *WebSearchTool {
	return NewWebSearchToolWithEndpoints(apiKey, defaultTavilyEndpoint, defaultDuckDuckGoEndpoint, nil)
}

// NewWebSearchToolWithEndpoints constructs a WebSearchTool with custom
// endpoints and HTTP client, primarily for testing.
func NewWebSearchToolWithEndpoints(apiKey, tavilyEndpoint, fallbackURL string, client *http.Client) *WebSearchTool {
	if client == nil {
		client = &http.Client{Timeout: defaultSearchTimeout}
	}
	return &WebSearchTool{
		apiKey:         apiKey,
		client:         client,
		tavilyEndpoint: tavilyEndpoint,
		fallbackURL:    fallbackURL,
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for current information, news, or real-time data. Use this when you need up-to-date information that may not be in your training data."
}

func (t *WebSearchTool) Schema() *tool.JSONSchema { return webSearchSchema }

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("web_search: query is required")
	}
	if t.apiKey != "" {
		result, err := t.searchTavily(ctx, query)
		if err == nil {
			return result, nil
		}
		// Tavily outages should not cost the model its search capability.
	}
	return t.searchDuckDuckGo(ctx, query)
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (t *WebSearchTool) searchTavily(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  maxSearchResults,
	})
	if err != nil {
		return "", fmt.Errorf("web_search: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tavilyEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("web_search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("web_search: tavily request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("web_search: tavily returned status %d", resp.StatusCode)
	}
	var body tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("web_search: decode response: %w", err)
	}
	if len(body.Results) == 0 {
		return "No results found.", nil
	}
	entries := make([]string, 0, len(body.Results))
	for i, r := range body.Results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		entries = append(entries, fmt.Sprintf("%d. %s\n   URL: %s\n   %s", i+1, title, r.URL, r.Content))
	}
	return "Web search results:\n\n" + strings.Join(entries, "\n\n"), nil
}

func (t *WebSearchTool) searchDuckDuckGo(ctx context.Context, query string) (string, error) {
	endpoint := t.fallbackURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("web_search: build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("web_search: duckduckgo request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("web_search: duckduckgo returned status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("web_search: parse results: %w", err)
	}
	var entries []string
	doc.Find(".result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(entries) >= maxSearchResults {
			return false
		}
		link := s.Find(".result__a").First()
		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = "No title"
		}
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(s.Find(".result__snippet").First().Text())
		entries = append(entries, fmt.Sprintf("%d. %s\n   URL: %s\n   %s", len(entries)+1, title, href, snippet))
		return true
	})
	if len(entries) == 0 {
		return "No results found.", nil
	}
	return "Web search results:\n\n" + strings.Join(entries, "\n\n"), nil
}
