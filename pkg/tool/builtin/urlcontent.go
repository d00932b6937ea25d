package toolbuiltin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

const (
	fetchUserAgent  = "Mozilla/5.0 (compatible; LLM-Council/1.0)"
	maxContentChars = 4000
)

var urlContentSchema = &tool.JSONSchema{
	Type: "object",
	Properties: map[string]interface{}{
		"url": map[string]interface{}{
			"type":        "string",
			"description": "The URL to fetch content from (must start with http:// or https://)",
		},
	},
	Required: []string{"url"},
}

// URLContentTool fetches a page and extracts its readable text.
type URLContentTool struct {
	client *http.Client
}

// NewURLContentTool constructs a URLContentTool.
func NewURLContentTool() *URLContentTool {
	return NewURLContentToolWithClient(nil)
}

// NewURLContentToolWithClient constructs a URLContentTool with a custom HTTP
// client, primarily for testing.
func NewURLContentToolWithClient(client *http.Client) *URLContentTool {
	if client == nil {
		client = &http.Client{Timeout: defaultSearchTimeout}
	}
	return &URLContentTool{client: client}
}

func (t *URLContentTool) Name() string { return "get_url_content" }

func (t *URLContentTool) Description() string {
	return "Fetch and extract readable text content from a URL. Use this to read articles, blog posts, or web pages."
}

func (t *URLContentTool) Schema() *tool.JSONSchema { return urlContentSchema }

func (t *URLContentTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	target, _ := args["url"].(string)
	target = strings.TrimSpace(target)
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return "", fmt.Errorf("get_url_content: URL must start with http:// or https://")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("get_url_content: build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get_url_content: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("get_url_content: HTTP %d - could not fetch URL", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("get_url_content: parse page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "No title"
	}

	doc.Find("script, style, nav, footer, header").Remove()
	content := doc.Find("main").First()
	if content.Length() == 0 {
		content = doc.Find("article").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		return "", fmt.Errorf("get_url_content: could not extract content from page")
	}

	text := collapseWhitespace(content.Text())
	if len(text) > maxContentChars {
		text = text[:maxContentChars] + "\n\n[Content truncated due to length...]"
	}
	return fmt.Sprintf("Content from: %s\nTitle: %s\n\n%s", target, title, text), nil
}

// collapseWhitespace trims every line and drops the empty ones so extracted
// page text stays compact.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
