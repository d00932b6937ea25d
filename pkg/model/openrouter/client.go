package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/llmcouncil/llmcouncil/pkg/model"
	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

// Ensure Client satisfies the model.Client interface at compile time.
var _ model.Client = (*Client)(nil)

// Client talks to the OpenRouter chat-completions API over plain HTTP.
type Client struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	reasoning *ReasoningOptions
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout adjusts the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithReasoning overrides the reasoning options attached to every request.
// Passing nil disables the reasoning block entirely.
func WithReasoning(opts *ReasoningOptions) Option {
	return func(c *Client) {
		c.reasoning = opts
	}
}

// NewClient creates an OpenRouter client with the given API key.
func NewClient(apiKey string, options ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	c := &Client{
		client:    &http.Client{Timeout: defaultHTTPTimeout * time.Second},
		baseURL:   defaultBaseURL,
		apiKey:    apiKey,
		reasoning: &ReasoningOptions{Effort: "high", Exclude: true},
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// Send performs a blocking chat-completion call against the named model.
func (c *Client) Send(ctx context.Context, modelID string, messages []model.Message, tools []tool.Definition) (*model.Response, error) {
	payload := ChatRequest{
		Model:     modelID,
		Messages:  messages,
		Tools:     tools,
		Reasoning: c.reasoning,
	}

	resp, err := c.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, readAPIError(resp)
	}

	var chat ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("openrouter: decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("openrouter: response contains no choices")
	}

	msg := chat.Choices[0].Message
	return &model.Response{
		Content:   msg.Content,
		Reasoning: msg.Reasoning,
		ToolCalls: msg.ToolCalls,
	}, nil
}

func (c *Client) doRequest(ctx context.Context, payload ChatRequest) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("openrouter: encode request: %w", err)
	}

	endpoint := c.baseURL + completionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("openrouter: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	return c.client.Do(req)
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("openrouter: status %d: %w", resp.StatusCode, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var apiErr ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return APIError{StatusCode: resp.StatusCode, Message: apiErr.Error.Message}
	}
	return APIError{StatusCode: resp.StatusCode, Message: string(body)}
}
