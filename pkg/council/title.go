package council

import (
	"context"
	"strings"

	"github.com/llmcouncil/llmcouncil/pkg/model"
)

const maxTitleLength = 80

// GenerateTitle asks the chairman model for a short conversation title based
// on the first user message. The result is a single cleaned-up line.
func (c *Council) GenerateTitle(ctx context.Context, content string) (string, error) {
	return c.generateTitle(ctx, titlePrompt(content))
}

// GenerateTemplateTitle asks the chairman model to name a prompt template
// from its body text.
func (c *Council) GenerateTemplateTitle(ctx context.Context, body string) (string, error) {
	return c.generateTitle(ctx, templateTitlePrompt(body))
}

func (c *Council) generateTitle(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Send(ctx, c.chairman, []model.Message{model.User(prompt)}, nil)
	if err != nil {
		return "", err
	}
	return cleanTitle(resp.Content), nil
}

// cleanTitle normalizes model output into a single short line: the first
// non-empty line, stripped of surrounding quotes, capped in length.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)
	if len(title) > maxTitleLength {
		title = strings.TrimSpace(title[:maxTitleLength])
	}
	return title
}
