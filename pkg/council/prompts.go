package council

import (
	"fmt"
	"strings"

	"github.com/llmcouncil/llmcouncil/pkg/model"
)

// stage1Messages builds the message sequence for the fan-out answer stage:
// the read-only conversation history plus the new user message.
func stage1Messages(history []model.Message, content string) []model.Message {
	messages := make([]model.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, model.User(content))
	return messages
}

// rankingPrompt asks a judge to evaluate the anonymized answers to the
// original question and close with a machine-parseable FINAL RANKING section.
func rankingPrompt(question string, answers []AnonymizedAnswer) string {
	var b strings.Builder
	b.WriteString("You are evaluating anonymized responses to a question. ")
	b.WriteString("Judge them on accuracy, completeness, and clarity. You may be ")
	b.WriteString("evaluating your own response without knowing it; stay impartial.\n\n")
	fmt.Fprintf(&b, "Original question:\n%s\n\n", question)
	b.WriteString("Responses:\n\n")
	for _, answer := range answers {
		fmt.Fprintf(&b, "%s:\n%s\n\n", answer.Label, answer.Content)
	}
	b.WriteString("First explain your evaluation of each response. Then end your reply with ")
	b.WriteString("a section starting with the exact line \"FINAL RANKING:\" followed by a ")
	b.WriteString("numbered list of the response labels from best to worst, for example:\n\n")
	b.WriteString("FINAL RANKING:\n1. Response B\n2. Response A\n")
	return b.String()
}

// synthesisPrompt gives the chairman the question, every council answer, and
// the ranking outcome, and asks for the single final response.
func synthesisPrompt(question string, stage1 []ModelAnswer, stage2 []RankingSubmission, aggregate AggregateRanking) string {
	var b strings.Builder
	b.WriteString("You are the chairman of an LLM council. Several models answered the ")
	b.WriteString("user's question independently and then ranked each other's anonymized ")
	b.WriteString("answers. Synthesize the single best final response to the user. Do not ")
	b.WriteString("mention the council process; just answer the question as well as possible.\n\n")
	fmt.Fprintf(&b, "User question:\n%s\n\n", question)

	b.WriteString("Council answers:\n\n")
	for _, answer := range stage1 {
		if answer.Failed {
			continue
		}
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", answer.Model, answer.Content)
	}

	if len(stage2) > 0 {
		b.WriteString("Peer rankings (best to worst):\n\n")
		for _, sub := range stage2 {
			if len(sub.Labels) == 0 {
				continue
			}
			fmt.Fprintf(&b, "%s ranked: %s\n", sub.Model, strings.Join(sub.Labels, ", "))
		}
		b.WriteString("\n")
	}

	if aggregate.Valid && len(aggregate.Order) > 0 {
		fmt.Fprintf(&b, "Aggregate consensus order: %s\n\n", strings.Join(aggregate.Order, ", "))
	}

	b.WriteString("Now write the final answer for the user.")
	return b.String()
}

// titlePrompt requests a short conversation title for the first user message.
func titlePrompt(content string) string {
	return fmt.Sprintf("Generate a very short title (3-6 words, no quotes, no trailing "+
		"punctuation) summarizing this message:\n\n%s", content)
}

// templateTitlePrompt requests a descriptive name for a prompt template body.
func templateTitlePrompt(body string) string {
	return fmt.Sprintf("Generate a short descriptive name (3-6 words, no quotes) for a "+
		"prompt template with this body:\n\n%s", body)
}
