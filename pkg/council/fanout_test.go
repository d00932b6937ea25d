package council

import (
	"context"
	"testing"

	"github.com/llmcouncil/llmcouncil/pkg/model"
)

func TestFanOutJoinsAllMembers(t *testing.T) {
	members := []string{"alpha", "beta", "gamma"}

	outcomes := FanOut(context.Background(), members, []model.Message{model.User("q")}, func(ctx context.Context, modelID string, messages []model.Message) Outcome {
		if modelID == "beta" {
			return Outcome{Kind: OutcomeAbsent, Answer: ModelAnswer{Model: modelID, Failed: true, Error: "down"}}
		}
		return Outcome{Kind: OutcomeAnswer, Answer: ModelAnswer{Model: modelID, Content: "ok"}}
	})

	if len(outcomes) != len(members) {
		t.Fatalf("expected %d outcomes, got %d", len(members), len(outcomes))
	}
	for _, member := range members {
		if _, ok := outcomes[member]; !ok {
			t.Fatalf("missing outcome for %s", member)
		}
	}
	if outcomes["beta"].Usable() {
		t.Fatal("beta's failure should be reflected in its outcome")
	}
	if !outcomes["alpha"].Usable() || !outcomes["gamma"].Usable() {
		t.Fatal("one member's failure must not affect the others")
	}
}

func TestFanOutGivesEachMemberAPrivateTranscript(t *testing.T) {
	members := []string{"alpha", "beta"}
	shared := []model.Message{model.User("q")}

	seen := FanOut(context.Background(), members, shared, func(ctx context.Context, modelID string, messages []model.Message) Outcome {
		// Mutating the received slice must never leak into siblings.
		messages[0].Content = "mutated by " + modelID
		return Outcome{Kind: OutcomeAnswer, Answer: ModelAnswer{Model: modelID, Content: messages[0].Content}}
	})

	if shared[0].Content != "q" {
		t.Fatalf("shared messages were mutated: %q", shared[0].Content)
	}
	if seen["alpha"].Answer.Content != "mutated by alpha" || seen["beta"].Answer.Content != "mutated by beta" {
		t.Fatalf("each member should see only its own mutation: %+v", seen)
	}
}
