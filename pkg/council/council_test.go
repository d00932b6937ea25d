package council

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/llmcouncil/llmcouncil/pkg/model"
	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

var testMembers = []string{"alpha", "beta", "gamma"}

// scriptedClient answers stage prompts deterministically: every healthy
// member echoes an answer, ranks Response A first, and the chairman
// synthesizes. Members in failStage1 error on answer requests.
func scriptedClient(failStage1 map[string]error) model.ClientFunc {
	return func(ctx context.Context, m string, messages []model.Message, tools []tool.Definition) (*model.Response, error) {
		prompt := messages[len(messages)-1].Content
		switch {
		case strings.Contains(prompt, "FINAL RANKING:") && strings.Contains(prompt, "anonymized"):
			return &model.Response{Content: fmt.Sprintf("All fine.\n\nFINAL RANKING:\n1. Response A\n2. Response B\n(by %s)", m)}, nil
		case strings.Contains(prompt, "chairman"):
			return &model.Response{Content: "synthesized final answer"}, nil
		case strings.Contains(prompt, "very short title"):
			return &model.Response{Content: "Test Conversation Title"}, nil
		default:
			if err := failStage1[m]; err != nil {
				return nil, err
			}
			return &model.Response{Content: "answer from " + m}, nil
		}
	}
}

func newTestCouncil(t *testing.T, client model.Client, opts ...Option) *Council {
	t.Helper()
	c, err := New(client, testMembers, "chairman-model", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewValidation(t *testing.T) {
	client := scriptedClient(nil)
	if _, err := New(nil, testMembers, "chair"); err == nil {
		t.Fatal("nil client must be rejected")
	}
	if _, err := New(client, nil, "chair"); err == nil {
		t.Fatal("empty council must be rejected")
	}
	if _, err := New(client, testMembers, ""); err == nil {
		t.Fatal("empty chairman must be rejected")
	}
}

func TestStage1FailedMemberKeepsRosterShape(t *testing.T) {
	client := scriptedClient(map[string]error{"beta": errors.New("endpoint down")})
	c := newTestCouncil(t, client)

	stage1, err := c.Stage1(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("Stage1: %v", err)
	}
	if len(stage1) != len(testMembers) {
		t.Fatalf("expected %d entries, got %d", len(testMembers), len(stage1))
	}
	for i, member := range testMembers {
		if stage1[i].Model != member {
			t.Fatalf("entry %d should belong to %s, got %s", i, member, stage1[i].Model)
		}
	}
	if !stage1[1].Failed || stage1[1].Error == "" {
		t.Fatalf("beta should carry a failure marker: %+v", stage1[1])
	}
	if stage1[0].Failed || stage1[2].Failed {
		t.Fatal("healthy members must be unaffected by beta's failure")
	}
}

func TestStage1AllFailed(t *testing.T) {
	client := scriptedClient(map[string]error{
		"alpha": errors.New("down"),
		"beta":  errors.New("down"),
		"gamma": errors.New("down"),
	})
	c := newTestCouncil(t, client)

	stage1, err := c.Stage1(context.Background(), "question", nil)
	if err == nil {
		t.Fatal("a fully failed council must surface an error")
	}
	if len(stage1) != len(testMembers) {
		t.Fatalf("failure markers should still be returned, got %d entries", len(stage1))
	}
}

func TestStage2RanksOnlyUsableAnswers(t *testing.T) {
	client := scriptedClient(map[string]error{"beta": errors.New("down")})
	c := newTestCouncil(t, client)

	stage1, err := c.Stage1(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("Stage1: %v", err)
	}
	stage2, labelToModel, aggregate, err := c.Stage2(context.Background(), "question", stage1)
	if err != nil {
		t.Fatalf("Stage2: %v", err)
	}

	if len(labelToModel) != 2 {
		t.Fatalf("only usable answers should be anonymized, got %+v", labelToModel)
	}
	if labelToModel["Response A"] != "alpha" || labelToModel["Response B"] != "gamma" {
		t.Fatalf("labels should follow council order: %+v", labelToModel)
	}
	// All three members still judge, including the one whose answer failed.
	if len(stage2) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(stage2))
	}
	for _, sub := range stage2 {
		if len(sub.Labels) != 2 {
			t.Fatalf("submission from %s should parse two labels, got %v", sub.Model, sub.Labels)
		}
	}
	if !aggregate.Valid {
		t.Fatal("aggregate should be valid")
	}
	if aggregate.Order[0] != "alpha" {
		t.Fatalf("alpha was unanimously ranked first, got %v", aggregate.Order)
	}
}

func TestStage2NoUsableAnswers(t *testing.T) {
	c := newTestCouncil(t, scriptedClient(nil))
	failed := []ModelAnswer{
		{Model: "alpha", Failed: true},
		{Model: "beta", Failed: true},
		{Model: "gamma", Failed: true},
	}
	if _, _, _, err := c.Stage2(context.Background(), "q", failed); err == nil {
		t.Fatal("ranking an empty answer set must fail")
	}
}

func TestStage3ChairmanFault(t *testing.T) {
	boom := errors.New("chairman offline")
	client := model.ClientFunc(func(ctx context.Context, m string, messages []model.Message, tools []tool.Definition) (*model.Response, error) {
		return nil, boom
	})
	c := newTestCouncil(t, client)

	_, err := c.Stage3(context.Background(), "q", nil, nil, AggregateRanking{})
	if err == nil || !errors.Is(err, boom) {
		t.Fatalf("chairman fault must propagate, got %v", err)
	}
}

func TestRunFullPipeline(t *testing.T) {
	client := scriptedClient(map[string]error{"beta": errors.New("down")})
	c := newTestCouncil(t, client)

	run, err := c.Run(context.Background(), "question", []model.Message{
		model.User("earlier question"),
		model.Assistant("earlier answer"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(run.Stage1) != 3 || len(run.Stage2) != 3 {
		t.Fatalf("unexpected stage sizes: %d / %d", len(run.Stage1), len(run.Stage2))
	}
	if run.Stage3.Model != "chairman-model" || run.Stage3.Content != "synthesized final answer" {
		t.Fatalf("unexpected synthesis: %+v", run.Stage3)
	}
	if !run.Aggregate.Valid {
		t.Fatal("aggregate should be valid")
	}
}

func TestGenerateTitle(t *testing.T) {
	c := newTestCouncil(t, scriptedClient(nil))

	title, err := c.GenerateTitle(context.Background(), "how do databases work?")
	if err != nil {
		t.Fatalf("GenerateTitle: %v", err)
	}
	if title != "Test Conversation Title" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`"Quoted Title"`, "Quoted Title"},
		{"First line\nSecond line", "First line"},
		{"  padded  ", "padded"},
		{strings.Repeat("x", 200), strings.Repeat("x", 80)},
	}
	for _, tc := range cases {
		if got := cleanTitle(tc.in); got != tc.want {
			t.Fatalf("cleanTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
