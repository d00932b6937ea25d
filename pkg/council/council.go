package council

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/llmcouncil/llmcouncil/pkg/model"
	"github.com/llmcouncil/llmcouncil/pkg/tool"
)

// Council orchestrates the three-stage pipeline across a fixed ordered set of
// model endpoints. It holds no per-run state; one Council may serve many
// concurrent pipeline runs.
type Council struct {
	client   model.Client
	tools    *tool.Registry
	members  []string
	chairman string

	maxToolIterations int
	score             ScoreFunc
	logger            *slog.Logger
}

// Option customises a Council.
type Option func(*Council)

// WithTools enables Stage 1 tool calling through the given registry.
func WithTools(registry *tool.Registry) Option {
	return func(c *Council) { c.tools = registry }
}

// WithMaxToolIterations overrides the per-model tool loop bound.
func WithMaxToolIterations(n int) Option {
	return func(c *Council) {
		if n > 0 {
			c.maxToolIterations = n
		}
	}
}

// WithScoreFunc swaps the positional scoring formula used by the aggregator.
func WithScoreFunc(score ScoreFunc) Option {
	return func(c *Council) {
		if score != nil {
			c.score = score
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Council) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Council over the given client, member list, and chairman. The
// chairman does not have to be a council member.
func New(client model.Client, members []string, chairman string, opts ...Option) (*Council, error) {
	if client == nil {
		return nil, errors.New("council: model client is required")
	}
	if len(members) == 0 {
		return nil, errors.New("council: at least one member is required")
	}
	if chairman == "" {
		return nil, errors.New("council: chairman model is required")
	}

	c := &Council{
		client:            client,
		members:           append([]string(nil), members...),
		chairman:          chairman,
		maxToolIterations: DefaultMaxToolIterations,
		score:             BordaScore,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Members returns the council roster in fixed order.
func (c *Council) Members() []string {
	return append([]string(nil), c.members...)
}

// Chairman returns the synthesis model identifier.
func (c *Council) Chairman() string {
	return c.chairman
}

// Stage1 fans the user message out to every member with tools enabled and
// returns one entry per member in council order; failed members carry an
// absent marker. It errors only when the entire council failed.
func (c *Council) Stage1(ctx context.Context, content string, history []model.Message) ([]ModelAnswer, error) {
	messages := stage1Messages(history, content)
	loop := NewQueryLoop(c.client, c.tools, c.maxToolIterations, c.logger)
	outcomes := FanOut(ctx, c.members, messages, loop.Run)

	answers := make([]ModelAnswer, 0, len(c.members))
	usable := 0
	for _, member := range c.members {
		outcome := outcomes[member]
		answers = append(answers, outcome.Answer)
		if outcome.Usable() {
			usable++
		}
	}
	c.logger.Info("stage1 complete", "council", len(c.members), "answered", usable)

	if usable == 0 {
		return answers, errors.New("council: every member failed to answer")
	}
	return answers, nil
}

// Stage2 anonymizes the Stage 1 answers, collects a ranking from every
// member with tools disabled, and aggregates the result. The label-to-model
// mapping is returned for de-anonymization by the caller.
func (c *Council) Stage2(ctx context.Context, content string, stage1 []ModelAnswer) ([]RankingSubmission, map[string]string, AggregateRanking, error) {
	byModel := make(map[string]ModelAnswer, len(stage1))
	for _, answer := range stage1 {
		byModel[answer.Model] = answer
	}
	anonymized, labelToModel := Anonymize(c.members, byModel)
	if len(anonymized) == 0 {
		return nil, nil, AggregateRanking{}, errors.New("council: no answers available to rank")
	}

	prompt := rankingPrompt(content, anonymized)
	outcomes := FanOut(ctx, c.members, []model.Message{model.User(prompt)}, func(ctx context.Context, modelID string, messages []model.Message) Outcome {
		// Ranking is a closed-form judgment task: a single call, no tools.
		resp, err := c.client.Send(ctx, modelID, messages, nil)
		if err != nil {
			return Outcome{Kind: OutcomeAbsent, Answer: ModelAnswer{Model: modelID, Failed: true, Error: err.Error()}, Err: err}
		}
		return Outcome{Kind: OutcomeAnswer, Answer: ModelAnswer{Model: modelID, Content: resp.Content, Reasoning: resp.Reasoning}}
	})

	submissions := make([]RankingSubmission, 0, len(c.members))
	for _, member := range c.members {
		outcome := outcomes[member]
		if !outcome.Usable() {
			continue
		}
		submissions = append(submissions, RankingSubmission{
			Model:   member,
			Ranking: outcome.Answer.Content,
			Labels:  ParseRanking(outcome.Answer.Content, labelToModel),
		})
	}

	aggregate := Aggregate(submissions, labelToModel, c.members, c.score)
	c.logger.Info("stage2 complete", "submissions", len(submissions), "valid", aggregate.Valid)
	return submissions, labelToModel, aggregate, nil
}

// Stage3 sends the synthesis prompt once to the chairman. A chairman
// transport fault is a pipeline fault, not a per-model degradation.
func (c *Council) Stage3(ctx context.Context, content string, stage1 []ModelAnswer, stage2 []RankingSubmission, aggregate AggregateRanking) (SynthesisResult, error) {
	prompt := synthesisPrompt(content, stage1, stage2, aggregate)
	resp, err := c.client.Send(ctx, c.chairman, []model.Message{model.User(prompt)}, nil)
	if err != nil {
		return SynthesisResult{}, fmt.Errorf("council: chairman synthesis failed: %w", err)
	}
	c.logger.Info("stage3 complete", "chairman", c.chairman)
	return SynthesisResult{Model: c.chairman, Content: resp.Content}, nil
}

// Run executes the full pipeline and returns the complete result, or an
// error with no partially populated result.
func (c *Council) Run(ctx context.Context, content string, history []model.Message) (*PipelineRun, error) {
	stage1, err := c.Stage1(ctx, content, history)
	if err != nil {
		return nil, err
	}
	stage2, labelToModel, aggregate, err := c.Stage2(ctx, content, stage1)
	if err != nil {
		return nil, err
	}
	stage3, err := c.Stage3(ctx, content, stage1, stage2, aggregate)
	if err != nil {
		return nil, err
	}
	return &PipelineRun{
		Stage1:       stage1,
		Stage2:       stage2,
		LabelToModel: labelToModel,
		Aggregate:    aggregate,
		Stage3:       stage3,
	}, nil
}
