package council

// ToolCallRecord is one completed tool invocation made by a model while it
// worked on its Stage 1 answer. Records are append-only.
type ToolCallRecord struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    string         `json:"result"`
}

// ModelAnswer is one council member's Stage 1 output. Failed marks the
// absent-answer case where the endpoint call produced nothing usable; such
// entries still appear in the stage result so the caller sees the full
// council roster.
type ModelAnswer struct {
	Model     string           `json:"model"`
	Content   string           `json:"response"`
	Reasoning string           `json:"reasoning,omitempty"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
	Failed    bool             `json:"failed,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// AnonymizedAnswer hides the producing model behind an opaque label for
// cross-ranking.
type AnonymizedAnswer struct {
	Label   string `json:"label"`
	Content string `json:"response"`
}

// RankingSubmission is one judge's ordering of the anonymized answers.
// Ranking preserves the raw rationale text; Labels holds the parsed order,
// best first, with unresolvable labels already filtered out.
type RankingSubmission struct {
	Model   string   `json:"model"`
	Ranking string   `json:"ranking"`
	Labels  []string `json:"parsed_ranking"`
}

// AggregateRanking is the consensus over all valid submissions. Valid is
// false when no submission contributed any parseable label, which is distinct
// from a genuine unanimous tie.
type AggregateRanking struct {
	Scores map[string]float64 `json:"scores"`
	Order  []string           `json:"order"`
	Valid  bool               `json:"valid"`
}

// SynthesisResult is the chairman's final Stage 3 answer.
type SynthesisResult struct {
	Model   string `json:"model"`
	Content string `json:"response"`
}

// PipelineRun bundles the outputs of one full three-stage turn.
type PipelineRun struct {
	Stage1       []ModelAnswer       `json:"stage1"`
	Stage2       []RankingSubmission `json:"stage2"`
	LabelToModel map[string]string   `json:"label_to_model"`
	Aggregate    AggregateRanking    `json:"aggregate_rankings"`
	Stage3       SynthesisResult     `json:"stage3"`
}

// OutcomeKind classifies how one model's query loop terminated.
type OutcomeKind int

const (
	// OutcomeAnswer is a clean final answer.
	OutcomeAnswer OutcomeKind = iota
	// OutcomeBudget means the iteration bound was hit while the model still
	// wanted tools; the advisory fallback answer is returned. Terminal but
	// not an error.
	OutcomeBudget
	// OutcomeDegraded means the endpoint failed after at least one tool call
	// was already executed; the answer embeds the trace and the failure.
	OutcomeDegraded
	// OutcomeAbsent means the endpoint failed before anything was produced.
	OutcomeAbsent
)

// Outcome is the per-model result of a query loop run. Answer is meaningful
// for every kind except OutcomeAbsent; Err is set for degraded and absent
// outcomes.
type Outcome struct {
	Kind   OutcomeKind
	Answer ModelAnswer
	Err    error
}

// Usable reports whether the outcome carries answer content that downstream
// stages may consume.
func (o Outcome) Usable() bool {
	return o.Kind != OutcomeAbsent
}
