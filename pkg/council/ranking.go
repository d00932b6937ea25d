package council

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ScoreFunc assigns a positional score to a ranked label. position is
// zero-based (0 = best) and total is the number of labels the submission
// ranked. Higher scores are better.
type ScoreFunc func(position, total int) float64

// BordaScore is the default positional formula: the first of M ranked labels
// scores M, the last scores 1.
func BordaScore(position, total int) float64 {
	return float64(total - position)
}

// Anonymize assigns opaque labels ("Response A", "Response B", ...) to the
// usable answers in fixed council order and returns both the anonymized set
// and the label-to-model mapping kept aside for de-anonymization.
func Anonymize(members []string, answers map[string]ModelAnswer) ([]AnonymizedAnswer, map[string]string) {
	anonymized := make([]AnonymizedAnswer, 0, len(answers))
	labelToModel := make(map[string]string, len(answers))

	for _, member := range members {
		answer, ok := answers[member]
		if !ok || answer.Failed {
			continue
		}
		label := fmt.Sprintf("Response %c", 'A'+len(anonymized))
		anonymized = append(anonymized, AnonymizedAnswer{Label: label, Content: answer.Content})
		labelToModel[label] = member
	}
	return anonymized, labelToModel
}

var (
	finalRankingMarker = regexp.MustCompile(`(?i)final\s+ranking\s*:?`)
	labelPattern       = regexp.MustCompile(`(?i)response\s+([A-Z])\b`)
)

// ParseRanking extracts the ordered label list from a judge's free-form
// rationale. Judges are instructed to close with a "FINAL RANKING:" section;
// labels mentioned there are collected in order, deduplicated, and filtered
// against the known label set. A submission that yields no known label is
// simply unparseable, not an error.
func ParseRanking(text string, labelToModel map[string]string) []string {
	section := text
	if loc := finalRankingMarker.FindAllStringIndex(text, -1); len(loc) > 0 {
		section = text[loc[len(loc)-1][1]:]
	}

	seen := make(map[string]bool)
	var labels []string
	for _, match := range labelPattern.FindAllStringSubmatch(section, -1) {
		label := "Response " + strings.ToUpper(match[1])
		if seen[label] {
			continue
		}
		if _, known := labelToModel[label]; !known {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}

// Aggregate computes the consensus ordering across submissions. Submissions
// with no parsed labels contribute nothing; models missing from an individual
// submission are skipped for that submission only. When nothing contributes,
// every model scores zero and Valid is false so callers can distinguish the
// case from a unanimous tie.
func Aggregate(submissions []RankingSubmission, labelToModel map[string]string, members []string, score ScoreFunc) AggregateRanking {
	if score == nil {
		score = BordaScore
	}

	scores := make(map[string]float64, len(labelToModel))
	for _, m := range labelToModel {
		scores[m] = 0
	}

	valid := false
	for _, sub := range submissions {
		if len(sub.Labels) == 0 {
			continue
		}
		for pos, label := range sub.Labels {
			m, ok := labelToModel[label]
			if !ok {
				continue
			}
			scores[m] += score(pos, len(sub.Labels))
			valid = true
		}
	}

	order := make([]string, 0, len(scores))
	for m := range scores {
		order = append(order, m)
	}
	index := councilIndex(members)
	sort.SliceStable(order, func(i, j int) bool {
		if scores[order[i]] != scores[order[j]] {
			return scores[order[i]] > scores[order[j]]
		}
		return index[order[i]] < index[order[j]]
	})

	return AggregateRanking{Scores: scores, Order: order, Valid: valid}
}

func councilIndex(members []string) map[string]int {
	index := make(map[string]int, len(members))
	for i, m := range members {
		index[m] = i
	}
	return index
}
