package council

import (
	"reflect"
	"testing"
)

func TestBordaScore(t *testing.T) {
	cases := []struct {
		position, total int
		want            float64
	}{
		{0, 3, 3},
		{1, 3, 2},
		{2, 3, 1},
		{0, 1, 1},
	}
	for _, tc := range cases {
		if got := BordaScore(tc.position, tc.total); got != tc.want {
			t.Fatalf("BordaScore(%d, %d) = %v, want %v", tc.position, tc.total, got, tc.want)
		}
	}
}

func TestAnonymizeSkipsFailedAndKeepsOrder(t *testing.T) {
	members := []string{"alpha", "beta", "gamma"}
	answers := map[string]ModelAnswer{
		"alpha": {Model: "alpha", Content: "first"},
		"beta":  {Model: "beta", Failed: true, Error: "timeout"},
		"gamma": {Model: "gamma", Content: "third"},
	}

	anonymized, labelToModel := Anonymize(members, answers)

	if len(anonymized) != 2 {
		t.Fatalf("expected 2 anonymized answers, got %d", len(anonymized))
	}
	if anonymized[0].Label != "Response A" || anonymized[0].Content != "first" {
		t.Fatalf("unexpected first entry: %+v", anonymized[0])
	}
	if anonymized[1].Label != "Response B" || anonymized[1].Content != "third" {
		t.Fatalf("labels must stay contiguous when a member fails: %+v", anonymized[1])
	}
	if labelToModel["Response A"] != "alpha" || labelToModel["Response B"] != "gamma" {
		t.Fatalf("unexpected mapping: %+v", labelToModel)
	}
}

func TestParseRanking(t *testing.T) {
	labelToModel := map[string]string{
		"Response A": "alpha",
		"Response B": "beta",
		"Response C": "gamma",
	}

	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "plain ranked list",
			text: "Analysis...\n\nFINAL RANKING:\n1. Response B\n2. Response A\n3. Response C\n",
			want: []string{"Response B", "Response A", "Response C"},
		},
		{
			name: "last marker wins",
			text: "FINAL RANKING: draft thoughts Response C\n\nActually, FINAL RANKING:\n1. Response A\n2. Response B",
			want: []string{"Response A", "Response B"},
		},
		{
			name: "case insensitive and duplicated",
			text: "final ranking\nresponse b, Response B, RESPONSE a",
			want: []string{"Response B", "Response A"},
		},
		{
			name: "unknown labels filtered",
			text: "FINAL RANKING:\n1. Response Z\n2. Response C",
			want: []string{"Response C"},
		},
		{
			name: "no marker falls back to whole text",
			text: "I prefer Response B over Response A.",
			want: []string{"Response B", "Response A"},
		},
		{
			name: "nothing parseable",
			text: "These were all great, hard to choose.",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseRanking(tc.text, labelToModel)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	members := []string{"alpha", "beta", "gamma"}
	labelToModel := map[string]string{
		"Response A": "alpha",
		"Response B": "beta",
		"Response C": "gamma",
	}

	t.Run("consensus order", func(t *testing.T) {
		submissions := []RankingSubmission{
			{Model: "alpha", Labels: []string{"Response B", "Response A", "Response C"}},
			{Model: "beta", Labels: []string{"Response B", "Response C", "Response A"}},
			{Model: "gamma", Labels: []string{"Response A", "Response B", "Response C"}},
		}

		aggregate := Aggregate(submissions, labelToModel, members, BordaScore)

		if !aggregate.Valid {
			t.Fatal("aggregate should be valid")
		}
		if aggregate.Scores["beta"] != 8 || aggregate.Scores["alpha"] != 6 || aggregate.Scores["gamma"] != 4 {
			t.Fatalf("unexpected scores: %+v", aggregate.Scores)
		}
		want := []string{"beta", "alpha", "gamma"}
		if !reflect.DeepEqual(aggregate.Order, want) {
			t.Fatalf("got order %v, want %v", aggregate.Order, want)
		}
	})

	t.Run("unparsed submissions contribute nothing", func(t *testing.T) {
		submissions := []RankingSubmission{
			{Model: "alpha", Labels: nil},
			{Model: "beta", Labels: []string{"Response A"}},
		}

		aggregate := Aggregate(submissions, labelToModel, members, nil)

		if !aggregate.Valid {
			t.Fatal("one parseable submission should keep the aggregate valid")
		}
		if aggregate.Scores["alpha"] != 1 {
			t.Fatalf("unexpected scores: %+v", aggregate.Scores)
		}
	})

	t.Run("nothing parseable", func(t *testing.T) {
		submissions := []RankingSubmission{
			{Model: "alpha", Labels: nil},
			{Model: "beta", Labels: nil},
		}

		aggregate := Aggregate(submissions, labelToModel, members, nil)

		if aggregate.Valid {
			t.Fatal("aggregate with no contributions must not be valid")
		}
		for m, s := range aggregate.Scores {
			if s != 0 {
				t.Fatalf("expected zero score for %s, got %v", m, s)
			}
		}
		if len(aggregate.Order) != 3 {
			t.Fatalf("every anonymized model should still appear in the order, got %v", aggregate.Order)
		}
	})

	t.Run("ties break by council order", func(t *testing.T) {
		submissions := []RankingSubmission{
			{Model: "alpha", Labels: []string{"Response C", "Response B", "Response A"}},
			{Model: "beta", Labels: []string{"Response A", "Response B", "Response C"}},
		}

		aggregate := Aggregate(submissions, labelToModel, members, BordaScore)

		// Everyone scores 4; the council roster decides the order.
		want := []string{"alpha", "beta", "gamma"}
		if !reflect.DeepEqual(aggregate.Order, want) {
			t.Fatalf("got order %v, want %v", aggregate.Order, want)
		}
	})
}
