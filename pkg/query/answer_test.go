package query

import (
	"context"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

func TestAnswerCitesOnlyKnownPassages(t *testing.T) {
	client := &stubClient{
		completion: "Einstein was born in Germany [[c3]] according to records [[bogus]].",
	}
	e := NewEngine(NewEngineParams{Client: client})

	passages := []common.RankedPassage{
		{Chunk: &common.Chunk{ID: "c3", Text: "Einstein was born in Germany in 1879."}, Score: 1},
	}
	answer, err := e.Answer(context.Background(), "Where was Einstein born?", passages)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !strings.Contains(answer, "[[c3]]") {
		t.Errorf("answer lost a valid citation: %q", answer)
	}
	if strings.Contains(answer, "bogus") {
		t.Errorf("answer kept an invented citation: %q", answer)
	}
}

func TestAnswerEmptyPassagesUsesNoDataReply(t *testing.T) {
	client := &stubClient{completion: "This information is not available."}
	e := NewEngine(NewEngineParams{Client: client})

	answer, err := e.Answer(context.Background(), "Where was Einstein born?", nil)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer == "" {
		t.Error("empty no-data reply")
	}
}

func TestFormatPassagesIncludesIDAndProvenance(t *testing.T) {
	passages := []common.RankedPassage{
		{Chunk: &common.Chunk{ID: "u1", Institution: "udvash", Text: "Exam schedule."}, Score: 1},
		{Chunk: &common.Chunk{ID: "n1", Text: "Course list."}, Score: 0.5},
	}

	got := formatPassages(passages)
	for _, want := range []string{"[[u1]]", "(udvash)", "Exam schedule.", "[[n1]]", "Course list."} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted context missing %q:\n%s", want, got)
		}
	}
}

func TestNormalizeCitations(t *testing.T) {
	valid := map[string]struct{}{"c1": {}, "c2": {}}

	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{
			name:   "keeps valid",
			answer: "Fact one [[c1]]. Fact two [[c2]].",
			want:   "Fact one [[c1]]. Fact two [[c2]].",
		},
		{
			name:   "drops unknown",
			answer: "Fact [[c9]].",
			want:   "Fact .",
		},
		{
			name:   "trims citation whitespace",
			answer: "Fact [[ c1 ]].",
			want:   "Fact [[c1]].",
		},
		{
			name:   "plain text untouched",
			answer: "No citations here.",
			want:   "No citations here.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeCitations(tt.answer, valid); got != tt.want {
				t.Errorf("normalizeCitations() = %q, want %q", got, tt.want)
			}
		})
	}
}
