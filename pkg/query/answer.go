package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/OFFIS-RIT/pomelo/pkg/ai"
	"github.com/OFFIS-RIT/pomelo/pkg/common"
)

var citationPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// Answer generates a grounded, cited answer from the final passage
// list. Citations reference chunk IDs in double brackets; citations the
// model invents for unknown IDs are stripped. An empty passage list
// produces a polite no-data reply instead of a hallucinated answer.
func (e *Engine) Answer(ctx context.Context, question string, passages []common.RankedPassage) (string, error) {
	if len(passages) == 0 {
		answer, err := e.client.GenerateCompletion(ctx, fmt.Sprintf(ai.NoDataPrompt, question))
		if err != nil {
			return "", fmt.Errorf("failed to generate no-data reply: %w", err)
		}
		return strings.TrimSpace(answer), nil
	}

	answer, err := e.client.GenerateCompletion(
		ctx,
		question,
		ai.WithSystemPrompts(fmt.Sprintf(ai.AnswerPrompt, formatPassages(passages))),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	valid := make(map[string]struct{}, len(passages))
	for _, p := range passages {
		valid[p.Chunk.ID] = struct{}{}
	}
	return normalizeCitations(strings.TrimSpace(answer), valid), nil
}

// formatPassages renders the context block handed to the answer model.
// Each passage is prefixed with the chunk ID the model must cite.
func formatPassages(passages []common.RankedPassage) string {
	var sb strings.Builder
	for _, p := range passages {
		sb.WriteString("[[")
		sb.WriteString(p.Chunk.ID)
		sb.WriteString("]]")
		if p.Chunk.Institution != "" {
			sb.WriteString(" (")
			sb.WriteString(p.Chunk.Institution)
			sb.WriteString(")")
		}
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(p.Chunk.Text))
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// normalizeCitations drops citations whose ID does not belong to any
// passage the answer was grounded on.
func normalizeCitations(answer string, valid map[string]struct{}) string {
	return citationPattern.ReplaceAllStringFunc(answer, func(m string) string {
		id := strings.TrimSpace(citationPattern.FindStringSubmatch(m)[1])
		if _, ok := valid[id]; ok {
			return "[[" + id + "]]"
		}
		return ""
	})
}
