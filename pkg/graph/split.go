package graph

import (
	"regexp"
	"strings"

	"github.com/OFFIS-RIT/pomelo/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkoukk/tiktoken-go"
)

var sentenceEnd = regexp.MustCompile(`([.!?])(\s+|$)`)

// SplitDocument splits a document's text into token-limited chunks on
// sentence boundaries. Each chunk carries the document identifier and
// provenance tag. A sentence longer than maxTokens becomes its own chunk
// rather than being cut mid-sentence.
func SplitDocument(
	docID string,
	institution string,
	text string,
	encoder string,
	maxTokens int,
) ([]common.Chunk, error) {
	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		return nil, err
	}
	if maxTokens <= 0 {
		maxTokens = 512
	}

	sentences := splitIntoSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	var chunks []common.Chunk
	var current []string
	currentTokens := 0

	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		id, err := gonanoid.New()
		if err != nil {
			return err
		}
		chunks = append(chunks, common.Chunk{
			ID:          id,
			DocID:       docID,
			Institution: institution,
			Text:        strings.Join(current, " "),
		})
		current = nil
		currentTokens = 0
		return nil
	}

	for _, sentence := range sentences {
		tokens := len(enc.Encode(sentence, nil, nil))
		if currentTokens+tokens > maxTokens && len(current) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		current = append(current, sentence)
		currentTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return chunks, nil
}

func splitIntoSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.Join(strings.Fields(block), " ")
		if block == "" {
			continue
		}

		last := 0
		for _, loc := range sentenceEnd.FindAllStringIndex(block, -1) {
			s := strings.TrimSpace(block[last:loc[1]])
			if s != "" {
				sentences = append(sentences, s)
			}
			last = loc[1]
		}
		if rest := strings.TrimSpace(block[last:]); rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}
