package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/palimpsest/internal/core/domain"
	"github.com/custodia-labs/palimpsest/internal/core/ports/driven"
)

// Verify interface compliance.
var (
	_ driven.AnswerGenerator  = (*ExtractiveGenerator)(nil)
	_ driven.AnswerGenerator  = (*LLMGenerator)(nil)
	_ driven.PromptStoreAware = (*LLMGenerator)(nil)
)

// UncertainAnswer is returned when nothing retrieved is relevant enough.
const UncertainAnswer = "I could not find enough relevant information in the indexed documents to answer this confidently."

// maxExtractiveSentences bounds the extractive answer.
const maxExtractiveSentences = 3

// ExtractiveGenerator answers by quoting the retrieved sentences that share
// the most terms with the question. It needs no model.
type ExtractiveGenerator struct{}

// NewExtractiveGenerator creates an extractive answer generator.
func NewExtractiveGenerator() *ExtractiveGenerator {
	return &ExtractiveGenerator{}
}

// Name returns "extractive".
func (g *ExtractiveGenerator) Name() string { return "extractive" }

// Answer quotes up to three sentences, each attributed to its document.
func (g *ExtractiveGenerator) Answer(_ context.Context, question string, chunks []domain.RetrievedChunk) (string, error) {
	if len(chunks) == 0 {
		return UncertainAnswer, nil
	}
	terms := questionTerms(question)

	type candidate struct {
		docID    string
		sentence string
		overlap  int
		rank     int
	}
	var best []candidate
	seen := make(map[string]bool)
	for rank, rc := range chunks {
		for _, s := range splitSentences(rc.Chunk.Content) {
			sentence := strings.Join(strings.Fields(s.text), " ")
			if sentence == "" || seen[sentence] {
				continue
			}
			seen[sentence] = true
			best = append(best, candidate{
				docID: rc.Chunk.DocumentID, sentence: sentence,
				overlap: termOverlap(sentence, terms), rank: rank,
			})
		}
	}

	// Highest overlap first; retrieval rank breaks ties.
	sort.SliceStable(best, func(i, j int) bool {
		if best[i].overlap != best[j].overlap {
			return best[i].overlap > best[j].overlap
		}
		return best[i].rank < best[j].rank
	})

	lines := make([]string, 0, maxExtractiveSentences)
	for _, c := range best {
		if len(lines) == maxExtractiveSentences {
			break
		}
		if c.overlap == 0 && len(lines) > 0 {
			break
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", c.docID, c.sentence))
	}
	if len(lines) == 0 {
		return UncertainAnswer, nil
	}
	return strings.Join(lines, "\n"), nil
}

// questionTerms returns the distinct lowercase words of at least three runes.
func questionTerms(question string) map[string]bool {
	terms := make(map[string]bool)
	for _, f := range strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(f)) >= 3 {
			terms[f] = true
		}
	}
	return terms
}

func termOverlap(sentence string, terms map[string]bool) int {
	lower := strings.ToLower(sentence)
	n := 0
	for t := range terms {
		if strings.Contains(lower, t) {
			n++
		}
	}
	return n
}

// defaultAnswerSystemPrompt is the fallback when no PromptStore is configured.
const defaultAnswerSystemPrompt = `You answer questions about historical documents using only the passages provided.
Cite the document ID in square brackets after each claim, e.g. [DOC-1892-001].
If the passages do not contain the answer, say that you do not know. Never invent facts, names or dates.`

// defaultAnswerPrompt is the fallback when no PromptStore is configured.
const defaultAnswerPrompt = `Passages:
%s

Question: %s
Answer:`

// LLMGenerator answers with a language model grounded in the retrieved passages.
type LLMGenerator struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	maxTokens   int
}

// NewLLMGenerator creates an LLM-backed answer generator.
func NewLLMGenerator(llm driven.LLMService) *LLMGenerator {
	return &LLMGenerator{llm: llm, maxTokens: 1024}
}

// Name returns the generator and model name.
func (g *LLMGenerator) Name() string {
	if g.llm == nil {
		return "llm"
	}
	return "llm:" + g.llm.ModelName()
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (g *LLMGenerator) SetPromptStore(store driven.PromptStore) {
	g.promptStore = store
}

// Answer asks the model to answer from the numbered passages.
func (g *LLMGenerator) Answer(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error) {
	if g.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	var passages strings.Builder
	for i, rc := range chunks {
		fmt.Fprintf(&passages, "%d. [%s] %s\n\n", i+1, rc.Chunk.DocumentID, strings.TrimSpace(rc.Chunk.Content))
	}

	prompt := fmt.Sprintf(g.loadPrompt(driven.PromptAnswer, defaultAnswerPrompt), strings.TrimSpace(passages.String()), question)
	answer, err := g.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   g.maxTokens,
		Temperature: 0,
		System:      g.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystemPrompt),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", domain.ErrLLMUnavailable)
	}
	return answer, nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (g *LLMGenerator) loadPrompt(name, fallback string) string {
	if g.promptStore == nil {
		return fallback
	}
	prompt, err := g.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}
