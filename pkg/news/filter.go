package news

import (
	"html"
	"sort"
	"strings"

	"aidigest/internal/model"

	"github.com/microcosm-cc/bluemonday"
)

const (
	CurrentMinScore    = 50
	HistoricalMinScore = 10
	MaxCandidates      = 12
)

var aiKeywords = []string{
	"ai", "a.i.", "artificial intelligence", "llm", "gpt", "chatgpt", "openai",
	"anthropic", "claude", "gemini", "deepmind", "copilot", "mistral", "llama",
	"grok", "hugging face", "huggingface", "machine learning", "deep learning",
	"neural", "transformer", "diffusion", "nvidia", "agi", "inference",
	"fine-tun", "embedding", "chatbot",
}

var textPolicy = bluemonday.StrictPolicy()

// IsAIRelated reports whether title contains any allow-listed term,
// case-insensitively.
func IsAIRelated(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range aiKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Filter keeps AI-related candidates scoring strictly above minScore,
// highest score first, at most limit of them.
func Filter(candidates []model.Candidate, minScore, limit int) []model.Candidate {
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score <= minScore || !IsAIRelated(c.Title) {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func plainText(s string) string {
	if s == "" {
		return ""
	}
	// Hacker News separates paragraphs with a bare <p>.
	s = strings.ReplaceAll(s, "<p>", " <p>")
	return strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(s))), " ")
}
