package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"aidigest/internal/model"
)

const (
	StrategySelect = "select"
	StrategyEcho   = "echo"
)

// RawStory is one object of the model's JSON array. Index is the 1-based
// candidate number for the select strategy and zero otherwise.
type RawStory struct {
	Index    int    `json:"index,omitempty"`
	Headline string `json:"headline"`
	Tag      string `json:"tag"`
	Summary  string `json:"summary"`
	URL      string `json:"url,omitempty"`
}

// Strategy decides how candidates map onto summarized stories.
type Strategy interface {
	Name() string
	Limit() int
	System(n int) string
	// Attach copies candidate data (URLs) onto the model output using a
	// stable correlation key, never by matching titles.
	Attach(raw []RawStory, candidates []model.Candidate) ([]RawStory, error)
}

// SelectStrategy lets the model choose 6-12 of up to 12 candidates and
// correlates by the returned index.
type SelectStrategy struct{}

func (SelectStrategy) Name() string { return StrategySelect }

func (SelectStrategy) Limit() int { return 12 }

func (SelectStrategy) System(int) string { return selectSystemPrompt }

func (SelectStrategy) Attach(raw []RawStory, candidates []model.Candidate) ([]RawStory, error) {
	seen := make(map[int]bool, len(raw))
	out := make([]RawStory, 0, len(raw))
	for _, r := range raw {
		if r.Index < 1 || r.Index > len(candidates) {
			slog.Warn("summary references unknown candidate, keeping without url", "index", r.Index, "headline", r.Headline)
			r.URL = ""
			out = append(out, r)
			continue
		}
		if seen[r.Index] {
			slog.Warn("summary repeats a candidate, dropping", "index", r.Index)
			continue
		}
		seen[r.Index] = true
		r.URL = candidates[r.Index-1].URL
		out = append(out, r)
	}
	return out, nil
}

// EchoStrategy summarizes every one of up to 8 candidates in input order
// and correlates by position.
type EchoStrategy struct{}

func (EchoStrategy) Name() string { return StrategyEcho }

func (EchoStrategy) Limit() int { return 8 }

func (EchoStrategy) System(n int) string {
	return fmt.Sprintf(echoSystemPrompt, n, storyShape)
}

func (EchoStrategy) Attach(raw []RawStory, candidates []model.Candidate) ([]RawStory, error) {
	if len(raw) != len(candidates) {
		return nil, fmt.Errorf("expected %d stories in input order, got %d", len(candidates), len(raw))
	}
	out := make([]RawStory, len(raw))
	for i, r := range raw {
		r.URL = candidates[i].URL
		out[i] = r
	}
	return out, nil
}

func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "", StrategySelect:
		return SelectStrategy{}, nil
	case StrategyEcho:
		return EchoStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown summary strategy %q", name)
	}
}

type Summarizer struct {
	client   Client
	strategy Strategy
}

func NewSummarizer(client Client, strategy Strategy) *Summarizer {
	return &Summarizer{client: client, strategy: strategy}
}

func (s *Summarizer) Strategy() string {
	return s.strategy.Name()
}

// Summarize turns ranked candidates into validated stories. Candidates past
// the strategy limit are ignored.
func (s *Summarizer) Summarize(ctx context.Context, candidates []model.Candidate) ([]model.Story, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates to summarize: %w", ErrEmptyResult)
	}
	if len(candidates) > s.strategy.Limit() {
		candidates = candidates[:s.strategy.Limit()]
	}

	content, err := s.client.Complete(ctx, Request{
		System:    s.strategy.System(len(candidates)),
		Prompt:    formatCandidates(candidates),
		MaxTokens: digestMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s summarize: %w", s.client.Name(), err)
	}

	var raw []RawStory
	if err := ExtractJSONArray(content, &raw); err != nil {
		return nil, err
	}

	attached, err := s.strategy.Attach(raw, candidates)
	if err != nil {
		return nil, newParseError(content, err)
	}

	return ValidateStories(attached)
}

// ParseStories extracts and validates a story array from a web search
// generation, which has no candidates to correlate with.
func ParseStories(content string) ([]model.Story, error) {
	var raw []RawStory
	if err := ExtractJSONArray(content, &raw); err != nil {
		return nil, err
	}
	for i := range raw {
		raw[i].URL = strings.TrimSpace(raw[i].URL)
	}
	return ValidateStories(raw)
}

// ValidateStories drops stories without a headline, with an unknown tag or
// with nothing left to say after cleaning. Order is preserved.
func ValidateStories(raw []RawStory) ([]model.Story, error) {
	stories := make([]model.Story, 0, len(raw))
	var rejected []error

	for i, r := range raw {
		headline := CleanText(r.Headline)
		if headline == "" {
			rejected = append(rejected, fmt.Errorf("story %d: empty headline", i))
			continue
		}

		tag, err := model.ParseTag(r.Tag)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("story %d: %w", i, err))
			continue
		}

		summary := CleanText(r.Summary)
		if summary == "" {
			rejected = append(rejected, fmt.Errorf("story %d: empty summary", i))
			continue
		}

		stories = append(stories, model.Story{
			Headline: headline,
			Tag:      tag,
			Summary:  summary,
			URL:      r.URL,
		})
	}

	if len(rejected) > 0 {
		slog.Warn("rejected invalid stories", "count", len(rejected), "error", errors.Join(rejected...))
	}

	if len(stories) == 0 {
		return nil, ErrEmptyResult
	}
	return stories, nil
}
