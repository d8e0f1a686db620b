package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aidigest/internal/model"
	"aidigest/pkg/llm"
	"aidigest/pkg/news"
)

// Acquirer produces the stories for one calendar day.
type Acquirer interface {
	Name() string
	Acquire(ctx context.Context, day time.Time) ([]model.Story, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, candidates []model.Candidate) ([]model.Story, error)
}

// WebSearchAcquirer asks a search-enabled model for the day's stories in a
// single generation.
type WebSearchAcquirer struct {
	searcher llm.Searcher
}

func NewWebSearchAcquirer(searcher llm.Searcher) *WebSearchAcquirer {
	return &WebSearchAcquirer{searcher: searcher}
}

func (a *WebSearchAcquirer) Name() string {
	return "websearch:" + a.searcher.Name()
}

func (a *WebSearchAcquirer) Acquire(ctx context.Context, day time.Time) ([]model.Story, error) {
	content, err := a.searcher.Search(ctx, llm.WebSearchPrompt(model.DateKey(day)))
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", a.searcher.Name(), err)
	}
	return llm.ParseStories(content)
}

// ForumAcquirer ranks the forum's current front page and summarises the
// AI stories on it.
type ForumAcquirer struct {
	source     news.Source
	summarizer Summarizer
}

func NewForumAcquirer(source news.Source, summarizer Summarizer) *ForumAcquirer {
	return &ForumAcquirer{source: source, summarizer: summarizer}
}

func (a *ForumAcquirer) Name() string {
	return "forum:" + a.source.Name()
}

func (a *ForumAcquirer) Acquire(ctx context.Context, _ time.Time) ([]model.Story, error) {
	candidates, err := a.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", a.source.Name(), err)
	}
	return summarizeFiltered(ctx, a.summarizer, candidates, news.CurrentMinScore)
}

// HistoryAcquirer searches the forum index for stories created on a past
// day. Scores on older stories are lower, so the threshold is too.
type HistoryAcquirer struct {
	source     news.DatedSource
	summarizer Summarizer
}

func NewHistoryAcquirer(source news.DatedSource, summarizer Summarizer) *HistoryAcquirer {
	return &HistoryAcquirer{source: source, summarizer: summarizer}
}

func (a *HistoryAcquirer) Name() string {
	return "history:" + a.source.Name()
}

func (a *HistoryAcquirer) Acquire(ctx context.Context, day time.Time) ([]model.Story, error) {
	candidates, err := a.source.FetchDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("%s fetch %s: %w", a.source.Name(), model.DateKey(day), err)
	}
	return summarizeFiltered(ctx, a.summarizer, candidates, news.HistoricalMinScore)
}

func summarizeFiltered(ctx context.Context, summarizer Summarizer, candidates []model.Candidate, minScore int) ([]model.Story, error) {
	filtered := news.Filter(candidates, minScore, news.MaxCandidates)
	slog.Info("filtered candidates", "fetched", len(candidates), "kept", len(filtered), "min_score", minScore)

	if len(filtered) == 0 {
		return nil, fmt.Errorf("no AI stories scored above %d: %w", minScore, llm.ErrEmptyResult)
	}
	return summarizer.Summarize(ctx, filtered)
}
