package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"aidigest/internal/model"

	"golang.org/x/sync/errgroup"
)

const (
	algoliaBaseURL = "https://hn.algolia.com/api/v1"
	hitsPerQuery   = 50
)

var historyQueries = []string{"AI", "LLM", "OpenAI", "Anthropic", "GPT", "machine learning"}

// AlgoliaClient searches the Hacker News full-text index for stories
// created within one calendar day.
type AlgoliaClient struct {
	baseURL    string
	httpClient *http.Client
	queries    []string
}

func NewAlgoliaClient() *AlgoliaClient {
	return &AlgoliaClient{
		baseURL:    algoliaBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		queries:    historyQueries,
	}
}

func (c *AlgoliaClient) Name() string {
	return "Algolia"
}

// FetchDay runs every query concurrently and merges the hits by id. A
// failed query is dropped unless all of them fail.
func (c *AlgoliaClient) FetchDay(ctx context.Context, day time.Time) ([]model.Candidate, error) {
	start := model.StartOfDay(day)
	end := start.AddDate(0, 0, 1)

	results := make([][]model.Candidate, len(c.queries))
	errs := make([]error, len(c.queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range c.queries {
		g.Go(func() error {
			results[i], errs[i] = c.search(gctx, q, start, end)
			return nil
		})
	}
	g.Wait()

	var merged []model.Candidate
	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			slog.Warn("algolia query failed, dropping", "query", c.queries[i], "error", err)
			continue
		}
		merged = append(merged, results[i]...)
	}

	if failed == len(c.queries) {
		return nil, fmt.Errorf("algolia: every query failed: %w", errors.Join(errs...))
	}

	return dedupe(merged), nil
}

func (c *AlgoliaClient) search(ctx context.Context, query string, start, end time.Time) ([]model.Candidate, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("tags", "story")
	params.Set("numericFilters", fmt.Sprintf("created_at_i>=%d,created_at_i<%d", start.Unix(), end.Unix()))
	params.Set("hitsPerPage", strconv.Itoa(hitsPerQuery))

	var raw algoliaResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/search?"+params.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("algolia search %q: %w", query, err)
	}

	candidates := make([]model.Candidate, 0, len(raw.Hits))
	for _, hit := range raw.Hits {
		id, err := strconv.ParseInt(hit.ObjectID, 10, 64)
		if err != nil || hit.Title == "" {
			continue
		}
		candidates = append(candidates, model.Candidate{
			ID:        id,
			Title:     hit.Title,
			URL:       hit.URL,
			Score:     hit.Points,
			Text:      plainText(hit.StoryText),
			CreatedAt: hit.CreatedAtI,
		})
	}

	return candidates, nil
}

type algoliaResponse struct {
	Hits []algoliaHit `json:"hits"`
}

type algoliaHit struct {
	ObjectID   string `json:"objectID"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Points     int    `json:"points"`
	StoryText  string `json:"story_text"`
	CreatedAtI int64  `json:"created_at_i"`
}
