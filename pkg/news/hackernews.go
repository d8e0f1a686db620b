package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"aidigest/internal/model"

	"golang.org/x/sync/errgroup"
)

const (
	hackerNewsBaseURL = "https://hacker-news.firebaseio.com/v0"
	storiesPerList    = 60
	itemConcurrency   = 10
)

var hackerNewsLists = []string{"topstories", "beststories"}

type HackerNewsClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHackerNewsClient() *HackerNewsClient {
	return &HackerNewsClient{
		baseURL:    hackerNewsBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HackerNewsClient) Name() string {
	return "HackerNews"
}

// Fetch merges the top and best lists and loads every item. Items that fail
// to load are dropped; only losing every list is an error.
func (c *HackerNewsClient) Fetch(ctx context.Context) ([]model.Candidate, error) {
	ids, err := c.storyIDs(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*hnItem, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(itemConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			item, err := c.item(gctx, id)
			if err != nil {
				slog.Warn("hackernews item fetch failed, dropping", "id", id, "error", err)
				return nil
			}
			items[i] = item
			return nil
		})
	}
	g.Wait()

	candidates := make([]model.Candidate, 0, len(items))
	for _, item := range items {
		if item == nil || item.Type != "story" || item.Dead || item.Deleted || item.Title == "" {
			continue
		}
		candidates = append(candidates, model.Candidate{
			ID:        item.ID,
			Title:     item.Title,
			URL:       item.URL,
			Score:     item.Score,
			Text:      plainText(item.Text),
			CreatedAt: item.Time,
		})
	}

	return dedupe(candidates), nil
}

func (c *HackerNewsClient) storyIDs(ctx context.Context) ([]int64, error) {
	seen := make(map[int64]bool)
	var ids []int64
	var errs []error

	for _, list := range hackerNewsLists {
		var listIDs []int64
		if err := getJSON(ctx, c.httpClient, fmt.Sprintf("%s/%s.json", c.baseURL, list), &listIDs); err != nil {
			errs = append(errs, fmt.Errorf("hackernews %s: %w", list, err))
			continue
		}

		if len(listIDs) > storiesPerList {
			listIDs = listIDs[:storiesPerList]
		}
		for _, id := range listIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	if len(errs) == len(hackerNewsLists) {
		return nil, errors.Join(errs...)
	}
	for _, err := range errs {
		slog.Warn("hackernews list fetch failed", "error", err)
	}
	return ids, nil
}

func (c *HackerNewsClient) item(ctx context.Context, id int64) (*hnItem, error) {
	var item hnItem
	if err := getJSON(ctx, c.httpClient, fmt.Sprintf("%s/item/%d.json", c.baseURL, id), &item); err != nil {
		return nil, fmt.Errorf("hackernews item %d: %w", id, err)
	}
	if item.ID == 0 {
		return nil, fmt.Errorf("hackernews item %d: not found", id)
	}
	return &item, nil
}

type hnItem struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Score   int    `json:"score"`
	Text    string `json:"text"`
	Time    int64  `json:"time"`
	Dead    bool   `json:"dead"`
	Deleted bool   `json:"deleted"`
}
