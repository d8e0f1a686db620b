package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"aidigest/internal/model"
)

// Source returns the current candidate stories.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Candidate, error)
}

// DatedSource returns candidate stories created on one calendar day.
type DatedSource interface {
	Name() string
	FetchDay(ctx context.Context, day time.Time) ([]model.Candidate, error)
}

func getJSON(ctx context.Context, httpClient *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

func dedupe(candidates []model.Candidate) []model.Candidate {
	seen := make(map[int64]bool, len(candidates))
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
