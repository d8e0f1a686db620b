package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aidigest/internal/metrics"
	"aidigest/internal/model"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound    = errors.New("digest not found")
	ErrInvalidDate = errors.New("invalid date")
)

type Store interface {
	GetByDate(ctx context.Context, date string) (*model.Digest, bool, error)
	InsertIfAbsent(ctx context.Context, d *model.Digest) (*model.Digest, bool, error)
	ListDates(ctx context.Context) ([]string, error)
}

type Result struct {
	Digest *model.Digest
	// Cached is false only for the call that acquired and stored the digest.
	Cached bool
}

type Service struct {
	store   Store
	current Acquirer
	history Acquirer
	loc     *time.Location
	now     func() time.Time
	flight  singleflight.Group
}

// NewService wires the orchestrator. A nil history acquirer means past
// days that were never stored are reported as not found.
func NewService(store Store, current, history Acquirer, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		store:   store,
		current: current,
		history: history,
		loc:     loc,
		now:     time.Now,
	}
}

// Get returns the digest for dateKey, acquiring and storing it first when
// the day is today (or a past day under a dated search policy) and nothing
// is stored yet.
func (s *Service) Get(ctx context.Context, dateKey string) (*Result, error) {
	key, day, err := s.resolve(dateKey)
	if err != nil {
		metrics.RecordDigestRequest("invalid")
		return nil, err
	}

	stored, _, err := s.store.GetByDate(ctx, key)
	if err != nil {
		metrics.RecordDigestRequest("error")
		return nil, fmt.Errorf("lookup digest %q: %w", key, err)
	}
	if stored != nil {
		metrics.RecordDigestRequest("hit")
		return &Result{Digest: stored, Cached: true}, nil
	}

	acquirer := s.acquirerFor(day)
	if acquirer == nil {
		metrics.RecordDigestRequest("not_found")
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.acquire(context.WithoutCancel(ctx), acquirer, key, day)
	})
	if err != nil {
		metrics.RecordDigestRequest("error")
		return nil, err
	}

	metrics.RecordDigestRequest("acquired")
	return v.(*Result), nil
}

func (s *Service) Dates(ctx context.Context) ([]string, error) {
	dates, err := s.store.ListDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list digest dates: %w", err)
	}
	return dates, nil
}

// Today is the canonical key of the current day in the service location.
func (s *Service) Today() string {
	return model.DateKey(s.now().In(s.loc))
}

func (s *Service) resolve(dateKey string) (string, time.Time, error) {
	trimmed := strings.TrimSpace(dateKey)
	if trimmed == "" || strings.EqualFold(trimmed, model.TodayKey) {
		day := model.StartOfDay(s.now().In(s.loc))
		return model.DateKey(day), day, nil
	}

	key, day, err := model.ParseDateKey(trimmed, s.loc)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return key, day, nil
}

func (s *Service) acquirerFor(day time.Time) Acquirer {
	today := model.StartOfDay(s.now().In(s.loc))
	switch {
	case day.Equal(today):
		return s.current
	case day.Before(today):
		return s.history
	default:
		return nil
	}
}

func (s *Service) acquire(ctx context.Context, acquirer Acquirer, key string, day time.Time) (*Result, error) {
	start := time.Now()
	stories, err := acquirer.Acquire(ctx, day)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordAcquisition(acquirer.Name(), "failed", elapsed)
		slog.Error("digest acquisition failed", "date", key, "source", acquirer.Name(), "error", err)
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	metrics.RecordAcquisition(acquirer.Name(), "ok", elapsed)

	stored, created, err := s.store.InsertIfAbsent(ctx, &model.Digest{
		Date:      key,
		Day:       day,
		Stories:   stories,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("store digest %q: %w", key, err)
	}

	if !created {
		slog.Info("digest already stored by another writer, serving stored copy", "date", key)
		return &Result{Digest: stored, Cached: true}, nil
	}

	slog.Info("digest stored", "date", key, "source", acquirer.Name(), "stories", len(stories), "seconds", elapsed)
	return &Result{Digest: stored, Cached: false}, nil
}
