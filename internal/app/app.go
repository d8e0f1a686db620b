package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aidigest/db"
	"aidigest/internal/config"
	"aidigest/internal/digest"
	"aidigest/internal/metrics"
	"aidigest/internal/repository"
	"aidigest/pkg/llm"
	"aidigest/pkg/news"
)

const defaultAskModel = "claude-sonnet-4-0"

// App holds the wired components shared by the server and batch commands.
type App struct {
	Config  *config.Config
	Store   *repository.CachedDigestRepository
	Service *digest.Service
	Ask     llm.Client

	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New connects the store and cache and builds the digest pipeline that
// cfg selects.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, err := a.connectStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = repository.NewCachedDigestRepository(store, a.connectCache(ctx))

	summaryClient, err := newClient(ctx, cfg, cfg.LLMProvider, cfg.DigestModel)
	if err != nil {
		a.Close()
		return nil, err
	}

	strategy, err := llm.NewStrategy(cfg.SummaryStrategy)
	if err != nil {
		a.Close()
		return nil, err
	}
	summarizer := llm.NewSummarizer(summaryClient, strategy)

	var current digest.Acquirer
	switch cfg.Source {
	case config.SourceForum:
		current = digest.NewForumAcquirer(news.NewHackerNewsClient(), summarizer)
	default:
		searcher, err := newSearcher(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		current = digest.NewWebSearchAcquirer(searcher)
	}

	var history digest.Acquirer
	if cfg.HistoryPolicy == config.PolicyDatedSearch {
		history = digest.NewHistoryAcquirer(news.NewAlgoliaClient(), summarizer)
	}

	a.Service = digest.NewService(a.Store, current, history, cfg.Location)

	askModel := cfg.AskModel
	if askModel == "" && cfg.LLMProvider == config.ProviderAnthropic {
		askModel = defaultAskModel
	}
	if a.Ask, err = newClient(ctx, cfg, cfg.LLMProvider, askModel); err != nil {
		a.Close()
		return nil, err
	}

	slog.Info("digest pipeline ready",
		"store", cfg.Store,
		"source", current.Name(),
		"history_policy", cfg.HistoryPolicy,
		"provider", cfg.LLMProvider,
		"strategy", summarizer.Strategy(),
	)
	return a, nil
}

func (a *App) connectStore(ctx context.Context) (repository.DigestStore, error) {
	switch a.Config.Store {
	case config.StoreMongo:
		if err := db.ConnectMongo(ctx, a.Config.MongoURI); err != nil {
			return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
		}
		a.closers = append(a.closers, db.CloseMongo)

		repo := repository.NewMongoDigestRepository(db.Mongo, db.MongoDatabase)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("error creating digest index: %w", err)
		}
		return repo, nil

	default:
		if err := db.Connect(a.Config.DatabaseURL); err != nil {
			return nil, fmt.Errorf("error connecting to DB: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		repo := repository.NewDigestRepository(db.DB)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("error creating digest table: %w", err)
		}
		return repo, nil
	}
}

// connectCache prefers Redis and falls back to an in-process cache when
// Redis is not configured or unreachable.
func (a *App) connectCache(ctx context.Context) repository.DigestCache {
	if a.Config.RedisURL == "" {
		return repository.NewMemoryDigestCache(a.Config.CacheTTL)
	}
	if err := db.ConnectRedis(ctx, a.Config.RedisURL); err != nil {
		slog.Warn("redis unavailable, using in-process cache", "error", err)
		db.CloseRedis()
		return repository.NewMemoryDigestCache(a.Config.CacheTTL)
	}
	a.closers = append(a.closers, db.CloseRedis)
	return repository.NewRedisDigestCache(db.Redis, a.Config.CacheTTL)
}

func retryPolicy(provider string) llm.RetryPolicy {
	policy := llm.DefaultRetryPolicy()
	policy.Notify = func(err error, wait time.Duration) {
		metrics.RecordLLMRetry(provider)
		slog.Warn("rate limited, backing off", "provider", provider, "wait", wait, "error", err)
	}
	return policy
}

func newClient(ctx context.Context, cfg *config.Config, provider, model string) (llm.Client, error) {
	key := cfg.APIKey(provider)
	switch provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(key, model, retryPolicy(provider)), nil
	case config.ProviderGemini:
		return llm.NewGeminiClient(ctx, key, model, retryPolicy(provider))
	default:
		return llm.NewAnthropicClient(key, model, retryPolicy(provider)), nil
	}
}

func newSearcher(ctx context.Context, cfg *config.Config) (llm.Searcher, error) {
	key := cfg.APIKey(cfg.SearchProvider)
	switch cfg.SearchProvider {
	case config.ProviderGemini:
		return llm.NewGeminiClient(ctx, key, cfg.SearchModel, retryPolicy(cfg.SearchProvider))
	default:
		return llm.NewAnthropicClient(key, cfg.SearchModel, retryPolicy(cfg.SearchProvider)), nil
	}
}
