package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/audit"
	"github.com/jonathan/brandos/internal/config"
	"github.com/jonathan/brandos/internal/db"
	"github.com/jonathan/brandos/internal/fetch"
	"github.com/jonathan/brandos/internal/llm"
	"github.com/jonathan/brandos/internal/logging"
	"github.com/jonathan/brandos/internal/pipeline"
)

// appOptions selects which collaborators a command needs.
type appOptions struct {
	// needLLM creates the Gemini client and fails startup without GEMINI_API_KEY.
	needLLM bool
	// needDB fails startup without DATABASE_URL; noDB skips the database even when set.
	needDB bool
	noDB   bool
	// browser enables the chromedp renderer regardless of USE_BROWSER.
	browser bool
	// quiet discards info logs unless --verbose is set.
	quiet bool
}

// app holds the collaborators shared by the commands.
type app struct {
	env    *config.Env
	logger *zap.Logger
	db     *db.DB
	deps   *pipeline.Deps

	closers []func()
}

func newApp(ctx context.Context, opts appOptions) (_ *app, err error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	a := &app{env: env}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := a.initLogger(opts.quiet); err != nil {
		return nil, err
	}
	if err := a.initDB(ctx, opts); err != nil {
		return nil, err
	}

	var client llm.Client
	if opts.needLLM {
		if err := env.RequireGemini(); err != nil {
			return nil, err
		}
		if client, err = a.newLLMClient(ctx); err != nil {
			return nil, err
		}
	}

	var pages fetch.PageStore
	deps := &pipeline.Deps{
		Client: client,
		Engines: aeo.NewEngines(client, aeo.EngineKeys{
			OpenAI:     env.OpenAIAPIKey,
			Perplexity: env.PerplexityAPIKey,
		}),
		Auditor: audit.NewAuditor(nil, a.logger),
		Logger:  a.logger,
	}
	if a.db != nil {
		pages = a.db
		deps.Store = a.db
	}

	fetcherCfg := &fetch.CachedFetcherConfig{CacheTTL: env.PageCacheTTL, Logger: a.logger}
	if env.UseBrowser || opts.browser {
		browser := fetch.NewBrowser(a.logger)
		fetcherCfg.Renderer = browser
		deps.Screenshotter = browser
	}
	deps.Fetcher = fetch.NewCachedFetcher(pages, fetcherCfg)

	a.deps = deps
	return a, nil
}

func (a *app) initLogger(quiet bool) error {
	if quiet && !verbose {
		a.logger = zap.NewNop()
		return nil
	}
	logger, err := logging.New(verbose || a.env.Debug())
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, func() { _ = logger.Sync() })
	return nil
}

func (a *app) initDB(ctx context.Context, opts appOptions) error {
	if opts.noDB {
		if opts.needDB {
			return fmt.Errorf("this command needs the database; drop --no-db")
		}
		return nil
	}
	if a.env.DatabaseURL == "" {
		if opts.needDB {
			return a.env.RequireDatabase()
		}
		a.logger.Warn("DATABASE_URL not set; results will not be saved")
		return nil
	}
	database, err := db.Connect(ctx, a.env.DatabaseURL)
	if err != nil {
		return err
	}
	a.db = database
	a.closers = append(a.closers, database.Close)
	return nil
}

// newLLMClient returns the Gemini client, wrapped in the Redis cache when
// REDIS_URL is set.
func (a *app) newLLMClient(ctx context.Context) (llm.Client, error) {
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), a.env.GeminiAPIKey, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })

	if a.env.RedisURL == "" {
		return client, nil
	}
	rdb, err := llm.NewRedis(ctx, a.env.RedisURL)
	if err != nil {
		a.logger.Warn("LLM cache disabled", zap.Error(err))
		return client, nil
	}
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	return llm.NewCachedClient(client, rdb, a.env.LLMCacheTTL, a.logger), nil
}

// lookupBrand resolves a brand by name. It needs the database.
func (a *app) lookupBrand(ctx context.Context, name string) (*db.Brand, error) {
	if a.db == nil {
		return nil, fmt.Errorf("DATABASE_URL is required to look up brands")
	}
	brand, err := a.db.GetBrandByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, fmt.Errorf("brand %q not found", name)
	}
	return brand, nil
}

// Close releases everything newApp opened, last first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
