package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/interview-screener/internal/audio"
	"github.com/jonathan/interview-screener/internal/config"
	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/fetch"
	"github.com/jonathan/interview-screener/internal/interview"
	"github.com/jonathan/interview-screener/internal/llm"
	"github.com/jonathan/interview-screener/internal/notify"
	"github.com/jonathan/interview-screener/internal/objectstore"
	"github.com/jonathan/interview-screener/internal/observability"
	"github.com/jonathan/interview-screener/internal/questions"
	"github.com/jonathan/interview-screener/internal/resume"
	"github.com/jonathan/interview-screener/internal/retrieval"
	"github.com/jonathan/interview-screener/internal/scoring"
	"github.com/jonathan/interview-screener/internal/server"
	"github.com/jonathan/interview-screener/internal/server/ratelimit"
	"github.com/jonathan/interview-screener/internal/transcribe"
	"github.com/jonathan/interview-screener/internal/worker"
)

// poolDrainTimeout bounds how long queued notification emails may keep the
// process alive after shutdown.
const poolDrainTimeout = 30 * time.Second

// app holds the shared dependencies every command builds on.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   db.Store
	model   llm.Client // nil when no model is configured
	closers []func()
}

// newApp loads configuration, then opens the logger, the store and the model client.
func newApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return newAppFromConfig(ctx, cfg)
}

func newAppFromConfig(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := observability.NewLogger(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	store, err := db.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	model, err := newModel(ctx, cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}
	if model == nil {
		logger.Warn("no llm api key configured, scoring uses the heuristic only")
	} else {
		a.model = model
		a.closers = append(a.closers, func() { _ = model.Close() })
		logger.Info("llm client ready", observability.ModelFields(cfg.LLM.Provider, model.GetModel(llm.TierStandard))...)
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// llmConfig maps settings onto the client config. Empty model names keep the defaults.
func llmConfig(c config.LLMConfig) *llm.Config {
	lc := llm.DefaultConfig()
	lc.Provider = llm.Provider(c.Provider)
	if c.Backend != "" {
		lc.Backend = c.Backend
	}
	lc.Project = c.Project
	lc.Location = c.Location
	if c.EmbeddingModel != "" {
		lc.EmbeddingModel = c.EmbeddingModel
	}
	for tier, model := range map[llm.ModelTier]string{
		llm.TierLite:     c.LiteModel,
		llm.TierStandard: c.StandardModel,
		llm.TierAdvanced: c.AdvancedModel,
	} {
		if model != "" {
			lc = lc.WithModel(tier, model)
		}
	}
	return lc
}

// newModel returns nil without an error when no credentials are configured.
func newModel(ctx context.Context, c config.LLMConfig) (llm.Client, error) {
	if c.APIKey == "" && c.Backend != llm.BackendVertex {
		return nil, nil
	}
	client, err := llm.NewClient(ctx, llmConfig(c), c.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	return client, nil
}

func (a *app) generator(tier llm.ModelTier) llm.Generator {
	if a.model == nil {
		return nil
	}
	return llm.TierGenerator{Client: a.model, Tier: tier}
}

func (a *app) indexStore() *retrieval.FileStore {
	return &retrieval.FileStore{Dir: a.cfg.Retrieval.Dir}
}

// retrieval returns nil parts when there is no model to embed with.
func (a *app) retrieval() (*retrieval.Builder, *retrieval.Querier) {
	if a.model == nil {
		return nil, nil
	}
	store := a.indexStore()
	builder := &retrieval.Builder{
		Embedder:   a.model,
		Store:      store,
		ChunkWords: a.cfg.Retrieval.ChunkWords,
		Model:      llmConfig(a.cfg.LLM).EmbeddingModel,
		Logger:     a.logger,
	}
	querier := &retrieval.Querier{
		Store:     store,
		Embedder:  a.model,
		Generator: a.generator(llm.TierStandard),
		TopK:      a.cfg.Retrieval.TopK,
		Logger:    a.logger,
	}
	return builder, querier
}

func (a *app) scorer(querier *retrieval.Querier) *scoring.Scorer {
	s := &scoring.Scorer{
		Model:   a.generator(llm.TierStandard),
		Role:    a.cfg.Retrieval.Role,
		Retries: a.cfg.Scoring.Retries,
		Timeout: a.cfg.Scoring.Timeout,
		Logger:  a.logger,
	}
	if querier != nil {
		s.Retriever = querier
	}
	return s
}

func (a *app) transcriber(ctx context.Context) (transcribe.Transcriber, error) {
	var inner transcribe.Transcriber
	switch a.cfg.Speech.Backend {
	case "google":
		st, err := transcribe.NewSpeechTranscriber(ctx, a.cfg.Speech.LanguageCode, a.cfg.Speech.CredentialsFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = st.Close() })
		inner = st
	case "llm":
		if a.model == nil {
			return nil, fmt.Errorf("speech backend %q needs an llm api key", a.cfg.Speech.Backend)
		}
		inner = transcribe.NewLLMTranscriber(a.model)
	default:
		inner = transcribe.Nop{}
	}
	return transcribe.NewResilient(inner, a.cfg.Speech.Timeout, a.logger), nil
}

func (a *app) archiver(ctx context.Context) (audio.Archiver, error) {
	switch a.cfg.Archive.Backend {
	case "minio":
		client, err := objectstore.New(ctx, objectstore.Options{
			Endpoint:  a.cfg.Archive.Endpoint,
			AccessKey: a.cfg.Archive.AccessKey,
			SecretKey: a.cfg.Archive.SecretKey,
			Bucket:    a.cfg.Archive.Bucket,
			UseSSL:    a.cfg.Archive.UseSSL,
		}, a.logger)
		if err != nil {
			return nil, err
		}
		return audio.ObjectArchiver{Store: client, Logger: a.logger}, nil
	case "none":
		return audio.DiscardArchiver{}, nil
	default:
		return audio.LocalArchiver{}, nil
	}
}

// interviews builds the answer pipeline. The returned sessions are owned by
// the caller, which decides whether to run the janitor.
func (a *app) interviews(ctx context.Context) (*interview.Service, *interview.Sessions, error) {
	tr, err := a.transcriber(ctx)
	if err != nil {
		return nil, nil, err
	}
	archiver, err := a.archiver(ctx)
	if err != nil {
		return nil, nil, err
	}

	sessions := interview.NewSessions(a.cfg.Interview.SessionTTL)
	deps := interview.Deps{
		Store:         a.store,
		Sessions:      sessions,
		Ingestor:      audio.NewIngestor(a.cfg.Audio.Dir, audio.FFmpegConverter{Path: a.cfg.Audio.FFmpegPath}, a.logger),
		Transcriber:   tr,
		Archiver:      archiver,
		QuestionCount: a.cfg.Interview.QuestionCount,
		ResumeScore:   &a.cfg.Interview.ResumeScore,
		Role:          a.cfg.Retrieval.Role,
		Logger:        a.logger,
	}

	builder, querier := a.retrieval()
	deps.Scorer = a.scorer(querier)
	if builder != nil {
		deps.Indexer = builder
	}
	if gen := a.generator(llm.TierStandard); gen != nil {
		deps.Questions = &questions.Generator{Model: gen, Logger: a.logger}
	}

	svc, err := interview.NewService(deps)
	if err != nil {
		return nil, nil, err
	}
	return svc, sessions, nil
}

func (a *app) resumes() *resume.Extractor {
	opts := fetch.DefaultOptions()
	if a.cfg.Fetch.Timeout > 0 {
		opts.Timeout = a.cfg.Fetch.Timeout
	}
	ex := &resume.Extractor{
		Pages: &fetch.Fetcher{
			Options:    opts,
			UseBrowser: a.cfg.Fetch.UseBrowser,
			Browser:    &fetch.ChromeRenderer{Timeout: opts.Timeout, Logger: a.logger},
			Logger:     a.logger,
		},
	}
	if a.model != nil {
		ex.Model = a.model
	}
	return ex
}

// shortlister returns nil when outgoing mail is not configured.
func (a *app) shortlister() server.Shortlister {
	mailer := notify.NewSMTPMailer(a.cfg.SMTP)
	if !mailer.Enabled() {
		a.logger.Warn("smtp is not configured, shortlist emails are disabled")
		return nil
	}
	pool := worker.NewPool(a.cfg.Workers.Count, a.cfg.Workers.QueueSize, a.logger)
	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), poolDrainTimeout)
		defer cancel()
		if err := pool.Close(ctx); err != nil {
			a.logger.Warn("notification queue not drained", zap.Error(err))
		}
	})
	return &notify.Notifier{Mailer: mailer, Pool: pool, Logger: a.logger}
}

// server assembles the HTTP API on top of svc.
func (a *app) server(svc *interview.Service) (*server.Server, error) {
	jwtCfg, err := config.NewJWTConfig(a.cfg.Auth)
	if err != nil {
		return nil, err
	}
	passwords, err := config.NewPasswordConfig(a.cfg.Auth)
	if err != nil {
		return nil, err
	}
	org, err := config.NewOrgAccount(a.cfg.Org, passwords)
	if err != nil {
		return nil, err
	}

	cfg := server.Config{
		Port:           a.cfg.Server.Port,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		MaxUploadMB:    a.cfg.Server.MaxUploadMB,
		RateLimit: ratelimit.FromSettings(a.cfg.Server.RateLimit,
			os.Getenv("RATE_LIMIT_WHITELIST"), os.Getenv("RATE_LIMIT_BLACKLIST")),
		Interviews:  svc,
		Resumes:     a.resumes(),
		Directory:   a.store,
		Shortlister: a.shortlister(),
		JWT:         server.NewJWTService(jwtCfg),
		Logger:      a.logger,
	}
	if org != nil {
		cfg.Org = org
	} else {
		a.logger.Warn("no org account configured, org endpoints will reject every login")
	}
	return server.New(cfg)
}
