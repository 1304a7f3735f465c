package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	oteltracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/router"
	"resume-match-go/internal/config"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/features"
	"resume-match-go/internal/language"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/scorer"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/worker"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config failed: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	log := logger.Logger
	glog.SetLogger(hertzadapter.From(log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, cfg.Tracing)
		if err != nil {
			log.Fatal().Err(err).Msg("initializing tracing failed")
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("tracing shutdown failed")
			}
		}()
	}

	store, err := storage.NewStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initializing storage failed")
	}
	defer store.Close(log)

	corpus, err := loadCorpus(ctx, cfg, store)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.Corpus.Source).Msg("loading job corpus failed")
	}
	log.Info().Int("jobs", corpus.Len()).Str("source", cfg.Corpus.Source).Msg("job corpus loaded")

	pipe, err := buildPipeline(ctx, cfg, corpus)
	if err != nil {
		log.Fatal().Err(err).Msg("building pipeline failed")
	}

	analysisHandler := handler.NewAnalysisHandler(cfg, pipe, store, handler.WithLogger(log))
	jobHandler := handler.NewJobHandler(corpus)

	if store.AsyncReady() {
		w := worker.New(pipe, store.MinIO, mysqlStore(store), store.RabbitMQ, worker.WithLogger(log))
		if err := w.Run(ctx, store.RabbitMQ, cfg.RabbitMQ.ConsumerWorkers); err != nil {
			log.Fatal().Err(err).Msg("starting analysis worker failed")
		}
	} else {
		log.Info().Msg("async analysis disabled, queue or object store unavailable")
	}

	serverOpts := []hertzconfig.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize((cfg.Server.MaxUploadMB + 1) << 20),
	}
	var otelCfg *oteltracing.Config
	if cfg.Tracing.Enabled {
		var tracerOpt hertzconfig.Option
		tracerOpt, otelCfg = oteltracing.NewServerTracer()
		serverOpts = append(serverOpts, tracerOpt)
	}
	h := server.New(serverOpts...)
	if otelCfg != nil {
		h.Use(oteltracing.ServerMiddleware(otelCfg))
	}
	router.RegisterRoutes(h, analysisHandler, jobHandler, cfg.Server.APIKey)

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("http server starting")
		if err := h.Run(); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

// mysqlStore adapts the nilable aggregate field to the worker's optional
// store dependency without handing it a typed nil.
func mysqlStore(store *storage.Storage) worker.ReportStore {
	if store.MySQL == nil {
		return nil
	}
	return store.MySQL
}

// loadCorpus reads the job corpus from the configured source. The corpus
// is loaded once; serving never mutates it.
func loadCorpus(ctx context.Context, cfg *config.Config, store *storage.Storage) (*matcher.Corpus, error) {
	switch cfg.Corpus.Source {
	case "csv", "":
		return matcher.LoadFile(cfg.Corpus.Path)
	case "minio":
		if store.MinIO == nil {
			return nil, fmt.Errorf("corpus source is minio but minio is not configured")
		}
		obj, err := store.MinIO.FetchCorpusObject(ctx, cfg.Corpus.Object)
		if err != nil {
			return nil, err
		}
		defer obj.Close()
		return matcher.LoadCSV(obj)
	case "mysql":
		if store.MySQL == nil {
			return nil, fmt.Errorf("corpus source is mysql but mysql is not configured")
		}
		records, err := store.MySQL.LoadCorpusRecords(ctx)
		if err != nil {
			return nil, err
		}
		// First boot against an empty table: promote the bundled CSV.
		if len(records) == 0 && cfg.Corpus.Path != "" {
			seed, err := matcher.LoadFile(cfg.Corpus.Path)
			if err != nil {
				return nil, fmt.Errorf("seeding job postings from %s: %w", cfg.Corpus.Path, err)
			}
			if err := store.MySQL.SeedJobPostings(ctx, seed.Jobs()); err != nil {
				return nil, err
			}
			logger.Logger.Info().Int("jobs", seed.Len()).Str("path", cfg.Corpus.Path).Msg("job postings table seeded")
			return seed, nil
		}
		return matcher.NewCorpus(records)
	default:
		return nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}
}

// buildPipeline assembles the five analysis stages from configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, corpus *matcher.Corpus) (*pipeline.Pipeline, error) {
	log := logger.Logger

	docExtractor, err := extractor.New(ctx,
		extractor.WithSizeLimit(cfg.Extractor.MaxSizeBytes()),
		extractor.WithMinSectionChars(cfg.Extractor.MinSectionChars),
		extractor.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("build document extractor: %w", err)
	}

	featureExtractor := features.New(
		features.WithMaxSkills(cfg.Scoring.SkillTargetMax),
		features.WithLogger(log),
	)

	scorerOpts := []scorer.Option{
		scorer.WithHeuristic(scorer.NewHeuristic(
			scorer.WithWeights(scorer.Weights{
				Sections:   cfg.Scoring.SectionWeight,
				Skills:     cfg.Scoring.SkillWeight,
				Experience: cfg.Scoring.ExperienceWeight,
				Formatting: cfg.Scoring.FormattingWeight,
			}),
			scorer.WithSkillTarget(cfg.Scoring.SkillTargetMin),
			scorer.WithMaxSuggestions(cfg.Scoring.MaxSuggestions),
		)),
		scorer.WithBlendTolerance(cfg.Scoring.BlendTolerance),
		scorer.WithLogger(log),
	}
	if cfg.AI.Enabled {
		chatModel, err := scorer.NewOpenAIChatModel(cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("build chat model: %w", err)
		}
		scorerOpts = append(scorerOpts, scorer.WithAssessor(scorer.NewLLMAssessor(chatModel,
			scorer.WithTimeout(config.GetDuration(cfg.AI.Timeout, 8*time.Second)),
			scorer.WithMaxRetries(cfg.AI.MaxRetries),
			scorer.WithAssessorLogger(log),
		)))
		log.Info().Str("model", cfg.AI.Model).Msg("ai assessment enabled")
	}

	jobMatcher, err := matcher.New(corpus,
		matcher.WithTopN(cfg.Matching.TopN),
		matcher.WithTitleBonus(cfg.Matching.TitleBonus),
		matcher.WithExperienceBonus(cfg.Matching.ExperienceBonus),
		matcher.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("build matcher: %w", err)
	}

	return pipeline.New(pipeline.Components{
		Extractor: docExtractor,
		Detector:  language.NewDetector(),
		Features:  featureExtractor,
		Scorer:    scorer.New(scorerOpts...),
		Matcher:   jobMatcher,
	}, pipeline.WithLogger(log))
}
