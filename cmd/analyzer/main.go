// Command analyzer runs the resume analysis pipeline locally: one file in,
// one report as JSON on stdout. It needs no infrastructure beyond a corpus
// file; AI assessment is used only when enabled in config.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"resume-match-go/internal/config"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/features"
	"resume-match-go/internal/language"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/scorer"
	"resume-match-go/internal/types"
)

func main() {
	var (
		filePath   string
		formatFlag string
		corpusPath string
		topN       int
		langHint   string
		location   string
		configPath string
	)
	pflag.StringVarP(&filePath, "file", "f", "", "resume file to analyze (pdf or docx)")
	pflag.StringVar(&formatFlag, "format", "", "declared format, default from file extension")
	pflag.StringVar(&corpusPath, "corpus", "", "job corpus file (csv or json), default from config")
	pflag.IntVarP(&topN, "top", "n", 0, "number of matches to return")
	pflag.StringVar(&langHint, "lang", "", "language hint: en, ar or mixed")
	pflag.StringVar(&location, "location", "", "location filter for matching")
	pflag.StringVarP(&configPath, "config", "c", "", "path to config file")
	pflag.Parse()

	// Secrets such as AI_API_KEY come from .env in local runs.
	_ = godotenv.Load()

	if filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyzer --file resume.pdf [--corpus jobs.csv]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fatal("loading config: %v", err)
	}
	// Local runs want readable errors, not a log stream.
	cfg.Logger.Level = "error"
	cfg.Logger.Format = "pretty"
	logger.Init(logger.Config{Level: cfg.Logger.Level, Format: cfg.Logger.Format})

	if corpusPath == "" {
		corpusPath = cfg.Corpus.Path
	}

	ctx := context.Background()
	corpus, err := matcher.LoadFile(corpusPath)
	if err != nil {
		fatal("loading corpus %s: %v", corpusPath, err)
	}

	pipe, err := buildPipeline(ctx, cfg, corpus)
	if err != nil {
		fatal("building pipeline: %v", err)
	}

	doc, err := readDocument(filePath, formatFlag)
	if err != nil {
		fatal("%v", err)
	}

	req := pipeline.AnalyzeRequest{
		Document: doc,
		Query:    pipeline.MatchQuery{TopN: topN, Location: location},
	}
	if hint, ok := types.ParseLanguage(langHint); ok {
		req.LanguageHint = hint
	}

	report, err := pipe.Analyze(ctx, req)
	if err != nil {
		// Print the partial report anyway; its status says what failed.
		printReport(report)
		fatal("analysis failed: %v", err)
	}

	if id, err := uuid.NewV4(); err == nil {
		report.AnalysisID = id.String()
	}
	report.AnalyzedAt = time.Now().UTC()
	printReport(report)
}

func readDocument(filePath, formatFlag string) (types.Document, error) {
	declared := formatFlag
	if declared == "" {
		declared = filepath.Ext(filePath)
	}
	format, ok := types.ParseDocumentFormat(declared)
	if !ok {
		return types.Document{}, fmt.Errorf("unsupported format %q, expected pdf or docx", declared)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return types.Document{}, fmt.Errorf("reading %s: %v", filePath, err)
	}
	return types.Document{Data: data, Format: format, Filename: filepath.Base(filePath)}, nil
}

func buildPipeline(ctx context.Context, cfg *config.Config, corpus *matcher.Corpus) (*pipeline.Pipeline, error) {
	docExtractor, err := extractor.New(ctx,
		extractor.WithSizeLimit(cfg.Extractor.MaxSizeBytes()),
		extractor.WithMinSectionChars(cfg.Extractor.MinSectionChars),
	)
	if err != nil {
		return nil, err
	}

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
	}
	if cfg.AI.Enabled {
		chatModel, err := scorer.NewOpenAIChatModel(cfg.AI)
		if err != nil {
			return nil, err
		}
		scorerOpts = append(scorerOpts, scorer.WithAssessor(scorer.NewLLMAssessor(chatModel,
			scorer.WithTimeout(config.GetDuration(cfg.AI.Timeout, 8*time.Second)),
			scorer.WithMaxRetries(cfg.AI.MaxRetries),
		)))
	}

	jobMatcher, err := matcher.New(corpus,
		matcher.WithTopN(cfg.Matching.TopN),
		matcher.WithTitleBonus(cfg.Matching.TitleBonus),
		matcher.WithExperienceBonus(cfg.Matching.ExperienceBonus),
	)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Components{
		Extractor: docExtractor,
		Detector:  language.NewDetector(),
		Features:  features.New(features.WithMaxSkills(cfg.Scoring.SkillTargetMax)),
		Scorer:    scorer.New(scorerOpts...),
		Matcher:   jobMatcher,
	})
}

func printReport(report *types.Report) {
	if report == nil {
		return
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fatal("encoding report: %v", err)
	}
	fmt.Println(string(out))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
