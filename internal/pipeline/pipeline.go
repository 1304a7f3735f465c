// Package pipeline orchestrates the resume analysis stages in order:
// extract text, detect language, derive features, score, match jobs.
// It owns the error taxonomy and the stage contracts; the concrete stage
// implementations are injected at startup.
package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/types"
)

var tracer = otel.Tracer("pipeline")

// Pipeline runs the analysis stages sequentially. Safe for concurrent use
// once constructed.
type Pipeline struct {
	extractor DocumentExtractor
	detector  LanguageDetector
	features  FeatureExtractor
	scorer    ResumeScorer
	matcher   JobMatcher
	logger    zerolog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New wires the stage components into a runnable pipeline.
func New(comp Components, opts ...Option) (*Pipeline, error) {
	if err := comp.validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		extractor: comp.Extractor,
		detector:  comp.Detector,
		features:  comp.Features,
		scorer:    comp.Scorer,
		matcher:   comp.Matcher,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// AnalyzeRequest describes one pipeline invocation.
type AnalyzeRequest struct {
	Document types.Document
	// LanguageHint, when set, skips detection and drives localization
	// downstream. Callers validate hints with types.ParseLanguage.
	LanguageHint types.Language
	// Query adjusts the matching stage.
	Query MatchQuery
}

// Analyze runs the stages in order and assembles the report.
//
// The returned report is non-nil even on error; its Status records how far
// the run got. Fatal taxonomy errors abort and are returned to the caller,
// while a failed AI assessment or a missing optional signal only degrades
// the report. AnalysisID and AnalyzedAt are left for the caller to assign,
// so identical input against an unchanged corpus reproduces the report
// exactly.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*types.Report, error) {
	ctx, span := tracer.Start(ctx, "AnalyzeResume",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	span.SetAttributes(
		attribute.String("document.format", string(req.Document.Format)),
		attribute.Int64("document.size_bytes", req.Document.Size()),
	)

	report := &types.Report{
		Status:  types.StatusAnalyzed,
		Matches: []types.MatchResult{},
	}

	extractCtx, extractSpan := tracer.Start(ctx, "ExtractText")
	extracted, err := p.extractor.Extract(extractCtx, req.Document)
	extractSpan.End()
	if err != nil {
		return p.fail(span, report, StageExtract, err)
	}
	span.SetAttributes(attribute.Int("document.char_count", extracted.CharCount))

	lang := req.LanguageHint
	if lang == "" {
		lang = p.detector.Detect(extracted)
	} else {
		span.AddEvent("language_hint_applied")
	}
	report.Language = lang
	span.SetAttributes(attribute.String("resume.language", lang.String()))

	feats, warnings := p.features.Extract(extracted, lang)
	report.Features = feats
	for _, warning := range warnings {
		report.Degrade(warning)
	}

	scoreCtx, scoreSpan := tracer.Start(ctx, "ScoreResume")
	result, err := p.scorer.Score(scoreCtx, feats, extracted.PlainText(), lang)
	scoreSpan.End()
	if err != nil {
		if result == nil || !errors.Is(err, ErrAIUnavailable) {
			return p.fail(span, report, StageScore, err)
		}
		p.logger.Warn().Err(err).Msg("ai assessment unavailable, keeping fallback score")
		span.AddEvent("ai_fallback")
		report.Degrade("ai assessment unavailable, score comes from the deterministic fallback")
	}
	report.Score = result
	report.ScoreDescription = types.DescribeScore(result.Score, lang)

	matchCtx, matchSpan := tracer.Start(ctx, "MatchJobs")
	matches, err := p.matcher.Match(matchCtx, feats, lang, req.Query)
	matchSpan.End()
	if err != nil {
		return p.fail(span, report, StageMatch, err)
	}
	if matches != nil {
		report.Matches = matches
	}

	span.SetAttributes(
		attribute.Int("resume.score", result.Score),
		attribute.Int("match.count", len(report.Matches)),
		attribute.String("report.status", string(report.Status)),
	)
	p.logger.Info().
		Str("language", lang.String()).
		Int("score", result.Score).
		Str("score_source", string(result.Source)).
		Int("matches", len(report.Matches)).
		Str("status", string(report.Status)).
		Msg("resume analysis complete")
	return report, nil
}

// fail stamps the report failed and records the stage error on the span.
// The partial report is returned alongside the error so async callers can
// persist it.
func (p *Pipeline) fail(span trace.Span, report *types.Report, stage Stage, err error) (*types.Report, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stage)+" stage failed")
	report.Status = types.StatusFailed
	report.Warnings = append(report.Warnings, err.Error())
	p.logger.Error().Err(err).Str("stage", string(stage)).Msg("resume analysis aborted")
	return report, err
}
