// Package worker consumes async analysis tasks from the broker, runs the
// pipeline against archived uploads and persists the outcome.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var workerTracer = otel.Tracer("resume-match-go/worker")

// Analyzer is the pipeline surface the worker drives.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (*types.Report, error)
}

// ObjectFetcher retrieves archived upload bytes.
type ObjectFetcher interface {
	FetchResume(ctx context.Context, objectKey string) ([]byte, error)
}

// ReportStore persists finished analyses.
type ReportStore interface {
	SaveAnalysis(ctx context.Context, analysis models.Analysis) error
}

// EventPublisher announces completed analyses.
type EventPublisher interface {
	PublishCompletionEvent(ctx context.Context, event storage.AnalysisCompletedEvent) error
}

// Worker glues the broker deliveries to the pipeline.
type Worker struct {
	analyzer  Analyzer
	fetcher   ObjectFetcher
	store     ReportStore
	publisher EventPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// Option customizes a Worker.
type Option func(*Worker)

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Worker) { w.logger = logger }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// New builds a worker. store and publisher may be nil; the corresponding
// steps are then skipped with a warning.
func New(analyzer Analyzer, fetcher ObjectFetcher, store ReportStore, publisher EventPublisher, opts ...Option) *Worker {
	w := &Worker{
		analyzer:  analyzer,
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run attaches consumers to the analyze queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, rmq *storage.RabbitMQ, consumers int) error {
	if consumers <= 0 {
		consumers = 1
	}
	for i := 0; i < consumers; i++ {
		if err := rmq.ConsumeAnalyzeTasks(ctx, w.HandleDelivery); err != nil {
			return err
		}
	}
	w.logger.Info().Int("consumers", consumers).Msg("analysis worker started")
	return nil
}

// HandleDelivery processes one raw broker delivery. Undecodable payloads
// and fatally-invalid documents are dropped; infrastructure failures are
// requeued so a healthy instance can pick them up.
func (w *Worker) HandleDelivery(ctx context.Context, body []byte) storage.ConsumeOutcome {
	var task storage.AnalyzeTask
	if err := json.Unmarshal(body, &task); err != nil {
		w.logger.Error().Err(err).Msg("dropping undecodable analyze task")
		return storage.OutcomeDrop
	}
	if task.AnalysisID == "" || task.ObjectKey == "" {
		w.logger.Error().Str("analysis_id", task.AnalysisID).Msg("dropping analyze task without id or object key")
		return storage.OutcomeDrop
	}
	return w.handleTask(ctx, task)
}

func (w *Worker) handleTask(ctx context.Context, task storage.AnalyzeTask) storage.ConsumeOutcome {
	ctx, span := workerTracer.Start(ctx, "HandleAnalyzeTask",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("analysis.id", task.AnalysisID),
			attribute.String("object.key", tracing.SafeObjectKey(task.ObjectKey)),
		))
	defer span.End()

	data, err := w.fetcher.FetchResume(ctx, task.ObjectKey)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		w.logger.Error().Err(err).Str("analysis_id", task.AnalysisID).Msg("fetching archived resume failed, requeueing")
		return storage.OutcomeRequeue
	}

	format, _ := types.ParseDocumentFormat(task.Format)
	req := pipeline.AnalyzeRequest{
		Document: types.Document{Data: data, Format: format, Filename: task.Filename},
		Query:    pipeline.MatchQuery{TopN: task.TopN, Location: task.Location},
	}
	if hint, ok := types.ParseLanguage(task.LanguageHint); ok {
		req.LanguageHint = hint
	}

	report, analyzeErr := w.analyzer.Analyze(ctx, req)
	report.AnalysisID = task.AnalysisID
	report.AnalyzedAt = w.now().UTC()

	if err := w.persist(ctx, task, report); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		w.logger.Error().Err(err).Str("analysis_id", task.AnalysisID).Msg("persisting analysis failed, requeueing")
		return storage.OutcomeRequeue
	}
	w.publish(ctx, task, report, analyzeErr)

	if analyzeErr != nil {
		// The document itself is bad; retrying the same bytes cannot succeed.
		tracing.RecordError(span, analyzeErr, tracing.ErrorTypeExtraction)
		w.logger.Warn().Err(analyzeErr).Str("analysis_id", task.AnalysisID).Msg("analysis failed fatally, dropping task")
		return storage.OutcomeDrop
	}
	span.SetAttributes(attribute.String("report.status", string(report.Status)))
	return storage.OutcomeAck
}

func (w *Worker) persist(ctx context.Context, task storage.AnalyzeTask, report *types.Report) error {
	if w.store == nil {
		w.logger.Warn().Str("analysis_id", task.AnalysisID).Msg("no report store configured, analysis not persisted")
		return nil
	}
	row, err := models.AnalysisFromReport(report, models.AnalysisMeta{
		FileMD5:         task.FileMD5,
		RequestDigest:   task.RequestDigest,
		Filename:        task.Filename,
		Format:          task.Format,
		ObjectKey:       task.ObjectKey,
		PipelineVersion: constants.PipelineVersion,
	})
	if err != nil {
		return err
	}
	return w.store.SaveAnalysis(ctx, row)
}

func (w *Worker) publish(ctx context.Context, task storage.AnalyzeTask, report *types.Report, analyzeErr error) {
	if w.publisher == nil {
		return
	}
	event := storage.AnalysisCompletedEvent{
		AnalysisID:  task.AnalysisID,
		Status:      string(report.Status),
		MatchCount:  len(report.Matches),
		CompletedAt: report.AnalyzedAt,
	}
	if report.Score != nil {
		event.Score = report.Score.Score
	}
	if analyzeErr != nil {
		event.Error = analyzeErr.Error()
	}
	if err := w.publisher.PublishCompletionEvent(ctx, event); err != nil {
		w.logger.Warn().Err(err).Str("analysis_id", task.AnalysisID).Msg("publishing completion event failed")
	}
}
