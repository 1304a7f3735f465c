package handler

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"

	"resume-match-go/internal/config"
	"resume-match-go/internal/constants"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/types"
)

// Analyzer is the pipeline surface the handlers drive.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (*types.Report, error)
}

// AnalysisHandler serves resume analysis requests. Persistence, caching,
// archival and the async queue are all optional; with a bare pipeline it
// still serves synchronous analysis.
type AnalysisHandler struct {
	cfg      *config.Config
	analyzer Analyzer
	storage  *storage.Storage
	logger   zerolog.Logger
	now      func() time.Time
	newID    func() (uuid.UUID, error)
}

// AnalysisHandlerOption customizes an AnalysisHandler.
type AnalysisHandlerOption func(*AnalysisHandler)

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) AnalysisHandlerOption {
	return func(h *AnalysisHandler) { h.logger = logger }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) AnalysisHandlerOption {
	return func(h *AnalysisHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithIDSource overrides analysis id generation.
func WithIDSource(newID func() (uuid.UUID, error)) AnalysisHandlerOption {
	return func(h *AnalysisHandler) {
		if newID != nil {
			h.newID = newID
		}
	}
}

// NewAnalysisHandler wires the handler. store may be nil for a
// pipeline-only deployment.
func NewAnalysisHandler(cfg *config.Config, analyzer Analyzer, store *storage.Storage, opts ...AnalysisHandlerOption) *AnalysisHandler {
	h := &AnalysisHandler{
		cfg:      cfg,
		analyzer: analyzer,
		storage:  store,
		logger:   zerolog.Nop(),
		now:      time.Now,
		newID:    uuid.NewV4,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type errorResponse struct {
	Error string `json:"error"`
}

// AsyncAcceptedResponse acknowledges an enqueued analysis.
type AsyncAcceptedResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
}

// Analyze handles POST /api/v1/resumes/analyze: multipart upload,
// synchronous pipeline run, optional dedupe/persist/cache/archive.
func (h *AnalysisHandler) Analyze(ctx context.Context, c *app.RequestContext) {
	doc, fileMD5, ok := h.readUpload(c)
	if !ok {
		return
	}

	req := pipeline.AnalyzeRequest{Document: doc, Query: h.readQuery(c)}
	if hint, ok := types.ParseLanguage(string(c.FormValue("language_hint"))); ok {
		req.LanguageHint = hint
	}

	// Byte-identical uploads with the same match knobs reproduce the
	// report exactly, so a cached analysis is as good as a fresh run.
	digest := dedupeDigest(fileMD5, req.LanguageHint, req.Query)
	if cached := h.lookupDuplicate(ctx, digest); cached != nil {
		c.JSON(consts.StatusOK, cached)
		return
	}

	report, err := h.analyzer.Analyze(ctx, req)
	if err != nil {
		h.writeAnalyzeError(c, err)
		return
	}

	id, err := h.newID()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, errorResponse{Error: "could not assign analysis id"})
		return
	}
	report.AnalysisID = id.String()
	report.AnalyzedAt = h.now().UTC()

	objectKey := h.archive(ctx, report.AnalysisID, doc)
	h.persistAndCache(ctx, report, doc, fileMD5, digest, objectKey)

	c.JSON(consts.StatusOK, report)
}

// dedupeDigest keys duplicate detection on the upload bytes plus every
// request knob that changes the report. Identical bytes asked with a
// different location, top_n or language hint are a different request.
func dedupeDigest(fileMD5 string, hint types.Language, query pipeline.MatchQuery) string {
	location := strings.ToLower(strings.TrimSpace(query.Location))
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s|%d", fileMD5, hint, location, query.TopN)))
	return hex.EncodeToString(sum[:])
}

// AnalyzeAsync handles POST /api/v1/resumes/analyze/async: archive the
// upload, enqueue a task and return 202 with the analysis id.
func (h *AnalysisHandler) AnalyzeAsync(ctx context.Context, c *app.RequestContext) {
	if h.storage == nil || !h.storage.AsyncReady() {
		c.JSON(consts.StatusServiceUnavailable, errorResponse{Error: "async analysis is not configured"})
		return
	}

	doc, fileMD5, ok := h.readUpload(c)
	if !ok {
		return
	}

	id, err := h.newID()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, errorResponse{Error: "could not assign analysis id"})
		return
	}

	objectKey, err := h.storage.MinIO.ArchiveResume(ctx, id.String(), doc)
	if err != nil {
		h.logger.Error().Err(err).Msg("archiving upload for async analysis failed")
		c.JSON(consts.StatusInternalServerError, errorResponse{Error: "could not store upload"})
		return
	}

	query := h.readQuery(c)
	hint, _ := types.ParseLanguage(string(c.FormValue("language_hint")))
	task := storage.AnalyzeTask{
		AnalysisID:    id.String(),
		ObjectKey:     objectKey,
		Format:        string(doc.Format),
		Filename:      doc.Filename,
		FileMD5:       fileMD5,
		RequestDigest: dedupeDigest(fileMD5, hint, query),
		LanguageHint:  string(c.FormValue("language_hint")),
		Location:      query.Location,
		TopN:          query.TopN,
		EnqueuedAt:    h.now().UTC(),
	}
	if err := h.storage.RabbitMQ.PublishAnalyzeTask(ctx, task); err != nil {
		h.logger.Error().Err(err).Msg("enqueueing analyze task failed")
		c.JSON(consts.StatusInternalServerError, errorResponse{Error: "could not enqueue analysis"})
		return
	}

	c.JSON(consts.StatusAccepted, AsyncAcceptedResponse{AnalysisID: id.String(), Status: "queued"})
}

// GetAnalysis handles GET /api/v1/analyses/:analysis_id.
func (h *AnalysisHandler) GetAnalysis(ctx context.Context, c *app.RequestContext) {
	analysisID := c.Param("analysis_id")
	if analysisID == "" {
		c.JSON(consts.StatusBadRequest, errorResponse{Error: "analysis_id is required"})
		return
	}

	if h.storage != nil && h.storage.Redis != nil {
		if data, err := h.storage.Redis.GetCachedReport(ctx, analysisID); err == nil {
			c.Data(consts.StatusOK, "application/json; charset=utf-8", data)
			return
		}
	}

	if h.storage == nil || h.storage.MySQL == nil {
		c.JSON(consts.StatusNotFound, errorResponse{Error: "analysis not found"})
		return
	}
	row, err := h.storage.MySQL.GetAnalysis(ctx, analysisID)
	if errors.Is(err, storage.ErrAnalysisNotFound) {
		c.JSON(consts.StatusNotFound, errorResponse{Error: "analysis not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("analysis_id", analysisID).Msg("loading analysis failed")
		c.JSON(consts.StatusInternalServerError, errorResponse{Error: "could not load analysis"})
		return
	}
	report, err := row.ToReport()
	if err != nil {
		h.logger.Error().Err(err).Str("analysis_id", analysisID).Msg("decoding stored report failed")
		c.JSON(consts.StatusInternalServerError, errorResponse{Error: "stored report is unreadable"})
		return
	}
	c.JSON(consts.StatusOK, report)
}

// DeleteAnalysis handles DELETE /api/v1/analyses/:analysis_id: removes the
// stored row, the cached report, the dedupe entry and the archived upload.
func (h *AnalysisHandler) DeleteAnalysis(ctx context.Context, c *app.RequestContext) {
	analysisID := c.Param("analysis_id")
	if analysisID == "" {
		c.JSON(consts.StatusBadRequest, errorResponse{Error: "analysis_id is required"})
		return
	}
	if h.storage == nil || h.storage.MySQL == nil {
		c.JSON(consts.StatusServiceUnavailable, errorResponse{Error: "persistence is not configured"})
		return
	}

	// Fetch first: the row carries the object key and file digest the
	// other stores are keyed by.
	row, err := h.storage.MySQL.GetAnalysis(ctx, analysisID)
	if errors.Is(err, storage.ErrAnalysisNotFound) {
		c.JSON(consts.StatusNotFound, errorResponse{Error: "analysis not found"})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("analysis_id", analysisID).Msg("loading analysis for delete failed")
		c.JSON(consts.StatusInternalServerError, errorResponse{Error: "could not load analysis"})
		return
	}

	if err := h.storage.MySQL.DeleteAnalysis(ctx, analysisID); err != nil && !errors.Is(err, storage.ErrAnalysisNotFound) {
		h.logger.Error().Err(err).Str("analysis_id", analysisID).Msg("deleting analysis failed")
		c.JSON(consts.StatusInternalServerError, errorResponse{Error: "could not delete analysis"})
		return
	}

	// The secondary stores are best effort; their TTLs bound any leftovers.
	if h.storage.Redis != nil {
		if err := h.storage.Redis.DropCachedReport(ctx, analysisID); err != nil {
			h.logger.Warn().Err(err).Str("analysis_id", analysisID).Msg("dropping cached report failed")
		}
		if row.RequestDigest != "" {
			if err := h.storage.Redis.ForgetAnalysis(ctx, row.RequestDigest, row.FileMD5); err != nil {
				h.logger.Warn().Err(err).Str("analysis_id", analysisID).Msg("dropping dedupe entry failed")
			}
		}
	}
	if h.storage.MinIO != nil && row.ObjectKey != "" {
		if err := h.storage.MinIO.DeleteResume(ctx, row.ObjectKey); err != nil {
			h.logger.Warn().Err(err).Str("object_key", row.ObjectKey).Msg("deleting archived upload failed")
		}
	}

	c.Status(consts.StatusNoContent)
}

// readUpload pulls the multipart file and resolves its declared format.
// On failure it writes the error response and returns ok=false.
func (h *AnalysisHandler) readUpload(c *app.RequestContext) (types.Document, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(consts.StatusBadRequest, errorResponse{Error: "multipart field \"file\" is required"})
		return types.Document{}, "", false
	}

	maxBytes := int64(h.cfg.Server.MaxUploadMB) << 20
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		c.JSON(consts.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("file exceeds the %d MiB limit", h.cfg.Server.MaxUploadMB),
		})
		return types.Document{}, "", false
	}

	format, ok := h.resolveFormat(c, fileHeader)
	if !ok {
		c.JSON(consts.StatusBadRequest, errorResponse{Error: "unsupported document format, expected PDF or DOCX"})
		return types.Document{}, "", false
	}

	data, err := readMultipartFile(fileHeader)
	if err != nil {
		c.JSON(consts.StatusBadRequest, errorResponse{Error: "could not read uploaded file"})
		return types.Document{}, "", false
	}

	sum := md5.Sum(data)
	doc := types.Document{Data: data, Format: format, Filename: fileHeader.Filename}
	return doc, hex.EncodeToString(sum[:]), true
}

func (h *AnalysisHandler) resolveFormat(c *app.RequestContext, fileHeader *multipart.FileHeader) (types.DocumentFormat, bool) {
	if declared := string(c.FormValue("format")); declared != "" {
		return types.ParseDocumentFormat(declared)
	}
	return types.ParseDocumentFormat(filepath.Ext(fileHeader.Filename))
}

func (h *AnalysisHandler) readQuery(c *app.RequestContext) pipeline.MatchQuery {
	query := pipeline.MatchQuery{Location: string(c.FormValue("location"))}
	if raw := string(c.FormValue("top_n")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			query.TopN = n
		}
	}
	return query
}

// lookupDuplicate returns a previously computed report covering the same
// request digest, via the Redis dedupe mapping first and the MySQL digest
// index as backstop. Any miss or infrastructure error just means a fresh
// run.
func (h *AnalysisHandler) lookupDuplicate(ctx context.Context, digest string) *types.Report {
	if h.storage == nil {
		return nil
	}
	if h.storage.Redis != nil {
		if analysisID, err := h.storage.Redis.LookupAnalysisByDigest(ctx, digest); err == nil {
			if data, err := h.storage.Redis.GetCachedReport(ctx, analysisID); err == nil {
				var report types.Report
				if json.Unmarshal(data, &report) == nil {
					h.logger.Debug().Str("analysis_id", analysisID).Msg("duplicate upload served from cache")
					return &report
				}
			}
			if h.storage.MySQL != nil {
				if row, err := h.storage.MySQL.GetAnalysis(ctx, analysisID); err == nil {
					if report, err := row.ToReport(); err == nil {
						return report
					}
				}
			}
		}
	}
	if h.storage.MySQL != nil {
		if row, err := h.storage.MySQL.GetAnalysisByDigest(ctx, digest); err == nil {
			if report, err := row.ToReport(); err == nil {
				h.logger.Debug().Str("analysis_id", report.AnalysisID).Msg("duplicate upload served from database")
				return report
			}
		}
	}
	return nil
}

// archive stores the original upload best-effort and returns the object
// key, or empty when archival is unavailable or failed.
func (h *AnalysisHandler) archive(ctx context.Context, analysisID string, doc types.Document) string {
	if h.storage == nil || h.storage.MinIO == nil {
		return ""
	}
	objectKey, err := h.storage.MinIO.ArchiveResume(ctx, analysisID, doc)
	if err != nil {
		h.logger.Warn().Err(err).Str("analysis_id", analysisID).Msg("archiving upload failed, analysis continues")
		return ""
	}
	return objectKey
}

func (h *AnalysisHandler) persistAndCache(ctx context.Context, report *types.Report, doc types.Document, fileMD5, digest, objectKey string) {
	if h.storage == nil {
		return
	}
	persisted := false
	if h.storage.MySQL != nil {
		row, err := models.AnalysisFromReport(report, models.AnalysisMeta{
			FileMD5:         fileMD5,
			RequestDigest:   digest,
			Filename:        doc.Filename,
			Format:          string(doc.Format),
			ObjectKey:       objectKey,
			PipelineVersion: constants.PipelineVersion,
		})
		if err == nil {
			err = h.storage.MySQL.SaveAnalysis(ctx, row)
		}
		if err != nil {
			h.logger.Warn().Err(err).Str("analysis_id", report.AnalysisID).Msg("persisting analysis failed")
		} else {
			persisted = true
		}
	}
	if h.storage.Redis != nil {
		if body, err := json.Marshal(report); err == nil {
			if err := h.storage.Redis.CacheReport(ctx, report.AnalysisID, body); err != nil {
				h.logger.Warn().Err(err).Msg("caching report failed")
			}
		}
		if persisted || h.storage.MySQL == nil {
			if err := h.storage.Redis.RememberAnalysis(ctx, digest, fileMD5, report.AnalysisID); err != nil {
				h.logger.Warn().Err(err).Msg("recording request digest failed")
			}
		} else {
			// Do not point future identical requests at a row that never
			// landed; clear any stale mapping for this digest too.
			if err := h.storage.Redis.ForgetAnalysis(ctx, digest, fileMD5); err != nil {
				h.logger.Warn().Err(err).Msg("clearing request digest failed")
			}
		}
	}
}

// writeAnalyzeError maps the fatal taxonomy onto HTTP statuses without
// leaking internals for anything unexpected.
func (h *AnalysisHandler) writeAnalyzeError(c *app.RequestContext, err error) {
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedFormat):
		c.JSON(consts.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, pipeline.ErrInputTooLarge):
		c.JSON(consts.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
	case errors.Is(err, pipeline.ErrExtractionFailure):
		c.JSON(consts.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		h.logger.Error().Err(err).Msg("analysis failed unexpectedly")
		c.JSON(consts.StatusInternalServerError, errorResponse{Error: "analysis failed"})
	}
}

func readMultipartFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
