package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/router"
	"resume-match-go/internal/config"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

// stubAnalyzer returns a canned report or error and records the request.
type stubAnalyzer struct {
	report  *types.Report
	err     error
	lastReq pipeline.AnalyzeRequest
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (*types.Report, error) {
	s.lastReq = req
	if s.err != nil {
		return &types.Report{Status: types.StatusFailed, Matches: []types.MatchResult{}}, s.err
	}
	// Copy so per-request fields never leak between invocations.
	report := *s.report
	return &report, nil
}

func testCorpus(t *testing.T) *matcher.Corpus {
	t.Helper()
	corpus, err := matcher.NewCorpus([]types.JobRecord{
		{ID: "job-001", Title: "Backend Engineer", Industry: "Technology", Location: "Dubai",
			RequiredSkills: []string{"python", "sql", "aws"}, Description: "Build services"},
		{ID: "job-002", Title: "Data Analyst", Industry: "Technology", Location: "Abu Dhabi",
			RequiredSkills: []string{"sql", "excel"}},
		{ID: "job-003", Title: "Accountant", Industry: "Finance", Location: "Dubai",
			RequiredSkills: []string{"accounting"}},
	})
	require.NoError(t, err)
	return corpus
}

func newTestServer(t *testing.T, analyzer handler.Analyzer, apiKey string) *server.Hertz {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Server.APIKey = apiKey

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	analysisHandler := handler.NewAnalysisHandler(cfg, analyzer, nil,
		handler.WithClock(func() time.Time { return fixed }),
		handler.WithIDSource(func() (uuid.UUID, error) {
			return uuid.FromString("11111111-2222-3333-4444-555555555555")
		}),
	)
	jobHandler := handler.NewJobHandler(testCorpus(t))

	h := server.New()
	router.RegisterRoutes(h, analysisHandler, jobHandler, apiKey)
	return h
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestAnalyzeHappyPath(t *testing.T) {
	analyzer := &stubAnalyzer{report: &types.Report{
		Language: types.LanguageEnglish,
		Score:    &types.ScoreResult{Score: 81, Suggestions: []string{"add more skills"}, Source: types.ScoreSourceFallback},
		Matches:  []types.MatchResult{{JobID: "job-001", JobTitle: "Backend Engineer", Similarity: 2.0 / 3.0, MatchedSkills: []string{"python", "sql"}}},
		Status:   types.StatusAnalyzed,
	}}
	h := newTestServer(t, analyzer, "")

	body, contentType := multipartUpload(t, "resume.pdf", []byte("%PDF-1.4 test"), map[string]string{
		"language_hint": "en",
		"location":      "Dubai",
		"top_n":         "5",
	})
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/resumes/analyze",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	var report types.Report
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &report))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", report.AnalysisID)
	assert.Equal(t, types.StatusAnalyzed, report.Status)
	assert.Equal(t, 81, report.Score.Score)
	require.Len(t, report.Matches, 1)
	assert.Equal(t, "job-001", report.Matches[0].JobID)

	assert.Equal(t, types.FormatPDF, analyzer.lastReq.Document.Format)
	assert.Equal(t, types.LanguageEnglish, analyzer.lastReq.LanguageHint)
	assert.Equal(t, "Dubai", analyzer.lastReq.Query.Location)
	assert.Equal(t, 5, analyzer.lastReq.Query.TopN)
}

func TestAnalyzeRejectsUnsupportedExtension(t *testing.T) {
	h := newTestServer(t, &stubAnalyzer{report: &types.Report{Status: types.StatusAnalyzed}}, "")

	body, contentType := multipartUpload(t, "resume.txt", []byte("plain text"), nil)
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/resumes/analyze",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAnalyzeRequiresFile(t *testing.T) {
	h := newTestServer(t, &stubAnalyzer{report: &types.Report{Status: types.StatusAnalyzed}}, "")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.Close())
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/resumes/analyze",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: writer.FormDataContentType()},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAnalyzeMapsFatalTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"unsupported format", pipeline.NewUnsupportedFormatError("format TXT"), http.StatusBadRequest},
		{"input too large", pipeline.NewInputTooLargeError("14 MiB over 10 MiB cap"), http.StatusRequestEntityTooLarge},
		{"extraction failure", pipeline.NewExtractionError("no recoverable text"), http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, &stubAnalyzer{err: tc.err}, "")
			body, contentType := multipartUpload(t, "resume.pdf", []byte("%PDF-1.4"), nil)
			resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/resumes/analyze",
				&ut.Body{Body: body, Len: body.Len()},
				ut.Header{Key: "Content-Type", Value: contentType},
			)
			assert.Equal(t, tc.wantCode, resp.Code)
		})
	}
}

func TestAnalyzeAsyncUnavailableWithoutQueue(t *testing.T) {
	h := newTestServer(t, &stubAnalyzer{report: &types.Report{Status: types.StatusAnalyzed}}, "")

	body, contentType := multipartUpload(t, "resume.pdf", []byte("%PDF-1.4"), nil)
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/resumes/analyze/async",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestGetAnalysisNotFoundWithoutStores(t *testing.T) {
	h := newTestServer(t, &stubAnalyzer{report: &types.Report{Status: types.StatusAnalyzed}}, "")

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/analyses/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteAnalysisUnavailableWithoutStores(t *testing.T) {
	h := newTestServer(t, &stubAnalyzer{report: &types.Report{Status: types.StatusAnalyzed}}, "")

	resp := ut.PerformRequest(h.Engine, "DELETE", "/api/v1/analyses/some-id", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestAPIKeyGate(t *testing.T) {
	h := newTestServer(t, &stubAnalyzer{report: &types.Report{Status: types.StatusAnalyzed}}, "sekret")

	t.Run("health stays open", func(t *testing.T) {
		resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("missing key rejected", func(t *testing.T) {
		resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("valid key accepted", func(t *testing.T) {
		resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs", nil,
			ut.Header{Key: "X-API-Key", Value: "sekret"})
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}
