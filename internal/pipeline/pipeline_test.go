package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/types"
)

type stubExtractor struct {
	extracted *types.ExtractedText
	err       error
	calls     int
}

func (s *stubExtractor) Extract(_ context.Context, _ types.Document) (*types.ExtractedText, error) {
	s.calls++
	return s.extracted, s.err
}

type stubDetector struct {
	lang  types.Language
	calls int
}

func (s *stubDetector) Detect(_ *types.ExtractedText) types.Language {
	s.calls++
	return s.lang
}

type stubFeatures struct {
	feats    *types.ResumeFeatures
	warnings []string
	gotLang  types.Language
}

func (s *stubFeatures) Extract(_ *types.ExtractedText, lang types.Language) (*types.ResumeFeatures, []string) {
	s.gotLang = lang
	return s.feats, s.warnings
}

type stubScorer struct {
	result  *types.ScoreResult
	err     error
	gotText string
	gotLang types.Language
}

func (s *stubScorer) Score(_ context.Context, _ *types.ResumeFeatures, resumeText string, lang types.Language) (*types.ScoreResult, error) {
	s.gotText = resumeText
	s.gotLang = lang
	return s.result, s.err
}

type stubMatcher struct {
	matches  []types.MatchResult
	err      error
	gotQuery MatchQuery
	gotLang  types.Language
}

func (s *stubMatcher) Match(_ context.Context, _ *types.ResumeFeatures, lang types.Language, query MatchQuery) ([]types.MatchResult, error) {
	s.gotLang = lang
	s.gotQuery = query
	return s.matches, s.err
}

type stubs struct {
	extractor *stubExtractor
	detector  *stubDetector
	features  *stubFeatures
	scorer    *stubScorer
	matcher   *stubMatcher
}

func healthyStubs() stubs {
	return stubs{
		extractor: &stubExtractor{
			extracted: &types.ExtractedText{
				Sections: []types.Section{
					{Label: types.SectionSummary, Text: "Seasoned data engineer."},
					{Label: types.SectionSkills, Text: "Python, SQL"},
				},
				CharCount: 36,
			},
		},
		detector: &stubDetector{lang: types.LanguageEnglish},
		features: &stubFeatures{
			feats: &types.ResumeFeatures{
				Skills: map[string]float64{"python": 1, "sql": 1},
			},
		},
		scorer: &stubScorer{
			result: &types.ScoreResult{
				Score:       88,
				Suggestions: []string{"Add a LinkedIn profile URL."},
				Source:      types.ScoreSourceBlended,
			},
		},
		matcher: &stubMatcher{
			matches: []types.MatchResult{
				{JobID: "J-001", JobTitle: "Data Engineer", Similarity: 2.0 / 3.0},
			},
		},
	}
}

func (s stubs) components() Components {
	return Components{
		Extractor: s.extractor,
		Detector:  s.detector,
		Features:  s.features,
		Scorer:    s.scorer,
		Matcher:   s.matcher,
	}
}

func (s stubs) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(s.components())
	require.NoError(t, err)
	return p
}

func pdfRequest() AnalyzeRequest {
	return AnalyzeRequest{
		Document: types.Document{
			Data:     []byte("%PDF-1.7 stub"),
			Format:   types.FormatPDF,
			Filename: "resume.pdf",
		},
	}
}

func TestNewRequiresEveryComponent(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Components)
		want   error
	}{
		{"extractor", func(c *Components) { c.Extractor = nil }, ErrExtractorNotSet},
		{"detector", func(c *Components) { c.Detector = nil }, ErrDetectorNotSet},
		{"features", func(c *Components) { c.Features = nil }, ErrFeaturesNotSet},
		{"scorer", func(c *Components) { c.Scorer = nil }, ErrScorerNotSet},
		{"matcher", func(c *Components) { c.Matcher = nil }, ErrMatcherNotSet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			comp := healthyStubs().components()
			tc.mutate(&comp)
			_, err := New(comp)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAnalyzeFullFidelity(t *testing.T) {
	st := healthyStubs()
	p := st.pipeline(t)

	report, err := p.Analyze(context.Background(), pdfRequest())

	require.NoError(t, err)
	assert.Equal(t, types.StatusAnalyzed, report.Status)
	assert.Equal(t, types.LanguageEnglish, report.Language)
	assert.Same(t, st.features.feats, report.Features)
	assert.Same(t, st.scorer.result, report.Score)
	assert.Equal(t, "Excellent resume with strong market fit", report.ScoreDescription)
	assert.Equal(t, st.matcher.matches, report.Matches)
	assert.Empty(t, report.Warnings)
	assert.Empty(t, report.AnalysisID, "the service layer assigns ids")
	assert.True(t, report.AnalyzedAt.IsZero(), "the service layer assigns timestamps")
}

func TestAnalyzeHandsStagesTheirInputs(t *testing.T) {
	st := healthyStubs()
	p := st.pipeline(t)

	req := pdfRequest()
	req.Query = MatchQuery{TopN: 3, Location: "Dubai"}
	_, err := p.Analyze(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, st.extractor.calls)
	assert.Equal(t, types.LanguageEnglish, st.features.gotLang)
	assert.Equal(t, st.extractor.extracted.PlainText(), st.scorer.gotText)
	assert.Equal(t, types.LanguageEnglish, st.scorer.gotLang)
	assert.Equal(t, MatchQuery{TopN: 3, Location: "Dubai"}, st.matcher.gotQuery)
}

func TestAnalyzeLanguageHintSkipsDetection(t *testing.T) {
	st := healthyStubs()
	p := st.pipeline(t)

	req := pdfRequest()
	req.LanguageHint = types.LanguageArabic
	report, err := p.Analyze(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 0, st.detector.calls)
	assert.Equal(t, types.LanguageArabic, report.Language)
	assert.Equal(t, types.LanguageArabic, st.scorer.gotLang)
	assert.Equal(t, types.LanguageArabic, st.matcher.gotLang)
	assert.Equal(t, "سيرة ذاتية ممتازة وملائمة بقوة لسوق العمل", report.ScoreDescription)
}

func TestAnalyzeFeatureWarningsDegrade(t *testing.T) {
	st := healthyStubs()
	st.features.warnings = []string{ErrNoExperienceSection.Error()}
	p := st.pipeline(t)

	report, err := p.Analyze(context.Background(), pdfRequest())

	require.NoError(t, err)
	assert.Equal(t, types.StatusDegraded, report.Status)
	assert.Equal(t, []string{ErrNoExperienceSection.Error()}, report.Warnings)
}

func TestAnalyzeDegradesOnAIFailure(t *testing.T) {
	st := healthyStubs()
	st.scorer.result = &types.ScoreResult{Score: 70, Source: types.ScoreSourceFallback}
	st.scorer.err = fmt.Errorf("%w: model timed out", ErrAIUnavailable)
	p := st.pipeline(t)

	report, err := p.Analyze(context.Background(), pdfRequest())

	require.NoError(t, err, "an unavailable assessor must not abort the run")
	assert.Equal(t, types.StatusDegraded, report.Status)
	assert.Equal(t, 70, report.Score.Score)
	assert.Equal(t, types.ScoreSourceFallback, report.Score.Source)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "ai assessment unavailable")
	assert.Equal(t, st.matcher.matches, report.Matches, "matching still runs after degradation")
}

func TestAnalyzeExtractionFailureIsFatal(t *testing.T) {
	st := healthyStubs()
	st.extractor.extracted = nil
	st.extractor.err = NewExtractionError("no text layer")
	p := st.pipeline(t)

	report, err := p.Analyze(context.Background(), pdfRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailure)
	require.NotNil(t, report, "a failed report is still returned for persistence")
	assert.Equal(t, types.StatusFailed, report.Status)
	assert.NotEmpty(t, report.Warnings)
}

func TestAnalyzeUnsupportedFormatIsFatal(t *testing.T) {
	st := healthyStubs()
	st.extractor.extracted = nil
	st.extractor.err = NewUnsupportedFormatError("declared format: rtf")
	p := st.pipeline(t)

	report, err := p.Analyze(context.Background(), pdfRequest())

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, types.StatusFailed, report.Status)
}

func TestAnalyzeScorerHardFailureIsFatal(t *testing.T) {
	st := healthyStubs()
	st.scorer.result = nil
	st.scorer.err = errors.New("scorer panic guard tripped")
	p := st.pipeline(t)

	report, err := p.Analyze(context.Background(), pdfRequest())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAIUnavailable)
	assert.Equal(t, types.StatusFailed, report.Status)
}

func TestAnalyzeMatcherErrorIsFatal(t *testing.T) {
	st := healthyStubs()
	st.matcher.matches = nil
	st.matcher.err = context.Canceled
	p := st.pipeline(t)

	report, err := p.Analyze(context.Background(), pdfRequest())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, types.StatusFailed, report.Status)
}

func TestAnalyzeEmptyMatchesIsNotAnError(t *testing.T) {
	st := healthyStubs()
	st.matcher.matches = nil
	p := st.pipeline(t)

	report, err := p.Analyze(context.Background(), pdfRequest())

	require.NoError(t, err)
	assert.Equal(t, types.StatusAnalyzed, report.Status)
	assert.NotNil(t, report.Matches)
	assert.Empty(t, report.Matches)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	st := healthyStubs()
	p := st.pipeline(t)

	first, err := p.Analyze(context.Background(), pdfRequest())
	require.NoError(t, err)
	second, err := p.Analyze(context.Background(), pdfRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical input must reproduce the report")
}
