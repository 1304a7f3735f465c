package pipeline_test

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/extractor"
	"resume-match-go/internal/features"
	"resume-match-go/internal/language"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/scorer"
	"resume-match-go/internal/types"
)

const resumeBody = `Ahmed Khan
ahmed.khan@example.com
+971 50 123 4567

Summary
Data engineer with six years building analytics platforms in the Gulf region.

Skills
Python, SQL, Docker, AWS

Experience
Data Engineer at Falcon Analytics
Jan 2018 - Dec 2023
Built ETL pipelines in Python feeding a SQL warehouse on AWS.

Education
Bachelor of Science in Computer Science`

// buildDocx assembles a minimal OOXML binary, one paragraph per input line.
func buildDocx(t *testing.T, text string) []byte {
	t.Helper()

	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, line := range strings.Split(text, "\n") {
		doc.WriteString("<w:p><w:r><w:t>")
		doc.WriteString(line)
		doc.WriteString("</w:t></w:r></w:p>")
	}
	doc.WriteString("</w:body></w:document>")

	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range []struct{ name, body string }{
		{"word/document.xml", doc.String()},
		{"word/_rels/document.xml.rels", rels},
	} {
		w, err := zw.Create(entry.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entry.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func realPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	ctx := context.Background()

	docExtractor, err := extractor.New(ctx)
	require.NoError(t, err)

	corpus, err := matcher.NewCorpus([]types.JobRecord{
		{ID: "J-100", Title: "Data Engineer", RequiredSkills: []string{"python", "sql", "etl"}, MinExperienceYears: 3},
		{ID: "J-200", Title: "Frontend Developer", RequiredSkills: []string{"react", "css"}},
		{ID: "J-300", Title: "Cloud Engineer", RequiredSkills: []string{"docker", "aws", "kubernetes"}},
	})
	require.NoError(t, err)
	jobMatcher, err := matcher.New(corpus)
	require.NoError(t, err)

	fixedNow := func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }
	p, err := pipeline.New(pipeline.Components{
		Extractor: docExtractor,
		Detector:  language.NewDetector(),
		Features:  features.New(features.WithClock(fixedNow)),
		Scorer:    scorer.New(),
		Matcher:   jobMatcher,
	})
	require.NoError(t, err)
	return p
}

// Runs the real stages, no stubs, over a fixed binary: extraction, language
// detection, feature derivation, heuristic scoring and corpus matching must
// reproduce the identical report on a rerun.
func TestAnalyzeEndToEndIsDeterministic(t *testing.T) {
	p := realPipeline(t)
	request := pipeline.AnalyzeRequest{
		Document: types.Document{
			Data:     buildDocx(t, resumeBody),
			Format:   types.FormatDOCX,
			Filename: "resume.docx",
		},
		Query: pipeline.MatchQuery{TopN: 5},
	}

	first, err := p.Analyze(context.Background(), request)
	require.NoError(t, err)
	second, err := p.Analyze(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical input must reproduce the report")

	assert.Equal(t, types.StatusAnalyzed, first.Status)
	assert.Equal(t, types.LanguageEnglish, first.Language)
	assert.Contains(t, first.Features.Skills, "python")
	assert.Contains(t, first.Features.Skills, "sql")
	assert.InDelta(t, 5.9, first.Features.ExperienceYears, 0.001)
	assert.Equal(t, types.ScoreSourceFallback, first.Score.Source)

	require.Len(t, first.Matches, 2, "the frontend posting shares no skills")
	assert.Equal(t, "J-100", first.Matches[0].JobID)
	assert.Equal(t, "J-300", first.Matches[1].JobID)
}
