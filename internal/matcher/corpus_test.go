package matcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

func TestNewCorpusRejectsEmpty(t *testing.T) {
	_, err := NewCorpus(nil)

	assert.ErrorIs(t, err, pipeline.ErrEmptyCorpus)
}

func TestNewCorpusRejectsDuplicateIDs(t *testing.T) {
	jobs := []types.JobRecord{dataEngineerJob(), dataEngineerJob()}

	_, err := NewCorpus(jobs)

	assert.ErrorContains(t, err, "duplicate job id")
}

func TestNewCorpusRejectsMissingID(t *testing.T) {
	job := dataEngineerJob()
	job.ID = "   "

	_, err := NewCorpus([]types.JobRecord{job})

	assert.ErrorContains(t, err, "has no id")
}

func TestNewCorpusNormalizesSkills(t *testing.T) {
	job := dataEngineerJob()
	job.RequiredSkills = []string{" Python ", "SQL", "python", ""}

	corpus, err := NewCorpus([]types.JobRecord{job})

	require.NoError(t, err)
	got, ok := corpus.Get("J-001")
	require.True(t, ok)
	assert.Equal(t, []string{"python", "sql"}, got.RequiredSkills)
}

const sampleCSV = `job_id,title,company,location,industry,language,required_skills,min_experience_years,salary_range,description
J-001,Data Engineer,Gulf Data Systems,"Dubai, UAE",Technology,en,Python;SQL;AWS,5,25000-35000 AED,Build and operate data pipelines.
J-002,محاسب أول,شركة الخليج المالية,"Abu Dhabi, UAE",Finance,ar,accounting;excel,3,,إدارة الحسابات والتقارير المالية
`

func TestLoadCSV(t *testing.T) {
	corpus, err := LoadCSV(strings.NewReader(sampleCSV))

	require.NoError(t, err)
	assert.Equal(t, 2, corpus.Len())

	job, ok := corpus.Get("J-001")
	require.True(t, ok)
	assert.Equal(t, "Data Engineer", job.Title)
	assert.Equal(t, types.LanguageEnglish, job.Language)
	assert.Equal(t, []string{"python", "sql", "aws"}, job.RequiredSkills)
	assert.Equal(t, 5.0, job.MinExperienceYears)

	arabic, ok := corpus.Get("J-002")
	require.True(t, ok)
	assert.Equal(t, types.LanguageArabic, arabic.Language)
	assert.Zero(t, arabic.Salary)
}

func TestLoadCSVMissingRequiredColumn(t *testing.T) {
	csv := "title,company\nData Engineer,Gulf Data Systems\n"

	_, err := LoadCSV(strings.NewReader(csv))

	assert.ErrorIs(t, err, pipeline.ErrEmptyCorpus)
	assert.ErrorContains(t, err, "job_id")
}

func TestLoadCSVSkipsMalformedRows(t *testing.T) {
	csv := "job_id,title,required_skills,min_experience_years\n" +
		"J-1,Engineer,go,abc\n" +
		"J-2,Analyst,sql,3\n" +
		"J-3,Architect\n" +
		"J-4,Developer,python,2\n"

	corpus, err := LoadCSV(strings.NewReader(csv))

	require.NoError(t, err)
	assert.Equal(t, 2, corpus.Len())
	_, ok := corpus.Get("J-1")
	assert.False(t, ok)
	_, ok = corpus.Get("J-2")
	assert.True(t, ok)
	_, ok = corpus.Get("J-4")
	assert.True(t, ok)
}

func TestLoadCSVAllRowsMalformed(t *testing.T) {
	csv := "job_id,title,required_skills,min_experience_years\nJ-1,Engineer,go,abc\n"

	_, err := LoadCSV(strings.NewReader(csv))

	assert.ErrorIs(t, err, pipeline.ErrEmptyCorpus)
}

func TestLoadJSON(t *testing.T) {
	payload := `[
		{"id": "J-010", "title": "Backend Developer", "language": "en", "required_skills": ["Go", "Docker"], "min_experience_years": 3},
		{"id": "J-011", "title": "Marketing Specialist", "industry": "Marketing", "required_skills": ["seo", "digital marketing"]}
	]`

	corpus, err := LoadJSON(strings.NewReader(payload))

	require.NoError(t, err)
	assert.Equal(t, 2, corpus.Len())
	job, ok := corpus.Get("J-010")
	require.True(t, ok)
	assert.Equal(t, []string{"go", "docker"}, job.RequiredSkills)
}

func TestLoadJSONMalformed(t *testing.T) {
	_, err := LoadJSON(strings.NewReader("{not json"))

	assert.ErrorIs(t, err, pipeline.ErrEmptyCorpus)
}

func TestCorpusIndustries(t *testing.T) {
	corpus, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Finance", "Technology"}, corpus.Industries())
	assert.Len(t, corpus.ByIndustry("finance"), 1)
	assert.Empty(t, corpus.ByIndustry("Aerospace"))
}

func TestCorpusSearch(t *testing.T) {
	corpus, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Len(t, corpus.Search("data"), 1)
	assert.Len(t, corpus.Search("الحسابات"), 1)
	assert.Empty(t, corpus.Search("astronaut"))
	assert.Empty(t, corpus.Search("  "))
}

func TestCorpusJobsReturnsCopy(t *testing.T) {
	corpus, err := NewCorpus([]types.JobRecord{dataEngineerJob()})
	require.NoError(t, err)

	jobs := corpus.Jobs()
	jobs[0].Title = "Mutated"

	original, _ := corpus.Get("J-001")
	assert.Equal(t, "Data Engineer", original.Title)
}
