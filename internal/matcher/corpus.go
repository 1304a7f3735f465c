package matcher

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

// Corpus is the immutable in-memory job collection the matcher scans. It is
// built once at startup and safe for concurrent reads.
type Corpus struct {
	jobs       []types.JobRecord
	byID       map[string]int
	industries []string
}

// NewCorpus validates and indexes a job list. Skills are normalized to
// lower case so matching against feature names is direct. An empty list is
// an error: serving match requests against nothing is a deployment fault.
func NewCorpus(jobs []types.JobRecord) (*Corpus, error) {
	if len(jobs) == 0 {
		return nil, pipeline.NewEmptyCorpusError("no job records")
	}

	c := &Corpus{
		jobs: make([]types.JobRecord, 0, len(jobs)),
		byID: make(map[string]int, len(jobs)),
	}
	industrySet := make(map[string]bool)

	for i, job := range jobs {
		job.ID = strings.TrimSpace(job.ID)
		if job.ID == "" {
			return nil, fmt.Errorf("job record %d has no id", i)
		}
		if _, dup := c.byID[job.ID]; dup {
			return nil, fmt.Errorf("duplicate job id %q", job.ID)
		}
		job.Title = strings.TrimSpace(job.Title)
		job.RequiredSkills = normalizeSkills(job.RequiredSkills)

		c.byID[job.ID] = len(c.jobs)
		c.jobs = append(c.jobs, job)
		if job.Industry != "" {
			industrySet[job.Industry] = true
		}
	}

	for industry := range industrySet {
		c.industries = append(c.industries, industry)
	}
	sort.Strings(c.industries)
	return c, nil
}

// LoadFile reads a corpus from a local .json or .csv file.
func LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pipeline.NewEmptyCorpusError(fmt.Sprintf("open corpus file: %v", err))
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(f)
	case ".csv":
		return LoadCSV(f)
	default:
		return nil, pipeline.NewEmptyCorpusError(fmt.Sprintf("unsupported corpus file extension %q", filepath.Ext(path)))
	}
}

// LoadJSON decodes a corpus from a JSON array of job records.
func LoadJSON(r io.Reader) (*Corpus, error) {
	var jobs []types.JobRecord
	if err := json.NewDecoder(r).Decode(&jobs); err != nil {
		return nil, pipeline.NewEmptyCorpusError(fmt.Sprintf("decode corpus JSON: %v", err))
	}
	return NewCorpus(jobs)
}

// csvColumns maps header names to record fields. required_skills holds a
// semicolon-separated list.
var csvColumns = []string{
	"job_id", "title", "company", "location", "industry", "language",
	"required_skills", "min_experience_years", "salary_range", "description",
}

// LoadCSV decodes a corpus from headered CSV. Column order is free; the
// job_id, title and required_skills columns must be present.
func LoadCSV(r io.Reader) (*Corpus, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, pipeline.NewEmptyCorpusError(fmt.Sprintf("read corpus CSV header: %v", err))
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"job_id", "title", "required_skills"} {
		if _, ok := index[required]; !ok {
			return nil, pipeline.NewEmptyCorpusError(fmt.Sprintf("corpus CSV is missing the %s column", required))
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// Malformed rows are skipped with a warning, same as the job_postings
	// table loader; only a corpus with zero usable rows is an error.
	var jobs []types.JobRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			logger.Logger.Warn().Err(err).Int("line", line).Msg("skipping malformed corpus CSV row")
			continue
		}
		if err != nil {
			return nil, pipeline.NewEmptyCorpusError(fmt.Sprintf("read corpus CSV line %d: %v", line, err))
		}

		minYears := 0.0
		if raw := field(row, "min_experience_years"); raw != "" {
			minYears, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				logger.Logger.Warn().Str("value", raw).Int("line", line).Msg("skipping corpus CSV row with bad min_experience_years")
				continue
			}
		}

		lang, _ := types.ParseLanguage(field(row, "language"))
		jobs = append(jobs, types.JobRecord{
			ID:                 field(row, "job_id"),
			Title:              field(row, "title"),
			Company:            field(row, "company"),
			Location:           field(row, "location"),
			Industry:           field(row, "industry"),
			Language:           lang,
			RequiredSkills:     strings.Split(field(row, "required_skills"), ";"),
			MinExperienceYears: minYears,
			Salary:             field(row, "salary_range"),
			Description:        field(row, "description"),
		})
	}
	return NewCorpus(jobs)
}

// Len returns the number of jobs.
func (c *Corpus) Len() int {
	return len(c.jobs)
}

// Get returns the job with the given id.
func (c *Corpus) Get(id string) (types.JobRecord, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.JobRecord{}, false
	}
	return c.jobs[i], true
}

// Jobs returns a copy of all records in load order.
func (c *Corpus) Jobs() []types.JobRecord {
	out := make([]types.JobRecord, len(c.jobs))
	copy(out, c.jobs)
	return out
}

// Industries returns the distinct industry names, sorted.
func (c *Corpus) Industries() []string {
	out := make([]string, len(c.industries))
	copy(out, c.industries)
	return out
}

// ByIndustry returns the jobs in one industry, in load order.
func (c *Corpus) ByIndustry(industry string) []types.JobRecord {
	var out []types.JobRecord
	for _, job := range c.jobs {
		if strings.EqualFold(job.Industry, industry) {
			out = append(out, job)
		}
	}
	return out
}

// Search returns jobs whose title, company or description contains the
// query, case-insensitively, in load order.
func (c *Corpus) Search(query string) []types.JobRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []types.JobRecord
	for _, job := range c.jobs {
		haystack := strings.ToLower(job.Title + "\n" + job.Company + "\n" + job.Description)
		if strings.Contains(haystack, query) {
			out = append(out, job)
		}
	}
	return out
}

// normalizeSkills lower-cases, trims and dedupes a skill list, preserving
// first-seen order.
func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, skill := range skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" || seen[skill] {
			continue
		}
		seen[skill] = true
		out = append(out, skill)
	}
	return out
}
