// Package matcher ranks jobs from an in-memory corpus against extracted
// resume features. Scoring is a deterministic skill-overlap ratio with small
// bonuses for title and experience fit; there is no embedding or model call
// on this path, so identical inputs always produce identical rankings.
package matcher

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

const (
	defaultTopN            = 10
	defaultTitleBonus      = 0.1
	defaultExperienceBonus = 0.05
)

var _ pipeline.JobMatcher = (*Matcher)(nil)

// Matcher scans a Corpus. Safe for concurrent use.
type Matcher struct {
	corpus          *Corpus
	topN            int
	titleBonus      float64
	experienceBonus float64
	logger          zerolog.Logger
}

// Option customizes a Matcher.
type Option func(*Matcher)

// WithTopN sets the default result count.
func WithTopN(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.topN = n
		}
	}
}

// WithTitleBonus sets the similarity bonus for a title match.
func WithTitleBonus(bonus float64) Option {
	return func(m *Matcher) {
		if bonus >= 0 {
			m.titleBonus = bonus
		}
	}
}

// WithExperienceBonus sets the similarity bonus for meeting the job's
// minimum experience.
func WithExperienceBonus(bonus float64) Option {
	return func(m *Matcher) {
		if bonus >= 0 {
			m.experienceBonus = bonus
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Matcher) { m.logger = logger }
}

// New builds a Matcher over a loaded corpus.
func New(corpus *Corpus, opts ...Option) (*Matcher, error) {
	if corpus == nil || corpus.Len() == 0 {
		return nil, pipeline.NewEmptyCorpusError("matcher requires a loaded corpus")
	}
	m := &Matcher{
		corpus:          corpus,
		topN:            defaultTopN,
		titleBonus:      defaultTitleBonus,
		experienceBonus: defaultExperienceBonus,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Match ranks corpus jobs against the resume. Jobs in an incompatible
// language are excluded outright, as are jobs with no skill overlap. The
// result is sorted by similarity descending with job id as the tie break,
// and an empty slice, not an error, when nothing is compatible.
func (m *Matcher) Match(ctx context.Context, feats *types.ResumeFeatures, lang types.Language, query pipeline.MatchQuery) ([]types.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if feats == nil {
		feats = &types.ResumeFeatures{}
	}
	topN := m.topN
	if query.TopN > 0 {
		topN = query.TopN
	}

	locationFilter := strings.ToLower(strings.TrimSpace(query.Location))
	results := make([]types.MatchResult, 0, topN)
	for _, job := range m.corpus.jobs {
		if !lang.Accepts(job.Language) {
			continue
		}
		if locationFilter != "" && !strings.Contains(strings.ToLower(job.Location), locationFilter) {
			continue
		}
		result, ok := m.scoreJob(feats, job)
		if !ok {
			continue
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].JobID < results[j].JobID
	})
	if len(results) > topN {
		results = results[:topN]
	}

	m.logger.Debug().
		Int("candidates", m.corpus.Len()).
		Int("results", len(results)).
		Str("language", lang.String()).
		Msg("job matching complete")
	return results, nil
}

// scoreJob computes one job's similarity. The base is the fraction of the
// job's required skills the resume covers; bonuses only apply on top of a
// non-zero base so they cannot conjure a match out of nothing.
func (m *Matcher) scoreJob(feats *types.ResumeFeatures, job types.JobRecord) (types.MatchResult, bool) {
	var matched, missing []string
	for _, skill := range job.RequiredSkills {
		if _, ok := feats.Skills[skill]; ok {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}
	if len(matched) == 0 {
		return types.MatchResult{}, false
	}

	similarity := float64(len(matched)) / float64(len(job.RequiredSkills))
	if titleMatches(feats.Titles, job.Title) {
		similarity += m.titleBonus
	}
	if job.MinExperienceYears > 0 && feats.ExperienceYears >= job.MinExperienceYears {
		similarity += m.experienceBonus
	}
	if similarity > 1 {
		similarity = 1
	}

	sort.Strings(matched)
	sort.Strings(missing)
	return types.MatchResult{
		JobID:         job.ID,
		JobTitle:      job.Title,
		Similarity:    similarity,
		MatchedSkills: matched,
		MissingSkills: missing,
	}, true
}

// titleMatches reports whether any resume title and the job title contain
// each other, case-insensitively.
func titleMatches(titles []string, jobTitle string) bool {
	jobTitle = strings.ToLower(strings.TrimSpace(jobTitle))
	if jobTitle == "" {
		return false
	}
	for _, title := range titles {
		title = strings.ToLower(strings.TrimSpace(title))
		if title == "" {
			continue
		}
		if strings.Contains(title, jobTitle) || strings.Contains(jobTitle, title) {
			return true
		}
	}
	return false
}
