// Package scorer rates resume quality from 0 to 100. A deterministic
// heuristic over the extracted features is always computed; when an AI
// assessor is configured its score is blended in, but only if the two
// agree within a tolerance, and any AI failure silently falls back to the
// heuristic so scoring never blocks the pipeline.
package scorer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

const defaultBlendTolerance = 15

var _ pipeline.ResumeScorer = (*Scorer)(nil)

// Scorer combines the fallback heuristic with an optional AI assessment.
type Scorer struct {
	heuristic      *Heuristic
	assessor       Assessor
	blendTolerance int
	logger         zerolog.Logger
}

// Option customizes a Scorer.
type Option func(*Scorer)

// WithHeuristic replaces the fallback heuristic.
func WithHeuristic(h *Heuristic) Option {
	return func(s *Scorer) {
		if h != nil {
			s.heuristic = h
		}
	}
}

// WithAssessor enables AI-assisted scoring.
func WithAssessor(a Assessor) Option {
	return func(s *Scorer) { s.assessor = a }
}

// WithBlendTolerance sets the maximum AI/heuristic disagreement, in points,
// that still blends the two scores.
func WithBlendTolerance(points int) Option {
	return func(s *Scorer) {
		if points >= 0 {
			s.blendTolerance = points
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Scorer) { s.logger = logger }
}

// New builds a Scorer. Without WithAssessor it scores from the heuristic
// alone.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		heuristic:      NewHeuristic(),
		blendTolerance: defaultBlendTolerance,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score rates one resume. The returned result is always usable: when the
// assessor fails, the fallback score is returned together with an error
// wrapping pipeline.ErrAIUnavailable so callers can degrade instead of
// aborting. When the AI score deviates from the heuristic by more than the
// blend tolerance it is discarded; otherwise the final score is the integer
// mean of the two and AI suggestions top up the heuristic ones.
func (s *Scorer) Score(ctx context.Context, feats *types.ResumeFeatures, resumeText string, lang types.Language) (*types.ScoreResult, error) {
	fallbackScore, suggestions := s.heuristic.Score(feats, lang)
	result := &types.ScoreResult{
		Score:       fallbackScore,
		Suggestions: suggestions,
		Source:      types.ScoreSourceFallback,
	}

	if s.assessor == nil {
		return result, nil
	}

	assessment, err := s.assessor.Assess(ctx, resumeText, lang)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ai assessment unavailable, keeping fallback score")
		return result, fmt.Errorf("%w: %v", pipeline.ErrAIUnavailable, err)
	}

	deviation := assessment.Score - fallbackScore
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation > s.blendTolerance {
		s.logger.Warn().
			Int("ai_score", assessment.Score).
			Int("fallback_score", fallbackScore).
			Int("tolerance", s.blendTolerance).
			Msg("ai score deviates beyond tolerance, keeping fallback score")
		return result, nil
	}

	result.Score = (assessment.Score + fallbackScore) / 2
	result.Source = types.ScoreSourceBlended
	result.Suggestions = mergeSuggestions(suggestions, assessment.Suggestions, s.heuristic.maxSuggestions)
	return result, nil
}

// mergeSuggestions keeps the heuristic suggestions first, appends AI ones
// that add something new, and caps the list.
func mergeSuggestions(heuristic, ai []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]bool, limit)
	for _, list := range [][]string{heuristic, ai} {
		for _, suggestion := range list {
			suggestion = strings.TrimSpace(suggestion)
			key := strings.ToLower(suggestion)
			if suggestion == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, suggestion)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}
