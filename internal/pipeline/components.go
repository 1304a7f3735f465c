package pipeline

import (
	"context"
	"errors"

	"resume-match-go/internal/types"
)

// The pipeline owns the stage contracts so the stage packages never import
// each other. Concrete implementations live in their own packages and are
// wired in at composition time.

// DocumentExtractor turns an uploaded binary into sectioned plain text.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc types.Document) (*types.ExtractedText, error)
}

// LanguageDetector classifies extracted text as English, Arabic or Mixed.
type LanguageDetector interface {
	Detect(extracted *types.ExtractedText) types.Language
}

// FeatureExtractor derives structured signals from extracted text. It never
// fails; the returned warnings name the signals it could not derive.
type FeatureExtractor interface {
	Extract(extracted *types.ExtractedText, lang types.Language) (*types.ResumeFeatures, []string)
}

// ResumeScorer produces the 0-100 quality verdict. Implementations may
// return a usable result together with an error wrapping ErrAIUnavailable
// when an optional assessment path failed and a fallback filled in.
type ResumeScorer interface {
	Score(ctx context.Context, feats *types.ResumeFeatures, resumeText string, lang types.Language) (*types.ScoreResult, error)
}

// JobMatcher ranks corpus jobs against extracted features.
type JobMatcher interface {
	Match(ctx context.Context, feats *types.ResumeFeatures, lang types.Language, query MatchQuery) ([]types.MatchResult, error)
}

// MatchQuery carries the per-invocation matching knobs.
type MatchQuery struct {
	// TopN caps the number of returned matches. Zero means the matcher's
	// own default.
	TopN int `json:"top_n,omitempty"`
	// Location keeps only jobs whose location contains this value,
	// case-insensitively. Empty disables the filter.
	Location string `json:"location,omitempty"`
}

// Components aggregates the five stage implementations handed to New.
// Every field is required.
type Components struct {
	Extractor DocumentExtractor
	Detector  LanguageDetector
	Features  FeatureExtractor
	Scorer    ResumeScorer
	Matcher   JobMatcher
}

var (
	ErrExtractorNotSet = errors.New("pipeline: document extractor not configured")
	ErrDetectorNotSet  = errors.New("pipeline: language detector not configured")
	ErrFeaturesNotSet  = errors.New("pipeline: feature extractor not configured")
	ErrScorerNotSet    = errors.New("pipeline: scorer not configured")
	ErrMatcherNotSet   = errors.New("pipeline: job matcher not configured")
)

func (c Components) validate() error {
	switch {
	case c.Extractor == nil:
		return ErrExtractorNotSet
	case c.Detector == nil:
		return ErrDetectorNotSet
	case c.Features == nil:
		return ErrFeaturesNotSet
	case c.Scorer == nil:
		return ErrScorerNotSet
	case c.Matcher == nil:
		return ErrMatcherNotSet
	}
	return nil
}
