package pipeline

import (
	"errors"
	"fmt"
)

// Fatal taxonomy: these abort the invocation and surface to the caller.
var (
	// ErrUnsupportedFormat means the declared format is neither PDF nor DOCX.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtractionFailure means the binary is corrupt or yielded no text.
	ErrExtractionFailure = errors.New("document text extraction failed")
	// ErrInputTooLarge means the payload exceeds the configured size limit.
	ErrInputTooLarge = errors.New("document exceeds size limit")
)

// Non-fatal taxonomy: these degrade the result and are recorded as warnings.
var (
	// ErrNoExperienceSection means the experience section could not be located.
	ErrNoExperienceSection = errors.New("no experience section found")
	// ErrEmptyCorpus means the job corpus failed to load or holds no records.
	// It is fatal at construction time, never during an invocation.
	ErrEmptyCorpus = errors.New("job corpus is empty")
	// ErrAIUnavailable means the AI capability failed or timed out and the
	// deterministic fallback produced the score.
	ErrAIUnavailable = errors.New("ai capability unavailable")
)

// Stage names an analysis phase for error reporting.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageDetect   Stage = "detect"
	StageFeatures Stage = "features"
	StageScore    Stage = "score"
	StageMatch    Stage = "match"
)

// AnalysisError wraps a taxonomy sentinel with the stage it occurred in and
// an optional detail string. errors.Is matches the sentinel through it.
type AnalysisError struct {
	Stage   Stage
	BaseErr error
	Detail  string
}

func (e *AnalysisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (stage:%s): %s", e.BaseErr, e.Stage, e.Detail)
	}
	return fmt.Sprintf("%s (stage:%s)", e.BaseErr, e.Stage)
}

func (e *AnalysisError) Unwrap() error {
	return e.BaseErr
}

// Is lets errors.Is treat the wrapper as its sentinel.
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewUnsupportedFormatError reports a format outside PDF/DOCX.
func NewUnsupportedFormatError(detail string) error {
	return &AnalysisError{Stage: StageExtract, BaseErr: ErrUnsupportedFormat, Detail: detail}
}

// NewExtractionError reports a corrupt or text-free binary.
func NewExtractionError(detail string) error {
	return &AnalysisError{Stage: StageExtract, BaseErr: ErrExtractionFailure, Detail: detail}
}

// NewInputTooLargeError reports a payload over the size cap.
func NewInputTooLargeError(detail string) error {
	return &AnalysisError{Stage: StageExtract, BaseErr: ErrInputTooLarge, Detail: detail}
}

// NewEmptyCorpusError reports a corpus that failed to load.
func NewEmptyCorpusError(detail string) error {
	return &AnalysisError{Stage: StageMatch, BaseErr: ErrEmptyCorpus, Detail: detail}
}

// IsFatal reports whether err belongs to the aborting taxonomy.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrExtractionFailure) ||
		errors.Is(err, ErrInputTooLarge)
}
