package storage

import "time"

// AnalyzeTask asks the worker to analyze an archived upload.
type AnalyzeTask struct {
	AnalysisID string `json:"analysis_id"`
	ObjectKey  string `json:"object_key"`
	Format     string `json:"format"`
	Filename   string `json:"filename,omitempty"`
	FileMD5    string `json:"file_md5,omitempty"`
	// RequestDigest keys duplicate detection: file MD5 plus the normalized
	// match knobs below.
	RequestDigest string `json:"request_digest,omitempty"`

	// Per-invocation pipeline knobs, mirroring the synchronous API surface.
	LanguageHint string `json:"language_hint,omitempty"`
	Location     string `json:"location,omitempty"`
	TopN         int    `json:"top_n,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// AnalysisCompletedEvent announces the outcome of an async analysis.
type AnalysisCompletedEvent struct {
	AnalysisID  string    `json:"analysis_id"`
	Status      string    `json:"status"`
	Score       int       `json:"score"`
	MatchCount  int       `json:"match_count"`
	CompletedAt time.Time `json:"completed_at"`
	Error       string    `json:"error,omitempty"`
}
