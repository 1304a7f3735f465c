package types

import "time"

// AnalysisStatus distinguishes how far an invocation got.
type AnalysisStatus string

const (
	// StatusAnalyzed means every stage ran with full fidelity.
	StatusAnalyzed AnalysisStatus = "analyzed"
	// StatusDegraded means the pipeline completed but one or more optional
	// signals were unavailable (missing experience section, AI fallback,
	// empty corpus filter result caused by upstream data).
	StatusDegraded AnalysisStatus = "analyzed_degraded"
	// StatusFailed means a fatal error aborted the invocation.
	StatusFailed AnalysisStatus = "failed"
)

// Report is the composite pipeline output handed to callers and to the
// external report renderer.
//
// For byte-identical input and an unchanged corpus every field except
// AnalysisID and AnalyzedAt is reproduced exactly; those two are assigned
// by the service layer, not by the pipeline.
type Report struct {
	AnalysisID       string          `json:"analysis_id,omitempty"`
	Language         Language        `json:"language"`
	Features         *ResumeFeatures `json:"features,omitempty"`
	Score            *ScoreResult    `json:"score,omitempty"`
	ScoreDescription string          `json:"score_description,omitempty"`
	Matches          []MatchResult   `json:"matches"`
	Status           AnalysisStatus  `json:"status"`
	Warnings         []string        `json:"warnings,omitempty"`
	AnalyzedAt       time.Time       `json:"analyzed_at,omitempty"`
}

// Degrade appends a warning and lowers the status to StatusDegraded unless
// the report already failed.
func (r *Report) Degrade(warning string) {
	r.Warnings = append(r.Warnings, warning)
	if r.Status != StatusFailed {
		r.Status = StatusDegraded
	}
}
