package constants

import "time"

const (
	// PipelineVersion tags persisted analyses with the scoring/matching
	// formula revision that produced them.
	PipelineVersion = "1.0"

	// ResumeMD5TTL bounds how long duplicate detection remembers an upload.
	ResumeMD5TTL = 72 * time.Hour

	// AnalyzeContentType is the persisted content type for archived uploads.
	PDFContentType  = "application/pdf"
	DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)
