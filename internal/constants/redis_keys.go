package constants

// Redis key layout. One naming scheme across the service:
// app:{module}:{entity}[:{id}]
const (
	// AppPrefix is the shared prefix of every key this service writes.
	AppPrefix = "app"

	// ResumeModulePrefix covers uploaded resume bookkeeping.
	ResumeModulePrefix = "resume"
	// AnalysisModulePrefix covers cached analysis reports.
	AnalysisModulePrefix = "analysis"

	// KeyResumeMD5Set is the deduplication set of uploaded-file MD5 digests (SET).
	// Layout: app:resume:dedup_set
	KeyResumeMD5Set = AppPrefix + ":" + ResumeModulePrefix + ":dedup_set"

	// KeyRequestDigestToAnalysis maps a request digest (file MD5 plus the
	// normalized match knobs) to the analysis that already covers it
	// (STRING). Identical bytes with different knobs produce different
	// reports, so content alone is not a safe cache key.
	// Layout: app:resume:digest_to_analysis:{digest}
	KeyRequestDigestToAnalysis = AppPrefix + ":" + ResumeModulePrefix + ":digest_to_analysis:%s"

	// KeyAnalysisReport caches a rendered report JSON (STRING).
	// Layout: app:analysis:report:{analysis_id}
	KeyAnalysisReport = AppPrefix + ":" + AnalysisModulePrefix + ":report:%s"
)
