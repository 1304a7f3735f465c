package types

// ScoreSource records which path produced the final score.
type ScoreSource string

const (
	// ScoreSourceFallback means the deterministic formula alone.
	ScoreSourceFallback ScoreSource = "fallback"
	// ScoreSourceBlended means the AI assessment was accepted and blended
	// with the deterministic formula.
	ScoreSourceBlended ScoreSource = "blended"
)

// ScoreResult is the resume quality verdict.
//
// Score is always within [0,100]. Suggestions are ordered, each tied to one
// concrete deficiency, and capped at five entries.
type ScoreResult struct {
	Score       int         `json:"score"`
	Suggestions []string    `json:"suggestions"`
	Source      ScoreSource `json:"source"`
}

// ScoreBand buckets a score for presentation.
type ScoreBand string

const (
	ScoreBandExcellent ScoreBand = "excellent"
	ScoreBandGood      ScoreBand = "good"
	ScoreBandFair      ScoreBand = "fair"
	ScoreBandPoor      ScoreBand = "poor"
)

// BandForScore maps a 0-100 score onto its presentation band.
func BandForScore(score int) ScoreBand {
	switch {
	case score >= 85:
		return ScoreBandExcellent
	case score >= 70:
		return ScoreBandGood
	case score >= 50:
		return ScoreBandFair
	default:
		return ScoreBandPoor
	}
}

var scoreBandLabels = map[ScoreBand]map[Language]string{
	ScoreBandExcellent: {
		LanguageEnglish: "Excellent resume with strong market fit",
		LanguageArabic:  "سيرة ذاتية ممتازة وملائمة بقوة لسوق العمل",
	},
	ScoreBandGood: {
		LanguageEnglish: "Good resume with minor gaps",
		LanguageArabic:  "سيرة ذاتية جيدة مع ثغرات بسيطة",
	},
	ScoreBandFair: {
		LanguageEnglish: "Fair resume that needs targeted improvements",
		LanguageArabic:  "سيرة ذاتية مقبولة وتحتاج إلى تحسينات محددة",
	},
	ScoreBandPoor: {
		LanguageEnglish: "Weak resume that needs substantial rework",
		LanguageArabic:  "سيرة ذاتية ضعيفة وتحتاج إلى إعادة صياغة جوهرية",
	},
}

// DescribeScore renders the band label in the requested language.
// Mixed and unknown languages fall back to English.
func DescribeScore(score int, lang Language) string {
	labels := scoreBandLabels[BandForScore(score)]
	if text, ok := labels[lang]; ok {
		return text
	}
	return labels[LanguageEnglish]
}
