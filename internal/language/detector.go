// Package language assigns the dominant Language tag to extracted resume
// text. Detection never fails: when the evidence is too weak to call, the
// tag defaults to English so downstream tokenizers always receive one.
package language

import (
	"unicode"

	"github.com/RadhiFadlillah/whatlanggo"

	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

const (
	// defaultDominance is the weight share a language needs to win outright.
	// Anything between the two thresholds is a tie and resolves to Mixed.
	defaultDominance = 0.65
	// minRunesForTrigram is the section size below which trigram detection
	// is skipped in favor of plain script counting.
	minRunesForTrigram = 20
	// minConfidence gates the trigram verdict.
	minConfidence = 0.25
)

var detectWhitelist = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Arb: true,
	},
}

var _ pipeline.LanguageDetector = (*Detector)(nil)

// Detector classifies per-section and resolves one document-level tag by
// majority vote weighted by section length. Safe for concurrent use.
type Detector struct {
	dominance float64
}

// Option configures a Detector.
type Option func(*Detector)

// WithDominance overrides the winning weight share. Values outside (0.5, 1]
// are ignored.
func WithDominance(share float64) Option {
	return func(d *Detector) {
		if share > 0.5 && share <= 1 {
			d.dominance = share
		}
	}
}

// NewDetector builds a Detector.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{dominance: defaultDominance}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect resolves the document language tag.
func (d *Detector) Detect(extracted *types.ExtractedText) types.Language {
	if extracted == nil {
		return types.LanguageEnglish
	}

	var englishWeight, arabicWeight float64
	for _, section := range extracted.Sections {
		lang, ok := classifySection(section.Text)
		if !ok {
			continue
		}
		weight := float64(len([]rune(section.Text)))
		switch lang {
		case types.LanguageArabic:
			arabicWeight += weight
		case types.LanguageEnglish:
			englishWeight += weight
		}
	}

	total := englishWeight + arabicWeight
	if total == 0 {
		return types.LanguageEnglish
	}

	switch {
	case englishWeight/total >= d.dominance:
		return types.LanguageEnglish
	case arabicWeight/total >= d.dominance:
		return types.LanguageArabic
	default:
		return types.LanguageMixed
	}
}

// classifySection tags one section. Short sections go straight to script
// counting; longer ones get a trigram pass first, with script counting as
// the low-confidence fallback. The second return value is false when the
// section holds no letters at all.
func classifySection(text string) (types.Language, bool) {
	arabic, latin := countScripts(text)
	letters := arabic + latin
	if letters == 0 {
		return "", false
	}

	if letters >= minRunesForTrigram {
		info := whatlanggo.DetectWithOptions(text, detectWhitelist)
		if info.Confidence >= minConfidence {
			switch info.Lang {
			case whatlanggo.Arb:
				return types.LanguageArabic, true
			case whatlanggo.Eng:
				return types.LanguageEnglish, true
			}
		}
	}

	if arabic > latin {
		return types.LanguageArabic, true
	}
	return types.LanguageEnglish, true
}

func countScripts(text string) (arabic, latin int) {
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	return arabic, latin
}
