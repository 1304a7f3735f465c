package types

// Language is the dominant language classification of a resume.
// It is assigned exactly once by the detector and never reinterpreted
// by later stages.
type Language string

const (
	// LanguageEnglish marks a predominantly English document.
	LanguageEnglish Language = "en"
	// LanguageArabic marks a predominantly Arabic document.
	LanguageArabic Language = "ar"
	// LanguageMixed marks a document with no single dominant language.
	LanguageMixed Language = "mixed"
)

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}

// Accepts reports whether a resume in language l should be matched against
// a job posted in jobLang. Mixed resumes pass both variants; an empty job
// language means the posting accepts either.
func (l Language) Accepts(jobLang Language) bool {
	if jobLang == "" || jobLang == LanguageMixed {
		return true
	}
	if l == LanguageMixed {
		return true
	}
	return l == jobLang
}

// ParseLanguage maps a caller hint ("en", "english", "ar", "arabic",
// "mixed") onto a Language. The second return value is false for anything
// unrecognized, letting callers fall through to detection.
func ParseLanguage(hint string) (Language, bool) {
	switch normalizeFormatLabel(hint) {
	case "en", "eng", "english":
		return LanguageEnglish, true
	case "ar", "arb", "arabic":
		return LanguageArabic, true
	case "mixed", "bilingual":
		return LanguageMixed, true
	default:
		return "", false
	}
}
