package language

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-match-go/internal/types"
)

func extractedFrom(sections ...types.Section) *types.ExtractedText {
	return &types.ExtractedText{Sections: sections}
}

const (
	englishBody = "Senior software engineer with eight years of experience building distributed data platforms and leading small teams across the Gulf region."
	arabicBody  = "مهندس برمجيات أول يتمتع بخبرة ثماني سنوات في بناء منصات البيانات الموزعة وقيادة فرق صغيرة في منطقة الخليج العربي."
)

func TestDetectEnglish(t *testing.T) {
	d := NewDetector()
	got := d.Detect(extractedFrom(
		types.Section{Label: types.SectionSummary, Text: englishBody},
		types.Section{Label: types.SectionExperience, Text: englishBody + " " + englishBody},
	))
	assert.Equal(t, types.LanguageEnglish, got)
}

func TestDetectArabic(t *testing.T) {
	d := NewDetector()
	got := d.Detect(extractedFrom(
		types.Section{Label: types.SectionSummary, Text: arabicBody},
		types.Section{Label: types.SectionExperience, Text: arabicBody + " " + arabicBody},
	))
	assert.Equal(t, types.LanguageArabic, got)
}

func TestDetectMixed(t *testing.T) {
	d := NewDetector()
	// Comparable weight on each side keeps either language under the
	// dominance share.
	got := d.Detect(extractedFrom(
		types.Section{Label: types.SectionSummary, Text: arabicBody},
		types.Section{Label: types.SectionExperience, Text: englishBody},
	))
	assert.Equal(t, types.LanguageMixed, got)
}

func TestDetectDefaultsToEnglish(t *testing.T) {
	d := NewDetector()

	testCases := []struct {
		name      string
		extracted *types.ExtractedText
	}{
		{name: "nil input", extracted: nil},
		{name: "no sections", extracted: extractedFrom()},
		{name: "digits and punctuation only", extracted: extractedFrom(
			types.Section{Label: types.SectionGeneral, Text: "+971 50 123 4567 --- 2019/2023"},
		)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, types.LanguageEnglish, d.Detect(tc.extracted))
		})
	}
}

func TestDetectWeightsBySectionLength(t *testing.T) {
	d := NewDetector()
	// One short Arabic line against a long English body: English dominates.
	got := d.Detect(extractedFrom(
		types.Section{Label: types.SectionSummary, Text: "ملخص قصير"},
		types.Section{Label: types.SectionExperience, Text: strings.Repeat(englishBody+" ", 4)},
	))
	assert.Equal(t, types.LanguageEnglish, got)
}

func TestClassifySectionScriptFallback(t *testing.T) {
	// Too short for trigram analysis; script counting decides.
	lang, ok := classifySection("مهارات")
	assert.True(t, ok)
	assert.Equal(t, types.LanguageArabic, lang)

	lang, ok = classifySection("Skills")
	assert.True(t, ok)
	assert.Equal(t, types.LanguageEnglish, lang)

	_, ok = classifySection("12345")
	assert.False(t, ok)
}
