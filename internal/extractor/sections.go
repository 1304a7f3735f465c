package extractor

import (
	"regexp"
	"strings"

	"resume-match-go/internal/types"
)

// sectionPattern couples a section label with the heading regex that opens it.
// Patterns cover English and Arabic resume headings; order matters because
// the first match wins for ambiguous headings.
type sectionPattern struct {
	label types.SectionLabel
	re    *regexp.Regexp
}

var defaultSectionPatterns = []sectionPattern{
	{types.SectionExperience, regexp.MustCompile(`(?i)^(work\s+experience|professional\s+experience|employment\s+history|experience|الخبرة\s+العملية|الخبرات|الخبرة)\s*[:：]?\s*`)},
	{types.SectionEducation, regexp.MustCompile(`(?i)^(education|academic\s+background|qualifications|التعليم|المؤهلات\s+العلمية|المؤهلات)\s*[:：]?\s*`)},
	{types.SectionSkills, regexp.MustCompile(`(?i)^(technical\s+skills|core\s+competencies|skills|المهارات\s+التقنية|المهارات)\s*[:：]?\s*`)},
	{types.SectionSummary, regexp.MustCompile(`(?i)^(professional\s+summary|career\s+summary|summary|profile|objective|about\s+me|ملخص|نبذة|الهدف\s+المهني|الهدف)\s*[:：]?\s*`)},
	{types.SectionLanguages, regexp.MustCompile(`(?i)^(languages|اللغات)\s*[:：]?\s*`)},
	{types.SectionCertifications, regexp.MustCompile(`(?i)^(certifications?|licenses?|courses|الشهادات|الدورات)\s*[:：]?\s*`)},
	{types.SectionProjects, regexp.MustCompile(`(?i)^(projects|personal\s+projects|portfolio|المشاريع)\s*[:：]?\s*`)},
	{types.SectionContact, regexp.MustCompile(`(?i)^(contact\s+information|contact|personal\s+details|personal\s+information|معلومات\s+الاتصال|البيانات\s+الشخصية)\s*[:：]?\s*`)},
}

// headingMaxLen bounds how long a line can be and still count as a heading.
// Longer matches are almost always body text that happens to start with a
// heading word ("Experience with Python...").
const headingMaxLen = 60

// normalizeText unifies newlines, strips BOM/zero-width/RTL marks that PDF
// extraction leaves behind, and collapses runs of blank lines.
func normalizeText(text string) string {
	replacer := strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\uFEFF", "",
		"​", "",
		"‎", "",
		"‏", "",
		" ", " ",
		"\t", " ",
	)
	text = replacer.Replace(text)

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}

// detectHeading classifies a line as a section heading. When the heading
// carries inline content ("Skills: Python, SQL") the remainder after the
// heading word is returned so it is not lost.
func detectHeading(line string) (types.SectionLabel, string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > headingMaxLen {
		return "", "", false
	}
	for _, p := range defaultSectionPatterns {
		loc := p.re.FindStringIndex(trimmed)
		if loc == nil || loc[0] != 0 {
			continue
		}
		rest := strings.TrimSpace(trimmed[loc[1]:])
		// A heading either ends the line or hands off to inline content
		// after a separator; a sentence continuing in the same breath
		// ("Experience with distributed systems") is body text.
		if rest != "" && !strings.ContainsAny(trimmed[:loc[1]], ":：") {
			return "", "", false
		}
		return p.label, rest, true
	}
	return "", "", false
}

// splitSections recovers labeled sections from extracted plain text.
// Text before the first recognized heading lands in a GENERAL section.
// Sections whose accumulated content is shorter than minChars are dropped
// as noise (stray heading matches in tables, page footers).
func splitSections(text string, minChars int) []types.Section {
	text = normalizeText(text)
	if text == "" {
		return nil
	}

	var (
		sections []types.Section
		current  = types.SectionGeneral
		buf      []string
	)

	flush := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if len([]rune(content)) < minChars {
			return
		}
		sections = append(sections, types.Section{Label: current, Text: content})
	}

	for _, line := range strings.Split(text, "\n") {
		if label, rest, ok := detectHeading(line); ok {
			flush()
			current = label
			if rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}

// sectionCharCount sums the rune lengths of all section bodies.
func sectionCharCount(sections []types.Section) int {
	total := 0
	for _, s := range sections {
		total += len([]rune(s.Text))
	}
	return total
}
