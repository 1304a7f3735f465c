package types

// DocumentFormat is the declared binary format of an uploaded resume.
type DocumentFormat string

const (
	// FormatPDF marks a PDF binary.
	FormatPDF DocumentFormat = "PDF"
	// FormatDOCX marks an Office Open XML (Word) binary.
	FormatDOCX DocumentFormat = "DOCX"
)

// ParseDocumentFormat normalizes a user-supplied format label or file
// extension ("pdf", ".PDF", "docx", ...) into a DocumentFormat.
// The second return value is false when the label names no supported format.
func ParseDocumentFormat(label string) (DocumentFormat, bool) {
	switch normalizeFormatLabel(label) {
	case "pdf":
		return FormatPDF, true
	case "docx":
		return FormatDOCX, true
	default:
		return "", false
	}
}

func normalizeFormatLabel(label string) string {
	out := make([]rune, 0, len(label))
	for _, r := range label {
		if r == '.' || r == ' ' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

// Document is an uploaded resume binary plus its declared format.
// Instances are treated as immutable once constructed.
type Document struct {
	Data     []byte         `json:"-"`
	Format   DocumentFormat `json:"format"`
	Filename string         `json:"filename,omitempty"`
}

// Size returns the payload size in bytes.
func (d Document) Size() int64 {
	return int64(len(d.Data))
}

// SectionLabel classifies a recovered resume section.
type SectionLabel string

const (
	// SectionContact holds addresses, phone numbers and similar header lines.
	SectionContact SectionLabel = "CONTACT"
	// SectionSummary is the profile / objective blurb.
	SectionSummary SectionLabel = "SUMMARY"
	// SectionExperience is the work history.
	SectionExperience SectionLabel = "EXPERIENCE"
	// SectionEducation lists degrees and institutions.
	SectionEducation SectionLabel = "EDUCATION"
	// SectionSkills lists competencies.
	SectionSkills SectionLabel = "SKILLS"
	// SectionLanguages lists spoken languages.
	SectionLanguages SectionLabel = "LANGUAGES"
	// SectionCertifications lists certificates and licenses.
	SectionCertifications SectionLabel = "CERTIFICATIONS"
	// SectionProjects lists personal or professional projects.
	SectionProjects SectionLabel = "PROJECTS"
	// SectionGeneral holds text that precedes any recognized heading.
	SectionGeneral SectionLabel = "GENERAL"
)

// Section is one labeled span of extracted resume text, in document order.
type Section struct {
	Label SectionLabel `json:"label"`
	Text  string       `json:"text"`
}

// ExtractedText is the structured output of the document extractor:
// an ordered sequence of labeled sections. It lives only for the duration
// of one pipeline invocation.
type ExtractedText struct {
	Sections  []Section `json:"sections"`
	CharCount int       `json:"char_count"`
}

// Section returns the concatenated text of all sections carrying the label,
// joined with newlines. Empty string when the label is absent.
func (e *ExtractedText) Section(label SectionLabel) string {
	var out string
	for _, s := range e.Sections {
		if s.Label != label {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += s.Text
	}
	return out
}

// HasSection reports whether at least one section carries the label.
func (e *ExtractedText) HasSection(label SectionLabel) bool {
	for _, s := range e.Sections {
		if s.Label == label {
			return true
		}
	}
	return false
}

// PlainText flattens all sections back into a single string, preserving
// document order. Used for language detection and AI prompting.
func (e *ExtractedText) PlainText() string {
	var out string
	for i, s := range e.Sections {
		if i > 0 {
			out += "\n\n"
		}
		out += s.Text
	}
	return out
}
