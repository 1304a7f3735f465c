// Package features derives structured resume signals from extracted text:
// canonical skills with match confidences, an experience-years estimate,
// the highest education tier, a title history and contact coordinates.
// Extraction is vocabulary-driven and fully deterministic.
package features

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"resume-match-go/internal/pipeline"
	"resume-match-go/internal/types"
)

const (
	defaultMaxSkills = 20
	maxTitles        = 10
	maxTitleRunes    = 80
	maxTitleWords    = 10
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe    = regexp.MustCompile(`(?:\+|00)\d[\d ().-]{7,}\d|\b0\d[\d ().-]{6,}\d`)
	linkedinRe = regexp.MustCompile(`(?i)linkedin\.com/in/[A-Za-z0-9_-]+`)
	githubRe   = regexp.MustCompile(`(?i)github\.com/[A-Za-z0-9_-]+`)
)

// educationLevels is scanned in descending tier order; the first hit wins.
var educationLevels = []struct {
	tier     types.EducationTier
	keywords []string
}{
	{types.EducationDoctorate, []string{"phd", "ph.d", "doctorate", "doctoral", "دكتوراه"}},
	{types.EducationMaster, []string{"master", "masters", "msc", "m.sc", "mba", "m.eng", "ماجستير"}},
	{types.EducationBachelor, []string{"bachelor", "bachelors", "bsc", "b.sc", "b.eng", "b.a", "بكالوريوس"}},
	{types.EducationDiploma, []string{"diploma", "associate degree", "دبلوم"}},
	{types.EducationCertificate, []string{"certificate", "certification", "certified", "شهادة"}},
}

// titleLexicon marks a line in the experience section as a job title.
var titleLexicon = []string{
	"engineer", "developer", "programmer", "manager", "director", "analyst",
	"consultant", "architect", "designer", "specialist", "coordinator",
	"accountant", "auditor", "executive", "officer", "lead", "head",
	"supervisor", "administrator", "technician", "scientist", "recruiter",
	"representative", "advisor", "assistant", "intern",
	"مهندس", "مطور", "مدير", "محلل", "مستشار", "مصمم", "أخصائي", "منسق",
	"محاسب", "مدقق", "مشرف", "رئيس", "مسؤول", "فني", "ممثل",
}

var _ pipeline.FeatureExtractor = (*Extractor)(nil)

// Extractor turns extracted resume text into ResumeFeatures.
type Extractor struct {
	vocab     *Vocabulary
	maxSkills int
	now       func() time.Time
	logger    zerolog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithVocabulary replaces the default skill vocabulary.
func WithVocabulary(v *Vocabulary) Option {
	return func(e *Extractor) {
		if v != nil {
			e.vocab = v
		}
	}
}

// WithMaxSkills caps how many skills survive ranking.
func WithMaxSkills(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxSkills = n
		}
	}
}

// WithClock fixes the reference time for open-ended employment periods.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New builds a feature extractor with the default vocabulary.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		vocab:     NewVocabulary(),
		maxSkills: defaultMaxSkills,
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract derives the feature set for one resume. Skill matching is
// deliberately bilingual: both the English and Arabic vocabularies are
// applied regardless of lang, so a tagged-English resume still surfaces
// Arabic skill mentions. It never fails: missing sections yield
// zero-valued fields plus a warning so the pipeline can degrade instead
// of aborting.
func (e *Extractor) Extract(extracted *types.ExtractedText, lang types.Language) (*types.ResumeFeatures, []string) {
	feats := &types.ResumeFeatures{
		Skills:          map[string]float64{},
		SectionsPresent: map[types.SectionLabel]bool{},
	}
	var warnings []string
	if extracted == nil {
		return feats, []string{"no extracted text to derive features from"}
	}

	fullText := extracted.PlainText()
	for _, section := range extracted.Sections {
		feats.SectionsPresent[section.Label] = true
	}

	feats.Skills = e.rankSkills(e.vocab.MatchSkills(extracted.Section(types.SectionSkills), fullText))

	if extracted.HasSection(types.SectionExperience) {
		expText := extracted.Section(types.SectionExperience)
		summary := summarizeExperience(expText, e.now())
		feats.ExperienceYears = summary.Years
		feats.ValidDateRanges = summary.ValidRanges
		feats.InvalidDateRanges = summary.InvalidRanges
		feats.Titles = extractTitles(expText)
		if summary.InvalidRanges > 0 {
			warnings = append(warnings, "experience section contains date ranges that end before they start")
		}
	} else {
		warnings = append(warnings, pipeline.ErrNoExperienceSection.Error())
	}

	feats.Education = detectEducation(extracted)
	feats.Contact = extractContact(fullText)

	e.logger.Debug().
		Int("skills", len(feats.Skills)).
		Float64("experience_years", feats.ExperienceYears).
		Str("education", feats.Education.String()).
		Str("language", lang.String()).
		Msg("features extracted")

	return feats, warnings
}

// rankSkills caps the matched skill set at maxSkills, keeping the highest
// confidences and breaking ties by name so reruns keep the same set.
func (e *Extractor) rankSkills(matched map[string]float64) map[string]float64 {
	if len(matched) <= e.maxSkills {
		return matched
	}
	names := make([]string, 0, len(matched))
	for name := range matched {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if matched[names[i]] != matched[names[j]] {
			return matched[names[i]] > matched[names[j]]
		}
		return names[i] < names[j]
	})
	capped := make(map[string]float64, e.maxSkills)
	for _, name := range names[:e.maxSkills] {
		capped[name] = matched[name]
	}
	return capped
}

// detectEducation scans the education and certifications sections for the
// highest attained tier, falling back to the whole document when the resume
// has no recognizable education section.
func detectEducation(extracted *types.ExtractedText) types.EducationTier {
	text := extracted.Section(types.SectionEducation)
	if cert := extracted.Section(types.SectionCertifications); cert != "" {
		text += "\n" + cert
	}
	if strings.TrimSpace(text) == "" {
		text = extracted.PlainText()
	}
	norm := normalizeForMatch(text)
	for _, level := range educationLevels {
		for _, keyword := range level.keywords {
			if containsPhrase(norm, keyword) {
				return level.tier
			}
		}
	}
	return types.EducationNone
}

// extractTitles collects job-title lines from the experience section in
// document order, most recent first by resume convention.
func extractTitles(experienceText string) []string {
	var titles []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(experienceText, "\n") {
		title, ok := titleFromLine(line)
		if !ok {
			continue
		}
		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true
		titles = append(titles, title)
		if len(titles) == maxTitles {
			break
		}
	}
	return titles
}

// titleFromLine decides whether a single line names a position. Bullet
// lines and paragraphs are skipped; embedded dates and company suffixes are
// stripped so "Senior Engineer | Jan 2019 - Present" yields the title only.
func titleFromLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	if first, _ := utf8.DecodeRuneInString(line); strings.ContainsRune("-•*·▪", first) {
		return "", false
	}
	line = strings.TrimSpace(dateRangeRe.ReplaceAllString(line, ""))
	line = strings.Trim(line, " \t|,-–—()")
	if line == "" {
		return "", false
	}
	if len([]rune(line)) > maxTitleRunes || len(strings.Fields(line)) > maxTitleWords {
		return "", false
	}

	for _, segment := range splitTitleSegments(line) {
		norm := normalizeForMatch(segment)
		for _, keyword := range titleLexicon {
			if containsPhrase(norm, keyword) {
				return segment, true
			}
		}
	}
	return "", false
}

// splitTitleSegments breaks "title, company" and "title at company" lines
// into candidate segments.
func splitTitleSegments(line string) []string {
	replacer := strings.NewReplacer(" at ", "\x00", " @ ", "\x00", " | ", "\x00", " — ", "\x00", " - ", "\x00", ",", "\x00", "،", "\x00")
	parts := strings.Split(replacer.Replace(line), "\x00")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// extractContact mines the first email, phone number and profile links from
// the document. First occurrence wins, which favors the header block.
func extractContact(text string) types.ContactInfo {
	contact := types.ContactInfo{
		Email:    emailRe.FindString(text),
		LinkedIn: strings.ToLower(linkedinRe.FindString(text)),
		GitHub:   strings.ToLower(githubRe.FindString(text)),
	}
	if phone := phoneRe.FindString(text); phone != "" {
		contact.Phone = strings.Join(strings.Fields(phone), " ")
	}
	return contact
}
