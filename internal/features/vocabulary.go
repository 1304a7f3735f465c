package features

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// vocabularyEntry maps one canonical skill to the spellings that resolve to
// it. Canonical names are lower-case; aliases include common abbreviations
// and Arabic equivalents seen in Gulf-market resumes.
type vocabularyEntry struct {
	canonical string
	aliases   []string
}

// defaultVocabulary is the controlled skill list. Matching is
// vocabulary-driven: free-text tokens that resolve to no entry are ignored
// rather than invented.
var defaultVocabulary = []vocabularyEntry{
	// Software engineering
	{canonical: "python", aliases: []string{"بايثون"}},
	{canonical: "java", aliases: []string{"جافا"}},
	{canonical: "javascript", aliases: []string{"js", "جافا سكريبت"}},
	{canonical: "typescript", aliases: []string{"ts"}},
	{canonical: "go", aliases: []string{"golang"}},
	{canonical: "c++", aliases: []string{"cpp"}},
	{canonical: "c#", aliases: []string{"csharp", "c sharp"}},
	{canonical: "php"},
	{canonical: "ruby"},
	{canonical: "swift"},
	{canonical: "kotlin"},
	{canonical: "sql", aliases: []string{"mysql", "postgresql", "postgres", "sql server", "oracle sql"}},
	{canonical: "nosql", aliases: []string{"mongodb", "dynamodb", "cassandra"}},
	{canonical: "html", aliases: []string{"html5"}},
	{canonical: "css", aliases: []string{"css3"}},
	{canonical: "react", aliases: []string{"react.js", "reactjs"}},
	{canonical: "angular", aliases: []string{"angular.js", "angularjs"}},
	{canonical: "vue", aliases: []string{"vue.js", "vuejs"}},
	{canonical: "node.js", aliases: []string{"node", "nodejs"}},
	{canonical: "django"},
	{canonical: "flask"},
	{canonical: "laravel"},
	{canonical: "spring", aliases: []string{"spring boot"}},
	{canonical: ".net", aliases: []string{"dotnet", "asp.net"}},
	{canonical: "rest api", aliases: []string{"rest", "restful"}},
	{canonical: "graphql"},
	{canonical: "microservices"},

	// Data and AI
	{canonical: "machine learning", aliases: []string{"ml", "تعلم الآلة"}},
	{canonical: "deep learning"},
	{canonical: "data analysis", aliases: []string{"data analytics", "تحليل البيانات"}},
	{canonical: "data science"},
	{canonical: "pandas"},
	{canonical: "numpy"},
	{canonical: "tensorflow"},
	{canonical: "pytorch"},
	{canonical: "power bi", aliases: []string{"powerbi"}},
	{canonical: "tableau"},
	{canonical: "etl"},

	// Infrastructure
	{canonical: "aws", aliases: []string{"amazon web services"}},
	{canonical: "azure"},
	{canonical: "gcp", aliases: []string{"google cloud"}},
	{canonical: "docker"},
	{canonical: "kubernetes", aliases: []string{"k8s"}},
	{canonical: "terraform"},
	{canonical: "linux"},
	{canonical: "git", aliases: []string{"github", "gitlab"}},
	{canonical: "ci/cd", aliases: []string{"cicd", "jenkins"}},
	{canonical: "networking", aliases: []string{"tcp/ip"}},
	{canonical: "cybersecurity", aliases: []string{"information security", "الأمن السيبراني"}},

	// Business and operations
	{canonical: "project management", aliases: []string{"pmp", "إدارة المشاريع"}},
	{canonical: "agile", aliases: []string{"scrum"}},
	{canonical: "sales", aliases: []string{"المبيعات"}},
	{canonical: "marketing", aliases: []string{"التسويق"}},
	{canonical: "digital marketing", aliases: []string{"التسويق الرقمي"}},
	{canonical: "seo"},
	{canonical: "accounting", aliases: []string{"المحاسبة"}},
	{canonical: "finance", aliases: []string{"المالية"}},
	{canonical: "budgeting", aliases: []string{"إعداد الميزانية"}},
	{canonical: "auditing", aliases: []string{"التدقيق"}},
	{canonical: "customer service", aliases: []string{"خدمة العملاء"}},
	{canonical: "business development", aliases: []string{"تطوير الأعمال"}},
	{canonical: "human resources", aliases: []string{"hr", "الموارد البشرية"}},
	{canonical: "recruitment", aliases: []string{"التوظيف"}},
	{canonical: "negotiation", aliases: []string{"التفاوض"}},
	{canonical: "leadership", aliases: []string{"القيادة"}},
	{canonical: "communication", aliases: []string{"التواصل"}},
	{canonical: "teamwork", aliases: []string{"العمل الجماعي"}},
	{canonical: "excel", aliases: []string{"microsoft excel", "ms excel"}},
	{canonical: "powerpoint", aliases: []string{"microsoft powerpoint"}},
	{canonical: "erp", aliases: []string{"sap"}},
	{canonical: "crm", aliases: []string{"salesforce"}},
	{canonical: "supply chain", aliases: []string{"سلسلة التوريد"}},
	{canonical: "logistics", aliases: []string{"الخدمات اللوجستية"}},
}

// Match confidences by how the skill was located.
const (
	confidenceExact  = 1.0
	confidenceAlias  = 0.95
	confidenceBody   = 0.85
	confidenceFuzzy  = 0.8
	fuzzyMinTokenLen = 5
)

// Vocabulary is a compiled controlled skill vocabulary.
type Vocabulary struct {
	entries []vocabularyEntry
}

// NewVocabulary compiles the default vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{entries: defaultVocabulary}
}

// NewVocabularyFromEntries compiles a caller-supplied vocabulary, used in
// tests and by deployments with their own skill taxonomies.
func NewVocabularyFromEntries(entries []vocabularyEntry) *Vocabulary {
	return &Vocabulary{entries: entries}
}

// MatchSkills scans the skills section and the remaining document text for
// vocabulary hits. Keys of the returned map are canonical names; values are
// confidences by match kind: exact in skills section 1.0, alias 0.95,
// anywhere else in the document 0.85, fuzzy token match 0.8.
func (v *Vocabulary) MatchSkills(skillsText, bodyText string) map[string]float64 {
	skillsNorm := normalizeForMatch(skillsText)
	bodyNorm := normalizeForMatch(bodyText)
	skillTokens := tokenize(skillsNorm)

	found := make(map[string]float64)
	record := func(name string, conf float64) {
		if conf > found[name] {
			found[name] = conf
		}
	}

	for _, entry := range v.entries {
		if containsPhrase(skillsNorm, entry.canonical) {
			record(entry.canonical, confidenceExact)
			continue
		}

		aliasHit := false
		for _, alias := range entry.aliases {
			if containsPhrase(skillsNorm, normalizeForMatch(alias)) {
				record(entry.canonical, confidenceAlias)
				aliasHit = true
				break
			}
		}
		if aliasHit {
			continue
		}

		if containsPhrase(bodyNorm, entry.canonical) {
			record(entry.canonical, confidenceBody)
			continue
		}
		bodyAliasHit := false
		for _, alias := range entry.aliases {
			if containsPhrase(bodyNorm, normalizeForMatch(alias)) {
				record(entry.canonical, confidenceBody)
				bodyAliasHit = true
				break
			}
		}
		if bodyAliasHit {
			continue
		}

		if fuzzyTokenMatch(skillTokens, entry.canonical) {
			record(entry.canonical, confidenceFuzzy)
		}
	}

	return found
}

// fuzzyTokenMatch tolerates OCR and typing noise in single-word skills:
// distance 1 for tokens of five or more runes, distance 2 from eight runes.
// Multi-word skills and very short names must match exactly.
func fuzzyTokenMatch(tokens []string, canonical string) bool {
	if strings.ContainsRune(canonical, ' ') {
		return false
	}
	canonLen := len([]rune(canonical))
	if canonLen < fuzzyMinTokenLen {
		return false
	}
	allowed := 1
	if canonLen >= 8 {
		allowed = 2
	}
	for _, token := range tokens {
		tokenLen := len([]rune(token))
		if tokenLen < fuzzyMinTokenLen || abs(tokenLen-canonLen) > allowed {
			continue
		}
		if levenshtein.ComputeDistance(token, canonical) <= allowed {
			return true
		}
	}
	return false
}

// trailingDotRe finds sentence-ending dots. The dot is a word rune here so
// "node.js" stays whole, which would otherwise glue a trailing period onto
// the last word of a sentence and defeat the boundary check.
var trailingDotRe = regexp.MustCompile(`\.+(\s|$)`)

// normalizeForMatch lower-cases, strips sentence-ending dots and collapses
// whitespace so phrase search is layout-independent.
func normalizeForMatch(text string) string {
	lower := trailingDotRe.ReplaceAllString(strings.ToLower(text), " ")
	return strings.Join(strings.Fields(lower), " ")
}

// isWordRune mirrors the tokenizer alphabet: letters, digits and the
// symbols that keep "c++", "c#" and "node.js" whole.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '+' || r == '#' || r == '.'
}

// containsPhrase reports a whole-word occurrence of phrase in text. Both
// arguments must already be normalized.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	offset := 0
	for {
		idx := strings.Index(text[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)

		beforeOK := start == 0
		if !beforeOK {
			r, _ := utf8.DecodeLastRuneInString(text[:start])
			beforeOK = !isWordRune(r)
		}
		afterOK := end == len(text)
		if !afterOK {
			r, _ := utf8.DecodeRuneInString(text[end:])
			afterOK = !isWordRune(r)
		}
		if beforeOK && afterOK {
			return true
		}
		offset = start + 1
	}
}

// tokenize splits normalized text into matcher tokens, keeping the symbol
// runes that belong to skill names.
func tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, strings.Trim(b.String(), "."))
			b.Reset()
		}
	}
	for _, r := range text {
		if isWordRune(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
