package scorer

import (
	"fmt"
	"math"

	"resume-match-go/internal/types"
)

// Weights apportions the fallback score across its four components. The
// values are percentage points and should sum to 100.
type Weights struct {
	Sections   int
	Skills     int
	Experience int
	Formatting int
}

// DefaultWeights is the production split: section completeness dominates,
// followed by skill coverage, date consistency and formatting hygiene.
var DefaultWeights = Weights{Sections: 40, Skills: 30, Experience: 20, Formatting: 10}

const (
	defaultSkillTarget    = 8
	defaultMaxSuggestions = 5
)

// requiredSections are the four sections a complete resume carries. Each
// contributes an equal share of the section component.
var requiredSections = []types.SectionLabel{
	types.SectionSummary,
	types.SectionExperience,
	types.SectionEducation,
	types.SectionSkills,
}

// Heuristic produces the deterministic fallback score. It is additive over
// independent components, so supplying more signal never lowers the score.
type Heuristic struct {
	weights        Weights
	skillTarget    int
	maxSuggestions int
}

// HeuristicOption customizes the fallback scorer.
type HeuristicOption func(*Heuristic)

// WithWeights replaces the component weights.
func WithWeights(w Weights) HeuristicOption {
	return func(h *Heuristic) { h.weights = w }
}

// WithSkillTarget sets how many skills earn full skill credit.
func WithSkillTarget(n int) HeuristicOption {
	return func(h *Heuristic) {
		if n > 0 {
			h.skillTarget = n
		}
	}
}

// WithMaxSuggestions caps the improvement list.
func WithMaxSuggestions(n int) HeuristicOption {
	return func(h *Heuristic) {
		if n > 0 {
			h.maxSuggestions = n
		}
	}
}

// NewHeuristic builds a fallback scorer with production defaults.
func NewHeuristic(opts ...HeuristicOption) *Heuristic {
	h := &Heuristic{
		weights:        DefaultWeights,
		skillTarget:    defaultSkillTarget,
		maxSuggestions: defaultMaxSuggestions,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Score rates the feature set from 0 to 100 and returns localized
// improvement suggestions, one per detected deficiency, in a fixed order.
func (h *Heuristic) Score(feats *types.ResumeFeatures, lang types.Language) (int, []string) {
	if feats == nil {
		return 0, nil
	}
	total := h.sectionScore(feats) + h.skillScore(feats) + h.experienceScore(feats) + h.formattingScore(feats)
	score := int(math.Round(total))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, h.suggestions(feats, lang)
}

func (h *Heuristic) sectionScore(feats *types.ResumeFeatures) float64 {
	present := 0
	for _, label := range requiredSections {
		if feats.HasSection(label) {
			present++
		}
	}
	return float64(h.weights.Sections) * float64(present) / float64(len(requiredSections))
}

func (h *Heuristic) skillScore(feats *types.ResumeFeatures) float64 {
	ratio := float64(len(feats.Skills)) / float64(h.skillTarget)
	if ratio > 1 {
		ratio = 1
	}
	return float64(h.weights.Skills) * ratio
}

// experienceScore rewards parseable, consistent employment dates. A resume
// with an experience section but no recognizable dates earns half credit;
// backwards ranges dilute the component proportionally.
func (h *Heuristic) experienceScore(feats *types.ResumeFeatures) float64 {
	if !feats.HasSection(types.SectionExperience) {
		return 0
	}
	total := feats.ValidDateRanges + feats.InvalidDateRanges
	if total == 0 {
		return float64(h.weights.Experience) / 2
	}
	return float64(h.weights.Experience) * float64(feats.ValidDateRanges) / float64(total)
}

func (h *Heuristic) formattingScore(feats *types.ResumeFeatures) float64 {
	w := float64(h.weights.Formatting)
	var score float64
	if feats.Contact.Email != "" {
		score += 0.4 * w
	}
	if feats.Contact.Phone != "" {
		score += 0.3 * w
	}
	if len(feats.Titles) > 0 {
		score += 0.3 * w
	}
	return score
}

// suggestions emits one improvement per deficiency, ordered by impact and
// capped at maxSuggestions. Mixed-language resumes get English text.
func (h *Heuristic) suggestions(feats *types.ResumeFeatures, lang types.Language) []string {
	loc := func(en, ar string) string {
		if lang == types.LanguageArabic {
			return ar
		}
		return en
	}
	var out []string
	add := func(text string) {
		if len(out) < h.maxSuggestions {
			out = append(out, text)
		}
	}

	if !feats.HasSection(types.SectionSummary) {
		add(loc("Add a short professional summary at the top.",
			"أضف ملخصاً مهنياً قصيراً في أعلى السيرة الذاتية."))
	}
	if !feats.HasSection(types.SectionExperience) {
		add(loc("Add a work experience section with dated positions.",
			"أضف قسم الخبرة العملية مع تواريخ الوظائف."))
	}
	if !feats.HasSection(types.SectionEducation) {
		add(loc("Add an education section listing your degrees.",
			"أضف قسم التعليم مع شهاداتك الدراسية."))
	}
	if !feats.HasSection(types.SectionSkills) {
		add(loc("Add a dedicated skills section.",
			"أضف قسماً مخصصاً للمهارات."))
	}
	if len(feats.Skills) < h.skillTarget {
		add(loc(fmt.Sprintf("List at least %d concrete skills relevant to your target role.", h.skillTarget),
			fmt.Sprintf("اذكر ما لا يقل عن %d مهارة محددة ذات صلة بالوظيفة المستهدفة.", h.skillTarget)))
	}
	if feats.InvalidDateRanges > 0 {
		add(loc("Fix employment periods that end before they start.",
			"صحح فترات العمل التي ينتهي تاريخها قبل أن يبدأ."))
	}
	if feats.Contact.Email == "" {
		add(loc("Include a contact email address.",
			"أضف عنوان بريد إلكتروني للتواصل."))
	}
	if feats.Contact.Phone == "" {
		add(loc("Include a phone number.",
			"أضف رقم هاتف للتواصل."))
	}
	if feats.HasSection(types.SectionExperience) && len(feats.Titles) == 0 {
		add(loc("Name your job title for each position.",
			"اذكر المسمى الوظيفي لكل وظيفة."))
	}
	return out
}
