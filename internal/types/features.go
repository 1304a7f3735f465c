package types

import "sort"

// EducationTier ranks the highest attained education level. Larger is higher.
type EducationTier int

const (
	// EducationNone means no recognizable education entry.
	EducationNone EducationTier = iota
	// EducationCertificate covers vocational certificates.
	EducationCertificate
	// EducationDiploma covers diplomas and associate degrees.
	EducationDiploma
	// EducationBachelor covers bachelor degrees.
	EducationBachelor
	// EducationMaster covers master degrees incl. MBA.
	EducationMaster
	// EducationDoctorate covers doctoral degrees.
	EducationDoctorate
)

var educationTierNames = map[EducationTier]string{
	EducationNone:        "none",
	EducationCertificate: "certificate",
	EducationDiploma:     "diploma",
	EducationBachelor:    "bachelor",
	EducationMaster:      "master",
	EducationDoctorate:   "doctorate",
}

// String implements fmt.Stringer.
func (t EducationTier) String() string {
	if name, ok := educationTierNames[t]; ok {
		return name
	}
	return "none"
}

// MarshalText makes the tier render as its name in JSON output.
func (t EducationTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText restores a tier from its name. Unknown names map to
// EducationNone rather than erroring, since tiers come from stored reports.
func (t *EducationTier) UnmarshalText(text []byte) error {
	name := string(text)
	for tier, n := range educationTierNames {
		if n == name {
			*t = tier
			return nil
		}
	}
	*t = EducationNone
	return nil
}

// ContactInfo carries the contact coordinates mined from the resume header.
type ContactInfo struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// ResumeFeatures is the structured signal set derived from one resume.
//
// Skills maps a lower-cased, deduplicated canonical skill name to a match
// confidence in (0,1]. Titles is ordered most recent first. SectionsPresent
// records which labels the extractor recovered, which the scorer uses for
// completeness.
type ResumeFeatures struct {
	Skills          map[string]float64    `json:"skills"`
	ExperienceYears float64               `json:"experience_years"`
	Education       EducationTier         `json:"education"`
	Titles          []string              `json:"titles,omitempty"`
	Contact         ContactInfo           `json:"contact"`
	SectionsPresent map[SectionLabel]bool `json:"sections_present"`

	// Date-range bookkeeping from the experience section. InvalidDateRanges
	// counts periods whose end precedes their start; the scorer reads these
	// as a consistency signal.
	ValidDateRanges   int `json:"valid_date_ranges"`
	InvalidDateRanges int `json:"invalid_date_ranges"`
}

// SkillNames returns the skill keys sorted ascending, for deterministic
// iteration in scoring and matching.
func (f *ResumeFeatures) SkillNames() []string {
	names := make([]string, 0, len(f.Skills))
	for name := range f.Skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasSection reports section presence, tolerating a nil map.
func (f *ResumeFeatures) HasSection(label SectionLabel) bool {
	if f.SectionsPresent == nil {
		return false
	}
	return f.SectionsPresent[label]
}
