package types

// JobRecord is one posting from the read-only job corpus.
//
// RequiredSkills holds lower-cased canonical skill names. Language is the
// posting language; empty means the posting accepts candidates in any
// language. Records never change after corpus load.
type JobRecord struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Company            string   `json:"company,omitempty"`
	Location           string   `json:"location,omitempty"`
	Industry           string   `json:"industry,omitempty"`
	Language           Language `json:"language,omitempty"`
	RequiredSkills     []string `json:"required_skills"`
	MinExperienceYears float64  `json:"min_experience_years,omitempty"`
	Salary             string   `json:"salary,omitempty"`
	Description        string   `json:"description,omitempty"`
}

// MatchResult is one ranked corpus hit for a resume.
//
// Similarity is within [0,1]. MatchedSkills and MissingSkills are sorted
// ascending so identical inputs produce byte-identical output.
type MatchResult struct {
	JobID         string   `json:"job_id"`
	JobTitle      string   `json:"job_title"`
	Similarity    float64  `json:"similarity"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills,omitempty"`
}
