package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"resume-match-go/internal/types"
)

// JobPosting is the relational form of one corpus entry. When the corpus
// source is MySQL this table is the source of record; it is written by
// whatever feeds the corpus and only read by this service.
type JobPosting struct {
	JobID              string         `gorm:"type:varchar(64);primaryKey"`
	Title              string         `gorm:"type:varchar(255);not null"`
	Company            string         `gorm:"type:varchar(255)"`
	Location           string         `gorm:"type:varchar(255)"`
	Industry           string         `gorm:"type:varchar(128);index"`
	Language           string         `gorm:"type:varchar(16)"`
	RequiredSkills     datatypes.JSON `gorm:"type:json"` // JSON array of skill names
	MinExperienceYears float64        `gorm:"type:decimal(4,1)"`
	SalaryRange        string         `gorm:"type:varchar(128)"`
	Description        string         `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (JobPosting) TableName() string { return "job_postings" }

// ToRecord converts the row into the read-only corpus record the matcher
// consumes.
func (p *JobPosting) ToRecord() (types.JobRecord, error) {
	var skills []string
	if len(p.RequiredSkills) > 0 {
		if err := json.Unmarshal(p.RequiredSkills, &skills); err != nil {
			return types.JobRecord{}, fmt.Errorf("job %s: decode required_skills: %w", p.JobID, err)
		}
	}
	lang, _ := types.ParseLanguage(p.Language)
	return types.JobRecord{
		ID:                 p.JobID,
		Title:              p.Title,
		Company:            p.Company,
		Location:           p.Location,
		Industry:           p.Industry,
		Language:           lang,
		RequiredSkills:     skills,
		MinExperienceYears: p.MinExperienceYears,
		Salary:             p.SalaryRange,
		Description:        p.Description,
	}, nil
}

// JobPostingFromRecord builds a row from a corpus record, used by seeding
// and by tests.
func JobPostingFromRecord(rec types.JobRecord) (JobPosting, error) {
	skills, err := json.Marshal(rec.RequiredSkills)
	if err != nil {
		return JobPosting{}, fmt.Errorf("job %s: encode required_skills: %w", rec.ID, err)
	}
	return JobPosting{
		JobID:              rec.ID,
		Title:              rec.Title,
		Company:            rec.Company,
		Location:           rec.Location,
		Industry:           rec.Industry,
		Language:           rec.Language.String(),
		RequiredSkills:     skills,
		MinExperienceYears: rec.MinExperienceYears,
		SalaryRange:        rec.Salary,
		Description:        rec.Description,
	}, nil
}

// Analysis persists one pipeline invocation's composite result. The report
// body is stored as JSON so the schema never chases the report shape.
type Analysis struct {
	AnalysisID      string         `gorm:"type:char(36);primaryKey"`
	FileMD5         string         `gorm:"type:char(32);index"`
	RequestDigest   string         `gorm:"type:char(32);index"` // file MD5 + normalized match knobs
	Filename        string         `gorm:"type:varchar(255)"`
	Format          string         `gorm:"type:varchar(8)"`
	ObjectKey       string         `gorm:"type:varchar(512)"` // archived original in MinIO, empty when not archived
	Language        string         `gorm:"type:varchar(16)"`
	Status          string         `gorm:"type:varchar(32);index;not null"`
	Score           int            `gorm:"type:int"`
	Report          datatypes.JSON `gorm:"type:json"` // full types.Report
	PipelineVersion string         `gorm:"type:varchar(16)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Analysis) TableName() string { return "analyses" }

// AnalysisMeta carries the request-side columns that do not live in the
// report body.
type AnalysisMeta struct {
	FileMD5         string
	RequestDigest   string
	Filename        string
	Format          string
	ObjectKey       string
	PipelineVersion string
}

// AnalysisFromReport flattens the queryable report fields into columns and
// keeps the full body as JSON.
func AnalysisFromReport(report *types.Report, meta AnalysisMeta) (Analysis, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return Analysis{}, fmt.Errorf("encode report %s: %w", report.AnalysisID, err)
	}
	score := 0
	if report.Score != nil {
		score = report.Score.Score
	}
	return Analysis{
		AnalysisID:      report.AnalysisID,
		FileMD5:         meta.FileMD5,
		RequestDigest:   meta.RequestDigest,
		Filename:        meta.Filename,
		Format:          meta.Format,
		ObjectKey:       meta.ObjectKey,
		Language:        report.Language.String(),
		Status:          string(report.Status),
		Score:           score,
		Report:          body,
		PipelineVersion: meta.PipelineVersion,
	}, nil
}

// ToReport restores the persisted report body.
func (a *Analysis) ToReport() (*types.Report, error) {
	var report types.Report
	if err := json.Unmarshal(a.Report, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", a.AnalysisID, err)
	}
	return &report, nil
}
