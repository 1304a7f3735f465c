package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-match-go/internal/matcher"
	"resume-match-go/internal/types"
)

// JobHandler serves read-only corpus browsing endpoints.
type JobHandler struct {
	corpus *matcher.Corpus
}

// NewJobHandler wires the handler to the loaded corpus.
func NewJobHandler(corpus *matcher.Corpus) *JobHandler {
	return &JobHandler{corpus: corpus}
}

// JobListResponse wraps a job slice with its count.
type JobListResponse struct {
	Total int               `json:"total"`
	Jobs  []types.JobRecord `json:"jobs"`
}

// ListJobs handles GET /api/v1/jobs, optionally filtered by ?industry=.
func (h *JobHandler) ListJobs(ctx context.Context, c *app.RequestContext) {
	var jobs []types.JobRecord
	if industry := c.Query("industry"); industry != "" {
		jobs = h.corpus.ByIndustry(industry)
	} else {
		jobs = h.corpus.Jobs()
	}
	if jobs == nil {
		jobs = []types.JobRecord{}
	}
	c.JSON(consts.StatusOK, JobListResponse{Total: len(jobs), Jobs: jobs})
}

// GetJob handles GET /api/v1/jobs/:job_id.
func (h *JobHandler) GetJob(ctx context.Context, c *app.RequestContext) {
	job, ok := h.corpus.Get(c.Param("job_id"))
	if !ok {
		c.JSON(consts.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	c.JSON(consts.StatusOK, job)
}

// SearchJobs handles GET /api/v1/jobs/search?q=.
func (h *JobHandler) SearchJobs(ctx context.Context, c *app.RequestContext) {
	query := c.Query("q")
	if query == "" {
		c.JSON(consts.StatusBadRequest, errorResponse{Error: "query parameter \"q\" is required"})
		return
	}
	jobs := h.corpus.Search(query)
	if jobs == nil {
		jobs = []types.JobRecord{}
	}
	c.JSON(consts.StatusOK, JobListResponse{Total: len(jobs), Jobs: jobs})
}

// Industries handles GET /api/v1/industries.
func (h *JobHandler) Industries(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string][]string{"industries": h.corpus.Industries()})
}
