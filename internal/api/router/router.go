// Package router declares the HTTP surface and its middleware.
package router

import (
	"context"
	"crypto/subtle"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-match-go/internal/api/handler"
)

// RegisterRoutes attaches every endpoint. A non-empty apiKey puts the whole
// /api/v1 group behind an X-API-Key check; the health probe stays open.
func RegisterRoutes(h *server.Hertz, analysis *handler.AnalysisHandler, jobs *handler.JobHandler, apiKey string) {
	api := h.Group("/api/v1")

	api.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	if apiKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:X-API-Key", ""),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
			}),
		))
	}

	resumes := api.Group("/resumes")
	resumes.POST("/analyze", analysis.Analyze)
	resumes.POST("/analyze/async", analysis.AnalyzeAsync)

	api.GET("/analyses/:analysis_id", analysis.GetAnalysis)
	api.DELETE("/analyses/:analysis_id", analysis.DeleteAnalysis)

	api.GET("/jobs", jobs.ListJobs)
	api.GET("/jobs/search", jobs.SearchJobs)
	api.GET("/jobs/:job_id", jobs.GetJob)
	api.GET("/industries", jobs.Industries)
}
