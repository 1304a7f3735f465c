package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/types"
)

func newJobServer(t *testing.T) *server.Hertz {
	t.Helper()
	return newTestServer(t, &stubAnalyzer{report: &types.Report{Status: types.StatusAnalyzed}}, "")
}

func TestListJobs(t *testing.T) {
	h := newJobServer(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var list handler.JobListResponse
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &list))
	assert.Equal(t, 3, list.Total)
	require.Len(t, list.Jobs, 3)
	assert.Equal(t, "job-001", list.Jobs[0].ID)
}

func TestListJobsByIndustry(t *testing.T) {
	h := newJobServer(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs?industry=Finance", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var list handler.JobListResponse
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "job-003", list.Jobs[0].ID)

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs?industry=Aerospace", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &list))
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Jobs, "empty result must still be a JSON array")
}

func TestGetJob(t *testing.T) {
	h := newJobServer(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs/job-002", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var job types.JobRecord
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &job))
	assert.Equal(t, "Data Analyst", job.Title)

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSearchJobs(t *testing.T) {
	h := newJobServer(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs/search?q=engineer", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var list handler.JobListResponse
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "job-001", list.Jobs[0].ID)

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs/search", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code, "missing q parameter")
}

func TestIndustries(t *testing.T) {
	h := newJobServer(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/industries", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload map[string][]string
	require.NoError(t, json.Unmarshal(resp.Result().Body(), &payload))
	assert.Equal(t, []string{"Finance", "Technology"}, payload["industries"])
}
