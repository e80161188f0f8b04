package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codethatfits/phrasematch/internal/engine"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
)

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	jobManager, ok := api.engine.(services.JobManager)
	if !ok {
		SendNotSupportedError(c, "Job management")
		return
	}

	job, err := jobManager.GetJob(jobID)
	if err != nil {
		SendJobNotFoundError(c, jobID)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler handles requests to list jobs, optionally filtered by
// collection, status and type
func (api *API) ListJobsHandler(c *gin.Context) {
	collection := c.Query("collection")

	var statusFilter *model.JobStatus
	if statusParam := c.Query("status"); statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	var typeFilter *model.JobType
	if typeParam := c.Query("type"); typeParam != "" {
		jobType := model.JobType(typeParam)
		typeFilter = &jobType
	}

	jobManager, ok := api.engine.(services.JobManager)
	if !ok {
		SendNotSupportedError(c, "Job management")
		return
	}

	jobs := jobManager.ListJobs(collection, statusFilter, typeFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJobStatsHandler handles requests to get job performance metrics
func (api *API) GetJobStatsHandler(c *gin.Context) {
	engineWithMetrics, ok := api.engine.(*engine.Engine)
	if !ok {
		SendNotSupportedError(c, "Job metrics")
		return
	}

	// GetJobMetrics already returns a copy without the mutex
	c.JSON(http.StatusOK, gin.H{
		"metrics":          engineWithMetrics.GetJobMetrics(),
		"success_rate":     engineWithMetrics.GetJobSuccessRate(),
		"current_workload": engineWithMetrics.GetCurrentWorkload(),
	})
}
