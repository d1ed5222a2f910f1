package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/internal/jobs"
	apperrors "github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/errors"
	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/response"
)

// JobRunner runs named background jobs on demand.
type JobRunner interface {
	Jobs() []string
	Trigger(job string) error
	RunOnce(ctx context.Context, job string) (jobs.Result, error)
}

// CronHandler lets an external scheduler trigger jobs.
type CronHandler struct {
	runner JobRunner
}

// NewCronHandler constructs a CronHandler.
func NewCronHandler(runner JobRunner) *CronHandler {
	return &CronHandler{runner: runner}
}

// GET /api/cron
func (h *CronHandler) List(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"jobs": h.runner.Jobs()})
}

// POST /api/cron/:job
//
// The job starts in the background and the call answers 202, so a scheduler
// with a short request timeout never cancels dealers waiting out their jitter.
// ?wait=true runs it inline and returns the Result; a job whose dealers partly
// failed still reports its counts alongside the error.
func (h *CronHandler) Run(c *gin.Context) {
	job := c.Param("job")

	if wait := parseBoolQuery(c, "wait"); wait == nil || !*wait {
		if err := h.runner.Trigger(job); err != nil {
			response.Error(c, serviceError(err))
			return
		}
		response.Success(c, http.StatusAccepted, gin.H{"job": job, "status": "started"})
		return
	}

	result, err := h.runner.RunOnce(requestContext(c), job)
	if err != nil {
		if errors.Is(err, jobs.ErrUnknownJob) {
			response.Error(c, serviceError(err))
			return
		}
		response.Error(c, apperrors.New("JOB_FAILED", "job "+job+" finished with errors", http.StatusInternalServerError).
			WithDetails(result).
			WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, result)
}
