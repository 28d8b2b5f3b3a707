package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-ph/internal/requestid"
	"go.uber.org/zap"
)

// JobRunner is satisfied by *job.Job.
type JobRunner interface {
	Run(ctx context.Context) error
}

type JobsHandler struct {
	job     JobRunner
	timeout time.Duration
	logger  *zap.Logger
}

func NewJobsHandler(job JobRunner, timeout time.Duration, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{job: job, timeout: timeout, logger: logger}
}

// RunNotify runs the notification job once, outside the schedule.
func (h *JobsHandler) RunNotify(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	if err := h.job.Run(ctx); err != nil {
		requestid.Logger(ctx, h.logger).Warn("Manual notification job failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Notification job failed",
			Code:    "JOB_FAILED",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, JobResponse{Status: "enqueued"})
}
