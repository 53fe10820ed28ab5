package intake

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/pipeline"
)

// Runner executes pipeline requests; both pipeline.Pipeline and
// pipeline.Pool satisfy it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
}

// HealthChecker reports aggregated service health.
type HealthChecker func(ctx context.Context) *observability.ServiceHealth

// createWorkflowRequest is the intake payload.
type createWorkflowRequest struct {
	Text           string `json:"text" binding:"required,min=5"`
	UserID         string `json:"user_id" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

// outcomeStatus maps a terminal pipeline status to an HTTP status code.
// Graceful failures are the client's to act on, so they are 4xx; a
// rollback means the engine side misbehaved mid-deploy.
func outcomeStatus(s pipeline.Status) int {
	switch s {
	case pipeline.StatusDeployed:
		return http.StatusCreated
	case pipeline.StatusCapabilityGap, pipeline.StatusGracefulFailure:
		return http.StatusUnprocessableEntity
	case pipeline.StatusRolledBack:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// createWorkflow handles POST /v1/workflows.
func createWorkflow(runner Runner, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createWorkflowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": errors.InvalidInput("body", err.Error()),
			})
			return
		}

		out, err := runner.Run(c.Request.Context(), pipeline.Request{
			UserID:         req.UserID,
			Text:           req.Text,
			IdempotencyKey: req.IdempotencyKey,
		})
		if err != nil {
			status := http.StatusInternalServerError
			if ae, ok := errors.AsAppError(err); ok && ae.HTTPStatus != 0 {
				status = ae.HTTPStatus
			}
			log.Error("pipeline run failed", logger.Fields(
				logger.FieldUserID, req.UserID, logger.FieldError, err.Error()))
			c.JSON(status, gin.H{"error": err})
			return
		}

		c.JSON(outcomeStatus(out.Status), out)
	}
}

// health handles GET /health.
func health(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := checker(c.Request.Context())
		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, sh)
	}
}
