package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthService interface {
	Ready(ctx context.Context) (map[string]string, bool)
}

type HealthHandler struct {
	BaseHandler

	log *zap.Logger
	svc HealthService
}

func NewHealthHandler(log *zap.Logger, svc HealthService) *HealthHandler {
	return &HealthHandler{
		BaseHandler: BaseHandler{},
		log:         log,
		svc:         svc,
	}
}

// Ping
// @Summary Liveness probe.
// @Description Returns "pong" while the process is up.
// @Tags Health
// @Produce json
// @Success 200 {object} ResponseWithMessage "Success"
// @Router /health [get]
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, ResponseWithMessage{
		Status:  StatusSuccess,
		Message: "pong",
	})
}

// Ready
// @Summary Readiness probe.
// @Description Probes every enabled dependency and reports each one as "ok", "disabled" or the error text.
// @Tags Health
// @Produce json
// @Success 200 {object} ResponseWithData{data=map[string]string} "All dependencies reachable"
// @Failure 503 {object} ResponseWithData{data=map[string]string} "At least one dependency is down"
// @Router /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	report, ready := h.svc.Ready(c.Request.Context())

	if !ready {
		c.JSON(http.StatusServiceUnavailable, ResponseWithData{
			Status: StatusNotAvailable,
			Data:   report,
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusOK,
		Data:   report,
	})
}
