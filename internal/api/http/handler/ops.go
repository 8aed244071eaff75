package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
)

const (
	defaultSearchSize = 20
	maxSearchSize     = 100
)

type SweepTrigger interface {
	TriggerNow(ctx context.Context) (model.SweepResult, error)
	LastResult() (*model.SweepResult, error)
}

type ContentSearcher interface {
	Search(ctx context.Context, query, author string, size int) ([]model.ContentSearchHit, error)
}

type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request)
}

type OpsHandler struct {
	BaseHandler

	log      *zap.Logger
	sweeper  SweepTrigger
	searcher ContentSearcher
	streamer Streamer
}

// NewOpsHandler wires the operator endpoints. Any of the collaborators may be nil
// when the matching role is disabled; the endpoint then answers 503.
func NewOpsHandler(log *zap.Logger, sweeper SweepTrigger, searcher ContentSearcher, streamer Streamer) *OpsHandler {
	return &OpsHandler{
		BaseHandler: BaseHandler{},
		log:         log,
		sweeper:     sweeper,
		searcher:    searcher,
		streamer:    streamer,
	}
}

// ContentSearchQuery
// @Description Caption search over indexed content.
type ContentSearchQuery struct {
	Query  string `form:"q"      binding:"required" example:"challenge"` // Full-text query over captions
	Author string `form:"author"                    example:"mrbeast"`   // Optional exact author filter
	Size   int    `form:"size"   binding:"omitempty,min=1"`              // Max hits, 20 by default
} // @Name ContentSearchQuery

// Sweep
// @Summary Run a discovery sweep now.
// @Description Scans every active account once and returns the counters. Answers 409 when a sweep is already running.
// @Tags Ops
// @Produce json
// @Security AccessToken
// @Success 200 {object} ResponseWithData{data=model.SweepResult} "Sweep finished"
// @Failure 401 {object} ResponseWithMessage "Missing or invalid token"
// @Failure 403 {object} ResponseWithMessage "Not an operator"
// @Failure 409 {object} ResponseWithMessage "Sweep already in progress"
// @Failure 500 {object} ResponseWithData{data=model.SweepResult} "Sweep aborted, partial counters attached"
// @Failure 503 {object} ResponseWithMessage "Scheduler role is disabled"
// @Router /ops/sweep [post]
func (h *OpsHandler) Sweep(c *gin.Context) {
	if h.sweeper == nil {
		h.notAvailable(c, "scheduler role is disabled")
		return
	}

	operator, _ := h.GetOperatorID(c)
	h.log.Info("Manual sweep requested", zap.String("operator", operator))

	result, err := h.sweeper.TriggerNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrSweepInProgress) {
			c.JSON(http.StatusConflict, ResponseWithMessage{
				Status:  StatusBusy,
				Message: err.Error(),
			})

			return
		}

		h.log.Error("Manual sweep failed", zap.Error(err))

		c.JSON(http.StatusInternalServerError, ResponseWithData{
			Status: StatusErr,
			Data:   result,
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   result,
	})
}

// LastSweep
// @Summary Latest sweep outcome.
// @Tags Ops
// @Produce json
// @Security AccessToken
// @Success 200 {object} ResponseWithData{data=model.SweepResult} "Latest sweep"
// @Failure 404 {object} ResponseWithMessage "No sweep has finished yet"
// @Failure 503 {object} ResponseWithMessage "Scheduler role is disabled"
// @Router /ops/sweep/last [get]
func (h *OpsHandler) LastSweep(c *gin.Context) {
	if h.sweeper == nil {
		h.notAvailable(c, "scheduler role is disabled")
		return
	}

	result, err := h.sweeper.LastResult()
	if result == nil {
		c.JSON(http.StatusNotFound, ResponseWithMessage{
			Status:  StatusNotAvailable,
			Message: "no sweep has finished yet",
		})

		return
	}

	status := StatusSuccess
	if err != nil {
		status = StatusErr
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: status,
		Data:   result,
	})
}

// SearchContent
// @Summary Search announced content.
// @Description Full-text search over the captions of every announced item.
// @Tags Ops
// @Produce json
// @Security AccessToken
// @Param q query string true "Caption query"
// @Param author query string false "Author username"
// @Param size query int false "Max hits"
// @Success 200 {object} ResponseWithData{data=[]model.ContentSearchHit} "Hits"
// @Failure 400 {object} ResponseWithMessage "Invalid query"
// @Failure 503 {object} ResponseWithMessage "Indexer is disabled or unavailable"
// @Router /ops/content/search [get]
func (h *OpsHandler) SearchContent(c *gin.Context) {
	if h.searcher == nil {
		h.notAvailable(c, "content index is disabled")
		return
	}

	var q ContentSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ResponseWithMessage{
			Status:  StatusInvalidInput,
			Message: err.Error(),
		})

		return
	}

	if q.Size == 0 {
		q.Size = defaultSearchSize
	}

	q.Size = min(q.Size, maxSearchSize)

	hits, err := h.searcher.Search(c.Request.Context(), q.Query, q.Author, q.Size)
	if err != nil {
		h.log.Error("Content search failed", zap.Error(err))

		status := http.StatusInternalServerError
		if errors.Is(err, apperrors.ErrStoreUnavailable) {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, ResponseWithMessage{
			Status:  StatusErr,
			Message: err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, ResponseWithData{
		Status: StatusSuccess,
		Data:   hits,
	})
}

// Stream
// @Summary Live fan-out stream over WebSocket.
// @Description Upgrades to WebSocket and pushes {"type":"fanout","data":FanOutResult} for every handled event.
// @Tags Ops
// @Security AccessToken
// @Router /ops/stream [get]
func (h *OpsHandler) Stream(c *gin.Context) {
	if h.streamer == nil {
		h.notAvailable(c, "notifier role is disabled")
		return
	}

	h.streamer.Serve(c.Writer, c.Request)
}

func (h *OpsHandler) notAvailable(c *gin.Context, msg string) {
	c.JSON(http.StatusServiceUnavailable, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: msg,
	})
}
