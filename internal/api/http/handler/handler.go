package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
)

const (
	StatusErr           = "error"
	StatusSuccess       = "success"
	StatusNotAvailable  = "not available"
	StatusNotPermitted  = "not permitted"
	StatusForbidden     = "forbidden"
	StatusOK            = "ok"
	StatusBusy          = "busy"
	StatusInvalidInput  = "invalid_input"
	StatusInternalError = "internal_error"
)

type BaseHandler struct{}

// GetOperatorID returns the subject of the verified ops token.
func (h *BaseHandler) GetOperatorID(c *gin.Context) (string, error) {
	value, exists := c.Get(model.OperatorIDKey)
	if !exists {
		return "", apperrors.ErrContextValueDoesNotExist
	}

	id, ok := value.(string)
	if !ok || id == "" {
		return "", apperrors.ErrContextValueInvalidType
	}

	return id, nil
}

// ResponseWithData
// @Description Common success/error response carrying a payload.
type ResponseWithData struct {
	Status string `json:"status"` // Request outcome
	Data   any    `json:"data"`   // Payload
} // @Name _ResponseWithData

// ResponseWithMessage
// @Description Common response carrying only a human readable message.
type ResponseWithMessage struct {
	Status  string `json:"status"`  // Request outcome
	Message string `json:"message"` // Human readable message
} // @Name _ResponseWithMessage

func NoMethod(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "method not allowed on this endpoint",
	})
}

func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, ResponseWithMessage{
		Status:  StatusNotAvailable,
		Message: "page not found",
	})
}
