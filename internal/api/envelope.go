package api

import (
	"errors"
	"net/http"

	"carevid/video-library/internal/domain"

	"github.com/gin-gonic/gin"
)

// Response is the uniform envelope returned by every route. The HTTP
// transport status always mirrors StatusCode.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

func respond(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	})
}

// respondNotFound reports a lookup miss as a successful response with a
// null payload. Callers distinguish "found nothing" from "request failed"
// via message and data alone.
func respondNotFound(c *gin.Context, message string) {
	respond(c, http.StatusOK, message, nil)
}

// respondError classifies a workflow error into the envelope status code.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respond(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrConflict):
		respond(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, domain.ErrStorage):
		respond(c, http.StatusBadGateway, err.Error(), nil)
	default:
		respond(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

// abortWithError ends the middleware chain with an enveloped error.
func abortWithError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Response{
		StatusCode: statusCode,
		Message:    message,
		Data:       nil,
	})
}
