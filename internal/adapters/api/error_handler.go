package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	errorspkg "mares.app/pkg/errors"
)

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// errorStatus maps an application error to its HTTP status and public message
func errorStatus(err error) (int, string) {
	var appErr *errorspkg.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "Internal server error"
	}

	switch appErr.Type {
	case errorspkg.ValidationError, errorspkg.ParseError:
		return http.StatusBadRequest, appErr.Message
	case errorspkg.NotFoundError:
		return http.StatusNotFound, appErr.Message
	case errorspkg.AlreadyExistsError:
		return http.StatusConflict, appErr.Message
	case errorspkg.CacheError:
		return http.StatusServiceUnavailable, "Cache unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// handleError handles different types of application errors
func (s *HTTPServerAdapter) handleError(c *gin.Context, err error) {
	statusCode, message := errorStatus(err)
	if statusCode >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "path", c.Request.URL.Path, "request_id", c.GetString("request_id"))
	}
	c.JSON(statusCode, ErrorResponse{Error: message})
}
