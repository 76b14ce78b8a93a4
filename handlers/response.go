package handlers

import (
	"errors"
	"net/http"

	"polly-backend/logging"
	"polly-backend/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed poll request. Error is meant to
// be shown to the user as is.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SuccessResponse is the body of a successful mutation
type SuccessResponse struct {
	Success bool   `json:"success"`
	PollID  string `json:"pollId,omitempty"`
}

// statusFor maps a service error kind to an HTTP status
func statusFor(err error) int {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		return http.StatusInternalServerError
	}

	switch svcErr.Kind {
	case service.AuthenticationRequired:
		return http.StatusUnauthorized
	case service.AuthorizationDenied:
		return http.StatusForbidden
	case service.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	message := "Something went wrong."
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	c.AbortWithStatusJSON(statusFor(err), ErrorResponse{Success: false, Error: message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: message})
}

// invalidBody rejects a body that failed to bind. Decoder and validator
// details only go to the log.
func invalidBody(c *gin.Context, err error) {
	logging.Module("handlers").WithError(err).WithField("path", c.FullPath()).Warn("rejected request body")
	badRequest(c, "Invalid request.")
}
