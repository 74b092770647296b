package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forPelevin/reelchemist/internal/errs"
)

const (
	ErrorBadRequest       = "BAD_REQUEST"
	ErrorNotFound         = "NOT_FOUND"
	ErrorInternal         = "INTERNAL_ERROR"
	ErrorInputMissing     = "INPUT_MISSING"
	ErrorInvalidInput     = "INVALID_INPUT"
	ErrorInvalidPhase     = "INVALID_PHASE"
	ErrorBusy             = "BUSY"
	ErrorProviderFailed   = "PROVIDER_FAILED"
	ErrorNothingToPreview = "NOTHING_TO_PREVIEW"
	ErrorPersistence      = "PERSISTENCE_FAILED"
	ErrorCancelled        = "CANCELLED"
)

type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Timestamp: time.Now().UTC()})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, APIResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		Timestamp: time.Now().UTC(),
	})
}

// statusFor maps the error taxonomy onto HTTP.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrInvalidPhase):
		return http.StatusBadRequest, ErrorInvalidPhase
	case errors.Is(err, errs.ErrInputMissing):
		return http.StatusBadRequest, ErrorInputMissing
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest, ErrorInvalidInput
	case errors.Is(err, errs.ErrBusy):
		return http.StatusConflict, ErrorBusy
	case errors.Is(err, errs.ErrDialogueUnavailable), errors.Is(err, errs.ErrProviderCallFailed):
		return http.StatusBadGateway, ErrorProviderFailed
	case errors.Is(err, errs.ErrNothingToPreview):
		return http.StatusNotFound, ErrorNothingToPreview
	case errors.Is(err, errs.ErrPersistence):
		return http.StatusInternalServerError, ErrorPersistence
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorCancelled
	}
	return http.StatusInternalServerError, ErrorInternal
}

func failErr(c *gin.Context, err error) {
	status, code := statusFor(err)
	fail(c, status, code, err.Error())
}
