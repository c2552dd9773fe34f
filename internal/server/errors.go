package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	docdomain "github.com/smallbiznis/fiberdesk/internal/document/domain"
	linedomain "github.com/smallbiznis/fiberdesk/internal/invoiceline/domain"
	"github.com/smallbiznis/fiberdesk/internal/invoiceline/remote"
	wizarddomain "github.com/smallbiznis/fiberdesk/internal/wizard/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// validationSentinels map domain errors to the field they concern.
var validationSentinels = []struct {
	err   error
	field string
}{
	{ErrInvalidRequest, "request"},
	{docdomain.ErrInvalidDocumentType, "type"},
	{docdomain.ErrInvalidDocument, "document"},
	{linedomain.ErrInvalidLine, "lines"},
	{linedomain.ErrInvalidInvoice, "invoice_id"},
	{wizarddomain.ErrInvalidSession, "session"},
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	// A partial reconciliation wraps every per-operation failure, so it must
	// be matched before anything those failures could match.
	var rerr *linedomain.ReconcileError
	if errors.As(err, &rerr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "reconcile_incomplete",
			Message: rerr.Error(),
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	for _, v := range validationSentinels {
		if errors.Is(err, v.err) {
			return http.StatusBadRequest, errorPayload{
				Type:    "validation_error",
				Message: "validation error",
				Errors: []ValidationError{
					{
						Field:   v.field,
						Code:    v.err.Error(),
						Message: "invalid value",
					},
				},
			}
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, wizarddomain.ErrSubmitInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a submission is already running for this session",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isUpstreamError(err):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_error",
			Message: "remote store unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and HTTP status the client saw.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	return payload.Type, strconv.Itoa(status)
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, wizarddomain.ErrSessionNotFound),
		remote.IsNotFound(err):
		return true
	default:
		return false
	}
}

func isUpstreamError(err error) bool {
	_, ok := remote.AsError(err)
	return ok
}
