package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

const problemContentType = "application/problem+json"

// ProblemDetail represents an RFC 7807 Problem Details response
type ProblemDetail struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// respondProblem writes an RFC 7807 error response and aborts the chain
func respondProblem(c *gin.Context, status int, detail string) {
	problem := ProblemDetail{
		Type:      errorTypeFromStatus(status),
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Instance:  c.Request.URL.Path,
		RequestID: c.GetString(requestIDKey),
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	// gin keeps an explicit content type when rendering JSON
	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(status, problem)
}

// statusFor maps an error kind onto an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidFormat),
		errors.Is(err, model.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrLLMRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, model.ErrLLMUnavailable),
		errors.Is(err, model.ErrLLMMalformedResponse),
		errors.Is(err, model.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// detailFor returns the client-facing message of err
func detailFor(err error) string {
	var e *model.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// respondError maps err onto a problem response, hiding internal failures
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "Request failed", log.Fields{
			"error":     err.Error(),
			"path":      c.Request.URL.Path,
			"requestID": c.GetString(requestIDKey),
		})
		respondProblem(c, status, "internal server error")
		return
	}
	respondProblem(c, status, detailFor(err))
}

// errorTypeFromStatus returns the RFC 7807 type URI for a status code
func errorTypeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1"
	case http.StatusUnauthorized:
		return "https://datatracker.ietf.org/doc/html/rfc7235#section-3.1"
	case http.StatusPaymentRequired:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.2"
	case http.StatusNotFound:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4"
	case http.StatusTooManyRequests:
		return "https://datatracker.ietf.org/doc/html/rfc6585#section-4"
	case http.StatusBadGateway:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.3"
	default:
		return "about:blank"
	}
}
