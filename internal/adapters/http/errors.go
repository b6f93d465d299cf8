package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aretw0/fieldwork/pkg/domain"
)

type errorResponse struct {
	Error  string                   `json:"error"`
	Errors []domain.ValidationError `json:"errors,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		validation   *domain.DraftValidationError
		precondition *domain.PreconditionError
		persistence  *domain.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &precondition):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDraftNotFound), errors.Is(err, domain.ErrSurveyNotFound):
		return http.StatusNotFound
	case errors.As(err, &persistence):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{
		Error:  domain.UserMessage(err),
		Errors: domain.ValidationErrors(err),
	})
}

func writeBadRequest(w http.ResponseWriter, msg string, errs []domain.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Errors: errs})
}
