package api

import (
	"errors"
	"net/http"

	"github.com/spigell/hh-interviewer/internal/interview"
)

type errorMapping struct {
	target error
	kind   string
	status int
}

var errorMappings = []errorMapping{
	{interview.ErrInvalidProfile, "invalid_profile", http.StatusBadRequest},
	{interview.ErrSessionNotFound, "session_not_found", http.StatusNotFound},
	{interview.ErrUnknownQuestion, "unknown_question", http.StatusNotFound},
	{interview.ErrAlreadyAnswered, "already_answered", http.StatusConflict},
	{interview.ErrSessionTerminal, "session_terminal", http.StatusConflict},
	{interview.ErrPlanComplete, "plan_complete", http.StatusConflict},
	{interview.ErrSessionExpired, "session_expired", http.StatusGone},
	{interview.ErrNoQuestionAvailable, "no_question_available", http.StatusServiceUnavailable},
	{interview.ErrStoreConflict, "store_conflict", http.StatusServiceUnavailable},
}

// HTTPStatus returns the status code and error kind for an engine error.
func HTTPStatus(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.kind
		}
	}
	return http.StatusInternalServerError, "internal"
}
