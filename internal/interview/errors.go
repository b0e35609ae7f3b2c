package interview

import "errors"

var (
	// ErrInvalidProfile is returned when a candidate profile misses required
	// fields or names an unknown interview type or tier.
	ErrInvalidProfile = errors.New("invalid candidate profile")
	// ErrSessionNotFound is returned when no session exists for the id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionTerminal is returned for operations on a completed or expired session.
	ErrSessionTerminal = errors.New("session is not in progress")
	// ErrSessionExpired is returned when the duration budget has been exceeded.
	ErrSessionExpired = errors.New("session duration budget exceeded")
	// ErrUnknownQuestion is returned when a response names a question that was never asked.
	ErrUnknownQuestion = errors.New("question was not asked in this session")
	// ErrAlreadyAnswered is returned on a second response for the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrOracleUnavailable marks a failed scoring attempt. It never leaves the engine.
	ErrOracleUnavailable = errors.New("scoring oracle unavailable")
	// ErrNoQuestionAvailable is returned when the question supply cannot produce a new question.
	ErrNoQuestionAvailable = errors.New("no question available")
	// ErrStoreConflict is returned when compare-and-set kept failing after retries.
	ErrStoreConflict = errors.New("session store conflict")
	// ErrPlanComplete is returned by next question once every phase has been served.
	ErrPlanComplete = errors.New("interview plan complete")
)
