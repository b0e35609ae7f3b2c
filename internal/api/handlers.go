package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/phases"
)

// CreateRequest is the body of POST /api/v1/interviews.
type CreateRequest struct {
	Profile         interview.Profile `json:"profile"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
}

// ResponseRequest is the body of POST /api/v1/interviews/{id}/responses.
type ResponseRequest struct {
	QuestionID string  `json:"question_id"`
	Answer     string  `json:"answer"`
	TimeTaken  float64 `json:"time_taken_seconds"`
}

// SessionView is the public state of a session.
type SessionView struct {
	ID                string               `json:"id"`
	Status            interview.Status     `json:"status"`
	Profile           interview.Profile    `json:"profile"`
	CurrentPhase      interview.Phase      `json:"current_phase,omitempty"`
	CurrentDifficulty interview.Difficulty `json:"current_difficulty"`
	Plan              phases.Plan          `json:"plan"`
	Questions         []interview.Question `json:"questions"`
	AnsweredQuestions int                  `json:"answered_questions"`
	PendingQuestion   *interview.Question  `json:"pending_question,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	DurationMinutes   float64              `json:"duration_minutes"`
	EndedAt           *time.Time           `json:"ended_at,omitempty"`
}

func (s *Server) view(session *interview.Session) SessionView {
	seq := s.interviews.Sequencer()

	v := SessionView{
		ID:                session.ID,
		Status:            session.Status,
		Profile:           session.Profile,
		CurrentDifficulty: session.Difficulty.Current,
		Plan:              seq.PlanFor(session),
		Questions:         session.Questions,
		AnsweredQuestions: len(session.Responses),
		CreatedAt:         session.CreatedAt,
		DurationMinutes:   session.DurationBudget.Minutes(),
		EndedAt:           session.EndedAt,
	}
	if def, ok := seq.Current(session); ok {
		v.CurrentPhase = def.Name
	}
	if q, ok := session.Pending(); ok {
		v.PendingQuestion = q
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

// maxBodyBytes caps request bodies; answers are plain text and fit well below it.
const maxBodyBytes = 1 << 20

func readJSON(w http.ResponseWriter, r *http.Request, out any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := readJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if req.DurationMinutes < 0 {
		s.errorResponse(w, http.StatusBadRequest, "invalid_request", "duration_minutes must not be negative")
		return
	}

	session, err := s.interviews.Create(r.Context(), req.Profile, time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, s.view(session))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.interviews.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, s.view(session))
}

func (s *Server) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.interviews.NextQuestion(r.Context(), r.PathValue("id"))
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, q)
}

func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req ResponseRequest
	if err := readJSON(w, r, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if req.QuestionID == "" {
		s.errorResponse(w, http.StatusBadRequest, "invalid_request", "question_id is required")
		return
	}

	eval, err := s.interviews.SubmitResponse(r.Context(), r.PathValue("id"), req.QuestionID, req.Answer, req.TimeTaken)
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, eval)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	report, err := s.interviews.Finalize(r.Context(), r.PathValue("id"))
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.interviews.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		s.engineError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}
