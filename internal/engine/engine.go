package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/difficulty"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/phases"
	"github.com/spigell/hh-interviewer/internal/scoring"
	"github.com/spigell/hh-interviewer/internal/store"
	"github.com/spigell/hh-interviewer/internal/utils"
	"go.uber.org/zap"
)

const (
	DefaultBudget          = 60 * time.Minute
	DefaultRetention       = 24 * time.Hour
	DefaultOracleTimeout   = 30 * time.Second
	DefaultOracleAttempts  = 3
	DefaultOracleBackoff   = 500 * time.Millisecond
	DefaultConflictRetries = 5
)

// Config tunes the engine. Zero values fall back to the defaults above, except
// OracleBackoff where zero retries without waiting and only a negative value
// selects DefaultOracleBackoff.
type Config struct {
	DefaultBudget   time.Duration
	Retention       time.Duration
	OracleTimeout   time.Duration
	OracleAttempts  int
	OracleBackoff   time.Duration
	ConflictRetries int
}

// Deps are the collaborators the engine drives.
type Deps struct {
	Store     store.Store
	Sequencer *phases.Sequencer
	Oracle    ai.Oracle
	Supply    ai.QuestionSupply
	Logger    *zap.Logger
}

// Engine runs interview sessions. It is safe for concurrent use; calls for the
// same session are serialized and calls for different sessions are not.
type Engine struct {
	cfg     Config
	store   store.Store
	seq     *phases.Sequencer
	adapter *difficulty.Adapter
	oracle  ai.Oracle
	supply  ai.QuestionSupply
	locks   *keyedMutex
	logger  *zap.Logger
	now     func() time.Time
}

// New builds an engine.
func New(cfg Config, deps *Deps) (*Engine, error) {
	if deps == nil {
		return nil, errors.New("engine dependencies are required")
	}
	if deps.Store == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Oracle == nil {
		return nil, errors.New("scoring oracle is required")
	}
	if deps.Supply == nil {
		return nil, errors.New("question supply is required")
	}

	log := logger.WithFields(deps.Logger)

	seq := deps.Sequencer
	if seq == nil {
		var err error
		seq, err = phases.New(nil, log)
		if err != nil {
			return nil, err
		}
	}

	if cfg.DefaultBudget <= 0 {
		cfg.DefaultBudget = DefaultBudget
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = DefaultOracleTimeout
	}
	if cfg.OracleAttempts <= 0 {
		cfg.OracleAttempts = DefaultOracleAttempts
	}
	if cfg.OracleBackoff < 0 {
		cfg.OracleBackoff = DefaultOracleBackoff
	}
	if cfg.ConflictRetries <= 0 {
		cfg.ConflictRetries = DefaultConflictRetries
	}

	return &Engine{
		cfg:     cfg,
		store:   deps.Store,
		seq:     seq,
		adapter: difficulty.New(log),
		oracle:  deps.Oracle,
		supply:  deps.Supply,
		locks:   newKeyedMutex(),
		logger:  log,
		now:     func() time.Time { return time.Now().UTC().Round(0) },
	}, nil
}

// Sequencer returns the phase sequencer used to plan sessions.
func (e *Engine) Sequencer() *phases.Sequencer {
	return e.seq
}

// Create validates the profile and starts a new session. A non-positive budget
// selects the configured default.
func (e *Engine) Create(ctx context.Context, profile interview.Profile, budget time.Duration) (*interview.Session, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if budget <= 0 {
		budget = e.cfg.DefaultBudget
	}

	session := &interview.Session{
		ID:             uuid.NewString(),
		Profile:        profile,
		Status:         interview.StatusInProgress,
		Difficulty:     difficulty.Initial(),
		Questions:      []interview.Question{},
		Responses:      []interview.Response{},
		CreatedAt:      e.now(),
		DurationBudget: budget,
	}
	e.seq.Advance(session)

	if err := e.store.PutWithTTL(ctx, session.ID, session, budget+e.cfg.Retention); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	plan := e.seq.PlanFor(session)
	e.sessionLog(session).Info("interview session created",
		zap.String("interview_type", string(profile.Type)),
		zap.String("experience_tier", string(profile.Tier)),
		zap.Duration("budget", budget),
		zap.Int("phases", len(plan)),
		zap.Int("planned_questions", plan.TotalQuestions()),
	)

	return session, nil
}

// Session returns the current state of a session. An overdue session is
// marked expired on the way.
func (e *Engine) Session(ctx context.Context, id string) (*interview.Session, error) {
	var view *interview.Session
	err := e.mutate(ctx, id, func(s *interview.Session) (bool, error) {
		view = s
		return e.expire(s), nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// NextQuestion returns the question the candidate should answer now. An
// unanswered question is returned again. ErrPlanComplete means the session
// should be finalized.
func (e *Engine) NextQuestion(ctx context.Context, id string) (*interview.Question, error) {
	for attempt := 0; attempt <= e.cfg.ConflictRetries; attempt++ {
		var (
			pending *interview.Question
			req     *ai.QuestionRequest
			cursor  int
		)

		err := e.mutate(ctx, id, func(s *interview.Session) (bool, error) {
			pending, req = nil, nil

			if expired, err := e.checkActive(s); err != nil {
				return expired, err
			}

			if q, ok := s.Pending(); ok {
				copied := *q
				pending = &copied
				return false, nil
			}

			changed := len(e.seq.SkipOverdue(s, e.now())) > 0
			if e.seq.Advance(s) > 0 {
				changed = true
			}

			def, ok := e.seq.Current(s)
			if !ok {
				return changed, fmt.Errorf("%w: session %s", interview.ErrPlanComplete, s.ID)
			}

			cursor = s.PhaseCursor
			req = &ai.QuestionRequest{
				SessionID:  s.ID,
				Phase:      def.Name,
				PhaseTitle: def.Title,
				Difficulty: difficulty.Effective(s.Difficulty, def),
				Profile:    s.Profile,
				Excluded:   s.AskedIDs(),
				Asked:      s.AskedTexts(),
			}
			return changed, nil
		})
		if err != nil {
			return nil, err
		}
		if pending != nil {
			return pending, nil
		}

		supplied, err := e.supply.Next(ctx, *req)
		if err != nil {
			if errors.Is(err, interview.ErrNoQuestionAvailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", interview.ErrNoQuestionAvailable, err)
		}
		if supplied == nil || strings.TrimSpace(supplied.Text) == "" {
			return nil, fmt.Errorf("%w: empty question for phase %s", interview.ErrNoQuestionAvailable, req.Phase)
		}

		var (
			asked *interview.Question
			stale bool
		)
		err = e.mutate(ctx, id, func(s *interview.Session) (bool, error) {
			asked, stale = nil, false

			if expired, err := e.checkActive(s); err != nil {
				return expired, err
			}
			if _, ok := s.Pending(); ok || s.PhaseCursor != cursor {
				stale = true
				return false, nil
			}

			q := *supplied
			if q.ID == "" {
				q.ID = uuid.NewString()
			}
			if _, dup := s.Question(q.ID); dup {
				return false, fmt.Errorf("%w: question %s was already asked", interview.ErrNoQuestionAvailable, q.ID)
			}
			q.Phase = req.Phase
			// Supplies may fall back to a neighbouring level; record what was served.
			if !q.Difficulty.Valid() {
				q.Difficulty = req.Difficulty
			}
			q.AskedAt = e.now()

			s.Questions = append(s.Questions, q)
			asked = &q
			return true, nil
		})
		if err != nil {
			return nil, err
		}
		if stale {
			e.logger.Debug("session changed while fetching a question, retrying", logger.SessionFields(id, string(req.Phase))...)
			continue
		}

		e.logger.Info("question asked",
			zap.String(logger.FieldSessionID, id),
			zap.String(logger.FieldPhase, string(asked.Phase)),
			zap.String("question_id", asked.ID),
			zap.String("difficulty", string(asked.Difficulty)),
		)
		return asked, nil
	}

	return nil, fmt.Errorf("%w: session %s kept changing", interview.ErrStoreConflict, id)
}

// SubmitResponse records the answer to an asked question and returns its
// evaluation. A failing oracle never blocks the candidate: the response is
// stored with an ungraded evaluation instead.
func (e *Engine) SubmitResponse(ctx context.Context, id, questionID, answer string, timeTaken float64) (*interview.Evaluation, error) {
	if timeTaken < 0 {
		timeTaken = 0
	}

	var req ai.EvaluationRequest
	err := e.mutate(ctx, id, func(s *interview.Session) (bool, error) {
		q, ok := s.Question(questionID)
		if !ok {
			return false, fmt.Errorf("%w: %s", interview.ErrUnknownQuestion, questionID)
		}
		if _, answered := s.Response(questionID); answered {
			return false, fmt.Errorf("%w: %s", interview.ErrAlreadyAnswered, questionID)
		}
		if expired, err := e.checkActive(s); err != nil {
			return expired, err
		}

		req = ai.EvaluationRequest{
			SessionID: s.ID,
			Question:  *q,
			Answer:    answer,
			TimeTaken: timeTaken,
			Profile:   s.Profile,
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	eval, err := e.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	err = e.mutate(ctx, id, func(s *interview.Session) (bool, error) {
		if _, answered := s.Response(questionID); answered {
			return false, fmt.Errorf("%w: %s", interview.ErrAlreadyAnswered, questionID)
		}
		if expired, err := e.checkActive(s); err != nil {
			return expired, err
		}

		s.Responses = append(s.Responses, interview.Response{
			QuestionID: questionID,
			Answer:     answer,
			TimeTaken:  timeTaken,
			Evaluation: eval,
			AnsweredAt: e.now(),
		})

		e.seq.Advance(s)
		var next *phases.Definition
		if def, ok := e.seq.Current(s); ok {
			next = &def
		}
		s.Difficulty = e.adapter.Update(s.Difficulty, eval, next)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("response recorded",
		zap.String(logger.FieldSessionID, id),
		zap.String(logger.FieldPhase, string(req.Question.Phase)),
		zap.String("question_id", questionID),
		zap.Float64("overall_score", eval.Overall()),
		zap.Bool("ungraded", eval.Ungraded),
	)

	return eval, nil
}

// Finalize completes the session and returns its report. Finalizing a
// completed session returns the stored report unchanged.
func (e *Engine) Finalize(ctx context.Context, id string) (*interview.Report, error) {
	var (
		report  *interview.Report
		created bool
	)

	err := e.mutate(ctx, id, func(s *interview.Session) (bool, error) {
		report, created = nil, false

		switch s.Status {
		case interview.StatusCompleted:
			report = s.Report
			return false, nil
		case interview.StatusExpired:
			return false, fmt.Errorf("%w: session %s expired", interview.ErrSessionTerminal, s.ID)
		}

		now := e.now()
		s.Status = interview.StatusCompleted
		s.EndedAt = &now

		report = scoring.Aggregate(s, e.seq.PlanFor(s), now)
		report.Final = true
		s.Report = report
		created = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("session %s is completed without a report", id)
	}

	if created {
		e.logger.Info("interview session finalized",
			zap.String(logger.FieldSessionID, id),
			zap.Float64("overall_score", report.Overall),
			zap.String("recommendation", string(report.Recommendation)),
			zap.String("confidence", string(report.Confidence)),
		)
	}

	return cloneReport(report)
}

// Report returns the stored report of a completed session or a live snapshot
// of any other session. Snapshots are never persisted.
func (e *Engine) Report(ctx context.Context, id string) (*interview.Report, error) {
	rec, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s := rec.Session
	if s.Status == interview.StatusCompleted && s.Report != nil {
		return s.Report, nil
	}

	return scoring.Aggregate(s, e.seq.PlanFor(s), e.now()), nil
}

// evaluate calls the oracle with a per-attempt timeout and exponential backoff.
// Only cancellation of ctx itself is returned as an error.
func (e *Engine) evaluate(ctx context.Context, req ai.EvaluationRequest) (*interview.Evaluation, error) {
	log := e.logger.With(
		zap.String(logger.FieldSessionID, req.SessionID),
		zap.String("question_id", req.Question.ID),
	)

	backoff := e.cfg.OracleBackoff
	for attempt := 1; attempt <= e.cfg.OracleAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.OracleTimeout)
		eval, err := e.oracle.Evaluate(attemptCtx, req)
		cancel()

		if err == nil && eval != nil {
			eval.Normalize()
			return eval, nil
		}
		if err == nil {
			err = errors.New("oracle returned no evaluation")
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		log.Warn("evaluation attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.cfg.OracleAttempts),
			zap.Error(fmt.Errorf("%w: %w", interview.ErrOracleUnavailable, err)),
		)

		if attempt < e.cfg.OracleAttempts {
			if err := utils.WaitFor(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
		}
	}

	log.Error("recording ungraded evaluation", zap.Error(interview.ErrOracleUnavailable))
	return interview.UngradedEvaluation(), nil
}

// mutate runs fn against the latest record under the session lock. When fn
// asks for it the session is written back with compare-and-set, re-running fn
// on a version conflict. The error of fn is returned after persisting.
func (e *Engine) mutate(ctx context.Context, id string, fn func(*interview.Session) (bool, error)) error {
	for attempt := 0; attempt <= e.cfg.ConflictRetries; attempt++ {
		unlock := e.locks.lock(id)

		rec, err := e.load(ctx, id)
		if err != nil {
			unlock()
			return err
		}

		persist, fnErr := fn(rec.Session)
		if !persist {
			unlock()
			return fnErr
		}

		ok, err := e.store.CompareAndSet(ctx, id, rec.Version, rec.Session)
		unlock()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: %s", interview.ErrSessionNotFound, id)
			}
			return fmt.Errorf("persisting session: %w", err)
		}
		if ok {
			return fnErr
		}

		e.logger.Debug("session version conflict",
			zap.String(logger.FieldSessionID, id),
			zap.Int64("version", rec.Version),
			zap.Int("attempt", attempt+1),
		)
	}

	return fmt.Errorf("%w: session %s", interview.ErrStoreConflict, id)
}

func (e *Engine) load(ctx context.Context, id string) (*store.Record, error) {
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", interview.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return rec, nil
}

// checkActive rejects terminal sessions and expires overdue ones. expired is
// true when the session was just marked expired and must be persisted.
func (e *Engine) checkActive(s *interview.Session) (expired bool, err error) {
	if s.Status.Terminal() {
		return false, fmt.Errorf("%w: session %s is %s", interview.ErrSessionTerminal, s.ID, s.Status)
	}
	if e.expire(s) {
		return true, fmt.Errorf("%w: session %s", interview.ErrSessionExpired, s.ID)
	}
	return false, nil
}

// expire marks an overdue in-progress session as expired and reports whether
// it did.
func (e *Engine) expire(s *interview.Session) bool {
	now := e.now()
	if s.Status != interview.StatusInProgress || !s.Expired(now) {
		return false
	}

	s.Status = interview.StatusExpired
	s.EndedAt = &now
	e.sessionLog(s).Info("interview session expired",
		zap.Duration("elapsed", s.Elapsed(now)),
		zap.Duration("budget", s.DurationBudget),
	)
	return true
}

func (e *Engine) sessionLog(s *interview.Session) *zap.Logger {
	phase := ""
	if def, ok := e.seq.Current(s); ok {
		phase = string(def.Name)
	}
	return logger.ForSession(e.logger, s.ID, phase)
}

func cloneReport(report *interview.Report) (*interview.Report, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	var out interview.Report
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &out, nil
}
