package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spigell/hh-interviewer/internal/ai/heuristic"
	"github.com/spigell/hh-interviewer/internal/engine"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/questions"
	"github.com/spigell/hh-interviewer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testServer struct {
	handler http.Handler
	logs    *observer.ObservedLogs
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	bank, err := questions.Default()
	require.NoError(t, err)

	eng, err := engine.New(engine.Config{}, &engine.Deps{
		Store:  store.NewMemory(),
		Oracle: heuristic.New(),
		Supply: bank,
	})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	srv := New(Config{Addr: "127.0.0.1:0", Version: "test"}, eng, zap.New(core))
	return &testServer{handler: srv.Handler(), logs: logs}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out), w.Body.String())
	return out
}

func validProfile() interview.Profile {
	return interview.Profile{
		Name:     "Grace Hopper",
		Position: "Platform Engineer",
		Tier:     interview.TierSenior,
		Type:     interview.TypeTechnical,
		Skills:   &interview.SkillSummary{Skills: []string{"cobol", "compilers"}},
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, 1, ts.logs.FilterMessage("http request").Len())
}

func TestInterviewLifecycle(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/interviews", CreateRequest{Profile: validProfile(), DurationMinutes: 45})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[SessionView](t, w)
	assert.Equal(t, interview.StatusInProgress, created.Status)
	assert.Equal(t, interview.PhaseIntroduction, created.CurrentPhase)
	assert.InDelta(t, 45, created.DurationMinutes, 0.001)
	assert.NotEmpty(t, created.Plan)

	base := "/api/v1/interviews/" + created.ID

	w = ts.do(t, http.MethodPost, base+"/next-question", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	q := decodeBody[interview.Question](t, w)
	assert.Equal(t, interview.PhaseIntroduction, q.Phase)

	w = ts.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeBody[SessionView](t, w)
	require.NotNil(t, view.PendingQuestion)
	assert.Equal(t, q.ID, view.PendingQuestion.ID)

	answer := ResponseRequest{QuestionID: q.ID, Answer: "I build compilers and teach teams to use them.", TimeTaken: 50}
	w = ts.do(t, http.MethodPost, base+"/responses", answer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	eval := decodeBody[interview.Evaluation](t, w)
	assert.False(t, eval.Ungraded)

	w = ts.do(t, http.MethodPost, base+"/responses", answer)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_answered", decodeBody[errorBody](t, w).Error)

	w = ts.do(t, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snapshot := decodeBody[interview.Report](t, w)
	assert.False(t, snapshot.Final)
	assert.Equal(t, 1, snapshot.TotalResponses)

	w = ts.do(t, http.MethodPost, base+"/finalize", nil)
	require.Equal(t, http.StatusOK, w.Code)
	final := decodeBody[interview.Report](t, w)
	assert.True(t, final.Final)

	w = ts.do(t, http.MethodPost, base+"/next-question", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "session_terminal", decodeBody[errorBody](t, w).Error)
}

func TestErrorResponses(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		kind   string
	}{
		{"invalid profile", http.MethodPost, "/api/v1/interviews", CreateRequest{Profile: interview.Profile{Name: "x"}}, http.StatusBadRequest, "invalid_profile"},
		{"negative duration", http.MethodPost, "/api/v1/interviews", CreateRequest{Profile: validProfile(), DurationMinutes: -1}, http.StatusBadRequest, "invalid_request"},
		{"unknown session", http.MethodGet, "/api/v1/interviews/nope", nil, http.StatusNotFound, "session_not_found"},
		{"unknown session report", http.MethodGet, "/api/v1/interviews/nope/report", nil, http.StatusNotFound, "session_not_found"},
		{"missing question id", http.MethodPost, "/api/v1/interviews/nope/responses", ResponseRequest{Answer: "a"}, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			body := decodeBody[errorBody](t, w)
			assert.Equal(t, tt.kind, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestUnknownQuestion(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/interviews", CreateRequest{Profile: validProfile()})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[SessionView](t, w)

	w = ts.do(t, http.MethodPost, "/api/v1/interviews/"+created.ID+"/responses", ResponseRequest{QuestionID: "ghost", Answer: "a"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_question", decodeBody[errorBody](t, w).Error)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/interviews", CreateRequest{Profile: validProfile()})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[SessionView](t, w)

	base := "/api/v1/interviews/" + created.ID
	w = ts.do(t, http.MethodPost, base+"/next-question", nil)
	require.Equal(t, http.StatusOK, w.Code)
	q := decodeBody[interview.Question](t, w)

	huge := ResponseRequest{QuestionID: q.ID, Answer: strings.Repeat("a", maxBodyBytes+1)}
	w = ts.do(t, http.MethodPost, base+"/responses", huge)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decodeBody[errorBody](t, w).Error)

	w = ts.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decodeBody[SessionView](t, w).AnsweredQuestions)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	bank, err := questions.Default()
	require.NoError(t, err)
	eng, err := engine.New(engine.Config{}, &engine.Deps{Store: store.NewMemory(), Oracle: heuristic.New(), Supply: bank})
	require.NoError(t, err)

	srv := New(Config{Addr: "127.0.0.1:0"}, eng, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
