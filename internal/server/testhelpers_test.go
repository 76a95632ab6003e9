package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-screener/internal/config"
	"github.com/jonathan/interview-screener/internal/db"
	"github.com/jonathan/interview-screener/internal/interview"
	"github.com/jonathan/interview-screener/internal/notify"
	"github.com/jonathan/interview-screener/internal/server/ratelimit"
)

type mockInterviews struct {
	StartFunc        func(ctx context.Context, in interview.StartInput) (*interview.Started, error)
	NextQuestionFunc func(ctx context.Context, id string) (*interview.Question, error)
	SubmitAnswerFunc func(ctx context.Context, id string, r io.Reader, filename string) (*interview.Outcome, error)
	SummaryFunc      func(ctx context.Context, id string) (*interview.Summary, error)
}

func (m *mockInterviews) Start(ctx context.Context, in interview.StartInput) (*interview.Started, error) {
	return m.StartFunc(ctx, in)
}

func (m *mockInterviews) NextQuestion(ctx context.Context, id string) (*interview.Question, error) {
	return m.NextQuestionFunc(ctx, id)
}

func (m *mockInterviews) SubmitAnswer(ctx context.Context, id string, r io.Reader, filename string) (*interview.Outcome, error) {
	return m.SubmitAnswerFunc(ctx, id, r, filename)
}

func (m *mockInterviews) Summary(ctx context.Context, id string) (*interview.Summary, error) {
	return m.SummaryFunc(ctx, id)
}

type mockResumes struct {
	ExtractFunc    func(ctx context.Context, filename string, data []byte) (string, error)
	ExtractURLFunc func(ctx context.Context, url string) (string, error)
}

func (m *mockResumes) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	return m.ExtractFunc(ctx, filename, data)
}

func (m *mockResumes) ExtractURL(ctx context.Context, url string) (string, error) {
	return m.ExtractURLFunc(ctx, url)
}

type mockDirectory struct {
	candidates  map[string]*db.Candidate
	answers     map[string][]db.Answer
	leaderboard []db.LeaderboardEntry
}

func (m *mockDirectory) GetCandidate(_ context.Context, id string) (*db.Candidate, error) {
	return m.candidates[id], nil
}

func (m *mockDirectory) GetAnswers(_ context.Context, id string) ([]db.Answer, error) {
	return m.answers[id], nil
}

func (m *mockDirectory) GetLeaderboard(context.Context) ([]db.LeaderboardEntry, error) {
	return m.leaderboard, nil
}

type mockShortlister struct {
	got []notify.Recipient
}

func (m *mockShortlister) Shortlist(recipients []notify.Recipient) notify.Report {
	m.got = recipients
	report := notify.Report{}
	for _, r := range recipients {
		if r.Email == "" {
			report.Skipped++
		} else {
			report.Queued++
		}
	}
	return report
}

type staticOrg struct {
	email    string
	password string
}

func (o staticOrg) Verify(email, password string) bool {
	return email == o.email && password == o.password
}

type testEnv struct {
	server     *Server
	handler    http.Handler
	interviews *mockInterviews
	resumes    *mockResumes
	directory  *mockDirectory
	shortlist  *mockShortlister
	jwt        *JWTService
}

func newTestJWTService() *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          "test-secret-key-for-jwt-signing-minimum-32-bytes",
		ExpirationHours: 24,
	})
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		interviews: &mockInterviews{},
		resumes:    &mockResumes{},
		directory:  &mockDirectory{candidates: map[string]*db.Candidate{}, answers: map[string][]db.Answer{}},
		shortlist:  &mockShortlister{},
		jwt:        newTestJWTService(),
	}

	s, err := New(Config{
		Port:           0,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxUploadMB:    1,
		RateLimit:      &ratelimit.Config{Enabled: false},
		Interviews:     env.interviews,
		Resumes:        env.resumes,
		Directory:      env.directory,
		Shortlister:    env.shortlist,
		JWT:            env.jwt,
		Org:            staticOrg{email: "hr@example.com", password: "s3cret"},
	})
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)

	env.server = s
	env.handler = s.Handler()
	return env
}

func (e *testEnv) token(t *testing.T, subject, role string) string {
	t.Helper()
	token, err := e.jwt.GenerateToken(subject, role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// multipartRequest builds a multipart body with optional file and text fields.
func multipartRequest(t *testing.T, method, target, fileField, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
