package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"

	"healthmate/backend/internal/agent"
	"healthmate/backend/internal/config"
	"healthmate/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestConfig() config.Config {
	return config.Config{
		AppEnv:              "test",
		AppName:             "HealthMate API Test",
		APIPrefix:           "/api",
		AppPort:             "0",
		DatabaseURL:         "test",
		CORSAllowOrigins:    []string{"http://localhost:5173"},
		AIProvider:          "mock",
		JWTSecret:           "test-secret-1234567890",
		AuthRequired:        false,
		AuthTokenTTLMinutes: 60,
	}
}

// countingInvoker wraps the mock so tests can assert whether the gate let an
// agent call through.
type countingInvoker struct {
	calls int32
	mock  agent.MockInvoker
}

func (c *countingInvoker) Invoke(ctx context.Context, role agent.Role, prompt string) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.mock.Invoke(ctx, role, prompt)
}

func (c *countingInvoker) callCount() int {
	return int(atomic.LoadInt32(&c.calls))
}

type failingInvoker struct{}

func (failingInvoker) Invoke(context.Context, agent.Role, string) (string, error) {
	return "", context.DeadlineExceeded
}

var errWriteUnavailable = errors.New("storage writes unavailable")

// brokenWriteStore serves reads from the in-memory store but fails every
// write, modeling a database outage mid-conversation.
type brokenWriteStore struct {
	*store.Memory
}

func (brokenWriteStore) AppendLog(context.Context, string, store.LogType, *string, *int) (store.LogEntry, error) {
	return store.LogEntry{}, errWriteUnavailable
}

func (brokenWriteStore) UpdateGlucose(context.Context, string, int) error {
	return errWriteUnavailable
}

func (brokenWriteStore) UpdateMood(context.Context, string, string) error {
	return errWriteUnavailable
}

type testApp struct {
	app    *App
	router http.Handler
	store  *store.Memory
	ai     *countingInvoker
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithConfig(t, newTestConfig())
}

func newTestAppWithConfig(t *testing.T, cfg config.Config) *testApp {
	t.Helper()

	mem := seededMemory()
	ai := &countingInvoker{}
	app := New(cfg, mem, ai)
	return &testApp{
		app:    app,
		router: app.Router(),
		store:  mem,
		ai:     ai,
	}
}

// newWriteFailingTestApp routes every storage write through a failing store
// while keeping reads (and the backing Memory) intact for assertions.
func newWriteFailingTestApp(t *testing.T) *testApp {
	t.Helper()

	mem := seededMemory()
	ai := &countingInvoker{}
	app := New(newTestConfig(), brokenWriteStore{mem}, ai)
	return &testApp{
		app:    app,
		router: app.Router(),
		store:  mem,
		ai:     ai,
	}
}

func seededMemory() *store.Memory {
	mem := store.NewMemory()
	prior := 120
	mood := "Neutral"
	mem.AddUser(store.UserProfile{
		UserID:              "1001",
		FirstName:           "Maria",
		LastName:            "Santos",
		City:                "Lisbon",
		DietaryPreference:   "vegetarian",
		MedicalConditions:   "Type 2 Diabetes",
		PhysicalLimitations: "None",
		LatestCGM:           &prior,
		Mood:                &mood,
	})
	return mem
}

func performRequest(
	t *testing.T,
	router http.Handler,
	method, targetPath, token string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, targetPath, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func runAgentRequest(t *testing.T, ta *testApp, userID, intentLabel, message string) *httptest.ResponseRecorder {
	t.Helper()
	return performRequest(t, ta.router, http.MethodPost, "/api/run_agent", "", map[string]string{
		"user_id": userID,
		"intent":  intentLabel,
		"message": message,
	})
}

func decodeJSONMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response JSON: %v; body=%s", err, rec.Body.String())
	}
	return payload
}

func agentResponseText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeJSONMap(t, rec)
	text, _ := body["agent_response"].(string)
	return text
}

func userLogs(t *testing.T, ta *testApp, userID string, logType store.LogType) []store.LogEntry {
	t.Helper()
	entries, err := ta.store.ListLogs(context.Background(), userID, logType, 0)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	return entries
}
