package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInstructionsCoverAllRoles(t *testing.T) {
	roles := []Role{RoleGreeting, RoleMood, RoleGlucose, RoleFood, RolePlanner, RoleGeneral}
	for _, role := range roles {
		if strings.TrimSpace(Instructions(role)) == "" {
			t.Fatalf("expected instructions for role %q", role)
		}
	}
	if Instructions(Role("unknown")) != "" {
		t.Fatalf("expected empty instructions for unknown role")
	}
}

func TestGlucoseInstructionsCarryAlertRange(t *testing.T) {
	instructions := Instructions(RoleGlucose)
	if !strings.Contains(instructions, "80-300") {
		t.Fatalf("expected glucose alert range in instructions, got %q", instructions)
	}
}

func TestMockInvokerIsDeterministic(t *testing.T) {
	mock := MockInvoker{}
	first, err := mock.Invoke(context.Background(), RoleFood, "grilled cheese sandwich")
	if err != nil {
		t.Fatalf("mock invoke: %v", err)
	}
	second, _ := mock.Invoke(context.Background(), RoleFood, "grilled cheese sandwich")
	if first != second {
		t.Fatalf("expected deterministic output, got %q then %q", first, second)
	}
	if !strings.Contains(first, "grilled cheese sandwich") {
		t.Fatalf("expected food mock to echo the meal, got %q", first)
	}
}

func TestGroqClientSendsSystemInstructions(t *testing.T) {
	t.Parallel()

	var received struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model":"qwen/qwen3-32b",
			"choices":[{"message":{"role":"assistant","content":"Noted. Feeling happy today!"}}]
		}`))
	}))
	defer server.Close()

	client := &GroqClient{
		apiKey:          "test",
		baseURL:         server.URL,
		model:           "qwen/qwen3-32b",
		maxOutputTokens: 256,
		httpClient: &http.Client{
			Timeout: 2 * time.Second,
		},
	}

	answer, err := client.Invoke(context.Background(), RoleMood, "I feel happy")
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if answer != "Noted. Feeling happy today!" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if received.Model != "qwen/qwen3-32b" {
		t.Fatalf("unexpected model: %q", received.Model)
	}
	if len(received.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(received.Messages))
	}
	if received.Messages[0].Role != "system" || !strings.Contains(received.Messages[0].Content, "mood") {
		t.Fatalf("expected mood instructions as system message, got %+v", received.Messages[0])
	}
	if received.Messages[1].Role != "user" || received.Messages[1].Content != "I feel happy" {
		t.Fatalf("expected user prompt last, got %+v", received.Messages[1])
	}
}

func TestGroqClientSurfacesUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
	}))
	defer server.Close()

	client := &GroqClient{
		apiKey:     "test",
		baseURL:    server.URL,
		model:      "qwen/qwen3-32b",
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}

	_, err := client.Invoke(context.Background(), RoleGeneral, "hello")
	if err == nil {
		t.Fatalf("expected error on 429 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}

func TestGroqClientRejectsMissingConfig(t *testing.T) {
	client := &GroqClient{httpClient: &http.Client{}}
	if _, err := client.Invoke(context.Background(), RoleGeneral, "hello"); err == nil {
		t.Fatalf("expected error without api key")
	}
}
