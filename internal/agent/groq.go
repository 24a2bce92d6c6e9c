package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"healthmate/backend/internal/config"
)

// GroqClient speaks Groq's OpenAI-compatible chat-completions API.
type GroqClient struct {
	apiKey          string
	baseURL         string
	model           string
	maxOutputTokens int
	httpClient      *http.Client
}

func NewGroqClient(cfg config.Config) *GroqClient {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	return &GroqClient{
		apiKey:          strings.TrimSpace(cfg.GroqAPIKey),
		baseURL:         strings.TrimRight(strings.TrimSpace(cfg.GroqBaseURL), "/"),
		model:           strings.TrimSpace(cfg.GroqModel),
		maxOutputTokens: cfg.AIMaxOutputTokens,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *GroqClient) Invoke(ctx context.Context, role Role, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("GROQ_API_KEY is not configured")
	}
	if c.baseURL == "" {
		return "", errors.New("GROQ_BASE_URL is not configured")
	}
	if c.model == "" {
		return "", errors.New("GROQ_MODEL is not configured")
	}
	userPrompt := strings.TrimSpace(prompt)
	if userPrompt == "" {
		return "", errors.New("agent prompt is empty")
	}

	messages := make([]chatMessage, 0, 2)
	if instructions := strings.TrimSpace(Instructions(role)); instructions != "" {
		messages = append(messages, chatMessage{Role: "system", Content: instructions})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	payload := map[string]any{
		"model":    c.model,
		"messages": messages,
	}
	if c.maxOutputTokens > 0 {
		payload["max_tokens"] = c.maxOutputTokens
	}
	bodyRaw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(bodyRaw),
	)
	if err != nil {
		return "", err
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return "", err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", fmt.Errorf(
			"groq chat completion error (%d): %s",
			response.StatusCode,
			strings.TrimSpace(string(responseBody)),
		)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return "", fmt.Errorf("decode groq response: %w", err)
	}
	if parsed.Error != nil && strings.TrimSpace(parsed.Error.Message) != "" {
		return "", fmt.Errorf("groq chat completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("groq response has no choices")
	}
	answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if answer == "" {
		return "", errors.New("groq response answer is empty")
	}
	return answer, nil
}
