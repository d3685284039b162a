package question

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tranvk/fanarena/internal/domain"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "openrouter/auto"
	defaultTimeout = 30 * time.Second
)

type GeneratorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration

	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

// Generator calls an OpenAI-compatible chat-completions endpoint to produce
// trivia questions and chat replies. Callers must treat every error as
// recoverable and fall back to the static pool; the generator never holds
// any store-level state.
type Generator struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

func NewGenerator(c GeneratorConfig) *Generator {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}

	return &Generator{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		apiKey:  c.APIKey,
		model:   c.Model,
		httpc:   c.HTTPClient,
	}
}

// Generated is the fixed shape the content generator returns.
type Generated struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateQuestions asks the model for count questions about team at the
// given level.
func (g *Generator) GenerateQuestions(ctx context.Context, team string, level domain.Level, count int) ([]Generated, error) {
	prompt := fmt.Sprintf(`Generate %d sports trivia questions exclusively about %s.
Difficulty: %s.
Return ONLY a valid JSON object, no markdown:
{"questions":[{"question":"...","options":["...","...","...","..."],"correct_answer":"...","explanation":"..."}]}
The correct_answer must be one of the options. All questions must be about %s only.`,
		count, team, level, team)

	content, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Questions []Generated `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("question: parse generated content: %w", err)
	}

	if len(parsed.Questions) == 0 {
		return nil, fmt.Errorf("question: generator returned no questions")
	}

	for _, q := range parsed.Questions {
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("question: generated question has %d options, want 4", len(q.Options))
		}
	}

	return parsed.Questions, nil
}

// Complete returns a free-text completion for a conversational prompt.
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	return g.complete(ctx, prompt)
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("question: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("question: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("question: call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("question: generator status %d: %s", resp.StatusCode, b)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("question: decode response: %w", err)
	}

	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("question: generator returned no choices")
	}

	return cr.Choices[0].Message.Content, nil
}
