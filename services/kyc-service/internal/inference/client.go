package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Request is one chat-completion call to the inference provider.
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Response is the provider's reply.
type Response struct {
	Content    string
	TokensUsed int
}

// Provider abstracts the external natural-language inference service.
// Implementations must return an error rather than panic on any provider
// failure; callers own the fallback behavior.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// UsageStats is a snapshot of the daily usage counters.
type UsageStats struct {
	DailyTokenUsage int    `json:"dailyTokenUsage"`
	DailyTokenLimit int    `json:"dailyTokenLimit"`
	RequestsToday   int    `json:"requestsToday"`
	TokensRemaining int    `json:"tokensRemaining"`
	LastResetDate   string `json:"lastResetDate"`
}

// Config holds the client settings, bound from viper in the app layer.
type Config struct {
	Endpoint        string
	APIKey          string
	DailyTokenLimit int
	Timeout         time.Duration
}

// GroqClient talks to an OpenAI-compatible chat-completions endpoint.
// It is constructed once per process and shared by all workflow runs;
// the usage counters are guarded for concurrent access.
type GroqClient struct {
	endpoint string
	apiKey   string
	http     *http.Client

	mu          sync.Mutex
	dailyTokens int
	requests    int
	dailyLimit  int
	resetDate   string
}

var _ Provider = (*GroqClient)(nil)

// NewGroqClient builds a client from configuration.
func NewGroqClient(cfg Config) *GroqClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.groq.com/openai/v1/chat/completions"
	}
	return &GroqClient{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		dailyLimit: cfg.DailyTokenLimit,
		resetDate:  time.Now().Format("2006-01-02"),
		http:       &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete posts the prompt pair and returns the raw completion content.
func (c *GroqClient) Complete(ctx context.Context, req Request) (Response, error) {
	if c == nil || c.apiKey == "" {
		return Response{}, fmt.Errorf("inference client missing API credential")
	}
	if err := c.reserveRequest(); err != nil {
		return Response{}, err
	}

	payload := chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		payload.ResponseFormat = map[string]any{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal completion payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("inference call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Response{}, fmt.Errorf("inference error %s: %s", resp.Status, strings.TrimSpace(string(excerpt)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Response{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Response{}, fmt.Errorf("completion contained no choices")
	}

	c.recordUsage(decoded.Usage.TotalTokens)

	return Response{
		Content:    decoded.Choices[0].Message.Content,
		TokensUsed: decoded.Usage.TotalTokens,
	}, nil
}

// reserveRequest enforces the daily token budget and counts the request.
func (c *GroqClient) reserveRequest() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDateLocked()
	if c.dailyLimit > 0 && c.dailyTokens >= c.dailyLimit {
		return fmt.Errorf("daily token limit (%d) exceeded", c.dailyLimit)
	}
	c.requests++
	return nil
}

func (c *GroqClient) recordUsage(tokens int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDateLocked()
	c.dailyTokens += tokens
}

// rollDateLocked resets counters when the date changes. Callers hold mu.
func (c *GroqClient) rollDateLocked() {
	today := time.Now().Format("2006-01-02")
	if today != c.resetDate {
		c.dailyTokens = 0
		c.requests = 0
		c.resetDate = today
	}
}

// Usage returns a consistent snapshot of the daily counters.
func (c *GroqClient) Usage() UsageStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollDateLocked()
	remaining := 0
	if c.dailyLimit > 0 {
		remaining = c.dailyLimit - c.dailyTokens
		if remaining < 0 {
			remaining = 0
		}
	}
	return UsageStats{
		DailyTokenUsage: c.dailyTokens,
		DailyTokenLimit: c.dailyLimit,
		RequestsToday:   c.requests,
		TokensRemaining: remaining,
		LastResetDate:   c.resetDate,
	}
}
