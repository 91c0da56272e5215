package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const providerClient = "client"

// Client is the standard HTTP-based reasoning engine.
// Works with any OpenAI-compatible chat-completions API
// (OpenAI, Ollama, vLLM, Together, Groq, etc.).
type Client struct {
	baseURL string
	apiKey  string
	config  *Config
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new engine client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "engine.client"),
	}, nil
}

// NewSession creates a fresh dialogue context.
func (c *Client) NewSession(opts SessionOptions) Session {
	s := &clientSession{
		client: c,
		opts:   opts,
	}
	if opts.SystemPrompt != "" {
		s.messages = append(s.messages, apiMessage{Role: "system", Content: opts.SystemPrompt})
	}
	return s
}

// Health checks API connectivity.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/models", nil)
	if err != nil {
		return WrapError(providerClient, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return WrapError(providerClient, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "health check failed", Provider: providerClient}
	}
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// clientSession holds the accumulated message history for one dialogue.
// It is mutated only by SendMessage/SendToolResults and is not safe for
// concurrent use; the turn pipeline's single-flight guard ensures that.
type clientSession struct {
	client   *Client
	opts     SessionOptions
	messages []apiMessage
	pending  []ToolCall
}

// apiMessage mirrors the chat-completions wire format.
type apiMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type apiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// SendMessage submits user text within the existing context.
func (s *clientSession) SendMessage(ctx context.Context, text string) (*Reply, error) {
	s.messages = append(s.messages, apiMessage{Role: "user", Content: text})
	return s.complete(ctx)
}

// SendToolResults returns tool outputs in a single follow-up round.
func (s *clientSession) SendToolResults(ctx context.Context, results []ToolResult) (*Reply, error) {
	if len(s.pending) == 0 {
		return nil, ErrNoPendingToolCalls
	}
	for _, r := range results {
		s.messages = append(s.messages, apiMessage{
			Role:       "tool",
			Content:    r.Content,
			ToolCallID: r.CallID,
		})
	}
	s.pending = nil
	return s.complete(ctx)
}

// History returns the number of messages accumulated in the context.
func (s *clientSession) History() int {
	return len(s.messages)
}

// complete performs one chat-completions round and folds the assistant
// message back into the history.
func (s *clientSession) complete(ctx context.Context) (*Reply, error) {
	start := time.Now()

	payload := map[string]interface{}{
		"model":    s.client.config.Model,
		"messages": s.messages,
	}
	if temp := s.temperature(); temp > 0 {
		payload["temperature"] = temp
	}
	if max := s.maxTokens(); max > 0 {
		payload["max_tokens"] = max
	}
	if len(s.opts.Tools) > 0 {
		tools := make([]map[string]interface{}, len(s.opts.Tools))
		for i, t := range s.opts.Tools {
			tools[i] = map[string]interface{}{
				"type": "function",
				"function": map[string]interface{}{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  t.Parameters,
				},
			}
		}
		payload["tools"] = tools
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerClient, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.client.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerClient, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+s.client.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.http.Do(req)
	if err != nil {
		return nil, WrapError(providerClient, fmt.Errorf("completion request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.parseError(resp)
	}

	var result struct {
		Choices []struct {
			Message      apiMessage `json:"message"`
			FinishReason string     `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerClient, fmt.Errorf("decode response: %w", err))
	}
	if len(result.Choices) == 0 {
		return nil, WrapError(providerClient, fmt.Errorf("no choices returned"))
	}

	msg := result.Choices[0].Message
	s.messages = append(s.messages, msg)

	calls := make([]ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		calls = append(calls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	s.pending = calls

	latency := time.Since(start).Milliseconds()

	s.client.logger.Debug("completion round",
		"history", len(s.messages),
		"tool_calls", len(calls),
		"latency_ms", latency,
	)

	return &Reply{
		Text:      msg.Content,
		ToolCalls: calls,
		LatencyMs: latency,
	}, nil
}

func (s *clientSession) temperature() float64 {
	if s.opts.Temperature > 0 {
		return s.opts.Temperature
	}
	return s.client.config.Temperature
}

func (s *clientSession) maxTokens() int {
	if s.opts.MaxTokens > 0 {
		return s.opts.MaxTokens
	}
	return s.client.config.MaxTokens
}

func (s *clientSession) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	var apiResp struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	msg := string(body)
	code := ""
	if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Error.Message != "" {
		msg = apiResp.Error.Message
		code = apiResp.Error.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Code:       code,
		Provider:   providerClient,
	}
}

// Verify Client implements Engine at compile time.
var _ Engine = (*Client)(nil)
