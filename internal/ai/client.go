package ai

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

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	// ErrRateLimited шлюз ответил 429
	ErrRateLimited = errors.New("ai gateway rate limit exceeded")
	// ErrQuotaExhausted шлюз ответил 402
	ErrQuotaExhausted = errors.New("ai gateway credits exhausted")
	// ErrEmptyResponse в ответе нет ни одного choice
	ErrEmptyResponse = errors.New("ai gateway returned no choices")
	// ErrMalformedJSON ответ в JSON-режиме не разбирается как JSON
	ErrMalformedJSON = errors.New("parse ai json response")
)

var callDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "aula_ai_gateway_request_duration_seconds",
	Help:    "Duration of chat-completion calls to the AI gateway.",
	Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
}, []string{"mode", "outcome"})

// Collectors метрики пакета для регистрации в реестре
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{callDuration}
}

// StatusError не-2xx ответ шлюза, кроме 429 и 402
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai gateway returned status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client клиент OpenAI-совместимого chat-completion шлюза
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateText возвращает свободный текст ответа модели
func (c *Client) GenerateText(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, "text", system, user, nil)
}

// GenerateJSON просит JSON-объект и декодирует его в out.
// Схема не проверяется: некорректный JSON возвращается ошибкой как есть
func (c *Client) GenerateJSON(ctx context.Context, system, user string, out any) error {
	content, err := c.complete(ctx, "json", system, user, &responseFormat{Type: "json_object"})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(ExtractJSONObject(content)), out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, mode, system, user string, format *responseFormat) (string, error) {
	started := time.Now()
	content, err := c.do(ctx, system, user, format)

	outcome := "ok"
	switch {
	case errors.Is(err, ErrRateLimited):
		outcome = "rate_limited"
	case errors.Is(err, ErrQuotaExhausted):
		outcome = "quota_exhausted"
	case err != nil:
		outcome = "error"
	}
	callDuration.WithLabelValues(mode, outcome).Observe(time.Since(started).Seconds())

	if err != nil {
		c.logger.Error("AI gateway call failed",
			zap.String("mode", mode),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err))
		return "", err
	}

	c.logger.Info("AI gateway call completed",
		zap.String("mode", mode),
		zap.Duration("duration", time.Since(started)),
		zap.Int("response_length", len(content)))

	return content, nil
}

func (c *Client) do(ctx context.Context, system, user string, format *responseFormat) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ai gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ai gateway response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", ErrQuotaExhausted
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return parsed.Choices[0].Message.Content, nil
}

// ExtractJSONObject вырезает внешний {...} из ответа модели (например, обёрнутого в ```json)
func ExtractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return strings.TrimSpace(content)
	}
	return content[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
