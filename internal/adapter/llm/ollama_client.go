package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quizbot/internal/domain"
	"quizbot/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// OllamaClient implements domain.LLMClient against a local Ollama server.
type OllamaClient struct {
	llm         *ollama.LLM
	timeout     time.Duration
	temperature float64
}

// NewOllamaClient creates a client for the given server and model. timeout
// bounds each Invoke call; quiz generation over a large context can take a
// while, so it should be generous.
func NewOllamaClient(serverURL, model string, timeout time.Duration) (*OllamaClient, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
		ollama.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &OllamaClient{llm: client, timeout: timeout, temperature: 0.7}, nil
}

// Invoke sends one prompt and returns the completion text. Reasoning-model
// <think> blocks are stripped so downstream parsers only see the answer.
func (c *OllamaClient) Invoke(ctx context.Context, prompt string) (string, error) {
	l := logger.Get()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.llm.Call(callCtx, prompt, llms.WithTemperature(c.temperature))
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			l.Error("LLM request timed out", zap.Duration("timeout", c.timeout))
			return "", domain.NewLLMServiceError(fmt.Errorf("LLM request timed out: %w", err))
		}
		l.Error("Failed to get response from LLM", zap.Error(err))
		return "", domain.NewLLMServiceError(err)
	}

	return stripThinkTags(strings.TrimSpace(response)), nil
}

func stripThinkTags(s string) string {
	start := strings.Index(s, "<think>")
	if start == -1 {
		return s
	}
	end := strings.Index(s, "</think>")
	if end == -1 || end < start {
		return s
	}
	return strings.TrimSpace(s[:start] + s[end+len("</think>"):])
}

var _ domain.LLMClient = (*OllamaClient)(nil)
