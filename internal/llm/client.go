package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.deepseek.com"
	DefaultModel   = "deepseek-chat"
	DefaultTimeout = 60 * time.Second

	systemPrompt = "You are a helpful assistant"
)

var (
	ErrMissingAPIKey = errors.New("completion service api key is not configured")
	ErrEmptyReply    = errors.New("completion service returned no choices")
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client asks an OpenAI-compatible chat completion endpoint to structure question text.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a client from cfg. Credentials come from configuration only, a missing
// key is a construction error.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Structure sends one question block and returns the reply text verbatim.
// Any transport or API failure is returned as an error for the caller to skip the block.
func (c *Client) Structure(ctx context.Context, block string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(block)},
		},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	reply := resp.Choices[0].Message.Content
	c.logger.Debug("Completion reply", "model", c.model, "reply", reply)
	return reply, nil
}
