// Package completion adapts OpenAI-compatible chat endpoints to
// companion.Completer.
package completion

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	companion "github.com/cyberFlowTech/companion-sdk-go"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"
)

const (
	DefaultModel   = "gpt-4.1-mini"
	DefaultTimeout = 30 * time.Second
	maxReplyTokens = 256
)

// Config configures an OpenAI-compatible client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64 // 0 = server default
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// OpenAI generates replies from the persona system prompt and the user input.
type OpenAI struct {
	client openai.Client
	model  string
	temp   float64
	logger *log.Logger
}

var _ companion.Completer = (*OpenAI)(nil)

// NewOpenAI creates a completer. BaseURL is required.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("completion base url is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		temp:   cfg.Temperature,
		logger: cfg.Logger,
	}, nil
}

// Complete returns the model's reply. Every failure wraps
// companion.ErrCompletionUnavailable so the session falls back to templates.
func (o *OpenAI) Complete(ctx context.Context, pc companion.PromptContext) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(pc.SystemPrompt()),
			openai.UserMessage(pc.Input),
		},
		MaxCompletionTokens: openai.Int(maxReplyTokens),
	}
	if o.temp > 0 {
		params.Temperature = openai.Float(o.temp)
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.logger.Warn("Completion request failed", "model", o.model, "err", err)
		return "", errors.Wrapf(companion.ErrCompletionUnavailable, "chat completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrap(companion.ErrCompletionUnavailable, "chat completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	o.logger.Debug("Completion received",
		"model", o.model,
		"persona", pc.PersonaID,
		"chars", len(text),
		"elapsed", time.Since(start),
	)
	return text, nil
}
