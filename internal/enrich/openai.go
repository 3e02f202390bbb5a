package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/pkg/logger"
	"github.com/grepr-agent/pkg/ratelimit"
)

// OpenAIClassifier classifies posts through any OpenAI-compatible chat
// endpoint. Groq and DeepSeek both speak this protocol; the base URL decides
// which one answers.
type OpenAIClassifier struct {
	client      *openai.Client
	provider    string
	model       string
	maxTokens   int
	temperature float32
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewOpenAIClassifier creates a classifier against an OpenAI-compatible API
func NewOpenAIClassifier(cfg config.AIConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *OpenAIClassifier {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClassifier{
		client:      openai.NewClientWithConfig(clientCfg),
		provider:    cfg.Provider,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		rateLimiter: limiter,
		log:         log.WithComponent("classifier"),
	}
}

// Name returns the provider name
func (c *OpenAIClassifier) Name() string {
	return c.provider
}

// Classify categorizes and summarizes one post
func (c *OpenAIClassifier) Classify(ctx context.Context, post *models.Post) (*Classification, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterAI); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	c.log.Debug().
		Str("provider", c.provider).
		Str("model", c.model).
		Str("post_id", post.ID).
		Msg("Sending classification request")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: ClassifierSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: ClassifierUserPrompt(post),
			},
		},
	})
	if err != nil {
		var apierr *openai.APIError
		if errors.As(err, &apierr) && apierr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%s throttled request: %w", c.provider, ErrRateLimited)
		}
		return nil, fmt.Errorf("%s API error: %w", c.provider, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", c.provider)
	}

	return parseClassification(resp.Choices[0].Message.Content)
}

// Ensure OpenAIClassifier implements Classifier
var _ Classifier = (*OpenAIClassifier)(nil)
