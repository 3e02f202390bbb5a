package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/pkg/logger"
	"github.com/grepr-agent/pkg/ratelimit"
)

// AnthropicClassifier classifies posts with the Anthropic SDK
type AnthropicClassifier struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float32
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewAnthropicClassifier creates an Anthropic-backed classifier
func NewAnthropicClassifier(cfg config.AIConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *AnthropicClassifier {
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)

	return &AnthropicClassifier{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		rateLimiter: limiter,
		log:         log.WithComponent("classifier"),
	}
}

// Name returns the provider name
func (c *AnthropicClassifier) Name() string {
	return "anthropic"
}

// Classify categorizes and summarizes one post
func (c *AnthropicClassifier) Classify(ctx context.Context, post *models.Post) (*Classification, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterAI); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	c.log.Debug().
		Str("model", c.model).
		Str("post_id", post.ID).
		Msg("Sending classification request")

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(c.maxTokens),
		Temperature: anthropic.Float(float64(c.temperature)),
		System: []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: ClassifierSystemPrompt,
			},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(ClassifierUserPrompt(post)),
				},
			},
		},
	})
	if err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("anthropic throttled request: %w", ErrRateLimited)
		}
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var response string
	for _, block := range message.Content {
		textBlock := block.AsText()
		if textBlock.Text != "" {
			response += textBlock.Text
		}
	}

	return parseClassification(response)
}

// Ensure AnthropicClassifier implements Classifier
var _ Classifier = (*AnthropicClassifier)(nil)
