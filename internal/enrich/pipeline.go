// Package enrich adds AI classification and deterministic financial facts
// to harvested posts
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/extract"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/pkg/logger"
	"github.com/grepr-agent/pkg/ratelimit"
)

// NewClassifier selects the provider from configuration. Returns nil when no
// provider is configured; the pipeline then degrades to extraction only.
func NewClassifier(cfg config.AIConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) (Classifier, error) {
	if cfg.APIKey == "" {
		log.Warn().Msg("AI provider not configured, posts will not be classified")
		return nil, nil
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClassifier(cfg, limiter, log), nil
	case "groq", "deepseek", "openai":
		return NewOpenAIClassifier(cfg, limiter, log), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// Pipeline enriches posts one at a time. Classification is retried on
// throttling only; the financial extractor runs regardless of how the AI
// call went, so numeric facts survive a degraded provider.
type Pipeline struct {
	classifier Classifier
	maxRetries int
	base       time.Duration
	sleep      func(time.Duration)
	log        *logger.Logger
}

// NewPipeline creates an enrichment pipeline. classifier may be nil.
func NewPipeline(classifier Classifier, cfg config.AIConfig, log *logger.Logger) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		maxRetries: cfg.MaxRetries,
		base:       cfg.BackoffBase,
		sleep:      time.Sleep,
		log:        log.WithComponent("enrich"),
	}
}

// Enrich classifies the post and extracts its financial facts, mutating it
// in place. The post is always left in a usable state: on any classification
// failure it carries the default category, and extraction runs either way.
// The returned error is informational, for run accounting.
func (p *Pipeline) Enrich(ctx context.Context, post *models.Post) error {
	defer func() {
		post.Extracted = extract.Financial(post.FullText())
	}()

	post.Category = DefaultCategory

	if p.classifier == nil {
		return nil
	}

	result, err := p.classify(ctx, post)
	if err != nil {
		p.log.Error().Err(err).Str("post_id", post.ID).Msg("Classification failed")
		return err
	}

	if ValidCategory(result.Category) {
		post.Category = result.Category
	} else {
		p.log.Warn().
			Str("post_id", post.ID).
			Str("category", result.Category).
			Msg("Classifier returned unknown category")
	}
	post.Tags = result.Tags
	post.Summary = result.Summary
	post.Consensus = result.Consensus
	post.KeyAdvice = result.KeyAdvice

	return nil
}

// classify calls the provider, retrying only on its throttling signal. The
// wait grows multiplicatively per attempt and resets for the next post.
func (p *Pipeline) classify(ctx context.Context, post *models.Post) (*Classification, error) {
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		result, err := p.classifier.Classify(ctx, post)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			// Waiting on a malformed response or auth failure would
			// stall the whole run
			return nil, err
		}
		lastErr = err

		if attempt < p.maxRetries-1 {
			delay := p.base * pow3(attempt)
			p.log.Warn().
				Str("post_id", post.ID).
				Dur("delay", delay).
				Int("attempt", attempt+1).
				Msg("Provider throttled, backing off")
			p.sleep(delay)
		}
	}
	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

func pow3(n int) time.Duration {
	d := time.Duration(1)
	for i := 0; i < n; i++ {
		d *= 3
	}
	return d
}
