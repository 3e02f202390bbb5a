package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/grepr-agent/internal/models"
)

// ErrRateLimited signals that the AI provider is throttling us. It is the
// only classifier error worth retrying; everything else fails the call
// immediately.
var ErrRateLimited = errors.New("classifier rate limited")

// Classification is the model's structured verdict on one post
type Classification struct {
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Summary   string   `json:"summary"`
	Consensus string   `json:"consensus"`
	KeyAdvice string   `json:"key_advice"`
}

// Classifier is the AI provider contract. Implementations wrap a vendor SDK
// and translate its throttling signal into ErrRateLimited.
type Classifier interface {
	// Name returns the provider name for logging
	Name() string

	// Classify categorizes and summarizes one post
	Classify(ctx context.Context, post *models.Post) (*Classification, error)
}

// parseClassification decodes the model's JSON reply, tolerating markdown
// code fences around it
func parseClassification(raw string) (*Classification, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		parts := strings.SplitN(text, "```", 3)
		if len(parts) >= 2 {
			text = parts[1]
		}
		text = strings.TrimPrefix(text, "json")
		text = strings.TrimSpace(text)
	}

	var c Classification
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return nil, fmt.Errorf("failed to parse classifier response: %w", err)
	}
	return &c, nil
}
