// Package oauth implements the content origin against reddit's
// authenticated API using script-app client credentials. Same listing wire
// shape as the public endpoints, higher rate allowance.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/origin"
	"github.com/grepr-agent/pkg/logger"
	"github.com/grepr-agent/pkg/ratelimit"
)

const (
	baseURL  = "https://oauth.reddit.com"
	tokenURL = "https://www.reddit.com/api/v1/access_token"
)

// Origin fetches posts via the authenticated API
type Origin struct {
	userAgent   string
	httpClient  *http.Client
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// New creates an authenticated origin. The token source refreshes itself;
// no token state is persisted.
func New(cfg config.OriginConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Origin {
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	// Base client with a timeout for both token and API requests
	base := &http.Client{Timeout: 30 * time.Second}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &Origin{
		userAgent:   cfg.UserAgent,
		httpClient:  creds.Client(ctx),
		rateLimiter: limiter,
		log:         log.WithOrigin("oauth", "reddit"),
	}
}

// Name returns the variant name
func (o *Origin) Name() string {
	return "oauth"
}

// ListPosts retrieves one page of posts for the query
func (o *Origin) ListPosts(ctx context.Context, q origin.Query) (*origin.Page, error) {
	endpoint := fmt.Sprintf("%s/r/%s/%s", baseURL, q.Subreddit, q.Sort)

	params := url.Values{}
	params.Set("t", q.Window.Filter)
	params.Set("limit", fmt.Sprintf("%d", min(q.Limit, 100)))
	params.Set("raw_json", "1")
	if q.After != "" {
		params.Set("after", q.After)
	}

	var listing origin.Listing
	if err := o.get(ctx, endpoint+"?"+params.Encode(), &listing); err != nil {
		return nil, err
	}

	posts, after := listing.Posts(q.Subreddit, q.ScoreFloor)
	return &origin.Page{Posts: posts, After: after}, nil
}

// TopReply retrieves the highest-ranked comment for a post
func (o *Origin) TopReply(ctx context.Context, subreddit, postID string) (*models.Reply, error) {
	endpoint := fmt.Sprintf("%s/r/%s/comments/%s", baseURL, subreddit, postID)

	params := url.Values{}
	params.Set("limit", "1")
	params.Set("sort", "top")
	params.Set("raw_json", "1")

	var listings []origin.Listing
	if err := o.get(ctx, endpoint+"?"+params.Encode(), &listings); err != nil {
		return nil, err
	}

	return origin.TopComment(listings), nil
}

func (o *Origin) get(ctx context.Context, rawURL string, out interface{}) error {
	if err := o.rateLimiter.Wait(ctx, ratelimit.LimiterReddit); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", o.userAgent)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("reddit throttled request: %w", origin.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reddit API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ensure Origin implements origin.ContentOrigin
var _ origin.ContentOrigin = (*Origin)(nil)
