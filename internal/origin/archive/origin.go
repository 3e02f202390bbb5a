// Package archive implements the content origin against a
// Pushshift-compatible historical search API. Useful for backfilling windows
// the live endpoints no longer serve.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/origin"
	"github.com/grepr-agent/pkg/logger"
	"github.com/grepr-agent/pkg/ratelimit"
)

// windowSpans maps window filters onto archive time spans
var windowSpans = map[string]time.Duration{
	"day":   24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

// submission is the archive's post record shape
type submission struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Body        string  `json:"body"` // comment search only
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	UpvoteRatio float64 `json:"upvote_ratio"`
}

type searchResponse struct {
	Data []submission `json:"data"`
}

// Origin fetches posts from a historical archive search API
type Origin struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
	now         func() time.Time
}

// New creates an archive origin
func New(cfg config.OriginConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Origin {
	return &Origin{
		baseURL:   cfg.ArchiveBaseURL,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // archive queries are slow
		},
		rateLimiter: limiter,
		log:         log.WithOrigin("archive", "reddit"),
		now:         time.Now,
	}
}

// Name returns the variant name
func (o *Origin) Name() string {
	return "archive"
}

// ListPosts retrieves one page of posts. The archive paginates by walking
// created_utc downward; the query's After token carries the cursor.
func (o *Origin) ListPosts(ctx context.Context, q origin.Query) (*origin.Page, error) {
	span, ok := windowSpans[q.Window.Filter]
	if !ok {
		return nil, fmt.Errorf("archive origin: unknown window %q", q.Window.Filter)
	}

	params := url.Values{}
	params.Set("subreddit", q.Subreddit)
	params.Set("sort", "desc")
	params.Set("sort_type", "created_utc")
	params.Set("size", strconv.Itoa(q.Limit))
	params.Set("after", strconv.FormatInt(o.now().Add(-span).Unix(), 10))
	if q.ScoreFloor > 0 {
		params.Set("score", fmt.Sprintf(">%d", q.ScoreFloor-1))
	}
	if q.After != "" {
		params.Set("before", q.After)
	}

	endpoint := o.baseURL + "/reddit/search/submission/?" + params.Encode()

	var result searchResponse
	if err := o.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	posts := make([]*models.Post, 0, len(result.Data))
	for _, sub := range result.Data {
		if sub.Score < q.ScoreFloor {
			continue
		}
		posts = append(posts, sub.toPost(q.Subreddit))
	}

	// Cursor for the next page: the oldest timestamp seen. A short page
	// means the archive ran out for this span.
	after := ""
	if len(result.Data) == q.Limit {
		oldest := result.Data[len(result.Data)-1].CreatedUTC
		after = strconv.FormatInt(int64(oldest), 10)
	}

	o.log.Debug().
		Str("subreddit", q.Subreddit).
		Str("window", q.Window.Filter).
		Int("posts", len(posts)).
		Msg("Fetched archive page")

	return &origin.Page{Posts: posts, After: after}, nil
}

// TopReply retrieves the highest-scored archived comment for a post
func (o *Origin) TopReply(ctx context.Context, subreddit, postID string) (*models.Reply, error) {
	params := url.Values{}
	params.Set("link_id", "t3_"+postID)
	params.Set("sort", "desc")
	params.Set("sort_type", "score")
	params.Set("size", "1")

	endpoint := o.baseURL + "/reddit/search/comment/?" + params.Encode()

	var result searchResponse
	if err := o.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, nil
	}

	top := result.Data[0]
	return &models.Reply{
		ID:     top.ID,
		Body:   models.Truncate(top.Body, models.MaxReplyLen),
		Score:  top.Score,
		Author: top.Author,
	}, nil
}

func (o *Origin) get(ctx context.Context, rawURL string, out interface{}) error {
	if err := o.rateLimiter.Wait(ctx, ratelimit.LimiterArchive); err != nil {
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
		return fmt.Errorf("archive throttled request: %w", origin.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("archive API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s submission) toPost(subreddit string) *models.Post {
	created := int64(s.CreatedUTC)
	return &models.Post{
		ID:          s.ID,
		Subreddit:   subreddit,
		Title:       s.Title,
		SelfText:    models.Truncate(s.SelfText, models.MaxSelfTextLen),
		Score:       s.Score,
		NumComments: s.NumComments,
		CreatedUTC:  created,
		CreatedAt:   models.FormatCreatedAt(created),
		Author:      s.Author,
		URL:         fmt.Sprintf("https://reddit.com%s", s.Permalink),
		UpvoteRatio: s.UpvoteRatio,
	}
}

// Ensure Origin implements origin.ContentOrigin
var _ origin.ContentOrigin = (*Origin)(nil)
