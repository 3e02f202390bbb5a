package public

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/origin"
	"github.com/grepr-agent/pkg/logger"
	"github.com/grepr-agent/pkg/ratelimit"
)

const listingBody = `{
  "data": {
    "after": "t3_next",
    "children": [
      {"kind": "t3", "data": {"id": "p1", "title": "CW8 ou WPEA ?", "selftext": "Que choisir pour le PEA", "score": 45, "num_comments": 12, "created_utc": 1717233600.0, "permalink": "/r/vosfinances/comments/p1/cw8/", "author": "u1", "upvote_ratio": 0.95}},
      {"kind": "t3", "data": {"id": "p2", "title": "petit score", "score": 3, "created_utc": 1717233600.0, "permalink": "/r/vosfinances/comments/p2/x/", "author": "u2"}}
    ]
  }
}`

const commentsBody = `[
  {"data": {"children": [{"kind": "t3", "data": {"id": "p1"}}]}},
  {"data": {"children": [
    {"kind": "t1", "data": {"id": "c1", "body": "ETF World et tu oublies", "score": 99, "author": "u3"}}
  ]}}
]`

func newTestOrigin(baseURL string) *Origin {
	o := New(config.OriginConfig{UserAgent: "grepr-test"}, ratelimit.NewUnlimited(ratelimit.LimiterReddit), logger.Nop())
	// Point the origin at the test server by rewriting requests
	o.httpClient = &http.Client{Transport: rewriteHost{baseURL}}
	return o
}

// rewriteHost redirects every request to the test server
type rewriteHost struct {
	target string
}

func (r rewriteHost) RoundTrip(req *http.Request) (*http.Response, error) {
	rewritten := r.target + req.URL.Path + "?" + req.URL.RawQuery
	redirected, err := http.NewRequestWithContext(req.Context(), req.Method, rewritten, req.Body)
	if err != nil {
		return nil, err
	}
	redirected.Header = req.Header
	return http.DefaultTransport.RoundTrip(redirected)
}

func TestListPosts_ParsesListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/vosfinances/top/.json", r.URL.Path)
		assert.Equal(t, "grepr-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "week", r.URL.Query().Get("t"))
		fmt.Fprint(w, listingBody)
	}))
	defer server.Close()

	page, err := newTestOrigin(server.URL).ListPosts(context.Background(), origin.Query{
		Subreddit:  "vosfinances",
		Window:     models.Window{Filter: "week", Label: "Last week"},
		Sort:       models.SortTop,
		ScoreFloor: 10,
		Limit:      100,
	})

	require.NoError(t, err)
	assert.Equal(t, "t3_next", page.After)
	require.Len(t, page.Posts, 1, "posts below the score floor are dropped")

	post := page.Posts[0]
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, "vosfinances", post.Subreddit)
	assert.Equal(t, int64(1717233600), post.CreatedUTC)
	assert.Equal(t, "2024-06-01 09:20:00", post.CreatedAt)
	assert.Equal(t, "https://reddit.com/r/vosfinances/comments/p1/cw8/", post.URL)
	assert.Equal(t, 0.95, post.UpvoteRatio)
}

func TestListPosts_RateLimitSignal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestOrigin(server.URL).ListPosts(context.Background(), origin.Query{
		Subreddit: "vosfinances",
		Window:    models.Window{Filter: "day"},
		Sort:      models.SortTop,
		Limit:     100,
	})

	require.ErrorIs(t, err, origin.ErrRateLimited)
}

func TestTopReply_ParsesComment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/vosfinances/comments/p1/.json", r.URL.Path)
		fmt.Fprint(w, commentsBody)
	}))
	defer server.Close()

	reply, err := newTestOrigin(server.URL).TopReply(context.Background(), "vosfinances", "p1")

	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "c1", reply.ID)
	assert.Equal(t, 99, reply.Score)
	assert.Equal(t, "ETF World et tu oublies", reply.Body)
}

func TestTopReply_NoComments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"data": {"children": []}}, {"data": {"children": []}}]`)
	}))
	defer server.Close()

	reply, err := newTestOrigin(server.URL).TopReply(context.Background(), "vosfinances", "p1")

	require.NoError(t, err)
	assert.Nil(t, reply)
}
