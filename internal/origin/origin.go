package origin

import (
	"context"
	"errors"

	"github.com/grepr-agent/internal/models"
)

// ErrRateLimited signals that the origin is throttling us. Callers abandon
// the current pass instead of hammering the endpoint; it is the only origin
// error worth distinguishing.
var ErrRateLimited = errors.New("origin rate limited")

// Query describes one retrieval request against a content origin
type Query struct {
	Subreddit  string
	Window     models.Window
	Sort       models.SortMode
	ScoreFloor int    // minimum popularity; origin drops anything below
	After      string // pagination token from the previous page, empty for the first
	Limit      int    // page size
}

// Page is one page of results plus the token for the next one
type Page struct {
	Posts []*models.Post
	// After is the pagination token for the next page; empty means the
	// origin has no further pages for this query
	After string
}

// ContentOrigin is the abstract contract the walker depends on. The three
// variants (public endpoint, authenticated API, historical archive) are
// interchangeable; selection happens at configuration time.
type ContentOrigin interface {
	// Name returns the variant name
	Name() string

	// ListPosts retrieves one page of posts matching the query
	ListPosts(ctx context.Context, q Query) (*Page, error)

	// TopReply retrieves the single highest-ranked reply for a post, or
	// nil when the post has none
	TopReply(ctx context.Context, subreddit, postID string) (*models.Reply, error)
}
