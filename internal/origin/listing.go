package origin

import (
	"fmt"

	"github.com/grepr-agent/internal/models"
)

// Listing is the wire shape shared by reddit's public and authenticated
// listing endpoints
type Listing struct {
	Data struct {
		After    string      `json:"after"`
		Children []ThingWrap `json:"children"`
	} `json:"data"`
}

// ThingWrap wraps one "thing" (t3 = post, t1 = comment)
type ThingWrap struct {
	Kind string `json:"kind"`
	Data Thing  `json:"data"`
}

// Thing carries the fields we keep from both posts and comments
type Thing struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Body        string  `json:"body"` // comments only
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	UpvoteRatio float64 `json:"upvote_ratio"`
}

// Posts converts a listing page into domain posts, applying the score floor
// and the text caps. The pagination token is returned alongside.
func (l *Listing) Posts(subreddit string, scoreFloor int) ([]*models.Post, string) {
	posts := make([]*models.Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Data.Score < scoreFloor {
			continue
		}
		posts = append(posts, child.Data.toPost(subreddit))
	}
	return posts, l.Data.After
}

// TopComment extracts the highest-ranked comment from a comments response,
// which reddit returns as a two-element array of listings (post, comments)
func TopComment(listings []Listing) *models.Reply {
	if len(listings) < 2 {
		return nil
	}
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		return &models.Reply{
			ID:     child.Data.ID,
			Body:   models.Truncate(child.Data.Body, models.MaxReplyLen),
			Score:  child.Data.Score,
			Author: child.Data.Author,
		}
	}
	return nil
}

func (t Thing) toPost(subreddit string) *models.Post {
	created := int64(t.CreatedUTC)
	return &models.Post{
		ID:          t.ID,
		Subreddit:   subreddit,
		Title:       t.Title,
		SelfText:    models.Truncate(t.SelfText, models.MaxSelfTextLen),
		Score:       t.Score,
		NumComments: t.NumComments,
		CreatedUTC:  created,
		CreatedAt:   models.FormatCreatedAt(created),
		Author:      t.Author,
		URL:         fmt.Sprintf("https://reddit.com%s", t.Permalink),
		UpvoteRatio: t.UpvoteRatio,
	}
}
