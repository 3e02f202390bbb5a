// Package walker drains one time window of one source into new posts
package walker

import (
	"context"
	"errors"

	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/origin"
	"github.com/grepr-agent/pkg/logger"
)

// maxPages bounds a single walk against a misbehaving origin that keeps
// handing out pagination tokens
const maxPages = 50

// Walker paginates a content origin through one window, yielding posts that
// are not already known
type Walker struct {
	origin   origin.ContentOrigin
	harvest  config.HarvestConfig
	pageSize int
	log      *logger.Logger
}

// New creates a walker over the given origin
func New(o origin.ContentOrigin, harvest config.HarvestConfig, pageSize int, log *logger.Logger) *Walker {
	return &Walker{
		origin:   o,
		harvest:  harvest,
		pageSize: pageSize,
		log:      log.WithComponent("walker"),
	}
}

// Walk collects up to max new posts from the source within the window,
// returning them with the count of posts skipped as already known. Every
// yielded post is recorded in known, so a repeat walk with the same set
// yields nothing. Posts collected before an origin error are returned
// alongside it.
func (w *Walker) Walk(ctx context.Context, source string, window models.Window, sort models.SortMode, max int, known map[string]struct{}) ([]*models.Post, int, error) {
	if max <= 0 {
		return nil, 0, nil
	}

	floor := w.harvest.MinScore
	if sort == models.SortNew {
		// Fresh posts have not accumulated votes yet
		floor = w.harvest.MinScoreNew
	}

	log := w.log.WithSubreddit(source)

	var collected []*models.Post
	skipped := 0
	after := ""
	for page := 0; page < maxPages; page++ {
		result, err := w.origin.ListPosts(ctx, origin.Query{
			Subreddit:  source,
			Window:     window,
			Sort:       sort,
			ScoreFloor: floor,
			After:      after,
			Limit:      w.pageSize,
		})
		if err != nil {
			if errors.Is(err, origin.ErrRateLimited) {
				log.Warn().Str("window", window.Label).Msg("Origin throttled, abandoning window")
			}
			return collected, skipped, err
		}

		for _, post := range result.Posts {
			if _, seen := known[post.ID]; seen {
				skipped++
				continue
			}
			known[post.ID] = struct{}{}

			if w.harvest.WithReplies && post.NumComments > 0 {
				reply, err := w.origin.TopReply(ctx, source, post.ID)
				if err != nil {
					// The post still counts; only the reply is lost
					log.WithPostID(post.ID).Warn().Err(err).Msg("Failed to fetch top reply")
				} else {
					post.TopReply = reply
				}
			}

			collected = append(collected, post)
			if len(collected) >= max {
				return collected, skipped, nil
			}
		}

		if result.After == "" {
			break
		}
		after = result.After
	}

	log.Debug().
		Str("window", window.Label).
		Int("new_posts", len(collected)).
		Int("skipped_known", skipped).
		Msg("Window drained")

	return collected, skipped, nil
}
