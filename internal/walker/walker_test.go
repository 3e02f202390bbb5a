package walker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/origin"
	"github.com/grepr-agent/pkg/logger"
)

// fakeOrigin serves scripted pages and records the queries it saw
type fakeOrigin struct {
	pages    []*origin.Page
	queries  []origin.Query
	listErr  error
	replies  map[string]*models.Reply
	replyErr error
}

func (f *fakeOrigin) Name() string { return "fake" }

func (f *fakeOrigin) ListPosts(_ context.Context, q origin.Query) (*origin.Page, error) {
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	idx := len(f.queries) - 1
	if idx >= len(f.pages) {
		return &origin.Page{}, nil
	}
	return f.pages[idx], nil
}

func (f *fakeOrigin) TopReply(_ context.Context, _, postID string) (*models.Reply, error) {
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	return f.replies[postID], nil
}

func post(id string, comments int) *models.Post {
	return &models.Post{ID: id, Subreddit: "vosfinances", Title: "t-" + id, Score: 42, NumComments: comments}
}

func harvestConfig() config.HarvestConfig {
	return config.HarvestConfig{MinScore: 10, MinScoreNew: 2, WithReplies: true}
}

func TestWalk_CollectsAcrossPages(t *testing.T) {
	fake := &fakeOrigin{
		pages: []*origin.Page{
			{Posts: []*models.Post{post("a", 0), post("b", 0)}, After: "tok1"},
			{Posts: []*models.Post{post("c", 0)}, After: ""},
		},
	}
	w := New(fake, harvestConfig(), 100, logger.Nop())

	known := map[string]struct{}{}
	posts, _, err := w.Walk(context.Background(), "vosfinances", models.DefaultWindows()[0], models.SortTop, 500, known)

	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "tok1", fake.queries[1].After)
	assert.Contains(t, known, "a")
	assert.Contains(t, known, "c")
}

func TestWalk_BudgetStopsMidPage(t *testing.T) {
	fake := &fakeOrigin{
		pages: []*origin.Page{
			{Posts: []*models.Post{post("a", 0), post("b", 0), post("c", 0)}, After: "tok1"},
		},
	}
	w := New(fake, harvestConfig(), 100, logger.Nop())

	posts, _, err := w.Walk(context.Background(), "vosfinances", models.DefaultWindows()[0], models.SortTop, 2, map[string]struct{}{})

	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Len(t, fake.queries, 1, "budget reached, no further pages requested")
}

func TestWalk_SkipsKnownIDs(t *testing.T) {
	fake := &fakeOrigin{
		pages: []*origin.Page{
			{Posts: []*models.Post{post("a", 0), post("b", 0)}, After: ""},
		},
	}
	w := New(fake, harvestConfig(), 100, logger.Nop())

	known := map[string]struct{}{"a": {}}
	posts, skipped, err := w.Walk(context.Background(), "vosfinances", models.DefaultWindows()[0], models.SortTop, 500, known)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "b", posts[0].ID)
	assert.Equal(t, 1, skipped, "the known post counts as a duplicate skip")
}

func TestWalk_Idempotent(t *testing.T) {
	pages := func() []*origin.Page {
		return []*origin.Page{
			{Posts: []*models.Post{post("a", 0), post("b", 0)}, After: ""},
		}
	}
	known := map[string]struct{}{}
	window := models.DefaultWindows()[0]

	first := New(&fakeOrigin{pages: pages()}, harvestConfig(), 100, logger.Nop())
	posts, skipped, err := first.Walk(context.Background(), "vosfinances", window, models.SortTop, 500, known)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Zero(t, skipped)

	// Same content again: everything is known now
	second := New(&fakeOrigin{pages: pages()}, harvestConfig(), 100, logger.Nop())
	posts, skipped, err = second.Walk(context.Background(), "vosfinances", window, models.SortTop, 500, known)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, 2, skipped)
}

func TestWalk_ReplyFailureKeepsPost(t *testing.T) {
	fake := &fakeOrigin{
		pages: []*origin.Page{
			{Posts: []*models.Post{post("a", 3)}, After: ""},
		},
		replyErr: errors.New("comment endpoint down"),
	}
	w := New(fake, harvestConfig(), 100, logger.Nop())

	posts, _, err := w.Walk(context.Background(), "vosfinances", models.DefaultWindows()[0], models.SortTop, 500, map[string]struct{}{})

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].TopReply)
}

func TestWalk_AttachesTopReply(t *testing.T) {
	fake := &fakeOrigin{
		pages: []*origin.Page{
			{Posts: []*models.Post{post("a", 3), post("b", 0)}, After: ""},
		},
		replies: map[string]*models.Reply{
			"a": {ID: "r1", Body: "ETF world et tu oublies", Score: 99, Author: "u1"},
		},
	}
	w := New(fake, harvestConfig(), 100, logger.Nop())

	posts, _, err := w.Walk(context.Background(), "vosfinances", models.DefaultWindows()[0], models.SortTop, 500, map[string]struct{}{})

	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.NotNil(t, posts[0].TopReply)
	assert.Equal(t, 99, posts[0].TopReply.Score)
	assert.Nil(t, posts[1].TopReply, "no comments, no reply fetch")
}

func TestWalk_ScoreFloorPerSortMode(t *testing.T) {
	fake := &fakeOrigin{}
	w := New(fake, harvestConfig(), 100, logger.Nop())

	_, _, err := w.Walk(context.Background(), "vosfinances", models.DefaultWindows()[0], models.SortTop, 10, map[string]struct{}{})
	require.NoError(t, err)
	_, _, err = w.Walk(context.Background(), "vosfinances", models.DefaultWindows()[0], models.SortNew, 10, map[string]struct{}{})
	require.NoError(t, err)

	require.Len(t, fake.queries, 2)
	assert.Equal(t, 10, fake.queries[0].ScoreFloor)
	assert.Equal(t, 2, fake.queries[1].ScoreFloor)
}

func TestWalk_ReturnsPartialOnError(t *testing.T) {
	fake := &fakeOrigin{listErr: origin.ErrRateLimited}
	w := New(fake, harvestConfig(), 100, logger.Nop())

	posts, _, err := w.Walk(context.Background(), "vosfinances", models.DefaultWindows()[0], models.SortTop, 500, map[string]struct{}{})

	require.ErrorIs(t, err, origin.ErrRateLimited)
	assert.Empty(t, posts)
}
