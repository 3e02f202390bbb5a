package harvest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepr-agent/internal/checkpoint"
	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/enrich"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/origin"
	"github.com/grepr-agent/internal/walker"
	"github.com/grepr-agent/pkg/logger"
)

// fakeOrigin serves scripted posts per window filter; with unlimited set it
// manufactures fresh posts forever
type fakeOrigin struct {
	byWindow  map[string][]*models.Post
	unlimited bool
	counter   int
}

func (f *fakeOrigin) Name() string { return "fake" }

func (f *fakeOrigin) ListPosts(_ context.Context, q origin.Query) (*origin.Page, error) {
	if f.unlimited {
		posts := make([]*models.Post, 0, q.Limit)
		for i := 0; i < q.Limit; i++ {
			f.counter++
			posts = append(posts, &models.Post{ID: fmt.Sprintf("gen-%d", f.counter), Subreddit: q.Subreddit, Score: 50})
		}
		return &origin.Page{Posts: posts, After: "more"}, nil
	}
	// One page per window, no pagination
	if q.After != "" {
		return &origin.Page{}, nil
	}
	return &origin.Page{Posts: f.byWindow[q.Window.Filter]}, nil
}

func (f *fakeOrigin) TopReply(context.Context, string, string) (*models.Reply, error) {
	return nil, nil
}

// memStore is an in-memory storage.Store
type memStore struct {
	known    map[string]struct{}
	appended []*models.Record
}

func newMemStore(ids ...string) *memStore {
	known := make(map[string]struct{})
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return &memStore{known: known}
}

func (m *memStore) Name() string { return "mem" }

func (m *memStore) KnownIDs(context.Context) map[string]struct{} {
	known := make(map[string]struct{}, len(m.known))
	for id := range m.known {
		known[id] = struct{}{}
	}
	return known
}

func (m *memStore) Append(_ context.Context, rec *models.Record) error {
	m.appended = append(m.appended, rec)
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestAgent(t *testing.T, o origin.ContentOrigin, store *memStore, budget int) (*Agent, *checkpoint.Store) {
	t.Helper()
	harvestCfg := config.HarvestConfig{
		Subreddits:  []string{"vosfinances"},
		DailyBudget: budget,
		MinScore:    10,
		MinScoreNew: 2,
	}
	w := walker.New(o, harvestCfg, 100, logger.Nop())
	pipeline := enrich.NewPipeline(nil, config.AIConfig{MaxRetries: 1, BackoffBase: time.Millisecond}, logger.Nop())
	checkpoints := checkpoint.New(filepath.Join(t.TempDir(), "progress.json"), logger.Nop())

	return NewAgent(w, pipeline, store, checkpoints, harvestCfg, logger.Nop()), checkpoints
}

func post(id string) *models.Post {
	return &models.Post{ID: id, Subreddit: "vosfinances", Title: "t-" + id, Score: 50}
}

func TestRun_BudgetEnforcement(t *testing.T) {
	store := newMemStore()
	agent, checkpoints := newTestAgent(t, &fakeOrigin{unlimited: true}, store, 7)

	summary, err := agent.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 7, summary.NewPosts, "exactly the budget, not more")
	assert.Equal(t, 7, summary.Pushed)
	assert.Len(t, store.appended, 7)

	// Budget exhaustion is not window exhaustion
	cp, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cp.Progress("vosfinances").WindowIndex)
	assert.Equal(t, 7, cp.TotalFetched)
}

func TestRun_AdvancesOnEmptyWindows(t *testing.T) {
	// Nothing anywhere: every window drains immediately
	store := newMemStore()
	agent, checkpoints := newTestAgent(t, &fakeOrigin{}, store, 500)

	summary, err := agent.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Zero(t, summary.NewPosts)

	cp, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, len(models.DefaultWindows()), cp.Progress("vosfinances").WindowIndex)
	assert.True(t, cp.Backfilled("vosfinances", len(models.DefaultWindows())))
}

func TestRun_DrainsOlderWindowsAfterFreshOnes(t *testing.T) {
	o := &fakeOrigin{byWindow: map[string][]*models.Post{
		"day":  {post("d1")},
		"year": {post("y1"), post("y2")},
	}}
	store := newMemStore()
	agent, checkpoints := newTestAgent(t, o, store, 500)

	summary, err := agent.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.NewPosts)
	assert.Equal(t, 3, summary.PerSource["vosfinances"])

	cp, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Equal(t, len(models.DefaultWindows()), cp.Progress("vosfinances").WindowIndex)
}

func TestRun_ReentrancyGuard(t *testing.T) {
	store := newMemStore()
	agent, checkpoints := newTestAgent(t, &fakeOrigin{unlimited: true}, store, 5)

	cp := models.NewCheckpoint([]string{"vosfinances"})
	cp.LastRun = models.RunDate(time.Now())
	require.NoError(t, checkpoints.Save(cp))

	summary, err := agent.Run(context.Background(), false)

	require.NoError(t, err)
	assert.True(t, summary.NoOp)
	assert.Zero(t, summary.NewPosts)
	assert.Empty(t, store.appended)
}

func TestRun_SecondRunSameDayIsNoOp(t *testing.T) {
	store := newMemStore()
	agent, _ := newTestAgent(t, &fakeOrigin{unlimited: true}, store, 3)

	first, err := agent.Run(context.Background(), false)
	require.NoError(t, err)
	require.False(t, first.NoOp)

	second, err := agent.Run(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, second.NoOp)
	assert.Len(t, store.appended, 3, "nothing added by the second run")
}

func TestRun_SkipsKnownPosts(t *testing.T) {
	o := &fakeOrigin{byWindow: map[string][]*models.Post{
		"day": {post("old"), post("new")},
	}}
	store := newMemStore("old")
	agent, _ := newTestAgent(t, o, store, 500)

	summary, err := agent.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewPosts)
	require.Len(t, store.appended, 1)
	assert.Equal(t, "new", store.appended[0].RedditID)
	// "old" is skipped once on the first pass; the confirming re-walk of the
	// day window then skips both before the window advances
	assert.Equal(t, 3, summary.Duplicate)
}

func TestRun_CrossWindowDuplicatePushedOnce(t *testing.T) {
	dup := post("dup")
	o := &fakeOrigin{byWindow: map[string][]*models.Post{
		"day":  {dup},
		"week": {post("dup")},
	}}
	store := newMemStore()
	agent, _ := newTestAgent(t, o, store, 500)

	summary, err := agent.Run(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewPosts)
	assert.Len(t, store.appended, 1)
	assert.Equal(t, 2, summary.Duplicate, "one skip per re-encounter, never a second push")
}

func TestRun_DryRun(t *testing.T) {
	store := newMemStore()
	agent, checkpoints := newTestAgent(t, &fakeOrigin{unlimited: true}, store, 3)

	summary, err := agent.Run(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.NewPosts)
	assert.Zero(t, summary.Pushed)
	assert.Empty(t, store.appended, "dry run never writes")

	cp, err := checkpoints.Load()
	require.NoError(t, err)
	assert.Empty(t, cp.LastRun, "dry run leaves the checkpoint untouched")
}

func TestRun_EnrichmentRunsExtractor(t *testing.T) {
	rich := post("rich")
	rich.SelfText = "J'ai atteint 100k€ de patrimoine"
	o := &fakeOrigin{byWindow: map[string][]*models.Post{"day": {rich}}}
	store := newMemStore()
	agent, _ := newTestAgent(t, o, store, 500)

	_, err := agent.Run(context.Background(), false)

	require.NoError(t, err)
	require.Len(t, store.appended, 1)
	rec := store.appended[0]
	assert.Equal(t, enrich.DefaultCategory, rec.Category, "no classifier configured")
	require.NotNil(t, rec.Patrimoine)
	assert.Equal(t, 100000, *rec.Patrimoine)
}

func TestRun_CheckpointMonotonicity(t *testing.T) {
	// Day one: everything drains. Day two (fresh agent, same checkpoint
	// path): windows stay drained, index never moves backward.
	o := &fakeOrigin{byWindow: map[string][]*models.Post{"week": {post("w1")}}}
	store := newMemStore()
	agent, checkpoints := newTestAgent(t, o, store, 500)

	_, err := agent.Run(context.Background(), false)
	require.NoError(t, err)

	cp, err := checkpoints.Load()
	require.NoError(t, err)
	firstIndex := cp.Progress("vosfinances").WindowIndex
	assert.Equal(t, len(models.DefaultWindows()), firstIndex)

	// Simulate the next day
	cp.LastRun = "2000-01-01"
	require.NoError(t, checkpoints.Save(cp))

	_, err = agent.Run(context.Background(), false)
	require.NoError(t, err)

	cp, err = checkpoints.Load()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cp.Progress("vosfinances").WindowIndex, firstIndex)
}
