// Package harvest drives one scheduler invocation end to end: checkpoint,
// dedup, windowed walking, enrichment, persistence.
package harvest

import (
	"context"
	"time"

	"github.com/grepr-agent/internal/checkpoint"
	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/enrich"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/storage"
	"github.com/grepr-agent/internal/walker"
	"github.com/grepr-agent/pkg/logger"
)

// Agent orchestrates the daily harvest. Sources are processed sequentially:
// the origin and the AI provider are both globally rate-limited, so
// parallelism would only relocate the bottleneck into backoff storms.
type Agent struct {
	walker      *walker.Walker
	pipeline    *enrich.Pipeline
	store       storage.Store
	checkpoints *checkpoint.Store
	sources     []string
	windows     []models.Window
	budget      int
	log         *logger.Logger
	now         func() time.Time
}

// NewAgent creates a harvest agent
func NewAgent(
	w *walker.Walker,
	pipeline *enrich.Pipeline,
	store storage.Store,
	checkpoints *checkpoint.Store,
	cfg config.HarvestConfig,
	log *logger.Logger,
) *Agent {
	return &Agent{
		walker:      w,
		pipeline:    pipeline,
		store:       store,
		checkpoints: checkpoints,
		sources:     cfg.Subreddits,
		windows:     models.DefaultWindows(),
		budget:      cfg.DailyBudget,
		log:         log.WithComponent("harvest"),
		now:         time.Now,
	}
}

// Run executes one harvest invocation. With dryRun set, posts are walked and
// enriched but nothing is appended to the store and the checkpoint is left
// untouched, so a real run can still happen the same day.
func (a *Agent) Run(ctx context.Context, dryRun bool) (*models.RunSummary, error) {
	start := a.now()
	today := models.RunDate(start)
	summary := &models.RunSummary{
		Date:      today,
		PerSource: make(map[string]int),
	}

	cp, err := a.checkpoints.Load()
	if err != nil {
		return nil, err
	}

	// Re-entrancy guard: one harvest per calendar day
	if cp.RanOn(today) {
		a.log.Info().Str("date", today).Msg("Already ran today, skipping")
		summary.NoOp = true
		return summary, nil
	}

	a.log.Info().
		Str("date", today).
		Int("budget_per_source", a.budget).
		Strs("sources", a.sources).
		Bool("dry_run", dryRun).
		Msg("Starting harvest")

	known := a.store.KnownIDs(ctx)

	var harvested []*models.Post
	for _, source := range a.sources {
		posts, windowIndex := a.drainSource(ctx, source, cp.Progress(source).WindowIndex, known, summary)
		harvested = append(harvested, posts...)
		summary.PerSource[source] = len(posts)

		prog := cp.Progress(source)
		prog.Fetched += len(posts)
		prog.WindowIndex = windowIndex
		cp.SetProgress(source, prog)

		a.log.Info().
			Str("subreddit", source).
			Int("new_posts", len(posts)).
			Int("window_index", windowIndex).
			Msg("Source processed")
	}
	summary.NewPosts = len(harvested)

	for _, post := range harvested {
		if err := a.pipeline.Enrich(ctx, post); err != nil {
			summary.Errors++
		}
	}

	if !dryRun {
		for _, post := range harvested {
			if err := a.store.Append(ctx, models.NewRecord(post)); err != nil {
				a.log.Error().Err(err).Str("post_id", post.ID).Msg("Failed to append record")
				summary.Errors++
				continue
			}
			summary.Pushed++
		}

		cp.LastRun = today
		cp.TotalFetched += len(harvested)
		if err := a.checkpoints.Save(cp); err != nil {
			return summary, err
		}
	}

	summary.Duration = a.now().Sub(start)

	a.log.Info().
		Int("new_posts", summary.NewPosts).
		Int("duplicates", summary.Duplicate).
		Int("pushed", summary.Pushed).
		Int("errors", summary.Errors).
		Dur("duration", summary.Duration).
		Msg("Harvest completed")

	return summary, nil
}

// drainSource walks successively older windows until the daily budget is met
// or the schedule is exhausted. A window advances only when it yields zero
// new posts; a backfilled source settles into walking just the freshest
// window for new arrivals.
func (a *Agent) drainSource(ctx context.Context, source string, windowIndex int, known map[string]struct{}, summary *models.RunSummary) ([]*models.Post, int) {
	if windowIndex >= len(a.windows) {
		// Steady daily mode: freshest window, lower score floor
		posts, skipped, err := a.walker.Walk(ctx, source, a.windows[0], models.SortNew, a.budget, known)
		summary.Duplicate += skipped
		if err != nil {
			a.log.Warn().Err(err).Str("subreddit", source).Msg("Walk failed")
			summary.Errors++
		}
		return posts, windowIndex
	}

	var collected []*models.Post
	for len(collected) < a.budget && windowIndex < len(a.windows) {
		window := a.windows[windowIndex]
		posts, skipped, err := a.walker.Walk(ctx, source, window, models.SortTop, a.budget-len(collected), known)
		collected = append(collected, posts...)
		summary.Duplicate += skipped
		if err != nil {
			// Give up on this source for today; the checkpoint keeps the
			// window where it was so tomorrow retries it
			a.log.Warn().Err(err).Str("subreddit", source).Str("window", window.Label).Msg("Walk failed")
			summary.Errors++
			break
		}

		if len(posts) == 0 {
			a.log.Debug().Str("subreddit", source).Str("window", window.Label).Msg("Window exhausted, advancing")
			windowIndex++
		}
	}
	return collected, windowIndex
}
