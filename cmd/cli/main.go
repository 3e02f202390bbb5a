package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grepr-agent/internal/agent/harvest"
	"github.com/grepr-agent/internal/checkpoint"
	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/enrich"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/origin"
	"github.com/grepr-agent/internal/origin/archive"
	"github.com/grepr-agent/internal/origin/oauth"
	"github.com/grepr-agent/internal/origin/public"
	"github.com/grepr-agent/internal/storage"
	"github.com/grepr-agent/internal/storage/nocodb"
	"github.com/grepr-agent/internal/storage/sqlite"
	"github.com/grepr-agent/internal/walker"
	"github.com/grepr-agent/pkg/logger"
	"github.com/grepr-agent/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "grepr",
		Short: "Incremental harvester for French personal-finance subreddits",
		Long: `Harvests posts from French personal-finance subreddits, enriches them
with AI classification and financial-fact extraction, and appends them to a
NocoDB table (or a local SQLite archive).`,
		PersistentPreRunE: initializeApp,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(resetCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	return nil
}

// buildOrigin selects the content origin variant
func buildOrigin(limiter *ratelimit.MultiLimiter) (origin.ContentOrigin, error) {
	switch cfg.Origin.Variant {
	case "public":
		return public.New(cfg.Origin, limiter, log), nil
	case "oauth":
		if cfg.Origin.ClientID == "" || cfg.Origin.ClientSecret == "" {
			return nil, fmt.Errorf("oauth origin requires client_id and client_secret")
		}
		return oauth.New(cfg.Origin, limiter, log), nil
	case "archive":
		return archive.New(cfg.Origin, limiter, log), nil
	default:
		return nil, fmt.Errorf("unknown origin variant %q", cfg.Origin.Variant)
	}
}

// buildStore picks NocoDB when configured, the local SQLite archive
// otherwise
func buildStore(limiter *ratelimit.MultiLimiter) (storage.Store, error) {
	if cfg.NocoDB.Configured() {
		log.Info().Str("base_url", cfg.NocoDB.BaseURL).Msg("Using NocoDB storage")
		return nocodb.New(cfg.NocoDB, limiter, log), nil
	}

	log.Info().Str("dsn", cfg.Database.DSN).Msg("NocoDB not configured, using SQLite storage")
	return sqlite.New(cfg.Database.DSN, cfg.NocoDB.PageSize, log)
}

func buildAgent(limiter *ratelimit.MultiLimiter, store storage.Store) (*harvest.Agent, error) {
	contentOrigin, err := buildOrigin(limiter)
	if err != nil {
		return nil, err
	}

	classifier, err := enrich.NewClassifier(cfg.AI, limiter, log)
	if err != nil {
		return nil, err
	}

	w := walker.New(contentOrigin, cfg.Harvest, cfg.Origin.PageSize, log)
	pipeline := enrich.NewPipeline(classifier, cfg.AI, log)
	checkpoints := checkpoint.New(cfg.Checkpoint.Path, log)

	return harvest.NewAgent(w, pipeline, store, checkpoints, cfg.Harvest, log), nil
}

func runCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one harvest invocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			limiter := ratelimit.NewDefaultLimiter()
			store, err := buildStore(limiter)
			if err != nil {
				return err
			}
			defer store.Close()

			agent, err := buildAgent(limiter, store)
			if err != nil {
				return err
			}

			summary, err := agent.Run(ctx, dryRun)
			if err != nil {
				return err
			}

			if summary.NoOp {
				fmt.Printf("Already ran on %s, nothing to do.\n", summary.Date)
				return nil
			}

			fmt.Printf("\n=== Harvest Results (%s) ===\n", summary.Date)
			fmt.Printf("New posts:  %d\n", summary.NewPosts)
			fmt.Printf("Duplicates: %d\n", summary.Duplicate)
			fmt.Printf("Pushed:     %d\n", summary.Pushed)
			fmt.Printf("Errors:     %d\n", summary.Errors)
			fmt.Printf("Duration:   %s\n", summary.Duration)
			for source, count := range summary.PerSource {
				fmt.Printf("  r/%s: %d new\n", source, count)
			}
			if dryRun {
				fmt.Println("\nDry run: nothing was persisted.")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Walk and enrich without persisting anything")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show harvest progress per source",
		RunE: func(cmd *cobra.Command, args []string) error {
			checkpoints := checkpoint.New(cfg.Checkpoint.Path, log)
			cp, err := checkpoints.Load()
			if err != nil {
				return err
			}

			windows := models.DefaultWindows()
			estimate := models.EstimateBacklog(cp, cfg.Harvest.Subreddits, len(windows), cfg.Harvest.DailyBudget)

			lastRun := cp.LastRun
			if lastRun == "" {
				lastRun = "never"
			}

			fmt.Printf("\n=== Harvest Status ===\n")
			fmt.Printf("Last run:      %s\n", lastRun)
			fmt.Printf("Total fetched: %d\n", cp.TotalFetched)

			fmt.Printf("\nBackfill outlook:\n")
			fmt.Printf("  Estimated total: ~%d posts\n", estimate.TotalEstimated)
			fmt.Printf("  Remaining:       ~%d posts (~%d days at %d/source/day)\n",
				estimate.TotalRemaining, estimate.DaysToComplete, cfg.Harvest.DailyBudget)

			fmt.Printf("\nSources:\n")
			for _, source := range cfg.Harvest.Subreddits {
				prog := cp.Progress(source)
				window := "backfilled, daily mode"
				if prog.WindowIndex < len(windows) {
					window = windows[prog.WindowIndex].Label
				}
				se := estimate.Sources[source]
				fmt.Printf("  r/%s: %d fetched, current window: %s, ~%d remaining (~%d days)\n",
					source, prog.Fetched, window, se.Remaining, se.DaysToComplete)
			}

			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset harvest progress so the next run starts from scratch",
		RunE: func(cmd *cobra.Command, args []string) error {
			checkpoints := checkpoint.New(cfg.Checkpoint.Path, log)
			if err := checkpoints.Reset(); err != nil {
				return err
			}
			fmt.Println("Progress reset. Next run will start fresh.")
			return nil
		},
	}
}
