package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/grepr-agent/internal/agent/harvest"
	"github.com/grepr-agent/internal/checkpoint"
	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/enrich"
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
		Use:   "grepr-scheduler",
		Short: "Background scheduler for the harvest agent",
		Long: `Runs the daily harvest on a cron schedule. The harvest itself is
re-entrant, so an extra trigger on the same day is a no-op.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
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

	log.Info().Msg("Starting harvest scheduler")

	limiter := ratelimit.NewDefaultLimiter()

	var store storage.Store
	if cfg.NocoDB.Configured() {
		log.Info().Str("base_url", cfg.NocoDB.BaseURL).Msg("Using NocoDB storage")
		store = nocodb.New(cfg.NocoDB, limiter, log)
	} else {
		log.Info().Str("dsn", cfg.Database.DSN).Msg("NocoDB not configured, using SQLite storage")
		store, err = sqlite.New(cfg.Database.DSN, cfg.NocoDB.PageSize, log)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
	}
	defer store.Close()

	var contentOrigin origin.ContentOrigin
	switch cfg.Origin.Variant {
	case "public":
		contentOrigin = public.New(cfg.Origin, limiter, log)
	case "oauth":
		contentOrigin = oauth.New(cfg.Origin, limiter, log)
	case "archive":
		contentOrigin = archive.New(cfg.Origin, limiter, log)
	default:
		return fmt.Errorf("unknown origin variant %q", cfg.Origin.Variant)
	}

	classifier, err := enrich.NewClassifier(cfg.AI, limiter, log)
	if err != nil {
		return err
	}

	w := walker.New(contentOrigin, cfg.Harvest, cfg.Origin.PageSize, log)
	pipeline := enrich.NewPipeline(classifier, cfg.AI, log)
	checkpoints := checkpoint.New(cfg.Checkpoint.Path, log)
	agent := harvest.NewAgent(w, pipeline, store, checkpoints, cfg.Harvest, log)

	// Health check server for container platforms
	go startHealthServer()

	c := cron.New(cron.WithLogger(cronLogger{log}))

	_, err = c.AddFunc(cfg.Scheduler.HarvestCron, func() {
		ctx := context.Background()
		log.Info().Msg("Running scheduled harvest")

		summary, err := agent.Run(ctx, false)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled harvest failed")
			return
		}
		if summary.NoOp {
			return
		}

		log.Info().
			Int("new_posts", summary.NewPosts).
			Int("pushed", summary.Pushed).
			Int("errors", summary.Errors).
			Msg("Scheduled harvest completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule harvest job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.HarvestCron).Msg("Harvest job scheduled")

	c.Start()
	log.Info().Msg("Scheduler started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	c.Stop()

	return nil
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}

// startHealthServer starts a simple HTTP server for health checks
func startHealthServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "10000"
	}

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Grepr Harvest Scheduler"))
	})

	log.Info().Str("port", port).Msg("Health check server starting")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Error().Err(err).Msg("Health server failed")
	}
}
