package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"alpine-pulse/analyzer"
	"alpine-pulse/archive"
	"alpine-pulse/briefing"
	"alpine-pulse/collector"
	"alpine-pulse/config"
	"alpine-pulse/history"
	"alpine-pulse/metrics"
	"alpine-pulse/pipeline"
	"alpine-pulse/scheduler"
)

var cfgPath string

func main() {
	// Secrets come from the environment; a local .env file is a convenience
	// for development.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "alpinepulse",
		Short:         "Resort sentiment monitoring for All Season Resorts Alberta",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "./config.yaml", "path to config file")
	root.AddCommand(newRunCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one collection run and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Collection is a weekday job; resorts are quiet enough on
			// weekends that a run would mostly record zeros.
			if !force && isWeekend(time.Now()) {
				slog.Info("weekend, skipping run (use --force to override)")
				return nil
			}

			runner, cleanup, err := buildRunner(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runner.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "run even on weekends")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run on the configured schedule, with a metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			runner, cleanup, err := buildRunner(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			sched, err := scheduler.New(cfg.Timezone)
			if err != nil {
				return fmt.Errorf("creating scheduler: %w", err)
			}

			task := func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
				defer cancel()
				if err := runner.Run(ctx); err != nil {
					slog.Error("scheduled run failed", "error", err)
				}
			}
			if err := sched.Schedule(cfg.Schedule, task); err != nil {
				return fmt.Errorf("scheduling runs: %w", err)
			}
			sched.Start()
			defer sched.Stop()
			slog.Info("scheduler started", "cron", cfg.Schedule, "timezone", cfg.Timezone)

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
			go func() {
				slog.Info("metrics listening", "addr", cfg.MetricsAddr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("metrics server stopped", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)
	slog.Info("config loaded",
		"resorts", len(cfg.Resorts),
		"themes", len(cfg.Themes),
		"data_dir", cfg.DataDir)
	return &cfg, nil
}

// setupLogging installs structured JSON logging to stdout.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

// buildRunner wires the pipeline from configuration. The returned cleanup
// closes the archive database.
func buildRunner(cfg *config.Config) (*pipeline.Runner, func(), error) {
	httpClient := &http.Client{Timeout: cfg.FetchTimeout()}
	lookback := time.Duration(cfg.LookbackHours) * time.Hour

	collectors := []pipeline.Collector{
		collector.NewReddit(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent, cfg.Resorts, lookback, httpClient),
		collector.NewYouTube(cfg.YouTubeAPIKey, cfg.Resorts, lookback, httpClient),
		collector.NewRSS(cfg.RSSFeeds, cfg.Resorts, lookback, cfg.RedditUserAgent, httpClient, true),
	}

	var annotator analyzer.Annotator
	if cfg.AnthropicAPIKey != "" {
		annotator = analyzer.NewAnnotator(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.ThemeNames(), httpClient)
	} else {
		slog.Warn("no annotation API key configured, using keyword classifier only")
	}
	batch := analyzer.NewBatch(annotator, cfg.Themes, cfg.BatchSize, cfg.BatchDelay())

	store, err := archive.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing archive failed", "error", err)
		}
	}

	var notifiers []pipeline.Notifier
	if cfg.EmailEnabled && cfg.SMTPUser != "" && cfg.EmailTo != "" {
		notifiers = append(notifiers, briefing.NewEmailSender(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailTo))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tn, err := briefing.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			slog.Warn("telegram notifier unavailable", "error", err)
		} else {
			notifiers = append(notifiers, tn)
		}
	}

	histStore := history.NewFileStore(filepath.Join(cfg.DataDir, "history.json"))
	runner := pipeline.NewRunner(collectors, batch, histStore, store, notifiers, cfg)
	return runner, cleanup, nil
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
