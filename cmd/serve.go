package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/minsu-lab/mstrack/internal/analytics"
	"github.com/minsu-lab/mstrack/internal/auth"
	"github.com/minsu-lab/mstrack/internal/cache"
	"github.com/minsu-lab/mstrack/internal/router"
	"github.com/minsu-lab/mstrack/internal/scheduler"
	"github.com/minsu-lab/mstrack/internal/stealth"
	"github.com/minsu-lab/mstrack/internal/store"
	"github.com/minsu-lab/mstrack/internal/tracker"
	"github.com/minsu-lab/mstrack/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracking API server and scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port (default from $PORT or 8080)")
	serveCmd.Flags().Bool("no-scheduler", false, "Disable the background crawl scheduler")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	port := cfg.HTTPPort
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	noScheduler, _ := cmd.Flags().GetBool("no-scheduler")

	db, err := openDB()
	if err != nil {
		return err
	}
	defer store.Close(db)

	st := store.New(db)
	trackerStore := store.TrackerStore{Store: st}

	scraper := newScraper()
	registry := scraper.Registry()

	// One gate serializes the long batch crawls across the scheduler
	// and the API.
	gate := &tracker.Gate{}
	reconciler := tracker.NewReconciler(trackerStore, scraper, registry,
		stealth.NewHumanDelay(stealth.DelayProfile(cfg.DelayProfile)), gate)
	refresher := tracker.NewRefresher(trackerStore, scraper,
		stealth.NewFixedDelay(cfg.RefreshDelay), gate)
	retention := tracker.NewRetention(trackerStore, cfg.RetentionDays)

	authenticator := auth.New(cfg)
	if !authenticator.Enabled() {
		logrus.Warn("No API key or admin password hash configured; mutating endpoints are open")
	}

	var cacheClient *cache.Client
	if cfg.RedisAddr != "" {
		c, err := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, analytics caching disabled")
		} else {
			cacheClient = c
			defer cacheClient.Close()
		}
	}

	var sched *scheduler.Scheduler
	if !noScheduler {
		sched, err = scheduler.New(cfg, st, reconciler, refresher, retention, registry)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	products, _ := st.CountProducts()
	withReviews, _ := st.CountWithReviews()
	metrics.SetDBGauges(products, withReviews)

	gin.SetMode(gin.ReleaseMode)
	engine := router.Initialize(cfg, router.Deps{
		Store:      st,
		Reconciler: reconciler,
		Refresher:  refresher,
		Analytics:  analytics.New(db),
		Auth:       authenticator,
		Cache:      cacheClient,
		Scheduler:  sched,
		Registry:   registry,
	})

	// Crawl endpoints run synchronously and can take minutes, so no
	// write deadline.
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", port),
		Handler:     engine,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("API server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}
