// Package scheduler runs the recurring crawl and maintenance jobs:
// hourly price refresh, six-hourly discovery over a random slice of
// categories, and a nightly retention prune.
package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/minsu-lab/mstrack/config"
	"github.com/minsu-lab/mstrack/internal/musinsa"
	"github.com/minsu-lab/mstrack/internal/store"
	"github.com/minsu-lab/mstrack/internal/tracker"
	"github.com/minsu-lab/mstrack/metrics"
)

const (
	// Discovery samples a few categories per run instead of sweeping
	// the whole catalog, spreading load and rotating coverage.
	discoverCategorySample = 4
	discoverTargetPerCat   = 15
)

type job struct {
	entryID cron.EntryID
	id      string
	name    string
	trigger string
}

type Scheduler struct {
	cron       *cron.Cron
	store      *store.Store
	reconciler *tracker.Reconciler
	refresher  *tracker.Refresher
	retention  *tracker.Retention
	registry   *musinsa.Registry

	jobs    []job
	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg *config.Config, st *store.Store, rec *tracker.Reconciler, ref *tracker.Refresher, ret *tracker.Retention, reg *musinsa.Registry) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		store:      st,
		reconciler: rec,
		refresher:  ref,
		retention:  ret,
		registry:   reg,
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logrus.StandardLogger()))),
	)

	if err := s.addJob("crawl_products_hourly", "Hourly price refresh of active products", "@every 1h", s.refreshJob); err != nil {
		return nil, err
	}
	if err := s.addJob("discover_new_products", "Discovery crawl over random categories", "@every 6h", s.discoverJob); err != nil {
		return nil, err
	}
	if err := s.addJob("cleanup_old_data_daily", "Nightly prune of expired price history", "0 3 * * *", s.cleanupJob); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) addJob(id, name, spec string, fn func()) error {
	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", id, err)
	}
	s.jobs = append(s.jobs, job{entryID: entryID, id: id, name: name, trigger: spec})
	return nil
}

func (s *Scheduler) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.Start()
	s.running.Store(true)

	for _, j := range s.jobs {
		logrus.WithFields(logrus.Fields{
			"job":      j.id,
			"trigger":  j.trigger,
			"next_run": s.cron.Entry(j.entryID).Next,
		}).Info("Scheduled job registered")
	}
}

// Stop cancels running jobs and waits for them to wind down, bounded so
// shutdown cannot hang behind a stuck crawl.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler jobs still running after 30s, abandoning wait")
	}
	s.running.Store(false)
	logrus.Info("Scheduler stopped")
}

func (s *Scheduler) refreshJob() {
	start := time.Now()
	result, err := s.refresher.RefreshAll(s.ctx)
	if err != nil {
		metrics.RecordCrawl("refresh", time.Since(start), 0, err)
		logrus.WithError(err).Error("Scheduled refresh failed")
		return
	}
	metrics.RecordCrawl("refresh", time.Since(start), result.Success, nil)
	metrics.RecordPricePoints(result.Success)
	logrus.WithFields(logrus.Fields{
		"success": result.Success,
		"errors":  result.Errors,
	}).Info("Scheduled refresh finished")
	s.updateGauges()
}

// discoverJob feeds a fresh random slice of the catalog through the
// reconciler. The tracker's crawl gate serializes it against a refresh
// that may still be running.
func (s *Scheduler) discoverJob() {
	codes := s.sampleCategories(s.ctx)
	if len(codes) == 0 {
		logrus.Warn("No categories available for discovery crawl")
		return
	}
	logrus.WithField("categories", codes).Info("Discovery crawl starting")

	start := time.Now()
	result, err := s.reconciler.CrawlCategories(s.ctx, codes, discoverTargetPerCat, true)
	if err != nil {
		metrics.RecordCrawl("discovery", time.Since(start), 0, err)
		logrus.WithError(err).Error("Discovery crawl failed")
		return
	}
	metrics.RecordCrawl("discovery", time.Since(start), result.TotalSaved, nil)
	metrics.RecordPricePoints(result.TotalSaved)
	logrus.WithFields(logrus.Fields{
		"saved":   result.TotalSaved,
		"skipped": result.TotalSkipped,
		"errors":  result.TotalErrors,
	}).Info("Discovery crawl finished")
	s.updateGauges()
}

func (s *Scheduler) cleanupJob() {
	deleted, err := s.retention.Prune()
	if err != nil {
		logrus.WithError(err).Error("Price history cleanup failed")
		return
	}
	logrus.WithField("deleted", deleted).Info("Price history cleanup finished")
	s.updateGauges()
}

// sampleCategories draws a random subset of the known category codes so
// successive discovery runs rotate through the catalog.
func (s *Scheduler) sampleCategories(ctx context.Context) []string {
	categories := s.registry.Categories(ctx)
	codes := make([]string, 0, len(categories))
	for _, code := range categories {
		codes = append(codes, code)
	}
	rand.Shuffle(len(codes), func(i, j int) { codes[i], codes[j] = codes[j], codes[i] })
	if len(codes) > discoverCategorySample {
		codes = codes[:discoverCategorySample]
	}
	return codes
}

func (s *Scheduler) updateGauges() {
	products, err := s.store.CountProducts()
	if err != nil {
		logrus.WithError(err).Warn("Refreshing product gauge")
		return
	}
	withReviews, err := s.store.CountWithReviews()
	if err != nil {
		logrus.WithError(err).Warn("Refreshing review gauge")
		return
	}
	metrics.SetDBGauges(products, withReviews)
}

type JobStatus struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	NextRun *time.Time `json:"next_run_time"`
	Trigger string     `json:"trigger"`
}

type Status struct {
	Running  bool        `json:"running"`
	Jobs     []JobStatus `json:"jobs"`
	JobCount int         `json:"job_count"`
}

func (s *Scheduler) Status() Status {
	jobs := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		status := JobStatus{ID: j.id, Name: j.name, Trigger: j.trigger}
		if next := s.cron.Entry(j.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
		jobs = append(jobs, status)
	}
	return Status{
		Running:  s.running.Load(),
		Jobs:     jobs,
		JobCount: len(jobs),
	}
}
