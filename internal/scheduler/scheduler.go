package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/config"
	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/service/alerts"
	"github.com/mamadbah2/telurku/internal/service/live"
	"github.com/mamadbah2/telurku/internal/service/reporting"
	"github.com/mamadbah2/telurku/pkg/clients/supabase"
)

const jobTimeout = 2 * time.Minute

// DashboardSource produces the refreshed dashboard and the nightly snapshot.
type DashboardSource interface {
	Dashboard(ctx context.Context, rng reporting.DateRange, page int) (reporting.Dashboard, error)
	TakeSnapshot(ctx context.Context) (models.DailySnapshot, error)
}

// AlertRunner performs one alert check.
type AlertRunner interface {
	Run(ctx context.Context) (alerts.Notification, bool, error)
	HasNotifiers() bool
}

// Hub is where refreshed data is pushed.
type Hub interface {
	Publish(ev live.Event) int
	Subscribers() int
}

// Sweeper drops expired sessions.
type Sweeper interface {
	Sweep() int
}

// Scheduler manages the periodic dashboard jobs.
type Scheduler struct {
	cron         *cron.Cron
	dashboard    DashboardSource
	alerts       AlertRunner
	hub          Hub
	sweeper      Sweeper
	monitor      config.MonitorConfig
	snapshotSpec string
	serviceToken string
	logger       *zap.Logger
}

type job struct {
	name string
	spec string
	fn   func()
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithSnapshots archives a snapshot on the given cron spec.
func WithSnapshots(spec string) Option {
	return func(s *Scheduler) { s.snapshotSpec = spec }
}

// WithServiceToken runs jobs with a backend token instead of the anon key.
func WithServiceToken(token string) Option {
	return func(s *Scheduler) { s.serviceToken = token }
}

// WithSessionSweeper periodically drops expired in-process sessions.
func WithSessionSweeper(sw Sweeper) Option {
	return func(s *Scheduler) { s.sweeper = sw }
}

// NewScheduler creates a new scheduler instance running in loc.
func NewScheduler(monitor config.MonitorConfig, loc *time.Location, dashboard DashboardSource, alertRunner AlertRunner, hub Hub, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		dashboard: dashboard,
		alerts:    alertRunner,
		hub:       hub,
		monitor:   monitor,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.Duration("refresh_interval", s.monitor.RefreshInterval),
		zap.Duration("alert_interval", s.monitor.AlertInterval),
	)

	jobs := []job{
		{"dashboard refresh", every(s.monitor.RefreshInterval), s.refreshJob},
		{"alert check", every(s.monitor.AlertInterval), s.alertJob},
	}
	if s.snapshotSpec != "" {
		jobs = append(jobs, job{"daily snapshot", s.snapshotSpec, s.snapshotJob})
	}
	if s.sweeper != nil {
		jobs = append(jobs, job{"session sweep", "@every 10m", s.sweepJob})
	}

	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, j.fn); err != nil {
			return fmt.Errorf("schedule %s (%s): %w", j.name, j.spec, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	if s.serviceToken != "" {
		ctx = supabase.WithAccessToken(ctx, s.serviceToken)
	}
	return ctx, cancel
}

func (s *Scheduler) jitter() {
	if s.monitor.Jitter > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(s.monitor.Jitter))))
	}
}

func (s *Scheduler) refreshJob() {
	if s.hub.Subscribers() == 0 {
		return
	}
	s.jitter()
	ctx, cancel := s.jobContext()
	defer cancel()
	s.Refresh(ctx)
}

// Refresh pushes a fresh dashboard to attached viewers right away.
func (s *Scheduler) Refresh(ctx context.Context) {
	if s.hub.Subscribers() == 0 {
		return
	}
	d, err := s.dashboard.Dashboard(ctx, reporting.RangeMonth, 1)
	if err != nil {
		s.logger.Error("dashboard refresh failed", zap.Error(err))
		return
	}
	n := s.hub.Publish(live.Event{Type: live.EventRefresh, Data: d})
	s.logger.Debug("dashboard refresh pushed", zap.Int("viewers", n))
}

// RefreshSoon is Refresh on a fresh background context, for write hooks
// that fire after the request context is gone.
func (s *Scheduler) RefreshSoon() {
	ctx, cancel := s.jobContext()
	defer cancel()
	s.Refresh(ctx)
}

func (s *Scheduler) alertJob() {
	if s.hub.Subscribers() == 0 && !s.alerts.HasNotifiers() {
		return
	}
	s.jitter()
	ctx, cancel := s.jobContext()
	defer cancel()

	n, ok, err := s.alerts.Run(ctx)
	if err != nil {
		s.logger.Warn("alert check finished with errors", zap.Error(err))
	}
	if ok {
		s.hub.Publish(live.Event{Type: live.EventAlerts, Data: n})
	}
}

func (s *Scheduler) snapshotJob() {
	s.logger.Info("archiving daily snapshot")
	ctx, cancel := s.jobContext()
	defer cancel()

	if _, err := s.dashboard.TakeSnapshot(ctx); err != nil {
		s.logger.Error("failed to archive daily snapshot", zap.Error(err))
	}
}

func (s *Scheduler) sweepJob() {
	if n := s.sweeper.Sweep(); n > 0 {
		s.logger.Debug("expired sessions removed", zap.Int("count", n))
	}
}
