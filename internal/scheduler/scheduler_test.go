package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/mamadbah2/telurku/internal/config"
	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/service/alerts"
	"github.com/mamadbah2/telurku/internal/service/live"
	"github.com/mamadbah2/telurku/internal/service/reporting"
	"github.com/mamadbah2/telurku/pkg/clients/supabase"
)

type fakeDashboard struct {
	calls     int
	snapshots int
	token     string
}

func (f *fakeDashboard) Dashboard(ctx context.Context, _ reporting.DateRange, _ int) (reporting.Dashboard, error) {
	f.calls++
	f.token, _ = supabase.AccessToken(ctx)
	return reporting.Dashboard{AlertIndicator: 2}, nil
}

func (f *fakeDashboard) TakeSnapshot(context.Context) (models.DailySnapshot, error) {
	f.snapshots++
	return models.DailySnapshot{}, nil
}

type fakeAlerts struct {
	runs      int
	notifiers bool
}

func (f *fakeAlerts) Run(context.Context) (alerts.Notification, bool, error) {
	f.runs++
	return alerts.Notification{Message: "North: 🔴 Alert"}, true, nil
}

func (f *fakeAlerts) HasNotifiers() bool { return f.notifiers }

func newScheduler(dash *fakeDashboard, al *fakeAlerts, hub *live.Hub, opts ...Option) *Scheduler {
	monitor := config.MonitorConfig{RefreshInterval: time.Hour, AlertInterval: time.Hour}
	return NewScheduler(monitor, time.UTC, dash, al, hub, nil, opts...)
}

func TestJobsSkipWithoutViewers(t *testing.T) {
	dash, al := &fakeDashboard{}, &fakeAlerts{}
	s := newScheduler(dash, al, live.NewHub(4, nil))

	s.refreshJob()
	s.alertJob()
	if dash.calls != 0 || al.runs != 0 {
		t.Errorf("dashboard calls = %d, alert runs = %d; want 0", dash.calls, al.runs)
	}

	al.notifiers = true
	s.alertJob()
	if al.runs != 1 {
		t.Errorf("alert runs with notifiers = %d, want 1", al.runs)
	}
}

func TestJobsPublishToViewers(t *testing.T) {
	dash, al := &fakeDashboard{}, &fakeAlerts{}
	hub := live.NewHub(4, nil)
	s := newScheduler(dash, al, hub, WithServiceToken("service-key"))

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	s.refreshJob()
	s.alertJob()

	if dash.token != "service-key" {
		t.Errorf("job token = %q, want service-key", dash.token)
	}
	first, second := <-events, <-events
	if first.Type != live.EventRefresh || second.Type != live.EventAlerts {
		t.Errorf("events = %s, %s", first.Type, second.Type)
	}
}

func TestStartRejectsBadSnapshotSpec(t *testing.T) {
	s := newScheduler(&fakeDashboard{}, &fakeAlerts{}, live.NewHub(1, nil), WithSnapshots("not a cron spec"))
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start() with bad spec returned nil error")
	}
}

func TestStartStop(t *testing.T) {
	dash := &fakeDashboard{}
	s := newScheduler(dash, &fakeAlerts{}, live.NewHub(1, nil), WithSnapshots("0 20 * * *"))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
	s.snapshotJob()
	if dash.snapshots != 1 {
		t.Errorf("snapshots = %d, want 1", dash.snapshots)
	}
}
