package reporting

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository/memory"
	"github.com/mamadbah2/telurku/internal/service/barns"
	"github.com/mamadbah2/telurku/internal/service/feed"
)

var fixedNow = time.Date(2025, 3, 4, 18, 30, 0, 0, time.UTC)

type recordingSink struct {
	rows [][]string
}

func (s *recordingSink) AppendRows(_ context.Context, rows [][]string) error {
	s.rows = append(s.rows, rows...)
	return nil
}

func newService(t *testing.T, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	barnSvc := barns.NewService(memory.NewBarnRepository(store), memory.NewAuditRepository(store), memory.NewProfileRepository(store), nil)
	feedSvc := feed.NewService(memory.NewFeedRepository(store), memory.NewBarnRepository(store), memory.NewProfileRepository(store), nil)
	svc := NewService(barnSvc, feedSvc, nil, opts...)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func seed(store *memory.Store) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.PutBarn(models.Barn{Name: "North", Chickens: models.Int(100), EggsToday: models.Int(50), Temperature: models.Float(24.5), Humidity: models.Float(60), Status: models.StatusOK, CreatedAt: &created})
	later := created.Add(time.Hour)
	store.PutBarn(models.Barn{Name: "South", Chickens: models.Int(110), EggsToday: models.Int(45), Status: models.StatusAlert, CreatedAt: &later})
}

func TestWriteCSV(t *testing.T) {
	svc, store := newService(t)
	seed(store)

	var buf bytes.Buffer
	name, err := svc.WriteCSV(context.Background(), RangeWeek, &buf)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if name != "dashboard_export_week_2025-03-04.csv" {
		t.Errorf("filename = %q", name)
	}

	want := strings.Join([]string{
		"Dashboard Export",
		"Date Range: week",
		"Export Date: 2025-03-04 18:30:00",
		"",
		"Statistics",
		"Metric,Value",
		"Total Barns,2",
		"Total Chickens,210",
		"Daily Egg Production,95",
		"Alerts,1",
		"Warnings,0",
		"OK Status,1",
		"",
		"Barns Data",
		"Name,Chickens,Daily Eggs,Temperature,Humidity,Status,Created At",
		"South,110,45,0,0,alert,2025-03-01 10:00:00",
		"North,100,50,24.5,60,ok,2025-03-01 09:00:00",
	}, "\n") + "\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteCSV_DatesInLocation(t *testing.T) {
	// 23:30 UTC on 4 March is already 5 March in Kiritimati (UTC+14).
	loc := time.FixedZone("LINT", 14*60*60)
	svc, _ := newService(t, WithLocation(loc))
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 23, 30, 0, 0, time.UTC) }

	var buf bytes.Buffer
	name, err := svc.WriteCSV(context.Background(), RangeToday, &buf)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if name != "dashboard_export_today_2025-03-05.csv" {
		t.Errorf("filename = %q, want dashboard_export_today_2025-03-05.csv", name)
	}
	if !strings.Contains(buf.String(), "Export Date: 2025-03-05 13:30:00") {
		t.Errorf("csv header does not carry the local export date:\n%s", buf.String())
	}
}

func TestDashboard(t *testing.T) {
	svc, store := newService(t)
	seed(store)

	d, err := svc.Dashboard(context.Background(), RangeToday, 1)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.AlertIndicator != d.Stats.Alerts+d.Stats.Warnings {
		t.Errorf("AlertIndicator = %d, stats = %+v", d.AlertIndicator, d.Stats)
	}
	if d.Recent.Total != 2 || d.Recent.Limit != RecentLimit || d.Recent.TotalPages != 1 {
		t.Errorf("recent = %+v", d.Recent)
	}
	if len(d.Chart.Labels) != 2 || d.Chart.Label != "Last 24 hours" {
		t.Errorf("chart = %+v", d.Chart)
	}
	if !d.Chart.From.Equal(fixedNow.AddDate(0, 0, -1)) {
		t.Errorf("chart from = %v", d.Chart.From)
	}
}

func TestExportToSheet(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.ExportToSheet(context.Background(), RangeMonth); !errors.Is(err, ErrExportDisabled) {
		t.Errorf("ExportToSheet() without sink error = %v", err)
	}

	sink := &recordingSink{}
	svc, store := newService(t, WithExportSink(sink))
	seed(store)
	n, err := svc.ExportToSheet(context.Background(), RangeMonth)
	if err != nil {
		t.Fatalf("ExportToSheet() error = %v", err)
	}
	if n != 17 || len(sink.rows) != 17 {
		t.Errorf("rows = %d / %d, want 17", n, len(sink.rows))
	}
}

func TestTakeSnapshot(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.TakeSnapshot(context.Background()); !errors.Is(err, ErrArchiveDisabled) {
		t.Errorf("TakeSnapshot() without archive error = %v", err)
	}

	archive := memory.NewSnapshotRepository(memory.NewStore())
	svc, store := newService(t, WithArchive(archive))
	seed(store)
	store.PutFeed(models.FeedRecord{Type: "mash", Amount: models.Float(12), EstimatedDaysRemaining: models.Int(2)})

	snap, err := svc.TakeSnapshot(context.Background())
	if err != nil {
		t.Fatalf("TakeSnapshot() error = %v", err)
	}
	if snap.TotalChickens != 210 || snap.FeedAmount != 12 || snap.LowStockAlerts != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if !snap.Date.Equal(time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("snapshot date = %v", snap.Date)
	}

	list, _ := svc.Snapshots(context.Background(), 5)
	if len(list) != 1 {
		t.Errorf("Snapshots() = %d entries", len(list))
	}
}

func TestParseDateRange(t *testing.T) {
	for in, want := range map[string]DateRange{"today": RangeToday, "WEEK": RangeWeek, "year": RangeYear, "": RangeMonth, "decade": RangeMonth} {
		if got := ParseDateRange(in); got != want {
			t.Errorf("ParseDateRange(%q) = %q, want %q", in, got, want)
		}
	}
}
