// Package reporting assembles the dashboard: statistics, the recent barns
// page, the activity chart, exports, and the nightly snapshot archive.
package reporting

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"

	// RecentLimit is the page size of the dashboard's recent barns table.
	RecentLimit = 5
)

var (
	// ErrExportDisabled is returned when no spreadsheet sink is configured.
	ErrExportDisabled = errors.New("spreadsheet export is not configured")
	// ErrArchiveDisabled is returned when no snapshot archive is configured.
	ErrArchiveDisabled = errors.New("snapshot archive is not configured")
)

// BarnSource is what the dashboard reads about barns.
type BarnSource interface {
	List(ctx context.Context, filter models.BarnFilter) ([]models.Barn, error)
	RecentPage(ctx context.Context, page, limit int) (models.Page[models.Barn], error)
}

// FeedSource is what the dashboard reads about feed.
type FeedSource interface {
	Statistics(ctx context.Context) (models.FeedStatistics, error)
}

// Dashboard is the aggregate behind the dashboard page.
type Dashboard struct {
	Stats          models.BarnStatistics    `json:"stats"`
	AlertIndicator int                      `json:"alertIndicator"`
	Recent         models.Page[models.Barn] `json:"recent"`
	Chart          Chart                    `json:"chart"`
	GeneratedAt    time.Time                `json:"generatedAt"`
}

// Chart is the egg production versus chicken count series, one point per barn.
type Chart struct {
	Range    DateRange `json:"range"`
	Label    string    `json:"label"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Labels   []string  `json:"labels"`
	Eggs     []int     `json:"eggs"`
	Chickens []int     `json:"chickens"`
}

// Service builds dashboard views and exports.
type Service struct {
	barns    BarnSource
	feed     FeedSource
	sink     repository.ExportSink
	archive  repository.SnapshotRepository
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithExportSink enables ExportToSheet.
func WithExportSink(sink repository.ExportSink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithArchive enables snapshots.
func WithArchive(archive repository.SnapshotRepository) Option {
	return func(s *Service) { s.archive = archive }
}

// WithLocation sets the zone used for export timestamps and snapshot days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService wires a new reporting service instance.
func NewService(barns BarnSource, feed FeedSource, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		barns:    barns,
		feed:     feed,
		location: time.UTC,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportEnabled reports whether ExportToSheet can run.
func (s *Service) ExportEnabled() bool { return s.sink != nil }

// Dashboard loads statistics, the requested recent barns page, and the chart.
func (s *Service) Dashboard(ctx context.Context, rng DateRange, page int) (Dashboard, error) {
	barns, err := s.barns.List(ctx, models.BarnFilter{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard barns: %w", err)
	}
	recent, err := s.barns.RecentPage(ctx, page, RecentLimit)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load recent barns: %w", err)
	}

	stats := models.ComputeBarnStatistics(barns)
	return Dashboard{
		Stats:          stats,
		AlertIndicator: stats.AlertCount(),
		Recent:         recent,
		Chart:          s.chart(barns, rng),
		GeneratedAt:    s.now(),
	}, nil
}

// ActivityChart returns the chart for rng. The range relabels the chart;
// the underlying barn query is not filtered by date.
func (s *Service) ActivityChart(ctx context.Context, rng DateRange) (Chart, error) {
	barns, err := s.barns.List(ctx, models.BarnFilter{})
	if err != nil {
		return Chart{}, fmt.Errorf("load chart barns: %w", err)
	}
	return s.chart(barns, rng), nil
}

func (s *Service) chart(barns []models.Barn, rng DateRange) Chart {
	from, to := rng.Window(s.now().In(s.location))
	c := Chart{
		Range:    rng,
		Label:    rng.Label(),
		From:     from,
		To:       to,
		Labels:   make([]string, 0, len(barns)),
		Eggs:     make([]int, 0, len(barns)),
		Chickens: make([]int, 0, len(barns)),
	}
	for _, b := range barns {
		c.Labels = append(c.Labels, b.Name)
		c.Eggs = append(c.Eggs, b.EggCount())
		c.Chickens = append(c.Chickens, b.ChickenCount())
	}
	return c
}

// ExportFilename is the download name for an export taken at now, dated in now's zone.
func ExportFilename(rng DateRange, now time.Time) string {
	return fmt.Sprintf("dashboard_export_%s_%s.csv", rng, now.Format(dateLayout))
}

// ExportRows builds the export table: a title block, the statistics, and one row per barn.
func (s *Service) ExportRows(ctx context.Context, rng DateRange) ([][]string, error) {
	return s.exportRows(ctx, rng, s.now().In(s.location))
}

func (s *Service) exportRows(ctx context.Context, rng DateRange, now time.Time) ([][]string, error) {
	barns, err := s.barns.List(ctx, models.BarnFilter{})
	if err != nil {
		return nil, fmt.Errorf("load export barns: %w", err)
	}
	stats := models.ComputeBarnStatistics(barns)

	rows := [][]string{
		{"Dashboard Export"},
		{"Date Range: " + string(rng)},
		{"Export Date: " + now.Format(dateTimeLayout)},
		{},
		{"Statistics"},
		{"Metric", "Value"},
		{"Total Barns", strconv.Itoa(stats.TotalBarns)},
		{"Total Chickens", strconv.Itoa(stats.TotalChickens)},
		{"Daily Egg Production", strconv.Itoa(stats.DailyEggs)},
		{"Alerts", strconv.Itoa(stats.Alerts)},
		{"Warnings", strconv.Itoa(stats.Warnings)},
		{"OK Status", strconv.Itoa(stats.OK)},
		{},
		{"Barns Data"},
		{"Name", "Chickens", "Daily Eggs", "Temperature", "Humidity", "Status", "Created At"},
	}
	for _, b := range barns {
		created := ""
		if b.CreatedAt != nil {
			created = b.CreatedAt.In(s.location).Format(dateTimeLayout)
		}
		rows = append(rows, []string{
			b.Name,
			strconv.Itoa(b.ChickenCount()),
			strconv.Itoa(b.EggCount()),
			formatFloat(b.TemperatureValue()),
			formatFloat(b.HumidityValue()),
			string(b.Status),
			created,
		})
	}
	return rows, nil
}

// WriteCSV writes the export as CSV to w and returns the download filename.
func (s *Service) WriteCSV(ctx context.Context, rng DateRange, w io.Writer) (string, error) {
	now := s.now().In(s.location)
	rows, err := s.exportRows(ctx, rng, now)
	if err != nil {
		return "", err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write export csv: %w", err)
	}
	return ExportFilename(rng, now), nil
}

// ExportToSheet appends the export table to the configured spreadsheet.
func (s *Service) ExportToSheet(ctx context.Context, rng DateRange) (int, error) {
	if s.sink == nil {
		return 0, ErrExportDisabled
	}
	rows, err := s.ExportRows(ctx, rng)
	if err != nil {
		return 0, err
	}
	if err := s.sink.AppendRows(ctx, rows); err != nil {
		s.logger.Error("sheet export failed", zap.Error(err))
		return 0, fmt.Errorf("export to sheet: %w", err)
	}
	s.logger.Info("dashboard exported to sheet", zap.String("range", string(rng)), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// TakeSnapshot archives today's barn and feed statistics.
func (s *Service) TakeSnapshot(ctx context.Context) (models.DailySnapshot, error) {
	if s.archive == nil {
		return models.DailySnapshot{}, ErrArchiveDisabled
	}
	barns, err := s.barns.List(ctx, models.BarnFilter{})
	if err != nil {
		return models.DailySnapshot{}, fmt.Errorf("load snapshot barns: %w", err)
	}
	feedStats, err := s.feed.Statistics(ctx)
	if err != nil {
		return models.DailySnapshot{}, fmt.Errorf("load snapshot feed: %w", err)
	}

	now := s.now().In(s.location)
	snapshot := models.NewDailySnapshot(now, models.ComputeBarnStatistics(barns), feedStats, now)
	if err := s.archive.SaveDailySnapshot(ctx, snapshot); err != nil {
		return models.DailySnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Info("daily snapshot archived", zap.Time("date", snapshot.Date), zap.Int("barns", snapshot.TotalBarns))
	return snapshot, nil
}

// Snapshots lists archived snapshots, newest first.
func (s *Service) Snapshots(ctx context.Context, limit int) ([]models.DailySnapshot, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	out, err := s.archive.ListSnapshots(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
