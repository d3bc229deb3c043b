package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/mamadbah2/telurku/internal/domain/models"
)

func TestSnapshotRepository(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := NewSnapshotRepository(ctx, uri, "telurku_test")
	if err != nil {
		t.Fatalf("NewSnapshotRepository() error = %v", err)
	}
	defer repo.Close(ctx)
	_ = repo.collection().Drop(ctx)

	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	first := models.DailySnapshot{Date: day, TotalBarns: 3, CreatedAt: day}
	second := models.DailySnapshot{Date: day, TotalBarns: 4, CreatedAt: day.Add(time.Hour)}

	if err := repo.SaveDailySnapshot(ctx, first); err != nil {
		t.Fatalf("SaveDailySnapshot() error = %v", err)
	}
	if err := repo.SaveDailySnapshot(ctx, second); err != nil {
		t.Fatalf("SaveDailySnapshot() error = %v", err)
	}

	got, err := repo.ListSnapshots(ctx, 10)
	if err != nil {
		t.Fatalf("ListSnapshots() error = %v", err)
	}
	if len(got) != 1 || got[0].TotalBarns != 4 {
		t.Errorf("snapshots = %+v, want one upserted snapshot", got)
	}
}
