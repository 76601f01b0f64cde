package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/transitloop/sim/internal/config"
)

// openTestDB connects to TRANSITSIM_TEST_DSN or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TRANSITSIM_TEST_DSN")
	if dsn == "" {
		t.Skip("TRANSITSIM_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := NewDB(ctx, config.LedgerConfig{DSN: dsn, MaxOpenConns: 2}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(db.Close)
	if err := RunMigrations(ctx, db.Pool); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	return db
}

func TestJourneyRepoRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewJourneyRepo(db)

	if err := repo.InsertJourneys(ctx, []JourneyRow{{Passenger: 1}}); err == nil {
		t.Fatal("insert before StartRun must fail")
	}
	if _, err := repo.StartRun(ctx, 7, 2, 1); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	rows := []JourneyRow{
		{Passenger: 1, Origin: 0, Destination: 1, SpawnedAt: 0, BoardedAt: 5, CompletedAt: 30},
		{Passenger: 2, Origin: 0, Destination: 1, SpawnedAt: 10, BoardedAt: 12, CompletedAt: 50},
		{Passenger: 3, Origin: 1, Destination: 0, SpawnedAt: 0, BoardedAt: 1, CompletedAt: 20},
	}
	if err := repo.InsertJourneys(ctx, rows); err != nil {
		t.Fatalf("InsertJourneys: %v", err)
	}
	stats, err := repo.RouteStats(ctx)
	if err != nil {
		t.Fatalf("RouteStats: %v", err)
	}
	if len(stats) != 2 || stats[0].Count != 2 || stats[0].AvgSeconds != 35 {
		t.Fatalf("stats = %+v", stats)
	}
	if err := repo.FinishRun(ctx, 100); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if v, err := SchemaVersion(ctx, db.Pool); err != nil || v < 1 {
		t.Fatalf("SchemaVersion = %d, %v", v, err)
	}
}
