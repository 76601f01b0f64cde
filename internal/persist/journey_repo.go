package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// JourneyRow is one completed passenger trip. Times are simulated seconds.
type JourneyRow struct {
	Passenger   uint64
	Origin      int
	Destination int
	SpawnedAt   float64
	BoardedAt   float64
	CompletedAt float64
}

// RouteStat aggregates the journeys between two stations.
type RouteStat struct {
	Origin      int
	Destination int
	Count       int64
	AvgSeconds  float64
}

type JourneyRepo struct {
	db    *DB
	runID int64
}

func NewJourneyRepo(db *DB) *JourneyRepo {
	return &JourneyRepo{db: db}
}

// StartRun records a new simulation run; later inserts are tagged with it.
func (r *JourneyRepo) StartRun(ctx context.Context, seed int64, stations, trains int) (int64, error) {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO sim_runs (seed, stations, trains) VALUES ($1, $2, $3) RETURNING id`,
		seed, stations, trains,
	).Scan(&r.runID)
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return r.runID, nil
}

// FinishRun stamps the run with its end time and tick count.
func (r *JourneyRepo) FinishRun(ctx context.Context, ticks uint64) error {
	if r.runID == 0 {
		return nil
	}
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE sim_runs SET finished_at = now(), ticks = $2 WHERE id = $1`,
		r.runID, int64(ticks),
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", r.runID, err)
	}
	return nil
}

// InsertJourneys writes rows in one transaction using a pipelined batch.
func (r *JourneyRepo) InsertJourneys(ctx context.Context, rows []JourneyRow) error {
	if len(rows) == 0 {
		return nil
	}
	if r.runID == 0 {
		return fmt.Errorf("insert journeys: no run started")
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journeys begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, j := range rows {
		batch.Queue(
			`INSERT INTO journeys (run_id, passenger, origin, destination, spawned_at, boarded_at, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.runID, int64(j.Passenger), j.Origin, j.Destination, j.SpawnedAt, j.BoardedAt, j.CompletedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("journeys insert: %w", err)
	}
	return tx.Commit(ctx)
}

// RouteStats summarises the current run per origin/destination pair.
func (r *JourneyRepo) RouteStats(ctx context.Context) ([]RouteStat, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT origin, destination, count(*), avg(completed_at - spawned_at)
		 FROM journeys WHERE run_id = $1
		 GROUP BY origin, destination ORDER BY origin, destination`,
		r.runID,
	)
	if err != nil {
		return nil, fmt.Errorf("route stats: %w", err)
	}
	defer rows.Close()

	var out []RouteStat
	for rows.Next() {
		var s RouteStat
		if err := rows.Scan(&s.Origin, &s.Destination, &s.Count, &s.AvgSeconds); err != nil {
			return nil, fmt.Errorf("scan route stat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
