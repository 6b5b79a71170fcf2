package storage

import (
	"database/sql"
)

// Run is one batch invocation.
type Run struct {
	RunID      string
	StartedAt  string
	FinishedAt string
	Processed  int
	Skipped    int
	Failed     int
}

// StartRun records the start of a batch run.
func (db *DB) StartRun(runID, startedAt string) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO runs(run_id, started_at) VALUES (?, ?)`, runID, startedAt)
	return err
}

// FinishRun stores the final tallies of a batch run.
func (db *DB) FinishRun(r Run) error {
	_, err := db.conn.Exec(`
		UPDATE runs SET finished_at = ?, processed = ?, skipped = ?, failed = ?
		WHERE run_id = ?`,
		r.FinishedAt, r.Processed, r.Skipped, r.Failed, r.RunID)
	return err
}

// LatestRun returns the most recently started run, or nil when none exists.
func (db *DB) LatestRun() (*Run, error) {
	var r Run
	err := db.conn.QueryRow(`
		SELECT run_id, started_at, finished_at, processed, skipped, failed
		FROM runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Processed, &r.Skipped, &r.Failed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
