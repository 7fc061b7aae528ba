package ioformats

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// RunRecord is one completed planning run's summary, persisted to the
// history store for operator queries across runs.
type RunRecord struct {
	RunID            string
	NetworkName      string
	RequestsAccepted int
	RequestsDenied   int
	KmTravelledTotal float64
	IntegralityGap   float64
	ElapsedSeconds   float64
}

// HistoryStore is a tiny embedded run-history log, grounded in
// tidbyt-gtfs's sqlite storage backend and scoped down to one table.
type HistoryStore struct {
	db *sql.DB
}

// OpenHistoryStore opens (creating if necessary) the sqlite database at
// path and ensures the run table exists.
func OpenHistoryStore(path string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening history store %q", path)
	}
	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS run (
	run_id TEXT PRIMARY KEY,
	network_name TEXT NOT NULL,
	requests_accepted INTEGER NOT NULL,
	requests_denied INTEGER NOT NULL,
	km_travelled_total REAL NOT NULL,
	integrality_gap REAL NOT NULL,
	elapsed_seconds REAL NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating run table")
	}
	return &HistoryStore{db: db}, nil
}

// Close releases the underlying database handle.
func (h *HistoryStore) Close() error { return h.db.Close() }

// Append inserts one run record.
func (h *HistoryStore) Append(r RunRecord) error {
	_, err := h.db.Exec(
		`INSERT INTO run (run_id, network_name, requests_accepted, requests_denied, km_travelled_total, integrality_gap, elapsed_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.NetworkName, r.RequestsAccepted, r.RequestsDenied, r.KmTravelledTotal, r.IntegralityGap, r.ElapsedSeconds,
	)
	if err != nil {
		return errors.Wrapf(err, "appending run record %q", r.RunID)
	}
	return nil
}

// Recent returns the most recently inserted run records, newest first.
func (h *HistoryStore) Recent(limit int) ([]RunRecord, error) {
	rows, err := h.db.Query(
		`SELECT run_id, network_name, requests_accepted, requests_denied, km_travelled_total, integrality_gap, elapsed_seconds
		 FROM run ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying recent runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.NetworkName, &r.RequestsAccepted, &r.RequestsDenied, &r.KmTravelledTotal, &r.IntegralityGap, &r.ElapsedSeconds); err != nil {
			return nil, errors.Wrap(err, "scanning run record")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ByID looks up a single run by id, returning (zero, false, nil) if absent.
func (h *HistoryStore) ByID(runID string) (RunRecord, bool, error) {
	var r RunRecord
	err := h.db.QueryRow(
		`SELECT run_id, network_name, requests_accepted, requests_denied, km_travelled_total, integrality_gap, elapsed_seconds
		 FROM run WHERE run_id = ?`, runID,
	).Scan(&r.RunID, &r.NetworkName, &r.RequestsAccepted, &r.RequestsDenied, &r.KmTravelledTotal, &r.IntegralityGap, &r.ElapsedSeconds)
	if err == sql.ErrNoRows {
		return RunRecord{}, false, nil
	}
	if err != nil {
		return RunRecord{}, false, errors.Wrapf(err, "looking up run %q", runID)
	}
	return r, true, nil
}
