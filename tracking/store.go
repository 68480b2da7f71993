package tracking

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS step_values (
	run TEXT NOT NULL,
	step INTEGER NOT NULL,
	name TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run, step, name)
);
CREATE TABLE IF NOT EXISTS epoch_values (
	run TEXT NOT NULL,
	epoch INTEGER NOT NULL,
	name TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run, epoch, name)
);
`

// Store keeps every tracked value in a SQLite database. Each Store is one run, identified
// by a random ID; several runs can share a database.
type Store struct {
	db  *sql.DB
	run string
}

// OpenStore opens (or creates) the database at 'path' and starts a new run in it.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrapf(err, "Can't create directory for %q", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open database %q", path)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "Can't create tables in %q", path)
	}

	s := &Store{db: db, run: uuid.NewString()}
	if _, err := db.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`, s.run, time.Now().UTC()); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "Can't record run in %q", path)
	}

	return s, nil
}

// Run returns the ID of the run being recorded
func (s *Store) Run() string {
	return s.run
}

// RecordStep stores the values of one training step
func (s *Store) RecordStep(step int, values map[string]float64) error {
	return s.record(`INSERT OR REPLACE INTO step_values (run, step, name, value) VALUES (?, ?, ?, ?)`, step, values)
}

// RecordEpoch stores the means of one epoch
func (s *Store) RecordEpoch(epoch int, values map[string]float64) error {
	return s.record(`INSERT OR REPLACE INTO epoch_values (run, epoch, name, value) VALUES (?, ?, ?, ?)`, epoch, values)
}

func (s *Store) record(query string, index int, values map[string]float64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "Can't begin transaction")
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "Can't prepare insert")
	}
	defer stmt.Close()

	for name, v := range values {
		if _, err := stmt.Exec(s.run, index, name, v); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "Can't record %q at %d", name, index)
		}
	}

	return errors.Wrap(tx.Commit(), "Can't commit values")
}

// Steps returns the values of 'name' for every recorded step of a run, in order
func (s *Store) Steps(run, name string) ([]float64, error) {
	return s.values(`SELECT value FROM step_values WHERE run = ? AND name = ? ORDER BY step`, run, name)
}

// Epochs returns the per-epoch means of 'name' for a run, in order
func (s *Store) Epochs(run, name string) ([]float64, error) {
	return s.values(`SELECT value FROM epoch_values WHERE run = ? AND name = ? ORDER BY epoch`, run, name)
}

func (s *Store) values(query, run, name string) ([]float64, error) {
	rows, err := s.db.Query(query, run, name)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't query %q", name)
	}
	defer rows.Close()

	var vs []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrapf(err, "Can't read %q", name)
		}
		vs = append(vs, v)
	}
	return vs, errors.Wrapf(rows.Err(), "Can't read %q", name)
}

// Runs returns the IDs of every run in the database, oldest first
func (s *Store) Runs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM runs ORDER BY started_at, rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "Can't query runs")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "Can't read run")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "Can't read runs")
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
