package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    method TEXT NOT NULL,
    samples INTEGER NOT NULL,
    failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS outcomes (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    scenario TEXT NOT NULL,
    power_mode TEXT NOT NULL,
    coherence REAL NOT NULL,
    dwelling REAL NOT NULL,
    power REAL NOT NULL,
    regime TEXT NOT NULL,
    PRIMARY KEY (run_id, scenario)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

func indexRun(ctx context.Context, db *sql.DB, meta *RunMetadata) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, label, created_at, method, samples, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Label, meta.Timestamp.UTC().Format(timeLayout), meta.Method, meta.Grid.Samples, len(meta.Failed))
	if err != nil {
		return fmt.Errorf("failed to index run: %w", err)
	}

	for i, sc := range meta.Scenarios {
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO outcomes (run_id, position, scenario, power_mode, coherence, dwelling, power, regime) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			meta.ID, i, sc.Name, sc.Power, sc.FinalCoherence, sc.FinalDwelling, sc.FinalPower, sc.Regime)
		if err != nil {
			return fmt.Errorf("failed to index scenario %s: %w", sc.Name, err)
		}
	}
	return tx.Commit()
}

// OutcomeRow is the indexed summary of one scenario.
type OutcomeRow struct {
	Scenario  string
	PowerMode string
	Coherence float64
	Dwelling  float64
	Power     float64
	Regime    string
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID        string
	Label     string
	Timestamp time.Time
	Method    string
	Samples   int
	Failed    int
	Outcomes  []OutcomeRow
}

// List returns indexed runs, newest first.
func (s *Store) List(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, created_at, method, samples, failed FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	byID := make(map[string]int)
	for rows.Next() {
		var r RunSummary
		var created string
		if err := rows.Scan(&r.ID, &r.Label, &created, &r.Method, &r.Samples, &r.Failed); err != nil {
			return nil, err
		}
		if r.Timestamp, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("run %s: bad timestamp %q: %w", r.ID, created, err)
		}
		byID[r.ID] = len(runs)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	orows, err := s.db.QueryContext(ctx,
		`SELECT run_id, scenario, power_mode, coherence, dwelling, power, regime FROM outcomes ORDER BY run_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer orows.Close()

	for orows.Next() {
		var runID string
		var o OutcomeRow
		if err := orows.Scan(&runID, &o.Scenario, &o.PowerMode, &o.Coherence, &o.Dwelling, &o.Power, &o.Regime); err != nil {
			return nil, err
		}
		if i, ok := byID[runID]; ok {
			runs[i].Outcomes = append(runs[i].Outcomes, o)
		}
	}
	return runs, orows.Err()
}

// Resolve expands a unique id prefix to a full run id.
func (s *Store) Resolve(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escaped+"%")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	ids := make([]string, 0, 2)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
	}
}

// Reindex rebuilds the index from the run directories on disk. Directories
// without readable metadata are skipped. It returns the number of runs
// indexed.
func (s *Store) Reindex(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return 0, fmt.Errorf("failed to clear index: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := readMetadata(filepath.Join(s.baseDir, entry.Name(), metadataFile))
		if err != nil {
			continue
		}
		if meta.ID != entry.Name() {
			continue
		}
		if err := indexRun(ctx, s.db, meta); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
