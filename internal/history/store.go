// Package history keeps a record of generated reports and their inputs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // SQLite driver.
)

var ErrNotFound = errors.New("run not found")

// Input kinds stored per run.
const (
	KindHours = "hours"
	KindTips  = "tips"
)

// Run is one generated report.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Source     string
	HoursName  string
	TipsName   string
	OutputName string

	Employees    int
	TotalHours   float64
	TipsIncluded bool

	LunchTips         decimal.Decimal
	DinnerGeneralTips decimal.Decimal
	DinnerServerTips  decimal.Decimal
	GrandTotal        decimal.Decimal
}

// Input is an uploaded or local input file as it was read for a run.
type Input struct {
	Name string
	Data []byte
}

type storedInput struct {
	kind  string
	input Input
}

// createdAt is stored fixed-width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for run history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps SQLite writes serialised within the process.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			source TEXT NOT NULL,
			hours_name TEXT NOT NULL,
			tips_name TEXT NOT NULL,
			output_name TEXT NOT NULL,
			employees INTEGER NOT NULL,
			total_hours REAL NOT NULL,
			tips_included INTEGER NOT NULL,
			lunch_tips TEXT NOT NULL,
			dinner_general_tips TEXT NOT NULL,
			dinner_server_tips TEXT NOT NULL,
			grand_total TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_inputs (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			size INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (run_id, kind)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record stores run with its inputs, compressed. The returned run carries
// the assigned id and timestamp. tips may be nil.
func (s *Store) Record(ctx context.Context, run Run, hours Input, tips *Input) (Run, error) {
	run.ID = uuid.NewString()
	run.CreatedAt = s.now().UTC()

	inputs := []storedInput{{KindHours, hours}}
	if tips != nil {
		inputs = append(inputs, storedInput{KindTips, *tips})
	}
	compressed := make([][]byte, len(inputs))
	for i, in := range inputs {
		data, err := compress(in.input.Data)
		if err != nil {
			return Run{}, fmt.Errorf("compress %s input: %w", in.kind, err)
		}
		compressed[i] = data
	}

	err := withSQLiteRetry(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, created_at, source, hours_name, tips_name, output_name, employees, total_hours, tips_included, lunch_tips, dinner_general_tips, dinner_server_tips, grand_total)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.CreatedAt.Format(timeLayout),
			run.Source,
			run.HoursName,
			run.TipsName,
			run.OutputName,
			run.Employees,
			run.TotalHours,
			run.TipsIncluded,
			run.LunchTips.String(),
			run.DinnerGeneralTips.String(),
			run.DinnerServerTips.String(),
			run.GrandTotal.String(),
		); err != nil {
			return err
		}
		for i, in := range inputs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_inputs (run_id, kind, name, size, data) VALUES (?, ?, ?, ?, ?)`,
				run.ID, in.kind, in.input.Name, len(in.input.Data), compressed[i],
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

const runColumns = `id, created_at, source, hours_name, tips_name, output_name, employees, total_hours, tips_included, lunch_tips, dinner_general_tips, dinner_server_tips, grand_total`

// List returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Get finds a run by id or by an unambiguous id prefix.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2`,
		len(id), id)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("run id %q is ambiguous", id)
	}
}

// Inputs returns the decompressed inputs stored for a run. tips is nil when
// the run had no tip summary.
func (s *Store) Inputs(ctx context.Context, runID string) (Input, *Input, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, name, data FROM run_inputs WHERE run_id = ?`, runID)
	if err != nil {
		return Input{}, nil, err
	}
	defer rows.Close()

	var (
		hours    Input
		tips     *Input
		hasHours bool
	)
	for rows.Next() {
		var kind, name string
		var data []byte
		if err := rows.Scan(&kind, &name, &data); err != nil {
			return Input{}, nil, err
		}
		raw, err := decompress(data)
		if err != nil {
			return Input{}, nil, fmt.Errorf("decompress %s input: %w", kind, err)
		}
		switch kind {
		case KindHours:
			hours = Input{Name: name, Data: raw}
			hasHours = true
		case KindTips:
			tips = &Input{Name: name, Data: raw}
		}
	}
	if err := rows.Err(); err != nil {
		return Input{}, nil, err
	}
	if !hasHours {
		return Input{}, nil, ErrNotFound
	}
	return hours, tips, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                                   Run
		createdAt                             string
		lunch, dinnerGeneral, dinnerServer, g string
	)
	if err := row.Scan(
		&run.ID,
		&createdAt,
		&run.Source,
		&run.HoursName,
		&run.TipsName,
		&run.OutputName,
		&run.Employees,
		&run.TotalHours,
		&run.TipsIncluded,
		&lunch,
		&dinnerGeneral,
		&dinnerServer,
		&g,
	); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = t
	for _, field := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{lunch, &run.LunchTips},
		{dinnerGeneral, &run.DinnerGeneralTips},
		{dinnerServer, &run.DinnerServerTips},
		{g, &run.GrandTotal},
	} {
		d, err := decimal.NewFromString(field.raw)
		if err != nil {
			return Run{}, fmt.Errorf("parse stored amount: %w", err)
		}
		*field.dst = d
	}
	return run, nil
}

func withSQLiteRetry(fn func() error) error {
	const maxAttempts = 3
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		lower := strings.ToLower(err.Error())
		if !strings.Contains(lower, "database is locked") && !strings.Contains(lower, "database is busy") {
			return err
		}
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt) * 125 * time.Millisecond)
		}
	}
	return err
}
