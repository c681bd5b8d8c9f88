// Package store persists extraction runs to sqlite. The engine itself never writes anything,
// storing a result is always the caller's decision.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"shuassist-backend/internal/components/assert"
	"shuassist-backend/internal/components/chrono"
	"shuassist-backend/internal/extract"
	"shuassist-backend/internal/extract/record"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens (and creates when missing) a sqlite database and applies the schema.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		err := os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// sqlite only supports a single writer
	db.SetMaxOpenConns(1)
	err = setup(db)
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}
	return db, nil
}

func setup(db *sql.DB) error {
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		Schema,
	} {
		_, err := db.Exec(stmt)
		if err != nil {
			return err
		}
	}
	return nil
}

type Store struct {
	db    *sql.DB
	clock chrono.API
}

func NewStore(database *sql.DB, clock chrono.API) Store {
	assert.NotNil(database)
	assert.NotNil(clock)
	return Store{db: database, clock: clock}
}

// Run is the stored header of one extraction run.
type Run struct {
	ID          string
	Kind        string
	Outcome     string
	Strategy    string
	Records     int
	Summaries   int
	Skipped     int
	Diagnostics int
	CreatedAt   time.Time
}

// SaveRun stores the result of one run and returns the id assigned to it.
func (s Store) SaveRun(ctx context.Context, kind string, res extract.Result) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`insert into extraction_run (id, kind, outcome, strategy, skipped, diagnostics, created_at)
		values (?, ?, ?, ?, ?, ?, ?)`,
		id, kind, res.Outcome.String(), res.Strategy, res.Skipped, len(res.Diagnostics),
		s.clock.Now().Unix(),
	)
	if err != nil {
		return "", err
	}

	for i, r := range res.Records {
		err = insertRecord(ctx, tx, id, false, i, r, "")
		if err != nil {
			return "", err
		}
	}
	for i, summary := range res.Summaries {
		err = insertRecord(ctx, tx, id, true, i, summary.Record, summary.SubPeriod)
		if err != nil {
			return "", err
		}
	}

	err = tx.Commit()
	if err != nil {
		return "", err
	}
	return id, nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, runID string, isSummary bool, idx int, r record.Record, subPeriod string) error {
	_, err := tx.ExecContext(
		ctx,
		`insert into extracted_record (run_id, idx, is_summary, section, sub_period)
		values (?, ?, ?, ?, ?)`,
		runID, idx, isSummary, r.Section, subPeriod,
	)
	if err != nil {
		return err
	}
	for position, f := range r.Fields {
		_, err = tx.ExecContext(
			ctx,
			`insert into extracted_field (
				run_id, is_summary, record_idx, position, name,
				value_kind, value_text, value_int, value_float
			) values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, isSummary, idx, position, f.Name,
			int(f.Value.Kind), f.Value.Str, f.Value.Int, f.Value.Float,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Runs lists the stored runs, newest first.
func (s Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		select
			r.id, r.kind, r.outcome, r.strategy, r.skipped, r.diagnostics, r.created_at,
			(select count(*) from extracted_record e where e.run_id = r.id and e.is_summary = 0),
			(select count(*) from extracted_record e where e.run_id = r.id and e.is_summary = 1)
		from extraction_run r
		order by r.created_at desc, r.rowid desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt int64
		err = rows.Scan(
			&run.ID, &run.Kind, &run.Outcome, &run.Strategy, &run.Skipped, &run.Diagnostics, &createdAt,
			&run.Records, &run.Summaries,
		)
		if err != nil {
			return nil, err
		}
		run.CreatedAt = time.Unix(createdAt, 0).In(s.clock.Location())
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type storedRecord struct {
	record.Record
	subPeriod string
}

func (s Store) load(ctx context.Context, runID string, isSummary bool) ([]storedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.idx, r.section, r.sub_period, f.name, f.value_kind, f.value_text, f.value_int, f.value_float
		from extracted_record r
		left join extracted_field f
			on f.run_id = r.run_id and f.is_summary = r.is_summary and f.record_idx = r.idx
		where r.run_id = ? and r.is_summary = ?
		order by r.idx, f.position`,
		runID, isSummary,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storedRecord
	last := -1
	for rows.Next() {
		var idx int
		var section, subPeriod string
		var name, text sql.NullString
		var kind, integer sql.NullInt64
		var float sql.NullFloat64
		err = rows.Scan(&idx, &section, &subPeriod, &name, &kind, &text, &integer, &float)
		if err != nil {
			return nil, err
		}
		if idx != last {
			out = append(out, storedRecord{Record: record.Record{Section: section}, subPeriod: subPeriod})
			last = idx
		}
		if !name.Valid {
			continue
		}
		current := &out[len(out)-1]
		current.Fields = append(current.Fields, record.Field{
			Name: name.String,
			Value: record.Value{
				Kind:  record.ValueKind(kind.Int64),
				Str:   text.String,
				Int:   integer.Int64,
				Float: float.Float64,
			},
		})
	}
	return out, rows.Err()
}

// Records loads the records of a run in discovery order.
func (s Store) Records(ctx context.Context, runID string) ([]record.Record, error) {
	stored, err := s.load(ctx, runID, false)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, len(stored))
	for i, r := range stored {
		out[i] = r.Record
	}
	return out, nil
}

// Summaries loads the summary records of a run in the order they were stored.
func (s Store) Summaries(ctx context.Context, runID string) ([]record.SummaryRecord, error) {
	stored, err := s.load(ctx, runID, true)
	if err != nil {
		return nil, err
	}
	out := make([]record.SummaryRecord, len(stored))
	for i, r := range stored {
		out[i] = record.SummaryRecord{Record: r.Record, SubPeriod: r.subPeriod}
	}
	return out, nil
}
