package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ytearnings/internal/core"
	"ytearnings/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the canonical ledger: the aggregates behind every
// published tab, the channel directory and one record per run.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

// Run is a stored run record.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	TestMode   bool
	Counts     map[string]int
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db, queries: New(db), now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) StartRun(ctx context.Context, testMode bool) (int64, error) {
	id, err := r.queries.CreateRun(ctx, r.now().UTC().Format(time.RFC3339), testMode)
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	slog.DebugContext(ctx, "Ledger run started", "run_id", id)
	return id, nil
}

func (r *SQLiteRepository) FinishRun(ctx context.Context, runID int64, summary *core.RunSummary) error {
	counts := map[string]int{}
	for _, c := range summary.Counts() {
		counts[c.Name] = c.Count
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	n, err := r.queries.FinishRun(ctx, runID, r.now().UTC().Format(time.RFC3339), string(raw))
	if err != nil {
		return fmt.Errorf("finish run %d: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %d: %w", runID, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) GetRun(ctx context.Context, runID int64) (Run, error) {
	row, err := r.queries.GetRun(ctx, runID)
	if err != nil {
		return Run{}, fmt.Errorf("get run %d: %w", runID, err)
	}
	run := Run{ID: row.ID, TestMode: row.TestMode, Counts: map[string]int{}}
	run.StartedAt, _ = time.Parse(time.RFC3339, row.StartedAt)
	if row.FinishedAt != "" {
		run.FinishedAt, _ = time.Parse(time.RFC3339, row.FinishedAt)
	}
	if err := json.Unmarshal([]byte(row.Counts), &run.Counts); err != nil {
		return Run{}, fmt.Errorf("decode counts: %w", err)
	}
	return run, nil
}

// ReplacePeriod swaps the stored aggregates of period for entries in one
// transaction, mirroring the overwrite of the period tab.
func (r *SQLiteRepository) ReplacePeriod(ctx context.Context, runID int64, period core.Period, entries []ledger.Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	key := period.String()
	if err := q.DeletePeriodEntries(ctx, key); err != nil {
		return fmt.Errorf("delete period %s: %w", key, err)
	}
	for _, e := range entries {
		if e.Key.Period != period {
			continue
		}
		err := q.InsertEntry(ctx, EntryRow{
			Period:     key,
			ChannelID:  e.Key.ChannelID,
			ReportType: string(e.Key.Type),
			Amount:     e.Amount.String(),
			RunID:      runID,
		})
		if err != nil {
			return fmt.Errorf("insert entry %s/%s: %w", e.Key.ChannelID, e.Key.Type, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit period %s: %w", key, err)
	}
	return nil
}

// SaveDirectory upserts every named channel. Channels without a known name
// are not stored, so a stored name is never replaced by a blank.
func (r *SQLiteRepository) SaveDirectory(ctx context.Context, dir *ledger.Directory) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	now := r.now().UTC().Format(time.RFC3339)
	for _, id := range dir.IDs() {
		name, ok := dir.Name(id)
		if !ok || name == "" {
			continue
		}
		if err := q.UpsertChannel(ctx, id, name, now); err != nil {
			return fmt.Errorf("upsert channel %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// LoadDirectory seeds dir with the stored channel names. Seeded names only
// fill gaps; names observed in the current run still take precedence.
func (r *SQLiteRepository) LoadDirectory(ctx context.Context, dir *ledger.Directory) error {
	rows, err := r.queries.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	for _, c := range rows {
		dir.Seed(c.ChannelID, c.Name)
	}
	slog.DebugContext(ctx, "Channel directory loaded", "channels", len(rows))
	return nil
}
