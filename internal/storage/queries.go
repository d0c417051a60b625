package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL statements of the ledger.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries { return &Queries{db: db} }

func (q *Queries) WithTx(tx *sql.Tx) *Queries { return &Queries{db: tx} }

const createRun = `INSERT INTO runs (started_at, test_mode) VALUES (?, ?)`

func (q *Queries) CreateRun(ctx context.Context, startedAt string, testMode bool) (int64, error) {
	res, err := q.db.ExecContext(ctx, createRun, startedAt, testMode)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const finishRun = `UPDATE runs SET finished_at = ?, counts = ? WHERE id = ?`

func (q *Queries) FinishRun(ctx context.Context, id int64, finishedAt, counts string) (int64, error) {
	res, err := q.db.ExecContext(ctx, finishRun, finishedAt, counts, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getRun = `SELECT id, started_at, COALESCE(finished_at, ''), test_mode, counts FROM runs WHERE id = ?`

type RunRow struct {
	ID         int64
	StartedAt  string
	FinishedAt string
	TestMode   bool
	Counts     string
}

func (q *Queries) GetRun(ctx context.Context, id int64) (RunRow, error) {
	var r RunRow
	err := q.db.QueryRowContext(ctx, getRun, id).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.TestMode, &r.Counts)
	return r, err
}

const deletePeriodEntries = `DELETE FROM ledger_entries WHERE period = ?`

func (q *Queries) DeletePeriodEntries(ctx context.Context, period string) error {
	_, err := q.db.ExecContext(ctx, deletePeriodEntries, period)
	return err
}

const insertEntry = `INSERT INTO ledger_entries (period, channel_id, report_type, amount, run_id) VALUES (?, ?, ?, ?, ?)`

type EntryRow struct {
	Period     string
	ChannelID  string
	ReportType string
	Amount     string
	RunID      int64
}

func (q *Queries) InsertEntry(ctx context.Context, e EntryRow) error {
	_, err := q.db.ExecContext(ctx, insertEntry, e.Period, e.ChannelID, e.ReportType, e.Amount, e.RunID)
	return err
}

const listPeriodEntries = `SELECT period, channel_id, report_type, amount, run_id FROM ledger_entries
WHERE period = ? ORDER BY channel_id, report_type`

func (q *Queries) ListPeriodEntries(ctx context.Context, period string) ([]EntryRow, error) {
	rows, err := q.db.QueryContext(ctx, listPeriodEntries, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EntryRow
	for rows.Next() {
		var e EntryRow
		if err := rows.Scan(&e.Period, &e.ChannelID, &e.ReportType, &e.Amount, &e.RunID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const upsertChannel = `INSERT INTO channels (channel_id, name, updated_at) VALUES (?, ?, ?)
ON CONFLICT(channel_id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`

func (q *Queries) UpsertChannel(ctx context.Context, id, name, updatedAt string) error {
	_, err := q.db.ExecContext(ctx, upsertChannel, id, name, updatedAt)
	return err
}

type ChannelRow struct {
	ChannelID string
	Name      string
}

const listChannels = `SELECT channel_id, name FROM channels ORDER BY channel_id`

func (q *Queries) ListChannels(ctx context.Context) ([]ChannelRow, error) {
	rows, err := q.db.QueryContext(ctx, listChannels)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ChannelRow
	for rows.Next() {
		var c ChannelRow
		if err := rows.Scan(&c.ChannelID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
