package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createRun = `INSERT INTO runs (id, source, origin, scraped_at, record_count)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateRun(ctx context.Context, arg Run) error {
	_, err := q.db.ExecContext(ctx, createRun,
		arg.ID,
		arg.Source,
		arg.Origin,
		arg.ScrapedAt,
		arg.RecordCount,
	)
	return err
}

// the same track can only appear once per run, later rows win
const createUpload = `INSERT INTO uploads (run_id, track_id, uploader, artist, title)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (run_id, track_id) DO UPDATE SET
    uploader = excluded.uploader,
    artist = excluded.artist,
    title = excluded.title`

func (q *Queries) CreateUpload(ctx context.Context, arg Upload) error {
	_, err := q.db.ExecContext(ctx, createUpload,
		arg.RunID,
		arg.TrackID,
		arg.Uploader,
		arg.Artist,
		arg.Title,
	)
	return err
}

const listRuns = `SELECT id, source, origin, scraped_at, record_count FROM runs
ORDER BY scraped_at DESC, rowid DESC
LIMIT ?`

func (q *Queries) ListRuns(ctx context.Context, limit int64) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(
			&i.ID,
			&i.Source,
			&i.Origin,
			&i.ScrapedAt,
			&i.RecordCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRunUploads = `SELECT run_id, track_id, uploader, artist, title FROM uploads
WHERE run_id = ?
ORDER BY track_id ASC`

func (q *Queries) GetRunUploads(ctx context.Context, runID string) ([]Upload, error) {
	rows, err := q.db.QueryContext(ctx, getRunUploads, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Upload
	for rows.Next() {
		var i Upload
		if err := rows.Scan(
			&i.RunID,
			&i.TrackID,
			&i.Uploader,
			&i.Artist,
			&i.Title,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
