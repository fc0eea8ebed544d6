// Package history keeps every extracted set of records in a database so
// earlier reports can be recovered after the report file is overwritten.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marietje-uploads/internal/components/assert"
	"marietje-uploads/internal/components/chrono"
	"marietje-uploads/internal/components/telemetry"
	"marietje-uploads/internal/db"
	"marietje-uploads/internal/report"
	"marietje-uploads/internal/uploads"

	"github.com/google/uuid"
)

const (
	report_store_save   = "store.save"
	report_store_latest = "store.latest"
)

// ErrNoRuns is returned by Latest when nothing has been saved yet.
var ErrNoRuns = errors.New("no runs recorded")

type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	time   chrono.API
	tel    telemetry.API
}

func NewStore(database *sql.DB, time chrono.API, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(time)
	assert.NotNil(tel)

	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		time:   time,
		tel:    telemetry.NewScopedAPI("history", tel),
	}
}

// Save records a run and its records in one transaction. Records with the
// same track id are deduplicated the same way the report does it.
func (s Store) Save(ctx context.Context, source db.Source, origin string, records []uploads.Record) (db.Run, error) {
	saveError := func(err error) error {
		s.tel.ReportBroken(report_store_save, err)
		return fmt.Errorf("save run: %w", err)
	}

	deduped := report.Sorted(records)
	run := db.Run{
		ID:          uuid.NewString(),
		Source:      source,
		Origin:      origin,
		ScrapedAt:   s.time.Now().Unix(),
		RecordCount: int64(len(deduped)),
	}

	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return db.Run{}, saveError(fmt.Errorf("begin: %w", err))
	}
	defer discard()

	err = txqry.CreateRun(ctx, run)
	if err != nil {
		return db.Run{}, saveError(fmt.Errorf("create run: %w", err))
	}
	for _, r := range deduped {
		err = txqry.CreateUpload(ctx, db.Upload{
			RunID:    run.ID,
			TrackID:  r.ID,
			Uploader: r.Uploader,
			Artist:   r.Artist,
			Title:    r.Title,
		})
		if err != nil {
			return db.Run{}, saveError(fmt.Errorf("create upload %d: %w", r.ID, err))
		}
	}

	err = commit()
	if err != nil {
		return db.Run{}, saveError(fmt.Errorf("commit: %w", err))
	}

	s.tel.ReportDebug("saved run", run.ID, run.RecordCount)
	return run, nil
}

// Runs lists the most recent runs first.
func (s Store) Runs(ctx context.Context, limit int64) ([]db.Run, error) {
	return s.qry.ListRuns(ctx, limit)
}

// Latest returns the records of the most recent run ordered by track id.
func (s Store) Latest(ctx context.Context) (db.Run, []uploads.Record, error) {
	runs, err := s.qry.ListRuns(ctx, 1)
	if err != nil {
		s.tel.ReportBroken(report_store_latest, fmt.Errorf("list runs: %w", err))
		return db.Run{}, nil, err
	}
	if len(runs) == 0 {
		return db.Run{}, nil, ErrNoRuns
	}
	run := runs[0]

	rows, err := s.qry.GetRunUploads(ctx, run.ID)
	if err != nil {
		s.tel.ReportBroken(report_store_latest, fmt.Errorf("get uploads: %w", err), run.ID)
		return db.Run{}, nil, err
	}

	records := make([]uploads.Record, len(rows))
	for i, row := range rows {
		records[i] = uploads.Record{
			ID:       row.TrackID,
			Uploader: row.Uploader,
			Artist:   row.Artist,
			Title:    row.Title,
		}
	}
	return run, records, nil
}
