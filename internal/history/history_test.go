package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"marietje-uploads/internal/components/chrono"
	"marietje-uploads/internal/components/telemetry"
	"marietje-uploads/internal/db"
	"marietje-uploads/internal/uploads"
	"marietje-uploads/pkg/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	database := testutil.SetupDB(t, db.Schema)

	clock := &chrono.FixedImpl{Time: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(database, clock, telemetry.SlogAPI{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, _, err := store.Latest(ctx)
	require.True(t, errors.Is(err, ErrNoRuns))

	first, err := store.Save(ctx, db.SOURCE_EXTRACT, "PHPMarietje.html", []uploads.Record{
		{ID: 10, Uploader: "alice", Artist: "Queen", Title: "Bohemian Rhapsody"},
		{ID: 2, Uploader: "bob"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, int64(2), first.RecordCount)
	require.Equal(t, clock.Time.Unix(), first.ScrapedAt)

	clock.Time = clock.Time.Add(time.Hour)
	second, err := store.Save(ctx, db.SOURCE_FETCH, "http://noordslet.science.ru.nl/request.php", []uploads.Record{
		{ID: 7, Uploader: "carol"},
		{ID: 3, Uploader: "dave"},
		{ID: 7, Uploader: "erin"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), second.RecordCount)

	run, records, err := store.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, second, run)
	require.Equal(t, []uploads.Record{
		{ID: 3, Uploader: "dave"},
		{ID: 7, Uploader: "erin"},
	}, records)

	runs, err := store.Runs(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []db.Run{second, first}, runs)
}

func TestStoreSaveRollsBack(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO uploads").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	clock := chrono.FixedImpl{Time: time.Unix(1700000000, 0)}
	store := NewStore(database, clock, telemetry.SlogAPI{})

	_, err = store.Save(context.Background(), db.SOURCE_FETCH, "origin", []uploads.Record{
		{ID: 1, Uploader: "alice"},
	})
	require.ErrorContains(t, err, "disk I/O error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLatestQueryError(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	mock.ExpectQuery("SELECT id, source, origin, scraped_at, record_count FROM runs").
		WillReturnError(errors.New("no such table: runs"))

	store := NewStore(database, chrono.FixedImpl{}, telemetry.SlogAPI{})
	_, _, err = store.Latest(context.Background())
	require.ErrorContains(t, err, "no such table")
	require.NoError(t, mock.ExpectationsWereMet())
}
