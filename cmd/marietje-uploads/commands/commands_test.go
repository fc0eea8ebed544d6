package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"marietje-uploads/internal/components/chrono"
	"marietje-uploads/internal/db"
	"marietje-uploads/internal/report"
	"marietje-uploads/internal/uploads"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "marietje.json5"))
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), config)

	opts := config.clientOptions(nil)
	require.Equal(t, "http://noordslet.science.ru.nl", opts.BaseUrl)
	require.Equal(t, time.Second*30, opts.Timeout)
	require.Equal(t, 2.0, opts.RateLimit)
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marietje.json5")

	err := os.WriteFile(path, []byte(`{
		// a local instance
		base_url: "http://localhost:8080",
		parser: "table",
	}`), 0644)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "marietje.local.json5"), []byte(`{
		output: "uploads.txt",
		db: "history.db",
	}`), 0644)
	require.NoError(t, err)

	config, err := loadConfig(path)
	require.NoError(t, err)

	expected := defaultConfig()
	expected.BaseUrl = "http://localhost:8080"
	expected.Parser = "table"
	expected.Output = "uploads.txt"
	expected.Db = "history.db"
	require.Equal(t, expected, config)
}

func TestLoadConfigZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marietje.json5")
	err := os.WriteFile(path, []byte(`{
		rate_limit: 0,
		timeout_seconds: 0,
		dotenv: "",
	}`), 0644)
	require.NoError(t, err)

	config, err := loadConfig(path)
	require.NoError(t, err)
	require.Zero(t, config.RateLimit)
	require.Zero(t, config.TimeoutSeconds)
	require.Empty(t, config.DotEnv)
	require.Equal(t, defaultConfig().Output, config.Output)

	opts := config.clientOptions(nil)
	require.Zero(t, opts.RateLimit)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marietje.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ base_url: `), 0644))

	_, err := loadConfig(path)
	require.Error(t, err)
}

func TestOrDefault(t *testing.T) {
	require.Equal(t, "a", orDefault("a", "b"))
	require.Equal(t, "b", orDefault("", "b"))
}

func TestRenderRecords(t *testing.T) {
	var out bytes.Buffer
	renderRecords(&out, []uploads.Record{
		{ID: 1203, Uploader: "alice", Artist: "Queen", Title: "Bohemian Rhapsody"},
		{ID: 17, Uploader: "bob"},
		{ID: 17, Uploader: "carol"},
	})

	rendered := out.String()
	require.Contains(t, rendered, "Bohemian Rhapsody")
	require.Contains(t, rendered, "carol")
	require.NotContains(t, rendered, "bob")
	// footers are upper cased by the table style
	require.Contains(t, strings.ToLower(rendered), "2 tracks")
	require.Less(t, bytes.Index(out.Bytes(), []byte("17")), bytes.Index(out.Bytes(), []byte("1203")))
}

func TestRenderRuns(t *testing.T) {
	var out bytes.Buffer
	clock, err := chrono.NewStandardImpl()
	require.NoError(t, err)

	renderRuns(&out, []db.Run{{
		ID:          "run-1",
		Source:      db.SOURCE_FETCH,
		Origin:      "http://noordslet.science.ru.nl/request.php",
		ScrapedAt:   time.Date(2024, time.January, 1, 11, 0, 0, 0, time.UTC).Unix(),
		RecordCount: 3,
	}}, clock)

	// Amsterdam is UTC+1 in winter
	require.Contains(t, out.String(), "2024-01-01 12:00:00")
	require.Contains(t, out.String(), "run-1")
}

func TestRenderMatches(t *testing.T) {
	var out bytes.Buffer
	renderMatches(&out, report.Search([]uploads.Record{
		{ID: 7, Uploader: "alice"},
		{ID: 1203, Uploader: "alice"},
		{ID: 17, Uploader: "bob"},
	}, "alice", 1))

	require.Contains(t, out.String(), "7, 1203")
	require.Contains(t, out.String(), "1.00")
	require.NotContains(t, out.String(), "bob")
}

func TestOpenHistoryReadOnly(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "typo.db")

	_, _, _, err := openHistory(missing, true)
	require.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(missing)
	require.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(dir, "history.db")
	hist, closeDb, err := historyFor(path)
	require.NoError(t, err)
	_, err = hist.Save(context.Background(), db.SOURCE_EXTRACT, "PHPMarietje.html", []uploads.Record{
		{ID: 42, Uploader: "Alice"},
	})
	require.NoError(t, err)
	closeDb()

	store, _, closeDb, err := openHistory(path, true)
	require.NoError(t, err)
	defer closeDb()
	_, records, err := store.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uploads.Record{{ID: 42, Uploader: "Alice"}}, records)
}
