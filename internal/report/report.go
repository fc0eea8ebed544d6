// Package report renders upload records as the plain text uploader
// report, one "<id>: <uploader>" line per track.
package report

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"marietje-uploads/internal/uploads"
)

// Index keys records by track id, a record overwrites any earlier record
// with the same id.
func Index(records []uploads.Record) map[int64]uploads.Record {
	index := make(map[int64]uploads.Record, len(records))
	for _, r := range records {
		index[r.ID] = r
	}
	return index
}

// Sorted deduplicates records with Index and orders them by ascending id.
func Sorted(records []uploads.Record) []uploads.Record {
	index := Index(records)
	sorted := make([]uploads.Record, 0, len(index))
	for _, r := range index {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func Line(r uploads.Record) string {
	return fmt.Sprintf("%d: %s", r.ID, r.Uploader)
}

// Lines returns the report lines without line terminators.
func Lines(records []uploads.Record) []string {
	sorted := Sorted(records)
	lines := make([]string, len(sorted))
	for i, r := range sorted {
		lines[i] = Line(r)
	}
	return lines
}

// Render returns the full report, every line is terminated by "\n".
func Render(records []uploads.Record) []byte {
	var buf bytes.Buffer
	for _, line := range Lines(records) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Write replaces the contents of the file at `path` with the report and
// returns the number of bytes written.
func Write(path string, records []uploads.Record) (int, error) {
	contents := Render(records)
	err := os.WriteFile(path, contents, 0644)
	if err != nil {
		return 0, fmt.Errorf("write report: %w", err)
	}
	return len(contents), nil
}

// Parse reads a report back into records (without artist or title),
// blank lines are ignored.
func Parse(r io.Reader) ([]uploads.Record, error) {
	var records []uploads.Record

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		idStr, uploader, found := strings.Cut(line, ": ")
		if !found {
			// empty uploader whose trailing space was stripped
			idStr, found = strings.CutSuffix(line, ":")
			if !found {
				return nil, fmt.Errorf("parse report: line %d: missing ': ' separator", lineNo)
			}
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse report: line %d: %w", lineNo, err)
		}
		records = append(records, uploads.Record{ID: id, Uploader: uploader})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}

	return records, nil
}

// ReadFile parses the report at `path`.
func ReadFile(path string) ([]uploads.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
