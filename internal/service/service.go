package service

import (
	"context"
	"fmt"
	"os"

	"marietje-uploads/internal/components/assert"
	"marietje-uploads/internal/components/telemetry"
	"marietje-uploads/internal/credentials"
	"marietje-uploads/internal/db"
	"marietje-uploads/internal/history"
	"marietje-uploads/internal/report"
	"marietje-uploads/internal/scrapers/marietje"
	"marietje-uploads/internal/uploads"
)

const (
	report_service_fetch   = "service.fetch"
	report_service_extract = "service.extract"
)

// HistoryAPI saves records after a report is written.
//
// note: fault injection point
type HistoryAPI interface {
	Save(ctx context.Context, source db.Source, origin string, records []uploads.Record) (db.Run, error)
}

var _ HistoryAPI = history.Store{}

// Service refreshes the uploader report, either from the live site or
// from a saved snapshot of the request page.
type Service struct {
	extractor uploads.Extractor
	history   HistoryAPI
	tel       telemetry.API
}

// NewService creates a Service, `history` can be nil in which case runs
// are not saved anywhere except the report.
func NewService(tel telemetry.API, history HistoryAPI) Service {
	assert.NotNil(tel)

	return Service{
		extractor: uploads.NewExtractor(tel),
		history:   history,
		tel:       telemetry.NewScopedAPI("service", tel),
	}
}

type FetchRequest struct {
	Credentials credentials.Provider
	Client      marietje.ClientOptions
	Strategy    uploads.Strategy
	TableClass  string
	Output      string
}

type ExtractRequest struct {
	Snapshot   string
	Strategy   uploads.Strategy
	TableClass string
	Output     string
}

type Result struct {
	// Records are deduplicated and ordered like the report
	Records []uploads.Record
	Output  string
	Written int
	// Run is nil when there is no history
	Run *db.Run
}

// Fetch logs in, downloads the request page and writes the report.
// Nothing is written when any step before writing fails, a rejected login
// returns an error wrapping marietje.ErrLoginFailed.
func (s Service) Fetch(ctx context.Context, req FetchRequest) (Result, error) {
	assert.NotNil(req.Credentials)
	assert.NotEmptyStr(req.Output)

	cred, err := req.Credentials.Credential(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("get credentials: %w", err)
	}

	client, err := marietje.NewClient(req.Client, s.tel)
	if err != nil {
		s.tel.ReportBroken(report_service_fetch, fmt.Errorf("create client: %w", err))
		return Result{}, err
	}

	err = client.LoginUsernamePassword(ctx, cred.Username, cred.Password)
	if err != nil {
		return Result{}, err
	}

	page, err := client.RequestsPage(ctx)
	if err != nil {
		return Result{}, err
	}

	records, err := s.extractor.Extract(req.Strategy, page, req.TableClass)
	if err != nil {
		s.tel.ReportBroken(report_service_fetch, fmt.Errorf("extract: %w", err))
		return Result{}, err
	}

	return s.finish(ctx, report_service_fetch, db.SOURCE_FETCH, client.RequestsUrl(), req.Output, records)
}

// Extract reads a saved request page and writes the report.
func (s Service) Extract(ctx context.Context, req ExtractRequest) (Result, error) {
	assert.NotEmptyStr(req.Snapshot)
	assert.NotEmptyStr(req.Output)

	page, err := os.ReadFile(req.Snapshot)
	if err != nil {
		return Result{}, fmt.Errorf("read snapshot: %w", err)
	}

	records, err := s.extractor.Extract(req.Strategy, string(page), req.TableClass)
	if err != nil {
		s.tel.ReportBroken(report_service_extract, fmt.Errorf("extract: %w", err), req.Snapshot)
		return Result{}, err
	}

	return s.finish(ctx, report_service_extract, db.SOURCE_EXTRACT, req.Snapshot, req.Output, records)
}

func (s Service) finish(
	ctx context.Context,
	reportId string,
	source db.Source,
	origin, output string,
	records []uploads.Record,
) (Result, error) {
	if len(records) == 0 {
		s.tel.ReportWarning(reportId, "no records found, has the page layout changed?", origin)
	}

	written, err := report.Write(output, records)
	if err != nil {
		s.tel.ReportBroken(reportId, err, output)
		return Result{}, err
	}

	result := Result{
		Records: report.Sorted(records),
		Output:  output,
		Written: written,
	}
	s.tel.ReportCount(reportId, int64(len(result.Records)))

	if s.history != nil {
		run, err := s.history.Save(ctx, source, origin, records)
		if err != nil {
			return result, err
		}
		result.Run = &run
	}

	return result, nil
}
