package uploads

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"marietje-uploads/internal/components/assert"
	"marietje-uploads/internal/components/telemetry"
	"marietje-uploads/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extractor_rows  = "extractor.rows"
	report_extractor_table = "extractor.table"
)

// ErrTableNotFound is returned by ExtractTable when the document has no
// table with the requested class.
var ErrTableNotFound = errors.New("request table not found")

// Extractor turns request pages into records.
type Extractor struct {
	tel telemetry.API
}

func NewExtractor(tel telemetry.API) Extractor {
	assert.NotNil(tel)
	return Extractor{tel: telemetry.NewScopedAPI("uploads", tel)}
}

// the row opening tag carries the track id, the line after it holds the
// first cell and the line after that ends with the uploader's cell.
var rowRegex = regexp.MustCompile(`(?i)<tr[^>]*name=['"](\d+)['"][^\n]*\n[^\n]*\n(.*?)</td>`)

// ExtractRows finds every request row with a regular expression, records
// are returned in document order.
func (e Extractor) ExtractRows(page string) []Record {
	matches := rowRegex.FindAllStringSubmatch(page, -1)

	records := make([]Record, 0, len(matches))
	for _, match := range matches {
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			e.tel.ReportWarning(report_extractor_rows, fmt.Errorf("parse track id: %w", err))
			continue
		}
		if id <= 0 {
			e.tel.ReportWarning(report_extractor_rows, fmt.Errorf("track id %d is not positive", id))
			continue
		}
		records = append(records, Record{
			ID:       id,
			Uploader: strings.TrimSpace(match[2]),
		})
	}

	e.tel.ReportCount(report_extractor_rows, int64(len(records)))
	return records
}

// ExtractTable parses the document and reads the rows of the table with
// the class `tableClass`, records are returned in document order.
//
// Rows without a track id or without an uploader are skipped.
func (e Extractor) ExtractTable(page io.Reader, tableClass string) ([]Record, error) {
	assert.NotEmptyStr(tableClass)

	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		e.tel.ReportBroken(report_extractor_table, fmt.Errorf("parse: %w", err))
		return nil, err
	}

	table := doc.Find("table." + tableClass).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: table.%s", ErrTableNotFound, tableClass)
	}

	var records []Record
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() == 0 {
			// header rows only have <th> cells
			return
		}

		id, ok := rowId(row)
		if !ok {
			e.tel.ReportWarning(report_extractor_table, fmt.Errorf("row %d has no track id", i))
			return
		}

		uploader := htmlutil.LastLine(htmlutil.GetText(cells.Last().Get(0)))
		if uploader == "" {
			return
		}

		record := Record{
			ID:       id,
			Uploader: uploader,
		}
		if cells.Length() >= 3 {
			record.Artist = htmlutil.CleanText(cells.Eq(0).Text())
			record.Title = htmlutil.CleanText(cells.Eq(1).Text())
		}
		records = append(records, record)
	})

	e.tel.ReportCount(report_extractor_table, int64(len(records)))
	return records, nil
}

// rowId reads the track id from the row's name attribute, falling back to
// the `id` query parameter of the first link in the row that has one.
func rowId(row *goquery.Selection) (int64, bool) {
	if name, ok := row.Attr("name"); ok {
		id, err := strconv.ParseInt(strings.TrimSpace(name), 10, 64)
		if err == nil && id > 0 {
			return id, true
		}
	}

	href, ok := row.Find(`a[href*="id="]`).First().Attr("href")
	if !ok {
		return 0, false
	}
	link, err := url.Parse(href)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(link.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Extract runs the extractor named by `strategy`, an empty `tableClass`
// means DefaultTableClass.
func (e Extractor) Extract(strategy Strategy, page string, tableClass string) ([]Record, error) {
	if tableClass == "" {
		tableClass = DefaultTableClass
	}
	switch strategy {
	case StrategyRegex:
		return e.ExtractRows(page), nil
	case StrategyTable:
		return e.ExtractTable(strings.NewReader(page), tableClass)
	}
	return nil, fmt.Errorf("unknown parser %q", strategy)
}
