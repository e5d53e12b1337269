package survey

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Source produces a raw survey table
type Source interface {
	Load(ctx context.Context) (*Table, error)
	Describe() string
}

// FileSource reads a local CSV or XLSX export
type FileSource struct {
	Path  string
	Sheet string
}

// Load reads the file, dispatching on its extension
func (s FileSource) Load(ctx context.Context) (*Table, error) {
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".csv", ".txt":
		return ReadCSVFile(s.Path)
	case ".xlsx", ".xlsm":
		return ReadXLSX(s.Path, s.Sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.Path)
	}
}

// Describe names the source for logs
func (s FileSource) Describe() string { return s.Path }

// ReadCSVFile opens path and parses it with ReadCSV
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a header row followed by records. A UTF-8 BOM is skipped.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(skipBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return tableFromRows(rows)
}

// ReadXLSX reads a worksheet; an empty sheet name selects the first sheet
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s has no worksheets", ErrEmptyTable, path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return tableFromRows(rows)
}

// SheetsSource reads the survey straight from the Google Sheet behind the form
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
}

// NewSheetsSource creates a source authenticated with a service-account file
func NewSheetsSource(ctx context.Context, spreadsheetID, readRange, credentialsFile string) (*SheetsSource, error) {
	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsSource{service: service, spreadsheetID: spreadsheetID, readRange: readRange}, nil
}

// Load fetches the configured range
func (s *SheetsSource) Load(ctx context.Context) (*Table, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read from sheets: %w", err)
	}
	return tableFromRows(valuesToRows(resp.Values))
}

// Describe names the source for logs
func (s *SheetsSource) Describe() string {
	return fmt.Sprintf("sheets:%s!%s", s.spreadsheetID, s.readRange)
}

func valuesToRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return rows
}

func tableFromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	return NewTable(header, rows[1:])
}

func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if peek, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(peek, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// LoadDataset reads a cleaned CSV through a gota dataframe with type detection
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadDataset(f)
}

// ReadDataset is LoadDataset on an arbitrary reader
func ReadDataset(r io.Reader) (*Dataset, error) {
	df := dataframe.ReadCSV(skipBOM(r),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{"", "NA", "NaN", "nan"}),
		dataframe.WithTypes(map[string]series.Type{ColTimestamp: series.String}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", df.Err)
	}
	if df.Nrow() == 0 {
		return nil, ErrEmptyTable
	}

	d := &Dataset{
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
		n:       df.Nrow(),
	}
	for _, name := range df.Names() {
		col := df.Col(name)
		d.names = append(d.names, name)
		if col.Type() == series.String {
			records := col.Records()
			for i, isNaN := range col.IsNaN() {
				if isNaN {
					records[i] = ""
				}
			}
			d.text[name] = records
			continue
		}
		d.numeric[name] = col.Float()
	}
	return d, nil
}
