package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/locvowork/workforce_dashboard/internal/domain"
)

// frame is a string-typed column store read from one CSV file. Column names
// are normalised (trimmed, lower case) so headers match case-insensitively.
type frame struct {
	source string
	path   string
	rows   int
	cols   map[string][]string
}

var errNoHeader = errors.New("file is empty")

// readFrame reads a CSV file into a frame and checks the required columns.
// A file with a header but no rows yields an empty frame.
func readFrame(source, path string, required []string) (*frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.LoadError{Source: source, Path: path, Err: err}
	}

	header, hasRows, err := peekHeader(raw)
	if err != nil {
		return nil, &domain.LoadError{Source: source, Path: path, Err: err}
	}

	f := &frame{source: source, path: path, cols: make(map[string][]string, len(header))}
	if !hasRows {
		for _, name := range header {
			f.cols[normalize(name)] = nil
		}
		return f, f.require(required)
	}

	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, &domain.LoadError{Source: source, Path: path, Err: df.Err}
	}

	f.rows = df.Nrow()
	for _, name := range df.Names() {
		key := normalize(name)
		if _, dup := f.cols[key]; dup {
			return nil, &domain.LoadError{Source: source, Path: path, Column: key, Err: errors.New("duplicate column")}
		}
		f.cols[key] = df.Col(name).Records()
	}
	return f, f.require(required)
}

// peekHeader returns the header record and whether any data record follows.
func peekHeader(raw []byte) ([]string, bool, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, errNoHeader
	}
	if err != nil {
		return nil, false, err
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return header, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if len(rec) > 1 || strings.TrimSpace(rec[0]) != "" {
			return header, true, nil
		}
	}
}

func (f *frame) require(columns []string) error {
	for _, c := range columns {
		if _, ok := f.cols[c]; !ok {
			return f.errorf(0, c, "missing required column")
		}
	}
	return nil
}

// cell returns the trimmed value at (row, column); "" when the column is absent.
func (f *frame) cell(row int, column string) string {
	col, ok := f.cols[column]
	if !ok || row >= len(col) {
		return ""
	}
	return strings.TrimSpace(col[row])
}

// required returns the cell or a LoadError when it is blank.
func (f *frame) required(row int, column string) (string, error) {
	v := f.cell(row, column)
	if v == "" {
		return "", f.errorf(row+1, column, "blank value")
	}
	return v, nil
}

func (f *frame) errorf(row int, column, format string, args ...interface{}) error {
	return &domain.LoadError{
		Source: f.source,
		Path:   f.path,
		Row:    row,
		Column: column,
		Err:    fmt.Errorf(format, args...),
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
