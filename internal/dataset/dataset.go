// Package dataset reads observations for the linreg command from CSV.
//
// Each row yields one Record: an optional bucket key, the feature values and
// the response value. Columns are addressed by header name, or by their
// zero-based position ("0", "1", ...) when the file has no header.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/arloliu/linreg/errs"
)

// Record is one observation.
type Record struct {
	Key      string
	Features []float64
	Response float64
}

// Schema selects the columns of a CSV file.
type Schema struct {
	// Header reports whether the first row holds column names.
	Header bool
	// Comma is the field delimiter, ',' when zero.
	Comma rune
	// KeyColumn names the bucket key column. Empty means every row goes to
	// the same bucket with an empty key.
	KeyColumn string
	// ResponseColumn names the response column.
	ResponseColumn string
	// FeatureColumns names the feature columns in order. Empty means every
	// column other than the key and response columns.
	FeatureColumns []string
}

// Reader decodes records from a CSV stream.
type Reader struct {
	csv      *csv.Reader
	schema   Schema
	resolved bool
	line     int

	keyIdx       int
	responseIdx  int
	featureIdx   []int
	featureNames []string
}

// NewReader creates a reader over r. With a header, the header row is read
// and the schema resolved immediately.
//
// Returns:
//   - *Reader: Reader positioned at the first data row
//   - error: A CSV error, or ErrInvalidArgument when a named column is missing
func NewReader(r io.Reader, schema Schema) (*Reader, error) {
	if schema.ResponseColumn == "" {
		return nil, fmt.Errorf("%w: response column is required", errs.ErrInvalidArgument)
	}

	cr := csv.NewReader(r)
	if schema.Comma != 0 {
		cr.Comma = schema.Comma
	}
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	reader := &Reader{csv: cr, schema: schema, keyIdx: -1}

	if schema.Header {
		header, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: empty input, header expected", errs.ErrInvalidArgument)
			}

			return nil, fmt.Errorf("read header: %w", err)
		}
		reader.line = 1

		names := make([]string, len(header))
		for i, name := range header {
			names[i] = strings.TrimSpace(name)
		}
		if err := reader.resolve(names); err != nil {
			return nil, err
		}
	}

	return reader, nil
}

func (r *Reader) resolve(names []string) error {
	find := func(name string) (int, error) {
		idx := slices.Index(names, name)
		if idx < 0 {
			return -1, fmt.Errorf("%w: column %q not found in %v", errs.ErrInvalidArgument, name, names)
		}

		return idx, nil
	}

	var err error
	if r.responseIdx, err = find(r.schema.ResponseColumn); err != nil {
		return err
	}
	if r.schema.KeyColumn != "" {
		if r.keyIdx, err = find(r.schema.KeyColumn); err != nil {
			return err
		}
	}

	features := r.schema.FeatureColumns
	if len(features) == 0 {
		for i, name := range names {
			if i != r.responseIdx && i != r.keyIdx {
				features = append(features, name)
			}
		}
	}
	if len(features) == 0 {
		return fmt.Errorf("%w: no feature columns", errs.ErrInvalidArgument)
	}

	r.featureIdx = make([]int, len(features))
	for i, name := range features {
		if r.featureIdx[i], err = find(name); err != nil {
			return err
		}
	}
	r.featureNames = slices.Clone(features)
	r.resolved = true

	return nil
}

// FeatureNames returns the resolved feature column names, or nil before the
// first record of a header-less file.
func (r *Reader) FeatureNames() []string {
	return r.featureNames
}

// Read returns the next record, or io.EOF after the last one.
//
// Returns:
//   - Record: Decoded observation with freshly allocated features
//   - error: io.EOF, a CSV error, or ErrInvalidArgument for an unparsable or
//     non-finite value
func (r *Reader) Read() (Record, error) {
	row, err := r.next()
	if err != nil {
		return Record{}, err
	}

	rec := Record{Features: make([]float64, len(r.featureIdx))}
	if r.keyIdx >= 0 {
		rec.Key = row[r.keyIdx]
	}

	if rec.Response, err = r.parse(row, r.responseIdx); err != nil {
		return Record{}, err
	}
	for i, idx := range r.featureIdx {
		if rec.Features[i], err = r.parse(row, idx); err != nil {
			return Record{}, err
		}
	}

	return rec, nil
}

func (r *Reader) next() ([]string, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		return nil, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	r.line++

	if !r.resolved {
		names := make([]string, len(row))
		for i := range row {
			names[i] = strconv.Itoa(i)
		}
		if err := r.resolve(names); err != nil {
			return nil, err
		}
	}

	return row, nil
}

func (r *Reader) parse(row []string, idx int) (float64, error) {
	cell := strings.TrimSpace(row[idx])

	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d column %d: %q is not a number",
			errs.ErrInvalidArgument, r.line, idx, cell)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: line %d column %d: %q is not finite",
			errs.ErrInvalidArgument, r.line, idx, cell)
	}

	return v, nil
}

// ReadAll reads every record from r.
//
// Returns:
//   - []Record: All records in file order
//   - []string: Resolved feature column names
//   - error: First read error
func ReadAll(r io.Reader, schema Schema) ([]Record, []string, error) {
	reader, err := NewReader(r, schema)
	if err != nil {
		return nil, nil, err
	}

	var records []Record
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, reader.FeatureNames(), nil
		}
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}
}

// ReadFile reads every record from the CSV file at path.
func ReadFile(path string, schema Schema) ([]Record, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return ReadAll(f, schema)
}
