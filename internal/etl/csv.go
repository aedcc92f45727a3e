package etl

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/landfiredata/bps-explorer/internal/errors"
)

// table is one parsed CSV file with header-based column access. Column names
// are matched after trimming and lowercasing, the way the source exports
// vary in whitespace and case.
type table struct {
	path    string
	columns map[string]int
	rows    [][]string
}

// readTable loads a CSV file and indexes its header.
func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("etl").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.New(err).
			Component("etl").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	if len(records) == 0 {
		return nil, errors.Newf("csv file %s is empty", path).
			Component("etl").
			Category(errors.CategoryFileParsing).
			Build()
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[normalizeColumn(name)] = i
	}

	return &table{path: path, columns: columns, rows: records[1:]}, nil
}

// normalizeColumn canonicalizes a header name. The fire table carries its
// unit in the header as "return_interval(years)"; that maps to the
// return_interval_years column of the store.
func normalizeColumn(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "(", "_")
	name = strings.ReplaceAll(name, ")", "")
	name = strings.Trim(name, "_")
	return name
}

// get returns the trimmed cell under the named column, or "" when the column
// or cell is absent.
func (t *table) get(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// getFloat parses the named cell as a float; blank or unparseable cells
// yield zero.
func (t *table) getFloat(row []string, column string) float64 {
	v, err := strconv.ParseFloat(t.get(row, column), 64)
	if err != nil {
		return 0
	}
	return v
}

// require verifies the table carries the named columns.
func (t *table) require(columns ...string) error {
	for _, c := range columns {
		if _, ok := t.columns[c]; !ok {
			return errors.Newf("csv file %s is missing column %q", t.path, c).
				Component("etl").
				Category(errors.CategoryFileParsing).
				Build()
		}
	}
	return nil
}
