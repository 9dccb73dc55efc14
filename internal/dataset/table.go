// Package dataset provides CSV table handling and premodel dataset assembly.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Table is an in-memory CSV table with named columns. Cells are kept as raw
// strings; numeric access parses on demand so that mixed-type columns survive
// round trips unchanged.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable creates an empty table with the given column order
func NewTable(columns []string) *Table {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range t.columns {
		t.index[c] = i
	}
	return t
}

// ReadCSV loads a CSV file into a table
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSVFrom(f)
}

// ReadCSVFrom loads CSV data from a reader into a table
func ReadCSVFrom(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	t := NewTable(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		// Ragged rows are padded so column access stays safe
		if len(record) < len(header) {
			padded := make([]string, len(header))
			copy(padded, record)
			record = padded
		}
		t.rows = append(t.rows, record[:len(header)])
	}

	return t, nil
}

// WriteCSV writes the table to a CSV file
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv %s: %w", path, err)
	}
	defer f.Close()
	return t.WriteCSVTo(f)
}

// WriteCSVTo writes the table as CSV to a writer
func (t *Table) WriteCSVTo(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range t.rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether a column exists
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// NumRows returns the number of data rows
func (t *Table) NumRows() int {
	return len(t.rows)
}

// Row returns a copy of row i
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Value returns the raw cell value, or "" when the column is absent
func (t *Table) Value(row int, col string) string {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return ""
	}
	return t.rows[row][i]
}

// SetValue sets a cell value; unknown columns are ignored
func (t *Table) SetValue(row int, col string, val string) {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return
	}
	t.rows[row][i] = val
}

// IsMissing reports whether a raw cell value represents a missing entry
func IsMissing(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "na", "null":
		return true
	}
	return false
}

// Float parses a cell as float64; ok is false for missing or non-numeric cells
func (t *Table) Float(row int, col string) (float64, bool) {
	raw := t.Value(row, col)
	if IsMissing(raw) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FloatColumn parses an entire column; missing cells yield ok=false entries
func (t *Table) FloatColumn(col string) ([]float64, []bool) {
	vals := make([]float64, len(t.rows))
	ok := make([]bool, len(t.rows))
	for i := range t.rows {
		vals[i], ok[i] = t.Float(i, col)
	}
	return vals, ok
}

// AppendRow appends a data row; it must match the column count
func (t *Table) AppendRow(vals []string) error {
	if len(vals) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(vals), len(t.columns))
	}
	t.rows = append(t.rows, append([]string(nil), vals...))
	return nil
}

// AddColumn appends a new column. An existing column of the same name is
// overwritten in place, matching how the pit stop appender only touches its
// own column.
func (t *Table) AddColumn(name string, values []string) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	if i, ok := t.index[name]; ok {
		for r := range t.rows {
			t.rows[r][i] = values[r]
		}
		return nil
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], values[r])
	}
	return nil
}

// DropColumns removes the named columns when present
func (t *Table) DropColumns(names ...string) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}

	kept := make([]string, 0, len(t.columns))
	keptIdx := make([]int, 0, len(t.columns))
	for i, c := range t.columns {
		if !drop[c] {
			kept = append(kept, c)
			keptIdx = append(keptIdx, i)
		}
	}

	rows := make([][]string, len(t.rows))
	for r, row := range t.rows {
		newRow := make([]string, len(keptIdx))
		for j, i := range keptIdx {
			newRow[j] = row[i]
		}
		rows[r] = newRow
	}

	t.columns = kept
	t.rows = rows
	t.index = make(map[string]int, len(kept))
	for i, c := range kept {
		t.index[c] = i
	}
}

// RenameColumn renames a column when present
func (t *Table) RenameColumn(from, to string) {
	i, ok := t.index[from]
	if !ok {
		return
	}
	delete(t.index, from)
	t.columns[i] = to
	t.index[to] = i
}

// Filter returns a new table with the rows for which keep returns true
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := NewTable(t.columns)
	for i := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]string(nil), t.rows[i]...))
		}
	}
	return out
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := NewTable(t.columns)
	out.rows = make([][]string, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = append([]string(nil), row...)
	}
	return out
}

// UniqueValues returns the distinct non-missing values of a column in first-seen order
func (t *Table) UniqueValues(col string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for i := range t.rows {
		v := t.Value(i, col)
		if IsMissing(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
