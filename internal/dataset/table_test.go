package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableFromCSV(t *testing.T, csv string) *Table {
	t.Helper()
	tbl, err := ReadCSVFrom(strings.NewReader(strings.TrimSpace(csv) + "\n"))
	require.NoError(t, err)
	return tbl
}

func TestReadCSVFrom(t *testing.T) {
	tbl := tableFromCSV(t, `
Season,Round,Driver,GridPosition
2023,1,VER,1
2023,1,HAM,5
`)

	assert.Equal(t, []string{"Season", "Round", "Driver", "GridPosition"}, tbl.Columns())
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, "VER", tbl.Value(0, "Driver"))

	grid, ok := tbl.Float(1, "GridPosition")
	require.True(t, ok)
	assert.Equal(t, 5.0, grid)
}

func TestReadCSVFromPadsRaggedRows(t *testing.T) {
	tbl, err := ReadCSVFrom(strings.NewReader("A,B,C\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, "", tbl.Value(0, "C"))
}

func TestFloatMissingValues(t *testing.T) {
	tbl := tableFromCSV(t, `
X
nan

None
12.5
abc
`)

	expected := []bool{false, false, false, true, false}
	_, ok := tbl.FloatColumn("X")
	assert.Equal(t, expected, ok)
}

func TestAddColumnOverwritesExisting(t *testing.T) {
	tbl := tableFromCSV(t, `
A,B
1,x
2,y
`)

	require.NoError(t, tbl.AddColumn("B", []string{"p", "q"}))
	assert.Equal(t, []string{"A", "B"}, tbl.Columns())
	assert.Equal(t, "p", tbl.Value(0, "B"))

	require.NoError(t, tbl.AddColumn("C", []string{"7", "8"}))
	assert.Equal(t, "8", tbl.Value(1, "C"))
}

func TestDropAndRenameColumns(t *testing.T) {
	tbl := tableFromCSV(t, `
A,B,C
1,2,3
`)

	tbl.DropColumns("B", "NotThere")
	assert.Equal(t, []string{"A", "C"}, tbl.Columns())
	assert.Equal(t, "3", tbl.Value(0, "C"))

	tbl.RenameColumn("C", "Z")
	assert.True(t, tbl.HasColumn("Z"))
	assert.Equal(t, "3", tbl.Value(0, "Z"))
}

func TestFilter(t *testing.T) {
	tbl := tableFromCSV(t, `
Status
Finished
Lapped
Finished
`)

	kept := tbl.Filter(func(row int) bool { return tbl.Value(row, "Status") == "Finished" })
	assert.Equal(t, 2, kept.NumRows())
	assert.Equal(t, 3, tbl.NumRows())
}

func TestWriteCSVRoundTrip(t *testing.T) {
	tbl := tableFromCSV(t, `
A,B
1,hello
2,"with,comma"
`)

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteCSVTo(&buf))

	reread, err := ReadCSVFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, "with,comma", reread.Value(1, "B"))
}

func TestUniqueValues(t *testing.T) {
	tbl := tableFromCSV(t, `
Team
Red Bull Racing
Ferrari
Red Bull Racing
nan
Mercedes
`)

	assert.Equal(t, []string{"Red Bull Racing", "Ferrari", "Mercedes"}, tbl.UniqueValues("Team"))
}
