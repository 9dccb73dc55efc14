package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// normalizeKey canonicalizes join key cells so "2023" and "2023.0" compare equal
func normalizeKey(s string) string {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return s
}

func keyTuple(t *Table, row int, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = normalizeKey(t.Value(row, k))
	}
	return strings.Join(parts, "\x1f")
}

// LeftJoin merges columns of right onto left, matching leftKeys to rightKeys.
// Only the named include columns are carried over; when an include column
// already exists on the left, suffix is appended to its name. Rows without a
// match keep empty cells, mirroring a pandas left merge.
func LeftJoin(left, right *Table, leftKeys, rightKeys, include []string, suffix string) (*Table, error) {
	if len(leftKeys) != len(rightKeys) {
		return nil, fmt.Errorf("left join: %d left keys vs %d right keys", len(leftKeys), len(rightKeys))
	}
	for _, k := range leftKeys {
		if !left.HasColumn(k) {
			return nil, fmt.Errorf("left join: %w: %s", errMissingJoinColumn, k)
		}
	}
	for _, k := range rightKeys {
		if !right.HasColumn(k) {
			return nil, fmt.Errorf("left join: %w: %s", errMissingJoinColumn, k)
		}
	}

	// First match wins; the assembly inputs are unique per key
	lookup := make(map[string]int, right.NumRows())
	for i := 0; i < right.NumRows(); i++ {
		key := keyTuple(right, i, rightKeys)
		if _, ok := lookup[key]; !ok {
			lookup[key] = i
		}
	}

	out := left.Clone()
	for _, col := range include {
		if !right.HasColumn(col) {
			return nil, fmt.Errorf("left join: %w: %s", errMissingJoinColumn, col)
		}
		name := col
		if out.HasColumn(name) {
			name = col + suffix
		}
		values := make([]string, out.NumRows())
		for i := 0; i < out.NumRows(); i++ {
			if j, ok := lookup[keyTuple(left, i, leftKeys)]; ok {
				values[i] = right.Value(j, col)
			}
		}
		if err := out.AddColumn(name, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// nonKeyColumns returns right's columns that are not join keys
func nonKeyColumns(t *Table, keys []string) []string {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	out := make([]string, 0)
	for _, c := range t.Columns() {
		if !isKey[c] {
			out = append(out, c)
		}
	}
	return out
}

// BuildPremodel assembles the premodel table from race results, qualifying
// times and per-event weather. Qualifying joins per driver on
// Season+Round+Abbreviation; weather applies to every driver in the event and
// joins on Season+Round only.
func BuildPremodel(race, quali, weather *Table) (*Table, error) {
	race = race.Clone()
	race.RenameColumn("RoundNumber", "Round")

	quali = quali.Clone()
	weather = weather.Clone()
	weather.RenameColumn("Year", "Season")

	merged, err := LeftJoin(race, quali,
		[]string{"Season", "Round", "Abbreviation"},
		[]string{"Season", "Round", "Driver"},
		[]string{"AvgQualiTime"}, "")
	if err != nil {
		return nil, fmt.Errorf("failed to merge qualifying times: %w", err)
	}

	weatherKeys := []string{"Season", "Round"}
	merged, err = LeftJoin(merged, weather, weatherKeys, weatherKeys,
		nonKeyColumns(weather, weatherKeys), "_weather")
	if err != nil {
		return nil, fmt.Errorf("failed to merge weather: %w", err)
	}

	return merged, nil
}
