package preprocess

import (
	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
)

// identifier and large-text columns never used as features
var dropCandidates = []string{
	"Unnamed: 0", "FullName", "HeadshotUrl", "CountryCode", "TeamColor", "DriverId",
}

// name-like categoricals excluded to avoid leaking driver identity
var nameLikeColumns = []string{
	"BroadcastName", "Abbreviation", "FirstName", "LastName",
}

// guardedCategoricals are kept only while their cardinality stays reasonable,
// otherwise the one-hot expansion explodes
var guardedCategoricals = map[string]int{
	"Driver":   maxGuardedCardinality,
	"TeamName": maxGuardedCardinality,
}

const maxGuardedCardinality = 50

// ColumnRoles describes how each premodel column feeds the pipeline.
type ColumnRoles struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
	Drop        []string `json:"drop"`
}

// isNumericColumn reports whether the column has at least one observed value
// and every observed value parses as a number.
func isNumericColumn(t *dataset.Table, col string) bool {
	observed := false
	for i := 0; i < t.NumRows(); i++ {
		raw := t.Value(i, col)
		if dataset.IsMissing(raw) {
			continue
		}
		if _, ok := t.Float(i, col); !ok {
			return false
		}
		observed = true
	}
	return observed
}

// ChooseColumns selects numeric and categorical feature columns, mirroring
// the fitted pipeline's column policy: identifiers dropped, name-like
// categoricals removed, Driver/TeamName guarded by cardinality, and
// AvgPitStopTime plus the regression target excluded from features.
func ChooseColumns(t *dataset.Table, target string) ColumnRoles {
	roles := ColumnRoles{}

	dropped := make(map[string]bool)
	if target != "" {
		dropped[target] = true
	}
	for _, c := range dropCandidates {
		if t.HasColumn(c) {
			roles.Drop = append(roles.Drop, c)
			dropped[c] = true
		}
	}
	for _, c := range nameLikeColumns {
		dropped[c] = true
	}

	for _, col := range t.Columns() {
		if dropped[col] || col == dataset.AvgPitStopColumn {
			continue
		}
		if limit, guarded := guardedCategoricals[col]; guarded {
			if !isNumericColumn(t, col) && len(t.UniqueValues(col)) <= limit {
				roles.Categorical = append(roles.Categorical, col)
			}
			continue
		}
		if isNumericColumn(t, col) {
			roles.Numeric = append(roles.Numeric, col)
		} else {
			roles.Categorical = append(roles.Categorical, col)
		}
	}

	return roles
}
