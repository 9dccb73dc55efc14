// Package preprocess provides the fitted preprocessing pipeline for premodel
// CSVs: median imputation and standard scaling for numeric columns, constant
// imputation and one-hot encoding for categoricals, with rare categories
// collapsed to OTHER and unknown categories ignored at transform time.
package preprocess

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

const (
	// MissingCategory is the constant imputation value for categoricals
	MissingCategory = "missing"

	// OtherCategory absorbs rare training categories
	OtherCategory = "OTHER"
)

// Matrix is a dense transformed feature matrix.
type Matrix struct {
	FeatureNames []string
	Rows         [][]float64
}

// WriteCSV persists the transformed matrix with feature names as the header
func (m *Matrix) WriteCSV(path string) error {
	t := dataset.NewTable(m.FeatureNames)
	for _, row := range m.Rows {
		vals := make([]string, len(row))
		for j, v := range row {
			vals[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := t.AppendRow(vals); err != nil {
			return err
		}
	}
	return t.WriteCSV(path)
}

// Pipeline is the fitted preprocessing transformer. It is persisted as JSON
// and re-applied verbatim at scoring time.
type Pipeline struct {
	Roles          ColumnRoles         `json:"roles"`
	Medians        map[string]float64  `json:"medians"`
	Means          map[string]float64  `json:"means"`
	Stds           map[string]float64  `json:"stds"`
	Categories     map[string][]string `json:"categories"`
	RareCategories map[string][]string `json:"rare_categories"`
	FeatureNames   []string            `json:"feature_names"`
	Fitted         bool                `json:"fitted"`
}

// Fit learns imputation, scaling and encoding parameters from the training
// table. The target column is excluded from features.
func Fit(train *dataset.Table, target string) (*Pipeline, error) {
	if train.NumRows() == 0 {
		return nil, models.ErrEmptyInput
	}

	train = train.Clone()
	CoerceRain(train)

	p := &Pipeline{
		Roles:          ChooseColumns(train, target),
		Medians:        make(map[string]float64),
		Means:          make(map[string]float64),
		Stds:           make(map[string]float64),
		Categories:     make(map[string][]string),
		RareCategories: make(map[string][]string),
	}

	p.fitRareCategories(train)

	for _, col := range p.Roles.Numeric {
		vals, ok := train.FloatColumn(col)
		observed := make([]float64, 0, len(vals))
		for i, v := range vals {
			if ok[i] {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			// imputer has nothing to learn from; column contributes nothing
			continue
		}
		median := computeMedian(observed)
		p.Medians[col] = median

		// Scaler statistics are computed over the imputed column, matching
		// an impute-then-scale pipeline.
		imputed := make([]float64, len(vals))
		for i, v := range vals {
			if ok[i] {
				imputed[i] = v
			} else {
				imputed[i] = median
			}
		}
		p.Means[col] = computeMean(imputed)
		p.Stds[col] = computeStd(imputed, p.Means[col])
	}

	for _, col := range p.Roles.Categorical {
		seen := make(map[string]bool)
		vocab := make([]string, 0)
		for i := 0; i < train.NumRows(); i++ {
			v := p.mapCategory(col, train.Value(i, col))
			if !seen[v] {
				seen[v] = true
				vocab = append(vocab, v)
			}
		}
		sort.Strings(vocab)
		p.Categories[col] = vocab
	}

	p.FeatureNames = p.buildFeatureNames()
	p.Fitted = true
	return p, nil
}

// fitRareCategories finds training categories occurring at most
// max(5, 1% of train rows) times; those collapse to OTHER at transform time.
func (p *Pipeline) fitRareCategories(train *dataset.Table) {
	thresh := train.NumRows() / 100
	if thresh < 5 {
		thresh = 5
	}

	for _, col := range p.Roles.Categorical {
		counts := make(map[string]int)
		for i := 0; i < train.NumRows(); i++ {
			v := train.Value(i, col)
			if dataset.IsMissing(v) {
				v = MissingCategory
			}
			counts[v]++
		}
		rare := make([]string, 0)
		for v, n := range counts {
			if n <= thresh {
				rare = append(rare, v)
			}
		}
		if len(rare) > 0 {
			sort.Strings(rare)
			p.RareCategories[col] = rare
		}
	}
}

// mapCategory applies constant imputation and the rare->OTHER mapping
func (p *Pipeline) mapCategory(col, raw string) string {
	if dataset.IsMissing(raw) {
		raw = MissingCategory
	}
	for _, r := range p.RareCategories[col] {
		if raw == r {
			return OtherCategory
		}
	}
	return raw
}

func (p *Pipeline) buildFeatureNames() []string {
	names := make([]string, 0)
	for _, col := range p.Roles.Numeric {
		if _, ok := p.Medians[col]; ok {
			names = append(names, col)
		}
	}
	for _, col := range p.Roles.Categorical {
		for _, v := range p.Categories[col] {
			names = append(names, fmt.Sprintf("%s__%s", col, v))
		}
	}
	return names
}

// MissingColumns lists expected feature columns absent from the input table.
// Scoring synthesizes them (train median for numerics, all-missing for
// categoricals) and logs the fallback.
func (p *Pipeline) MissingColumns(t *dataset.Table) []string {
	missing := make([]string, 0)
	for _, col := range p.Roles.Numeric {
		if _, fitted := p.Medians[col]; fitted && !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	for _, col := range p.Roles.Categorical {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Transform applies the fitted pipeline to a table. Absent columns fall back
// to their imputation values; unknown categories one-hot to all zeros.
func (p *Pipeline) Transform(t *dataset.Table) (*Matrix, error) {
	if !p.Fitted {
		return nil, models.ErrNotFitted
	}

	t = t.Clone()
	CoerceRain(t)

	m := &Matrix{
		FeatureNames: p.FeatureNames,
		Rows:         make([][]float64, t.NumRows()),
	}

	for row := 0; row < t.NumRows(); row++ {
		features := make([]float64, 0, len(p.FeatureNames))

		for _, col := range p.Roles.Numeric {
			median, fitted := p.Medians[col]
			if !fitted {
				continue
			}
			v, ok := t.Float(row, col)
			if !ok {
				v = median
			}
			std := p.Stds[col]
			if std == 0 {
				std = 1
			}
			features = append(features, (v-p.Means[col])/std)
		}

		for _, col := range p.Roles.Categorical {
			value := MissingCategory
			if t.HasColumn(col) {
				value = p.mapCategory(col, t.Value(row, col))
			}
			for _, vocab := range p.Categories[col] {
				if value == vocab {
					features = append(features, 1)
				} else {
					features = append(features, 0)
				}
			}
		}

		m.Rows[row] = features
	}

	return m, nil
}

// Save persists the fitted pipeline as JSON
func (p *Pipeline) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pipeline: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pipeline artifact: %w", err)
	}
	return nil
}

// Load reads a fitted pipeline artifact
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("failed to read pipeline artifact: %w", err)
	}
	p := &Pipeline{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrArtifactCorrupt, path, err)
	}
	if !p.Fitted {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFitted, path)
	}
	return p, nil
}

func computeMedian(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func computeMean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// computeStd is the population standard deviation, as a standard scaler uses
func computeStd(vals []float64, mean float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)))
}
