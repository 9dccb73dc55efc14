package preprocess

import (
	"encoding/json"
	"fmt"
	"os"
)

// columnsUsedReport is the human-reviewable sidecar written next to the
// pipeline artifact.
type columnsUsedReport struct {
	Numeric      []string `json:"numeric"`
	Categorical  []string `json:"categorical"`
	Dropped      []string `json:"dropped"`
	FeatureNames []string `json:"feature_names"`
}

type categoryMappingsReport struct {
	Categories     map[string][]string `json:"categories"`
	RareCategories map[string][]string `json:"rare_to_other"`
}

// WriteColumnsUsed records which premodel columns became features
func (p *Pipeline) WriteColumnsUsed(path string) error {
	report := columnsUsedReport{
		Numeric:      p.Roles.Numeric,
		Categorical:  p.Roles.Categorical,
		Dropped:      p.Roles.Drop,
		FeatureNames: p.FeatureNames,
	}
	return writeJSON(path, report)
}

// WriteCategoryMappings records vocabularies and the rare->OTHER collapses
func (p *Pipeline) WriteCategoryMappings(path string) error {
	report := categoryMappingsReport{
		Categories:     p.Categories,
		RareCategories: p.RareCategories,
	}
	return writeJSON(path, report)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
