package preprocess

import (
	"strconv"
	"strings"

	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
)

// RainColumn is the weather flag coerced to a binary indicator before
// column selection, so it is always treated as numeric.
const RainColumn = "Rain"

// rainToBinary maps a raw rain token to "1" (rain) or "0" (no rain).
// Observed dataset values are "Rain" and "NoRain"; textual variants like
// "no rain", "LightRain" and "HEAVY_RAIN" are handled conservatively.
func rainToBinary(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "nan" || s == "none" {
		return "0"
	}
	// Already-coerced inputs stay stable across repeated normalization
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v != 0 {
			return "1"
		}
		return "0"
	}
	if strings.HasPrefix(s, "no") {
		return "0"
	}
	if strings.HasPrefix(s, "n") && !strings.Contains(s, "rain") {
		return "0"
	}
	if strings.Contains(s, "rain") {
		return "1"
	}
	return "0"
}

// CoerceRain rewrites the Rain column to 0/1 in place. Tables without the
// column are left alone.
func CoerceRain(t *dataset.Table) {
	if !t.HasColumn(RainColumn) {
		return
	}
	for i := 0; i < t.NumRows(); i++ {
		t.SetValue(i, RainColumn, rainToBinary(t.Value(i, RainColumn)))
	}
}
