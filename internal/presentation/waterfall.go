// Package presentation renders static HTML reports of scored races and
// downloads team logo assets.
package presentation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

// WaterfallEntry is one driver bar in a round's prediction waterfall.
type WaterfallEntry struct {
	Label        string
	TeamName     string
	Prediction   float64
	Truth        *float64
	Residual     *float64
	GridPosition string
	LogoFile     string
}

// TruthValue returns the known outcome for display, zero when unknown
func (e *WaterfallEntry) TruthValue() float64 {
	if e.Truth == nil {
		return 0
	}
	return *e.Truth
}

// ResidualValue returns prediction minus truth for display, zero when the
// outcome is unknown
func (e *WaterfallEntry) ResidualValue() float64 {
	if e.Residual == nil {
		return 0
	}
	return *e.Residual
}

// RoundWaterfall orders one round's drivers from best to worst predicted
// deviation.
type RoundWaterfall struct {
	Season  int
	Round   string
	Entries []WaterfallEntry
}

// Key identifies the round in report anchors
func (w *RoundWaterfall) Key() string {
	return fmt.Sprintf("%d-%s", w.Season, w.Round)
}

// EntryLabel formats a driver bar label
func EntryLabel(p *models.Prediction) string {
	label := p.Driver
	if label == "" {
		label = "Unknown"
	}
	if p.DriverNumber != "" {
		label = fmt.Sprintf("%s #%s", label, p.DriverNumber)
	}
	if p.TeamName != "" {
		label = fmt.Sprintf("%s - %s", label, p.TeamName)
	}
	return label
}

// BuildWaterfalls groups predictions by round and sorts each group by
// predicted deviation, fastest first.
func BuildWaterfalls(predictions []models.Prediction) []RoundWaterfall {
	type roundKey struct {
		season int
		round  string
	}

	groups := make(map[roundKey][]WaterfallEntry)
	order := make([]roundKey, 0)
	for i := range predictions {
		p := &predictions[i]
		key := roundKey{p.Season, p.Round}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}

		grid := ""
		if p.GridPosition != nil {
			grid = fmt.Sprintf("P%.0f", *p.GridPosition)
		}
		var residual *float64
		if res, ok := p.Residual(); ok {
			residual = &res
		}
		groups[key] = append(groups[key], WaterfallEntry{
			Label:        EntryLabel(p),
			TeamName:     p.TeamName,
			Prediction:   p.Value,
			Truth:        p.Truth,
			Residual:     residual,
			GridPosition: grid,
			LogoFile:     LogoFileName(p.TeamName),
		})
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].season != order[j].season {
			return order[i].season < order[j].season
		}
		return order[i].round < order[j].round
	})

	waterfalls := make([]RoundWaterfall, 0, len(order))
	for _, key := range order {
		entries := groups[key]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Prediction < entries[j].Prediction
		})
		waterfalls = append(waterfalls, RoundWaterfall{
			Season:  key.season,
			Round:   key.round,
			Entries: entries,
		})
	}
	return waterfalls
}

// LogoFileName maps a team name to its on-disk logo asset: letters, digits,
// spaces and dashes survive, spaces become underscores.
func LogoFileName(teamName string) string {
	if teamName == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range teamName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String() + ".png"
}
