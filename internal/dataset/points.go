package dataset

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// PointsPropColumn holds each driver's share of the championship points
// awarded in their season up to and including the row's race.
const PointsPropColumn = "PointsProp"

// ComputePointsProp adds the PointsProp column: driver season points through
// the row's round divided by all points awarded in the season through that
// round. F1 awards half points for shortened races, so accumulation uses
// exact decimal arithmetic and only converts to float at the end.
func ComputePointsProp(premodel *Table) error {
	if !premodel.HasColumn("Points") {
		return fmt.Errorf("%w: Points", errMissingJoinColumn)
	}
	driverKey := "Abbreviation"
	if !premodel.HasColumn(driverKey) {
		driverKey = "Driver"
	}

	type rowInfo struct {
		season string
		round  float64
		driver string
		points decimal.Decimal
	}

	rows := make([]rowInfo, premodel.NumRows())
	for i := 0; i < premodel.NumRows(); i++ {
		round, _ := premodel.Float(i, "Round")
		info := rowInfo{
			season: normalizeKey(premodel.Value(i, "Season")),
			round:  round,
			driver: premodel.Value(i, driverKey),
		}

		raw := premodel.Value(i, "Points")
		info.points = decimal.Zero
		if !IsMissing(raw) {
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("row %d: invalid Points value %q: %w", i, raw, err)
			}
			info.points = parsed
		}
		rows[i] = info
	}

	values := make([]string, len(rows))
	for i, row := range rows {
		driverTotal := decimal.Zero
		seasonTotal := decimal.Zero
		for _, other := range rows {
			if other.season != row.season || other.round > row.round {
				continue
			}
			seasonTotal = seasonTotal.Add(other.points)
			if other.driver == row.driver {
				driverTotal = driverTotal.Add(other.points)
			}
		}

		if seasonTotal.IsZero() {
			values[i] = "0"
			continue
		}
		prop, _ := driverTotal.Div(seasonTotal).Float64()
		values[i] = strconv.FormatFloat(prop, 'g', -1, 64)
	}

	return premodel.AddColumn(PointsPropColumn, values)
}
