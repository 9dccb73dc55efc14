package preprocess

import (
	"fmt"
	"sort"

	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
)

// Split is a time-based train/validation/test partition of the premodel table.
type Split struct {
	Train *dataset.Table
	Val   *dataset.Table
	Test  *dataset.Table

	// Season labels when the split is season-based, zero otherwise
	TrainSeason int
	ValSeason   int
	TestSeason  int
	BySeason    bool
}

// DetectSplits partitions by Season: 2023/2024/2025 when all three exist,
// otherwise the last three seasons, otherwise a 60/20/20 cut over distinct
// (Season, Round) pairs in order.
func DetectSplits(t *dataset.Table) (*Split, error) {
	if !t.HasColumn("Season") {
		return nil, fmt.Errorf("premodel table has no Season column")
	}

	seasons := distinctSeasons(t)
	if containsAll(seasons, 2023, 2024, 2025) {
		return splitBySeasons(t, 2023, 2024, 2025), nil
	}
	if len(seasons) >= 3 {
		n := len(seasons)
		return splitBySeasons(t, seasons[n-3], seasons[n-2], seasons[n-1]), nil
	}
	return splitByRounds(t)
}

func distinctSeasons(t *dataset.Table) []int {
	seen := make(map[int]bool)
	out := make([]int, 0)
	for i := 0; i < t.NumRows(); i++ {
		if v, ok := t.Float(i, "Season"); ok {
			s := int(v)
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Ints(out)
	return out
}

func containsAll(seasons []int, wanted ...int) bool {
	have := make(map[int]bool, len(seasons))
	for _, s := range seasons {
		have[s] = true
	}
	for _, w := range wanted {
		if !have[w] {
			return false
		}
	}
	return true
}

func splitBySeasons(t *dataset.Table, train, val, test int) *Split {
	inSeason := func(season int) func(int) bool {
		return func(row int) bool {
			v, ok := t.Float(row, "Season")
			return ok && int(v) == season
		}
	}
	return &Split{
		Train:       t.Filter(inSeason(train)),
		Val:         t.Filter(inSeason(val)),
		Test:        t.Filter(inSeason(test)),
		TrainSeason: train,
		ValSeason:   val,
		TestSeason:  test,
		BySeason:    true,
	}
}

// splitByRounds cuts distinct (Season, Round) pairs 60/20/20 in order
func splitByRounds(t *dataset.Table) (*Split, error) {
	if !t.HasColumn("Round") {
		return nil, fmt.Errorf("premodel table has neither three seasons nor a Round column")
	}

	type event struct{ season, round string }
	seen := make(map[event]bool)
	events := make([]event, 0)
	for i := 0; i < t.NumRows(); i++ {
		e := event{t.Value(i, "Season"), t.Value(i, "Round")}
		if !seen[e] {
			seen[e] = true
			events = append(events, e)
		}
	}

	cut1 := int(float64(len(events)) * 0.6)
	cut2 := int(float64(len(events)) * 0.8)
	bucket := make(map[event]int, len(events))
	for i, e := range events {
		switch {
		case i < cut1:
			bucket[e] = 0
		case i < cut2:
			bucket[e] = 1
		default:
			bucket[e] = 2
		}
	}

	pick := func(want int) func(int) bool {
		return func(row int) bool {
			e := event{t.Value(row, "Season"), t.Value(row, "Round")}
			return bucket[e] == want
		}
	}
	return &Split{
		Train: t.Filter(pick(0)),
		Val:   t.Filter(pick(1)),
		Test:  t.Filter(pick(2)),
	}, nil
}
