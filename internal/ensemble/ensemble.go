package ensemble

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

// foldFilePattern names the per-fold model artifacts
const foldFilePattern = "model_fold_*.json"

// Ensemble averages predictions from per-fold boosted models.
type Ensemble struct {
	FeatureNames []string        `json:"feature_names"`
	Target       string          `json:"target"`
	Params       Params          `json:"params"`
	Folds        []*BoostedModel `json:"-"`
	TrainedAt    time.Time       `json:"trained_at"`
}

// foldArtifact is the on-disk form of one fold model.
type foldArtifact struct {
	Fold         int           `json:"fold"`
	FeatureNames []string      `json:"feature_names"`
	Target       string        `json:"target"`
	Params       Params        `json:"params"`
	TrainedAt    time.Time     `json:"trained_at"`
	Model        *BoostedModel `json:"model"`
}

// Train fits one boosted model per fold over a shuffled k-fold partition of
// the training rows. Each fold model trains on all rows outside its fold, so
// averaging the folds at scoring time behaves like bagging.
func Train(x [][]float64, y []float64, featureNames []string, target string, folds int, params Params, log *logrus.Logger) (*Ensemble, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d feature rows, %d targets", ErrDimensionMismatch, len(x), len(y))
	}
	if folds < 1 {
		folds = 1
	}
	if len(x) < folds {
		return nil, fmt.Errorf("%w: %d rows for %d folds", ErrInsufficientData, len(x), folds)
	}

	indices := make([]int, len(x))
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(params.Seed))
	rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	e := &Ensemble{
		FeatureNames: featureNames,
		Target:       target,
		Params:       params,
		Folds:        make([]*BoostedModel, 0, folds),
		TrainedAt:    time.Now().UTC(),
	}

	for fold := 0; fold < folds; fold++ {
		trainRows := make([]int, 0, len(indices))
		for i, row := range indices {
			if folds == 1 || i%folds != fold {
				trainRows = append(trainRows, row)
			}
		}

		started := time.Now()
		model, err := fitBoosted(x, y, trainRows, params)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}
		e.Folds = append(e.Folds, model)

		if log != nil {
			log.WithFields(logrus.Fields{
				"fold":       fold,
				"train_rows": len(trainRows),
				"trees":      params.Trees,
				"duration":   time.Since(started).String(),
			}).Info("Fitted fold model")
		}
	}

	return e, nil
}

// Predict averages per-fold predictions for one feature vector
func (e *Ensemble) Predict(x []float64) (float64, error) {
	if len(e.Folds) == 0 {
		return 0, ErrNoFolds
	}
	sum := 0.0
	for _, m := range e.Folds {
		p, err := m.Predict(x)
		if err != nil {
			return 0, err
		}
		sum += p
	}
	return sum / float64(len(e.Folds)), nil
}

// PredictBatch averages per-fold predictions for each row
func (e *Ensemble) PredictBatch(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, x := range rows {
		p, err := e.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// Save writes one model_fold_N.json per fold into dir
func (e *Ensemble) Save(dir string) error {
	if len(e.Folds) == 0 {
		return ErrNoFolds
	}
	for i, m := range e.Folds {
		artifact := foldArtifact{
			Fold:         i,
			FeatureNames: e.FeatureNames,
			Target:       e.Target,
			Params:       e.Params,
			TrainedAt:    e.TrainedAt,
			Model:        m,
		}
		data, err := json.Marshal(artifact)
		if err != nil {
			return fmt.Errorf("failed to encode fold %d: %w", i, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("model_fold_%d.json", i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write fold %d: %w", i, err)
		}
	}
	return nil
}

// Load reads all model_fold_N.json artifacts from dir, ordered by fold
func Load(dir string) (*Ensemble, error) {
	paths, err := filepath.Glob(filepath.Join(dir, foldFilePattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list fold models: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no %s in %s", models.ErrArtifactMissing, foldFilePattern, dir)
	}
	sort.Strings(paths)

	e := &Ensemble{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var artifact foldArtifact
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", models.ErrArtifactCorrupt, path, err)
		}
		if artifact.Model == nil {
			return nil, fmt.Errorf("%w: %s has no model", models.ErrArtifactCorrupt, path)
		}
		if e.FeatureNames == nil {
			e.FeatureNames = artifact.FeatureNames
			e.Target = artifact.Target
			e.Params = artifact.Params
			e.TrainedAt = artifact.TrainedAt
		}
		e.Folds = append(e.Folds, artifact.Model)
	}
	return e, nil
}
