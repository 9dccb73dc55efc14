package scoring

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/artifacts"
	"github.com/gsuchecki40/formula-one-scorer/internal/config"
	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/ensemble"
	"github.com/gsuchecki40/formula-one-scorer/internal/logger"
	"github.com/gsuchecki40/formula-one-scorer/internal/models"
	"github.com/gsuchecki40/formula-one-scorer/internal/preprocess"
)

// lappedStatus marks cars that finished laps down; their finish-time
// deviation is not comparable and the rows are never scored.
const lappedStatus = "Lapped"

// Result is the outcome of one scoring run. Metrics covers the calibrated
// predictions, UncalibratedMetrics the raw fold averages.
type Result struct {
	Predictions         []models.Prediction
	Uncalibrated        []float64
	Metrics             *Metrics
	UncalibratedMetrics *Metrics
	RowsDropped         int
	MissingColumns      []string
	Run                 *models.ScoringRun
}

// Scorer scores premodel tables with the fitted artifacts. Reload swaps the
// artifact set atomically, so a Scorer is safe for concurrent use.
type Scorer struct {
	cfg *config.Config
	log *logger.ScoringLogger

	mu          sync.RWMutex
	pipeline    *preprocess.Pipeline
	model       *ensemble.Ensemble
	calibration *ensemble.Calibration
	manifest    *artifacts.Manifest
}

// NewScorer loads the artifact directory and returns a ready scorer
func NewScorer(cfg *config.Config, baseLogger *logrus.Logger) (*Scorer, error) {
	s := &Scorer{
		cfg: cfg,
		log: logger.NewScoringLogger(baseLogger),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads all artifacts from the configured directory
func (s *Scorer) Reload() error {
	pipeline, err := preprocess.Load(s.cfg.PipelinePath())
	if err != nil {
		ArtifactReloadsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to load pipeline: %w", err)
	}

	model, err := ensemble.Load(s.cfg.Artifacts.Dir)
	if err != nil {
		ArtifactReloadsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to load fold models: %w", err)
	}

	// calibration and manifest are optional
	calibration, err := ensemble.LoadCalibration(s.cfg.CalibrationPath())
	if err != nil {
		ArtifactReloadsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to load calibration: %w", err)
	}

	manifest, err := artifacts.LoadManifest(s.cfg.Artifacts.Dir)
	if err != nil {
		s.log.WithError(err).Warn("No artifact manifest, integrity checks skipped")
		manifest = nil
	}

	s.mu.Lock()
	s.pipeline = pipeline
	s.model = model
	s.calibration = calibration
	s.manifest = manifest
	s.mu.Unlock()

	ArtifactReloadsTotal.WithLabelValues("success").Inc()
	s.log.LogArtifactRefresh(len(model.Folds), s.ModelVersion())
	return nil
}

// ModelVersion returns the configured model version, falling back to the
// manifest's
func (s *Scorer) ModelVersion() string {
	if s.cfg.Artifacts.ModelVersion != "" {
		return s.cfg.Artifacts.ModelVersion
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.manifest != nil {
		return s.manifest.ModelVersion
	}
	return "unknown"
}

// Manifest returns the loaded artifact manifest, or nil
func (s *Scorer) Manifest() *artifacts.Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manifest
}

// Ensemble exposes the loaded fold models for attribution
func (s *Scorer) Ensemble() *ensemble.Ensemble {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Pipeline exposes the loaded preprocessing transformer
func (s *Scorer) Pipeline() *preprocess.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

// ScoreFile reads and scores a raw premodel CSV
func (s *Scorer) ScoreFile(path string) (*Result, error) {
	t, err := dataset.ReadCSV(path)
	if err != nil {
		ScoringRunsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: %s: %v", models.ErrInputNotFound, path, err)
	}

	checksum, err := artifacts.FileSHA256(path)
	if err != nil {
		checksum = ""
	}
	return s.score(t, path, checksum)
}

// ScoreTable scores an in-memory premodel table
func (s *Scorer) ScoreTable(t *dataset.Table) (*Result, error) {
	return s.score(t, "", "")
}

func (s *Scorer) score(t *dataset.Table, inputPath, checksum string) (*Result, error) {
	started := time.Now()

	s.mu.RLock()
	pipeline := s.pipeline
	model := s.model
	calibration := s.calibration
	s.mu.RUnlock()

	if t.NumRows() == 0 {
		ScoringRunsTotal.WithLabelValues("empty").Inc()
		return nil, models.ErrEmptyInput
	}

	kept, dropped := s.filterRows(t)
	ScoringRowsTotal.WithLabelValues("dropped").Add(float64(dropped))
	if kept.NumRows() == 0 {
		ScoringRunsTotal.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("%w: all %d rows filtered", models.ErrNoScorableRows, t.NumRows())
	}

	missing := pipeline.MissingColumns(kept)
	s.logFallbacks(pipeline, missing)

	matrix, err := pipeline.Transform(kept)
	if err != nil {
		ScoringRunsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrScoringFailed, err)
	}

	raw, err := model.PredictBatch(matrix.Rows)
	if err != nil {
		ScoringRunsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrScoringFailed, err)
	}

	calibrated := calibration != nil && calibration.Fitted
	final := calibration.ApplyBatch(raw)

	result := &Result{
		Uncalibrated:   raw,
		RowsDropped:    dropped,
		MissingColumns: missing,
		Predictions:    make([]models.Prediction, kept.NumRows()),
	}

	truthPred := make([]float64, 0, kept.NumRows())
	truthRaw := make([]float64, 0, kept.NumRows())
	truthVals := make([]float64, 0, kept.NumRows())
	for i := 0; i < kept.NumRows(); i++ {
		p := s.buildPrediction(kept, i, final[i], calibrated)
		if !p.IsFinite() {
			ScoringRunsTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("%w: non-finite prediction at row %d", models.ErrScoringFailed, i)
		}
		if p.Truth != nil {
			truthPred = append(truthPred, p.Value)
			truthRaw = append(truthRaw, raw[i])
			truthVals = append(truthVals, *p.Truth)
		}
		result.Predictions[i] = p
	}
	result.Metrics = Evaluate(truthPred, truthVals)
	result.UncalibratedMetrics = Evaluate(truthRaw, truthVals)

	finished := time.Now()
	run := &models.ScoringRun{
		ID:            uuid.New(),
		InputPath:     inputPath,
		InputChecksum: checksum,
		ModelVersion:  s.ModelVersion(),
		RowsScored:    kept.NumRows(),
		RowsDropped:   dropped,
		Calibrated:    calibrated,
		StartedAt:     started.UTC(),
		FinishedAt:    finished.UTC(),
	}
	if result.Metrics != nil {
		run.RMSE = &result.Metrics.RMSE
		run.MAE = &result.Metrics.MAE
		run.R2 = &result.Metrics.R2
	}
	result.Run = run

	ScoringRunsTotal.WithLabelValues("success").Inc()
	ScoringRowsTotal.WithLabelValues("scored").Add(float64(kept.NumRows()))
	ScoringDuration.Observe(finished.Sub(started).Seconds())
	s.log.LogScoringRun(inputPath, run.RowsScored, run.RowsDropped, calibrated,
		float64(finished.Sub(started).Milliseconds()))

	return result, nil
}

// filterRows drops lapped cars always and retirements when configured.
// Retirements carry a ClassifiedPosition of R.
func (s *Scorer) filterRows(t *dataset.Table) (*dataset.Table, int) {
	kept := t.Filter(func(row int) bool {
		if strings.EqualFold(strings.TrimSpace(t.Value(row, "Status")), lappedStatus) {
			return false
		}
		if s.cfg.Scoring.DropRetirements {
			pos := strings.ToUpper(strings.TrimSpace(t.Value(row, "ClassifiedPosition")))
			if strings.HasPrefix(pos, "R") {
				return false
			}
		}
		return true
	})
	return kept, t.NumRows() - kept.NumRows()
}

func (s *Scorer) logFallbacks(pipeline *preprocess.Pipeline, missing []string) {
	numeric := make(map[string]bool, len(pipeline.Roles.Numeric))
	for _, col := range pipeline.Roles.Numeric {
		numeric[col] = true
	}
	for _, col := range missing {
		strategy := "constant_missing"
		if numeric[col] {
			strategy = "train_median"
		}
		s.log.LogFallback(col, strategy)
		ScoringFallbacksTotal.WithLabelValues(strategy).Inc()
	}
}

// buildPrediction carries row identity columns through to the output
func (s *Scorer) buildPrediction(t *dataset.Table, row int, value float64, calibrated bool) models.Prediction {
	p := models.Prediction{
		RowIndex:     row,
		DriverNumber: t.Value(row, "DriverNumber"),
		Driver:       t.Value(row, "Driver"),
		TeamName:     t.Value(row, "TeamName"),
		Round:        t.Value(row, "Round"),
		Value:        value,
		Calibrated:   calibrated,
	}
	if p.Driver == "" {
		p.Driver = t.Value(row, "Abbreviation")
	}
	if season, ok := t.Float(row, "Season"); ok {
		p.Season = int(season)
	}
	if grid, ok := t.Float(row, "GridPosition"); ok {
		p.GridPosition = &grid
	}
	if truth, ok := t.Float(row, s.cfg.Training.Target); ok {
		p.Truth = &truth
	}
	return p
}
