package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gsuchecki40/formula-one-scorer/internal/artifacts"
	"github.com/gsuchecki40/formula-one-scorer/internal/models"
	"github.com/gsuchecki40/formula-one-scorer/internal/scoring"
)

// maxUploadBytes bounds uploaded premodel CSVs
const maxUploadBytes = 32 << 20

type scoreRequest struct {
	InputCSV string `json:"input_csv"`
}

type scoreResponse struct {
	RunID          string              `json:"run_id"`
	ModelVersion   string              `json:"model_version"`
	Calibrated     bool                `json:"calibrated"`
	RowsScored     int                 `json:"rows_scored"`
	RowsDropped    int                 `json:"rows_dropped"`
	MissingColumns []string            `json:"missing_columns,omitempty"`
	Metrics        *scoring.Metrics    `json:"metrics,omitempty"`
	Uncalibrated   *scoring.Metrics    `json:"uncalibrated_metrics,omitempty"`
	Predictions    []models.Prediction `json:"predictions"`
	Cached         bool                `json:"cached"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleScore scores a premodel CSV already on disk
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InputCSV == "" {
		writeError(w, http.StatusBadRequest, "input_csv is required")
		return
	}

	if resp, ok := s.cachedResponse(req.InputCSV); ok {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	s.scoreAndRespond(w, r, req.InputCSV, true)
}

// handleUploadAndScore accepts a multipart CSV upload and scores it
func (s *Server) handleUploadAndScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	if err := os.MkdirAll(s.cfg.Server.UploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	name := fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(header.Filename))
	path := filepath.Join(s.cfg.Server.UploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	dst.Close()

	s.scoreAndRespond(w, r, path, false)
}

func (s *Server) scoreAndRespond(w http.ResponseWriter, r *http.Request, path string, cacheable bool) {
	result, err := s.scorer.ScoreFile(path)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInputNotFound):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("input not found: %s", path))
		case errors.Is(err, models.ErrEmptyInput), errors.Is(err, models.ErrNoScorableRows):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.WithError(err).Error("Scoring request failed")
			writeError(w, http.StatusInternalServerError, "scoring failed")
		}
		return
	}

	resp := scoreResponse{
		RunID:          result.Run.ID.String(),
		ModelVersion:   result.Run.ModelVersion,
		Calibrated:     result.Run.Calibrated,
		RowsScored:     result.Run.RowsScored,
		RowsDropped:    result.RowsDropped,
		MissingColumns: result.MissingColumns,
		Metrics:        result.Metrics,
		Uncalibrated:   result.UncalibratedMetrics,
		Predictions:    result.Predictions,
	}

	if s.repo != nil {
		if err := s.repo.Create(r.Context(), result.Run, result.Predictions); err != nil {
			s.logger.WithError(err).Warn("Failed to persist scoring run")
		}
	}
	if cacheable && result.Run.InputChecksum != "" {
		s.cache.SetDefault(s.cacheKey(result.Run.InputChecksum), resp)
	}

	writeJSON(w, http.StatusOK, resp)
}

// cachedResponse returns a cached score for an unchanged input file
func (s *Server) cachedResponse(path string) (scoreResponse, bool) {
	checksum, err := artifacts.FileSHA256(path)
	if err != nil {
		return scoreResponse{}, false
	}
	cached, ok := s.cache.Get(s.cacheKey(checksum))
	if !ok {
		return scoreResponse{}, false
	}
	resp, ok := cached.(scoreResponse)
	if !ok {
		return scoreResponse{}, false
	}
	resp.Cached = true
	return resp, true
}

func (s *Server) cacheKey(checksum string) string {
	return checksum + ":" + s.scorer.ModelVersion()
}

type healthResponse struct {
	Status         string              `json:"status"`
	Service        string              `json:"service"`
	Timestamp      string              `json:"timestamp"`
	ModelVersion   string              `json:"model_version"`
	ArtifactsDirOK bool                `json:"artifacts_dir_exists"`
	Manifest       *artifacts.Manifest `json:"manifest,omitempty"`
}

// handleHealth reports liveness, the artifacts directory and the loaded
// manifest
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(s.cfg.Artifacts.Dir)
	dirOK := err == nil && info.IsDir()

	status := "ok"
	if !dirOK {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         status,
		Service:        s.cfg.App.Name,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ModelVersion:   s.scorer.ModelVersion(),
		ArtifactsDirOK: dirOK,
		Manifest:       s.scorer.Manifest(),
	})
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleReady verifies artifacts and, when enabled, the database
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"artifacts": "ok"}
	healthy := true

	if s.scorer.Ensemble() == nil || len(s.scorer.Ensemble().Folds) == 0 {
		checks["artifacts"] = "no fold models loaded"
		healthy = false
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = fmt.Sprintf("error: %v", err)
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}

	status := http.StatusOK
	resp := readyResponse{Status: "ok", Checks: checks}
	if !healthy {
		status = http.StatusServiceUnavailable
		resp.Status = "not_ready"
	}
	writeJSON(w, status, resp)
}

type versionResponse struct {
	Service      string   `json:"service"`
	Version      string   `json:"version"`
	ModelVersion string   `json:"model_version"`
	Artifacts    []string `json:"artifacts"`
}

// maxVersionArtifacts caps the artifact listing in /version
const maxVersionArtifacts = 20

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Service:      s.cfg.App.Name,
		Version:      Version,
		ModelVersion: s.scorer.ModelVersion(),
		Artifacts:    s.artifactNames(maxVersionArtifacts),
	})
}

// artifactNames lists the first n manifest entries in name order
func (s *Server) artifactNames(n int) []string {
	manifest := s.scorer.Manifest()
	if manifest == nil {
		return []string{}
	}
	names := make([]string, 0, len(manifest.Files))
	for name := range manifest.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// handleRuns lists recent persisted scoring runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotFound, "scoring run persistence is disabled")
		return
	}

	runs, err := s.repo.ListRecent(r.Context(), 50)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list scoring runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
