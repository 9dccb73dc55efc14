// Package artifacts manages the model artifact directory: the fitted
// pipeline, per-fold models, calibration and the manifest that checksums
// them all.
package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

// ManifestFile is the manifest's own file name, excluded from checksumming
const ManifestFile = "manifest.json"

// FileEntry describes one artifact file.
type FileEntry struct {
	SHA256     string    `json:"sha256"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Manifest inventories the artifact directory.
type Manifest struct {
	ModelVersion string               `json:"model_version"`
	CreatedAt    time.Time            `json:"created_at"`
	Files        map[string]FileEntry `json:"files"`
}

// BuildManifest checksums every regular file in dir except the manifest
// itself.
func BuildManifest(dir, modelVersion string) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact dir: %w", err)
	}

	m := &Manifest{
		ModelVersion: modelVersion,
		CreatedAt:    time.Now().UTC(),
		Files:        make(map[string]FileEntry),
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == ManifestFile {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		sum, err := FileSHA256(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		m.Files[entry.Name()] = FileEntry{
			SHA256:     sum,
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		}
	}
	return m, nil
}

// Save writes the manifest into its artifact directory
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the manifest from an artifact directory
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrArtifactCorrupt, path, err)
	}
	return m, nil
}

// Verify re-checksums the directory against the manifest and returns the
// names of missing or altered files, sorted.
func (m *Manifest) Verify(dir string) ([]string, error) {
	bad := make([]string, 0)
	for name, want := range m.Files {
		sum, err := FileSHA256(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				bad = append(bad, name)
				continue
			}
			return nil, err
		}
		if sum != want.SHA256 {
			bad = append(bad, name)
		}
	}
	sort.Strings(bad)
	return bad, nil
}

// FileSHA256 returns the hex SHA-256 digest of a file
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// BytesSHA256 returns the hex SHA-256 digest of a byte slice
func BytesSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
