package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/skillpath-engine/internal/models"
)

// LoadSeedDir reads all career path YAML files from a directory, one file
// per career path. Files that fail to parse or validate are skipped with a
// warning so one bad file cannot block startup.
func LoadSeedDir(dir string) ([]*models.CareerPath, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed directory: %w", err)
	}

	var paths []*models.CareerPath
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		cp, err := LoadSeedFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Warn("failed to load career path seed", "file", entry.Name(), "error", err)
			continue
		}
		paths = append(paths, cp)

		slog.Info("career path seed loaded",
			"id", cp.ID,
			"title", cp.Title,
			"learning_paths", len(cp.LearningPaths),
		)
	}

	return paths, nil
}

// LoadSeedFile parses and validates a single career path YAML file. The
// career path id defaults to the file name without extension.
func LoadSeedFile(path string) (*models.CareerPath, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var cp models.CareerPath
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cp.ID == "" {
		base := filepath.Base(path)
		cp.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if err := ValidateCareerPath(&cp); err != nil {
		return nil, err
	}

	return &cp, nil
}
