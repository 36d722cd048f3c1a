package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adecorp/ade/internal/scenario"
)

// LoadScenarioDir reads every *.yaml/*.yml file in dir, decodes it as a
// Scenario document, and registers it. Scenarios are authored as YAML the
// same way the teacher authors tarsy.yaml (pkg/config/loader.go); ADE
// decodes via a YAML->JSON round-trip so Scenario keeps its existing json
// struct tags as the single source of truth instead of duplicating them
// as yaml tags.
//
// A directory that doesn't exist is not an error: the engine is runnable
// with scenarios registered purely through code (tests, embedding
// callers) and no on-disk directory at all.
func LoadScenarioDir(dir string, registry *scenario.Registry) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		slog.Warn("scenario directory does not exist, skipping", "dir", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("engine: read scenario dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		path := filepath.Join(dir, name)
		if err := loadScenarioFile(path, registry); err != nil {
			return fmt.Errorf("engine: load scenario %s: %w", path, err)
		}
		slog.Info("registered scenario", "file", path)
	}
	return nil
}

func loadScenarioFile(path string, registry *scenario.Registry) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("reencode as json: %w", err)
	}

	var sc scenario.Scenario
	if err := json.Unmarshal(asJSON, &sc); err != nil {
		return fmt.Errorf("decode scenario: %w", err)
	}

	hash, err := scenario.Hash(&sc)
	if err != nil {
		return fmt.Errorf("hash scenario: %w", err)
	}
	return registry.Register(&sc, hash)
}
