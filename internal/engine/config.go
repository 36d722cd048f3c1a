// Package engine wires every ADE component (expression evaluator through
// the HTTP surface) into one runnable unit, the way the teacher's
// cmd/tarsy/main.go wires config, database, and services before handing
// them to the router — except ADE has no database: its registries and
// stores are all in-process.
package engine

import (
	"os"
	"time"

	"github.com/adecorp/ade/pkg/version"
)

// Config is process-level configuration, loaded from the environment by
// cmd/adeserver with the teacher's getEnv-with-default pattern.
type Config struct {
	EngineVersion string
	ListenAddr    string
	ScenarioDir   string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// getEnv returns the environment variable's value, or defaultValue when
// unset or empty (cmd/tarsy/main.go's getEnv, generalized into engine
// config loading rather than duplicated per binary).
func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// LoadConfig builds Config from the environment.
func LoadConfig() Config {
	return Config{
		EngineVersion: getEnv("ENGINE_VERSION", version.Full()),
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		ScenarioDir:   getEnv("SCENARIO_DIR", ""),
		ReadTimeout:   durationEnv("READ_TIMEOUT_MS", 5000),
		WriteTimeout:  durationEnv("WRITE_TIMEOUT_MS", 5000),
	}
}

func durationEnv(key string, defaultMs int) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return time.Duration(defaultMs) * time.Millisecond
	}
	if ms, err := time.ParseDuration(raw + "ms"); err == nil {
		return ms
	}
	return time.Duration(defaultMs) * time.Millisecond
}
