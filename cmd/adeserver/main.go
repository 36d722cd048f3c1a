// ADE server - runs the Adaptive Decision Engine's HTTP surface.
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/adecorp/ade/internal/engine"
)

func main() {
	envPath := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg := engine.LoadConfig()
	slog.Info("starting ade", "engine_version", cfg.EngineVersion, "listen_addr", cfg.ListenAddr, "scenario_dir", cfg.ScenarioDir)

	eng, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}

	if err := eng.Start(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
