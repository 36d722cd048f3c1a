package engine

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adecorp/ade/internal/audit"
	"github.com/adecorp/ade/internal/executor"
	"github.com/adecorp/ade/internal/governance"
	"github.com/adecorp/ade/internal/httpapi"
	"github.com/adecorp/ade/internal/learner"
	"github.com/adecorp/ade/internal/memory"
	"github.com/adecorp/ade/internal/pipeline"
	"github.com/adecorp/ade/internal/scenario"
)

// Engine bundles every long-lived collaborator the process needs, built
// once at startup and handed to the HTTP server. It plays the role of the
// teacher's combination of config.Config, database.Client, and the
// pkg/services set, collapsed into one struct since ADE has no external
// database to connect.
type Engine struct {
	Config      Config
	Registry    *scenario.Registry
	Tables      *governance.Tables
	Executors   *executor.Registry
	MemoryStore memory.Store
	AuditStore  audit.Store
	Learners    *learner.Registry
	Pipeline    *pipeline.Pipeline
	Server      *httpapi.Server

	httpServer *http.Server
}

// New builds an Engine from cfg: loads governance pattern tables, loads
// any scenario documents found under cfg.ScenarioDir, and wires the
// pipeline orchestrator and HTTP surface on top. The learner set is fixed
// here: learners are passed to New, and the resulting registry has no
// exported mutator, so none can be added at request time.
func New(cfg Config, learners ...learner.Learner) (*Engine, error) {
	tables, err := governance.Load()
	if err != nil {
		return nil, fmt.Errorf("engine: load governance tables: %w", err)
	}

	registry := scenario.NewRegistry()
	if err := LoadScenarioDir(cfg.ScenarioDir, registry); err != nil {
		return nil, err
	}

	executors := executor.NewRegistry(executor.NewDeterministicExecutor())
	memoryStore := memory.NewInMemoryStore()
	auditStore := audit.NewInMemoryStore()
	learnerRegistry := learner.NewRegistry(learners...)

	p := pipeline.New(registry, tables, executors, memoryStore, auditStore, cfg.EngineVersion)
	server := httpapi.NewServer(p, registry, auditStore, memoryStore, learnerRegistry, executors, cfg.EngineVersion)

	return &Engine{
		Config:      cfg,
		Registry:    registry,
		Tables:      tables,
		Executors:   executors,
		MemoryStore: memoryStore,
		AuditStore:  auditStore,
		Learners:    learnerRegistry,
		Pipeline:    p,
		Server:      server,
	}, nil
}

// Router builds the gin.Engine with every route registered, for callers
// (tests, Start) that need it directly.
func (e *Engine) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	e.Server.RegisterRoutes(router)
	return router
}

// Start runs the HTTP server on cfg.ListenAddr, blocking until it stops
// (mirroring the teacher's Server.Start, generalized with read/write
// timeouts loaded from Config instead of gin's bare router.Run).
func (e *Engine) Start() error {
	e.httpServer = &http.Server{
		Addr:         e.Config.ListenAddr,
		Handler:      e.Router(),
		ReadTimeout:  e.Config.ReadTimeout,
		WriteTimeout: e.Config.WriteTimeout,
	}
	slog.Info("engine starting", "addr", e.Config.ListenAddr, "engine_version", e.Config.EngineVersion)
	return e.httpServer.ListenAndServe()
}

// StartWithListener runs the HTTP server on a pre-created listener, for
// test infrastructure that binds an OS-assigned port.
func (e *Engine) StartWithListener(ln net.Listener) error {
	e.httpServer = &http.Server{
		Handler:      e.Router(),
		ReadTimeout:  e.Config.ReadTimeout,
		WriteTimeout: e.Config.WriteTimeout,
	}
	return e.httpServer.Serve(ln)
}

// Shutdown closes the HTTP server immediately, if it was started; open
// connections are closed rather than drained.
func (e *Engine) Shutdown() error {
	if e.httpServer == nil {
		return nil
	}
	return e.httpServer.Close()
}
