// Package httpapi implements the engine's gin HTTP surface (§6.1): decide,
// replay, feedback, health, plus the supplemented scenario introspection
// endpoints. Handlers follow the teacher's pkg/api/handlers.go shape
// (gin.Context, ShouldBindJSON, gin.H error bodies) generalized from
// session/alert endpoints to decision endpoints.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adecorp/ade/internal/audit"
	"github.com/adecorp/ade/internal/executor"
	"github.com/adecorp/ade/internal/learner"
	"github.com/adecorp/ade/internal/memory"
	"github.com/adecorp/ade/internal/pipeline"
	"github.com/adecorp/ade/internal/scenario"
)

// Server holds every collaborator a handler needs.
type Server struct {
	Pipeline        *pipeline.Pipeline
	Registry        *scenario.Registry
	AuditStore      audit.Store
	MemoryStore     memory.Store
	LearnerRegistry *learner.Registry
	Executors       *executor.Registry
	EngineVersion   string
	StartedAt       time.Time
}

// NewServer constructs a Server.
func NewServer(p *pipeline.Pipeline, registry *scenario.Registry, auditStore audit.Store, memoryStore memory.Store, learnerRegistry *learner.Registry, executors *executor.Registry, engineVersion string) *Server {
	return &Server{
		Pipeline:        p,
		Registry:        registry,
		AuditStore:      auditStore,
		MemoryStore:     memoryStore,
		LearnerRegistry: learnerRegistry,
		Executors:       executors,
		EngineVersion:   engineVersion,
		StartedAt:       time.Now(),
	}
}

// RegisterRoutes wires every handler onto router.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/v1")
	v1.POST("/decide", s.handleDecide)
	v1.GET("/replay/:id", s.handleReplay)
	v1.POST("/feedback", s.handleFeedback)
	v1.GET("/health", s.handleHealth)
	v1.GET("/scenarios", s.handleListScenarios)
	v1.GET("/scenarios/:id", s.handleGetScenario)
}
