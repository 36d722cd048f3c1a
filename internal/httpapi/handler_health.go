package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adecorp/ade/internal/scenario"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusDegraded  = "degraded"
	healthStatusUnhealthy = "unhealthy"
)

// componentHealth is one component's status in the composite response.
type componentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// handleHealth implements GET /v1/health (§6.1, supplemented per-component
// breakdown).
func (s *Server) handleHealth(c *gin.Context) {
	checks := map[string]componentHealth{}
	overall := healthStatusHealthy

	if summaries := s.Registry.List(); len(summaries) == 0 {
		overall = healthStatusDegraded
		checks["scenario_registry"] = componentHealth{Status: healthStatusDegraded, Message: "no scenarios registered"}
	} else {
		checks["scenario_registry"] = componentHealth{Status: healthStatusHealthy}
	}

	if s.AuditStore == nil {
		overall = healthStatusUnhealthy
		checks["audit_store"] = componentHealth{Status: healthStatusUnhealthy, Message: "not configured"}
	} else {
		checks["audit_store"] = componentHealth{Status: healthStatusHealthy}
	}

	if _, err := s.Executors.GetBestAvailable(); err != nil {
		overall = healthStatusUnhealthy
		checks["executor_registry"] = componentHealth{Status: healthStatusUnhealthy, Message: err.Error()}
	} else {
		checks["executor_registry"] = componentHealth{Status: healthStatusHealthy}
	}

	httpStatus := http.StatusOK
	if overall == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":         overall,
		"engine_version": s.EngineVersion,
		"uptime_seconds": int(time.Since(s.StartedAt).Seconds()),
		"checks":         checks,
	})
}

// handleListScenarios implements GET /v1/scenarios (supplemented, §7.1).
func (s *Server) handleListScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenarios": s.Registry.List()})
}

// handleGetScenario implements GET /v1/scenarios/{id} (supplemented, §7.1):
// returns every registered version of the scenario, latest first.
func (s *Server) handleGetScenario(c *gin.Context) {
	id := c.Param("id")
	var versions []scenario.ScenarioSummary
	for _, summary := range s.Registry.List() {
		if summary.ScenarioID == id {
			versions = append(versions, summary)
		}
	}
	if len(versions) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "no scenario " + id})
		return
	}
	// List is ascending by version; reverse it so the latest comes first.
	for i, j := 0, len(versions)-1; i < j; i, j = i+1, j-1 {
		versions[i], versions[j] = versions[j], versions[i]
	}
	c.JSON(http.StatusOK, gin.H{"scenario_id": id, "versions": versions})
}
