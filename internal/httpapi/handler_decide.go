package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adecorp/ade/internal/audit"
	"github.com/adecorp/ade/internal/learner"
	"github.com/adecorp/ade/internal/memory"
)

// handleDecide implements POST /v1/decide (§6.1).
func (s *Server) handleDecide(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	response, err := s.Pipeline.Run(req.toStagesRequest())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)

	platform, _ := req.Context["platform"].(string)
	if platform == "" {
		platform = "default"
	}
	go s.dispatchLearners(platform, req.UserID, response)
}

// dispatchLearners runs every registered learner on a task separate from
// the request path (§4.8, invariant: learners never run on the request
// path), fed the memory snapshot in force at commit time.
func (s *Server) dispatchLearners(platform, userID string, response audit.DecisionResponse) {
	if s.LearnerRegistry == nil {
		return
	}
	entry, _ := s.MemoryStore.Get(platform, userID)
	snapshot, err := memory.NewSnapshot(entry)
	if err != nil {
		return
	}
	input := learner.Input{
		DecisionID:       response.Decision.DecisionID,
		Platform:         platform,
		UserID:           userID,
		FinalDecision:    response,
		Timestamp:        time.Now(),
		MemorySnapshotID: snapshot.Hash,
	}
	s.LearnerRegistry.Dispatch(context.Background(), input, s.MemoryStore)
}
