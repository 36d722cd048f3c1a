package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleFeedback implements POST /v1/feedback (§6.1). Feedback for a known
// decision is acknowledged only: it is not stored, never mutates memory and
// never influences a future decision — there is no write path here.
func (s *Server) handleFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if !s.AuditStore.Exists(req.DecisionID) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "no decision " + req.DecisionID})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"accepted":         true,
		"learning_applied": false,
		"decision_id":      req.DecisionID,
	})
}
