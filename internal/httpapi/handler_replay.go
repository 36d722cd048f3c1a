package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adecorp/ade/internal/audit"
)

// handleReplay implements GET /v1/replay/{decision_id|rpl_<token>} (§6.1):
// a read-only, frozen view of a committed trace.
func (s *Server) handleReplay(c *gin.Context) {
	id := c.Param("id")

	var trace audit.Trace
	var err error
	if strings.HasPrefix(id, audit.ReplayTokenPrefix) {
		trace, err = s.AuditStore.RetrieveByToken(id)
	} else {
		trace, err = s.AuditStore.Retrieve(id)
	}

	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "no trace for " + id})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL_ERROR", "message": err.Error()})
		return
	}

	c.Header("X-Replay-Only", "true")
	c.JSON(http.StatusOK, trace)
}
