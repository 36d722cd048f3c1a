package httpapi

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/adecorp/ade/internal/apperr"
)

// writeError maps a pipeline error onto the response per §7's status
// table, falling back to 500 for anything the taxonomy doesn't recognize.
func writeError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(apperr.HTTPStatus(appErr.Kind), gin.H{
			"code":    string(appErr.Kind),
			"message": appErr.Message,
			"details": appErr.Details,
		})
		return
	}
	c.JSON(apperr.HTTPStatus(apperr.KindInternalError), gin.H{
		"code":    string(apperr.KindInternalError),
		"message": err.Error(),
	})
}
