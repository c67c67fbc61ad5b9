package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetActivity handles GET /api/activity?outlet_id=. The audit trail is
// written by the floor service and only ever read here, for display.
func (h *Handler) GetActivity(c *gin.Context) {
	outletID := c.Query("outlet_id")
	if outletID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "outlet_id is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.notifier.Recent(c.Request.Context(), outletID, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve activity log"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
