package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMenu handles the GET /api/menu request.
func (h *Handler) GetMenu(c *gin.Context) {
	items, err := h.catalog.ListItems(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve menu"})
		return
	}
	c.JSON(http.StatusOK, items)
}
