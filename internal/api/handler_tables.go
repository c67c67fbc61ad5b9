package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PostAckFoodReady handles POST /api/tables/:id/ack-food-ready.
func (h *Handler) PostAckFoodReady(c *gin.Context) {
	table, err := h.floor.AcknowledgeFoodReady(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

type assignWaiterRequest struct {
	WaiterID string `json:"waiterId" binding:"required"`
}

// PostAssignWaiter handles POST /api/tables/:id/assign-waiter.
func (h *Handler) PostAssignWaiter(c *gin.Context) {
	var req assignWaiterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table, err := h.floor.AssignWaiter(c.Request.Context(), c.Param("id"), req.WaiterID, actor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

type clubTablesRequest struct {
	TableIDs []string `json:"tableIds" binding:"required,min=2"`
}

// PostClubTables handles POST /api/tables/club.
func (h *Handler) PostClubTables(c *gin.Context) {
	var req clubTablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tables, err := h.floor.ClubTables(c.Request.Context(), req.TableIDs, actor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}

type unclubTablesRequest struct {
	ClubID string `json:"clubId" binding:"required"`
}

// PostUnclubTables handles POST /api/tables/unclub.
func (h *Handler) PostUnclubTables(c *gin.Context) {
	var req unclubTablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tables, err := h.floor.UnclubTables(c.Request.Context(), req.ClubID, actor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tables)
}
