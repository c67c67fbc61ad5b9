package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"floor-service-backend/internal/ledger"
)

type startSeatingRequest struct {
	TableIDs []string `json:"tableIds" binding:"required,min=1"`
	Covers   uint     `json:"covers" binding:"required,min=1"`
	WaiterID string   `json:"waiterId" binding:"required"`
}

// PostSeating handles POST /api/seatings.
func (h *Handler) PostSeating(c *gin.Context) {
	var req startSeatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seating, tables, err := h.floor.StartSeating(c.Request.Context(), req.TableIDs, req.Covers, req.WaiterID, actor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"seating": seating, "tables": tables})
}

// GetSeating handles GET /api/seatings/:id.
func (h *Handler) GetSeating(c *gin.Context) {
	seating, err := h.store.GetSeating(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, seating)
}

type appendLinesRequest struct {
	Items []ledger.ItemRequest `json:"items" binding:"required,min=1,dive"`
}

// PostSeatingLines handles POST /api/seatings/:id/lines: the bill append and
// the kitchen dispatch run as one critical section.
func (h *Handler) PostSeatingLines(c *gin.Context) {
	var req appendLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seating, ticket, err := h.kitchen.SendToKitchen(c.Request.Context(), c.Param("id"), req.Items)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seating": seating, "ticket": ticket})
}

// PostSeatingClose handles POST /api/seatings/:id/close.
func (h *Handler) PostSeatingClose(c *gin.Context) {
	seating, tables, err := h.floor.FinalizeBill(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seating": seating, "tables": tables})
}

type cancelLineRequest struct {
	LineID int64 `json:"lineId" binding:"required"`
}

// PostSeatingCancelLine handles POST /api/seatings/:id/cancel-line.
func (h *Handler) PostSeatingCancelLine(c *gin.Context) {
	var req cancelLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seating, err := h.ledger.CancelLine(c.Request.Context(), c.Param("id"), req.LineID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, seating)
}
