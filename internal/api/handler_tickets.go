package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"floor-service-backend/internal/ledger"
	"floor-service-backend/internal/model"
)

type createTicketRequest struct {
	OrderType     model.OrderType      `json:"orderType" binding:"required"`
	TableOrClubID *string              `json:"tableOrClubId"`
	Items         []ledger.ItemRequest `json:"items" binding:"required,min=1,dive"`
}

// PostTicket handles POST /api/tickets: a standalone takeaway ticket, or a
// direct dispatch onto the open dine-in ticket for a table/club key.
func (h *Handler) PostTicket(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.OrderType {
	case model.OrderTakeaway:
		ticket, err := h.kitchen.CreateTakeaway(c.Request.Context(), req.Items)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ticket)
	case model.OrderDineIn:
		if req.TableOrClubID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tableOrClubId is required for dine-in"})
			return
		}
		ticket, err := h.kitchen.Dispatch(c.Request.Context(), *req.TableOrClubID, req.Items)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ticket)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order type"})
	}
}

type advanceLineRequest struct {
	NewStatus model.TicketLineStatus `json:"newStatus" binding:"required"`
}

// PostAdvanceTicketLine handles POST /api/tickets/:id/lines/:idx/advance.
func (h *Handler) PostAdvanceTicketLine(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return
	}

	var req advanceLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.kitchen.AdvanceLine(c.Request.Context(), c.Param("id"), idx, req.NewStatus)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// DeleteTicketLine handles DELETE /api/tickets/:id/lines/:idx.
func (h *Handler) DeleteTicketLine(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return
	}

	if err := h.kitchen.CancelLine(c.Request.Context(), c.Param("id"), idx); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTickets handles GET /api/tickets?outlet_id=: the classified kitchen
// queue columns.
func (h *Handler) GetTickets(c *gin.Context) {
	outletID := c.Query("outlet_id")
	if outletID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "outlet_id is required"})
		return
	}

	queues, err := h.kitchen.Queues(c.Request.Context(), outletID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, queues)
}
