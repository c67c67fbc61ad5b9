package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"floor-service-backend/internal/model"
)

// GetFloors handles the GET /api/floors request.
func GetFloors(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var floors []model.Floor
		q := db.Order("name")
		if outletID := c.Query("outlet_id"); outletID != "" {
			q = q.Where("outlet_id = ?", outletID)
		}
		if err := q.Find(&floors).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve floors"})
			return
		}
		c.JSON(http.StatusOK, floors)
	}
}

// tableView is the flattened grid entry for one table. Elapsed seating time
// and the attention flag are read-time computations, never stored state.
type tableView struct {
	model.DiningTable
	SeatedForSeconds int  `json:"seatedForSeconds"`
	NeedsAttention   bool `json:"needsAttention"`
}

// GetFloorTables handles the GET /api/floors/:floor_id/tables request.
func (h *Handler) GetFloorTables(c *gin.Context) {
	var tables []model.DiningTable
	err := h.store.DB().WithContext(c.Request.Context()).
		Where("floor_id = ?", c.Param("floor_id")).
		Order("name").
		Find(&tables).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve tables"})
		return
	}

	now := time.Now().UTC()
	views := make([]tableView, 0, len(tables))
	for _, t := range tables {
		v := tableView{DiningTable: t}
		if t.SeatedAt != nil {
			elapsed := now.Sub(*t.SeatedAt)
			v.SeatedForSeconds = int(elapsed.Seconds())
			if h.needsAttentionAfter > 0 && elapsed > h.needsAttentionAfter {
				v.NeedsAttention = true
			}
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, views)
}
