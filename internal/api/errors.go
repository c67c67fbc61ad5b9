package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"floor-service-backend/internal/floor"
	"floor-service-backend/internal/kitchen"
	"floor-service-backend/internal/ledger"
	"floor-service-backend/internal/menu"
	"floor-service-backend/internal/store"
)

// abortWithError maps domain sentinels onto HTTP status codes. Every
// failure is terminal for the caller; clients re-fetch current state before
// retrying.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, floor.ErrTableUnavailable):
		status, code = http.StatusConflict, "table_unavailable"
	case errors.Is(err, floor.ErrInvalidCovers):
		status, code = http.StatusUnprocessableEntity, "invalid_covers"
	case errors.Is(err, floor.ErrInvalidStateTransition):
		status, code = http.StatusConflict, "invalid_state_transition"
	case errors.Is(err, floor.ErrAlreadyClosed):
		status, code = http.StatusConflict, "already_closed"
	case errors.Is(err, ledger.ErrSeatingClosed):
		status, code = http.StatusConflict, "seating_closed"
	case errors.Is(err, ledger.ErrLineCancelled):
		status, code = http.StatusConflict, "line_cancelled"
	case errors.Is(err, ledger.ErrLineNotFound):
		status, code = http.StatusNotFound, "line_not_found"
	case errors.Is(err, menu.ErrUnknownItem):
		status, code = http.StatusUnprocessableEntity, "unknown_menu_item"
	case errors.Is(err, kitchen.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.Is(err, kitchen.ErrNoOpenSeating):
		status, code = http.StatusConflict, "no_open_seating"
	case errors.Is(err, kitchen.ErrLineNotFound):
		status, code = http.StatusNotFound, "line_not_found"
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": code, "detail": err.Error()})
}
