package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prizepool/draw-engine-backend/internal/models"
)

// errorStatus maps domain error kinds to HTTP statuses. Buyer-recoverable
// allocation errors are conflicts, precondition failures on the operator
// surface are 409/412, lookups are 404, anything unknown is a 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrCompetitionNotFound),
		errors.Is(err, models.ErrTicketNotFound),
		errors.Is(err, models.ErrDrawNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientInventory),
		errors.Is(err, models.ErrPerUserCapExceeded),
		errors.Is(err, models.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, models.ErrPoolAlreadyLocked),
		errors.Is(err, models.ErrSnapshotExists),
		errors.Is(err, models.ErrDrawAlreadyExecuted):
		return http.StatusConflict
	case errors.Is(err, models.ErrCapacityExceeded),
		errors.Is(err, models.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrSnapshotMissing),
		errors.Is(err, models.ErrCompetitionNotClosed),
		errors.Is(err, models.ErrTicketNotSold):
		return http.StatusPreconditionFailed
	case errors.Is(err, models.ErrNotTicketOwner):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the standard error payload
func abortWithError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}
