package api

import (
	"net/http"

	"github.com/dkravets/airreserve/internal/domain"
	"github.com/gin-gonic/gin"
)

// writeError maps domain error kinds to HTTP statuses. The core supplies
// the kind and a reason string; everything user-facing beyond that belongs
// to the caller.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNoMatchingOffer, domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindNoAvailability, domain.KindTransition:
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
