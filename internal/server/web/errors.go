package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lodeworks/quarry/internal/common"
)

// writeError maps a service error to an HTTP response. Unrecognized errors
// become an opaque 500 so internals never leak to the client.
func writeError(c *gin.Context, err error) {
	var rle *common.RateLimitError
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already taken"})
	case errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrLastPublicVersion):
		c.JSON(http.StatusConflict, gin.H{"error": "cannot delete the last public version"})
	case errors.As(err, &rle):
		c.Header("Retry-After", rle.NextAllowed.UTC().Format(http.TimeFormat))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rename not allowed yet", "next_allowed": rle.NextAllowed})
	case errors.Is(err, common.ErrNotification):
		c.JSON(http.StatusBadGateway, gin.H{"error": "notification delivery failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
