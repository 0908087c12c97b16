package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"stivoting/internal/services"
)

// respondError translates the service error taxonomy into structured
// responses. Internal details are logged, never returned.
func respondError(c *gin.Context, err error) {
	var (
		validationErr   *services.ValidationError
		conflictErr     *services.ConflictError
		unauthorizedErr *services.UnauthorizedError
		notFoundErr     *services.NotFoundError
		invalidCodeErr  *services.InvalidCodeError
		goneErr         *services.GoneError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"name": validationErr.Name, "message": validationErr.Message})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"name": conflictErr.Name, "message": conflictErr.Message})
	case errors.As(err, &unauthorizedErr):
		c.JSON(http.StatusUnauthorized, gin.H{"name": unauthorizedErr.Name, "message": unauthorizedErr.Message})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"message": notFoundErr.Message})
	case errors.As(err, &invalidCodeErr):
		c.JSON(http.StatusBadRequest, gin.H{"name": "code", "message": invalidCodeErr.Message})
	case errors.As(err, &goneErr):
		c.JSON(http.StatusGone, gin.H{"message": goneErr.Message})
	default:
		log.Printf("[http] internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

func callerID(c *gin.Context) (int, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}
