package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
	"tourbook/internal/http/middleware"
)

// Handle adapts an error-returning handler to gin. Every failure funnels
// into the central responder; no handler writes its own error response.
func Handle(fn func(*gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c); err != nil {
			middleware.AbortWith(c, err)
		}
	}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": data})
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func list(c *gin.Context, results int, data any) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": results, "data": data})
}

// idParam parses the numeric id path parameter. A malformed id reads as
// a validation failure, mirroring a store cast error.
func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidation("Invalid " + name + ": " + c.Param(name))
	}
	return id, nil
}
