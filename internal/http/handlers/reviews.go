package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/http/middleware"
	"tourbook/internal/repositories"
)

// ReviewHandler holds the review-specific pieces around the generic CRUD
// set: parent scoping for nested routes and author stamping on create.
type ReviewHandler struct {
	Reviews repositories.ReviewRepo
}

// tourIDFromRoute resolves the parent tour id on nested review routes.
// The tours group registers the nested path under its own :id param.
func tourIDFromRoute(c *gin.Context) int64 {
	raw := c.Param("tourId")
	if raw == "" {
		raw = c.Param("id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// TourScope restricts a listing to the tour in the route when the nested
// path is used; the flat /reviews listing has no scope.
func TourScope(c *gin.Context) map[string]any {
	if id := tourIDFromRoute(c); id > 0 {
		return map[string]any{"tour_id": id}
	}
	return nil
}

// POST /api/v1/reviews and POST /api/v1/tours/:tourId/reviews
//
// The author is always the logged-in user; the tour comes from the route
// when nested, from the body otherwise.
func (h ReviewHandler) Create() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		user, found := middleware.CurrentUser(c)
		if !found {
			return domain.NewUnauthorized("")
		}

		var review models.Review
		if err := c.ShouldBindJSON(&review); err != nil {
			return domain.NewValidation(err.Error())
		}
		if tourID := tourIDFromRoute(c); tourID > 0 {
			review.TourID = tourID
		}
		if review.TourID <= 0 {
			return domain.NewValidation("A review must belong to a tour")
		}
		review.UserID = user.ID

		if err := h.Reviews.Create(c.Request.Context(), &review); err != nil {
			return err
		}
		created(c, review)
		return nil
	})
}
