package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"tourbook/internal/http/middleware"
	"tourbook/internal/query"
	"tourbook/internal/repositories"
	"tourbook/internal/services"
)

// ViewHandler renders the server-side pages.
type ViewHandler struct {
	Tours repositories.TourRepo
	Auth  services.AuthService
}

// GET /
func (h ViewHandler) Overview() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		spec, err := query.Build(url.Values{})
		if err != nil {
			return err
		}
		tours, err := h.Tours.Find(c.Request.Context(), spec, nil)
		if err != nil {
			return err
		}
		c.HTML(http.StatusOK, "overview.html", gin.H{
			"title": "All Tours",
			"tours": tours,
		})
		return nil
	})
}

// GET /tour/:slug
func (h ViewHandler) Tour() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		tour, err := h.Tours.FindBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			return err
		}
		c.HTML(http.StatusOK, "tour.html", gin.H{
			"title": tour.Name,
			"tour":  tour,
		})
		return nil
	})
}

// GET /login
func (h ViewHandler) Login() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		c.HTML(http.StatusOK, "login.html", gin.H{"title": "Log into your account"})
		return nil
	})
}

// GET /me (requires auth)
func (h ViewHandler) Account() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		user, _ := middleware.CurrentUser(c)
		c.HTML(http.StatusOK, "account.html", gin.H{
			"title": "Your account",
			"user":  user.ToPublic(),
		})
		return nil
	})
}
