package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/http/middleware"
	"tourbook/internal/payment"
	"tourbook/internal/services"
)

// BookingHandler carries checkout, webhook, and document endpoints.
type BookingHandler struct {
	Bookings      services.BookingService
	Docs          services.DocsService
	WebhookSecret string
}

// GET /api/v1/bookings/checkout-session/:tourId
func (h BookingHandler) CheckoutSession() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		user, found := middleware.CurrentUser(c)
		if !found {
			return domain.NewUnauthorized("")
		}
		tourID, err := idParam(c, "tourId")
		if err != nil {
			return err
		}
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		session, err := h.Bookings.StartCheckout(c.Request.Context(), tourID, user, scheme+"://"+c.Request.Host)
		if err != nil {
			return err
		}
		ok(c, gin.H{"session": session})
		return nil
	})
}

// POST /webhook-checkout
//
// The body is consumed raw; the signature over those exact bytes must
// verify before anything else happens. A bad signature produces no side
// effects.
func (h BookingHandler) Webhook() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return domain.NewValidation("unreadable webhook body")
		}
		ev, err := payment.ParseEvent(body, c.GetHeader("Payment-Signature"), h.WebhookSecret)
		if err != nil {
			return err
		}
		if err := h.Bookings.Fulfill(c.Request.Context(), ev); err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return nil
	})
}

// GET /api/v1/bookings/:id/invoice
func (h BookingHandler) Invoice() gin.HandlerFunc {
	return Handle(func(c *gin.Context) error {
		user, found := middleware.CurrentUser(c)
		if !found {
			return domain.NewUnauthorized("")
		}
		id, err := idParam(c, "id")
		if err != nil {
			return err
		}
		booking, err := h.Bookings.Bookings.FindByID(c.Request.Context(), id)
		if err != nil {
			return err
		}
		if booking.UserID != user.ID && user.Role != models.RoleAdmin {
			return domain.NewForbidden("")
		}
		pdf, name, err := h.Docs.GenerateInvoice(c.Request.Context(), id)
		if err != nil {
			return err
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
		return nil
	})
}
