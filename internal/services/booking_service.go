package services

import (
	"context"
	"fmt"
	"strconv"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/obs"
	"tourbook/internal/payment"
	"tourbook/internal/repositories"
)

// BookingService drives checkout and webhook fulfillment.
type BookingService struct {
	Bookings repositories.BookingRepo
	Tours    repositories.TourRepo
	Users    repositories.UserRepo
	Provider payment.Provider
}

// StartCheckout creates a provider checkout session for one tour.
func (s BookingService) StartCheckout(ctx context.Context, tourID int64, user models.User, baseURL string) (payment.CheckoutSession, error) {
	tour, err := s.Tours.FindByID(ctx, tourID)
	if err != nil {
		return payment.CheckoutSession{}, err
	}
	session, err := s.Provider.CreateCheckoutSession(ctx, payment.CheckoutParams{
		TourID:        tour.ID,
		TourName:      tour.Name,
		TourSummary:   tour.Summary,
		Amount:        tour.Price,
		CustomerEmail: user.Email,
		SuccessURL:    baseURL + "/my-tours",
		CancelURL:     baseURL + "/tour/" + tour.Slug,
	})
	if err != nil {
		return payment.CheckoutSession{}, domain.NewInternal(fmt.Errorf("create checkout session: %w", err))
	}
	return session, nil
}

// Fulfill records a paid booking from a completed checkout event. The
// webhook handler has already verified the event signature.
func (s BookingService) Fulfill(ctx context.Context, ev payment.Event) error {
	if ev.Type != payment.EventCheckoutCompleted {
		return nil
	}
	user, err := s.Users.FindAuthByEmail(ctx, ev.Session.CustomerEmail)
	if err != nil {
		return err
	}
	booking := models.Booking{
		TourID: ev.Session.TourID,
		UserID: user.ID,
		Price:  ev.Session.AmountTotal,
		Paid:   true,
	}
	if err := s.Bookings.Create(ctx, &booking); err != nil {
		return err
	}
	obs.LogEvent("", "booking", "fulfilled",
		"booking_id="+strconv.FormatInt(booking.ID, 10)+" tour_id="+strconv.FormatInt(booking.TourID, 10))
	return nil
}
