package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"tourbook/internal/domain/models"
	"tourbook/internal/obs"
	"tourbook/internal/repositories"
)

// DocsService renders booking documents as PDFs.
type DocsService struct {
	Bookings  repositories.BookingRepo
	Users     repositories.UserRepo
	RequestID string
}

// GenerateInvoice builds the invoice PDF for one booking and returns the
// bytes plus a download filename.
func (s DocsService) GenerateInvoice(ctx context.Context, bookingID int64) ([]byte, string, error) {
	booking, err := s.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	user, err := s.Users.FindByID(ctx, booking.UserID)
	if err != nil {
		return nil, "", err
	}
	obs.LogEvent(s.RequestID, "docs", "generate_invoice", fmt.Sprintf("booking_id=%d", bookingID))
	return buildInvoicePDF(booking, user)
}

func buildInvoicePDF(b models.Booking, u models.User) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TOURBOOK INVOICE")
	pdf.Ln(12)

	paid := "UNPAID"
	if b.Paid {
		paid = "PAID"
	}
	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Invoice No   : INV-%06d", b.ID),
		fmt.Sprintf("Booked by    : %s", safe(u.Name, "-")),
		fmt.Sprintf("Email        : %s", safe(u.Email, "-")),
		fmt.Sprintf("Tour         : %s", safe(b.TourName, "-")),
		fmt.Sprintf("Booked on    : %s", b.CreatedAt.Format("2006-01-02 15:04")),
		fmt.Sprintf("Amount       : $%d.00", b.Price),
		fmt.Sprintf("Status       : %s", paid),
	}
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 8, "Thank you for booking with Tourbook.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render invoice pdf: %w", err)
	}
	name := fmt.Sprintf("invoice-%d.pdf", b.ID)
	return buf.Bytes(), name, nil
}

func safe(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
