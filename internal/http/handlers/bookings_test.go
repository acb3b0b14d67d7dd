package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"tourbook/internal/payment"
	"tourbook/internal/repositories"
	"tourbook/internal/services"
)

func webhookEngine(h BookingHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorResponder{Production: true}.Middleware())
	r.POST("/webhook-checkout", h.Webhook())
	return r
}

func TestWebhookRejectsBadSignatureWithoutSideEffects(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	// No expectations: any query against the store fails the test.

	h := BookingHandler{
		Bookings: services.BookingService{
			Bookings: repositories.BookingRepo{DB: db},
			Users:    repositories.UserRepo{DB: db},
		},
		WebhookSecret: "whsec_test",
	}
	body := `{"type":"checkout.session.completed","data":{"customer_email":"lisa@example.com","client_reference_id":"9","amount_total":497}}`

	r := webhookEngine(h)
	req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", strings.NewReader(body))
	req.Header.Set("Payment-Signature", "deadbeef")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("store touched on bad signature: %v", err)
	}
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	h := BookingHandler{WebhookSecret: "whsec_test"}
	body := `{"type":"checkout.session.expired","data":{}}`

	r := webhookEngine(h)
	req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", strings.NewReader(body))
	req.Header.Set("Payment-Signature", payment.Sign([]byte(body), "whsec_test"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestWebhookFulfillsCompletedCheckout(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM users WHERE email =").
		WithArgs("lisa@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "photo", "role", "password_hash", "active",
			"password_changed_at", "password_reset_hash", "password_reset_expires",
			"created_at", "updated_at",
		}).AddRow(
			2, "Lisa Brown", "lisa@example.com", "", "user", "$2a$04$irrelevant", true,
			nil, "", nil, time.Now(), time.Now()))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(5, 1))

	h := BookingHandler{
		Bookings: services.BookingService{
			Bookings: repositories.BookingRepo{DB: db},
			Users:    repositories.UserRepo{DB: db},
		},
		WebhookSecret: "whsec_test",
	}
	body := `{"type":"checkout.session.completed","data":{"customer_email":"lisa@example.com","client_reference_id":"9","amount_total":497}}`

	r := webhookEngine(h)
	req := httptest.NewRequest(http.MethodPost, "/webhook-checkout", strings.NewReader(body))
	req.Header.Set("Payment-Signature", payment.Sign([]byte(body), "whsec_test"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"received":true`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
