package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"tourbook/internal/domain"
)

func responderEngine(responder ErrorResponder, fail func(*gin.Context) error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(responder.Middleware())
	r.Use(responder.Recovery())
	r.NoRoute(responder.NoRoute())
	r.GET("/api/v1/boom", Handle(fail))
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return body
}

func TestResponderDevelopmentIncludesDiagnostics(t *testing.T) {
	r := responderEngine(ErrorResponder{Production: false}, func(c *gin.Context) error {
		return domain.NewValidation("price must be positive")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "fail" {
		t.Fatalf("status word = %v, want fail", body["status"])
	}
	if body["message"] != "price must be positive" {
		t.Fatalf("message = %v", body["message"])
	}
	if _, found := body["stack"]; !found {
		t.Fatalf("development response should carry a stack")
	}
}

func TestResponderProductionOperationalKeepsMessage(t *testing.T) {
	r := responderEngine(ErrorResponder{Production: true}, func(c *gin.Context) error {
		return domain.NewNotFound("tour")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeBody(t, w)
	if body["message"] != "No tour found with that ID" {
		t.Fatalf("message = %v", body["message"])
	}
	if _, found := body["stack"]; found {
		t.Fatalf("production response must not carry a stack")
	}
	if _, found := body["error"]; found {
		t.Fatalf("production response must not carry error details")
	}
}

func TestResponderProductionSanitizesDefects(t *testing.T) {
	r := responderEngine(ErrorResponder{Production: true}, func(c *gin.Context) error {
		return errors.New("dsn parse failed: user:secretpassword@tcp(db:3306)")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "error" {
		t.Fatalf("status word = %v, want error", body["status"])
	}
	if body["message"] != "Something went very wrong!" {
		t.Fatalf("message = %v", body["message"])
	}
	if strings.Contains(w.Body.String(), "secretpassword") {
		t.Fatalf("internal details leaked: %s", w.Body.String())
	}
}

func TestResponderRecoversPanicsAsSanitized500(t *testing.T) {
	r := responderEngine(ErrorResponder{Production: true}, func(c *gin.Context) error {
		panic("index out of range")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "index out of range") {
		t.Fatalf("panic detail leaked: %s", w.Body.String())
	}
}

func TestResponderNoRoute(t *testing.T) {
	r := responderEngine(ErrorResponder{Production: true}, func(c *gin.Context) error { return nil })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeBody(t, w)
	if body["message"] != "Can't find /api/v1/missing on this server!" {
		t.Fatalf("message = %v", body["message"])
	}
}
