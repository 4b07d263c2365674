package response

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func serveWithRequestID(t *testing.T, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var stored string
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		v, _ := c.Get(ContextKeyRequestID)
		stored, _ = v.(string)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("X-Request-ID", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, stored
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	w, stored := serveWithRequestID(t, "")

	echoed := w.Header().Get("X-Request-ID")
	if echoed == "" {
		t.Fatal("expected a generated X-Request-ID header")
	}
	if _, err := uuid.Parse(echoed); err != nil {
		t.Errorf("generated ID is not a UUID: %q", echoed)
	}
	if stored != echoed {
		t.Errorf("context ID %q does not match header %q", stored, echoed)
	}
}

func TestRequestIDHonorsCallerHeader(t *testing.T) {
	w, stored := serveWithRequestID(t, "proxy-abc-123")

	if got := w.Header().Get("X-Request-ID"); got != "proxy-abc-123" {
		t.Errorf("expected caller ID echoed back, got %q", got)
	}
	if stored != "proxy-abc-123" {
		t.Errorf("expected caller ID in context, got %q", stored)
	}
}

func TestRequestIDReplacesOversizedHeader(t *testing.T) {
	w, _ := serveWithRequestID(t, strings.Repeat("x", 200))

	echoed := w.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(echoed); err != nil {
		t.Errorf("oversized caller ID must be replaced with a UUID, got %q", echoed)
	}
}
