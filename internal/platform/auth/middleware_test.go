package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/party"
)

func testConfig() Config {
	return Config{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "carelink",
		TokenTTL: time.Hour,
	}
}

func doRequest(t *testing.T, cfg Config, authHeader string) (*httptest.ResponseRecorder, party.ID) {
	t.Helper()
	e := echo.New()
	var seen party.ID
	handler := Middleware(cfg)(func(c echo.Context) error {
		seen = party.CallerFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, seen
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	cfg := testConfig()
	id := party.MustParse("PA51234")

	token, err := IssueToken(cfg, id)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	rec, seen := doRequest(t, cfg, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen != id {
		t.Errorf("CallerFromContext = %v, want %v", seen, id)
	}
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	rec, _ := doRequest(t, testConfig(), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsWrongSecret(t *testing.T) {
	cfg := testConfig()
	token, err := IssueToken(cfg, party.MustParse("DR74321"))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	other := cfg
	other.Secret = []byte("ffffffffffffffffffffffffffffffff")
	rec, _ := doRequest(t, other, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsMalformedScheme(t *testing.T) {
	rec, _ := doRequest(t, testConfig(), "Token abc")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestCallerFromContextWithoutMiddleware(t *testing.T) {
	if got := party.CallerFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()); !got.IsZero() {
		t.Errorf("expected zero ID, got %v", got)
	}
}
