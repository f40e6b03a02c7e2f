package party

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	svc := NewService(newMockRepo())
	h := NewHandler(svc, func(id ID) (string, error) {
		return "token-for-" + id.String(), nil
	})

	e := echo.New()
	api := e.Group("/api/v1")
	h.RegisterRoutes(api, api)
	return e
}

func do(e *echo.Echo, method, target, body string, caller *ID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if caller != nil {
		req = req.WithContext(ContextWithCaller(req.Context(), *caller))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const registerBody = `{
	"first_name": "Amara",
	"last_name": "Silva",
	"email": "amara@example.com",
	"national_id": "987654321V",
	"password": "hunter22",
	"phone_number": "+94771234567",
	"address": "12 Lake Rd",
	"date_of_birth": "1998-07-01",
	"gender": "female"
}`

func TestRegisterEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/patients", registerBody, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var p Party
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if p.ID.Kind() != KindPatient {
		t.Errorf("id kind = %s, want patient", p.ID.Kind())
	}
	for _, secret := range []string{"hunter22", "987654321V", "password_hash"} {
		if strings.Contains(rec.Body.String(), secret) {
			t.Errorf("response leaks %q", secret)
		}
	}

	if rec := do(e, http.MethodPost, "/api/v1/patients", registerBody, nil); rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	e := newTestServer(t)
	if rec := do(e, http.MethodPost, "/api/v1/patients", registerBody, nil); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	rec := do(e, http.MethodPost, "/api/v1/login", `{"email":"amara@example.com","password":"hunter22"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		ID    string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Token != "token-for-"+resp.ID {
		t.Errorf("token = %q for id %q", resp.Token, resp.ID)
	}

	rec = do(e, http.MethodPost, "/api/v1/login", `{"email":"amara@example.com","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}

func registeredID(t *testing.T, e *echo.Echo) ID {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/v1/patients", registerBody, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}
	var p Party
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return p.ID
}

func TestProfileEndpoints(t *testing.T) {
	e := newTestServer(t)
	id := registeredID(t, e)

	rec := do(e, http.MethodGet, "/api/v1/profile", "", &id)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPatch, "/api/v1/profile", `{"phone_number":"+94779999999"}`, &id)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "+94779999999") {
		t.Errorf("patched profile missing new phone: %s", rec.Body.String())
	}
}

func TestProfilePatchRejectsUnknownFields(t *testing.T) {
	e := newTestServer(t)
	id := registeredID(t, e)

	// Fields outside the allow-list fail the request instead of being dropped.
	rec := do(e, http.MethodPatch, "/api/v1/profile", `{"email":"new@example.com"}`, &id)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("patch with email status = %d, want 400", rec.Code)
	}

	rec = do(e, http.MethodPatch, "/api/v1/profile", `{}`, &id)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d, want 400", rec.Code)
	}
}
