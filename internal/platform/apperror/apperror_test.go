package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validationf("bad field"), Validation},
		{"not found", NotFoundf("missing"), NotFound},
		{"conflict", Conflictf("duplicate"), Conflict},
		{"authorization", Authorizationf("not yours"), Authorization},
		{"internal", Internalf(errors.New("boom"), "store failed"), Internal},
		{"unclassified", errors.New("plain"), Internal},
		{"wrapped", fmt.Errorf("outer: %w", Conflictf("duplicate")), Conflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInternalfKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internalf(cause, "persist message")

	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Message() != "persist message" {
		t.Errorf("Message() = %q, should not include the cause", err.Message())
	}
	if err.Error() == err.Message() {
		t.Error("Error() should surface the cause for diagnostics")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{Validationf("x"), http.StatusBadRequest},
		{NotFoundf("x"), http.StatusNotFound},
		{Conflictf("x"), http.StatusConflict},
		{Authorizationf("x"), http.StatusForbidden},
		{Internalf(nil, "x"), http.StatusInternalServerError},
		{errors.New("raw"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTP(tt.err); got.Code != tt.code {
			t.Errorf("HTTP(%v).Code = %d, want %d", tt.err, got.Code, tt.code)
		}
	}
}

func TestHTTPRedactsUnclassified(t *testing.T) {
	he := HTTP(errors.New("pgx: connection refused on 10.0.0.5"))
	if he.Message != "unexpected error occurred" {
		t.Errorf("unclassified error leaked: %v", he.Message)
	}
}
