package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bookmarket/identity/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", domain.NewValidationError("name is required"), http.StatusBadRequest, "name is required"},
		{"duplicate", fmt.Errorf("create: %w", domain.ErrDuplicateEmail), http.StatusConflict, "email already registered"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"no token", domain.Unauthorized(domain.ReasonNoToken), http.StatusUnauthorized, "not authorized, no token"},
		{"expired", domain.Unauthorized(domain.ReasonExpired), http.StatusUnauthorized, "token expired, please login again"},
		{"invalid", domain.Unauthorized(domain.ReasonInvalid), http.StatusUnauthorized, "invalid token"},
		{"gone", domain.Unauthorized(domain.ReasonIdentityGone), http.StatusUnauthorized, "user not found"},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, "not authorized"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "access denied"},
		{"not found", domain.ErrIdentityNotFound, http.StatusNotFound, "user not found"},
		{"echo", echo.NewHTTPError(http.StatusBadRequest, "invalid request body"), http.StatusBadRequest, "invalid request body"},
		{"unexpected", errors.New("mongo exploded: secret detail"), http.StatusInternalServerError, "server error"},
		{"hash fault", fmt.Errorf("%w: bad format", domain.ErrHash), http.StatusInternalServerError, "server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewHTTPErrorHandler(zerolog.New(&logs))(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success || body.Message != tc.msg {
				t.Fatalf("unexpected body: %+v", body)
			}
			if tc.code == http.StatusInternalServerError {
				if strings.Contains(rec.Body.String(), "secret detail") {
					t.Fatalf("internal detail leaked to client")
				}
				if !strings.Contains(logs.String(), "unhandled error") {
					t.Fatalf("unexpected error was not logged")
				}
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = c.String(http.StatusOK, "done")

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrForbidden, c)
	if rec.Code != http.StatusOK || rec.Body.String() != "done" {
		t.Fatalf("committed response was overwritten")
	}
}
