package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
	"github.com/bookmarket/identity/internal/pkg/validation"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Name != "Alice" || in.Email != "a@x.com" || in.Password != "secret1" || in.Role != "seller" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{
				Token:    "tok",
				Identity: &domain.Identity{ID: "id-1", Name: in.Name, Email: in.Email, Role: domain.RoleSeller, PasswordHash: "h"},
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register",
		`{"name":"Alice","email":"a@x.com","password":"secret1","role":"seller"}`), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["success"] != true || resp["token"] != "tok" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["id"] != "id-1" || user["role"] != "seller" || user["email"] != "a@x.com" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response mentions password: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_PropagatesServiceErrors(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register",
		`{"name":"Alice","email":"a@x.com","password":"secret1"}`), httptest.NewRecorder())

	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", `{"name":`), httptest.NewRecorder())

	err := NewAuthHandler(stub).Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			if email != "a@x.com" || password != "secret1" {
				t.Fatalf("unexpected credentials: %s %s", email, password)
			}
			return &ports.AuthResult{Token: "tok", Identity: &domain.Identity{ID: "id-1", Role: domain.RoleBuyer}}, nil
		},
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"secret1"}`), rec)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Success || resp.Token != "tok" || resp.User.Role != "buyer" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (*ports.AuthResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"nope"}`), httptest.NewRecorder())

	if err := NewAuthHandler(stub).Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
