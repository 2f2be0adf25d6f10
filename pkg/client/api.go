// Package client is a Go toolkit for talking to the identity service: an
// HTTP API wrapper and a persisted, observable session store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every request so a stalled server surfaces as a
// network failure.
const DefaultTimeout = 10 * time.Second

// ErrNetwork is returned when the server could not be reached or did not
// answer in time.
var ErrNetwork = errors.New("no response from server, please check your connection")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterData is the registration payload. Role may be empty.
type RegisterData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// AuthResponse is the body returned by login and register.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// Transport is what the session store needs from the server.
type Transport interface {
	Login(ctx context.Context, creds Credentials) (*AuthResponse, error)
	Register(ctx context.Context, data RegisterData) (*AuthResponse, error)
	// Do sends body as JSON and decodes a 2xx answer into out. token may be empty.
	Do(ctx context.Context, method, path, token string, body, out any) error
}

// API talks JSON over HTTP to the identity service.
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI returns an API for baseURL. A non-positive timeout uses DefaultTimeout.
func NewAPI(baseURL string, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (a *API) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.Do(ctx, http.MethodPost, "/auth/login", "", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Register(ctx context.Context, data RegisterData) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.Do(ctx, http.MethodPost, "/auth/register", "", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage prefers the server's message and falls back to a generic
// text per status.
func errorMessage(status int, raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" && status < http.StatusInternalServerError {
		return envelope.Message
	}
	switch {
	case status == http.StatusForbidden:
		return "you do not have permission to access this resource"
	case status == http.StatusNotFound:
		return "resource not found"
	case status >= http.StatusInternalServerError:
		return "server error, please try again later"
	default:
		return "an error occurred"
	}
}
