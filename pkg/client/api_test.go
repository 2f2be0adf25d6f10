package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAPI_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var creds Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "a@x.com" {
			t.Fatalf("unexpected body: %+v", creds)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"token":"tok","user":{"id":"1","name":"Alice","email":"a@x.com","role":"seller"}}`))
	}))
	defer srv.Close()

	res, err := NewAPI(srv.URL+"/", 0).Login(context.Background(), Credentials{Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Token != "tok" || res.User.Role != "seller" {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestAPI_ErrorMessages(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusUnauthorized, `{"success":false,"message":"invalid credentials"}`, "invalid credentials"},
		{http.StatusConflict, `{"success":false,"message":"email already registered"}`, "email already registered"},
		{http.StatusForbidden, `not json`, "you do not have permission to access this resource"},
		{http.StatusInternalServerError, `{"success":false,"message":"server error"}`, "server error, please try again later"},
		{http.StatusTeapot, ``, "an error occurred"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		err := NewAPI(srv.URL, time.Second).Do(context.Background(), http.MethodGet, "/x", "", nil, nil)
		srv.Close()

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected *APIError, got %v", tc.status, err)
		}
		if apiErr.Status != tc.status || apiErr.Message != tc.want {
			t.Fatalf("status %d: got %+v", tc.status, apiErr)
		}
	}
}

func TestAPI_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("unexpected Authorization %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewAPI(srv.URL, time.Second).Do(context.Background(), http.MethodGet, "/users/me", "tok", nil, nil); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
}

func TestAPI_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewAPI(url, time.Second).Login(context.Background(), Credentials{Email: "a@x.com", Password: "x"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestAPI_TimeoutIsNetworkFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewAPI(srv.URL, 50*time.Millisecond).Login(context.Background(), Credentials{Email: "a@x.com", Password: "x"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}
