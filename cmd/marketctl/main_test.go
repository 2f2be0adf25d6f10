package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/bookmarket/identity/pkg/client"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIURL != "http://localhost:8080" || cfg.SessionStore != "file" || cfg.Timeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !strings.HasSuffix(cfg.SessionFile, "session.json") {
		t.Fatalf("unexpected session file %q", cfg.SessionFile)
	}
}

func TestLoadConfig_UnknownStore(t *testing.T) {
	_, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{"MARKET_SESSION_STORE": "s3"}))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestDispatch_LoginWhoamiLogout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"success":true,"token":"tok","user":{"id":"1","name":"Alice","email":"a@x.com","role":"seller"}}`))
		case "/users/me":
			_, _ = w.Write([]byte(`{"success":true,"user":{"id":"1","name":"Alice","email":"a@x.com","role":"seller"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store := client.NewSessionStore(client.NewAPI(srv.URL, time.Second), client.NewMemoryStorage())

	var out bytes.Buffer
	if err := dispatch(ctx, store, []string{"login", "-email", "a@x.com", "-password", "secret1"}, &out); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), `"role": "seller"`) {
		t.Fatalf("unexpected login output: %s", out.String())
	}

	out.Reset()
	if err := dispatch(ctx, store, []string{"whoami"}, &out); err != nil {
		t.Fatalf("whoami: %v", err)
	}

	out.Reset()
	if err := dispatch(ctx, store, []string{"logout"}, &out); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := dispatch(ctx, store, []string{"whoami"}, &out); err == nil {
		t.Fatalf("whoami after logout should fail")
	}
}

func TestDispatch_ProfileSendsOnlyGivenFields(t *testing.T) {
	var patch string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"success":true,"token":"tok","user":{"id":"1","name":"Alice","email":"a@x.com","role":"buyer"}}`))
		case "/users/me":
			body, _ := io.ReadAll(r.Body)
			patch = string(body)
			_, _ = w.Write([]byte(`{"success":true,"user":{"id":"1","name":"Alice","email":"a@x.com","role":"buyer","address":{"city":"Austin"}}}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store := client.NewSessionStore(client.NewAPI(srv.URL, time.Second), client.NewMemoryStorage())
	if err := dispatch(ctx, store, []string{"login", "-email", "a@x.com", "-password", "secret1"}, io.Discard); err != nil {
		t.Fatalf("login: %v", err)
	}

	var out bytes.Buffer
	if err := dispatch(ctx, store, []string{"profile", "-city", "Austin"}, &out); err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !strings.Contains(patch, `"address":{"city":"Austin"}`) {
		t.Fatalf("unexpected request body: %s", patch)
	}
	if strings.Contains(patch, `"name"`) || strings.Contains(patch, `"phone"`) {
		t.Fatalf("unset fields sent: %s", patch)
	}
	if !strings.Contains(out.String(), `"city": "Austin"`) {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestDispatch_Unknown(t *testing.T) {
	store := client.NewSessionStore(client.NewAPI("http://unused", time.Second), client.NewMemoryStorage())
	if err := dispatch(context.Background(), store, []string{"frobnicate"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown command")
	}
	if err := dispatch(context.Background(), store, []string{"get"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected usage error for get without a path")
	}
}
