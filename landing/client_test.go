package landing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"peaks/app"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewClient("/api"); err == nil {
		t.Error("expected error for relative url")
	}
}

func TestClientCheckSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		ck, err := r.Cookie(sessionCookie)
		if err != nil || ck.Value != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"user":{"id":"u1","name":"Ada","email":"ada@example.com"}}`)
	})

	u, err := c.CheckSession(context.Background())
	if err != nil || u != nil {
		t.Fatalf("expected anonymous, got %+v, %v", u, err)
	}

	c.SetToken("tok")
	u, err = c.CheckSession(context.Background())
	if err != nil {
		t.Fatalf("CheckSession failed: %v", err)
	}
	if u == nil || u.ID != "u1" || u.Name != "Ada" {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestClientCheckSessionServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	if _, err := c.CheckSession(context.Background()); err == nil {
		t.Error("expected error for 500")
	}
}

func TestClientListProjectsDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("userId"); got != "u1" {
			t.Errorf("userId = %q", got)
		}
		fmt.Fprint(w, `{"success":true,"projects":[{"id":"1"},{"id":"2","name":"Shop","type":"ecommerce","isPublic":false,"createdAt":"2024-03-01T10:00:00Z"}]}`)
	})

	list, err := c.ListProjects(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(list))
	}

	p := list[0]
	if p.ID != "1" || p.Name != "Untitled App" || p.Description != "No description available" || p.Type != "general" || !p.Public {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected createdAt defaulted to now")
	}

	p = list[1]
	if p.Name != "Shop" || p.Type != "ecommerce" || !p.Public {
		t.Errorf("unexpected project: %+v", p)
	}
	if p.CreatedAt.Year() != 2024 {
		t.Errorf("createdAt = %v", p.CreatedAt)
	}
}

func TestClientListProjectsFailures(t *testing.T) {
	bodies := map[string]int{
		`{"success":false}`:             http.StatusOK,
		`{"success":true}`:              http.StatusOK,
		`not json`:                      http.StatusOK,
		`{"success":false,"error":"x"}`: http.StatusInternalServerError,
	}

	for body, status := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			fmt.Fprint(w, body)
		})
		if _, err := c.ListProjects(context.Background(), "u1"); err == nil {
			t.Errorf("%d %s: expected error", status, body)
		}
	}
}

func TestClientLoginKeepsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if req["password"] != "secret123" {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"success":false,"error":"invalid email or password"}`)
				return
			}
			// Secure cookies must still reach a plain http API
			http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "new", Path: "/", Secure: true})
			fmt.Fprint(w, `{"user":{"id":"u1","name":"Ada"}}`)
		case "/api/auth/logout":
			http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
			fmt.Fprint(w, `{"success":true}`)
		}
	})

	_, err := c.Login(context.Background(), "ada@example.com", "wrong")
	se, ok := err.(*StatusError)
	if !ok || se.Code != http.StatusUnauthorized || se.Message != "invalid email or password" {
		t.Fatalf("unexpected error: %v", err)
	}

	u, err := c.Login(context.Background(), "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("unexpected user: %+v", u)
	}
	if c.Token() != "new" {
		t.Errorf("token = %q, want new", c.Token())
	}

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if c.Token() != "" {
		t.Errorf("token should be cleared, got %q", c.Token())
	}
}

func TestClientCreateProject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/projects" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["prompt"] != "Build a blog" || req["type"] != "general" {
			t.Errorf("unexpected body: %v", req)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"success":true,"project":{"id":"p1","name":"Build a blog"}}`)
	})

	p, err := c.CreateProject(context.Background(), "Build a blog", "general")
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if p.ID != "p1" || p.Name != "Build a blog" {
		t.Errorf("unexpected project: %+v", p)
	}
}

func TestClientRecordsAPICalls(t *testing.T) {
	app.ResetLogs()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c.CheckSession(context.Background())

	entries := app.GetAPILog()
	if len(entries) == 0 {
		t.Fatal("expected an api log entry")
	}
	e := entries[0]
	if e.Service != "landing" || e.Status != http.StatusUnauthorized || !strings.HasSuffix(e.URL, "/api/auth/me") {
		t.Errorf("unexpected entry: %+v", e)
	}
}
