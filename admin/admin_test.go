package admin

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"peaks/app"
	"peaks/auth"
	"peaks/data"
)

func setupStore(t *testing.T) {
	t.Setenv("PEAKS_DIR", t.TempDir())
	data.Close()
	t.Cleanup(func() { data.Close() })
}

func signup(t *testing.T, email string) (*auth.Account, *http.Cookie) {
	t.Helper()
	acc, sess, err := auth.Signup("", email, "password123")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	return acc, &http.Cookie{Name: auth.CookieName, Value: sess.Token}
}

func TestLogPagesRequireAdmin(t *testing.T) {
	setupStore(t)
	signup(t, "admin@example.com")
	_, user := signup(t, "user@example.com")

	handlers := map[string]http.HandlerFunc{
		"/admin":        AdminHandler,
		"/admin/syslog": SysLogHandler,
		"/admin/apilog": APILogHandler,
		"/admin/env":    EnvHandler,
	}
	for path, h := range handlers {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h(w, r)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s anonymous: expected 403, got %d", path, w.Code)
		}

		r = httptest.NewRequest(http.MethodGet, path, nil)
		r.AddCookie(user)
		w = httptest.NewRecorder()
		h(w, r)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s non-admin: expected 403, got %d", path, w.Code)
		}
	}
}

func TestSysLogPage(t *testing.T) {
	setupStore(t)
	_, admin := signup(t, "admin@example.com")

	app.ResetLogs()
	app.Log("landing", "Session check failed: <timeout>")

	r := httptest.NewRequest(http.MethodGet, "/admin/syslog", nil)
	r.AddCookie(admin)
	w := httptest.NewRecorder()
	SysLogHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Session check failed: &lt;timeout&gt;") {
		t.Error("expected escaped log message")
	}
}

func TestAPILogJSON(t *testing.T) {
	setupStore(t)
	_, admin := signup(t, "admin@example.com")

	app.ResetLogs()
	app.RecordAPICall("landing", "GET", "http://localhost/api/auth/me", 401, 0, nil)

	r := httptest.NewRequest(http.MethodGet, "/admin/apilog", nil)
	r.Header.Set("Accept", "application/json")
	r.AddCookie(admin)
	w := httptest.NewRecorder()
	APILogHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"Service":"landing"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestAdminActions(t *testing.T) {
	setupStore(t)
	admin, adminCookie := signup(t, "admin@example.com")
	user, _ := signup(t, "user@example.com")

	post := func(form url.Values) int {
		r := httptest.NewRequest(http.MethodPost, "/admin", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.AddCookie(adminCookie)
		w := httptest.NewRecorder()
		AdminHandler(w, r)
		return w.Code
	}

	if code := post(url.Values{"action": {"toggle_admin"}, "user_id": {user.ID}}); code != http.StatusSeeOther {
		t.Fatalf("toggle: expected 303, got %d", code)
	}
	acc, err := auth.GetAccount(user.ID)
	if err != nil || !acc.Admin {
		t.Errorf("expected user promoted, got %+v, %v", acc, err)
	}

	if code := post(url.Values{"action": {"delete"}, "user_id": {admin.ID}}); code != http.StatusBadRequest {
		t.Errorf("self delete: expected 400, got %d", code)
	}

	if code := post(url.Values{"action": {"delete"}, "user_id": {user.ID}}); code != http.StatusSeeOther {
		t.Fatalf("delete: expected 303, got %d", code)
	}
	if _, err := auth.GetAccount(user.ID); err == nil {
		t.Error("expected account deleted")
	}

	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	r.AddCookie(adminCookie)
	w := httptest.NewRecorder()
	AdminHandler(w, r)
	if !strings.Contains(w.Body.String(), "admin@example.com") {
		t.Error("expected account listed")
	}
}

func TestStatus(t *testing.T) {
	setupStore(t)
	LiveViewsFunc = func() int { return 3 }
	defer func() { LiveViewsFunc = nil }()

	r := httptest.NewRequest(http.MethodGet, "/status?format=json", nil)
	w := httptest.NewRecorder()
	StatusHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"healthy":true`) || !strings.Contains(body, `"views":3`) {
		t.Errorf("unexpected status: %s", body)
	}
}
