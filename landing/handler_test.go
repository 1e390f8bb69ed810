package landing

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"peaks/auth"
	"peaks/data"
	"peaks/projects"
)

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func setupServer(t *testing.T) (*browser, *Views) {
	t.Helper()
	t.Setenv("PEAKS_DIR", t.TempDir())
	data.Close()
	t.Cleanup(func() { data.Close() })

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/me", auth.MeHandler)
	mux.HandleFunc("/api/auth/login", auth.LoginHandler)
	mux.HandleFunc("/api/auth/signup", auth.SignupHandler)
	mux.HandleFunc("/api/auth/logout", auth.LogoutHandler)
	mux.HandleFunc("/api/projects", projects.APIHandler)
	mux.HandleFunc("/projects/", projects.Handler)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	views := NewViews(srv.URL)
	mux.Handle("/", views)
	mux.Handle("/landing/", views)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &browser{t: t, base: srv.URL, client: &http.Client{Jar: jar}}, views
}

func (b *browser) get(path string) (*goquery.Document, string) {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	if err != nil {
		b.t.Fatalf("GET %s failed: %v", path, err)
	}
	return b.read(resp)
}

func (b *browser) post(path string, form url.Values) (*goquery.Document, string) {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	if err != nil {
		b.t.Fatalf("POST %s failed: %v", path, err)
	}
	return b.read(resp)
}

func (b *browser) read(resp *http.Response) (*goquery.Document, string) {
	b.t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b.t.Fatalf("%s: status %d", resp.Request.URL.Path, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		b.t.Fatalf("parse failed: %v", err)
	}
	return doc, resp.Request.URL.Path
}

func heading(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("h1").Text())
}

func TestLandingFlow(t *testing.T) {
	b, views := setupServer(t)

	doc, _ := b.get("/")
	if heading(doc) != "Hi , what do you want to make today?" {
		t.Fatalf("unexpected heading %q", heading(doc))
	}
	if views.Len() != 0 {
		t.Fatalf("anonymous page view should not be kept, have %d", views.Len())
	}

	// anonymous submit opens the dialog and keeps the draft
	doc, _ = b.post("/landing/submit", url.Values{"prompt": {"Build a blog"}})
	if doc.Find("dialog").Length() != 1 {
		t.Fatal("expected auth dialog after anonymous submit")
	}
	if views.Len() != 1 {
		t.Fatalf("expected 1 view, got %d", views.Len())
	}
	if got := doc.Find("textarea").Text(); got != "Build a blog" {
		t.Errorf("draft = %q", got)
	}

	// failed sign in shows the API's message
	doc, _ = b.post("/landing/auth", url.Values{
		"mode":     {"login"},
		"email":    {"ada@example.com"},
		"password": {"nope12345"},
	})
	if got := doc.Find("dialog .text-error").Text(); got != "invalid email or password" {
		t.Errorf("dialog error = %q", got)
	}

	doc, _ = b.post("/landing/auth", url.Values{
		"mode":     {"signup"},
		"name":     {"Ada"},
		"email":    {"ada@example.com"},
		"password": {"password123"},
	})
	if heading(doc) != "Hi Ada, what do you want to make today?" {
		t.Errorf("heading after signup = %q", heading(doc))
	}
	if doc.Find("dialog").Length() != 0 {
		t.Error("dialog should close after sign in")
	}
	if got := doc.Find(".recent .empty").Text(); got != "No recent apps yet. Create your first app above!" {
		t.Errorf("recent = %q", got)
	}

	u, _ := url.Parse(b.base)
	hasSession := false
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == auth.CookieName && c.Value != "" {
			hasSession = true
		}
	}
	if !hasSession {
		t.Fatal("browser did not receive the session cookie")
	}

	doc, _ = b.post("/landing/template", url.Values{"id": {"ecommerce"}})
	if got := doc.Find("textarea").Text(); got != FindTemplate("ecommerce").Prompt {
		t.Errorf("draft after template = %q", got)
	}

	doc, path := b.post("/landing/submit", url.Values{"prompt": {"Build a shop"}})
	if !strings.HasPrefix(path, "/projects/") {
		t.Fatalf("expected redirect to project, landed on %s", path)
	}
	if got := doc.Find("h2").Text(); got != "Build a shop" {
		t.Errorf("project page title = %q", got)
	}
	if views.Len() != 0 {
		t.Errorf("view should be dropped after creation, have %d", views.Len())
	}

	doc, _ = b.get("/")
	cards := doc.Find(".recent .card")
	if cards.Length() != 1 {
		t.Fatalf("expected 1 recent app, got %d", cards.Length())
	}
	if got := cards.Find(".card-title").Text(); got != "Build a shop" {
		t.Errorf("card title = %q", got)
	}
	if cards.Find(".public").Length() != 1 {
		t.Error("recent apps are shown as public")
	}
	if got := strings.TrimSpace(doc.Find("textarea").Text()); got != "" {
		t.Errorf("fresh view should have an empty draft, got %q", got)
	}

	doc, _ = b.post("/landing/logout", nil)
	if doc.Find(`form[action="/landing/signin"]`).Length() != 1 {
		t.Error("expected sign in button after logout")
	}
	if doc.Find(".recent").Length() != 0 {
		t.Error("recent apps should be hidden after logout")
	}
}

func TestLandingQuickStartAndDialog(t *testing.T) {
	b, _ := setupServer(t)

	doc, _ := b.get("/?signin=1")
	if doc.Find("dialog").Length() != 1 {
		t.Fatal("expected dialog from signin query")
	}

	doc, _ = b.post("/landing/close", nil)
	if doc.Find("dialog").Length() != 0 {
		t.Error("expected dialog closed")
	}

	b.post("/landing/template", url.Values{"id": {"api"}})
	doc, _ = b.post("/landing/quickstart", url.Values{"text": {QuickStarters[1]}})
	if doc.Find(".template.selected").Length() != 0 {
		t.Error("quick start should clear the selected template")
	}
	if got := doc.Find("textarea").Text(); got != QuickStarters[1] {
		t.Errorf("draft = %q", got)
	}
}

func TestLandingRejectsBadRequests(t *testing.T) {
	b, _ := setupServer(t)

	resp, err := b.client.Get(b.base + "/landing/submit")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET action: status %d", resp.StatusCode)
	}

	resp, err = b.client.PostForm(b.base+"/landing/nope", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown action: status %d", resp.StatusCode)
	}

	resp, err = b.client.Get(b.base + "/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown page: status %d", resp.StatusCode)
	}
}

func TestViewsExpire(t *testing.T) {
	b, views := setupServer(t)
	b.post("/landing/quickstart", url.Values{"text": {QuickStarters[0]}})
	if views.Len() != 1 {
		t.Fatalf("expected 1 view, got %d", views.Len())
	}

	if n := views.Expire(time.Now()); n != 0 {
		t.Errorf("fresh view expired")
	}
	if n := views.Expire(time.Now().Add(views.IdleTimeout + time.Minute)); n != 1 {
		t.Errorf("expected 1 expired view, got %d", n)
	}
	if views.Len() != 0 {
		t.Error("expected no views left")
	}
}

func (b *browser) session() string {
	u, _ := url.Parse(b.base)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == auth.CookieName {
			return c.Value
		}
	}
	return ""
}

func TestLandingSessionEndedElsewhere(t *testing.T) {
	b, _ := setupServer(t)

	doc, _ := b.post("/landing/auth", url.Values{
		"mode":     {"signup"},
		"name":     {"Ada"},
		"email":    {"ada@example.com"},
		"password": {"password123"},
	})
	if heading(doc) != "Hi Ada, what do you want to make today?" {
		t.Fatalf("heading after signup = %q", heading(doc))
	}

	token := b.session()
	if token == "" {
		t.Fatal("browser did not receive the session cookie")
	}
	if err := auth.Logout(token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	doc, _ = b.get("/")
	if heading(doc) != "Hi , what do you want to make today?" {
		t.Errorf("heading after session ended = %q", heading(doc))
	}
	if doc.Find(".recent").Length() != 0 {
		t.Error("recent apps should be hidden once the session ended")
	}

	doc, path := b.post("/landing/submit", url.Values{"prompt": {"Build a blog"}})
	if path != "/" {
		t.Fatalf("submit landed on %s", path)
	}
	if doc.Find("dialog").Length() != 1 {
		t.Error("expected auth dialog after the session ended")
	}
	if got := doc.Find("textarea").Text(); got != "Build a blog" {
		t.Errorf("draft = %q", got)
	}
}

func TestLandingGuestPage(t *testing.T) {
	b, views := setupServer(t)

	doc, _ := b.get("/?signin=1")
	if doc.Find("dialog").Length() != 1 {
		t.Error("expected dialog from signin query")
	}
	b.get("/")
	if views.Len() != 0 {
		t.Errorf("guest pages should not keep views, have %d", views.Len())
	}

	u, _ := url.Parse(b.base)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == viewCookie {
			t.Error("guest page should not set the view cookie")
		}
	}
}

func TestLandingPageWhileBusy(t *testing.T) {
	b, views := setupServer(t)
	b.post("/landing/quickstart", url.Values{"text": {QuickStarters[0]}})

	views.mu.Lock()
	var vis *visitor
	for _, v := range views.visitors {
		vis = v
	}
	views.mu.Unlock()
	if vis == nil {
		t.Fatal("expected a view")
	}

	// hold the visitor as a running creation would
	vis.mu.Lock()
	vis.view.mu.Lock()
	vis.view.loading = true
	vis.view.mu.Unlock()

	doc, _ := b.get("/")
	vis.mu.Unlock()

	if _, ok := doc.Find("button.generate").Attr("disabled"); !ok {
		t.Error("expected generate disabled while a creation runs")
	}
	if got := doc.Find("textarea").Text(); got != QuickStarters[0] {
		t.Errorf("draft = %q", got)
	}
}
