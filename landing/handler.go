package landing

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"peaks/app"
	"peaks/auth"
)

// viewCookie identifies the browser's view between requests
const viewCookie = "landing"

// DefaultIdleTimeout is how long an untouched view is kept
const DefaultIdleTimeout = 30 * time.Minute

// visitor is one browser's view and the API client acting for it.
// mu serialises the visitor's requests.
type visitor struct {
	mu      sync.Mutex
	id      string
	view    *View
	client  *Client
	ctx     context.Context
	next    string
	authErr string
	seen    atomic.Int64
}

// Views keeps a landing view per browser and serves the page and its form
// actions.
type Views struct {
	api         string
	IdleTimeout time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewViews returns a registry whose views call the API at apiURL
func NewViews(apiURL string) *Views {
	return &Views{
		api:         apiURL,
		IdleTimeout: DefaultIdleTimeout,
		visitors:    make(map[string]*visitor),
	}
}

// Len returns the number of live views
func (vs *Views) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.visitors)
}

func (vs *Views) newVisitor() (*visitor, error) {
	client, err := NewClient(vs.api)
	if err != nil {
		return nil, err
	}

	vis := &visitor{
		id:     uuid.New().String(),
		client: client,
		ctx:    context.Background(),
	}
	vis.view = New(client, client, CreatorFunc(vis.create))
	return vis, nil
}

// create records the project and remembers where to send the browser
func (vis *visitor) create(prompt, appType string) {
	p, err := vis.client.CreateProject(vis.ctx, prompt, appType)
	if err != nil {
		app.Log("landing", "Create app error: %v", err)
		return
	}
	vis.next = "/projects/" + p.ID
}

// find returns the browser's visitor, or nil if it has none
func (vs *Views) find(r *http.Request) *visitor {
	c, err := r.Cookie(viewCookie)
	if err != nil {
		return nil
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.visitors[c.Value]
}

// register creates a visitor and hands its cookie to the browser
func (vs *Views) register(w http.ResponseWriter) (*visitor, error) {
	vis, err := vs.newVisitor()
	if err != nil {
		return nil, err
	}

	vis.seen.Store(time.Now().UnixNano())
	vs.mu.Lock()
	vs.visitors[vis.id] = vis
	vs.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     viewCookie,
		Value:    vis.id,
		Path:     "/",
		HttpOnly: true,
		Secure:   auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return vis, nil
}

func (vs *Views) drop(vis *visitor) {
	vs.mu.Lock()
	delete(vs.visitors, vis.id)
	vs.mu.Unlock()
}

// Expire drops views idle since before now minus the idle timeout
func (vs *Views) Expire(now time.Time) int {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	n := 0
	for id, vis := range vs.visitors {
		if now.Sub(time.Unix(0, vis.seen.Load())) > vs.IdleTimeout {
			delete(vs.visitors, id)
			n++
		}
	}
	return n
}

// Run expires idle views until ctx is done
func (vs *Views) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := vs.Expire(now); n > 0 {
				app.Log("landing", "Expired %d idle views", n)
			}
		}
	}
}

// ServeHTTP handles GET / and POST /landing/{action}
func (vs *Views) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/landing"), "/")

	switch {
	case r.URL.Path == "/":
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			app.MethodNotAllowed(w, r)
			return
		}
	case strings.HasPrefix(r.URL.Path, "/landing/") && action != "":
		if r.Method != http.MethodPost {
			app.MethodNotAllowed(w, r)
			return
		}
	default:
		app.NotFound(w, r, "Page not found")
		return
	}

	vis := vs.find(r)
	token := ""
	if c, err := r.Cookie(auth.CookieName); err == nil {
		token = c.Value
	}

	// signed out browsers without a view see the fresh page until they act
	if vis == nil && r.URL.Path == "/" && token == "" {
		vs.guest(w, r)
		return
	}

	created := false
	if vis == nil {
		var err error
		if vis, err = vs.register(w); err != nil {
			app.Log("landing", "View error: %v", err)
			app.ServerError(w, r, "Failed to load page")
			return
		}
		created = true
	}

	if r.URL.Path == "/" {
		if !vis.mu.TryLock() {
			// an action such as a creation is still running
			vs.render(w, r, vis.view.State(), "")
			return
		}
	} else {
		vis.mu.Lock()
	}
	defer vis.mu.Unlock()

	vis.seen.Store(time.Now().UnixNano())
	vis.ctx = r.Context()
	defer func() { vis.ctx = context.Background() }()

	// the browser's session cookie is the source of truth for the token
	vis.client.SetToken(token)

	if r.URL.Path == "/" {
		vs.page(w, r, vis, created)
		return
	}
	vs.act(w, r, vis, action)
}

// guest renders the anonymous page without keeping a view
func (vs *Views) guest(w http.ResponseWriter, r *http.Request) {
	s := State{AuthOpen: r.URL.Query().Get("signin") == "1"}
	vs.render(w, r, s, "")
}

func (vs *Views) render(w http.ResponseWriter, r *http.Request, s State, authErr string) {
	app.Respond(w, r, app.Response{
		Title:       "Create",
		Description: "What do you want to make today?",
		HTML:        Render(s, authErr),
	})
}

func (vs *Views) page(w http.ResponseWriter, r *http.Request, vis *visitor, created bool) {
	vis.view.Mount(r.Context())

	if r.URL.Query().Get("signin") == "1" {
		vis.view.OpenAuth()
	}

	s := vis.view.State()
	authErr := ""
	if s.AuthOpen {
		authErr = vis.authErr
	}

	if created {
		app.Log("landing", "New view %s", vis.id)
	}

	vs.render(w, r, s, authErr)
}

func (vs *Views) act(w http.ResponseWriter, r *http.Request, vis *visitor, action string) {
	if err := r.ParseForm(); err != nil {
		app.BadRequest(w, r, "Invalid form")
		return
	}
	ctx := r.Context()
	view := vis.view

	switch action {
	case "template":
		view.SelectTemplate(r.Form.Get("id"))
	case "quickstart":
		view.SelectQuickStart(r.Form.Get("text"))
	case "submit":
		view.SetPrompt(r.Form.Get("prompt"))
		vis.next = ""
		if view.Submit() == Created && vis.next != "" {
			next := vis.next
			vs.drop(vis)
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
	case "logout":
		view.Logout(ctx)
		auth.ClearCookie(w)
	case "signin":
		vis.authErr = ""
		view.OpenAuth()
	case "close":
		vis.authErr = ""
		view.CloseAuth()
	case "auth":
		vs.authenticate(ctx, w, r, vis)
	default:
		app.NotFound(w, r, "Unknown action")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authenticate handles the dialog's sign in and sign up forms
func (vs *Views) authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, vis *visitor) {
	var (
		u   *User
		err error
	)

	email := r.Form.Get("email")
	password := r.Form.Get("password")
	if r.Form.Get("mode") == "signup" {
		u, err = vis.client.Signup(ctx, r.Form.Get("name"), email, password)
	} else {
		u, err = vis.client.Login(ctx, email, password)
	}

	if err != nil {
		vis.authErr = authMessage(err)
		vis.view.OpenAuth()
		return
	}

	vis.authErr = ""
	auth.SetCookie(w, vis.client.Token())
	vis.view.OnAuthSuccess(ctx, u)
}

// authMessage is the text shown in the dialog for a failed attempt
func authMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	app.Log("landing", "Auth error: %v", err)
	return "Something went wrong, please try again"
}
