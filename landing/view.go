// Package landing implements the app builder's landing screen: a view-model
// holding the visitor's draft and session state, an HTTP client for the
// session and project endpoints, and the server-rendered page around them.
package landing

import (
	"context"
	"strings"
	"sync"

	"peaks/app"
)

// Session reports and ends the visitor's signed-in session
type Session interface {
	// CheckSession returns the current user. A nil user with a nil error means anonymous.
	CheckSession(ctx context.Context) (*User, error)
	Logout(ctx context.Context) error
}

// ProjectLister lists a user's projects, newest first
type ProjectLister interface {
	ListProjects(ctx context.Context, userID string) ([]*Project, error)
}

// Creator is the app-generation entry point. The view forwards the request
// and does not look at what happens next.
type Creator interface {
	CreateApp(prompt, appType string)
}

// CreatorFunc adapts a function to Creator
type CreatorFunc func(prompt, appType string)

func (f CreatorFunc) CreateApp(prompt, appType string) { f(prompt, appType) }

// Outcome reports what Submit did
type Outcome int

const (
	// Ignored means the prompt was blank
	Ignored Outcome = iota
	// NeedsAuth means the auth modal was opened instead
	NeedsAuth
	// Created means the Creator was invoked
	Created
)

// State is a snapshot of the view for rendering
type State struct {
	User     *User
	AuthOpen bool
	Prompt   string
	Tags     []string
	Projects []*Project
	Loading  bool
}

// Selected reports whether the template id is the active tag
func (s State) Selected(id string) bool {
	for _, t := range s.Tags {
		if t == id {
			return true
		}
	}
	return false
}

// View is the landing page view-model. It is safe for concurrent use;
// the lock is never held across a collaborator call.
type View struct {
	session Session
	lister  ProjectLister
	creator Creator

	mu       sync.Mutex
	user     *User
	authOpen bool
	prompt   string
	tags     []string
	projects []*Project
	loading  bool
}

// New returns an anonymous view with an empty draft
func New(session Session, lister ProjectLister, creator Creator) *View {
	return &View{
		session: session,
		lister:  lister,
		creator: creator,
	}
}

// State returns a copy of the current state
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := State{
		AuthOpen: v.authOpen,
		Prompt:   v.prompt,
		Tags:     append([]string(nil), v.tags...),
		Projects: append([]*Project(nil), v.projects...),
		Loading:  v.loading,
	}
	if v.user != nil {
		u := *v.user
		s.User = &u
	}
	return s
}

// Mount runs the on-open session check
func (v *View) Mount(ctx context.Context) {
	v.CheckSession(ctx)
}

// CheckSession asks the session endpoint who the visitor is. An anonymous
// answer signs the view out; a failed check leaves the state as it was.
func (v *View) CheckSession(ctx context.Context) {
	u, err := v.session.CheckSession(ctx)
	if err != nil {
		app.Log("landing", "Session check failed: %v", err)
		return
	}
	if u == nil {
		v.signOut()
		return
	}
	v.setUser(ctx, u)
}

func (v *View) signOut() {
	v.mu.Lock()
	v.user = nil
	v.projects = nil
	v.mu.Unlock()
}

// setUser stores the user and loads projects when the visitor becomes a
// different signed-in user.
func (v *View) setUser(ctx context.Context, u *User) {
	v.mu.Lock()
	changed := v.user == nil || v.user.ID != u.ID
	v.user = u
	v.mu.Unlock()

	if changed {
		v.LoadRecentProjects(ctx)
	}
}

// LoadRecentProjects replaces the project list with the newest MaxRecent
// projects. On failure the previous list stays.
func (v *View) LoadRecentProjects(ctx context.Context) {
	v.mu.Lock()
	u := v.user
	v.mu.Unlock()

	if u == nil {
		return
	}

	list, err := v.lister.ListProjects(ctx, u.ID)
	if err != nil {
		app.Log("landing", "Failed to load recent projects: %v", err)
		return
	}
	if len(list) > MaxRecent {
		list = list[:MaxRecent]
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// the visitor may have signed out while the request was in flight
	if v.user == nil || v.user.ID != u.ID {
		return
	}
	v.projects = list
}

// SelectTemplate replaces the draft with the template's prompt and makes it
// the only active tag. Unknown ids are ignored.
func (v *View) SelectTemplate(id string) {
	t := FindTemplate(id)
	if t == nil {
		return
	}

	v.mu.Lock()
	v.prompt = t.Prompt
	v.tags = []string{t.ID}
	v.mu.Unlock()
}

// SelectQuickStart replaces the draft with text and clears the active tag
func (v *View) SelectQuickStart(text string) {
	v.mu.Lock()
	v.prompt = text
	v.tags = nil
	v.mu.Unlock()
}

// SetPrompt records typed input
func (v *View) SetPrompt(text string) {
	v.mu.Lock()
	v.prompt = text
	v.mu.Unlock()
}

// OpenAuth shows the auth modal
func (v *View) OpenAuth() {
	v.mu.Lock()
	v.authOpen = true
	v.mu.Unlock()
}

// CloseAuth hides the auth modal
func (v *View) CloseAuth() {
	v.mu.Lock()
	v.authOpen = false
	v.mu.Unlock()
}

// Submit forwards the draft to the Creator. Anonymous visitors get the auth
// modal and keep their draft. The draft is never cleared here.
func (v *View) Submit() Outcome {
	v.mu.Lock()
	if v.user == nil {
		v.authOpen = true
		v.mu.Unlock()
		return NeedsAuth
	}
	if strings.TrimSpace(v.prompt) == "" {
		v.mu.Unlock()
		return Ignored
	}

	prompt := v.prompt
	appType := DefaultType
	if len(v.tags) > 0 {
		appType = v.tags[0]
	}
	v.loading = true
	v.mu.Unlock()

	v.creator.CreateApp(prompt, appType)

	v.mu.Lock()
	v.loading = false
	v.mu.Unlock()
	return Created
}

// Logout ends the session. Local state is cleared even if the call fails.
func (v *View) Logout(ctx context.Context) {
	if err := v.session.Logout(ctx); err != nil {
		app.Log("landing", "Logout error: %v", err)
	}
	v.signOut()
}

// OnAuthSuccess is called by the auth modal with the signed-in user
func (v *View) OnAuthSuccess(ctx context.Context, u *User) {
	if u == nil {
		return
	}
	v.CloseAuth()
	v.setUser(ctx, u)
}
