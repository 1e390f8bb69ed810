package landing

import (
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"peaks/app"
)

// Placeholder is the hint shown in the empty prompt box
const Placeholder = "Describe an app or site you want to create..."

var pageTemplate = `<div id="head">
  <div id="brand">Peaks</div>
  <div id="account">%s</div>
</div>
<div class="hero">
  <h1>Hi %s, what do you want to make today?</h1>
  <p>%s</p>
  <form class="prompt" method="POST" action="/landing/submit">
    <textarea name="prompt" placeholder="%s">%s</textarea>
    <button type="submit" class="generate"%s>Generate</button>
  </form>
  <div class="templates">%s</div>
  <div class="starters">
    <h3>Quick starters</h3>
    %s
  </div>
</div>
%s
%s`

// Render returns the landing page body for the state. authErr is shown
// inside the auth dialog when it is open.
func Render(s State, authErr string) string {
	name := ""
	if s.User != nil {
		name = s.User.Name
	}

	disabled := ""
	if s.Loading {
		disabled = " disabled"
	}

	return fmt.Sprintf(pageTemplate,
		renderAccount(s),
		html.EscapeString(name),
		html.EscapeString(Placeholder),
		html.EscapeString(Placeholder),
		html.EscapeString(s.Prompt),
		disabled,
		renderTemplates(s),
		renderStarters(),
		renderRecent(s),
		renderAuth(s, authErr),
	)
}

func renderAccount(s State) string {
	if s.User == nil {
		return app.PostButton("/landing/signin", "Sign in", "")
	}
	return `<span>Hi, ` + html.EscapeString(s.User.Name) + `</span>` +
		app.PostButton("/landing/logout", "Log out", "btn-ghost")
}

func renderTemplates(s State) string {
	var b strings.Builder
	for _, t := range Featured() {
		class := "template"
		if s.Selected(t.ID) {
			class += " selected " + t.Gradient
		}
		fmt.Fprintf(&b, `<form method="POST" action="/landing/template">`+
			`<input type="hidden" name="id" value="%s">`+
			`<button type="submit" class="%s" data-template="%s">`+
			`<div class="label">%s</div><div class="desc">%s</div>`+
			`</button></form>`,
			html.EscapeString(t.ID),
			class,
			html.EscapeString(t.ID),
			html.EscapeString(t.Label),
			html.EscapeString(t.Description),
		)
	}
	return b.String()
}

func renderStarters() string {
	var b strings.Builder
	for _, text := range QuickStarters[:shownStarters] {
		b.WriteString(app.PostButton("/landing/quickstart", text, "btn-outline", "text", text))
	}
	return b.String()
}

func renderRecent(s State) string {
	if s.User == nil {
		return ""
	}

	var cards strings.Builder
	for _, p := range s.Projects {
		cards.WriteString(renderProject(p))
	}

	content := app.Empty("No recent apps yet. Create your first app above!")
	if cards.Len() > 0 {
		content = app.Grid(cards.String())
	}

	return `<div class="recent"><div class="recent-head"><h2>Your recent Apps</h2>` +
		`<a href="/projects" class="btn btn-ghost">View All &rarr;</a></div>` +
		content + `</div>`
}

func renderProject(p *Project) string {
	visibility := ""
	if p.Public {
		visibility = ` · <span class="public">Public</span>`
	}
	return app.CardDiv(
		`<span class="badge">`+html.EscapeString(initial(p.Name))+`</span>`+
			app.Title(p.Name, "/projects/"+p.ID)+
			app.Meta(p.CreatedAt.Format("Jan 2, 2006")+visibility)+
			app.Desc(p.Description),
	)
}

// initial is the upper-cased first letter of name
func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

var authTemplate = `<dialog open id="auth">
  <h3>Sign in to Peaks</h3>
  %s
  <form method="POST" action="/landing/auth">
    <input type="hidden" name="mode" value="login">
    <input type="email" name="email" placeholder="Email" required>
    <input type="password" name="password" placeholder="Password" required>
    <button type="submit">Sign in</button>
  </form>
  <h3>Create an account</h3>
  <form method="POST" action="/landing/auth">
    <input type="hidden" name="mode" value="signup">
    <input type="text" name="name" placeholder="Name">
    <input type="email" name="email" placeholder="Email" required>
    <input type="password" name="password" placeholder="Password (8+ characters)" required>
    <button type="submit">Sign up</button>
  </form>
  %s
</dialog>`

func renderAuth(s State, authErr string) string {
	if !s.AuthOpen {
		return ""
	}
	msg := ""
	if authErr != "" {
		msg = `<p class="text-error">` + html.EscapeString(authErr) + `</p>`
	}
	return fmt.Sprintf(authTemplate, msg, app.PostButton("/landing/close", "Close", "btn-ghost"))
}
