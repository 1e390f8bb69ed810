package projects

import (
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"peaks/app"
	"peaks/auth"
)

// PublicURL is the externally visible base URL used in share links.
// Empty means derive it from the request.
var PublicURL = ""

type createRequest struct {
	Prompt string `json:"prompt"`
	Type   string `json:"type"`
}

// APIHandler handles /api/projects
func APIHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleList(w, r)
	case http.MethodPost:
		handleCreate(w, r)
	default:
		app.MethodNotAllowed(w, r)
	}
}

// handleList handles GET /api/projects?userId=
func handleList(w http.ResponseWriter, r *http.Request) {
	_, acc, err := auth.RequireSession(r)
	if err != nil {
		app.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = acc.ID
	}
	if userID != acc.ID {
		app.RespondError(w, http.StatusForbidden, "not authorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := ListByUser(userID, limit)
	if err != nil {
		app.Log("projects", "List error: %v", err)
		app.RespondError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	records := make([]*Record, 0, len(list))
	for _, p := range list {
		records = append(records, p.Record())
	}

	app.RespondJSON(w, map[string]interface{}{
		"success":  true,
		"projects": records,
	})
}

// handleCreate handles POST /api/projects
func handleCreate(w http.ResponseWriter, r *http.Request) {
	_, acc, err := auth.RequireSession(r)
	if err != nil {
		app.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var req createRequest
	if err := app.DecodeJSON(r, &req); err != nil {
		app.RespondError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		app.RespondError(w, http.StatusBadRequest, "prompt required")
		return
	}

	p, err := Create(acc.ID, req.Prompt, req.Type)
	if err != nil {
		app.Log("projects", "Create error: %v", err)
		app.RespondError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	app.RespondJSONStatus(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"project": p.Record(),
	})
}

// Handler handles the /projects pages
func Handler(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/projects"), "/")

	switch {
	case path == "":
		handleIndex(w, r)
	case strings.HasSuffix(path, "/visibility"):
		handleVisibility(w, r, strings.TrimSuffix(path, "/visibility"))
	default:
		app.Route(app.RouteOpts{
			Methods: []string{http.MethodGet},
			JSON: func(w http.ResponseWriter, r *http.Request) {
				if p := viewable(w, r, path); p != nil {
					app.RespondJSON(w, p.Record())
				}
			},
			HTML: func(w http.ResponseWriter, r *http.Request) {
				if p := viewable(w, r, path); p != nil {
					renderProject(w, r, p)
				}
			},
		})(w, r)
	}
}

// viewable loads a project the caller may see, or writes a 404
func viewable(w http.ResponseWriter, r *http.Request, id string) *Project {
	p, err := Get(id)
	if err != nil {
		app.Log("projects", "Get %s error: %v", id, err)
		app.ServerError(w, r, "Failed to load project")
		return nil
	}

	var viewer string
	if sess, err := auth.GetSession(r); err == nil {
		viewer = sess.Account
	}

	// private projects are hidden rather than forbidden
	if p == nil || (!p.Public && p.UserID != viewer) {
		app.NotFound(w, r, "Project not found")
		return nil
	}
	return p
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	_, acc, err := auth.RequireSession(r)
	if err != nil {
		app.RedirectToLogin(w, r)
		return
	}

	list, err := ListByUser(acc.ID, 0)
	if err != nil {
		app.Log("projects", "List error: %v", err)
		app.ServerError(w, r, "Failed to load projects")
		return
	}

	var content strings.Builder
	for _, p := range list {
		content.WriteString(renderCard(p))
	}

	grid := ""
	if content.Len() > 0 {
		grid = app.Grid(content.String())
	}

	app.Respond(w, r, app.Response{
		Title:       "Your Apps",
		Description: "All of your apps",
		HTML: `<p><a href="/">&larr; Back</a></p><h2>Your Apps</h2>` + app.Page(app.PageOpts{
			Action:  "/",
			Label:   "+ New App",
			Content: grid,
			Empty:   "No apps yet.",
		}),
	})
}

func renderCard(p *Project) string {
	visibility := "Private"
	if p.Public {
		visibility = `<span class="public">Public</span>`
	}
	return app.CardDiv(
		app.Title(p.Name, "/projects/"+p.ID) +
			app.Meta(html.EscapeString(p.Type)+" · "+app.TimeAgo(p.CreatedAt)+" · "+visibility) +
			app.Desc(p.Description),
	)
}

func renderProject(w http.ResponseWriter, r *http.Request, p *Project) {
	var viewer string
	if sess, err := auth.GetSession(r); err == nil {
		viewer = sess.Account
	}

	var b strings.Builder
	b.WriteString(`<p><a href="/">&larr; Back</a></p>`)
	b.WriteString(`<h2>` + html.EscapeString(p.Name) + `</h2>`)
	b.WriteString(app.Meta(fmt.Sprintf("%s · %s · %s",
		html.EscapeString(p.Type), html.EscapeString(p.Status), p.CreatedAt.Format("Jan 2, 2006"))))
	b.WriteString(`<div class="card">` + app.RenderString(p.Prompt) + `</div>`)

	if p.Public {
		if img, err := shareCode(shareURL(r, p)); err == nil {
			b.WriteString(`<div class="share"><p>Share</p><img alt="QR code" src="` + img + `"></div>`)
		} else {
			app.Log("projects", "QR code error: %v", err)
		}
	}

	if viewer == p.UserID {
		label, value := "Make public", "1"
		if p.Public {
			label, value = "Make private", "0"
		}
		b.WriteString(app.PostButton("/projects/"+p.ID+"/visibility", label, "btn-outline", "public", value))
	}

	app.Respond(w, r, app.Response{
		Title:       p.Name,
		Description: p.Description,
		HTML:        b.String(),
	})
}

func handleVisibility(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, r)
		return
	}

	_, acc, err := auth.RequireSession(r)
	if err != nil {
		app.RedirectToLogin(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		app.BadRequest(w, r, "Invalid form")
		return
	}
	public := r.Form.Get("public") == "1"

	switch err := SetPublic(id, acc.ID, public); err {
	case nil:
	case ErrNotFound, ErrNotAuthorized:
		app.NotFound(w, r, "Project not found")
		return
	default:
		app.Log("projects", "Visibility error: %v", err)
		app.ServerError(w, r, "Failed to update project")
		return
	}

	http.Redirect(w, r, "/projects/"+id, http.StatusSeeOther)
}

func shareURL(r *http.Request, p *Project) string {
	base := PublicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return strings.TrimSuffix(base, "/") + "/projects/" + p.ID
}

// shareCode renders the link as a PNG QR code data URI
func shareCode(link string) (string, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, 192)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
